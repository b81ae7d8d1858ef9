package client

import (
	"fmt"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

func combatantCommands() []*cobra.Command {
	var (
		encounterID string
		combatantID string
		add         v1alpha1.AddCombatantRequest
		amount      int
		source      string
		initiative  int
		sortAfter   bool
		success     bool
		rollSave    bool
		saveRoll    int
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a combatant",
		RunE: func(_ *cobra.Command, _ []string) error {
			add.EncounterID = encounterID
			result := &v1alpha1.CombatantResult{}
			if err := call("AddCombatant", &add, result); err != nil {
				return err
			}
			if result.Initiative != nil && !asJSON {
				fmt.Fprintf(out, "\n%s rolled %d for initiative (total %d)\n",
					result.Combatant.Name, result.Initiative.Roll, result.Initiative.Total)
			}
			return nil
		},
	}
	addCmd.Flags().StringVar(&add.Name, "name", "", "Combatant name (required)")
	addCmd.Flags().StringVar(&add.Kind, "kind", "monster", "monster, npc or player")
	addCmd.Flags().StringVar(&add.ReferenceID, "ref", "", "Character or monster reference")
	addCmd.Flags().IntVar(&add.MaxHP, "hp", 0, "Maximum hit points (required)")
	addCmd.Flags().IntVar(&add.ArmorClass, "ac", 10, "Armor class")
	addCmd.Flags().IntVar(&add.InitiativeBonus, "init-bonus", 0, "Initiative bonus")
	addCmd.Flags().BoolVar(&add.RollInitiative, "roll", false, "Roll initiative right away")
	requireFlags(addCmd, "name", "hp")

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a combatant",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("RemoveCombatant", &v1alpha1.CombatantRequest{EncounterID: encounterID, CombatantID: combatantID}, nil)
		},
	}

	rollCmd := &cobra.Command{
		Use:   "initiative",
		Short: "Roll initiative for one combatant, or everyone without --combatant",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("RollInitiative", &v1alpha1.RollInitiativeRequest{
				EncounterID: encounterID,
				CombatantID: combatantID,
				Sort:        sortAfter,
			}, nil)
		},
	}
	rollCmd.Flags().BoolVar(&sortAfter, "sort", false, "Sort by initiative after rolling")

	setInitCmd := &cobra.Command{
		Use:   "set-initiative",
		Short: "Enter an initiative rolled at the table",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("SetInitiative", &v1alpha1.SetInitiativeRequest{
				EncounterID: encounterID,
				CombatantID: combatantID,
				Initiative:  initiative,
			}, nil)
		},
	}
	setInitCmd.Flags().IntVar(&initiative, "value", 0, "Initiative total (required)")
	requireFlags(setInitCmd, "value")

	amountCmd := func(use, short, method string) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(_ *cobra.Command, _ []string) error {
				return call(method, &v1alpha1.AmountRequest{
					EncounterID: encounterID,
					CombatantID: combatantID,
					Amount:      amount,
					Source:      source,
				}, nil)
			},
		}
		cmd.Flags().IntVar(&amount, "amount", 0, "Amount (required)")
		cmd.Flags().StringVar(&source, "source", "", "Who or what caused it")
		requireFlags(cmd, "amount")
		return cmd
	}
	damageCmd := amountCmd("damage", "Damage a combatant", "ApplyDamage")
	healCmd := amountCmd("heal", "Heal a combatant", "ApplyHealing")
	tempCmd := amountCmd("temp-hp", "Grant temporary hit points; 0 removes them", "SetTempHP")

	deathSaveCmd := &cobra.Command{
		Use:   "death-save",
		Short: "Record or roll a death save",
		RunE: func(_ *cobra.Command, _ []string) error {
			result := &v1alpha1.DeathSaveMessage{}
			var err error
			if rollSave {
				err = call("RollDeathSave", &v1alpha1.CombatantRequest{EncounterID: encounterID, CombatantID: combatantID}, result)
			} else {
				err = call("RecordDeathSave", &v1alpha1.DeathSaveRequest{
					EncounterID: encounterID,
					CombatantID: combatantID,
					Success:     success,
					Roll:        saveRoll,
				}, result)
			}
			if err != nil {
				return err
			}
			if !asJSON {
				fmt.Fprintf(out, "\nDeath saves: %d successes, %d failures\n", result.Successes, result.Failures)
			}
			return nil
		},
	}
	deathSaveCmd.Flags().BoolVar(&rollSave, "roll", false, "Roll the d20 on the server")
	deathSaveCmd.Flags().BoolVar(&success, "success", false, "Record a success instead of a failure")
	deathSaveCmd.Flags().IntVar(&saveRoll, "d20", 0, "The d20 shown at the table")
	deathSaveCmd.MarkFlagsMutuallyExclusive("roll", "success")

	for _, cmd := range []*cobra.Command{removeCmd, setInitCmd, damageCmd, healCmd, tempCmd, deathSaveCmd} {
		cmd.Flags().StringVar(&combatantID, "combatant", "", "Combatant ID (required)")
		requireFlags(cmd, "combatant")
	}
	rollCmd.Flags().StringVar(&combatantID, "combatant", "", "Combatant ID; empty rolls for everyone")

	cmds := []*cobra.Command{addCmd, removeCmd, rollCmd, setInitCmd, damageCmd, healCmd, tempCmd, deathSaveCmd}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
		requireFlags(cmd, "encounter")
	}
	return cmds
}
