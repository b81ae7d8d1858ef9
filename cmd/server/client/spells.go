package client

import (
	"fmt"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

func spellCommands() []*cobra.Command {
	var (
		encounterID string
		combatantID string
		pool        v1alpha1.InitializeSpellPoolRequest
		slotLevel   int
		restore     bool
		long        bool
		cast        v1alpha1.CastSpellRequest
		spellLevel  int
		attack      v1alpha1.RecordAttackRequest
	)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Set up a caster's spell slots",
		RunE: func(_ *cobra.Command, _ []string) error {
			pool.EncounterID = encounterID
			pool.CombatantID = combatantID
			return call("InitializeSpellPool", &pool, &v1alpha1.PoolResult{})
		},
	}
	poolCmd.Flags().StringVar(&pool.ClassName, "class", "", "Class name (required)")
	poolCmd.Flags().IntVar(&pool.Level, "level", 1, "Class level")
	poolCmd.Flags().IntSliceVar(&pool.CustomSlots, "slots", nil, "Slots per level for a custom class")
	requireFlags(poolCmd, "class")

	slotCmd := &cobra.Command{
		Use:   "slot",
		Short: "Spend or restore one spell slot",
		RunE: func(_ *cobra.Command, _ []string) error {
			method := "UseSpellSlot"
			if restore {
				method = "RestoreSpellSlot"
			}
			result := &v1alpha1.PoolResult{}
			if err := call(method, &v1alpha1.SpellSlotRequest{
				EncounterID: encounterID,
				CombatantID: combatantID,
				Level:       slotLevel,
			}, result); err != nil {
				return err
			}
			if !result.Changed && !asJSON {
				fmt.Fprintln(out, "\nNo slot changed")
			}
			return nil
		},
	}
	slotCmd.Flags().IntVar(&slotLevel, "level", 1, "Slot level; 0 is the pact slot")
	slotCmd.Flags().BoolVar(&restore, "restore", false, "Restore instead of spend")

	restCmd := &cobra.Command{
		Use:   "rest",
		Short: "Short or long rest",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("Rest", &v1alpha1.RestRequest{EncounterID: encounterID, CombatantID: combatantID, Long: long}, &v1alpha1.PoolResult{})
		},
	}
	restCmd.Flags().BoolVar(&long, "long", false, "Long rest")

	for _, cmd := range []*cobra.Command{poolCmd, slotCmd, restCmd} {
		cmd.Flags().StringVar(&combatantID, "combatant", "", "Combatant ID (required)")
		requireFlags(cmd, "combatant")
	}

	castCmd := &cobra.Command{
		Use:   "cast",
		Short: "Cast a spell, spending a slot",
		Long: `Cast a spell. Without --spell-level the level and concentration are looked
up by name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cast.EncounterID = encounterID
			if cmd.Flags().Changed("spell-level") {
				cast.Level = &spellLevel
			}
			result := &v1alpha1.CastResult{}
			if err := call("CastSpell", &cast, result); err != nil {
				return err
			}
			if !asJSON {
				fmt.Fprintf(out, "\nCast at level %d", result.SlotLevel)
				if result.UsedPactSlot {
					fmt.Fprint(out, " (pact slot)")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	castCmd.Flags().StringVar(&cast.CasterID, "caster", "", "Caster combatant ID (required)")
	castCmd.Flags().StringVar(&cast.TargetID, "target", "", "Target combatant ID")
	castCmd.Flags().StringVar(&cast.SpellName, "spell", "", "Spell name (required)")
	castCmd.Flags().IntVar(&cast.SlotLevel, "slot", 0, "Slot level; 0 uses the spell's level")
	castCmd.Flags().IntVar(&spellLevel, "spell-level", 0, "Spell level, skips the lookup")
	castCmd.Flags().BoolVar(&cast.Concentration, "concentration", false, "Spell needs concentration")
	requireFlags(castCmd, "caster", "spell")

	attackCmd := &cobra.Command{
		Use:   "attack",
		Short: "Record an attack roll",
		RunE: func(_ *cobra.Command, _ []string) error {
			attack.EncounterID = encounterID
			result := &v1alpha1.AttackResult{}
			if err := call("RecordAttack", &attack, result); err != nil {
				return err
			}
			if !asJSON {
				verdict := "miss"
				switch {
				case result.Critical:
					verdict = "critical hit"
				case result.Hit:
					verdict = "hit"
				}
				fmt.Fprintf(out, "\n%d vs AC %d: %s\n", result.Total, result.TargetAC, verdict)
			}
			return nil
		},
	}
	attackCmd.Flags().StringVar(&attack.AttackerID, "attacker", "", "Attacker combatant ID (required)")
	attackCmd.Flags().StringVar(&attack.TargetID, "target", "", "Target combatant ID (required)")
	attackCmd.Flags().IntVar(&attack.Roll, "roll", 0, "Natural d20 (required)")
	attackCmd.Flags().IntVar(&attack.Total, "total", 0, "Attack total (required)")
	requireFlags(attackCmd, "attacker", "target", "roll", "total")

	cmds := []*cobra.Command{poolCmd, slotCmd, restCmd, castCmd, attackCmd}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
		requireFlags(cmd, "encounter")
	}
	return cmds
}
