package client

import (
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

func effectCommands() []*cobra.Command {
	var (
		encounterID string
		combatantID string
		effectID    string
		spell       string
		condition   string
		remove      bool
		stop        bool
		logBroken   bool
		saveTotal   int
		effect      v1alpha1.ApplyEffectRequest
		save        v1alpha1.SaveMessage
	)

	effectCmd := &cobra.Command{
		Use:   "effect",
		Short: "Apply a status effect",
		Long: `Apply a status effect. Duration kinds: instantaneous, rounds, minutes,
hours, until_dispelled, until_end_of_turn_of, until_start_of_turn_of,
save_ends and permanent. save_ends takes its DC and ability from --save-dc
and --save-ability.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			effect.EncounterID = encounterID
			effect.TargetID = combatantID
			if effect.Duration.Kind == string(combat.DurationSaveEnds) {
				effect.Duration.DC = save.DC
				effect.Duration.Ability = save.Ability
			} else if save.Ability != "" {
				s := save
				effect.Save = &s
			}
			return call("ApplyEffect", &effect, nil)
		},
	}
	effectCmd.Flags().StringVar(&effect.Name, "name", "", "Effect name (required)")
	effectCmd.Flags().StringVar(&effect.Description, "description", "", "Effect description")
	effectCmd.Flags().StringVar(&effect.SourceName, "source", "", "Who applied it")
	effectCmd.Flags().StringVar(&effect.SourceSpell, "spell", "", "Spell that applied it")
	effectCmd.Flags().StringVar(&effect.CasterID, "caster", "", "Caster combatant ID")
	effectCmd.Flags().StringVar(&effect.Duration.Kind, "duration", "rounds", "Duration kind")
	effectCmd.Flags().IntVar(&effect.Duration.N, "n", 1, "Rounds, minutes or hours")
	effectCmd.Flags().StringVar(&effect.Duration.Creature, "creature", "", "Combatant whose turn ends the effect")
	effectCmd.Flags().BoolVar(&effect.RequiresConcentration, "concentration", false, "Effect requires the caster's concentration")
	effectCmd.Flags().BoolVar(&effect.IsBeneficial, "beneficial", false, "Effect is beneficial")
	effectCmd.Flags().BoolVar(&effect.IsHidden, "hidden", false, "Hide the effect from players")
	effectCmd.Flags().StringVar(&save.Ability, "save-ability", "", "Ability for a repeated save, e.g. WIS")
	effectCmd.Flags().IntVar(&save.DC, "save-dc", 0, "Save DC")
	effectCmd.Flags().StringVar(&save.Timing, "save-timing", "end_of_turn", "When the save is rolled")
	requireFlags(effectCmd, "name")

	dispelCmd := &cobra.Command{
		Use:   "dispel",
		Short: "Remove a status effect",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("DispelEffect", &v1alpha1.EffectRequest{EncounterID: encounterID, EffectID: effectID}, nil)
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Resolve a save against an effect",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("ResolveSave", &v1alpha1.ResolveSaveRequest{
				EncounterID: encounterID,
				EffectID:    effectID,
				Total:       saveTotal,
			}, &v1alpha1.SaveResult{})
		},
	}
	saveCmd.Flags().IntVar(&saveTotal, "total", 0, "Save total (required)")
	requireFlags(saveCmd, "total")

	for _, cmd := range []*cobra.Command{dispelCmd, saveCmd} {
		cmd.Flags().StringVar(&effectID, "effect", "", "Effect ID (required)")
		requireFlags(cmd, "effect")
	}

	conditionCmd := &cobra.Command{
		Use:   "condition",
		Short: "Add or remove a condition",
		RunE: func(_ *cobra.Command, _ []string) error {
			method := "AddCondition"
			if remove {
				method = "RemoveCondition"
			}
			return call(method, &v1alpha1.ConditionRequest{
				EncounterID: encounterID,
				CombatantID: combatantID,
				Condition:   condition,
			}, nil)
		},
	}
	conditionCmd.Flags().StringVar(&condition, "name", "", "Condition name (required)")
	conditionCmd.Flags().BoolVar(&remove, "remove", false, "Remove instead of add")
	requireFlags(conditionCmd, "name")

	concentrateCmd := &cobra.Command{
		Use:   "concentrate",
		Short: "Start or end concentration",
		RunE: func(_ *cobra.Command, _ []string) error {
			req := &v1alpha1.ConcentrationRequest{
				EncounterID: encounterID,
				CombatantID: combatantID,
				Spell:       spell,
				LogBroken:   logBroken,
			}
			if stop {
				return call("EndConcentration", req, &v1alpha1.ConcentrationResult{})
			}
			return call("StartConcentration", req, &v1alpha1.ConcentrationResult{})
		},
	}
	concentrateCmd.Flags().StringVar(&spell, "spell", "", "Spell being concentrated on")
	concentrateCmd.Flags().BoolVar(&stop, "end", false, "End concentration")
	concentrateCmd.Flags().BoolVar(&logBroken, "log-broken", false, "Log the replaced spell as broken")

	for _, cmd := range []*cobra.Command{effectCmd, conditionCmd, concentrateCmd} {
		cmd.Flags().StringVar(&combatantID, "combatant", "", "Combatant ID (required)")
		requireFlags(cmd, "combatant")
	}

	cmds := []*cobra.Command{effectCmd, dispelCmd, saveCmd, conditionCmd, concentrateCmd}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
		requireFlags(cmd, "encounter")
	}
	return cmds
}
