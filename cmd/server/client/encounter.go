package client

import (
	"fmt"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

func encounterCommands() []*cobra.Command {
	var (
		name        string
		sessionID   string
		encounterID string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an encounter",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("CreateEncounter", &v1alpha1.CreateEncounterRequest{Name: name, SessionID: sessionID}, nil)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Encounter name (required)")
	createCmd.Flags().StringVar(&sessionID, "session", "", "Session the encounter belongs to")
	requireFlags(createCmd, "name")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show an encounter",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp := &v1alpha1.EncounterResponse{}
			if err := query("GetEncounter", &v1alpha1.EncounterRequest{EncounterID: encounterID}, resp); err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			printEncounter(resp.Encounter)
			return nil
		},
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start combat",
		Long:  `Start combat. Starting clears any combatants added before it.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("StartEncounter", &v1alpha1.StartEncounterRequest{EncounterID: encounterID, Name: name}, nil)
		},
	}
	startCmd.Flags().StringVar(&name, "name", "", "Rename the encounter")

	endCmd := &cobra.Command{
		Use:   "end",
		Short: "End combat",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("EndEncounter", &v1alpha1.EncounterRequest{EncounterID: encounterID}, nil)
		},
	}

	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Advance to the next turn",
		RunE: func(_ *cobra.Command, _ []string) error {
			turn := &v1alpha1.TurnResult{}
			if err := call("NextTurn", &v1alpha1.EncounterRequest{EncounterID: encounterID}, turn); err != nil {
				return err
			}
			if !asJSON {
				fmt.Fprintf(out, "\nRound %d: %s is up\n", turn.Round, turn.Current.Name)
				for _, e := range turn.Expired {
					fmt.Fprintf(out, "  %s expired on %s\n", e.Name, e.TargetName)
				}
			}
			return nil
		},
	}

	prevCmd := &cobra.Command{
		Use:   "prev",
		Short: "Step back to the previous turn",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("PreviousTurn", &v1alpha1.EncounterRequest{EncounterID: encounterID}, nil)
		},
	}

	sortCmd := &cobra.Command{
		Use:   "sort",
		Short: "Order combatants by initiative",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("SortByInitiative", &v1alpha1.EncounterRequest{EncounterID: encounterID}, nil)
		},
	}

	cmds := []*cobra.Command{getCmd, startCmd, endCmd, nextCmd, prevCmd, sortCmd}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
		requireFlags(cmd, "encounter")
	}
	return append([]*cobra.Command{createCmd}, cmds...)
}
