package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

func printEntry(entry combat.LogEntry) error {
	if asJSON {
		return printJSON(entry)
	}
	_, err := fmt.Fprintf(out, "%4d  R%-2d %-14s %s\n", entry.Sequence, entry.Round, entry.Kind, entry.Description)
	return err
}

func logCommands() []*cobra.Command {
	var (
		encounterID string
		after       int64
		actor       string
		text        string
		levels      []int
		xp          []int
	)

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Print an encounter's combat log",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp := &v1alpha1.LogResponse{}
			if err := query("GetLog", &v1alpha1.LogRequest{EncounterID: encounterID, AfterSequence: after}, resp); err != nil {
				return err
			}
			for _, entry := range resp.Entries {
				if err := printEntry(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow an encounter's combat log until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			client, cleanup, err := createCombatClient()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			err = client.WatchLog(ctx, &v1alpha1.LogRequest{EncounterID: encounterID, AfterSequence: after}, printEntry)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	for _, cmd := range []*cobra.Command{logCmd, watchCmd} {
		cmd.Flags().Int64Var(&after, "after", 0, "Skip entries up to this sequence")
	}

	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Add a free-text entry to the log",
		RunE: func(_ *cobra.Command, _ []string) error {
			return call("AddNote", &v1alpha1.AddNoteRequest{EncounterID: encounterID, Actor: actor, Text: text}, nil)
		},
	}
	noteCmd.Flags().StringVar(&actor, "actor", "", "Who the note is about")
	noteCmd.Flags().StringVar(&text, "text", "", "Note text (required)")
	requireFlags(noteCmd, "text")

	cmds := []*cobra.Command{logCmd, watchCmd, noteCmd}
	for _, cmd := range cmds {
		cmd.Flags().StringVar(&encounterID, "encounter", "", "Encounter ID (required)")
		requireFlags(cmd, "encounter")
	}

	rateCmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate an encounter's difficulty for a party",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp := &v1alpha1.RatingResponse{}
			if err := query("RateEncounter", &v1alpha1.RateEncounterRequest{PartyLevels: levels, MonsterXP: xp}, resp); err != nil {
				return err
			}
			if asJSON {
				return printJSON(resp)
			}
			fmt.Fprintf(out, "Base XP %d x%.1f = %d adjusted: %s\n", resp.BaseXP, resp.Multiplier, resp.AdjustedXP, resp.Difficulty)
			fmt.Fprintf(out, "Party thresholds: easy %d, medium %d, hard %d, deadly %d\n",
				resp.Party.Easy, resp.Party.Medium, resp.Party.Hard, resp.Party.Deadly)
			return nil
		},
	}
	rateCmd.Flags().IntSliceVar(&levels, "levels", nil, "Party character levels (required)")
	rateCmd.Flags().IntSliceVar(&xp, "xp", nil, "Monster XP values (required)")
	requireFlags(rateCmd, "levels", "xp")

	return append(cmds, rateCmd)
}
