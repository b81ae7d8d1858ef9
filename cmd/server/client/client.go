// Package client provides commands that drive a running combat tracker
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	v1alpha1 "github.com/KirkDiggler/rpg-tracker/internal/handlers/combat/v1alpha1"
)

var (
	// Connection flags
	serverAddr string
	timeout    time.Duration
	asJSON     bool

	// out is where command output goes; tests swap it
	out io.Writer = os.Stdout
)

// ClientCmd is the root command for all client commands
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Drive a running combat tracker",
	Long:  `Client commands call the combat service over gRPC, one operation per command.`,
}

func init() {
	ClientCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:50051", "gRPC server address")
	ClientCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	ClientCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw responses as JSON")

	ClientCmd.AddCommand(encounterCommands()...)
	ClientCmd.AddCommand(combatantCommands()...)
	ClientCmd.AddCommand(effectCommands()...)
	ClientCmd.AddCommand(spellCommands()...)
	ClientCmd.AddCommand(logCommands()...)
}

// createConnection creates a gRPC connection to the server
func createConnection() (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(serverAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return conn, nil
}

// dial is replaced in tests with an in-process connection
var dial = func() (grpc.ClientConnInterface, func(), error) {
	conn, err := createConnection()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = conn.Close() // nolint:errcheck // safe to ignore in cleanup
	}
	return conn, cleanup, nil
}

// createCombatClient creates a combat service client
func createCombatClient() (*v1alpha1.Client, func(), error) {
	conn, cleanup, err := dial()
	if err != nil {
		return nil, nil, err
	}
	return v1alpha1.NewClient(conn), cleanup, nil
}

// call runs one unary method and prints what it changed
func call(method string, req any, result any) error {
	client, cleanup, err := createCombatClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp := &v1alpha1.MutationResponse{Result: result}
	if err := client.Call(ctx, method, req, resp); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if asJSON {
		return printJSON(resp)
	}
	printMutation(resp)
	return nil
}

// query runs one read-only method into resp
func query(method string, req any, resp any) error {
	client, cleanup, err := createCombatClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Call(ctx, method, req, resp); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMutation(resp *v1alpha1.MutationResponse) {
	for _, entry := range resp.Entries {
		fmt.Fprintf(out, "  #%d %s\n", entry.Sequence, entry.Description)
	}
	if resp.Encounter != nil {
		printEncounter(resp.Encounter)
	}
}

func printEncounter(msg *v1alpha1.EncounterMessage) {
	enc := msg.Encounter
	fmt.Fprintf(out, "\n%s (%s) state=%s round=%d\n", enc.Name, enc.ID, enc.State, enc.CurrentRound)
	for _, c := range msg.Combatants {
		marker := " "
		if c.ID == msg.CurrentCombatantID {
			marker = ">"
		}
		fmt.Fprintf(out, " %s %-20s %-8s init=%-3d hp=%d/%d", marker, c.Name, c.Kind, c.Initiative, c.CurrentHP, c.MaxHP)
		if c.TempHP > 0 {
			fmt.Fprintf(out, " (+%d)", c.TempHP)
		}
		fmt.Fprintf(out, " ac=%d id=%s\n", c.ArmorClass, c.ID)
	}
	for _, e := range msg.Effects {
		fmt.Fprintf(out, "   * %s on %s (%s) id=%s\n", e.Name, e.TargetName, combat.DescribeDuration(e.Duration), e.ID)
	}
}

// requireFlags marks flags required, ignoring the error for unknown names
func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name) // nolint:errcheck // safe to ignore in init
	}
}
