// Package main is the entry point for the combat tracker server and its tools
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-tracker/cmd/server/client"
)

var rootCmd = &cobra.Command{
	Use:   "rpg-tracker",
	Short: "Combat encounter tracker",
	Long: `rpg-tracker runs tabletop combat encounters: turn order, hit points,
status effects, spell slots and an ordered combat log, served over gRPC.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(client.ClientCmd)
}
