package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "patientsim",
	Short: "Simulated patient caller for testing clinic phone agents",
	Long: `patientsim places test calls to a clinic's automated phone agent and
plays a scripted patient persona over the live call, driven by scenario
files. It records what happened turn by turn and decides, without seeing
the agent's internals, when the call's goal is done and when to hang up.

Quick start:
  patientsim serve                      # run the webhook server
  patientsim call --scenario <name>     # place an outbound test call
  patientsim scenarios                  # list available scenarios
  patientsim transcript <call-sid>      # print a saved conversation`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
