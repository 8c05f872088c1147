package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List available scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios, err := newScenarioStore().List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d scenarios available:\n", len(scenarios))
		for _, s := range scenarios {
			desc := s.Description
			if desc == "" {
				desc = "No description"
			}
			fmt.Fprintf(out, "  - %s (%s): %s\n", s.Name, s.TestType, desc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
