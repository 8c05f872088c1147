package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	sessionx "github.com/cliniccall/patientsim/call/session"
	configx "github.com/cliniccall/patientsim/pkg/config"
	"github.com/cliniccall/patientsim/pkg/phone"
)

var (
	callScenario string
	callDryRun   bool
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Place an outbound test call with a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		if callDryRun {
			return runDryCall(cmd, callScenario)
		}

		phoneClient, err := phone.New(*configx.MustNew[phone.Config]("TWILIO"))
		if err != nil {
			return err
		}

		sid, err := phoneClient.PlaceCall(callScenario)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Call initiated: %s (scenario %s)\n", sid, callScenario)
		return nil
	},
}

// dryRunScript is a canned clinic agent covering greeting, identity
// verification, the booking exchange, and the close.
var dryRunScript = []string{
	"Thank you for calling, how can I help you today?",
	"Sure, I can help with that. Am I speaking with the patient?",
	"Can you confirm your date of birth please?",
	"Thank you. We have Tuesday at 2 PM available, does that work?",
	"Your appointment is scheduled. You'll get a confirmation shortly. Is there anything else I can help with?",
	"Great, have a great day. Goodbye!",
}

// runDryCall drives the real session pipeline against the canned agent,
// no telephony involved. Useful for checking a scenario before burning a
// live call.
func runDryCall(cmd *cobra.Command, scenarioName string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	registry, _, err := newRegistry(ctx)
	if err != nil {
		return err
	}

	callSID := "SIM" + uuid.NewString()
	sess := registry.GetOrCreate(callSID, scenarioName)
	fmt.Fprintf(out, "Dry run %s (scenario %s)\n\n", callSID, scenarioName)

	for _, line := range dryRunScript {
		fmt.Fprintf(out, "Agent:   %s\n", line)

		result, err := sess.HandleAgentTurn(ctx, line, 0.95)
		if err != nil {
			return err
		}

		if result.Reply != "" {
			fmt.Fprintf(out, "Patient: %s\n", result.Reply)
		}
		if result.Action != sessionx.ActionListen {
			fmt.Fprintf(out, "\nCall ended: %s (%s)\n", result.Action, result.Reason)
			break
		}
	}

	sess.Complete(ctx, 0)
	registry.Remove(callSID)
	fmt.Fprintf(out, "Transcript saved for %s\n", callSID)
	return nil
}

func init() {
	callCmd.Flags().StringVar(&callScenario, "scenario", sessionx.DefaultScenarioName, "Scenario name to run")
	callCmd.Flags().BoolVar(&callDryRun, "dry-run", false, "Simulate the agent locally instead of placing a real call")
	rootCmd.AddCommand(callCmd)
}
