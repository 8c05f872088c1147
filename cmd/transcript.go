package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	transcriptx "github.com/cliniccall/patientsim/call/transcript"
)

var transcriptSource string

var transcriptCmd = &cobra.Command{
	Use:   "transcript <call-sid>",
	Short: "Print a saved call transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := newTranscriptStore(ctx)
		if err != nil {
			return err
		}

		snap, err := store.Load(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Call %s  scenario=%s  status=%s  turns=%d\n",
			snap.CallSID, snap.ScenarioName, snap.Status, snap.TurnCount)
		if snap.DurationSeconds > 0 {
			fmt.Fprintf(out, "Duration: %ds\n", snap.DurationSeconds)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, transcriptx.ConversationText(snap, transcriptSource))
		return nil
	},
}

func init() {
	transcriptCmd.Flags().StringVar(&transcriptSource, "source", "realtime", "Transcript source: realtime or whisper")
	rootCmd.AddCommand(transcriptCmd)
}
