package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunDryCallReachesTerminalDecision(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCENARIO_DIR", filepath.Join(dir, "scenarios"))
	t.Setenv("TRANSCRIPT_BACKEND", "file")
	t.Setenv("TRANSCRIPT_DIR", filepath.Join(dir, "transcripts"))
	t.Setenv("OPENAI_API_KEY", "")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	if err := runDryCall(cmd, "appointment_scheduling"); err != nil {
		t.Fatalf("runDryCall: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Agent:") || !strings.Contains(got, "Patient:") {
		t.Fatalf("no conversation in output:\n%s", got)
	}
	if !strings.Contains(got, "Call ended:") {
		t.Fatalf("dry run did not reach a terminal decision:\n%s", got)
	}
	if !strings.Contains(got, "Transcript saved for SIM") {
		t.Fatalf("no transcript confirmation:\n%s", got)
	}
}
