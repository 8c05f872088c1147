package scenario

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func parseTestFile(t *testing.T, raw, name string) Scenario {
	t.Helper()
	var file scenarioFile
	if err := yaml.Unmarshal([]byte(raw), &file); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return file.normalize(name)
}

func TestNormalizeSimpleForm(t *testing.T) {
	t.Parallel()

	s := parseTestFile(t, `
description: Patient calls to schedule a checkup
goal: Schedule an appointment with Dr. Smith
context: New patient, flexible on timing
`, "appointment_scheduling")

	if s.Name != "appointment_scheduling" {
		t.Fatalf("name = %q", s.Name)
	}
	if s.Goal != "Schedule an appointment with Dr. Smith" {
		t.Fatalf("goal = %q", s.Goal)
	}
	if s.TestType != TestTypeStandard {
		t.Fatalf("test type = %q", s.TestType)
	}
	if s.Persona.Name != "Lucas" || s.Persona.DOB != "02/17/2026" {
		t.Fatalf("persona = %+v", s.Persona)
	}
	if s.Persona.SpokenDOB != "February 17th, 2026." {
		t.Fatalf("spoken dob = %q", s.Persona.SpokenDOB)
	}
	if s.Persona.Background != "New patient, flexible on timing" {
		t.Fatalf("background = %q", s.Persona.Background)
	}
	if s.Persona.Behavior != "" {
		t.Fatalf("behavior = %q", s.Persona.Behavior)
	}
}

func TestNormalizeSimpleEdgePrefix(t *testing.T) {
	t.Parallel()

	s := parseTestFile(t, `
description: Caller speaks very quietly
context: Mumble and trail off mid sentence
`, "edge_mumbling_caller")

	if s.TestType != TestTypeEdgeCase {
		t.Fatalf("test type = %q", s.TestType)
	}
	if s.Persona.Behavior != "Mumble and trail off mid sentence" {
		t.Fatalf("behavior = %q", s.Persona.Behavior)
	}
	if s.Goal != "Help the caller." {
		t.Fatalf("goal = %q", s.Goal)
	}
}

func TestNormalizeRichForm(t *testing.T) {
	t.Parallel()

	s := parseTestFile(t, `
description: Identity mismatch probe
goal: fallback goal
test_type: edge_case
system_prompt_addendum: Never volunteer your real birthday.
patient_context:
  claimed_name: Jordan
  dob: "1990-06-02"
  claimed_dob: "1991-06-02"
  phone: "555-0100"
  goal: Get an appointment under a claimed identity
  background: Calls every month
  behavior: Stay polite but evasive.
  anti_repetition:
    - Never repeat the same sentence twice
  question_priority:
    - Answer direct questions before volunteering details
  response_stages:
    b_followup:
      trigger: agent asks for insurance
      examples:
        - I have it somewhere, one moment.
    a_opening:
      trigger: agent greets you
      examples:
        - Hi, I'd like to make an appointment.
        - Hello, is this the clinic?
  tone:
    - Friendly
    - Slightly rushed
`, "edge_identity_mismatch")

	if s.Goal != "Get an appointment under a claimed identity" {
		t.Fatalf("goal = %q", s.Goal)
	}
	if s.TestType != TestTypeEdgeCase {
		t.Fatalf("test type = %q", s.TestType)
	}
	if s.Persona.Name != "Jordan" {
		t.Fatalf("persona name = %q", s.Persona.Name)
	}
	// claimed_dob wins over dob
	if s.Persona.DOB != "1991-06-02" {
		t.Fatalf("dob = %q", s.Persona.DOB)
	}
	if s.Persona.SpokenDOB != "June 2nd, 1991." {
		t.Fatalf("spoken dob = %q", s.Persona.SpokenDOB)
	}

	b := s.Persona.Behavior
	if !strings.HasPrefix(b, "Stay polite but evasive.") {
		t.Fatalf("behavior does not start with the raw note: %q", b)
	}
	for _, want := range []string{
		"ANTI-REPETITION RULES:\n- Never repeat the same sentence twice",
		"QUESTION-PRIORITY BEHAVIOR:",
		"RESPONSE STAGES",
		"TONE:\n- Friendly\n- Slightly rushed",
		"Never volunteer your real birthday.",
	} {
		if !strings.Contains(b, want) {
			t.Fatalf("behavior missing %q in:\n%s", want, b)
		}
	}

	// Stage keys render in sorted order.
	if strings.Index(b, "a_opening") > strings.Index(b, "b_followup") {
		t.Fatal("response stages are not sorted by key")
	}
	if !strings.Contains(b, `"Hi, I'd like to make an appointment." | "Hello, is this the clinic?"`) {
		t.Fatalf("stage examples not joined as expected:\n%s", b)
	}
}

func TestNormalizeFileNameOverride(t *testing.T) {
	t.Parallel()

	s := parseTestFile(t, `
name: renamed_scenario
description: d
goal: g
`, "file_name")

	if s.Name != "renamed_scenario" {
		t.Fatalf("name = %q", s.Name)
	}
}
