package scenario

import (
	"fmt"
	"sort"
	"strings"
)

// scenarioFile covers both on-disk shapes: the simple form
// (description/goal/context) and the rich form with patient_context.
type scenarioFile struct {
	Name                 string          `yaml:"name"`
	Description          string          `yaml:"description"`
	Goal                 string          `yaml:"goal"`
	Context              string          `yaml:"context"`
	TestType             string          `yaml:"test_type"`
	SystemPromptAddendum string          `yaml:"system_prompt_addendum"`
	PatientContext       *patientContext `yaml:"patient_context"`
}

type legacyFile struct {
	Scenarios []scenarioFile `yaml:"scenarios"`
}

type patientContext struct {
	Name        string `yaml:"name"`
	ClaimedName string `yaml:"claimed_name"`
	CallerName  string `yaml:"caller_name"`
	DOB         string `yaml:"dob"`
	ClaimedDOB  string `yaml:"claimed_dob"`
	Phone       string `yaml:"phone"`
	Goal        string `yaml:"goal"`
	Background  string `yaml:"background"`
	Behavior    string `yaml:"behavior"`

	AntiRepetition   []string                 `yaml:"anti_repetition"`
	QuestionPriority []string                 `yaml:"question_priority"`
	ResponseStages   map[string]responseStage `yaml:"response_stages"`
	Tone             []string                 `yaml:"tone"`
}

type responseStage struct {
	Trigger  string   `yaml:"trigger"`
	Examples []string `yaml:"examples"`
}

// normalize resolves either file shape into a fully assembled Scenario.
// All conditional text merging happens here; callers receive the result
// as immutable data.
func (f scenarioFile) normalize(name string) Scenario {
	if strings.TrimSpace(f.Name) != "" {
		name = strings.TrimSpace(f.Name)
	}

	if f.PatientContext == nil {
		return f.normalizeSimple(name)
	}

	pc := *f.PatientContext

	goal := firstNonEmpty(pc.Goal, f.Goal)
	personaName := firstNonEmpty(pc.Name, pc.ClaimedName, pc.CallerName, defaultPersonaName)
	dob := firstNonEmpty(pc.ClaimedDOB, pc.DOB, defaultPersonaDOB)

	behavior := pc.Behavior
	if staged := pc.assembleBehavior(); staged != "" {
		behavior = strings.TrimSpace(behavior + "\n\n" + staged)
	}
	if addendum := strings.TrimSpace(f.SystemPromptAddendum); addendum != "" {
		behavior = strings.TrimSpace(behavior + "\n\n" + addendum)
	}

	return Scenario{
		Name:        name,
		Description: f.Description,
		Goal:        goal,
		TestType:    firstNonEmpty(f.TestType, TestTypeStandard),
		Persona: Persona{
			Name:       personaName,
			DOB:        dob,
			SpokenDOB:  SpokenDOB(dob),
			Phone:      pc.Phone,
			Background: pc.Background,
			Behavior:   behavior,
		},
	}
}

func (f scenarioFile) normalizeSimple(name string) Scenario {
	goal := firstNonEmpty(f.Goal, "Help the caller.")
	testType := TestTypeStandard
	behavior := ""
	if strings.HasPrefix(name, "edge_") {
		testType = TestTypeEdgeCase
		behavior = f.Context
	}

	return Scenario{
		Name:        name,
		Description: f.Description,
		Goal:        goal,
		TestType:    testType,
		Persona: Persona{
			Name:       defaultPersonaName,
			DOB:        defaultPersonaDOB,
			SpokenDOB:  SpokenDOB(defaultPersonaDOB),
			Background: f.Context,
			Behavior:   behavior,
		},
	}
}

// assembleBehavior folds the structured rule lists into one behavior text
// block for the system prompt. Stage keys are sorted for stable output.
func (pc patientContext) assembleBehavior() string {
	var parts []string

	if len(pc.AntiRepetition) > 0 {
		parts = append(parts, "ANTI-REPETITION RULES:\n"+bulleted(pc.AntiRepetition))
	}
	if len(pc.QuestionPriority) > 0 {
		parts = append(parts, "QUESTION-PRIORITY BEHAVIOR:\n"+bulleted(pc.QuestionPriority))
	}

	if len(pc.ResponseStages) > 0 {
		keys := make([]string, 0, len(pc.ResponseStages))
		for k := range pc.ResponseStages {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString("RESPONSE STAGES (match agent's last message and respond accordingly):")
		for _, key := range keys {
			stage := pc.ResponseStages[key]
			fmt.Fprintf(&b, "\n\n%s:\n  Trigger: %s", key, stage.Trigger)
			if len(stage.Examples) > 0 {
				quoted := make([]string, len(stage.Examples))
				for i, ex := range stage.Examples {
					quoted[i] = fmt.Sprintf("%q", ex)
				}
				fmt.Fprintf(&b, "\n  Examples: %s", strings.Join(quoted, " | "))
			}
		}
		parts = append(parts, b.String())
	}

	if len(pc.Tone) > 0 {
		parts = append(parts, "TONE:\n"+bulleted(pc.Tone))
	}

	return strings.Join(parts, "\n\n")
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
