package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("scenario not found")

const (
	TestTypeStandard = "standard"
	TestTypeEdgeCase = "edge_case"

	defaultPersonaName = "Lucas"
	defaultPersonaDOB  = "02/17/2026"
)

// Persona is the caller identity a scenario plays. Built once at load time
// and treated as immutable afterwards; prompt construction only reads it.
type Persona struct {
	Name string `json:"name"`
	// DOB as written in the scenario file, e.g. "02/17/2026" or "1970-01-01".
	DOB string `json:"dob"`
	// SpokenDOB is the fixed phrasing used verbatim when the agent asks for
	// a date of birth, e.g. "February 17th, 2026."
	SpokenDOB  string `json:"spoken_dob"`
	Phone      string `json:"phone,omitempty"`
	Background string `json:"background,omitempty"`
	// Behavior is the merged free-text behavior guidance (behavior notes,
	// anti-repetition rules, response stages, tone, prompt addendum).
	Behavior string `json:"behavior,omitempty"`
}

// Scenario describes one test call: who the simulated patient is and what
// they are calling to accomplish.
type Scenario struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Goal        string  `json:"goal"`
	TestType    string  `json:"test_type"`
	Persona     Persona `json:"persona"`
}

// Info is the scenario metadata embedded in persisted transcripts.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TestType    string `json:"test_type"`
	TurnCount   int    `json:"turn_count"`
}

func (s Scenario) Info(turnCount int) Info {
	return Info{
		Name:        s.Name,
		Description: s.Description,
		TestType:    s.TestType,
		TurnCount:   turnCount,
	}
}

var dobLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "January 2, 2006"}

// SpokenDOB renders a date of birth the way it should be said out loud.
// Unparseable input falls back to the default persona phrasing so identity
// verification never stalls on a malformed scenario file.
func SpokenDOB(dob string) string {
	trimmed := strings.TrimSpace(dob)
	for _, layout := range dobLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return fmt.Sprintf("%s %s, %d.", t.Month(), ordinal(t.Day()), t.Year())
	}
	return "February 17th, 2026."
}

func ordinal(day int) string {
	suffix := "th"
	if day/10 != 1 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
