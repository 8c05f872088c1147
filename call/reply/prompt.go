package reply

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	scenariox "github.com/cliniccall/patientsim/call/scenario"
)

//go:embed template/patient_system.txt
var patientSystemRaw string

var patientSystemTmpl = template.Must(template.New("patient_system").Parse(patientSystemRaw))

type promptData struct {
	Persona scenariox.Persona
	Goal    string
	Clinic  string
}

// systemPrompt renders the persona instruction for the completion model.
// The persona is immutable load-time data; nothing here mutates per turn.
func (g *Generator) systemPrompt(s scenariox.Scenario) string {
	var b strings.Builder
	err := patientSystemTmpl.Execute(&b, promptData{
		Persona: s.Persona,
		Goal:    s.Goal,
		Clinic:  g.clinic,
	})
	if err != nil {
		// Template data is plain strings; this should not happen. Fall back
		// to a minimal instruction rather than sending an empty system role.
		log.Error().Err(err).Str("scenario", s.Name).Msg("system prompt render failed")
		return "You are " + s.Persona.Name + ", a patient on a phone call with a clinic. Goal: " + s.Goal
	}
	return b.String()
}
