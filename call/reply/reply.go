// Package reply produces the next patient utterance for a live call. An
// ordered rule chain runs before any model call: scripted identity
// verification first, then the goal-gated completion acknowledgment, and
// only then the generative fallback. The first matching rule wins.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/cliniccall/patientsim/call/contract"
	goalx "github.com/cliniccall/patientsim/call/goal"
	scenariox "github.com/cliniccall/patientsim/call/scenario"
)

const (
	// ClarificationReply substitutes any failed or unusable generation.
	ClarificationReply = "I'm sorry, could you repeat that?"
	// ClosingAcknowledgment is the fixed line once the goal is done and the
	// agent offers to wrap up.
	ClosingAcknowledgment = "No, that's all. Thank you!"

	// LowConfidenceThreshold marks agent speech-to-text results worth
	// hedging on.
	LowConfidenceThreshold = 0.7

	minReplyLength = 8
)

// truncatedFragments are known generation artifacts: the model trailing off
// mid-request. Matched against the whole lowercased candidate.
var truncatedFragments = map[string]struct{}{
	"i need":       {},
	"i would like": {},
}

// Request carries one agent turn plus everything needed to answer it.
type Request struct {
	Scenario   scenariox.Scenario
	History    []contractx.Message
	AgentText  string
	Confidence float64
}

// Decision is the produced patient utterance and which rule produced it.
// Generated is true only when the completion model was consulted and
// answered; the session records the exchange in dialogue history exactly
// in that case.
type Decision struct {
	Text      string
	Rule      string
	Generated bool
}

type rule struct {
	name  string
	match func(Request) (string, bool)
}

// The scripted rules, in priority order. Each one short-circuits the rest
// and never reaches the completion model.
var scriptedRules = []rule{
	{name: "identity_verification", match: verificationReply},
	{name: "completion_offer", match: completionOfferReply},
}

type Generator struct {
	completer contractx.Completer
	clinic    string
}

type Option func(*Generator)

// WithClinicName sets the clinic name mentioned in the persona prompt.
func WithClinicName(name string) Option {
	return func(g *Generator) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			g.clinic = trimmed
		}
	}
}

func NewGenerator(completer contractx.Completer, opts ...Option) (*Generator, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", contractx.ErrValidation)
	}
	g := &Generator{
		completer: completer,
		clinic:    "the clinic",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Reply runs the rule chain for one agent utterance. It never returns an
// error: every failure is absorbed into the fixed clarification line so a
// live call is never dropped by the reply path.
func (g *Generator) Reply(ctx context.Context, req Request) Decision {
	for _, r := range scriptedRules {
		if text, ok := r.match(req); ok {
			return Decision{Text: text, Rule: r.name}
		}
	}
	return g.generate(ctx, req)
}

func (g *Generator) generate(ctx context.Context, req Request) Decision {
	userContent := "Agent: " + req.AgentText
	if req.Confidence < LowConfidenceThreshold {
		userContent += "\n(Note: Agent's speech may have been unclear - respond appropriately)"
	}

	messages := make([]contractx.Message, 0, len(req.History)+2)
	messages = append(messages, contractx.System(g.systemPrompt(req.Scenario)))
	messages = append(messages, req.History...)
	messages = append(messages, contractx.User(userContent))

	candidate, err := g.completer.Complete(ctx, messages)
	if err != nil {
		log.Error().Err(err).Str("scenario", req.Scenario.Name).Msg("completion failed, substituting clarification")
		return Decision{Text: ClarificationReply, Rule: "generation_fallback"}
	}

	return Decision{Text: validateCandidate(candidate), Rule: "generative", Generated: true}
}

// validateCandidate guards against truncation artifacts without re-asking
// the model; a retry would stretch the silent gap on a live call.
func validateCandidate(candidate string) string {
	text := strings.TrimSpace(candidate)
	if len(text) < minReplyLength {
		return ClarificationReply
	}
	if _, bad := truncatedFragments[strings.ToLower(text)]; bad {
		return ClarificationReply
	}
	return text
}

var verificationPhrases = []string{
	"speaking with",
	"date of birth",
	"verify your identity",
	"confirm your information",
	"your name",
	"who is this",
}

// verificationReply answers identity questions straight from the persona.
// Verification exchanges are scripted; generative drift here derails the
// whole call.
func verificationReply(req Request) (string, bool) {
	lower := strings.ToLower(req.AgentText)

	inVerification := false
	for _, phrase := range verificationPhrases {
		if strings.Contains(lower, phrase) {
			inVerification = true
			break
		}
	}
	if !inVerification {
		return "", false
	}

	if strings.Contains(lower, "speaking with") || strings.Contains(lower, "your name") || strings.Contains(lower, "who is this") {
		return fmt.Sprintf("Yes, this is %s.", req.Scenario.Persona.Name), true
	}
	if strings.Contains(lower, "date of birth") || strings.Contains(lower, "dob") {
		return req.Scenario.Persona.SpokenDOB, true
	}
	return "", false
}

var completionSignals = []string{
	"is there anything else",
	"anything else i can help",
}

// completionOfferReply ends the patient's side only when the agent offers
// to wrap up AND the goal evaluator agrees the request was handled. An
// unmet goal keeps the call in the generative path so the patient persists.
func completionOfferReply(req Request) (string, bool) {
	lower := strings.ToLower(req.AgentText)

	offered := false
	for _, signal := range completionSignals {
		if strings.Contains(lower, signal) {
			offered = true
			break
		}
	}
	if !offered {
		return "", false
	}

	var b strings.Builder
	for _, msg := range req.History {
		b.WriteString(msg.Content)
		b.WriteString(" ")
	}
	b.WriteString(req.AgentText)

	if goalx.Satisfied(req.Scenario.Goal, b.String()) {
		return ClosingAcknowledgment, true
	}
	return "", false
}
