// Package session owns the per-call conversational state machine: turn
// accounting, goal tracking, and the decision when the simulated patient
// stops talking. One inbound agent utterance drives one pass through the
// turn pipeline; different calls never share state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/cliniccall/patientsim/call/contract"
	replyx "github.com/cliniccall/patientsim/call/reply"
	scenariox "github.com/cliniccall/patientsim/call/scenario"
	transcriptx "github.com/cliniccall/patientsim/call/transcript"
)

type State string

const (
	StateActive State = "active"
	StateEnding State = "ending"
	StateClosed State = "closed"
)

// Action is what the transport should do after a processed agent turn.
type Action string

const (
	// ActionListen speaks the reply and keeps gathering agent speech.
	ActionListen Action = "listen"
	// ActionHangup speaks the final line and tears the call down.
	ActionHangup Action = "hangup"
	// ActionSilent produces no patient speech; the agent already signaled
	// hang-up and the transport will end the call on its own.
	ActionSilent Action = "silent"
)

// TurnResult is the outcome of one processed agent utterance.
type TurnResult struct {
	Action Action
	Reply  string
	Reason string
}

const (
	// MinTurnsBeforeClose gates all termination logic. Scripted greetings
	// ("Thanks for calling...") land in the first turns and must never be
	// read as the agent hanging up.
	MinTurnsBeforeClose = 3

	// goalGateTurns lets an explicit agent sign-off end the call without a
	// detected goal once the conversation has dragged this long.
	goalGateTurns = 20

	// maxTurns is the unconditional safety cap.
	maxTurns = 25

	// FinalLine is the fixed closing the patient speaks when hanging up.
	FinalLine = "Thank you, goodbye."

	DefaultScenarioName = "appointment_scheduling"
)

// closingPhrases mark an utterance as the agent audibly ending the call.
var closingPhrases = []string{
	"have a great day",
	"have a good day",
	"thanks for calling",
	"thank you for calling",
	"goodbye",
	"bye for now",
	"take care",
	"thanks again",
	"thank you again",
}

// endPhrases are the explicit sign-offs consulted by the should-end check.
var endPhrases = []string{
	"goodbye",
	"have a great day",
	"have a good day",
	"take care",
	"thanks for calling",
}

// goalIndicators is the optimistic early signal that the request was
// handled. Broader than the per-category completion indicators in the goal
// evaluator; the two lists are maintained independently on purpose.
var goalIndicators = []string{
	"appointment is scheduled",
	"appointment is confirmed",
	"appointment on",
	"see you on",
	"we'll send you",
	"confirmation",
	"all set",
	"you're all set",
}

// Session tracks one live call. All methods that mutate state serialize on
// the session mutex; webhook events for one call arrive in order but may
// be retried by the transport.
type Session struct {
	mu sync.Mutex

	callSID      string
	scenarioName string
	scenario     scenariox.Scenario
	// degraded means the scenario failed to load; replies come from a fixed
	// rule table instead of the generator. The call stays up regardless.
	degraded bool

	state        State
	turnCount    int
	transcript   []transcriptx.Turn
	history      []contractx.Message
	goalAchieved bool
	startedAt    time.Time

	replier *replyx.Generator
	store   transcriptx.Store
	runner  turnRunner
	now     func() time.Time
}

func (s *Session) CallSID() string { return s.callSID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnCount
}

func (s *Session) GoalAchieved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goalAchieved
}

// HandleAgentTurn processes one completed agent utterance through the turn
// pipeline and returns the termination decision plus any patient speech.
func (s *Session) HandleAgentTurn(ctx context.Context, text string, confidence float64) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runner.Invoke(ctx, TurnEvent{
		Session:    s,
		Text:       text,
		Confidence: confidence,
	})
}

// Complete finalizes the persisted transcript after the transport reports
// the call done. Idempotent: repeating the signal rewrites the same
// terminal snapshot.
func (s *Session) Complete(ctx context.Context, durationSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateClosed

	snap := s.snapshotLocked()
	snap.Status = transcriptx.StatusCompleted
	completedAt := s.now().UTC()
	snap.CompletedAt = &completedAt
	snap.DurationSeconds = durationSeconds

	if err := s.store.Save(ctx, snap); err != nil {
		log.Error().Err(err).Str("call_sid", s.callSID).Msg("final transcript save failed")
	}
}

// updateGoal flips goalAchieved when the agent's utterance carries an
// indicator phrase. Monotonic: never reset within a session.
func (s *Session) updateGoal(agentLower string) {
	if s.goalAchieved {
		return
	}
	if containsAny(agentLower, goalIndicators) {
		s.goalAchieved = true
		log.Info().Str("call_sid", s.callSID).Int("turn", s.turnCount).Msg("goal indicator detected")
	}
}

// shouldEnd implements the two-gate termination rule: explicit agent
// sign-off AND (goal done OR turn budget spent), or the hard cap alone.
// Callers guarantee turnCount >= MinTurnsBeforeClose.
func (s *Session) shouldEnd(agentLower string) (string, bool) {
	if containsAny(agentLower, endPhrases) && (s.goalAchieved || s.turnCount >= goalGateTurns) {
		if s.goalAchieved {
			return "goal_achieved", true
		}
		return "max_turns_reached", true
	}
	if s.turnCount >= maxTurns {
		return "max_turns_reached", true
	}
	return "", false
}

func (s *Session) appendTurn(turn transcriptx.Turn) {
	s.transcript = append(s.transcript, turn)
	s.turnCount++
}

// snapshotLocked builds the persisted view of the session. Status follows
// the in-progress heuristic until the completion signal overwrites it.
func (s *Session) snapshotLocked() *transcriptx.Snapshot {
	status := transcriptx.StatusInProgress
	if s.turnCount >= maxTurns || s.goalAchieved {
		status = transcriptx.StatusCompleted
	}

	snap := &transcriptx.Snapshot{
		CallSID:      s.callSID,
		Timestamp:    s.now().UTC(),
		Status:       status,
		ScenarioName: s.scenarioName,
		TurnCount:    s.turnCount,
		Transcript:   append([]transcriptx.Turn(nil), s.transcript...),
	}
	if !s.degraded {
		info := s.scenario.Info(s.turnCount)
		snap.ScenarioInfo = &info
	}
	return snap
}

// saveSnapshot persists the current transcript. Failures are logged and
// absorbed; persistence never blocks the audio path.
func (s *Session) saveSnapshot(ctx context.Context) {
	if err := s.store.Save(ctx, s.snapshotLocked()); err != nil {
		log.Error().Err(err).Str("call_sid", s.callSID).Msg("transcript save failed")
	}
}

func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}
