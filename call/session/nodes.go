package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/cliniccall/patientsim/call/contract"
	replyx "github.com/cliniccall/patientsim/call/reply"
	transcriptx "github.com/cliniccall/patientsim/call/transcript"
)

// turnState threads one agent utterance through the pipeline. Once decided
// is set the remaining nodes pass it through untouched.
type turnState struct {
	session    *Session
	text       string
	textLower  string
	confidence float64
	now        time.Time

	decided bool
	action  Action
	reason  string
	reply   string
}

func (st *turnState) decide(action Action, reason string) {
	st.decided = true
	st.action = action
	st.reason = reason
}

func validateTurn(ev TurnEvent) (*turnState, error) {
	if ev.Session == nil {
		return nil, fmt.Errorf("%w: turn event without session", contractx.ErrValidation)
	}

	text := strings.TrimSpace(ev.Text)
	st := &turnState{
		session:    ev.Session,
		text:       text,
		textLower:  strings.ToLower(text),
		confidence: ev.Confidence,
		now:        ev.Session.now().UTC(),
	}

	if ev.Session.state == StateClosed {
		st.decide(ActionSilent, "session_closed")
	}
	return st, nil
}

func appendAgentTurn(ctx context.Context, st *turnState) (*turnState, error) {
	if st.decided {
		return st, nil
	}

	s := st.session
	confidence := st.confidence
	s.appendTurn(transcriptx.Turn{
		Speaker:    transcriptx.SpeakerAgent,
		Text:       st.text,
		Turn:       s.turnCount,
		Timestamp:  st.now,
		Confidence: &confidence,
	})
	s.saveSnapshot(ctx)

	log.Info().
		Str("call_sid", s.callSID).
		Int("turn", s.turnCount).
		Float64("confidence", st.confidence).
		Msg("agent turn received")
	return st, nil
}

// detectClosing stops the patient from talking over an agent that already
// said its sign-off. Gated behind the opening turns so a scripted greeting
// never reads as a hang-up.
func detectClosing(st *turnState) (*turnState, error) {
	if st.decided {
		return st, nil
	}

	s := st.session
	if s.turnCount < MinTurnsBeforeClose {
		return st, nil
	}
	if containsAny(st.textLower, closingPhrases) {
		s.state = StateEnding
		st.decide(ActionSilent, "agent_closing_utterance")
		log.Info().Str("call_sid", s.callSID).Int("turn", s.turnCount).Msg("agent closing detected, patient stays silent")
	}
	return st, nil
}

func evaluateEnd(st *turnState) (*turnState, error) {
	if st.decided {
		return st, nil
	}

	s := st.session
	if s.turnCount < MinTurnsBeforeClose {
		return st, nil
	}

	s.updateGoal(st.textLower)
	if reason, end := s.shouldEnd(st.textLower); end {
		s.state = StateEnding
		st.reply = FinalLine
		st.decide(ActionHangup, reason)
		log.Info().Str("call_sid", s.callSID).Int("turn", s.turnCount).Str("reason", reason).Msg("natural call ending")
	}
	return st, nil
}

func generateReply(ctx context.Context, st *turnState) (*turnState, error) {
	if st.decided {
		return st, nil
	}

	s := st.session
	if s.degraded || s.replier == nil {
		st.reply = fallbackReply(st.textLower)
		st.decide(ActionListen, "fallback_rule")
		return st, nil
	}

	decision := s.replier.Reply(ctx, replyx.Request{
		Scenario:   s.scenario,
		History:    append([]contractx.Message(nil), s.history...),
		AgentText:  st.text,
		Confidence: st.confidence,
	})

	if decision.Generated {
		s.history = append(s.history,
			contractx.User("Agent: "+st.text),
			contractx.Assistant(decision.Text),
		)
	}

	st.reply = decision.Text
	st.decide(ActionListen, decision.Rule)
	return st, nil
}

func finalizeTurn(ctx context.Context, st *turnState) (TurnResult, error) {
	s := st.session

	if st.reply != "" {
		s.appendTurn(transcriptx.Turn{
			Speaker:   transcriptx.SpeakerPatient,
			Text:      st.reply,
			Turn:      s.turnCount,
			Timestamp: st.now,
		})
		s.saveSnapshot(ctx)
	}

	log.Info().
		Str("call_sid", s.callSID).
		Int("turn", s.turnCount).
		Str("action", string(st.action)).
		Str("reason", st.reason).
		Msg("turn processed")

	return TurnResult{
		Action: st.action,
		Reply:  st.reply,
		Reason: st.reason,
	}, nil
}
