package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	replyx "github.com/cliniccall/patientsim/call/reply"
	scenariox "github.com/cliniccall/patientsim/call/scenario"
	transcriptx "github.com/cliniccall/patientsim/call/transcript"
)

// Registry maps call SIDs to live sessions. Creation is lazy and atomic
// per key; removal happens exactly once, on the transport's completion
// signal. The turn pipeline is compiled once and shared by all sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	scenarios scenariox.Store
	replier   *replyx.Generator
	store     transcriptx.Store
	runner    turnRunner
	now       func() time.Time
}

type RegistryOption func(*Registry)

// WithClock overrides the registry clock; used by tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(
	scenarios scenariox.Store,
	replier *replyx.Generator,
	store transcriptx.Store,
	opts ...RegistryOption,
) (*Registry, error) {
	if scenarios == nil {
		return nil, errors.New("scenario store is required")
	}
	if store == nil {
		return nil, errors.New("transcript store is required")
	}

	runner, err := compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}

	r := &Registry{
		sessions:  make(map[string]*Session),
		scenarios: scenarios,
		replier:   replier,
		store:     store,
		runner:    runner,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// GetOrCreate returns the session for a call SID, creating it on the first
// event. An empty scenario name falls back to the default scenario.
func (r *Registry) GetOrCreate(callSID, scenarioName string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[callSID]; ok {
		return s
	}

	s := r.newSession(callSID, scenarioName)
	r.sessions[callSID] = s
	return s
}

func (r *Registry) Get(callSID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callSID]
	return s, ok
}

// Remove drops a session; no-op when absent.
func (r *Registry) Remove(callSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, callSID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) newSession(callSID, scenarioName string) *Session {
	scenarioName = strings.TrimSpace(scenarioName)
	if scenarioName == "" {
		scenarioName = DefaultScenarioName
	}

	s := &Session{
		callSID:      callSID,
		scenarioName: scenarioName,
		state:        StateActive,
		startedAt:    r.now().UTC(),
		replier:      r.replier,
		store:        r.store,
		runner:       r.runner,
		now:          r.now,
	}

	sc, err := r.scenarios.Load(scenarioName)
	if err != nil {
		// Availability beats persona fidelity: the call proceeds with the
		// fixed rule table instead of failing outright.
		log.Error().Err(err).Str("call_sid", callSID).Str("scenario", scenarioName).Msg("scenario load failed, session degraded")
		s.degraded = true
		return s
	}

	s.scenario = sc
	if r.replier == nil {
		s.degraded = true
	}
	log.Info().Str("call_sid", callSID).Str("scenario", scenarioName).Msg("session created")
	return s
}
