// Package server exposes the Twilio-facing webhook surface. Handlers never
// return an error to the transport: any internal failure degrades to a
// safe TwiML document, because an error status would silently drop a live
// call.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	recordingx "github.com/cliniccall/patientsim/call/recording"
	sessionx "github.com/cliniccall/patientsim/call/session"
	"github.com/cliniccall/patientsim/pkg/phone"
)

const agentResponsePath = "/handle-agent-response"

type Config struct {
	Port            int           `split_words:"true" default:"5000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

type Server struct {
	registry   *sessionx.Registry
	recordings *recordingx.Manager
	mux        *http.ServeMux
	port       int
	shutdown   time.Duration
}

func New(cfg Config, registry *sessionx.Registry, recordings *recordingx.Manager) (*Server, error) {
	if registry == nil {
		return nil, errors.New("session registry is required")
	}

	s := &Server{
		registry:   registry,
		recordings: recordings,
		mux:        http.NewServeMux(),
		port:       cfg.Port,
		shutdown:   cfg.ShutdownTimeout,
	}

	s.mux.HandleFunc("POST /voice", s.handleVoice)
	s.mux.HandleFunc("POST "+agentResponsePath, s.handleAgentResponse)
	s.mux.HandleFunc("POST /recording-complete", s.handleRecordingComplete)
	s.mux.HandleFunc("POST /call-status", s.handleCallStatus)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until the context is canceled, then drains in-flight webhooks.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Msg("webhook server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleVoice answers the call-init webhook: no patient greeting, connect
// and listen so the clinic agent speaks first.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	callSID := r.FormValue("CallSid")
	scenarioName := r.FormValue("scenario")
	if scenarioName == "" {
		scenarioName = r.URL.Query().Get("scenario")
	}

	s.registry.GetOrCreate(callSID, scenarioName)

	doc, err := phone.ListenDocument(agentResponsePath)
	writeTwiML(w, doc, err)
}

// handleAgentResponse processes one completed agent utterance and answers
// with the patient's next move.
func (s *Server) handleAgentResponse(w http.ResponseWriter, r *http.Request) {
	callSID := r.FormValue("CallSid")
	speech := r.FormValue("SpeechResult")

	confidence, err := strconv.ParseFloat(r.FormValue("Confidence"), 64)
	if err != nil {
		confidence = 0.0
	}

	sess := s.registry.GetOrCreate(callSID, "")

	result, err := sess.HandleAgentTurn(r.Context(), speech, confidence)
	if err != nil {
		// Absorb: end gracefully instead of surfacing an error mid-call.
		log.Error().Err(err).Str("call_sid", callSID).Msg("turn pipeline failed")
		doc, renderErr := phone.GoodbyeDocument(sessionx.FinalLine)
		writeTwiML(w, doc, renderErr)
		return
	}

	switch result.Action {
	case sessionx.ActionListen:
		doc, err := phone.ReplyDocument(result.Reply, agentResponsePath)
		writeTwiML(w, doc, err)
	case sessionx.ActionHangup:
		doc, err := phone.GoodbyeDocument(result.Reply)
		writeTwiML(w, doc, err)
	default:
		doc, err := phone.SilentDocument()
		writeTwiML(w, doc, err)
	}
}

// handleRecordingComplete kicks off recording download and offline
// transcription in the background; the webhook acknowledges immediately.
func (s *Server) handleRecordingComplete(w http.ResponseWriter, r *http.Request) {
	callSID := r.FormValue("CallSid")
	recordingURL := r.FormValue("RecordingUrl")
	duration := r.FormValue("RecordingDuration")

	log.Info().Str("call_sid", callSID).Str("duration_s", duration).Msg("recording complete")

	if s.recordings != nil && recordingURL != "" {
		go s.recordings.Process(context.Background(), callSID, recordingURL)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCallStatus finalizes and removes the session on the authoritative
// completion signal. Safe to receive for unknown calls.
func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	callSID := r.FormValue("CallSid")
	status := r.FormValue("CallStatus")

	log.Info().Str("call_sid", callSID).Str("status", status).Msg("call status")

	if status == "completed" {
		if sess, ok := s.registry.Get(callSID); ok {
			duration, _ := strconv.Atoi(r.FormValue("CallDuration"))
			sess.Complete(r.Context(), duration)
			s.registry.Remove(callSID)
			log.Info().Str("call_sid", callSID).Int("turns", sess.TurnCount()).Msg("call completed")
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeTwiML(w http.ResponseWriter, doc string, err error) {
	if err != nil {
		log.Error().Err(err).Msg("twiml render failed")
		doc = "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response></Response>"
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(doc))
}
