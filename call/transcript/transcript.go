// Package transcript persists per-call conversation snapshots. The stores
// are the durability boundary: sessions hold only in-memory state between
// webhook events and overwrite the whole snapshot on every save.
package transcript

import (
	"context"
	"errors"
	"strings"
	"time"

	contractx "github.com/cliniccall/patientsim/call/contract"
	scenariox "github.com/cliniccall/patientsim/call/scenario"
)

var ErrNotFound = errors.New("transcript not found")

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	SpeakerAgent   = "agent"
	SpeakerPatient = "patient"
)

// Turn is one utterance in arrival order. Never mutated after creation.
type Turn struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
	// Confidence is the provider's speech-to-text confidence, agent turns only.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Whisper is the offline re-transcription block added after a recording is
// processed, alongside (not replacing) the real-time turns.
type Whisper struct {
	FullText      string    `json:"full_text"`
	Duration      float64   `json:"duration,omitempty"`
	Language      string    `json:"language"`
	TranscribedAt time.Time `json:"transcribed_at"`
}

// Snapshot is the persisted transcript shape for one call.
type Snapshot struct {
	CallSID         string          `json:"call_sid"`
	Timestamp       time.Time       `json:"timestamp"`
	Status          string          `json:"status"`
	ScenarioName    string          `json:"scenario_name"`
	TurnCount       int             `json:"turn_count"`
	Transcript      []Turn          `json:"transcript"`
	ScenarioInfo    *scenariox.Info `json:"scenario_info,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	DurationSeconds int             `json:"duration_seconds,omitempty"`
	Whisper         *Whisper        `json:"whisper_transcription,omitempty"`
}

// Store saves and loads whole snapshots keyed by call SID.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, callSID string) (*Snapshot, error)
}

// Enrich attaches an offline transcription to an already stored snapshot.
func Enrich(ctx context.Context, store Store, callSID string, tr contractx.Transcription) error {
	snap, err := store.Load(ctx, callSID)
	if err != nil {
		return err
	}
	snap.Whisper = &Whisper{
		FullText:      tr.Text,
		Duration:      tr.Duration,
		Language:      tr.Language,
		TranscribedAt: time.Now().UTC(),
	}
	return store.Save(ctx, snap)
}

// ConversationText flattens a snapshot into "Speaker: text" lines. With
// source "whisper" it returns the offline full text when present.
func ConversationText(snap *Snapshot, source string) string {
	if snap == nil {
		return ""
	}
	if source == "whisper" && snap.Whisper != nil {
		return snap.Whisper.FullText
	}

	lines := make([]string, 0, len(snap.Transcript))
	for _, turn := range snap.Transcript {
		speaker := turn.Speaker
		if speaker == "" {
			speaker = "unknown"
		}
		lines = append(lines, capitalize(speaker)+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
