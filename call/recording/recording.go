// Package recording handles post-call audio: download the provider's
// recording, run offline transcription, and fold the result into the
// stored transcript. Everything here runs after the call ended; failures
// are logged and absorbed, never surfaced to the transport.
package recording

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/cliniccall/patientsim/call/contract"
	transcriptx "github.com/cliniccall/patientsim/call/transcript"
)

type Config struct {
	Dir string `split_words:"true" default:"data/recordings"`
}

// Downloader fetches a call recording to local disk. Satisfied by the
// phone client.
type Downloader interface {
	DownloadRecording(callSID, recordingURL, dir string) (string, error)
}

type Manager struct {
	downloader  Downloader
	transcriber contractx.Transcriber
	store       transcriptx.Store
	dir         string
}

func NewManager(cfg Config, downloader Downloader, transcriber contractx.Transcriber, store transcriptx.Store) (*Manager, error) {
	if downloader == nil {
		return nil, errors.New("downloader is required")
	}
	if store == nil {
		return nil, errors.New("transcript store is required")
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "data/recordings"
	}

	return &Manager{
		downloader:  downloader,
		transcriber: transcriber,
		store:       store,
		dir:         dir,
	}, nil
}

// Process downloads one completed recording and, when a transcriber is
// configured, enriches the stored transcript with the offline text.
func (m *Manager) Process(ctx context.Context, callSID, recordingURL string) {
	audioPath, err := m.downloader.DownloadRecording(callSID, recordingURL, m.dir)
	if err != nil {
		log.Error().Err(err).Str("call_sid", callSID).Msg("recording download failed")
		return
	}
	log.Info().Str("call_sid", callSID).Str("path", audioPath).Msg("recording downloaded")

	if m.transcriber == nil {
		return
	}

	tr, err := m.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		log.Error().Err(err).Str("call_sid", callSID).Msg("offline transcription failed")
		return
	}

	if err := transcriptx.Enrich(ctx, m.store, callSID, tr); err != nil {
		log.Error().Err(err).Str("call_sid", callSID).Msg("transcript enrichment failed")
		return
	}
	log.Info().Str("call_sid", callSID).Msg("transcript enriched with offline transcription")
}
