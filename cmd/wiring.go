package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/cliniccall/patientsim/call/contract"
	recordingx "github.com/cliniccall/patientsim/call/recording"
	replyx "github.com/cliniccall/patientsim/call/reply"
	scenariox "github.com/cliniccall/patientsim/call/scenario"
	sessionx "github.com/cliniccall/patientsim/call/session"
	transcriptx "github.com/cliniccall/patientsim/call/transcript"
	configx "github.com/cliniccall/patientsim/pkg/config"
	"github.com/cliniccall/patientsim/pkg/openaiclient"
)

type transcriptConfig struct {
	// Backend picks the transcript store: "file" or "postgres".
	Backend string `split_words:"true" default:"file"`
	Dir     string `split_words:"true" default:"data/transcripts"`
}

type clinicConfig struct {
	Name string `split_words:"true" default:"the clinic"`
}

func newScenarioStore() *scenariox.FileStore {
	return scenariox.NewFileStore(*configx.MustNew[scenariox.Config]("SCENARIO"))
}

func newTranscriptStore(ctx context.Context) (transcriptx.Store, error) {
	cfg := configx.MustNew[transcriptConfig]("TRANSCRIPT")

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		return transcriptx.NewFileStore(transcriptx.FileConfig{Dir: cfg.Dir})
	case "postgres":
		pg, err := transcriptx.NewPGStore(*configx.MustNew[transcriptx.PGConfig]("PG"))
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown transcript backend %q", cfg.Backend)
	}
}

// newOpenAIClient returns nil when no API key is configured; sessions then
// run in the degraded rule-table mode instead of refusing to start.
func newOpenAIClient() *openaiclient.Client {
	cfg, err := configx.New[openaiclient.Config]("OPENAI")
	if err != nil {
		log.Warn().Err(err).Msg("openai client unavailable, sessions will use fallback replies")
		return nil
	}
	client, err := openaiclient.New(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("openai client unavailable, sessions will use fallback replies")
		return nil
	}
	return client
}

func newRegistry(ctx context.Context) (*sessionx.Registry, transcriptx.Store, error) {
	store, err := newTranscriptStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	var replier *replyx.Generator
	if client := newOpenAIClient(); client != nil {
		clinic := configx.MustNew[clinicConfig]("CLINIC")
		replier, err = replyx.NewGenerator(client, replyx.WithClinicName(clinic.Name))
		if err != nil {
			return nil, nil, err
		}
	}

	registry, err := sessionx.NewRegistry(newScenarioStore(), replier, store)
	if err != nil {
		return nil, nil, err
	}
	return registry, store, nil
}

func newRecordingManager(store transcriptx.Store, downloader recordingx.Downloader) *recordingx.Manager {
	cfg := configx.MustNew[recordingx.Config]("RECORDING")

	var transcriber *openaiclient.Client
	if client := newOpenAIClient(); client != nil {
		transcriber = client
	}

	mgr, err := recordingx.NewManager(*cfg, downloader, transcriberOrNil(transcriber), store)
	if err != nil {
		log.Warn().Err(err).Msg("recording manager unavailable")
		return nil
	}
	return mgr
}

// transcriberOrNil avoids a non-nil interface wrapping a nil pointer.
func transcriberOrNil(c *openaiclient.Client) contractx.Transcriber {
	if c == nil {
		return nil
	}
	return c
}
