package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type FileConfig struct {
	Dir string `split_words:"true" default:"data/transcripts"`
}

// FileStore writes one JSON file per call under a transcripts directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

type FileOption func(*FileStore)

func WithDir(dir string) FileOption {
	return func(fs *FileStore) {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			fs.dir = trimmed
		}
	}
}

func NewFileStore(cfg FileConfig, opts ...FileOption) (*FileStore, error) {
	fs := &FileStore{dir: strings.TrimSpace(cfg.Dir)}
	if fs.dir == "" {
		fs.dir = filepath.Join("data", "transcripts")
	}
	for _, opt := range opts {
		opt(fs)
	}
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	return fs, nil
}

func (fs *FileStore) Save(_ context.Context, snap *Snapshot) error {
	if snap == nil || strings.TrimSpace(snap.CallSID) == "" {
		return fmt.Errorf("snapshot needs a call sid")
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	path := fs.path(snap.CallSID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace transcript: %w", err)
	}
	return nil
}

func (fs *FileStore) Load(_ context.Context, callSID string) (*Snapshot, error) {
	raw, err := os.ReadFile(fs.path(callSID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, callSID)
		}
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal transcript %s: %w", callSID, err)
	}
	return &snap, nil
}

func (fs *FileStore) path(callSID string) string {
	return filepath.Join(fs.dir, callSID+".json")
}
