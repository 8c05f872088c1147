package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "scenarios")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return NewFileStore(Config{Dir: dir}), root
}

func TestFileStoreLoadPerFile(t *testing.T) {
	t.Parallel()

	store, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "scenarios", "prescription_refill.yaml"), `
description: Refill call
goal: Request a medication refill
context: Long-time patient
`)

	s, err := store.Load("prescription_refill")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "prescription_refill" || s.Goal != "Request a medication refill" {
		t.Fatalf("scenario = %+v", s)
	}
}

func TestFileStoreLoadFallsBackToLegacyFile(t *testing.T) {
	t.Parallel()

	store, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "scenarios.yaml"), `
scenarios:
  - name: billing_question
    description: Billing call
    goal: Ask about an invoice
`)

	s, err := store.Load("billing_question")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Description != "Billing call" {
		t.Fatalf("scenario = %+v", s)
	}
}

func TestFileStoreLoadNotFound(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	_, err := store.Load("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, err = store.Load("  ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty name err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreListMergesAndDeduplicates(t *testing.T) {
	t.Parallel()

	store, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "scenarios", "appointment_scheduling.yaml"), `
description: Per-file version
goal: Schedule an appointment
`)
	writeFile(t, filepath.Join(root, "scenarios", "broken.yaml"), "scenarios: [unclosed")
	writeFile(t, filepath.Join(root, "scenarios.yaml"), `
scenarios:
  - name: appointment_scheduling
    description: Legacy version
    goal: Schedule an appointment
  - name: billing_question
    description: Billing call
    goal: Ask about an invoice
`)

	list, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	byName := make(map[string]Scenario, len(list))
	for _, s := range list {
		byName[s.Name] = s
	}
	if len(byName) != 2 {
		t.Fatalf("got %d scenarios: %+v", len(byName), list)
	}
	if byName["appointment_scheduling"].Description != "Per-file version" {
		t.Fatalf("per-file entry did not win: %+v", byName["appointment_scheduling"])
	}
	if _, ok := byName["billing_question"]; !ok {
		t.Fatal("legacy-only entry missing from list")
	}
}

func TestFileStoreListEmptyDirs(t *testing.T) {
	t.Parallel()

	store := NewFileStore(Config{Dir: filepath.Join(t.TempDir(), "nowhere")})
	list, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d scenarios from empty store", len(list))
	}
}
