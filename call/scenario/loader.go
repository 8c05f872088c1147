package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Store loads immutable scenario descriptors by name.
type Store interface {
	Load(name string) (Scenario, error)
	List() ([]Scenario, error)
}

type Config struct {
	// Dir holds per-scenario files (<name>.yaml); its parent may also hold
	// a legacy scenarios.yaml list.
	Dir string `split_words:"true" default:"scenarios"`
}

// FileStore reads scenarios from YAML. Per-name files win over entries in
// the legacy combined file.
type FileStore struct {
	dir        string
	legacyFile string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(cfg Config) *FileStore {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "scenarios"
	}
	return &FileStore{
		dir:        dir,
		legacyFile: filepath.Join(filepath.Dir(dir), "scenarios.yaml"),
	}
}

func (fs *FileStore) Load(name string) (Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Scenario{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	path := filepath.Join(fs.dir, name+".yaml")
	raw, err := os.ReadFile(path)
	if err == nil {
		return parseScenario(raw, name)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", name, err)
	}

	legacy, err := fs.loadLegacy()
	if err != nil {
		return Scenario{}, err
	}
	for _, s := range legacy {
		if s.Name == name {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// List merges per-file scenarios with the legacy combined file,
// de-duplicated by name with per-file entries winning.
func (fs *FileStore) List() ([]Scenario, error) {
	seen := make(map[string]struct{})
	var out []Scenario

	entries, err := os.ReadDir(fs.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(fs.dir, name+".yaml"))
		if err != nil {
			log.Warn().Err(err).Str("scenario", name).Msg("skipping unreadable scenario file")
			continue
		}
		s, err := parseScenario(raw, name)
		if err != nil {
			log.Warn().Err(err).Str("scenario", name).Msg("skipping malformed scenario file")
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}

	legacy, err := fs.loadLegacy()
	if err != nil {
		return nil, err
	}
	for _, s := range legacy {
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}

	return out, nil
}

func (fs *FileStore) loadLegacy() ([]Scenario, error) {
	raw, err := os.ReadFile(fs.legacyFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy scenarios file: %w", err)
	}

	var file legacyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse legacy scenarios file: %w", err)
	}

	out := make([]Scenario, 0, len(file.Scenarios))
	for _, entry := range file.Scenarios {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		out = append(out, entry.normalize(name))
	}
	return out, nil
}

func parseScenario(raw []byte, name string) (Scenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", name, err)
	}
	return file.normalize(name), nil
}
