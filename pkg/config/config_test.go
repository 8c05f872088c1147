package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type serviceConfig struct {
	Port    int           `split_words:"true" default:"5000"`
	Name    string        `split_words:"true" default:"patientsim"`
	Timeout time.Duration `split_words:"true" default:"30s"`
}

func TestNewAppliesDefaults(t *testing.T) {
	conf, err := New[serviceConfig]("CFGTEST_DEFAULTS")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conf.Port != 5000 || conf.Name != "patientsim" || conf.Timeout != 30*time.Second {
		t.Fatalf("conf = %+v", conf)
	}
}

func TestNewReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_ENV_PORT", "8080")
	t.Setenv("CFGTEST_ENV_NAME", "override")

	conf, err := New[serviceConfig]("CFGTEST_ENV")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conf.Port != 8080 || conf.Name != "override" {
		t.Fatalf("conf = %+v", conf)
	}
}

func TestNewRejectsMalformedValue(t *testing.T) {
	t.Setenv("CFGTEST_BAD_PORT", "not-a-port")

	if _, err := New[serviceConfig]("CFGTEST_BAD"); err == nil {
		t.Fatal("expected error for malformed numeric value")
	}
}

func TestExportEnvironmentFileDoesNotOverrideRealEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "CFGTEST_FILE_NAME=from-file\nCFGTEST_FILE_PORT=9999\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_FILE_NAME", "from-env")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment: %v", err)
	}

	if got := os.Getenv("CFGTEST_FILE_NAME"); got != "from-env" {
		t.Fatalf("real env lost: %q", got)
	}
	if got := os.Getenv("CFGTEST_FILE_PORT"); got != "9999" {
		t.Fatalf("file value not exported: %q", got)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_FILE_PORT") })
}
