package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvFileVar names the environment variable that points at an alternative
// .env file. When unset, ./.env is loaded if it exists.
const EnvFileVar = "PATIENTSIM_ENV_FILE"

var loadEnvOnce sync.Once

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads the optional .env file into the process environment (once per
// process), then fills a T from environment variables with the given prefix.
func New[T any](prefix string) (*T, error) {
	var loadErr error
	loadEnvOnce.Do(func() {
		loadErr = loadEnvFile()
	})
	if loadErr != nil {
		return nil, fmt.Errorf("load env file: %w", loadErr)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func loadEnvFile() error {
	path := strings.TrimSpace(os.Getenv(EnvFileVar))
	required := path != ""
	if path == "" {
		path = ".env"
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return err
	}
	if info.IsDir() {
		if required {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	}

	return exportEnvironment(path)
}

func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for key, val := range v.AllSettings() {
		name := strings.ToUpper(key)
		// Values already present in the real environment win over the file.
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
