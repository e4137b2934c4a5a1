// Package config loads the gopick configuration from a yaml file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/gopick/internal/fetch"
	"github.com/jakopako/gopick/internal/output"
	"github.com/jakopako/gopick/internal/store"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "gopick.yaml"

// Config defines the overall structure of the configuration. Values are
// taken from a yaml file or environment variables or both.
type Config struct {
	Store   store.Config        `yaml:"store"`
	Fetcher fetch.FetcherConfig `yaml:"fetcher"`
	Export  output.WriterConfig `yaml:"export"`
}

// NewConfig reads the config at configPath. Variables from a .env file in
// the working directory are loaded first. If configPath does not exist the
// configuration is read from the environment only.
func NewConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(fmt.Sprintf("failed to load .env file: %v", err))
	}

	var config Config
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		slog.Debug(fmt.Sprintf("config file %s not found, reading config from environment", configPath))
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("error while reading config from environment: %w", err)
		}
		return &config, nil
	}
	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, fmt.Errorf("error while reading config %s: %w", configPath, err)
	}
	return &config, nil
}
