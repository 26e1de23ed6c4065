package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mchmarny/radex/pkg/attenuation"
	"github.com/mchmarny/radex/pkg/survey"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	FormatJSON = "json"
	FormatYAML = "yaml"

	workersDefault = 4
)

// Config represents app config object.
type Config struct {
	Buildup   float64   `yaml:"buildup"`
	Distances []float64 `yaml:"distances"`
	Format    string    `yaml:"format"`
	LogLevel  string    `yaml:"log_level"`
	Workers   int       `yaml:"workers"`
}

// Default returns the config written on first run.
func Default() *Config {
	return &Config{
		Buildup:   attenuation.DefaultBuildup,
		Distances: slices.Clone(survey.DefaultDistances),
		Format:    FormatJSON,
		LogLevel:  "info",
		Workers:   workersDefault,
	}
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if len(c.Distances) == 0 {
		return errors.New("at least one distance required")
	}
	for _, d := range c.Distances {
		if !(d >= 0) {
			return errors.Errorf("invalid distance: %v", d)
		}
	}
	if c.Workers < 1 {
		return errors.Errorf("invalid workers: %d", c.Workers)
	}
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return errors.Errorf("invalid format: %s", c.Format)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Fields missing from the file keep their default values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "yml" {
		c.Format = FormatYAML
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory in the current user home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
