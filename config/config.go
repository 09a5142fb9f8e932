// Package config loads vantage settings from a YAML file, an optional .env
// file and VANTAGE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is used when neither the session, the environment nor
	// the config file names a backend.
	DefaultEndpoint = "http://localhost:8000"

	vantageDir      = ".vantage"
	sessionFileName = "session.yaml"
	configFileName  = "config.yaml"
)

// Config represents the full config.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	API      APIConfig     `yaml:"api"`
	Session  SessionConfig `yaml:"session"`
	Wizard   WizardConfig  `yaml:"wizard"`
	Report   ReportConfig  `yaml:"report"`
	Serve    ServeConfig   `yaml:"serve"`
}

type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

// WizardConfig holds the values pre-filled on the parameters step.
type WizardConfig struct {
	Distribution string `yaml:"distribution"`
	HistoryYears int    `yaml:"history_years"`
	HorizonYears int    `yaml:"horizon_years"`
	Trials       int    `yaml:"trials"`
}

type ReportConfig struct {
	HistogramBins       int     `yaml:"histogram_bins"`
	VolatilityThreshold float64 `yaml:"volatility_threshold"`
	OutputDir           string  `yaml:"output_dir"`
}

type ServeConfig struct {
	Addr           string   `yaml:"addr"`
	Mode           string   `yaml:"mode"`            // gin mode: debug | release | test
	AllowedOrigins []string `yaml:"allowed_origins"` // empty: same origin only
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "warn",
		API: APIConfig{
			Timeout: 2 * time.Minute,
		},
		Session: SessionConfig{
			Path: DefaultSessionPath(),
		},
		Wizard: WizardConfig{
			Distribution: "Normal",
			HistoryYears: 5,
			HorizonYears: 10,
			Trials:       1000,
		},
		Report: ReportConfig{
			HistogramBins:       20,
			VolatilityThreshold: 0.15,
			OutputDir:           ".",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
			Mode: "release",
		},
	}
}

// LoadFile reads a YAML config on top of Default().
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the effective configuration: defaults, then the YAML file
// (a missing file is not an error), then .env, then the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
			logrus.Debugf("config file %s not found, using defaults", path)
		default:
			return cfg, err
		}
	}
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays VANTAGE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("VANTAGE_API_ENDPOINT")); v != "" {
		c.API.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_API_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VANTAGE_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_SESSION_PATH")); v != "" {
		c.Session.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_SERVE_ADDR")); v != "" {
		c.Serve.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Serve.AllowedOrigins = origins
	}
	if v := strings.TrimSpace(os.Getenv("VANTAGE_HISTOGRAM_BINS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VANTAGE_HISTOGRAM_BINS: %w", err)
		}
		c.Report.HistogramBins = n
	}
	return nil
}

// Validate checks numeric well-formedness of the loaded values.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Wizard.HistoryYears <= 0 {
		return errors.New("wizard.history_years must be positive")
	}
	if c.Wizard.HorizonYears <= 0 {
		return errors.New("wizard.horizon_years must be positive")
	}
	if c.Wizard.Trials <= 0 {
		return errors.New("wizard.trials must be positive")
	}
	if c.Report.HistogramBins <= 0 {
		return errors.New("report.histogram_bins must be positive")
	}
	if c.Report.VolatilityThreshold <= 0 {
		return errors.New("report.volatility_threshold must be positive")
	}
	switch c.Serve.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("serve.mode %q: want debug, release or test", c.Serve.Mode)
	}
	return nil
}

// ResolveEndpoint picks the backend base URL.
// Resolution order: stored session override > env/config file > DefaultEndpoint.
func (c Config) ResolveEndpoint(stored string) string {
	if s := strings.TrimSpace(stored); s != "" {
		return strings.TrimRight(s, "/")
	}
	if e := strings.TrimSpace(c.API.Endpoint); e != "" {
		return strings.TrimRight(e, "/")
	}
	return DefaultEndpoint
}

// DefaultPath returns ~/.vantage/config.yaml.
func DefaultPath() string {
	return filepath.Join(homeDir(), vantageDir, configFileName)
}

// DefaultSessionPath returns ~/.vantage/session.yaml.
func DefaultSessionPath() string {
	return filepath.Join(homeDir(), vantageDir, sessionFileName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
