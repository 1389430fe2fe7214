package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"quantum-social/internal/signals"
	"quantum-social/internal/store"
	"quantum-social/internal/ui"
)

// JournalSecretEnv overrides the journal secret when the flag is unset.
const JournalSecretEnv = "QS_JOURNAL_SECRET"

// Config holds the runtime settings. It is filled from defaults, then an
// optional YAML file, then flags set on the command line.
type Config struct {
	LogLevel       string        `yaml:"log_level"`
	LogDev         bool          `yaml:"log_dev"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	ExpiringWindow time.Duration `yaml:"expiring_window"`
	NoColor        bool          `yaml:"no_color"`
	UseTUI         bool          `yaml:"tui"`
	UseCLI         bool          `yaml:"-"`
	UseWeb         bool          `yaml:"web"`
	WebAddr        string        `yaml:"web_addr"`
	DiagAddr       string        `yaml:"diag_addr"`
	JournalDB      string        `yaml:"journal_db"`
	JournalSecret  string        `yaml:"journal_secret"`
	Seed           int           `yaml:"seed"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		SweepInterval:  store.DefaultSweepInterval,
		ExpiringWindow: ui.DefaultExpiringWindow,
		WebAddr:        "127.0.0.1:8081",
	}
}

// BindFlags registers the runtime flags on fs, writing into cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.LogDev, "log-dev", cfg.LogDev, "human readable log output")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often expired signals are swept")
	fs.DurationVar(&cfg.ExpiringWindow, "expiring-window", cfg.ExpiringWindow, "remaining lifetime below which a signal is shown as fading")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable ANSI colors in CLI output")
	fs.BoolVar(&cfg.UseTUI, "tui", cfg.UseTUI, "enable terminal UI mode")
	fs.BoolVar(&cfg.UseWeb, "web", cfg.UseWeb, "serve the local web view")
	fs.StringVar(&cfg.WebAddr, "web-addr", cfg.WebAddr, "loopback address for the web view")
	fs.StringVar(&cfg.DiagAddr, "diag-addr", cfg.DiagAddr, "address for /healthz, /stats and /metrics (empty disables)")
	fs.StringVar(&cfg.JournalDB, "journal-db", cfg.JournalDB, "path to the lifecycle journal (empty disables)")
	fs.StringVar(&cfg.JournalSecret, "journal-secret", cfg.JournalSecret, "secret used to seal journal records (env "+JournalSecretEnv+")")
	fs.IntVar(&cfg.Seed, "seed", cfg.Seed, "publish this many demo signals at start")
}

// Resolve applies the YAML file at path, if any, underneath the flags that
// were set explicitly on fs, then fills secrets from the environment.
func Resolve(fs *pflag.FlagSet, cfg *Config, path string) error {
	changed := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return err
		}
		for name, value := range changed {
			if err := fs.Set(name, value); err != nil {
				return fmt.Errorf("reapply --%s: %w", name, err)
			}
		}
	}
	if cfg.JournalSecret == "" {
		cfg.JournalSecret = os.Getenv(JournalSecretEnv)
	}
	cfg.UseCLI = !cfg.UseTUI
	return nil
}

// LoadFile decodes the YAML file at path into cfg. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports settings the runtime cannot honor.
func (cfg *Config) Validate() error {
	var problems []string
	if cfg.SweepInterval <= 0 {
		problems = append(problems, "sweep interval must be positive")
	} else if cfg.SweepInterval >= signals.FlashTTL {
		problems = append(problems, fmt.Sprintf("sweep interval must be below %s", signals.FlashTTL))
	}
	if cfg.ExpiringWindow < 0 {
		problems = append(problems, "expiring window must not be negative")
	}
	if cfg.UseWeb && strings.TrimSpace(cfg.WebAddr) == "" {
		problems = append(problems, "web view needs --web-addr")
	}
	if cfg.Seed < 0 {
		problems = append(problems, "seed must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
