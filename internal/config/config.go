package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/statement-reconciler/internal/models"
)

// Config aggregates application configuration values.
type Config struct {
	Reports ReportsConfig
	Sweep   SweepConfig
	Intake  IntakeConfig
	Ledger  LedgerConfig
	Logging LoggingConfig
}

// ReportsConfig locates the report directory.
type ReportsConfig struct {
	Dir string
}

// SweepConfig controls the ingestion schedule.
type SweepConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration // measured from the end of one sweep to the start of the next
}

// IntakeConfig governs the HTTP upload intake. An empty Addr disables it.
type IntakeConfig struct {
	Addr      string
	BodyLimit int
}

// LedgerConfig seeds the in-memory ledger. No accounts means any account
// number is accepted.
type LedgerConfig struct {
	Accounts []string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultReportsDir    = "./reports"
	defaultInitialDelay  = 30 * time.Second
	defaultSweepInterval = 10 * time.Minute
	defaultBodyLimit     = 16 << 20
	defaultLoggingLevel  = "info"
	defaultLoggingFormat = "text"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Reports: ReportsConfig{
			Dir: valueOrDefault("REPORTS_DIR", defaultReportsDir),
		},
		Intake: IntakeConfig{
			Addr:      os.Getenv("INTAKE_ADDR"),
			BodyLimit: parseIntWithDefault("INTAKE_BODY_LIMIT", defaultBodyLimit),
		},
		Ledger: LedgerConfig{
			Accounts: splitList(os.Getenv("LEDGER_ACCOUNTS")),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	var err error
	if cfg.Sweep.InitialDelay, err = parseDuration("SWEEP_INITIAL_DELAY", defaultInitialDelay); err != nil {
		return Config{}, err
	}
	if cfg.Sweep.Interval, err = parseDuration("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden after Load.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Reports.Dir) == "" {
		return fmt.Errorf("%w: report directory not set", models.ErrInvalidConfiguration)
	}
	if c.Sweep.InitialDelay < 0 {
		return fmt.Errorf("%w: initial delay %s is negative", models.ErrInvalidConfiguration, c.Sweep.InitialDelay)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("%w: sweep interval %s must be positive", models.ErrInvalidConfiguration, c.Sweep.Interval)
	}
	if c.Intake.BodyLimit <= 0 {
		return fmt.Errorf("%w: intake body limit %d must be positive", models.ErrInvalidConfiguration, c.Intake.BodyLimit)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q: %v", models.ErrInvalidConfiguration, key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
