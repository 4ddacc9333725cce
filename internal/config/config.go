// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	// Remote store
	ConvexURL       string        `envconfig:"CONVEX_URL" default:"http://127.0.0.1:3210"`
	MutationTimeout time.Duration `envconfig:"MUTATION_TIMEOUT" default:"15s"`

	// HTTP bridge (health, notion)
	BridgeURL     string        `envconfig:"API_BRIDGE_URL" default:"http://api-bridge:8080"`
	BridgeToken   string        `envconfig:"API_BRIDGE_TOKEN"`
	BridgeTimeout time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"30s"`

	// Local sources
	Workspace        string        `envconfig:"MCSYNC_WORKSPACE" default:"~/.mcsync/workspace"`
	StatePath        string        `envconfig:"MCSYNC_STATE_PATH"`        // defaults to <workspace>/data/sync_state.json
	CronSnapshotPath string        `envconfig:"CRON_SNAPSHOT_PATH"`       // defaults to <workspace>/data/cron_snapshot.json
	TradingRepoDir   string        `envconfig:"TRADING_REPO_DIR" default:"~/.mcsync/repos/quantbox-live"`
	WeeklyReportsDir string        `envconfig:"WEEKLY_REPORTS_DIR"`       // defaults to <workspace>/reports/weekly
	VaultPath        string        `envconfig:"OBSIDIAN_VAULT_PATH"`
	VaultRepoPath    string        `envconfig:"OBSIDIAN_VAULT_REPO_PATH"` // legacy name, used when VaultPath is empty
	NotionMealHubID  string        `envconfig:"NOTION_MEAL_HUB_ID"`
	MealLogDays      int           `envconfig:"MEAL_LOG_DAYS" default:"7"`
	GitTimeout       time.Duration `envconfig:"GIT_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"true"`
	LogFile   string `envconfig:"LOG_FILE"`

	// Optional S3-compatible mirror for archived reports
	Archive ArchiveConfig
}

// ArchiveConfig configures the report archive mirror. Empty Bucket disables it.
// Keys are nested under the ARCHIVE_ prefix (ARCHIVE_BUCKET, ARCHIVE_ENDPOINT, ...).
type ArchiveConfig struct {
	Bucket   string `envconfig:"BUCKET"`
	Endpoint string `envconfig:"ENDPOINT"`
	Region   string `envconfig:"REGION" default:"auto"`
	Prefix   string `envconfig:"PREFIX" default:"reports/"`

	// Static keys; when empty the default AWS credential chain is used.
	AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
}

// Enabled reports whether archived reports should be mirrored.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DataDir is the workspace directory that holds domain data files.
func (c *Config) DataDir() string {
	return filepath.Join(c.Workspace, "data")
}

// MealPlanVault returns the configured Obsidian vault, preferring OBSIDIAN_VAULT_PATH.
func (c *Config) MealPlanVault() string {
	if c.VaultPath != "" {
		return c.VaultPath
	}
	return c.VaultRepoPath
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ConvexURL == "" {
		return fmt.Errorf("CONVEX_URL must not be empty")
	}
	if c.MutationTimeout <= 0 || c.BridgeTimeout <= 0 || c.GitTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MealLogDays <= 0 {
		return fmt.Errorf("MEAL_LOG_DAYS must be positive, got %d", c.MealLogDays)
	}
	return nil
}

func (c *Config) resolvePaths() error {
	var err error
	for _, p := range []*string{&c.Workspace, &c.StatePath, &c.CronSnapshotPath, &c.TradingRepoDir, &c.WeeklyReportsDir, &c.VaultPath, &c.VaultRepoPath} {
		if *p, err = expandHome(*p); err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
	}

	if c.StatePath == "" {
		c.StatePath = filepath.Join(c.DataDir(), "sync_state.json")
	}
	if c.CronSnapshotPath == "" {
		c.CronSnapshotPath = filepath.Join(c.DataDir(), "cron_snapshot.json")
	}
	if c.WeeklyReportsDir == "" {
		c.WeeklyReportsDir = filepath.Join(c.Workspace, "reports", "weekly")
	}
	c.ConvexURL = strings.TrimRight(c.ConvexURL, "/")
	c.BridgeURL = strings.TrimRight(c.BridgeURL, "/")
	return nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
