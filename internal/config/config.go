package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/env0/claude-pr-reviewer/internal/util"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly to every component; nothing reads it ambiently.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	GitHub   GitHubConfig   `yaml:"github"`
	Review   ReviewConfig   `yaml:"review"`
	Engine   EngineConfig   `yaml:"engine"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Verbose  bool           `yaml:"-"` // Set via CLI only
}

// ServerConfig holds webhook server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GitHubConfig holds platform credentials and bot identity
type GitHubConfig struct {
	WebhookSecret  string `yaml:"webhook_secret"`
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Token          string `yaml:"token"` // Personal access token, used when no app credentials are set
	BotLogin       string `yaml:"bot_login"`
}

// UsesApp reports whether GitHub App credentials are configured
func (g *GitHubConfig) UsesApp() bool {
	return g.AppID != 0 && g.PrivateKeyPath != ""
}

// ReviewConfig holds review session policy
type ReviewConfig struct {
	TriggerCommand  string `yaml:"trigger_command"`
	MaxChangedFiles int    `yaml:"max_changed_files"`
	RetryOnError    bool   `yaml:"retry_on_error"`
	PendingLabel    string `yaml:"pending_label"`
	ReviewedLabel   string `yaml:"reviewed_label"`
}

// EngineConfig holds analysis engine invocation settings
type EngineConfig struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	TimeoutMinutes int      `yaml:"timeout_minutes"`
	Env            []string `yaml:"env"`
}

// Timeout returns the engine wall-clock bound as a duration
func (e *EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMinutes) * time.Minute
}

// DispatchConfig holds task-dispatch placement parameters. They are opaque
// to the core: the in-process dispatcher ignores them, an out-of-process
// dispatcher forwards them to its task runtime.
type DispatchConfig struct {
	Cluster        string   `yaml:"cluster"`
	TaskDefinition string   `yaml:"task_definition"`
	Subnets        []string `yaml:"subnets"`
	SecurityGroups []string `yaml:"security_groups"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		GitHub: GitHubConfig{
			BotLogin: "ai-reviewer[bot]",
		},
		Review: ReviewConfig{
			TriggerCommand:  "/review",
			MaxChangedFiles: 100,
			RetryOnError:    true,
			PendingLabel:    "ai-review-pending",
			ReviewedLabel:   "ai-reviewed",
		},
		Engine: EngineConfig{
			Command:        "claude",
			Args:           []string{"--print", "--dangerously-skip-permissions"},
			TimeoutMinutes: 25,
		},
	}
}

// Load reads configuration from file and merges with defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil // Use defaults if can't find home
		}
		path = filepath.Join(homeDir, ".config", "ai-reviewer", "config.yaml")
	}

	path = util.ExpandPath(path)

	// Read config file if it exists
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.GitHub.PrivateKeyPath = util.ExpandPath(cfg.GitHub.PrivateKeyPath)

	return cfg, nil
}

// Validate checks the configuration and fills gaps from the environment
func (c *Config) Validate() error {
	if c.GitHub.WebhookSecret == "" {
		c.GitHub.WebhookSecret = os.Getenv("GITHUB_WEBHOOK_SECRET")
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHub.AppID == 0 {
		if v := os.Getenv("GITHUB_APP_ID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid GITHUB_APP_ID: %w", err)
			}
			c.GitHub.AppID = id
		}
	}
	if c.GitHub.InstallationID == 0 {
		if v := os.Getenv("GITHUB_INSTALLATION_ID"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid GITHUB_INSTALLATION_ID: %w", err)
			}
			c.GitHub.InstallationID = id
		}
	}

	if !c.GitHub.UsesApp() && c.GitHub.Token == "" {
		return fmt.Errorf("either github app credentials or a token is required")
	}
	if c.GitHub.UsesApp() && !util.FileExists(c.GitHub.PrivateKeyPath) {
		return fmt.Errorf("private key not found: %s", c.GitHub.PrivateKeyPath)
	}

	if c.Review.MaxChangedFiles <= 0 {
		return fmt.Errorf("max_changed_files must be positive")
	}
	if c.Engine.Command == "" {
		return fmt.Errorf("engine command is required")
	}
	if c.Engine.TimeoutMinutes <= 0 {
		return fmt.Errorf("engine timeout_minutes must be positive")
	}

	return nil
}
