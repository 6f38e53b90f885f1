// Package config loads the workspace configuration from
// .taskpilot/config.yaml, falling back to defaults when absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Dir is the workspace directory name
const Dir = ".taskpilot"

// Config represents the taskpilot configuration
type Config struct {
	LLM   LLMConfig   `mapstructure:"llm"`
	Agent AgentConfig `mapstructure:"agent"`
	Exec  ExecConfig  `mapstructure:"exec"`
}

// LLMConfig contains model backend settings
type LLMConfig struct {
	Backend string `mapstructure:"backend"`
	Binary  string `mapstructure:"binary"`
	Model   string `mapstructure:"model"`
}

// AgentConfig contains loop settings
type AgentConfig struct {
	MaxPlans            int      `mapstructure:"max_plans"`
	MaxRecoveryAttempts int      `mapstructure:"max_recovery_attempts"`
	AutoApprove         bool     `mapstructure:"auto_approve"`
	AllowedActions      []string `mapstructure:"allowed_actions"`
	Fast                bool     `mapstructure:"fast"`
}

// ExecConfig contains action execution settings
type ExecConfig struct {
	CommandTimeoutSecs int `mapstructure:"command_timeout_secs"`
}

// Path returns the config file path inside a workspace
func Path(workspaceDir string) string {
	return filepath.Join(workspaceDir, Dir, "config.yaml")
}

// Load reads the config from the workspace
func Load(workspaceDir string) (*Config, error) {
	configPath := Path(workspaceDir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Backend: "claude",
			Binary:  "claude",
			Model:   "sonnet",
		},
		Agent: AgentConfig{
			MaxPlans:            10,
			MaxRecoveryAttempts: 3,
		},
		Exec: ExecConfig{
			CommandTimeoutSecs: 120,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.LLM.Backend == "" {
		cfg.LLM.Backend = defaults.LLM.Backend
	}
	if cfg.LLM.Binary == "" {
		cfg.LLM.Binary = defaults.LLM.Binary
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.Agent.MaxPlans == 0 {
		cfg.Agent.MaxPlans = defaults.Agent.MaxPlans
	}
	if cfg.Agent.MaxRecoveryAttempts == 0 {
		cfg.Agent.MaxRecoveryAttempts = defaults.Agent.MaxRecoveryAttempts
	}
	if cfg.Exec.CommandTimeoutSecs == 0 {
		cfg.Exec.CommandTimeoutSecs = defaults.Exec.CommandTimeoutSecs
	}
}
