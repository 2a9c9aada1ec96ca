// Package config loads the daemon configuration from file, environment
// and defaults, and carries the static agent fleet definition.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/swarmgate/core"
)

// Config is the root daemon configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Selector SelectorConfig `mapstructure:"selector"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Agents   []AgentConfig  `mapstructure:"agents"`
}

// ServerConfig configures the HTTP/websocket listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig selects and configures the model backend.
// Provider is one of mock, openai, openrouter, anthropic.
type BackendConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`
}

// SelectorConfig carries the scoring weights.
type SelectorConfig struct {
	CapabilityWeight  float64 `mapstructure:"capability_weight"`
	PerformanceWeight float64 `mapstructure:"performance_weight"`
	IdleBonus         float64 `mapstructure:"idle_bonus"`
}

// DispatchConfig bounds the coordinator.
type DispatchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// AgentConfig defines one fleet agent.
type AgentConfig struct {
	ID           string             `mapstructure:"id"`
	Name         string             `mapstructure:"name"`
	Role         string             `mapstructure:"role"`
	Personality  string             `mapstructure:"personality"`
	Model        string             `mapstructure:"model"`
	Capabilities []CapabilityConfig `mapstructure:"capabilities"`
}

// CapabilityConfig defines one advertised capability.
type CapabilityConfig struct {
	Name        string  `mapstructure:"name"`
	Description string  `mapstructure:"description"`
	Confidence  float64 `mapstructure:"confidence"`
}

// Load reads configuration from ./config.yaml (also ./configs), applies
// SWARMGATE_* environment overrides and fills defaults. A missing file
// is not an error; the defaults stand alone.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("SWARMGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.provider", "mock")
	v.SetDefault("backend.default_model", "openai/gpt-4o")

	v.SetDefault("selector.capability_weight", 0.6)
	v.SetDefault("selector.performance_weight", 0.3)
	v.SetDefault("selector.idle_bonus", 0.1)

	v.SetDefault("dispatch.timeout", 60*time.Second)
	v.SetDefault("dispatch.history_limit", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// AgentDefs converts the configured agent list (or the default fleet
// when none is configured) into registry-ready definitions.
func (c *Config) AgentDefs() []core.Agent {
	configs := c.Agents
	if len(configs) == 0 {
		return DefaultFleet(c.Backend.DefaultModel)
	}

	out := make([]core.Agent, 0, len(configs))

	for _, ac := range configs {
		agent := core.Agent{
			ID:          ac.ID,
			Name:        ac.Name,
			Role:        ac.Role,
			Personality: ac.Personality,
			Model:       ac.Model,
		}

		if agent.Model == "" {
			agent.Model = c.Backend.DefaultModel
		}

		for _, cc := range ac.Capabilities {
			agent.Capabilities = append(agent.Capabilities, core.Capability{
				Name:        cc.Name,
				Description: cc.Description,
				Confidence:  cc.Confidence,
			})
		}

		out = append(out, agent)
	}

	return out
}
