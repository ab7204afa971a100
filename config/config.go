// Package config loads and validates the conclave configuration file. The
// file is YAML and describes the completion model, the conversation limits,
// the agent roster with enabled flags, and the MCP tool servers agents source
// their tools from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/tool"
)

// Default conversation limits.
const (
	DefaultMaxTurns        = 15
	DefaultSelectorRetries = 1
	DefaultTurnRetries     = 1
	DefaultTurnTimeout     = 2 * time.Minute
)

// Config is the root configuration.
type Config struct {
	Model   ModelConfig    `yaml:"model"`
	Chat    ChatConfig     `yaml:"chat"`
	Agents  []AgentConfig  `yaml:"agents"`
	Servers []ServerConfig `yaml:"mcp_servers"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ModelConfig selects and tunes the completion model.
type ModelConfig struct {
	// Provider is one of "openai", "anthropic" or "mock".
	Provider string `yaml:"provider"`

	// Name is the provider-specific model identifier.
	Name string `yaml:"name"`

	// APIKey overrides the provider's environment variable lookup.
	APIKey string `yaml:"api_key"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the completion service.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// ChatConfig tunes the group conversation controller.
type ChatConfig struct {
	// MaxTurns is the hard agent-turn ceiling per conversation.
	MaxTurns int `yaml:"max_turns"`

	// TerminationKeyword ends the conversation when an agent mentions it.
	// Empty means the built-in token.
	TerminationKeyword string `yaml:"termination_keyword"`

	// SelectorRetries is how many corrective re-prompts a malformed speaker
	// selection gets.
	SelectorRetries int `yaml:"selector_retries"`

	// TurnRetries is how many times a transiently failing agent turn is
	// retried.
	TurnRetries int `yaml:"turn_retries"`

	// TurnTimeout bounds a single conversation run when set on the caller's
	// context by cmd/conclave.
	TurnTimeout time.Duration `yaml:"turn_timeout"`
}

// AgentConfig declares one agent in the roster.
type AgentConfig struct {
	Name    string `yaml:"name"`
	Factory string `yaml:"factory"`

	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled resolves the optional enabled flag.
func (a AgentConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// ServerConfig declares one MCP tool server.
type ServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"`
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"`
}

// ToolServer converts the declaration into the tool package's config.
func (s ServerConfig) ToolServer() tool.ServerConfig {
	return tool.ServerConfig{
		Name:      s.Name,
		Transport: s.Transport,
		Command:   s.Command,
		Args:      s.Args,
		Env:       s.Env,
		URL:       s.URL,
		Timeout:   s.Timeout,
	}
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Load reads, parses and validates the configuration at path. Unknown fields
// are rejected so typos fail loudly instead of silently disabling features.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every tunable at its default.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "openai",
			Temperature: 0.7,
		},
		Chat: ChatConfig{
			MaxTurns:        DefaultMaxTurns,
			SelectorRetries: DefaultSelectorRetries,
			TurnRetries:     DefaultTurnRetries,
			TurnTimeout:     DefaultTurnTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Chat.MaxTurns == 0 {
		c.Chat.MaxTurns = DefaultMaxTurns
	}
	if c.Chat.TurnTimeout == 0 {
		c.Chat.TurnTimeout = DefaultTurnTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for problems no amount of retrying can
// fix. Errors are FatalConfigurationError so callers can distinguish them
// from transient startup failures.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	case "":
		return &core.FatalConfigurationError{Reason: "model provider is required"}
	default:
		return &core.FatalConfigurationError{
			Reason: fmt.Sprintf("unknown model provider %q", c.Model.Provider),
		}
	}

	seen := make(map[string]struct{}, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return &core.FatalConfigurationError{Reason: "agent with empty name"}
		}
		if a.Factory == "" {
			return &core.FatalConfigurationError{
				Reason: fmt.Sprintf("agent %q has no factory", a.Name),
			}
		}
		if _, dup := seen[a.Name]; dup {
			return &core.FatalConfigurationError{
				Reason: fmt.Sprintf("duplicate agent name %q", a.Name),
			}
		}
		seen[a.Name] = struct{}{}
	}

	servers := make(map[string]struct{}, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return &core.FatalConfigurationError{Reason: "mcp server with empty name"}
		}
		if _, dup := servers[s.Name]; dup {
			return &core.FatalConfigurationError{
				Reason: fmt.Sprintf("duplicate mcp server name %q", s.Name),
			}
		}
		servers[s.Name] = struct{}{}
		switch s.Transport {
		case "", "stdio":
			if s.Command == "" {
				return &core.FatalConfigurationError{
					Reason: fmt.Sprintf("mcp server %q has no command", s.Name),
				}
			}
		case "http":
			if s.URL == "" {
				return &core.FatalConfigurationError{
					Reason: fmt.Sprintf("mcp server %q has no url", s.Name),
				}
			}
		default:
			return &core.FatalConfigurationError{
				Reason: fmt.Sprintf("mcp server %q has unknown transport %q", s.Name, s.Transport),
			}
		}
	}

	if c.Chat.SelectorRetries < 0 || c.Chat.TurnRetries < 0 {
		return &core.FatalConfigurationError{Reason: "retry counts must not be negative"}
	}

	return nil
}

// ToolServers converts all declared MCP servers.
func (c *Config) ToolServers() []tool.ServerConfig {
	if len(c.Servers) == 0 {
		return nil
	}
	out := make([]tool.ServerConfig, 0, len(c.Servers))
	for _, s := range c.Servers {
		out = append(out, s.ToolServer())
	}
	return out
}
