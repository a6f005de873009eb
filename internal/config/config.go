package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig              `yaml:"site"`
	Server  ServerConfig            `yaml:"server"`
	Render  RenderConfig            `yaml:"render"`
	Anchors map[string]AnchorConfig `yaml:"anchors,omitempty"` // Selector overrides keyed by anchor name (e.g. "reviews-primary")
	Publish PublishConfig           `yaml:"publish"`
	History HistoryConfig           `yaml:"history"`
	Notify  NotifyConfig            `yaml:"notify"`
	Metrics MetricsConfig           `yaml:"metrics"`
	Watch   WatchConfig             `yaml:"watch"`
}

// SiteConfig locates the managed document and the collection files.
type SiteConfig struct {
	Document string `yaml:"document"` // HTML document rewritten on every sync
	DataDir  string `yaml:"data_dir"` // Directory holding <kind>.json collections
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RenderConfig controls fragment rendering.
type RenderConfig struct {
	PrimaryReviews int  `yaml:"primary_reviews"` // Reviews shown in the primary region
	FAQMarkdown    bool `yaml:"faq_markdown"`    // Render FAQ answers as sanitized Markdown
}

// AnchorConfig describes how an anchor element is located in the document.
// All non-empty criteria must match.
type AnchorConfig struct {
	Tag    string            `yaml:"tag,omitempty"`
	ID     string            `yaml:"id,omitempty"`
	Class  string            `yaml:"class,omitempty"`
	Attrs  map[string]string `yaml:"attrs,omitempty"`
	Within *AnchorConfig     `yaml:"within,omitempty"` // Optional ancestor constraint
}

// PublishConfig represents publish pipeline configuration.
type PublishConfig struct {
	Backend  string        `yaml:"backend"`            // "exec" or "go-git"
	RepoDir  string        `yaml:"repo_dir"`           // Working tree that gets published
	Remote   string        `yaml:"remote"`             // Remote name
	Branch   string        `yaml:"branch"`             // Default branch
	Message  string        `yaml:"message"`            // Default commit message
	Timeout  time.Duration `yaml:"timeout"`            // Upper bound for a single publish
	Auto     bool          `yaml:"auto"`               // Publish after every mutation
	Interval time.Duration `yaml:"interval,omitempty"` // Periodic publish, disabled when zero
	Author   AuthorConfig  `yaml:"author,omitempty"`
	Auth     *AuthConfig   `yaml:"auth,omitempty"`
}

// AuthorConfig overrides the commit identity.
type AuthorConfig struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// AuthConfig represents authentication configuration for the go-git backend.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// HistoryConfig configures the SQLite change history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures NATS change events. Empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatchConfig configures the collection file watcher used by serve.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Missing .env files are normal
	_ = loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes configuration from YAML, expanding ${VAR} references and
// applying environment overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.History.Path = ".sitekeeper/history.db"
	example.Metrics.Enabled = true

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	// #nosec G306 -- config file is meant to be readable
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// AuthType enumerates supported authentication methods.
type AuthType = string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)
