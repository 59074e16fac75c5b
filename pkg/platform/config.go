// Package platform assembles the chat platform from configuration.
package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/txn2/chat-platform/pkg/auth"
	"github.com/txn2/chat-platform/pkg/snowflake"
)

// Generation providers.
const (
	ProviderEcho      = "echo"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const minJWTSecretLength = 32

// Config holds the complete platform configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Snowflake  SnowflakeConfig  `yaml:"snowflake"`
	Chat       ChatConfig       `yaml:"chat"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Name              string        `yaml:"name"`
	Address           string        `yaml:"address"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	SSEHeartbeat      time.Duration `yaml:"sse_heartbeat"`
	MCPEnabled        bool          `yaml:"mcp_enabled"`
	SwaggerEnabled    bool          `yaml:"swagger_enabled"`
}

// DatabaseConfig configures PostgreSQL. An empty DSN selects in-memory stores.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	SkipMigrations  bool          `yaml:"skip_migrations"`
}

// SnowflakeConfig configures id allocation.
type SnowflakeConfig struct {
	// NodeID must be unique per running instance.
	NodeID int64 `yaml:"node_id"`
}

// ChatConfig configures the conversation engine.
type ChatConfig struct {
	SessionWindow time.Duration `yaml:"session_window"`
	SystemPrompt  string        `yaml:"system_prompt"`
	DefaultModel  string        `yaml:"default_model"`
	MaxTokens     int           `yaml:"max_tokens"`
}

// GenerationConfig selects and configures the text-generation provider.
type GenerationConfig struct {
	Provider string        `yaml:"provider"` // "echo", "openai", "anthropic", "gemini"
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuthConfig configures authentication.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	Issuer         string        `yaml:"issuer"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	APIKeys        []auth.APIKey `yaml:"api_keys"`
	BootstrapAdmin *AdminAccount `yaml:"bootstrap_admin,omitempty"`
}

// AdminAccount is created at startup when it does not exist.
type AdminAccount struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// AnalyticsConfig configures activity retention.
type AnalyticsConfig struct {
	RetentionDays   int           `yaml:"retention_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Retention returns the activity retention as a duration.
func (a AnalyticsConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// LoadEnvFile loads variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig expands environment variables in data, decodes it and applies
// defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// DefaultConfig returns a configuration with every default applied. Flags
// that default to on are set here; zero values elsewhere are filled by
// applyDefaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			MCPEnabled:     true,
			SwaggerEnabled: true,
		},
	}
	applyDefaults(cfg)
	return cfg
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars expands ${VAR} and ${VAR:-default} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(parts[1]); ok && v != "" {
			return v
		}
		return parts[2]
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "chat-platform"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.SSEHeartbeat == 0 {
		cfg.Server.SSEHeartbeat = 15 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Chat.SessionWindow == 0 {
		cfg.Chat.SessionWindow = 30 * time.Minute
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderEcho
	}
	if cfg.Generation.Timeout == 0 {
		cfg.Generation.Timeout = 2 * time.Minute
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "chat-platform"
	}
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = time.Hour
	}
	if cfg.Analytics.RetentionDays == 0 {
		cfg.Analytics.RetentionDays = 90
	}
	if cfg.Analytics.CleanupInterval == 0 {
		cfg.Analytics.CleanupInterval = 24 * time.Hour
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Snowflake.NodeID < 0 || c.Snowflake.NodeID > snowflake.MaxNodeID {
		errs = append(errs, fmt.Sprintf("snowflake.node_id must be between 0 and %d", snowflake.MaxNodeID))
	}
	if c.Chat.SessionWindow < 0 {
		errs = append(errs, "chat.session_window must be positive")
	}
	if c.Chat.MaxTokens < 0 {
		errs = append(errs, "chat.max_tokens must not be negative")
	}

	switch c.Generation.Provider {
	case ProviderEcho:
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if c.Generation.APIKey == "" {
			errs = append(errs, "generation.api_key is required for provider "+c.Generation.Provider)
		}
	default:
		errs = append(errs, fmt.Sprintf("generation.provider %q is not one of echo, openai, anthropic, gemini", c.Generation.Provider))
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("auth.jwt_secret must be at least %d bytes", minJWTSecretLength))
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" {
			errs = append(errs, fmt.Sprintf("auth.api_keys[%d].key is required", i))
		}
		if k.Role != "" && !k.Role.Valid() {
			errs = append(errs, fmt.Sprintf("auth.api_keys[%d].role %q is not member or admin", i, k.Role))
		}
	}
	if a := c.Auth.BootstrapAdmin; a != nil && (a.Email == "" || a.Password == "") {
		errs = append(errs, "auth.bootstrap_admin requires email and password")
	}

	if c.Analytics.RetentionDays < 0 {
		errs = append(errs, "analytics.retention_days must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
