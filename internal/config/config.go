// Package config loads service configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Switcher SwitcherConfig `mapstructure:"switcher"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address       string        `mapstructure:"address"`
	BaseURL       string        `mapstructure:"base_url"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MaxConnections int           `mapstructure:"max_connections"`
	ConnLifetime   time.Duration `mapstructure:"conn_lifetime"`
}

// URL renders the connection string for pgx and migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// RedisConfig configures the per-user cache connection.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig configures token signing and session lifetime.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// SwitcherConfig holds the module settings read once at startup and passed
// by value into every request.
type SwitcherConfig struct {
	SortBy      string `mapstructure:"sort_by"` // none, display_name, username
	IncludeHost bool   `mapstructure:"include_host"`
	LogoffURL   string `mapstructure:"logoff_url"`
}

// Load reads configuration from the optional YAML file at path, applies
// defaults, and overlays IDSW_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "identityswitcher")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "identityswitcher")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.conn_lifetime", time.Hour)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Registered without a usable default so the environment override is
	// picked up by Unmarshal; Validate rejects the empty value.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)

	v.SetDefault("switcher.sort_by", "none")
	v.SetDefault("switcher.include_host", false)
	v.SetDefault("switcher.logoff_url", "/logoff")

	v.SetEnvPrefix("IDSW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	switch c.Switcher.SortBy {
	case "none", "display_name", "username":
	default:
		return fmt.Errorf("switcher.sort_by must be one of none, display_name, username")
	}
	return nil
}
