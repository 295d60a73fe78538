package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

// Config holds all settings of the web frontend.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// APIConfig points at the REST backend. An empty BaseURL is allowed:
// pages then report that the API URL is not set.
type APIConfig struct {
	BaseURL      string `yaml:"base_url"`
	ProxyTimeout string `yaml:"proxy_timeout"`
}

type SessionConfig struct {
	Secret          string `yaml:"secret"`
	Secure          bool   `yaml:"secure"`
	TokenMaxAge     string `yaml:"token_max_age"`
	JustLoggedInTTL string `yaml:"just_logged_in_ttl"`
}

// DatabaseConfig enables attempt history when URL is set.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type CacheConfig struct {
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	DisciplinesTTL string `yaml:"disciplines_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
		API: APIConfig{
			ProxyTimeout: "15s",
		},
		Session: SessionConfig{
			TokenMaxAge:     "720h",
			JustLoggedInTTL: "60s",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
		},
		Cache: CacheConfig{
			DisciplinesTTL: "10m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path, then a .env file next to the working
// directory, then environment overrides. Missing files are not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	// server-side name wins over the public one
	if v := os.Getenv("NEXT_PUBLIC_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("API_URL"); v != "" {
		c.API.BaseURL = v
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("SESSION_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Session.Secure = b
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address not configured")
	}
	if c.API.BaseURL != "" && !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid API URL %q: must start with http:// or https://", c.API.BaseURL)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns must not be negative")
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetProxyTimeout returns the timeout for forwarded password-reset calls.
func (c *Config) GetProxyTimeout() time.Duration {
	return parseDuration(c.API.ProxyTimeout, 15*time.Second)
}

func (c *Config) GetTokenMaxAge() time.Duration {
	return parseDuration(c.Session.TokenMaxAge, 30*24*time.Hour)
}

func (c *Config) GetJustLoggedInTTL() time.Duration {
	return parseDuration(c.Session.JustLoggedInTTL, 60*time.Second)
}

func (c *Config) GetDisciplinesTTL() time.Duration {
	return parseDuration(c.Cache.DisciplinesTTL, 10*time.Minute)
}

// SessionKeys derives a cookie hash key and block key from the session
// secret. With an empty secret random keys are returned and generated is
// true; sessions then do not survive a restart.
func (c *Config) SessionKeys() (hashKey, blockKey []byte, generated bool, err error) {
	if c.Session.Secret == "" {
		return securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32), true, nil
	}

	r := hkdf.New(sha256.New, []byte(c.Session.Secret), nil, []byte("linguaformula session"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, false, fmt.Errorf("derive hash key: %w", err)
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, false, fmt.Errorf("derive block key: %w", err)
	}
	return hashKey, blockKey, false, nil
}
