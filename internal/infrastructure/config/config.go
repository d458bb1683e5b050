package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Stencil.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Cache    CacheConfig    `yaml:"cache"`
	Files    FilesConfig    `yaml:"files"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name string `yaml:"name"`

	// SnowflakeNode is the node/instance number baked into generated IDs.
	// Each deployed instance must use a distinct value (0-1023).
	SnowflakeNode int64 `yaml:"snowflake_node"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// CacheConfig contains role-set cache settings.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory" or "redis".
	Backend string `yaml:"backend"`

	// RoleTTL is how long a cached role set is trusted, in seconds.
	// Role-assignment mutations invalidate entries regardless of TTL.
	RoleTTL int `yaml:"role_ttl"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// FilesConfig contains file upload settings.
type FilesConfig struct {
	// Dir is the local directory uploaded files are written into.
	Dir string `yaml:"dir"`

	// URLPrefix is prepended to stored file names to form the public URL.
	URLPrefix string `yaml:"url_prefix"`

	// MaxSize is the maximum accepted upload size in bytes.
	MaxSize int64 `yaml:"max_size"`

	// ChunkSize is the streamed copy buffer size in bytes.
	ChunkSize int `yaml:"chunk_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	// Secret is the HS256 signing key. Required, minimum 32 characters.
	// Always set via STENCIL_JWT_SECRET in production.
	Secret string `yaml:"secret"`

	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	// TTL is the access token lifetime in seconds.
	TTL int `yaml:"ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: STENCIL_SECTION_KEY
// For example: STENCIL_DATABASE_PATH, STENCIL_JWT_SECRET
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:          "stencil",
			SnowflakeNode: 1,
		},
		Database: DatabaseConfig{
			Path:        "./data/stencil.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Cache: CacheConfig{
			Backend: "memory",
			RoleTTL: 300,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Files: FilesConfig{
			Dir:       "./data/files",
			URLPrefix: "/static",
			MaxSize:   32 << 20, // 32 MiB
			ChunkSize: 64 << 10, // 64 KiB
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer:   "stencil",
				Audience: "stencil",
				TTL:      604800, // 7 days
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: STENCIL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("STENCIL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("STENCIL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("STENCIL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Cache
	if v := os.Getenv("STENCIL_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("STENCIL_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("STENCIL_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	// Files
	if v := os.Getenv("STENCIL_FILES_DIR"); v != "" {
		cfg.Files.Dir = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("STENCIL_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.App.SnowflakeNode < 0 || c.App.SnowflakeNode > 1023 {
		errs = append(errs, "app.snowflake_node must be between 0 and 1023")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, "cache.backend must be \"memory\" or \"redis\"")
	}
	if c.Cache.RoleTTL < 1 {
		errs = append(errs, "cache.role_ttl must be at least 1 second")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		errs = append(errs, "cache.redis.addr is required when cache.backend is redis")
	}

	if c.Files.MaxSize < 1 {
		errs = append(errs, "files.max_size must be positive")
	}
	if c.Files.ChunkSize < 1 {
		errs = append(errs, "files.chunk_size must be positive")
	}

	// JWT secret is REQUIRED. A weak or empty secret would let anyone
	// forge tokens for any subject, so startup fails loudly instead.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set STENCIL_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}
	if c.Security.JWT.TTL < 1 {
		errs = append(errs, "security.jwt.ttl must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the JWT access token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TTL) * time.Second
}

// GetRoleCacheTTL returns the role-set cache TTL as a Duration.
func (c *Config) GetRoleCacheTTL() time.Duration {
	return time.Duration(c.Cache.RoleTTL) * time.Second
}
