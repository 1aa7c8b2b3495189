package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	LoginGuard LoginGuardConfig `yaml:"login_guard"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	LinkCheck  LinkCheckConfig  `yaml:"link_check"`
	Artwork    ArtworkConfig    `yaml:"artwork"`
	Characters CharactersConfig `yaml:"characters"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"`
	BasePath string `yaml:"base_path"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // postgres | sqlite
	URL         string `yaml:"url"`    // takes precedence over the host/port fields
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	Path        string `yaml:"path"` // sqlite only
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	TokenTTLSeconds    int `yaml:"token_ttl_seconds"`
	RenewWindowSeconds int `yaml:"renew_window_seconds"`
}

type LoginGuardConfig struct {
	MaxFailures    int `yaml:"max_failures"`
	LockoutMinutes int `yaml:"lockout_minutes"`
}

// GatewayConfig configures the OpenAI-compatible generative API client.
// Credentials live here rather than in process-wide state.
type GatewayConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Organization   string  `yaml:"organization"`
	ImageSize      string  `yaml:"image_size"`
	TextModel      string  `yaml:"text_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	RetryBaseMS    int     `yaml:"retry_base_ms"`
}

type LinkCheckConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// SweepIntervalSeconds enables background repair of leaderboard
	// links when positive
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

type ArtworkConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled       bool   `yaml:"enabled"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url"`
	KeyPrefix     string `yaml:"key_prefix"`
}

type CharactersConfig struct {
	// OwnerOnlyUpdate restricts PUT /characters/:id to the owner.
	// Off by default: character edits have always been public.
	OwnerOnlyUpdate bool `yaml:"owner_only_update"`
}

type LogConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // json | text
	Level  string `yaml:"level"`
}

// Default returns the configuration used when a key is absent from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			Mode:     "debug",
			BasePath: "/api",
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			Host:        "localhost",
			Port:        5432,
			User:        "arena",
			DBName:      "arena",
			SSLMode:     "disable",
			Path:        "arena.db",
			AutoMigrate: true,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Auth: AuthConfig{
			TokenTTLSeconds:    1200,
			RenewWindowSeconds: 60,
		},
		LoginGuard: LoginGuardConfig{
			MaxFailures:    7,
			LockoutMinutes: 15,
		},
		Gateway: GatewayConfig{
			BaseURL:        "https://api.openai.com/v1",
			ImageSize:      "1024x1024",
			TextModel:      "gpt-3.5-turbo-instruct",
			Temperature:    0.7,
			MaxTokens:      264,
			TimeoutSeconds: 60,
			MaxRetries:     2,
			RetryBaseMS:    500,
		},
		LinkCheck: LinkCheckConfig{
			TimeoutSeconds: 10,
		},
		Artwork: ArtworkConfig{
			S3: S3Config{
				Region:    "us-east-1",
				KeyPrefix: "characters",
			},
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Override with environment variables if present
	cfg.loadFromEnv()

	return cfg, nil
}

func (c *Config) loadFromEnv() {
	// Server
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.Mode = v
	}

	// Database
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.DBName = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}

	// Redis
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	// Auth
	if v := os.Getenv("TOKEN_TTL_SECONDS"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.Auth.TokenTTLSeconds = ttl
		}
	}

	// Gateway
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("OPENAI_ORGANIZATION"); v != "" {
		c.Gateway.Organization = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}

	// Artwork
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		c.Artwork.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		c.Artwork.S3.SecretKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Artwork.S3.Endpoint = v
	}

	// Log
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// TokenTTL returns the bearer token lifetime
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// RenewWindow returns how close to expiry a token may get before
// IssueToken replaces it instead of returning it again
func (c *AuthConfig) RenewWindow() time.Duration {
	return time.Duration(c.RenewWindowSeconds) * time.Second
}

// Timeout returns the per-call timeout for generative requests
func (c *GatewayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryBase returns the base delay for exponential retry backoff
func (c *GatewayConfig) RetryBase() time.Duration {
	return time.Duration(c.RetryBaseMS) * time.Millisecond
}

// Timeout returns the link probe timeout
func (c *LinkCheckConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SweepInterval returns the background sweep period, zero when disabled
func (c *LinkCheckConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Lockout returns the failed-login lockout window
func (c *LoginGuardConfig) Lockout() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}
