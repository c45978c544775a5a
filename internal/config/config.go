// Package config loads client and dev-server settings.
//
// Sources, lowest priority first: built-in defaults, an optional YAML file,
// a .env file, OFFLINEDESK_* environment variables. Command-line flags are
// applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "OFFLINEDESK_"

type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type ClientConfig struct {
	ServerURL      string        `yaml:"server_url"`
	DBPath         string        `yaml:"db_path"`
	RedisURL       string        `yaml:"redis_url"` // "" disables the redis wake signal
	WakeChannel    string        `yaml:"wake_channel"`
	SyncInterval   time.Duration `yaml:"sync_interval"`
	ItemDelay      time.Duration `yaml:"item_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProbeTTL       time.Duration `yaml:"probe_ttl"`
	QuotaBytes     int64         `yaml:"quota_bytes"` // 0 means free disk space
	MaxRetries     int           `yaml:"max_retries"`
}

type ServerConfig struct {
	Addr            string          `yaml:"addr"`
	DBPath          string          `yaml:"db_path"`
	JWTSecret       string          `yaml:"jwt_secret"`
	TokenTTL        time.Duration   `yaml:"token_ttl"`
	RedisURL        string          `yaml:"redis_url"` // publishes a wake on startup when set
	WakeChannel     string          `yaml:"wake_channel"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text | json
	Output     string `yaml:"output"` // stdout | stderr | file
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL:      "http://localhost:8080",
			DBPath:         "offlinedesk-client.db",
			WakeChannel:    "offlinedesk:sync",
			SyncInterval:   30 * time.Second,
			ItemDelay:      100 * time.Millisecond,
			RequestTimeout: 30 * time.Second,
			ProbeTTL:       5 * time.Second,
			MaxRetries:     3,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			DBPath:          "offlinedesk-server.db",
			TokenTTL:        24 * time.Hour,
			WakeChannel:     "offlinedesk:sync",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       RateLimitConfig{RPS: 20, Burst: 40},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load builds the configuration. A missing configPath or .env file is not
// an error; an unreadable or malformed one is.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			// подставляем переменные окружения в YAML
			expanded := []byte(os.ExpandEnv(string(data)))
			if err := yaml.Unmarshal(expanded, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	env.stringVar("SERVER_URL", &c.Client.ServerURL)
	env.stringVar("DB_PATH", &c.Client.DBPath)
	// redis общий для клиента и сервера
	env.stringVar("REDIS_URL", &c.Client.RedisURL, &c.Server.RedisURL)
	env.stringVar("WAKE_CHANNEL", &c.Client.WakeChannel, &c.Server.WakeChannel)
	env.durationVar("SYNC_INTERVAL", &c.Client.SyncInterval)
	env.durationVar("ITEM_DELAY", &c.Client.ItemDelay)
	env.durationVar("REQUEST_TIMEOUT", &c.Client.RequestTimeout)
	env.durationVar("PROBE_TTL", &c.Client.ProbeTTL)
	env.int64Var("QUOTA_BYTES", &c.Client.QuotaBytes)
	env.intVar("MAX_RETRIES", &c.Client.MaxRetries)

	env.stringVar("LISTEN_ADDR", &c.Server.Addr)
	env.stringVar("SERVER_DB_PATH", &c.Server.DBPath)
	env.stringVar("JWT_SECRET", &c.Server.JWTSecret)
	env.durationVar("TOKEN_TTL", &c.Server.TokenTTL)
	env.floatVar("RATE_LIMIT_RPS", &c.Server.RateLimit.RPS)
	env.intVar("RATE_LIMIT_BURST", &c.Server.RateLimit.Burst)

	env.stringVar("LOG_LEVEL", &c.Logging.Level)
	env.stringVar("LOG_FORMAT", &c.Logging.Format)
	env.stringVar("LOG_OUTPUT", &c.Logging.Output)
	env.stringVar("LOG_FILE", &c.Logging.FilePath)

	return errors.Join(env.errs...)
}

// Validate checks the settings both binaries depend on.
func (c *Config) Validate() error {
	if c.Client.ServerURL == "" {
		return errors.New("client.server_url is required")
	}
	if c.Client.SyncInterval <= 0 {
		return errors.New("client.sync_interval must be positive")
	}
	if c.Client.ItemDelay < 0 {
		return errors.New("client.item_delay must not be negative")
	}
	if c.Client.MaxRetries <= 0 {
		return errors.New("client.max_retries must be positive")
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	switch strings.ToLower(c.Logging.Output) {
	case "", "stdout", "stderr":
	case "file":
		if c.Logging.FilePath == "" {
			return errors.New("logging.output=file requires logging.file_path")
		}
	default:
		return fmt.Errorf("unknown logging.output %q", c.Logging.Output)
	}
	return nil
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) stringVar(name string, dsts ...*string) {
	if v, ok := e.get(name); ok {
		for _, dst := range dsts {
			*dst = v
		}
	}
}

func (e *envReader) durationVar(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
}

func (e *envReader) intVar(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) int64Var(name string, dst *int64) {
	if v, ok := e.get(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) floatVar(name string, dst *float64) {
	if v, ok := e.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = f
	}
}
