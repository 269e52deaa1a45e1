package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigEnv names the TOML file used when LoadConfig is given no path.
const ConfigEnv = "AUTH_CONFIG"

// Key storage modes.
const (
	KeysPersistent = "persistent"
	KeysEphemeral  = "ephemeral"
)

// Challenge store kinds.
const (
	ChallengesSQLite = "sqlite"
	ChallengesRedis  = "redis"
)

type Config struct {
	Issuer  string `toml:"issuer"`   // Issuer claim for session tokens (default: pocketbook-auth)
	APIKey  string `toml:"api_key"`  // Service key for X-API-Key callers; service-only routes reject everything when empty
	BaseURL string `toml:"base_url"` // Prefix of the links placed in account emails

	Env       string `toml:"env"`        // Environment (dev, staging, prod) (default: dev)
	LogLevel  string `toml:"log_level"`  // Log level (debug, info, warn, error) (default: info)
	LogFormat string `toml:"log_format"` // Log format (json, text, pretty) (default: json)

	Port                 int           `toml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `toml:"housekeeping_interval"` // Housekeeping interval (default: 1h)

	DatabaseFile  string `toml:"database_file"`   // Path to SQLite database file (default: auth.db)
	PepperFile    string `toml:"pepper_file"`     // Path to the password pepper (default: pepper)
	MasterKeyPath string `toml:"master_key_path"` // Path to master key for sealing secrets; falls back to AUTH_MASTER_KEY

	KeyStorageMode string        `toml:"key_storage_mode"` // persistent or ephemeral (default: persistent)
	KeyGracePeriod time.Duration `toml:"key_grace_period"` // How long a retired key keeps verifying (default: 48h)
	SessionTTL     time.Duration `toml:"session_ttl"`      // Session lifetime (default: 24h)
	AutoConfirm    bool          `toml:"auto_confirm"`     // Skip email confirmation for new identities

	ChallengeStore string `toml:"challenge_store"` // sqlite or redis (default: sqlite)
	RedisURL       string `toml:"redis_url"`       // redis://[:password@]host:port/db, required for redis challenges
	RedisPrefix    string `toml:"redis_prefix"`    // Key prefix for challenges (default: pocketbook:mfa)

	SMTP SMTPConfig `toml:"smtp"` // Mail relay; emails are logged instead when Host is empty
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	TLS      bool   `toml:"tls"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Issuer:               "pocketbook-auth",
		BaseURL:              "http://localhost:8080",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: time.Hour,
		DatabaseFile:         "auth.db",
		PepperFile:           "pepper",
		KeyStorageMode:       KeysPersistent,
		KeyGracePeriod:       48 * time.Hour,
		SessionTTL:           24 * time.Hour,
		ChallengeStore:       ChallengesSQLite,
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "Pocketbook",
			TLS:      true,
		},
	}
}

// LoadConfig applies, in order: defaults, the TOML file at path (or
// $AUTH_CONFIG when path is empty), then AUTH_* environment variables. The
// result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Issuer = getEnvOrDefault("AUTH_ISSUER", cfg.Issuer)
	cfg.APIKey = getEnvOrDefault("AUTH_API_KEY", cfg.APIKey)
	cfg.BaseURL = getEnvOrDefault("AUTH_BASE_URL", cfg.BaseURL)

	cfg.Env = getEnvOrDefault("AUTH_ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("AUTH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("AUTH_LOG_FORMAT", cfg.LogFormat)

	cfg.Port = getEnvIntOrDefault("AUTH_PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("AUTH_SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("AUTH_HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)

	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)
	cfg.MasterKeyPath = getEnvOrDefault("AUTH_MASTER_KEY_PATH", cfg.MasterKeyPath)

	cfg.KeyStorageMode = getEnvOrDefault("AUTH_KEY_STORAGE_MODE", cfg.KeyStorageMode)
	cfg.KeyGracePeriod = getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", cfg.KeyGracePeriod)
	cfg.SessionTTL = getEnvDurationOrDefault("AUTH_SESSION_TTL", cfg.SessionTTL)
	cfg.AutoConfirm = getEnvBoolOrDefault("AUTH_AUTO_CONFIRM", cfg.AutoConfirm)

	cfg.ChallengeStore = getEnvOrDefault("AUTH_CHALLENGE_STORE", cfg.ChallengeStore)
	cfg.RedisURL = getEnvOrDefault("AUTH_REDIS_URL", cfg.RedisURL)
	cfg.RedisPrefix = getEnvOrDefault("AUTH_REDIS_PREFIX", cfg.RedisPrefix)

	cfg.SMTP.Host = getEnvOrDefault("AUTH_SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnvIntOrDefault("AUTH_SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnvOrDefault("AUTH_SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnvOrDefault("AUTH_SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.From = getEnvOrDefault("AUTH_SMTP_FROM", cfg.SMTP.From)
	cfg.SMTP.FromName = getEnvOrDefault("AUTH_SMTP_FROM_NAME", cfg.SMTP.FromName)
	cfg.SMTP.TLS = getEnvBoolOrDefault("AUTH_SMTP_TLS", cfg.SMTP.TLS)
}

// Validate reports every problem found, joined.
func (cfg Config) Validate() error {
	var errs []error

	if cfg.Issuer == "" {
		errs = append(errs, errors.New("issuer is required"))
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", cfg.Port))
	}
	if cfg.DatabaseFile == "" {
		errs = append(errs, errors.New("database_file is required"))
	}

	switch cfg.KeyStorageMode {
	case KeysPersistent, KeysEphemeral:
	default:
		errs = append(errs, fmt.Errorf("key_storage_mode must be %q or %q, got %q", KeysPersistent, KeysEphemeral, cfg.KeyStorageMode))
	}

	switch cfg.ChallengeStore {
	case ChallengesSQLite:
	case ChallengesRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("redis_url is required when challenge_store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("challenge_store must be %q or %q, got %q", ChallengesSQLite, ChallengesRedis, cfg.ChallengeStore))
	}

	for name, d := range map[string]time.Duration{
		"session_ttl":           cfg.SessionTTL,
		"key_grace_period":      cfg.KeyGracePeriod,
		"housekeeping_interval": cfg.HousekeepingInterval,
		"shutdown_grace_period": cfg.ShutdownGracePeriod,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if cfg.KeyGracePeriod > 0 && cfg.KeyGracePeriod < cfg.SessionTTL {
		errs = append(errs, errors.New("key_grace_period must be at least session_ttl"))
	}

	if cfg.SMTP.Host != "" && cfg.SMTP.From == "" {
		errs = append(errs, errors.New("smtp.from is required when smtp.host is set"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
