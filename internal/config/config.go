package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "INTERESTBOT_CONFIG"
	botTokenEnv       = "BOT_TOKEN"
	adminIDEnv        = "ADMIN_ID"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	redisURLEnv       = "REDIS_URL"
	logLevelEnv       = "LOG_LEVEL"
	catalogPathEnv    = "CATALOG_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Session  SessionConfig  `yaml:"session"`
	Matching MatchingConfig `yaml:"matching"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// LoggingConfig selects the level and an optional rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// DatabaseConfig describes the SQL store. Driver is sqlite or postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// TelegramConfig wires the Bot API transport.
type TelegramConfig struct {
	BotToken    string        `yaml:"botToken"`
	AdminChatID int64         `yaml:"adminChatId"`
	APIURL      string        `yaml:"apiUrl"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
	Workers     int           `yaml:"workers"`
}

// SessionConfig picks the session backend: memory or redis.
type SessionConfig struct {
	Backend  string        `yaml:"backend"`
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redisUrl"`
}

// MatchingConfig tunes the matching cascade.
type MatchingConfig struct {
	PrimaryLanguage  string  `yaml:"primaryLanguage"`
	KeywordThreshold float64 `yaml:"keywordThreshold"`
	VectorThreshold  float64 `yaml:"vectorThreshold"`
	FallbackScore    float64 `yaml:"fallbackScore"`
	MaxFeatures      int     `yaml:"maxFeatures"`
}

// CatalogConfig points at an optional YAML catalog; empty uses the built-in one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit file path.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports settings the selected mode cannot run without.
func (c Config) Validate(requireToken bool) error {
	if requireToken && c.Telegram.BotToken == "" {
		return fmt.Errorf("config: %s is required", botTokenEnv)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("config: redis session backend needs %s", redisURLEnv)
		}
	default:
		return fmt.Errorf("config: unsupported session backend %q", c.Session.Backend)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(adminIDEnv); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("config: invalid %s %q: %v", adminIDEnv, v, err)
		} else {
			c.Telegram.AdminChatID = id
		}
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Session.RedisURL = v
		c.Session.Backend = "redis"
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(catalogPathEnv); v != "" {
		c.Catalog.Path = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}
	if override.Logging.MaxSizeMB > 0 {
		base.Logging.MaxSizeMB = override.Logging.MaxSizeMB
	}
	if override.Logging.MaxBackups > 0 {
		base.Logging.MaxBackups = override.Logging.MaxBackups
	}
	if override.Logging.MaxAgeDays > 0 {
		base.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.AdminChatID != 0 {
		base.Telegram.AdminChatID = override.Telegram.AdminChatID
	}
	if override.Telegram.APIURL != "" {
		base.Telegram.APIURL = override.Telegram.APIURL
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}
	if override.Telegram.Workers > 0 {
		base.Telegram.Workers = override.Telegram.Workers
	}

	if override.Session.Backend != "" {
		base.Session.Backend = override.Session.Backend
	}
	if override.Session.TTL != 0 {
		base.Session.TTL = override.Session.TTL
	}
	if override.Session.RedisURL != "" {
		base.Session.RedisURL = override.Session.RedisURL
	}

	if override.Matching.PrimaryLanguage != "" {
		base.Matching.PrimaryLanguage = override.Matching.PrimaryLanguage
	}
	if override.Matching.KeywordThreshold > 0 {
		base.Matching.KeywordThreshold = override.Matching.KeywordThreshold
	}
	if override.Matching.VectorThreshold > 0 {
		base.Matching.VectorThreshold = override.Matching.VectorThreshold
	}
	if override.Matching.FallbackScore > 0 {
		base.Matching.FallbackScore = override.Matching.FallbackScore
	}
	if override.Matching.MaxFeatures > 0 {
		base.Matching.MaxFeatures = override.Matching.MaxFeatures
	}

	if override.Catalog.Path != "" {
		base.Catalog.Path = override.Catalog.Path
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "bot_database.db"},
		Telegram: TelegramConfig{
			APIURL:      "https://api.telegram.org",
			PollTimeout: 30 * time.Second,
			Workers:     4,
		},
		Session: SessionConfig{Backend: "memory", TTL: 24 * time.Hour},
		Matching: MatchingConfig{
			PrimaryLanguage:  "ru",
			KeywordThreshold: 0.3,
			VectorThreshold:  0.15,
			FallbackScore:    0.4,
			MaxFeatures:      1000,
		},
	}
}
