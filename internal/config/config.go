// Package config loads application configuration from an optional YAML file
// and SAFC_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SAFC_"

// AppConfig 应用配置结构
type AppConfig struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Bot      BotConfig      `koanf:"bot"`
	Quota    QuotaConfig    `koanf:"quota"`
	Governor GovernorConfig `koanf:"governor"`
	Search   SearchConfig   `koanf:"search"`
	Admin    AdminConfig    `koanf:"admin"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	Mode    string `koanf:"mode"`     // debug, release, test
	SiteURL string `koanf:"site_url"` // feed 中的链接前缀，为空时取请求 Host
}

type DatabaseConfig struct {
	Driver       string        `koanf:"driver"` // sqlite, postgres
	Path         string        `koanf:"path"`   // sqlite 文件
	DSN          string        `koanf:"dsn"`    // postgres
	LogLevel     string        `koanf:"log_level"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	MaxLifetime  time.Duration `koanf:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type BotConfig struct {
	Token           string        `koanf:"token"`
	SessionStore    string        `koanf:"session_store"` // memory, redis
	SessionCapacity int           `koanf:"session_capacity"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	PageHalfWidth   int           `koanf:"page_half_width"`
	Workers         int           `koanf:"workers"`
}

type QuotaConfig struct {
	MaxPostsPerDay int `koanf:"max_posts_per_day"`
	ResetHour      int `koanf:"reset_hour"`
}

type GovernorConfig struct {
	PerSecond float64 `koanf:"per_second"`
	Burst     int     `koanf:"burst"`
}

type SearchConfig struct {
	MaxObjectMatches  int `koanf:"max_object_matches"`
	MaxCommentMatches int `koanf:"max_comment_matches"`
}

type AdminConfig struct {
	TokenHash string `koanf:"token_hash"` // bcrypt
}

type LogConfig struct {
	Mode string `koanf:"mode"` // dev, prod
}

// Load 加载配置：.env → YAML 文件（可选）→ 环境变量覆盖
func Load(path string) (*AppConfig, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("加载配置文件失败: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyLegacyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey 将 SAFC_DATABASE__MAX_OPEN_CONNS 映射为 database.max_open_conns
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// applyLegacyEnv 兼容旧部署使用的环境变量
func applyLegacyEnv(cfg *AppConfig) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = os.Getenv("SAFC_DB_PATH")
	}
	if cfg.Bot.Token == "" {
		cfg.Bot.Token = os.Getenv("TELOXIDE_TOKEN")
	}
}

func setDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 11096
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "db.sqlite"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.MaxOpenConns == 0 {
		if cfg.Database.Driver == "sqlite" {
			cfg.Database.MaxOpenConns = 1
		} else {
			cfg.Database.MaxOpenConns = 10
		}
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxLifetime == 0 {
		cfg.Database.MaxLifetime = 30 * time.Minute
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Bot.SessionStore == "" {
		cfg.Bot.SessionStore = "memory"
	}
	if cfg.Bot.SessionCapacity == 0 {
		cfg.Bot.SessionCapacity = 10000
	}
	if cfg.Bot.SessionTTL == 0 {
		cfg.Bot.SessionTTL = 24 * time.Hour
	}
	if cfg.Bot.PageHalfWidth == 0 {
		cfg.Bot.PageHalfWidth = 2
	}
	if cfg.Bot.Workers == 0 {
		cfg.Bot.Workers = 64
	}
	if cfg.Quota.MaxPostsPerDay == 0 {
		cfg.Quota.MaxPostsPerDay = 20
	}
	if cfg.Governor.PerSecond == 0 {
		cfg.Governor.PerSecond = 100
	}
	if cfg.Governor.Burst == 0 {
		cfg.Governor.Burst = 1000
	}
	if cfg.Search.MaxObjectMatches == 0 {
		cfg.Search.MaxObjectMatches = 30
	}
	if cfg.Search.MaxCommentMatches == 0 {
		cfg.Search.MaxCommentMatches = 10
	}
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = "prod"
	}
}

// Validate checks cross-field constraints after defaults are applied.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Bot.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported bot.session_store %q", c.Bot.SessionStore)
	}
	if c.Search.MaxObjectMatches <= c.Search.MaxCommentMatches {
		return errors.New("search.max_object_matches must exceed search.max_comment_matches")
	}
	if c.Quota.ResetHour < 0 || c.Quota.ResetHour > 23 {
		return errors.New("quota.reset_hour must be within 0-23")
	}
	return nil
}

// Addr 监听地址
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
