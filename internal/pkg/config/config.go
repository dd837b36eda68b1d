package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Progression ProgressionConfig `mapstructure:"progression"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ListenAddr           string   `mapstructure:"listen_addr"`
	ReadHeaderTimeoutSec int      `mapstructure:"read_header_timeout_sec"`
	CORSOrigins          []string `mapstructure:"cors_origins"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DBPath string `mapstructure:"db_path"`
	DSN    string `mapstructure:"dsn"`
}

// ProgressionConfig 经验与等级曲线配置
type ProgressionConfig struct {
	XPPerMinute int64       `mapstructure:"xp_per_minute"`
	Curve       CurveConfig `mapstructure:"curve"`
}

// CurveConfig 阈值 T(L) = base * (L-1)^exponent
type CurveConfig struct {
	Base     int64   `mapstructure:"base"`
	Exponent float64 `mapstructure:"exponent"`
}

// LeaderboardConfig Redis 排行榜配置
type LeaderboardConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Key           string `mapstructure:"key"`
}

const envPrefix = "SKILLFORGE"

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(configPath string) (*viper.Viper, error) {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("加载 .env 失败", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("storage.dsn", envPrefix+"_STORAGE_DSN", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (configPath != "" && errors.Is(err, os.ErrNotExist)) {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.Storage.DSN = expandEnv(cfg.Storage.DSN)
	cfg.Leaderboard.RedisPassword = expandEnv(cfg.Leaderboard.RedisPassword)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全部默认值组成的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "skillforge")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:5000")
	v.SetDefault("server.read_header_timeout_sec", 5)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Storage
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.db_path", "./data/skillforge.db")
	v.SetDefault("storage.dsn", "")

	// Progression
	v.SetDefault("progression.xp_per_minute", 1)
	v.SetDefault("progression.curve.base", 100)
	v.SetDefault("progression.curve.exponent", 2.0)

	// Leaderboard
	v.SetDefault("leaderboard.enabled", false)
	v.SetDefault("leaderboard.redis_addr", "127.0.0.1:6379")
	v.SetDefault("leaderboard.redis_password", "")
	v.SetDefault("leaderboard.redis_db", 0)
	v.SetDefault("leaderboard.key", "skillforge:leaderboard")
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Storage.DBPath) == "" {
			return fmt.Errorf("storage.db_path 不能为空")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.driver=postgres 时 storage.dsn 不能为空")
		}
	default:
		return fmt.Errorf("不支持的 storage.driver: %q", c.Storage.Driver)
	}
	if c.Progression.XPPerMinute <= 0 {
		return fmt.Errorf("progression.xp_per_minute 必须大于 0")
	}
	if c.Progression.Curve.Base < 1 {
		return fmt.Errorf("progression.curve.base 必须 >= 1")
	}
	if c.Progression.Curve.Exponent < 1 {
		return fmt.Errorf("progression.curve.exponent 必须 >= 1")
	}
	if c.Leaderboard.Enabled && strings.TrimSpace(c.Leaderboard.RedisAddr) == "" {
		return fmt.Errorf("leaderboard.enabled 时 leaderboard.redis_addr 不能为空")
	}
	return nil
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

// ResolvePath 相对路径按可执行文件目录解析；":memory:" 原样返回
func ResolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}
