package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "config", "config.yaml"), nil
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
		},
		"server": map[string]any{
			"listen_addr":             cfg.Server.ListenAddr,
			"read_header_timeout_sec": cfg.Server.ReadHeaderTimeoutSec,
			"cors_origins":            cfg.Server.CORSOrigins,
		},
		"storage": map[string]any{
			"driver":  cfg.Storage.Driver,
			"db_path": cfg.Storage.DBPath,
			"dsn":     cfg.Storage.DSN,
		},
		"progression": map[string]any{
			"xp_per_minute": cfg.Progression.XPPerMinute,
			"curve": map[string]any{
				"base":     cfg.Progression.Curve.Base,
				"exponent": cfg.Progression.Curve.Exponent,
			},
		},
		"leaderboard": map[string]any{
			"enabled":        cfg.Leaderboard.Enabled,
			"redis_addr":     cfg.Leaderboard.RedisAddr,
			"redis_password": cfg.Leaderboard.RedisPassword,
			"redis_db":       cfg.Leaderboard.RedisDB,
			"key":            cfg.Leaderboard.Key,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
