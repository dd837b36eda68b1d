package config

import (
	"log/slog"
	"os"
	"strings"
)

var logLevel = new(slog.LevelVar)

// ParseLevel 解析日志级别，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger 根据配置设置日志级别
func SetupLogger(level string) {
	logLevel.Set(ParseLevel(level))
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLogLevel 运行时调整日志级别
func SetLogLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

// LogLevel 当前日志级别
func LogLevel() slog.Level {
	return logLevel.Level()
}
