package config

import (
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher 持有最近一次成功加载的配置
type Watcher struct {
	mu  sync.RWMutex
	cfg *Config
}

// Current 当前配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// LoadAndWatch 加载配置并监听文件变化。
// 仅 app.log_level 支持热更新；其余字段变化需重启生效。
func LoadAndWatch(configPath string, onChange func(*Config)) (*Watcher, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	w := &Watcher{cfg: cfg}
	used := v.ConfigFileUsed()
	if used == "" {
		return w, nil
	}
	if _, err := os.Stat(used); err != nil {
		return w, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			slog.Warn("配置热更新失败，保留旧配置", "path", e.Name, "error", err)
			return
		}
		w.mu.Lock()
		prev := w.cfg
		w.cfg = next
		w.mu.Unlock()

		if prev.App.LogLevel != next.App.LogLevel {
			SetLogLevel(next.App.LogLevel)
			slog.Info("日志级别已更新", "level", next.App.LogLevel)
		}
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()
	return w, nil
}
