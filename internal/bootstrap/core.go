package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yuqie6/SkillForge/internal/eventbus"
	"github.com/yuqie6/SkillForge/internal/leaderboard"
	"github.com/yuqie6/SkillForge/internal/pkg/buildinfo"
	"github.com/yuqie6/SkillForge/internal/pkg/config"
	"github.com/yuqie6/SkillForge/internal/repository"
	"github.com/yuqie6/SkillForge/internal/service"
)

// Options 构建核心依赖的参数
type Options struct {
	ConfigPath string
	// Watch 监听配置文件变化（仅服务端使用）
	Watch bool
	// Config 非空时跳过配置加载，直接使用
	Config *config.Config
}

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg     *config.Config
	Watcher *config.Watcher
	DB      *repository.Database
	Store   *repository.Store
	Hub     *eventbus.Hub
	Board   leaderboard.Board

	Services struct {
		Skills *service.SkillService
	}

	redis    *leaderboard.RedisBoard
	stopSync context.CancelFunc
	syncDone <-chan struct{}
}

// NewCore 构建核心依赖
func NewCore(ctx context.Context, opts Options) (*Core, error) {
	c := &Core{}

	switch {
	case opts.Config != nil:
		c.Cfg = opts.Config
		if err := c.Cfg.Validate(); err != nil {
			return nil, err
		}
	case opts.Watch:
		w, err := config.LoadAndWatch(opts.ConfigPath, nil)
		if err != nil {
			return nil, err
		}
		c.Watcher = w
		c.Cfg = w.Current()
	default:
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		c.Cfg = cfg
	}
	config.SetupLogger(c.Cfg.App.LogLevel)

	calc, err := newCalculator(c.Cfg.Progression)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDatabase(repository.Options{
		Driver: c.Cfg.Storage.Driver,
		Path:   config.ResolvePath(c.Cfg.Storage.DBPath),
		DSN:    c.Cfg.Storage.DSN,
	})
	if err != nil {
		return nil, err
	}
	c.DB = db
	c.Store = repository.NewStore(db.DB)
	c.Hub = eventbus.NewHub()
	c.Services.Skills = service.NewSkillService(service.NewProgressStore(c.Store), calc, c.Hub)

	if err := c.initLeaderboard(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	slog.Info("核心依赖已就绪",
		"storage", db.Driver,
		"schema_version", db.SchemaVersion,
		"xp_per_minute", c.Cfg.Progression.XPPerMinute,
		"leaderboard_redis", c.redis != nil,
	)
	return c, nil
}

func newCalculator(p config.ProgressionConfig) (*service.Calculator, error) {
	curve, err := service.NewPowerCurve(float64(p.Curve.Base), p.Curve.Exponent)
	if err != nil {
		return nil, fmt.Errorf("等级曲线配置非法: %w", err)
	}
	return service.NewCalculator(curve, service.DefaultExpPolicy{XPPerMinute: p.XPPerMinute}), nil
}

func (c *Core) initLeaderboard(ctx context.Context) error {
	lb := c.Cfg.Leaderboard
	if !lb.Enabled {
		c.Board = leaderboard.NewStoreBoard(c.Services.Skills)
		return nil
	}

	rb, err := leaderboard.NewRedisBoard(ctx, leaderboard.RedisOptions{
		Addr:     lb.RedisAddr,
		Password: lb.RedisPassword,
		DB:       lb.RedisDB,
		Key:      lb.Key,
	})
	if err != nil {
		return err
	}
	c.redis = rb
	c.Board = rb

	skills, err := c.Services.Skills.ListSkills(ctx)
	if err != nil {
		return err
	}
	if err := rb.Rebuild(ctx, skills); err != nil {
		return err
	}

	syncCtx, cancel := context.WithCancel(context.Background())
	c.stopSync = cancel
	c.syncDone = leaderboard.Sync(syncCtx, c.Hub, rb)
	return nil
}

// Version 构建版本，未注入时回退到配置
func (c *Core) Version() string {
	if buildinfo.Version != "" && buildinfo.Version != "dev" {
		return buildinfo.Version
	}
	return c.Cfg.App.Version
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.stopSync != nil {
		c.stopSync()
		<-c.syncDone
	}
	c.Hub.Close()
	if c.redis != nil {
		_ = c.redis.Close()
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	return dbErr
}
