package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yuqie6/SkillForge/internal/bootstrap"
	"github.com/yuqie6/SkillForge/internal/httpapi"
	"github.com/yuqie6/SkillForge/internal/pkg/buildinfo"
	"github.com/yuqie6/SkillForge/internal/pkg/config"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径")
	listen := flag.String("listen", "", "监听地址，覆盖 server.listen_addr")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := *cfgPath
	if path == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
				_ = config.WriteFile(p, config.Default())
			}
			path = p
		}
	}

	core, err := bootstrap.NewCore(ctx, bootstrap.Options{ConfigPath: path, Watch: true})
	if err != nil {
		slog.Error("启动失败", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	addr := core.Cfg.Server.ListenAddr
	if *listen != "" {
		addr = *listen
	}

	slog.Info("SkillForge 启动中...", "name", core.Cfg.App.Name, "version", buildinfo.String())
	srv, err := httpapi.Start(ctx, core, httpapi.Options{
		ListenAddr:        addr,
		ReadHeaderTimeout: time.Duration(core.Cfg.Server.ReadHeaderTimeoutSec) * time.Second,
	})
	if err != nil {
		slog.Error("启动 HTTP 服务失败", "addr", addr, "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("收到退出信号，正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP 服务关闭异常", "error", err)
	}
	slog.Info("SkillForge 已退出")
}
