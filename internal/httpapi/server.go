package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/SkillForge/internal/bootstrap"
)

type LocalServer struct {
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr        string // e.g. "127.0.0.1:5000"
	ReadHeaderTimeout time.Duration
}

// Start 在后台启动 HTTP 服务，ctx 结束时自动关闭
func Start(ctx context.Context, core *bootstrap.Core, opts Options) (*LocalServer, error) {
	if core == nil {
		return nil, fmt.Errorf("core 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           NewHandler(DepsFromCore(core)),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}

	ls := &LocalServer{
		ln:      ln,
		srv:     srv,
		baseURL: "http://" + ln.Addr().String(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ls.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("HTTP 服务已启动", "base_url", ls.baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// DepsFromCore 从核心依赖装配 HTTP 层所需组件
func DepsFromCore(core *bootstrap.Core) Deps {
	return Deps{
		Skills:      core.Services.Skills,
		Board:       core.Board,
		Hub:         core.Hub,
		Name:        core.Cfg.App.Name,
		Version:     core.Version(),
		Storage:     core.DB.Driver,
		CORSOrigins: core.Cfg.Server.CORSOrigins,
	}
}
