package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"collab_web/internal/api"
	"collab_web/internal/auth"
	"collab_web/internal/middleware"
	"collab_web/internal/models"
	"collab_web/internal/realtime"
	"collab_web/internal/repository"
	"collab_web/internal/service"
	"collab_web/internal/storage"
	"collab_web/pkg/config"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// 初始化資料庫連接
	db, err := storage.Open(cfg.DB, logger)
	if err != nil {
		return err
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}

	gate, err := auth.NewGate(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, gate, logger)

	// 白板與聊天室共用同一個註冊表
	registry := realtime.NewRegistry(logger)
	hub := realtime.NewHub(registry, realtime.NewRouter(registry, logger), realtime.Options{
		SendBuffer:      cfg.Realtime.SendBuffer,
		ReadLimit:       cfg.Realtime.ReadLimit,
		EventsPerSecond: cfg.Realtime.EventsPerSecond,
		Burst:           cfg.Realtime.Burst,
	}, logger)

	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))
	api.SetupRoutes(r, services, hub, cfg.Server.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		// websocket 連線已被 hijack，http.Server 不會等它們
		srvErr := srv.Shutdown(shutdownCtx)
		hubErr := hub.Shutdown(shutdownCtx)
		return errors.Join(srvErr, hubErr)
	})
	return g.Wait()
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
