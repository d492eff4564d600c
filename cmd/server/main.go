// cmd/server — 会话消息查看服务主入口。
//
// 启动: REST 历史查询 + WebSocket 实时预览, PostgreSQL 持久化。
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/session-view/go-session-view/internal/config"
	"github.com/session-view/go-session-view/internal/database"
	"github.com/session-view/go-session-view/internal/httpapi"
	"github.com/session-view/go-session-view/internal/store"
	"github.com/session-view/go-session-view/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if cfg.LogFileDir != "" {
		if err := logger.InitWithFile(cfg.LogFileDir); err != nil {
			logger.Warn("file logging unavailable", logger.FieldError, err)
		}
		defer logger.ShutdownFileHandler()
	}

	if cfg.PostgresConnStr == "" {
		logger.Fatal("POSTGRES_CONNECTION_STRING is required")
	}
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("postgres connect failed", logger.Any(logger.FieldError, err))
	}
	defer pool.Close()

	if cfg.LogToDB {
		logger.AttachDBHandler(pool)
		defer logger.ShutdownDBHandler()
	}

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migration failed", logger.Any(logger.FieldError, err))
	}

	messages := store.NewSessionMessageStore(pool)
	srv := httpapi.NewServer(cfg, pool, messages)

	logger.Infow("server starting", logger.FieldAddr, cfg.ListenAddr)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", logger.Any(logger.FieldError, err))
	}
	logger.Info("server stopped")
}
