// Package httpapi 提供会话消息查询与流式预览推送的 HTTP/WebSocket 服务。
//
// 架构:
//
//	REST:       历史消息查询 (信封 → 规范化 → 展示文本)
//	/ws 查看端: 订阅某会话的实时广播
//	/ws 写入端: 接收信封与流式事件, 入库并驱动装配器
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/session-view/go-session-view/internal/config"
	"github.com/session-view/go-session-view/internal/store"
	"github.com/session-view/go-session-view/internal/stream"
	"github.com/session-view/go-session-view/pkg/logger"
)

// Server 会话查看服务。
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	pool     *pgxpool.Pool
	messages *store.SessionMessageStore
	streams  *stream.Manager
	hub      *Hub
}

// NewServer 创建服务并注册路由。
func NewServer(cfg *config.Config, pool *pgxpool.Pool, messages *store.SessionMessageStore) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		router:   gin.Default(),
		cfg:      cfg,
		pool:     pool,
		messages: messages,
		streams:  stream.NewManager(),
		hub:      NewHub(),
	}
	s.registerRoutes()
	return s
}

// Engine 返回 Gin 引擎 (测试用)。
func (s *Server) Engine() *gin.Engine { return s.router }

// Streams 返回流式装配管理器 (监控/测试用)。
func (s *Server) Streams() *stream.Manager { return s.streams }

// requestLogger 把带请求字段的日志器注入 request context,
// handler 内部经 logger.FromContext 取用 (见 serverError)。
func requestLogger(c *gin.Context) {
	l := logger.With(
		logger.FieldMethod, c.Request.Method,
		logger.FieldPath, c.Request.URL.Path,
	)
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))
	c.Next()
}

func (s *Server) registerRoutes() {
	s.router.Use(requestLogger)
	s.router.GET("/healthz", s.healthz)

	api := s.router.Group("/api")
	api.GET("/sessions/:id/messages", s.listMessages)
	api.GET("/sessions/:id/messages/search", s.searchMessages)
	api.GET("/sessions/:id/messages/count", s.countMessages)
	api.DELETE("/sessions/:id/messages", s.deleteMessages)
	api.GET("/roles", s.listRoles)

	s.router.GET("/ws/sessions/:id", s.viewerHandler)
	s.router.GET("/ws/sessions/:id/ingest", s.ingestHandler)
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "active_streams": s.streams.ActiveCount()})
}

// Run 启动 HTTP 服务, ctx 取消时优雅关停。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("httpapi: listening", logger.FieldAddr, s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.CloseAll()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
