// live.go — WebSocket 实时层:查看端订阅广播, 写入端驱动装配器。
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/session-view/go-session-view/internal/normalize"
	"github.com/session-view/go-session-view/internal/store"
	"github.com/session-view/go-session-view/internal/stream"
	"github.com/session-view/go-session-view/pkg/logger"
	"github.com/session-view/go-session-view/pkg/util"
)

const (
	maxMessageSize = 4 << 20 // 4MB 消息大小限制
	connOutboxSize = 256     // 单连接发送缓冲
)

// ========================================
// connEntry — 连接 + 写锁
// ========================================

// connEntry WebSocket 连接 + 写锁 (gorilla/websocket 不安全并发写)。
type connEntry struct {
	ws        *websocket.Conn
	wrMu      sync.Mutex // 序列化所有写操作
	outbox    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newConnEntry(ws *websocket.Conn) *connEntry {
	return &connEntry{
		ws:      ws,
		outbox:  make(chan []byte, connOutboxSize),
		closeCh: make(chan struct{}),
	}
}

// writeMsg 线程安全地写入 WebSocket 消息。
func (c *connEntry) writeMsg(data []byte) error {
	c.wrMu.Lock()
	defer c.wrMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// enqueue 非阻塞投递;连接已关闭或缓冲满时丢弃。
func (c *connEntry) enqueue(data []byte) bool {
	select {
	case <-c.closeCh:
		return false
	default:
	}
	select {
	case c.outbox <- data:
		return true
	default:
		return false
	}
}

func (c *connEntry) closeNow() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

func (c *connEntry) writeLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case msg := <-c.outbox:
			if err := c.writeMsg(msg); err != nil {
				c.closeNow()
				return
			}
		}
	}
}

// ========================================
// Hub — 按会话分组的查看端连接
// ========================================

// Hub 管理查看端连接, 按 sessionID 分房间广播。
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connEntry]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*connEntry]struct{})}
}

func (h *Hub) add(sessionID string, conn *connEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[sessionID]
	if room == nil {
		room = make(map[*connEntry]struct{})
		h.rooms[sessionID] = room
	}
	room[conn] = struct{}{}
}

func (h *Hub) remove(sessionID string, conn *connEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[sessionID]; room != nil {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
}

// Broadcast 向某会话的所有查看端投递。慢消费者丢帧, 不阻塞广播。
func (h *Hub) Broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.rooms[sessionID] {
		if !conn.enqueue(data) {
			logger.Debug("httpapi: viewer outbox full, frame dropped",
				logger.FieldSessionID, sessionID)
		}
	}
}

// CloseAll 关停时断开全部连接。
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for conn := range room {
			conn.closeNow()
		}
	}
	h.rooms = make(map[string]map[*connEntry]struct{})
}

// ========================================
// 升级与来源检查
// ========================================

// checkLocalOrigin 仅允许 localhost 来源的 WebSocket 连接。
//
// 接受: 无 Origin header (非浏览器客户端), localhost, 127.0.0.1, [::1]。
func checkLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origin = strings.ToLower(origin)
	for _, allowed := range []string{
		"http://localhost", "https://localhost",
		"http://127.0.0.1", "https://127.0.0.1",
		"http://[::1]", "https://[::1]",
	} {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	logger.Warn("httpapi: rejected non-local origin", logger.FieldOrigin, origin)
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkLocalOrigin,
}

// ========================================
// 查看端
// ========================================

// viewerHandler 查看端连接:只收广播, 读循环仅用于感知断开。
func (s *Server) viewerHandler(c *gin.Context) {
	sessionID := c.Param("id")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("httpapi: viewer upgrade failed", logger.FieldError, err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	conn := newConnEntry(ws)
	s.hub.add(sessionID, conn)
	logger.Info("httpapi: viewer connected", logger.FieldSessionID, sessionID)

	util.SafeGo(conn.writeLoop)

	defer func() {
		s.hub.remove(sessionID, conn)
		conn.closeNow()
		logger.Info("httpapi: viewer disconnected", logger.FieldSessionID, sessionID)
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// ========================================
// 写入端
// ========================================

// ingestFrame 写入端单帧:完整信封或流式事件。
type ingestFrame struct {
	Type     string          `json:"type"` // envelope | event
	PromptID string          `json:"prompt_id"`
	Envelope json.RawMessage `json:"envelope,omitempty"`
	Event    json.RawMessage `json:"event,omitempty"`
}

// ingestHandler 写入端连接:生产者推送信封与流式事件。
//
// envelope 帧入库并广播;event 帧驱动装配器广播预览;
// complete 事件触发与存储的对账, 以入库的规范化消息为准。
func (s *Server) ingestHandler(c *gin.Context) {
	sessionID := c.Param("id")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("httpapi: ingest upgrade failed", logger.FieldError, err)
		return
	}
	ws.SetReadLimit(maxMessageSize)
	defer ws.Close()
	logger.Info("httpapi: producer connected", logger.FieldSessionID, sessionID)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			logger.Info("httpapi: producer disconnected",
				logger.FieldSessionID, sessionID, logger.FieldError, err)
			return
		}
		var frame ingestFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warn("httpapi: unparseable ingest frame",
				logger.FieldSessionID, sessionID, logger.FieldError, err)
			continue
		}
		switch frame.Type {
		case "envelope":
			s.handleEnvelope(c, sessionID, frame)
		case "event":
			s.handleStreamEvent(c, sessionID, frame)
		default:
			logger.Warn("httpapi: unknown ingest frame type",
				logger.FieldSessionID, sessionID, "frame_type", frame.Type)
		}
	}
}

// handleEnvelope 规范化并入库一条信封, 广播给查看端。
// 规范化失败的信封同样入库 (保留原始记录), 展示失败标签。
func (s *Server) handleEnvelope(c *gin.Context, sessionID string, frame ingestFrame) {
	msg := normalize.NormalizeRaw(frame.Envelope, s.cfg.ProjectRoot)
	row := &store.SessionMessage{
		SessionID:   sessionID,
		PromptID:    frame.PromptID,
		Role:        roleOf(msg, ""),
		DisplayText: normalize.DisplayText(msg),
		Envelope:    frame.Envelope,
	}
	if err := s.messages.Insert(c.Request.Context(), row); err != nil {
		logger.Error("httpapi: envelope insert failed",
			logger.FieldSessionID, sessionID, logger.FieldError, err)
		return
	}
	s.broadcastJSON(sessionID, gin.H{
		"type":    "message",
		"message": s.toItem(*row),
	})
}

// handleStreamEvent 应用一条流式事件并广播最新快照。
func (s *Server) handleStreamEvent(c *gin.Context, sessionID string, frame ingestFrame) {
	ev, ok := stream.DecodeEvent(frame.Event)
	if !ok {
		logger.Debug("httpapi: ignored unknown stream event",
			logger.FieldSessionID, sessionID, logger.FieldPromptID, frame.PromptID)
		return
	}

	if ev.Type == stream.EventComplete {
		s.reconcile(c, sessionID, frame.PromptID)
		return
	}

	s.streams.Apply(frame.PromptID, ev)
	snap, ok := s.streams.Snapshot(frame.PromptID)
	if !ok {
		return
	}
	s.broadcastJSON(sessionID, gin.H{
		"type":        "stream",
		"prompt_id":   frame.PromptID,
		"text":        snap.Text,
		"thinking":    snap.Thinking,
		"citations":   snap.Citations,
		"isStreaming": snap.IsStreaming,
	})
}

// reconcile 流结束后的对账:装配器的预览只是尽力而为,
// 以存储中最新入库的规范化消息为准广播终版。
func (s *Server) reconcile(c *gin.Context, sessionID, promptID string) {
	defer s.streams.Drop(promptID)

	row, err := s.messages.LatestByPrompt(c.Request.Context(), sessionID, promptID)
	if err != nil {
		logger.Error("httpapi: reconcile fetch failed",
			logger.FieldSessionID, sessionID, logger.FieldPromptID, promptID,
			logger.FieldError, err)
		return
	}
	payload := gin.H{"type": "complete", "prompt_id": promptID}
	if row != nil {
		payload["message"] = s.toItem(*row)
	}
	s.broadcastJSON(sessionID, payload)
}

func (s *Server) broadcastJSON(sessionID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("httpapi: broadcast marshal failed", logger.FieldError, err)
		return
	}
	s.hub.Broadcast(sessionID, data)
}
