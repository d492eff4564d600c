// history.go — 历史消息 REST handlers (信封 → 规范化 → 展示文本)。
package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/session-view/go-session-view/internal/normalize"
	"github.com/session-view/go-session-view/internal/store"
	"github.com/session-view/go-session-view/pkg/util"
)

// messageItem 列表响应中的单条消息。
type messageItem struct {
	ID          int64  `json:"id"`
	PromptID    string `json:"promptId,omitempty"`
	Role        string `json:"role"`
	Kind        string `json:"kind"`
	DisplayText string `json:"displayText"`
	CreatedAt   string `json:"createdAt"`
}

// toItem 对信封重新规范化后渲染。规范化失败的消息仍然占位,
// 展示固定的失败标签。
func (s *Server) toItem(row store.SessionMessage) messageItem {
	msg := normalize.NormalizeRaw(row.Envelope, s.cfg.ProjectRoot)
	return messageItem{
		ID:          row.ID,
		PromptID:    row.PromptID,
		Role:        roleOf(msg, row.Role),
		Kind:        kindOf(msg),
		DisplayText: normalize.DisplayText(msg),
		CreatedAt:   row.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// roleOf 规范化结果的角色优先于入库值 (tool_result 角色重映射在此生效)。
func roleOf(msg normalize.Message, stored string) string {
	switch m := msg.(type) {
	case *normalize.PlainText:
		return m.Role
	case *normalize.ToolInvocation:
		return "assistant"
	case *normalize.ToolResult:
		return m.Role
	case *normalize.SystemNotice:
		return "system"
	case *normalize.ResultNotice:
		return "result"
	default:
		// 规范化失败时回退到存储的角色,角色也为空则统一标记 unknown
		return util.FirstNonEmpty(stored, "unknown")
	}
}

func kindOf(msg normalize.Message) string {
	switch m := msg.(type) {
	case *normalize.PlainText:
		return "text"
	case *normalize.ToolInvocation:
		return "tool_use:" + string(m.Kind)
	case *normalize.ToolResult:
		return "tool_result"
	case *normalize.SystemNotice:
		return "system"
	case *normalize.ResultNotice:
		return "result"
	default:
		return "unknown"
	}
}

// queryLimit 从 query 读分页参数。
func queryLimit(c *gin.Context, def int) int {
	v, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if v < 1 {
		return def
	}
	if v > 500 {
		return 500
	}
	return v
}

func (s *Server) listMessages(c *gin.Context) {
	sessionID := c.Param("id")
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		badRequest(c, "invalid_cursor", "after must be a non-negative integer")
		return
	}
	rows, err := s.messages.ListBySession(c.Request.Context(), sessionID,
		queryLimit(c, s.cfg.HistoryPageLimit), after)
	if err != nil {
		serverError(c, err)
		return
	}
	items := make([]messageItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toItem(row))
	}
	success(c, gin.H{"messages": items})
}

func (s *Server) searchMessages(c *gin.Context) {
	sessionID := c.Param("id")
	rows, err := s.messages.Search(c.Request.Context(), sessionID,
		c.Query("role"), c.Query("keyword"), queryLimit(c, s.cfg.HistoryPageLimit))
	if err != nil {
		serverError(c, err)
		return
	}
	items := make([]messageItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toItem(row))
	}
	success(c, gin.H{"messages": items})
}

func (s *Server) countMessages(c *gin.Context) {
	count, err := s.messages.CountBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"count": count})
}

func (s *Server) deleteMessages(c *gin.Context) {
	deleted, err := s.messages.DeleteBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"deleted": deleted})
}

func (s *Server) listRoles(c *gin.Context) {
	roles, err := s.messages.DistinctRoles(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	success(c, gin.H{"roles": roles})
}
