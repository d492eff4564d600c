// session_message.go — session_messages 表 CRUD (消息信封持久化)。
//
// 存原始信封 (JSONB) 加上规范化时算好的 role/display_text,
// 历史列表直接读列渲染,详情视图再对信封做完整规范化。
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionMessage 一条已持久化的会话消息。
type SessionMessage struct {
	ID          int64           `db:"id" json:"id"`
	SessionID   string          `db:"session_id" json:"sessionId"`
	PromptID    string          `db:"prompt_id" json:"promptId"`
	Role        string          `db:"role" json:"role"` // user | assistant | system | result
	DisplayText string          `db:"display_text" json:"displayText"`
	Envelope    json.RawMessage `db:"envelope" json:"envelope"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// SessionMessageStore session_messages 存储。
type SessionMessageStore struct{ BaseStore }

// NewSessionMessageStore 创建。
func NewSessionMessageStore(pool *pgxpool.Pool) *SessionMessageStore {
	return &SessionMessageStore{NewBaseStore(pool)}
}

const smCols = "id, session_id, prompt_id, role, display_text, envelope, created_at"

// Insert 写入单条消息,回填自增 ID。
func (s *SessionMessageStore) Insert(ctx context.Context, msg *SessionMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return s.pool.QueryRow(ctx,
		`INSERT INTO session_messages (session_id, prompt_id, role, display_text, envelope, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		msg.SessionID, msg.PromptID, msg.Role, msg.DisplayText, msg.Envelope, msg.CreatedAt,
	).Scan(&msg.ID)
}

// ListBySession 按会话查询消息 (升序, 游标分页)。
//
//	after=0 → 从头开始; after>0 → id > after
func (s *SessionMessageStore) ListBySession(ctx context.Context, sessionID string, limit int, after int64) ([]SessionMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	qb := NewQueryBuilder().Eq("session_id", sessionID).Gt("id", after)
	sql, params := qb.Build("SELECT "+smCols+" FROM session_messages", "id ASC", limit)
	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return collectRows[SessionMessage](rows)
}

// LatestByPrompt 取某个 prompt 最新的一条消息 (流结束后的对账读取)。
func (s *SessionMessageStore) LatestByPrompt(ctx context.Context, sessionID, promptID string) (*SessionMessage, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+smCols+" FROM session_messages WHERE session_id=$1 AND prompt_id=$2 ORDER BY id DESC LIMIT 1",
		sessionID, promptID)
	if err != nil {
		return nil, err
	}
	return collectOne[SessionMessage](rows)
}

// Search 按关键词/角色过滤某会话的消息。
func (s *SessionMessageStore) Search(ctx context.Context, sessionID, role, keyword string, limit int) ([]SessionMessage, error) {
	qb := NewQueryBuilder().
		Eq("session_id", sessionID).
		Eq("role", role).
		KeywordLike(keyword, "display_text")
	sql, params := qb.Build("SELECT "+smCols+" FROM session_messages", "id ASC", limit)
	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return collectRows[SessionMessage](rows)
}

// CountBySession 统计某会话的消息总数。
func (s *SessionMessageStore) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM session_messages WHERE session_id=$1", sessionID).Scan(&count)
	return count, err
}

// DistinctRoles 返回某会话出现过的角色 (筛选器下拉)。
func (s *SessionMessageStore) DistinctRoles(ctx context.Context) ([]string, error) {
	return DistinctValues(ctx, s.pool, "session_messages", "role")
}

// DeleteBySession 删除某会话的全部消息,返回删除行数。
func (s *SessionMessageStore) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM session_messages WHERE session_id=$1", sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
