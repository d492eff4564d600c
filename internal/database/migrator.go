// migrator.go — 内嵌 SQL 迁移脚本 (按版本号排序执行)。
//
// 使用 schema_version 表追踪已执行版本。
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/session-view/go-session-view/pkg/errors"
	"github.com/session-view/go-session-view/pkg/logger"
)

// migration 单个迁移脚本。
type migration struct {
	version string
	sql     string
}

// migrations 按版本号升序。新迁移只追加, 不修改已发布条目。
var migrations = []migration{
	{
		version: "001_session_messages",
		sql: `
			CREATE TABLE IF NOT EXISTS session_messages (
				id           BIGSERIAL PRIMARY KEY,
				session_id   TEXT NOT NULL,
				prompt_id    TEXT NOT NULL DEFAULT '',
				role         TEXT NOT NULL DEFAULT '',
				display_text TEXT NOT NULL DEFAULT '',
				envelope     JSONB NOT NULL,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_session_messages_session
				ON session_messages (session_id, id);
		`,
	},
	{
		version: "002_system_logs",
		sql: `
			CREATE TABLE IF NOT EXISTS system_logs (
				id          BIGSERIAL PRIMARY KEY,
				ts          TIMESTAMPTZ NOT NULL,
				level       TEXT NOT NULL DEFAULT '',
				logger      TEXT NOT NULL DEFAULT '',
				message     TEXT NOT NULL DEFAULT '',
				raw         TEXT NOT NULL DEFAULT '',
				source      TEXT NOT NULL DEFAULT '',
				component   TEXT NOT NULL DEFAULT '',
				session_id  TEXT NOT NULL DEFAULT '',
				prompt_id   TEXT NOT NULL DEFAULT '',
				trace_id    TEXT NOT NULL DEFAULT '',
				event_type  TEXT NOT NULL DEFAULT '',
				tool_name   TEXT NOT NULL DEFAULT '',
				duration_ms INT,
				extra       JSONB
			);
			CREATE INDEX IF NOT EXISTS idx_system_logs_ts ON system_logs (ts);
		`,
	},
}

// Migrate 执行未应用的内嵌迁移。
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return apperrors.New("Migrate", "pool is required")
	}

	// 确保 schema_version 表存在
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return apperrors.Wrap(err, "Migrate", "create schema_version table")
	}

	applied, err := loadAppliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return apperrors.Wrapf(err, "Migrate", "apply %s", m.version)
		}
		if _, err := pool.Exec(ctx,
			"INSERT INTO schema_version (version) VALUES ($1)", m.version); err != nil {
			return apperrors.Wrapf(err, "Migrate", "record %s", m.version)
		}
		logger.Infow("migration applied", logger.FieldVersion, m.version)
	}
	return nil
}

// loadAppliedVersions 读取已应用的版本集合。
func loadAppliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, apperrors.Wrap(err, "Migrate", "load applied versions")
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.Wrap(err, "Migrate", "scan version")
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
