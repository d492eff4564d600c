// helpers_test.go — QueryBuilder 表驱动测试。
package store

import (
	"strings"
	"testing"
)

func TestQueryBuilderEq(t *testing.T) {
	t.Run("skips_empty", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.Eq("role", "")
		if clause := qb.WhereClause(); clause != "" {
			t.Errorf("expected empty WHERE, got %q", clause)
		}
	})

	t.Run("adds_condition", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.Eq("role", "assistant")
		clause := qb.WhereClause()
		if !strings.Contains(clause, "role = $1") {
			t.Errorf("expected 'role = $1' in WHERE, got %q", clause)
		}
		params := qb.Params()
		if len(params) != 1 || params[0] != "assistant" {
			t.Errorf("expected params [assistant], got %v", params)
		}
	})

	t.Run("multiple_conditions", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.Eq("session_id", "s1").Eq("role", "user")
		clause := qb.WhereClause()
		if !strings.Contains(clause, "session_id = $1") || !strings.Contains(clause, "role = $2") {
			t.Errorf("expected both conditions, got %q", clause)
		}
	})
}

func TestQueryBuilderGt(t *testing.T) {
	t.Run("skips_zero", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.Gt("id", 0)
		if clause := qb.WhereClause(); clause != "" {
			t.Errorf("expected empty WHERE, got %q", clause)
		}
	})

	t.Run("adds_cursor", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.Eq("session_id", "s1").Gt("id", 42)
		clause := qb.WhereClause()
		if !strings.Contains(clause, "id > $2") {
			t.Errorf("expected 'id > $2', got %q", clause)
		}
		params := qb.Params()
		if len(params) != 2 || params[1] != int64(42) {
			t.Errorf("expected cursor param 42, got %v", params)
		}
	})
}

func TestQueryBuilderKeywordLike(t *testing.T) {
	t.Run("ESCAPE_clause", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.KeywordLike("test", "display_text")
		clause := qb.WhereClause()
		if !strings.Contains(clause, `ESCAPE E'\\'`) {
			t.Errorf("expected ESCAPE clause, got %q", clause)
		}
	})

	t.Run("escapes_percent", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.KeywordLike("100%", "display_text")
		params := qb.Params()
		if len(params) != 1 {
			t.Fatalf("expected 1 param, got %d", len(params))
		}
		p := params[0].(string)
		if !strings.Contains(p, `\%`) {
			t.Errorf("expected escaped %%, got %q", p)
		}
	})

	t.Run("multi_column_or", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.KeywordLike("ls", "display_text", "role")
		clause := qb.WhereClause()
		if !strings.Contains(clause, " OR ") {
			t.Errorf("expected OR between columns, got %q", clause)
		}
	})

	t.Run("skips_empty_keyword", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.KeywordLike("", "display_text")
		if clause := qb.WhereClause(); clause != "" {
			t.Errorf("expected empty WHERE, got %q", clause)
		}
	})
}

func TestQueryBuilderBuild(t *testing.T) {
	qb := NewQueryBuilder()
	qb.Eq("session_id", "s1")
	sql, params := qb.Build("SELECT * FROM session_messages", "id ASC", 50)
	if !strings.Contains(sql, "WHERE session_id = $1") {
		t.Errorf("missing WHERE, got %q", sql)
	}
	if !strings.Contains(sql, "ORDER BY id ASC") {
		t.Errorf("missing ORDER BY, got %q", sql)
	}
	if !strings.Contains(sql, "LIMIT $2") {
		t.Errorf("missing LIMIT placeholder, got %q", sql)
	}
	if len(params) != 2 || params[1] != 50 {
		t.Errorf("expected limit param 50, got %v", params)
	}
}

func TestQueryBuilderBuildClampsLimit(t *testing.T) {
	qb := NewQueryBuilder()
	_, params := qb.Build("SELECT 1", "", 999999)
	if params[len(params)-1] != 2000 {
		t.Errorf("expected limit clamped to 2000, got %v", params[len(params)-1])
	}
	qb = NewQueryBuilder()
	_, params = qb.Build("SELECT 1", "", 0)
	if params[len(params)-1] != 1 {
		t.Errorf("expected limit clamped to 1, got %v", params[len(params)-1])
	}
}
