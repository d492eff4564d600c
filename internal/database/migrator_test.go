package database

import (
	"context"
	"sort"
	"testing"
)

func TestMigrate_NilPool(t *testing.T) {
	if err := Migrate(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

// 迁移版本号必须唯一且升序, 否则 applied 追踪会乱。
func TestMigrationsOrderedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	versions := make([]string, 0, len(migrations))
	for _, m := range migrations {
		if seen[m.version] {
			t.Errorf("duplicate migration version %q", m.version)
		}
		seen[m.version] = true
		versions = append(versions, m.version)
		if m.sql == "" {
			t.Errorf("migration %q has empty sql", m.version)
		}
	}
	if !sort.StringsAreSorted(versions) {
		t.Errorf("migrations not in ascending version order: %v", versions)
	}
}
