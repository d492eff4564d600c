// config_test.go — 配置加载默认值 + 环境变量覆盖测试。
package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// 确保关键环境变量未设置
	os.Unsetenv("LISTEN_ADDR")
	os.Unsetenv("POSTGRES_SCHEMA")
	os.Unsetenv("HISTORY_PAGE_LIMIT")
	os.Unsetenv("PROJECT_ROOT")

	cfg := Load()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ListenAddr", cfg.ListenAddr, ":8080"},
		{"PostgresSchema", cfg.PostgresSchema, "public"},
		{"PostgresPoolMinSize", cfg.PostgresPoolMinSize, 1},
		{"PostgresPoolMaxSize", cfg.PostgresPoolMaxSize, 10},
		{"PostgresPoolTimeoutSec", cfg.PostgresPoolTimeoutSec, 10},
		{"HistoryPageLimit", cfg.HistoryPageLimit, 100},
		{"ProjectRoot", cfg.ProjectRoot, ""},
		{"LogLevel", cfg.LogLevel, "INFO"},
		{"LogToDB", cfg.LogToDB, true},
		{"Environment", cfg.Environment, "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("PROJECT_ROOT", "/workspace/project")
	t.Setenv("HISTORY_PAGE_LIMIT", "250")
	t.Setenv("LOG_TO_DB", "off")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.ProjectRoot != "/workspace/project" {
		t.Errorf("ProjectRoot = %q, want /workspace/project", cfg.ProjectRoot)
	}
	if cfg.HistoryPageLimit != 250 {
		t.Errorf("HistoryPageLimit = %d, want 250", cfg.HistoryPageLimit)
	}
	if cfg.LogToDB {
		t.Error("LogToDB = true, want false")
	}
}

func TestLoadMinClamp(t *testing.T) {
	t.Setenv("POSTGRES_POOL_MIN_SIZE", "0")
	t.Setenv("HISTORY_PAGE_LIMIT", "-5")

	cfg := Load()

	if cfg.PostgresPoolMinSize != 1 {
		t.Errorf("PostgresPoolMinSize = %d, want 1 (min clamp)", cfg.PostgresPoolMinSize)
	}
	if cfg.HistoryPageLimit != 1 {
		t.Errorf("HistoryPageLimit = %d, want 1 (min clamp)", cfg.HistoryPageLimit)
	}
}
