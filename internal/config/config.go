// Package config 全局配置加载与管理。
//
// 所有字段通过 struct tag 声明环境变量映射:
//
//	`env:"VAR_NAME" default:"value" min:"0"`
//
// Load() 使用反射自动填充，无需手动逐行赋值。
package config

import (
	"github.com/session-view/go-session-view/pkg/util"
)

// Config 应用全局配置，字段名与 .env 变量一一对应。
type Config struct {
	// HTTP
	ListenAddr string `env:"LISTEN_ADDR" default:":8080"`

	// PostgreSQL
	PostgresConnStr        string `env:"POSTGRES_CONNECTION_STRING"`
	PostgresSchema         string `env:"POSTGRES_SCHEMA" default:"public"`
	PostgresPoolMinSize    int    `env:"POSTGRES_POOL_MIN_SIZE" default:"1" min:"1"`
	PostgresPoolMaxSize    int    `env:"POSTGRES_POOL_MAX_SIZE" default:"10" min:"1"`
	PostgresPoolTimeoutSec int    `env:"POSTGRES_POOL_TIMEOUT_SEC" default:"10" min:"1"`

	// 消息归一化
	ProjectRoot string `env:"PROJECT_ROOT"`

	// 历史查询
	HistoryPageLimit int `env:"HISTORY_PAGE_LIMIT" default:"100" min:"1"`

	// 日志
	LogLevel    string `env:"LOG_LEVEL" default:"INFO"`
	LogToDB     bool   `env:"LOG_TO_DB" default:"true"`
	LogFileDir  string `env:"LOG_FILE_DIR"`
	Environment string `env:"APP_ENV" default:"production"`
}

// Load 从环境变量加载配置 (通过反射读取 struct tag)。
func Load() *Config {
	var cfg Config
	util.LoadFromEnv(&cfg)
	return &cfg
}
