package migrate

import (
	"context"
	"database/sql"

	"welcome-api/internal/logger"
)

// 背景：首次运行自动创建欢迎语统计所需表
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _welcome_stats_total (
            id INT PRIMARY KEY,
            total_requests BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _welcome_stats_total(id, total_requests, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS _welcome_stats_daily (
            day DATE PRIMARY KEY,
            requests BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _welcome_stats_source (
            source TEXT PRIMARY KEY,
            requests BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _welcome_stats_language (
            language TEXT PRIMARY KEY,
            requests BIGINT NOT NULL DEFAULT 0,
            last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
