// 包 store: 提供与 PostgreSQL 的数据访问层，记录欢迎语请求统计
package store

import (
	"context"
	"database/sql"
	"errors"

	"welcome-api/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供统计读写接口
// 约束：db 为 nil 时所有写入静默跳过、读取返回零值，便于未启用统计时直接注入
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Enabled：是否连接了数据库
func (s *Store) Enabled() bool { return s != nil && s.db != nil }

func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Close()
}

// Hit：一次欢迎语请求的统计维度
type Hit struct {
	Source     string
	Language   string
	NewVisitor bool
}

// IncrStats: 递增总计、当日、来源计数；新访客递增访客计数；语言非空且非哨兵值时递增语言计数
// 约束：单条语句失败不中断其余语句；返回全部失败语句的合并错误，由调用方决定是否影响响应
func (s *Store) IncrStats(ctx context.Context, h Hit) error {
	if !s.Enabled() {
		return nil
	}
	var errs []error
	exec := func(q string, args ...any) {
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			errs = append(errs, err)
		}
	}
	exec("UPDATE _welcome_stats_total SET total_requests=total_requests+1 WHERE id=1")
	exec("INSERT INTO _welcome_stats_daily(day, requests) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET requests=_welcome_stats_daily.requests+1")
	exec("INSERT INTO _welcome_stats_source(source, requests) VALUES($1, 1) ON CONFLICT (source) DO UPDATE SET requests=_welcome_stats_source.requests+1", h.Source)
	if h.NewVisitor {
		exec("UPDATE _welcome_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		exec("INSERT INTO _welcome_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_welcome_stats_daily.visitors+1")
	}
	if h.Language != "" && h.Language != "NULL" {
		exec(`INSERT INTO _welcome_stats_language(language, requests, last_seen) VALUES($1, 1, now())
            ON CONFLICT (language) DO UPDATE SET requests=_welcome_stats_language.requests+1, last_seen=now()`, h.Language)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.L().Debug("stats_incr", "source", h.Source, "language", h.Language, "new_visitor", h.NewVisitor)
	return nil
}

// Totals: 统计返回结构
type Totals struct {
	Total      int64            `json:"total"`
	Today      int64            `json:"today"`
	Visitors   int64            `json:"visitors"`
	BySource   map[string]int64 `json:"by_source"`
	ByLanguage map[string]int64 `json:"by_language"`
}

// GetTotals: 读取累计、当日、来源与语言分布
// 约束：总计行或当日行不存在时按 0 处理；其他查询错误直接返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	t := Totals{BySource: map[string]int64{}, ByLanguage: map[string]int64{}}
	if !s.Enabled() {
		return &t, nil
	}
	err := s.db.QueryRowContext(ctx, "SELECT total_requests, total_visitors FROM _welcome_stats_total WHERE id=1").Scan(&t.Total, &t.Visitors)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT requests FROM _welcome_stats_daily WHERE day=current_date").Scan(&t.Today)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err := s.scanCounts(ctx, "SELECT source, requests FROM _welcome_stats_source", t.BySource); err != nil {
		return nil, err
	}
	if err := s.scanCounts(ctx, "SELECT language, requests FROM _welcome_stats_language ORDER BY requests DESC LIMIT 50", t.ByLanguage); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

func (s *Store) scanCounts(ctx context.Context, q string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		into[k] = n
	}
	return rows.Err()
}
