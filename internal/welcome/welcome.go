// 包 welcome：把客户端 IP 解析为本地化欢迎语的编排层
// 背景：流程为 查缓存 → 未命中 → 可选地理定位 → 生成调用 → 解析 → 成功写缓存 / 失败回退；
// 任何错误都在本层消化为固定回退结果，HTTP 层永远拿到结构完整的响应。
package welcome

import (
	"context"
	"errors"
	"time"

	"welcome-api/internal/cache"
	"welcome-api/internal/geo"
	"welcome-api/internal/inference"
	"welcome-api/internal/logger"
	"welcome-api/internal/metrics"
	"welcome-api/internal/parser"
)

// 结果来源标记
const (
	SourceAI              = "ai"
	SourceCache           = "cache"
	SourceFallbackAPI     = "fallback-api-error"
	SourceFallbackOffline = "fallback-offline"
)

// Result：对外欢迎语结果
type Result struct {
	Message     string `json:"message"`
	Language    string `json:"language"`
	CountryCode string `json:"country_code"`
	IPUsed      string `json:"ip_used"`
	Source      string `json:"source"`
}

// Fallback：固定回退结果
// 约束：哨兵值 NULL/Failed 与缓存层保持一致，保证回退结果永不入缓存
func Fallback(ip, source string) Result {
	return Result{
		Message:     cache.SentinelFailed,
		Language:    cache.SentinelNull,
		CountryCode: cache.SentinelNull,
		IPUsed:      ip,
		Source:      source,
	}
}

// IsFallback：结果是否为回退
func (r Result) IsFallback() bool {
	return r.Source == SourceFallbackAPI || r.Source == SourceFallbackOffline
}

// Cache：编排层依赖的缓存能力
type Cache interface {
	Get(ctx context.Context, ip string) (parser.Locale, cache.Tier, bool)
	Put(ctx context.Context, ip string, l parser.Locale) bool
}

// CountryResolver：编排层依赖的地理解析能力；返回 geo.Default 表示未知
type CountryResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// Resolver：欢迎语编排器
// 约束：geo 可为 nil（由生成调用一步推断国家）；inference 不可为 nil
type Resolver struct {
	cache     Cache
	geo       CountryResolver
	inference inference.Client
	timeout   time.Duration
}

// Option：编排器可选项
type Option func(*Resolver)

// WithTimeout：整次解析（不含缓存命中）的上限；默认 20s，覆盖地理定位与生成调用各自超时
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New：构建编排器
func New(c Cache, g CountryResolver, inf inference.Client, opts ...Option) *Resolver {
	r := &Resolver{cache: c, geo: g, inference: inf, timeout: 20 * time.Second}
	for _, o := range opts {
		o(r)
	}
	return r
}

// 文档注释：解析欢迎语
// 步骤：
// 1) 以 IP 前缀查缓存，命中直接返回 source=cache；
// 2) 未命中时可选地理定位，得到真实国家则使用“已知国家”提示词，否则由模型根据 IP 一并推断；
// 3) 调用生成接口并解析输出；
// 4) 成功写缓存并返回 source=ai；缺凭证返回离线回退；其余失败返回 api-error 回退。
// 约束：不重试，不做失败缓存；同段地址在成功前每次都会重新走完整流程。
func (r *Resolver) Resolve(ctx context.Context, ip string) Result {
	t0 := time.Now()
	res := r.resolve(ctx, ip)
	metrics.WelcomeRequestsTotal.WithLabelValues(res.Source).Inc()
	metrics.WelcomeDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	return res
}

func (r *Resolver) resolve(ctx context.Context, ip string) Result {
	l := logger.L()
	if r.cache != nil {
		if loc, tier, ok := r.cache.Get(ctx, ip); ok {
			l.Debug("welcome_cache_hit", "ip", ip, "tier", tier)
			return result(ip, loc, SourceCache)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := inference.Query{IP: ip}
	if r.geo != nil {
		if cc := r.geo.Resolve(ctx, ip); cc != geo.Default && cc != "" {
			q.Country = cc
		}
	}

	raw, err := r.inference.Infer(ctx, q)
	if err != nil {
		if errors.Is(err, inference.ErrConfigMissing) {
			l.Warn("welcome_config_missing", "ip", ip, "err", err)
			metrics.FallbackTotal.WithLabelValues("config_missing").Inc()
			return Fallback(ip, SourceFallbackOffline)
		}
		l.Warn("welcome_upstream_unavailable", "ip", ip, "country", q.Country, "err", err)
		metrics.FallbackTotal.WithLabelValues("upstream_unavailable").Inc()
		return Fallback(ip, SourceFallbackAPI)
	}

	loc, err := parser.Parse(raw, !q.CountryKnown())
	if err != nil {
		metrics.ParseFailTotal.Inc()
		metrics.FallbackTotal.WithLabelValues("malformed_generation").Inc()
		l.Warn("welcome_malformed_generation", "ip", ip, "err", err, "raw", raw)
		return Fallback(ip, SourceFallbackAPI)
	}
	if q.CountryKnown() {
		loc.CountryCode = q.Country
	}

	if r.cache != nil && !r.cache.Put(ctx, ip, loc) {
		l.Debug("welcome_cache_skip", "ip", ip, "prefix", cache.Prefix(ip))
	}
	l.Info("welcome_resolved", "ip", ip, "country", loc.CountryCode, "language", loc.Language)
	return result(ip, loc, SourceAI)
}

func result(ip string, loc parser.Locale, source string) Result {
	return Result{
		Message:     loc.Message,
		Language:    loc.Language,
		CountryCode: loc.CountryCode,
		IPUsed:      ip,
		Source:      source,
	}
}
