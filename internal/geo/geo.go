// 包 geo：把客户端 IP 解析为 ISO 3166-1 alpha-2 国家代码
// 背景：地理定位是欢迎语流水线的可选前置步骤；具体数据源（静态表/Azure Maps/MMDB/IP2Region）可替换，
// 上层只依赖 CountryLookup 能力，任何失败统一降级为 Default 哨兵值。
package geo

import (
	"context"
	"errors"
	"strings"
	"time"

	"welcome-api/internal/logger"
	"welcome-api/internal/metrics"
)

// Default：无法定位时返回的哨兵国家代码
const Default = "DEFAULT"

var (
	// ErrConfigMissing：数据源所需凭证或文件未配置
	ErrConfigMissing = errors.New("geo: configuration missing")
	// ErrNotFound：数据源可用但没有该 IP 的国家信息
	ErrNotFound = errors.New("geo: country not found")
	// ErrUnavailable：网络错误或上游非 2xx
	ErrUnavailable = errors.New("geo: upstream unavailable")
)

// CountryLookup：国家查询能力
// 约束：返回值可为任意大小写，由 Resolver 统一规范化；错误即视为未知
type CountryLookup interface {
	LookupCountry(ctx context.Context, ip string) (string, error)
}

// LookupFunc：函数适配器，便于测试与简单数据源
type LookupFunc func(ctx context.Context, ip string) (string, error)

func (f LookupFunc) LookupCountry(ctx context.Context, ip string) (string, error) {
	return f(ctx, ip)
}

// Resolver：地理解析器
// 背景：包装单个 CountryLookup，施加超时、规范化与指标；Resolve 永不返回错误
type Resolver struct {
	name    string
	lookup  CountryLookup
	timeout time.Duration
}

// NewResolver：构建解析器；timeout<=0 时使用 4s
func NewResolver(name string, lookup CountryLookup, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Resolver{name: name, lookup: lookup, timeout: timeout}
}

// Name：策略名称（用于日志与指标标签）
func (r *Resolver) Name() string { return r.name }

// Resolve：解析 IP 对应的国家代码
// 返回：两位大写国家代码；任何错误、空值或非两位字母结果返回 Default
func (r *Resolver) Resolve(ctx context.Context, ip string) string {
	if r == nil || r.lookup == nil {
		return Default
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	t0 := time.Now()
	metrics.GeoRequestsTotal.WithLabelValues(r.name).Inc()
	cc, err := r.lookup.LookupCountry(ctx, ip)
	metrics.GeoDurationMs.WithLabelValues(r.name).Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.GeoFailTotal.WithLabelValues(r.name).Inc()
		if errors.Is(err, ErrConfigMissing) {
			logger.L().Warn("geo_config_missing", "strategy", r.name, "err", err)
		} else {
			logger.L().Debug("geo_lookup_error", "strategy", r.name, "ip", ip, "err", err)
		}
		return Default
	}
	cc = NormalizeCountry(cc)
	if cc == "" {
		metrics.GeoFailTotal.WithLabelValues(r.name).Inc()
		logger.L().Debug("geo_lookup_empty", "strategy", r.name, "ip", ip)
		return Default
	}
	logger.L().Debug("geo_lookup_ok", "strategy", r.name, "ip", ip, "country", cc)
	return cc
}

// NormalizeCountry：去空白并转大写；非两位 ASCII 字母返回空串
func NormalizeCountry(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return ""
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return ""
		}
	}
	return s
}
