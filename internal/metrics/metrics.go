package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WelcomeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_requests_total",
		Help: "Total number of welcome resolutions by result source",
	}, []string{"source"})
	WelcomeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "welcome_duration_ms",
		Help:    "Welcome resolution duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 15000},
	})
	FallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_fallback_total",
		Help: "Total fallback responses by reason",
	}, []string{"reason"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_cache_hits_total",
		Help: "Prefix cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_cache_misses_total",
		Help: "Prefix cache misses",
	})
	CacheBypassTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_cache_bypass_total",
		Help: "Lookups that skipped the cache because no prefix could be derived",
	})
	GeoRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_geo_requests_total",
		Help: "Geolocation lookups by strategy",
	}, []string{"strategy"})
	GeoFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_geo_fail_total",
		Help: "Geolocation lookups that degraded to DEFAULT",
	}, []string{"strategy"})
	GeoDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "welcome_geo_duration_ms",
		Help:    "Geolocation lookup duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"strategy"})
	InferenceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_inference_requests_total",
		Help: "Inference calls by strategy",
	}, []string{"strategy"})
	InferenceFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "welcome_inference_fail_total",
		Help: "Inference failures by strategy and reason",
	}, []string{"strategy", "reason"})
	InferenceDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "welcome_inference_duration_ms",
		Help:    "Inference call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 18000},
	}, []string{"strategy"})
	ParseFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_parse_fail_total",
		Help: "Generated texts that could not be parsed into a locale",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "welcome_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
)

func init() {
	prometheus.MustRegister(WelcomeRequestsTotal)
	prometheus.MustRegister(WelcomeDurationMs)
	prometheus.MustRegister(FallbackTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CacheBypassTotal)
	prometheus.MustRegister(GeoRequestsTotal)
	prometheus.MustRegister(GeoFailTotal)
	prometheus.MustRegister(GeoDurationMs)
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceFailTotal)
	prometheus.MustRegister(InferenceDurationMs)
	prometheus.MustRegister(ParseFailTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
