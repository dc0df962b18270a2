package middleware

import (
	"net/http"
	"sync"
	"time"

	"welcome-api/internal/metrics"
)

// 文档注释：令牌桶限流（每秒）
// 背景：欢迎接口未命中缓存时会触发生成调用，峰值流量直接打到上游会耗尽配额；入口限速保护上游。
// 约束：不排队，超限直接返回 429；按自然秒重置令牌。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

// NewTokenBucket：qps<=0 时取 200
func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 200
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：按令牌桶包装处理器；enabled 为 false 时原样返回
func RateLimit(next http.Handler, enabled bool, qps int) http.Handler {
	if !enabled {
		return next
	}
	tb := NewTokenBucket(qps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.Allow() {
			metrics.RateLimitedTotal.Inc()
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
