package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"welcome-api/internal/logger"
	"welcome-api/internal/metrics"
	"welcome-api/internal/parser"
)

// Tier：缓存命中层级
type Tier string

const (
	TierNone  Tier = ""
	TierLocal Tier = "local"
	TierRedis Tier = "redis"
)

// Tiered：进程内缓存 + 可选 Redis 共享层
// 背景：多副本部署时各进程本地缓存互不可见，Redis 层让同段地址在整个集群只触发一次生成调用。
// 约束：rc 为 nil 时退化为纯本地缓存；Redis 任何错误按未命中处理，不阻断主流程。
type Tiered struct {
	local *PrefixCache
	rc    *redis.Client
	ttl   time.Duration
}

// NewTiered：构建分层缓存；ttl<=0 时 Redis 条目存活 24h
func NewTiered(local *PrefixCache, rc *redis.Client, ttl time.Duration) *Tiered {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tiered{local: local, rc: rc, ttl: ttl}
}

func redisKey(prefix string) string { return "welcome:" + prefix }

// Get：先查本地，再查 Redis；Redis 命中回填本地
func (t *Tiered) Get(ctx context.Context, ip string) (parser.Locale, Tier, bool) {
	k := Prefix(ip)
	if k == "" {
		metrics.CacheBypassTotal.Inc()
		return parser.Locale{}, TierNone, false
	}
	if l, ok := t.local.Get(ip); ok {
		metrics.CacheHitsTotal.WithLabelValues(string(TierLocal)).Inc()
		return l, TierLocal, true
	}
	if t.rc != nil {
		s, err := t.rc.Get(ctx, redisKey(k)).Result()
		if err != nil && err != redis.Nil {
			logger.L().Debug("cache_redis_get_error", "prefix", k, "err", err)
		}
		if s != "" {
			var l parser.Locale
			if err := json.Unmarshal([]byte(s), &l); err == nil && Cacheable(l) {
				t.local.Put(ip, l)
				metrics.CacheHitsTotal.WithLabelValues(string(TierRedis)).Inc()
				return l, TierRedis, true
			}
			logger.L().Debug("cache_redis_bad_entry", "prefix", k)
		}
	}
	metrics.CacheMissesTotal.Inc()
	return parser.Locale{}, TierNone, false
}

// Put：写入本地与 Redis；本地拒绝写入（空前缀/哨兵值）时不写 Redis
func (t *Tiered) Put(ctx context.Context, ip string, l parser.Locale) bool {
	if !t.local.Put(ip, l) {
		return false
	}
	if t.rc != nil {
		b, _ := json.Marshal(l)
		if err := t.rc.Set(ctx, redisKey(Prefix(ip)), string(b), t.ttl).Err(); err != nil {
			logger.L().Debug("cache_redis_set_error", "prefix", Prefix(ip), "err", err)
		}
	}
	return true
}

// Local：返回进程内缓存（统计与测试用）
func (t *Tiered) Local() *PrefixCache { return t.local }
