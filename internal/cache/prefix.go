// 包 cache：按 IP 前缀缓存已解析的欢迎语结果，保护昂贵且限流的生成式接口
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"welcome-api/internal/parser"
)

// 文档注释：哨兵值
// 背景：失败结果以固定占位值表示，不允许写入缓存，避免把一次上游故障固化为后续所有同段请求的结果。
const (
	SentinelNull   = "NULL"
	SentinelFailed = "Failed"
)

// Prefix：取 IPv4 点分文本的前三段作为缓存键
// 约束：段数不为 4 时返回空串，空键永不命中也永不写入（绕过缓存而不是污染缓存）
func Prefix(ip string) string {
	parts := strings.Split(strings.TrimSpace(ip), ".")
	if len(parts) != 4 {
		return ""
	}
	return parts[0] + "." + parts[1] + "." + parts[2]
}

// Cacheable：结果三字段均非空且不含哨兵值时才可缓存
func Cacheable(l parser.Locale) bool {
	for _, v := range []string{l.CountryCode, l.Language, l.Message} {
		if v == "" || v == SentinelNull || v == SentinelFailed {
			return false
		}
	}
	return true
}

// PrefixCache：进程内前缀缓存
// 背景：有界 LRU，可选 TTL；单把互斥锁同时保护读写路径，操作均为 O(1) 不涉及网络调用。
// 约束：size<=0 时取 4096；ttl<=0 表示条目存活至进程结束（仅受容量淘汰）。
type PrefixCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, parser.Locale]
}

func NewPrefixCache(size int, ttl time.Duration) *PrefixCache {
	if size <= 0 {
		size = 4096
	}
	return &PrefixCache{lru: expirable.NewLRU[string, parser.Locale](size, nil, ttl)}
}

// Get：按 IP 前缀读取
func (c *PrefixCache) Get(ip string) (parser.Locale, bool) {
	k := Prefix(ip)
	if k == "" {
		return parser.Locale{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(k)
}

// Put：写入结果；空前缀或不可缓存结果直接忽略
// 返回：是否实际写入
func (c *PrefixCache) Put(ip string, l parser.Locale) bool {
	k := Prefix(ip)
	if k == "" || !Cacheable(l) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(k, l)
	return true
}

func (c *PrefixCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *PrefixCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
