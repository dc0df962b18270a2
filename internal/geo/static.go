package geo

import (
	"context"
	"sort"
	"strings"
)

// 文档注释：静态前缀表（离线）
// 背景：演示环境无外部依赖时使用；按 IP 文本前缀匹配国家，最长前缀优先，避免 "1." 类短前缀抢占。
// 约束：仅为演示用途的粗粒度映射，不代表真实分配。
var DefaultPrefixTable = map[string]string{
	"192.": "US",
	"172.": "GB",
	"10.":  "FR",
	"8.":   "DE",
	"14.":  "CN",
	"16.":  "JP",
	"20.":  "IN",
	"25.":  "MY",
}

// StaticLookup：基于前缀表的国家查询
type StaticLookup struct {
	prefixes []string
	table    map[string]string
}

// NewStaticLookup：构建静态查询；table 为空时使用 DefaultPrefixTable
func NewStaticLookup(table map[string]string) *StaticLookup {
	if len(table) == 0 {
		table = DefaultPrefixTable
	}
	s := &StaticLookup{table: make(map[string]string, len(table))}
	for p, cc := range table {
		s.table[p] = cc
		s.prefixes = append(s.prefixes, p)
	}
	sort.Slice(s.prefixes, func(i, j int) bool {
		if len(s.prefixes[i]) != len(s.prefixes[j]) {
			return len(s.prefixes[i]) > len(s.prefixes[j])
		}
		return s.prefixes[i] < s.prefixes[j]
	})
	return s
}

func (s *StaticLookup) LookupCountry(_ context.Context, ip string) (string, error) {
	ip = strings.TrimSpace(ip)
	for _, p := range s.prefixes {
		if strings.HasPrefix(ip, p) {
			return s.table[p], nil
		}
	}
	return "", ErrNotFound
}
