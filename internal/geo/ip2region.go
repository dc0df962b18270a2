package geo

import (
	"context"
	"fmt"
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// 文档注释：IP2Region 国家名到 ISO 代码的映射
// 背景：xdb 区域串首段为中文国家名，欢迎语流水线需要 ISO 代码；仅覆盖常见国家，未知名称视为未命中。
var ip2regionCountries = map[string]string{
	"中国":   "CN",
	"美国":   "US",
	"英国":   "GB",
	"法国":   "FR",
	"德国":   "DE",
	"西班牙":  "ES",
	"意大利":  "IT",
	"日本":   "JP",
	"韩国":   "KR",
	"印度":   "IN",
	"马来西亚": "MY",
	"新加坡":  "SG",
	"俄罗斯":  "RU",
	"巴西":   "BR",
	"加拿大":  "CA",
	"澳大利亚": "AU",
	"荷兰":   "NL",
	"墨西哥":  "MX",
	"印度尼西亚": "ID",
	"泰国":   "TH",
	"越南":   "VN",
}

// IP2RegionLookup：基于 v4 XDB 本地库的国家查询
type IP2RegionLookup struct {
	searcher interface {
		SearchByStr(string) (string, error)
	}
}

// OpenIP2Region：按文件方式打开 v4 xdb
func OpenIP2Region(v4Path string) (*IP2RegionLookup, error) {
	if v4Path == "" {
		return nil, ErrConfigMissing
	}
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, fmt.Errorf("open ip2region %s: %w", v4Path, err)
	}
	return &IP2RegionLookup{searcher: s}, nil
}

func (p *IP2RegionLookup) LookupCountry(_ context.Context, ip string) (string, error) {
	if ip == "" {
		return "", ErrNotFound
	}
	region, err := p.searcher.SearchByStr(ip)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	cc := regionCountry(region)
	if cc == "" {
		return "", ErrNotFound
	}
	return cc, nil
}

// regionCountry：解析 "国家|区域|省份|城市|ISP" 串中的国家
// 约束：首段已是两位字母代码时直接使用；"0"/空/unknown 视为缺失
func regionCountry(s string) string {
	first, _, _ := strings.Cut(s, "|")
	first = strings.TrimSpace(first)
	if first == "" || first == "0" || strings.EqualFold(first, "unknown") {
		return ""
	}
	if cc := NormalizeCountry(first); cc != "" {
		return cc
	}
	return ip2regionCountries[first]
}
