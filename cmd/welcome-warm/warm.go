package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"welcome-api/internal/cache"
	"welcome-api/internal/welcome"
)

type resolver interface {
	Resolve(ctx context.Context, ip string) welcome.Result
}

// warmStats：一次预热的统计
type warmStats struct {
	Resolved  int
	Fallbacks int
}

// warm：逐行读取 IP，按缓存前缀去重后解析并把结果写为 JSON 行
// 约束：空行与 # 注释跳过；无法取得前缀的输入（畸形地址、IPv6）不参与去重，每条都会解析并输出
func warm(ctx context.Context, in io.Reader, res resolver, out io.Writer) (warmStats, error) {
	var st warmStats
	enc := json.NewEncoder(out)
	seen := map[string]bool{}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		ip := strings.TrimSpace(sc.Text())
		if ip == "" || strings.HasPrefix(ip, "#") {
			continue
		}
		if k := cache.Prefix(ip); k != "" {
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		r := res.Resolve(ctx, ip)
		st.Resolved++
		if r.IsFallback() {
			st.Fallbacks++
		}
		if err := enc.Encode(r); err != nil {
			return st, err
		}
	}
	return st, sc.Err()
}
