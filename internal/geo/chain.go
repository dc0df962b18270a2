package geo

import (
	"context"
	"errors"
)

// Chain：按优先级依次查询多个数据源，首个成功结果生效
// 背景：离线库覆盖面有限时再退回在线接口；nil 数据源跳过，便于按可用性选择性传入。
type Chain struct {
	list []CountryLookup
}

func NewChain(list ...CountryLookup) *Chain {
	return &Chain{list: list}
}

// LookupCountry：全部未命中时返回各数据源错误的合并
func (c *Chain) LookupCountry(ctx context.Context, ip string) (string, error) {
	var errs []error
	for _, s := range c.list {
		if s == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		cc, err := s.LookupCountry(ctx, ip)
		if err == nil && NormalizeCountry(cc) != "" {
			return cc, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", ErrNotFound
	}
	return "", errors.Join(errs...)
}
