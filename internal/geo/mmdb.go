package geo

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// MMDBLookup：MaxMind GeoLite2/GeoIP2 国家库查询（离线）
// 约束：读取器并发安全；Close 后查询返回 ErrUnavailable
type MMDBLookup struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

// OpenMMDB：打开 mmdb 文件
func OpenMMDB(path string) (*MMDBLookup, error) {
	if path == "" {
		return nil, ErrConfigMissing
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", path, err)
	}
	return &MMDBLookup{reader: r}, nil
}

func (m *MMDBLookup) LookupCountry(_ context.Context, ip string) (string, error) {
	p := net.ParseIP(ip)
	if p == nil {
		return "", ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reader == nil {
		return "", fmt.Errorf("%w: mmdb closed", ErrUnavailable)
	}
	rec, err := m.reader.Country(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if rec.Country.IsoCode == "" {
		return "", ErrNotFound
	}
	return rec.Country.IsoCode, nil
}

func (m *MMDBLookup) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reader == nil {
		return nil
	}
	err := m.reader.Close()
	m.reader = nil
	return err
}
