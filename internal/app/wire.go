// 包 app：按配置组装欢迎语流水线（地理策略 + 推理策略 + 缓存），供服务入口与命令行工具共用
package app

import (
	"fmt"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"

	"welcome-api/internal/cache"
	"welcome-api/internal/config"
	"welcome-api/internal/geo"
	"welcome-api/internal/inference"
	"welcome-api/internal/logger"
	"welcome-api/internal/welcome"
)

// Pipeline：组装结果
type Pipeline struct {
	Resolver *welcome.Resolver
	Cache    *cache.Tiered
	closers  []io.Closer
}

// Close：释放离线库文件句柄
func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build：按配置构建流水线
// 约束：rc 可为 nil；离线库打开失败时记录错误并跳过该数据源，不阻断启动；未知策略返回错误
func Build(cfg config.Config, rc *redis.Client) (*Pipeline, error) {
	p := &Pipeline{}
	g, err := p.buildGeo(cfg)
	if err != nil {
		return nil, err
	}
	inf, err := buildInference(cfg)
	if err != nil {
		return nil, err
	}
	var redisTier *redis.Client
	if cfg.RedisEnabled {
		redisTier = rc
	}
	p.Cache = cache.NewTiered(cache.NewPrefixCache(cfg.CacheSize, cfg.CacheTTL), redisTier, cfg.RedisCacheTTL)
	var cr welcome.CountryResolver
	if g != nil {
		cr = g
	}
	p.Resolver = welcome.New(p.Cache, cr, inf, welcome.WithTimeout(cfg.GeoTimeout+cfg.InferenceTimeout))
	logger.L().Info("pipeline_ready",
		"geo", cfg.GeoStrategy,
		"inference", cfg.InferenceStrategy,
		"cache_size", cfg.CacheSize,
		"cache_ttl_s", int(cfg.CacheTTL.Seconds()),
		"redis_tier", redisTier != nil,
	)
	return p, nil
}

func (p *Pipeline) buildGeo(cfg config.Config) (*geo.Resolver, error) {
	client := &http.Client{Timeout: cfg.GeoTimeout}
	azure := func() geo.CountryLookup {
		if cfg.AzureMapsKey == "" {
			logger.L().Warn("geo_azure_key_missing")
		}
		return geo.NewAzureMapsLookup(cfg.AzureMapsURL, cfg.AzureMapsKey, client)
	}
	mmdb := func() geo.CountryLookup {
		m, err := geo.OpenMMDB(cfg.MMDBPath)
		if err != nil {
			logger.L().Error("geo_mmdb_open_error", "path", cfg.MMDBPath, "err", err)
			return nil
		}
		p.closers = append(p.closers, m)
		return m
	}
	ip2r := func() geo.CountryLookup {
		r, err := geo.OpenIP2Region(cfg.IP2RegionPath)
		if err != nil {
			logger.L().Error("geo_ip2region_open_error", "path", cfg.IP2RegionPath, "err", err)
			return nil
		}
		return r
	}
	var lookup geo.CountryLookup
	switch cfg.GeoStrategy {
	case "none", "":
		return nil, nil
	case "static":
		lookup = geo.NewStaticLookup(nil)
	case "azure":
		lookup = azure()
	case "mmdb":
		lookup = mmdb()
	case "ip2region":
		lookup = ip2r()
	case "chain":
		lookup = geo.NewChain(mmdb(), ip2r(), azure(), geo.NewStaticLookup(nil))
	default:
		return nil, fmt.Errorf("unknown GEO_STRATEGY %q", cfg.GeoStrategy)
	}
	if lookup == nil {
		return nil, nil
	}
	return geo.NewResolver(cfg.GeoStrategy, lookup, cfg.GeoTimeout), nil
}

func buildInference(cfg config.Config) (inference.Client, error) {
	switch cfg.InferenceStrategy {
	case "hosted", "":
		h := inference.NewHosted(cfg.InferenceEndpoint, cfg.InferenceAPIKey, cfg.InferenceModel, cfg.InferenceTimeout)
		if !h.Configured() {
			logger.L().Warn("inference_key_missing", "fallback", welcome.SourceFallbackOffline)
		}
		return h, nil
	case "static":
		if !cfg.StaticDefault {
			return inference.NewStaticWithDefault(nil, nil), nil
		}
		return inference.NewStaticWithDefault(nil, &inference.Translation{
			Language: cfg.StaticDefaultLanguage,
			Message:  cfg.StaticDefaultMessage,
		}), nil
	default:
		return nil, fmt.Errorf("unknown INFERENCE_STRATEGY %q", cfg.InferenceStrategy)
	}
}
