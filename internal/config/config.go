// 包 config：集中读取 .env 与环境变量，组装服务运行配置
// 背景：原先各处直接 os.Getenv 并内联默认值；欢迎服务的策略选择较多，统一收口便于测试注入
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config：服务运行配置
// 约束：凭证缺失不视为错误，由上层降级为离线回退；数值解析失败回退默认值
type Config struct {
	Addr    string
	APIBase string

	GeoStrategy   string
	GeoTimeout    time.Duration
	AzureMapsKey  string
	AzureMapsURL  string
	MMDBPath      string
	IP2RegionPath string

	InferenceStrategy string
	InferenceEndpoint string
	InferenceAPIKey   string
	InferenceModel    string
	InferenceTimeout  time.Duration

	// 静态推理的默认欢迎语；StaticDefault 为 false 时未知国家走回退
	StaticDefault         bool
	StaticDefaultLanguage string
	StaticDefaultMessage  string

	CacheSize     int
	CacheTTL      time.Duration
	RedisEnabled  bool
	RedisCacheTTL time.Duration

	StatsEnabled bool

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// LoadDotEnv：加载工作目录与 data/env 下的 .env；文件不存在静默忽略
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：读取 .env 后从进程环境构建配置
func Load() Config {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// FromEnv：从给定取值函数构建配置
// 背景：与 os.Getenv 解耦，测试可传入 map 查找函数
func FromEnv(get func(string) string) Config {
	c := Config{
		Addr:    str(get, "ADDR", ":8080"),
		APIBase: str(get, "API_BASE", ""),

		GeoStrategy:   strings.ToLower(str(get, "GEO_STRATEGY", "static")),
		GeoTimeout:    seconds(get, "GEO_TIMEOUT_S", 4),
		AzureMapsKey:  get("AZURE_MAPS_KEY"),
		AzureMapsURL:  str(get, "AZURE_MAPS_ENDPOINT", "https://atlas.microsoft.com/geolocation/ip/json"),
		MMDBPath:      str(get, "MMDB_PATH", filepath.Join("data", "mmdb", "GeoLite2-Country.mmdb")),
		IP2RegionPath: get("IP2REGION_V4_PATH"),

		InferenceStrategy: strings.ToLower(str(get, "INFERENCE_STRATEGY", "hosted")),
		InferenceEndpoint: str(get, "INFERENCE_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		InferenceAPIKey:   get("INFERENCE_API_KEY"),
		InferenceModel:    str(get, "INFERENCE_MODEL", "gpt-4o-mini"),
		InferenceTimeout:  seconds(get, "INFERENCE_TIMEOUT_S", 15),

		StaticDefault:         get("STATIC_DEFAULT_ENABLED") != "false",
		StaticDefaultLanguage: strings.ToLower(str(get, "STATIC_DEFAULT_LANGUAGE", "en")),
		StaticDefaultMessage:  str(get, "STATIC_DEFAULT_MESSAGE", "Welcome"),

		CacheSize:     integer(get, "WELCOME_CACHE_SIZE", 4096),
		CacheTTL:      seconds(get, "WELCOME_CACHE_TTL_S", 0),
		RedisEnabled:  get("REDIS_ENABLED") == "true",
		RedisCacheTTL: seconds(get, "WELCOME_REDIS_TTL_S", 24*3600),

		StatsEnabled: get("STATS_ENABLED") == "true",

		RateLimitEnabled: get("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     integer(get, "RATE_LIMIT_QPS", 200),

		TLSEnable:   get("TLS_ENABLE") == "true",
		TLSCertPath: str(get, "TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:  str(get, "TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
	c.APIBase = strings.TrimSuffix(c.APIBase, "/")
	return c
}

func str(get func(string) string, key, def string) string {
	if v := strings.TrimSpace(get(key)); v != "" {
		return v
	}
	return def
}

func integer(get func(string) string, key string, def int) int {
	if s := get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func seconds(get func(string) string, key string, def int) time.Duration {
	if s := get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(def) * time.Second
}
