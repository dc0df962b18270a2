// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api，流水线组装在 internal/app
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"welcome-api/internal/api"
	"welcome-api/internal/app"
	"welcome-api/internal/config"
	"welcome-api/internal/logger"
	"welcome-api/internal/metrics"
	"welcome-api/internal/middleware"
	"welcome-api/internal/migrate"
	"welcome-api/internal/store"
	"welcome-api/internal/utils"
)

func main() {
	cfg := config.Load()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)

	var rc *redis.Client
	if cfg.RedisEnabled {
		rc = utils.OpenRedisFromEnv()
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	} else {
		l.Info("redis_disabled")
	}

	st := store.AttachDB(nil)
	if cfg.StatsEnabled {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(context.Background(), db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
	} else {
		l.Info("stats_disabled")
	}
	defer st.Close()

	p, err := app.Build(cfg, rc)
	if err != nil {
		l.Error("pipeline_error", "err", err)
		os.Exit(1)
	}
	defer p.Close()

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(p.Resolver, st, rc)
	if cfg.APIBase == "" {
		mux.Handle("/", apiMux)
	} else {
		mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	}
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler}
	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "welcome-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		if err := s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}
