// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"welcome-api/internal/logger"
	"welcome-api/internal/store"
	"welcome-api/internal/welcome"
)

// WelcomeResolver：路由层依赖的欢迎语能力
type WelcomeResolver interface {
	Resolve(ctx context.Context, ip string) welcome.Result
}

// welcomeRequest：请求体；ip 为空时使用访问者地址
type welcomeRequest struct {
	IP string `json:"ip"`
}

const maxBodyBytes = 4 << 10

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
// 约束：st 与 rc 均可为 nil（统计与访客去重关闭）
func BuildRoutes(res WelcomeResolver, st *store.Store, rc *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	welcomeHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/welcome" && r.URL.Path != "/welcome/" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
			return
		}
		var req welcomeRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil && err != io.EOF {
			logger.L().Debug("welcome_bad_request", "err", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "body must be {\"ip\": \"<string>\"}"})
			return
		}
		ip := strings.TrimSpace(req.IP)
		visitor := getVisitorIP(r)
		if ip == "" {
			ip = visitor
		}
		out := res.Resolve(r.Context(), ip)
		recordHit(r.Context(), st, rc, visitor, out)
		writeJSON(w, http.StatusOK, out)
	}
	mux.HandleFunc("/welcome/", welcomeHandler)
	mux.HandleFunc("/welcome", welcomeHandler)

	mux.HandleFunc("/welcome/stats", func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTotals(r.Context())
		if err != nil {
			logger.L().Error("stats_read_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// recordHit：写入请求统计；统计关闭时不访问 Redis
func recordHit(ctx context.Context, st *store.Store, rc *redis.Client, visitor string, out welcome.Result) {
	if !st.Enabled() {
		return
	}
	fresh := visitor != ""
	if fresh && rc != nil {
		pos := bloomPositions([]byte(visitor), 1<<20, 4)
		var err error
		fresh, err = bloomCheckAndSet(ctx, rc, visitorBloomKey(time.Now()), pos, 48*time.Hour)
		if err != nil {
			logger.L().Debug("visitor_bloom_error", "err", err)
		}
	}
	if err := st.IncrStats(ctx, store.Hit{Source: out.Source, Language: out.Language, NewVisitor: fresh}); err != nil {
		logger.L().Warn("stats_incr_error", "source", out.Source, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
