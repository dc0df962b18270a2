// 缓存预热工具：按行读取 IP（命令行参数或标准输入），逐个解析欢迎语并输出 JSON 行
// 背景：开启 REDIS_ENABLED 时结果写入共享缓存层，服务实例启动后可直接命中
package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"welcome-api/internal/app"
	"welcome-api/internal/config"
	"welcome-api/internal/logger"
	"welcome-api/internal/utils"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()

	var rc *redis.Client
	if cfg.RedisEnabled {
		rc = utils.OpenRedisFromEnv()
		if err := rc.Ping(context.Background()).Err(); err != nil {
			log.Fatal(err)
		}
		defer rc.Close()
	}
	p, err := app.Build(cfg, rc)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	var in io.Reader = os.Stdin
	if len(os.Args) > 1 {
		in = strings.NewReader(strings.Join(os.Args[1:], "\n"))
	}
	st, err := warm(context.Background(), in, p.Resolver, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	l.Info("warm_done", "resolved", st.Resolved, "fallbacks", st.Fallbacks, "local_entries", p.Cache.Local().Len())
}
