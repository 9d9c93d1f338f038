package server

import (
	"context"
	"embed"
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/iWorld-y/invest_radar/app/advisor/internal/conf"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/service"
	"github.com/iWorld-y/invest_radar/app/advisor/internal/usecase"
)

// 请求默认超时，覆盖 kratos 的 1s 默认值
const defaultTimeout = 2 * time.Minute

//go:embed assets/*
var assets embed.FS

func NewHTTPServer(c *conf.Server, auth *conf.Auth, s *service.AdvisorService, logger log.Logger) *http.Server {
	key := []byte(usecase.JWTKey(auth))
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			selector.Server(
				jwt.Server(
					func(*jwtv5.Token) (interface{}, error) { return key, nil },
					jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
					jwt.WithClaims(func() jwtv5.Claims { return jwtv5.MapClaims{} }),
				),
			).Match(func(ctx context.Context, operation string) bool {
				return !service.PublicOperations[operation]
			}).Build(),
		),
	}
	timeout := defaultTimeout
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				timeout = d
			}
		}
	}
	opts = append(opts, http.Timeout(timeout))

	srv := http.NewServer(opts...)
	service.RegisterAdvisorHTTPServer(srv, s)

	// 首页是一个静态页面，直接调用上面的 JSON 接口
	srv.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/" {
			nethttp.NotFound(w, r)
			return
		}
		content, err := assets.ReadFile("assets/index.html")
		if err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(content)
	})

	return srv
}
