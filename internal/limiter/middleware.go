// Package limiter 限流中间件实现
package limiter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/resp"
)

// Middleware 创建基于客户端IP的限流中间件
// scope用于区分不同接口的配额，同一IP在不同scope下独立计数。
// 限流服务自身出错时放行请求，只记日志，避免Redis故障放大为全站不可用。
func Middleware(l Limiter, scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("%s:%s", scope, clientIP(r))

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			result, err := l.Allow(ctx, key)
			if err != nil {
				logger.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				requestID := r.Header.Get("X-Request-ID")
				resp.Error(w, http.StatusTooManyRequests, resp.CodeRateLimited,
					"too many requests, please retry later", requestID, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders 设置限流相关的响应头
func setRateLimitHeaders(w http.ResponseWriter, result *LimitResult) {
	if result.Remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	}
	if result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
	}
}

// clientIP 解析客户端真实IP，优先代理透传头
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
