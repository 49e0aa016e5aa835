// Package middleware 访问日志中间件。
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AccessLog 记录每个HTTP请求的访问日志
// 本中间件位于链路最外层，请求ID在内层才注入上下文，
// 因此从请求头读取（RequestID中间件会同时回写请求头）。
// 5xx记为Error，4xx记为Warn，便于按级别过滤告警。
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Int("bytes", rw.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", r.Header.Get(HeaderRequestID)),
			}

			switch {
			case rw.statusCode >= http.StatusInternalServerError:
				logger.Error("http_access", fields...)
			case rw.statusCode >= http.StatusBadRequest:
				logger.Warn("http_access", fields...)
			default:
				logger.Info("http_access", fields...)
			}
		})
	}
}

// responseWriter 捕获写出的状态码和字节数
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}
