// Package middleware 会话认证与管理员授权中间件。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

// 上下文键定义
const (
	contextKeyUser contextKey = "user"
)

// SessionCookieName 会话令牌的Cookie名
const SessionCookieName = "session_token"

// Auth 会话认证中间件
// 令牌优先取Cookie，其次取Authorization头的Bearer值。
// 令牌必须同时通过签名校验和库内会话行校验，登出后的令牌立即失效。
func Auth(userService service.UserService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			token := SessionTokenFromRequest(r)
			if token == "" {
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
				return
			}

			user, err := userService.AuthenticateSession(token)
			if err != nil {
				logger.Warn("session authentication failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid or expired session", reqID, "")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin 管理员授权中间件，必须在Auth之后使用
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())
			user := UserFromContext(r.Context())

			if user == nil {
				logger.Error("user not found in context", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
				return
			}

			if !user.IsAdmin() {
				logger.Warn("insufficient permissions",
					zap.String("request_id", reqID),
					zap.String("user_id", user.ID),
					zap.String("role", string(user.Role)),
				)
				resp.Error(w, http.StatusForbidden, resp.CodeForbidden, "admin access required", reqID, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext 从请求上下文中获取当前用户信息
func UserFromContext(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(contextKeyUser).(*domain.User); ok {
		return user
	}
	return nil
}

// SessionTokenFromRequest 从请求中提取会话令牌
func SessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	const bearerPrefix = "Bearer "
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return ""
}
