// Package api 用户会话相关的HTTP处理器实现。
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

// UserHandler 用户与会话相关的HTTP处理器
type UserHandler struct {
	userService service.UserService
	sessionTTL  time.Duration
	logger      *zap.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService service.UserService, sessionTTL time.Duration, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
}

// CreateSession 用上游身份提供方的会话ID换取本地会话
// POST /api/v1/auth/session
// 会话ID从 X-Session-ID 头读取
func (h *UserHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "X-Session-ID header required", reqID, "")
		return
	}

	session, err := h.userService.CreateSessionFromProvider(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrProviderRejected) {
			resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "session rejected by identity provider", reqID, "")
			return
		}
		h.logger.Error("create session failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "create session failed", reqID, "")
		return
	}

	h.setSessionCookie(w, session.SessionToken)
	resp.OK(w, session, reqID, "")
}

// Login 店主本地密码登录
// POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	if req.Email == "" || req.Password == "" {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "email and password are required", reqID, "")
		return
	}

	session, err := h.userService.LoginLocal(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid credentials", reqID, "")
			return
		}
		h.logger.Error("login failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "login failed", reqID, "")
		return
	}

	h.setSessionCookie(w, session.SessionToken)
	resp.OK(w, session, reqID, "")
}

// Me 返回当前会话用户
// GET /api/v1/auth/me
// 需要认证
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	user := middleware.UserFromContext(r.Context())
	if user == nil {
		resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
		return
	}

	resp.OK(w, user, reqID, "")
}

// Logout 吊销当前会话
// POST /api/v1/auth/logout
// 需要认证
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	token := middleware.SessionTokenFromRequest(r)
	if token == "" {
		resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
		return
	}

	if err := h.userService.Logout(token); err != nil {
		h.logger.Error("logout failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "logout failed", reqID, "")
		return
	}

	h.clearSessionCookie(w)
	resp.OK(w, nil, reqID, "logged out")
}

// PromoteAdmin 将指定邮箱的用户提升为管理员
// POST /api/v1/admin/users/promote
// 需要管理员权限
func (h *UserHandler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "email is required", reqID, "")
		return
	}

	user, err := h.userService.PromoteAdmin(req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "user not found", reqID, "")
			return
		}
		h.logger.Error("promote admin failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "promote admin failed", reqID, "")
		return
	}

	resp.OK(w, user, reqID, "")
}

// setSessionCookie 下发会话Cookie
func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie 清除会话Cookie
func (h *UserHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
