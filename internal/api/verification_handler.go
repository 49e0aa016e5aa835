// Package api 手机验证码的HTTP处理器实现。
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

// VerificationHandler 手机验证相关的HTTP处理器
type VerificationHandler struct {
	verificationService service.VerificationService
	logger              *zap.Logger
}

// NewVerificationHandler 创建手机验证处理器实例
func NewVerificationHandler(verificationService service.VerificationService, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// RequestCode 为手机号签发验证码
// POST /api/v1/verification/request-code
func (h *VerificationHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	result, err := h.verificationService.RequestCode(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPhone) {
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid phone number", reqID, "")
			return
		}
		h.logger.Error("request code failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "request code failed", reqID, "")
		return
	}

	resp.OK(w, result, reqID, "")
}

// ValidateCode 校验验证码
// POST /api/v1/verification/validate-code
func (h *VerificationHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	result, err := h.verificationService.ValidateCode(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid phone number", reqID, "")
		case errors.Is(err, service.ErrInvalidCode):
			resp.Error(w, resp.HTTPStatusFromCode(resp.CodeInvalidCode), resp.CodeInvalidCode, "invalid or expired verification code", reqID, "")
		default:
			h.logger.Error("validate code failed", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "validate code failed", reqID, "")
		}
		return
	}

	resp.OK(w, result, reqID, "")
}
