// Package api 客户请求工作流的HTTP处理器实现。
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

// RequestHandler 客户请求相关的HTTP处理器
type RequestHandler struct {
	requestService service.RequestService
	logger         *zap.Logger
}

// NewRequestHandler 创建请求处理器实例
func NewRequestHandler(requestService service.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// SubmitPurchase 提交购买请求
// POST /api/v1/requests/purchase
func (h *RequestHandler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.SubmitPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	purchase, err := h.requestService.SubmitPurchase(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
		case errors.Is(err, service.ErrProductNotFound):
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
		case errors.Is(err, service.ErrInsufficientStock):
			resp.Error(w, resp.HTTPStatusFromCode(resp.CodeInsufficientStock), resp.CodeInsufficientStock, "insufficient stock", reqID, "")
		default:
			h.logger.Error("submit purchase failed", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "submit purchase failed", reqID, "")
		}
		return
	}

	resp.OK(w, purchase, reqID, "")
}

// SubmitOutOfStock 提交缺货登记
// POST /api/v1/requests/out-of-stock
func (h *RequestHandler) SubmitOutOfStock(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.SubmitOutOfStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	request, err := h.requestService.SubmitOutOfStock(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
		case errors.Is(err, service.ErrProductNotFound):
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
		default:
			h.logger.Error("submit out-of-stock request failed", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "submit request failed", reqID, "")
		}
		return
	}

	resp.OK(w, request, reqID, "")
}

// SubmitCustom 提交定制商品请求
// POST /api/v1/requests/custom
func (h *RequestHandler) SubmitCustom(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.SubmitCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	request, err := h.requestService.SubmitCustom(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
			return
		}
		h.logger.Error("submit custom request failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "submit request failed", reqID, "")
		return
	}

	resp.OK(w, request, reqID, "")
}

// ListRequests 按种类分组列出全部请求
// GET /api/v1/admin/requests
// 需要管理员权限
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	requests, err := h.requestService.ListRequests()
	if err != nil {
		h.logger.Error("list requests failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "list requests failed", reqID, "")
		return
	}

	resp.OK(w, requests, reqID, "")
}

// ResolveRequest 处理请求的完成或拒绝
// POST /api/v1/admin/requests/{kind}/{id}/complete
// POST /api/v1/admin/requests/{kind}/{id}/reject
// 需要管理员权限
func (h *RequestHandler) ResolveRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	kind, id, action, ok := resolvePathParts(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request path", reqID, "")
		return
	}

	if !domain.ValidKind(kind) {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "unknown request kind", reqID, "")
		return
	}

	var err error
	switch action {
	case "complete":
		err = h.requestService.CompleteRequest(kind, id)
	case "reject":
		err = h.requestService.RejectRequest(kind, id)
	default:
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "unknown action", reqID, "")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "request not found", reqID, "")
		case errors.Is(err, service.ErrInvalidState):
			resp.Error(w, resp.HTTPStatusFromCode(resp.CodeInvalidState), resp.CodeInvalidState, "request already resolved", reqID, "")
		default:
			h.logger.Error("resolve request failed",
				zap.String("request_id", reqID),
				zap.String("kind", string(kind)),
				zap.String("id", id),
				zap.Error(err))
			resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "resolve request failed", reqID, "")
		}
		return
	}

	resp.OK(w, map[string]string{"id": id, "action": action}, reqID, "")
}

// resolvePathParts 从 /api/v1/admin/requests/{kind}/{id}/{action} 中提取路径参数
func resolvePathParts(path string) (domain.RequestKind, string, string, bool) {
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(parts) != 8 {
		return "", "", "", false
	}
	kind, id, action := parts[5], parts[6], parts[7]
	if kind == "" || id == "" || action == "" {
		return "", "", "", false
	}
	return domain.RequestKind(kind), id, action, true
}
