// Package api 店铺联系方式配置的HTTP处理器实现。
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

// ConfigHandler 店铺配置相关的HTTP处理器
type ConfigHandler struct {
	configService service.StoreConfigService
	logger        *zap.Logger
}

// NewConfigHandler 创建店铺配置处理器实例
func NewConfigHandler(configService service.StoreConfigService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// GetConfig 读取店铺联系方式
// GET /api/v1/admin/config
// 需要管理员权限
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	config, err := h.configService.GetConfig()
	if err != nil {
		h.logger.Error("get store config failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "get config failed", reqID, "")
		return
	}

	resp.OK(w, config, reqID, "")
}

// UpdateConfig 更新店铺联系方式
// PUT /api/v1/admin/config
// 需要管理员权限
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var config domain.StoreConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	updated, err := h.configService.UpdateConfig(&config)
	if err != nil {
		h.logger.Error("update store config failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "update config failed", reqID, "")
		return
	}

	resp.OK(w, updated, reqID, "")
}
