// Package api 提供店铺后端的HTTP API处理器实现。
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

// ProductHandler 商品目录的HTTP处理器
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler 创建商品处理器实例
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// ListProducts 列出全部商品
// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	products, err := h.productService.ListProducts()
	if err != nil {
		h.logger.Error("list products failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "list products failed", reqID, "")
		return
	}

	resp.OK(w, products, reqID, "")
}

// CreateProduct 创建商品
// POST /api/v1/products
// 需要管理员权限
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	product, err := h.productService.CreateProduct(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
			return
		}
		h.logger.Error("create product failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "create product failed", reqID, "")
		return
	}

	resp.OK(w, product, reqID, "")
}

// GetProduct 获取商品详情
// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
			return
		}
		h.logger.Error("get product failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "get product failed", reqID, "")
		return
	}

	resp.OK(w, product, reqID, "")
}

// UpdateProduct 更新商品
// PUT /api/v1/products/{id}
// 需要管理员权限
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	var req domain.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return
	}

	product, err := h.productService.UpdateProduct(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
		case errors.Is(err, service.ErrInvalidProduct):
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, err.Error(), reqID, "")
		default:
			h.logger.Error("update product failed", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "update product failed", reqID, "")
		}
		return
	}

	resp.OK(w, product, reqID, "")
}

// DeleteProduct 删除商品
// DELETE /api/v1/products/{id}
// 需要管理员权限
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	id, ok := productIDFromPath(r.URL.Path)
	if !ok {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid product ID", reqID, "")
		return
	}

	if err := h.productService.DeleteProduct(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			resp.Error(w, http.StatusNotFound, resp.CodeNotFound, "product not found", reqID, "")
			return
		}
		h.logger.Error("delete product failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "delete product failed", reqID, "")
		return
	}

	resp.OK(w, map[string]string{"id": id}, reqID, "product deleted")
}

// productIDFromPath 从 /api/v1/products/{id} 中提取商品ID
func productIDFromPath(path string) (string, bool) {
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(parts) < 5 || parts[4] == "" {
		return "", false
	}
	return parts[4], true
}
