// Package api 商品媒体上传的HTTP处理器实现。
package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/storage"
)

// 上传体积上限
const maxUploadSize = 10 << 20 // 10 MiB

// UploadHandler 媒体上传处理器
type UploadHandler struct {
	store  storage.BlobStore
	logger *zap.Logger
}

// NewUploadHandler 创建上传处理器实例
func NewUploadHandler(store storage.BlobStore, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		store:  store,
		logger: logger,
	}
}

// Upload 接收multipart表单中的file字段并落盘
// POST /api/v1/admin/uploads
// 需要管理员权限
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid multipart form or file too large", reqID, "")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "file field is required", reqID, "")
		return
	}
	defer file.Close()

	url, err := h.store.Save(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "unsupported file type", reqID, "")
			return
		}
		h.logger.Error("upload failed", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusInternalServerError, resp.CodeInternalError, "upload failed", reqID, "")
		return
	}

	h.logger.Info("file uploaded",
		zap.String("request_id", reqID),
		zap.String("filename", header.Filename),
		zap.String("url", url),
	)

	resp.OK(w, map[string]string{"url": url}, reqID, "")
}
