package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{"success logs info", http.StatusOK, zapcore.InfoLevel},
		{"client error logs warn", http.StatusNotFound, zapcore.WarnLevel},
		{"server error logs error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			logger := zap.New(core)

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})
			// 与生产装配一致：AccessLog在外，RequestID在内
			handler := AccessLog(logger)(RequestID(inner))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			rw := httptest.NewRecorder()
			handler.ServeHTTP(rw, req)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			entry := entries[0]
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry.Level, tt.wantLevel)
			}

			fields := entry.ContextMap()
			if got := fields["status"]; got != int64(tt.status) {
				t.Errorf("status field = %v, want %d", got, tt.status)
			}
			if got, _ := fields["request_id"].(string); got == "" {
				t.Error("request_id field is empty")
			}
			if got, _ := fields["bytes"].(int64); got != int64(len("body")) {
				t.Errorf("bytes field = %v, want %d", got, len("body"))
			}
		})
	}
}
