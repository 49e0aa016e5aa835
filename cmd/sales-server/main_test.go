package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/api"
	"github.com/jamthebest/Sales-web-page/internal/config"
	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/limiter"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
)

func TestHealthz_OK(t *testing.T) {
	// Build a minimal mux identical to main's handler for /healthz
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"version": "test",
		}
		resp.OK(w, &data, "test-req", "")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var body struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Code != 0 || body.Data["status"] != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

// stubUserService 按固定令牌表认证的用户服务桩
type stubUserService struct {
	sessions map[string]*domain.User
}

func (s *stubUserService) AuthenticateSession(token string) (*domain.User, error) {
	user, exists := s.sessions[token]
	if !exists {
		return nil, service.ErrInvalidSession
	}
	return user, nil
}

func (s *stubUserService) CreateSessionFromProvider(ctx context.Context, providerSessionID string) (*domain.SessionResponse, error) {
	return nil, service.ErrProviderRejected
}

func (s *stubUserService) LoginLocal(req *domain.LoginRequest) (*domain.SessionResponse, error) {
	return nil, service.ErrInvalidCredentials
}

func (s *stubUserService) Logout(token string) error { return nil }

func (s *stubUserService) PromoteAdmin(email string) (*domain.User, error) {
	return nil, service.ErrUserNotFound
}

func (s *stubUserService) EnsureBootstrapAdmin() error { return nil }

func (s *stubUserService) GetUserByID(id string) (*domain.User, error) {
	return nil, service.ErrUserNotFound
}

// stubConfigService 返回固定店铺配置的桩
type stubConfigService struct{}

func (s *stubConfigService) GetConfig() (*domain.StoreConfig, error) {
	return &domain.StoreConfig{Email: "owner@example.com", Phone: "+50212345678"}, nil
}

func (s *stubConfigService) UpdateConfig(cfg *domain.StoreConfig) (*domain.StoreConfig, error) {
	return cfg, nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	lg := zap.NewNop()
	users := &stubUserService{sessions: map[string]*domain.User{
		"admin-token": {ID: "u1", Email: "admin@example.com", Role: domain.UserRoleAdmin},
		"user-token":  {ID: "u2", Email: "user@example.com", Role: domain.UserRoleUser},
	}}

	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.App.RequestTimeout = 5 * time.Second
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.BaseURL = "/uploads"

	deps := &AppDependencies{
		UserHandler:         api.NewUserHandler(users, time.Hour, lg),
		ProductHandler:      api.NewProductHandler(nil, lg),
		RequestHandler:      api.NewRequestHandler(nil, lg),
		VerificationHandler: api.NewVerificationHandler(nil, lg),
		ConfigHandler:       api.NewConfigHandler(&stubConfigService{}, lg),
		UploadHandler:       api.NewUploadHandler(nil, lg),
		UserService:         users,
		VerifyLimiter:       limiter.NopLimiter{},
	}
	return setupRoutes(cfg, deps, lg)
}

func TestStoreConfigRoutes_AdminGated(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"legacy public path gone", "/api/v1/config", "", http.StatusNotFound},
		{"admin config without session", "/api/v1/admin/config", "", http.StatusUnauthorized},
		{"admin config as regular user", "/api/v1/admin/config", "user-token", http.StatusForbidden},
		{"admin config as admin", "/api/v1/admin/config", "admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rw := httptest.NewRecorder()
			handler.ServeHTTP(rw, req)

			if rw.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rw.Code, tt.wantStatus)
			}
		})
	}
}
