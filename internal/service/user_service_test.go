package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jamthebest/Sales-web-page/internal/config"
	"github.com/jamthebest/Sales-web-page/internal/domain"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "sales-web-page"
	cfg.App.Env = "dev"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.SessionTTL = time.Hour
	cfg.Auth.Timeout = 5 * time.Second
	return cfg
}

func TestUserService_LoginLocal(t *testing.T) {
	cfg := testConfig()
	userRepo := newMockUserRepository()
	jwtService := NewJWTService(cfg, zap.NewNop())
	svc := NewUserService(userRepo, jwtService, cfg, zap.NewNop())

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	owner := &domain.User{
		Email:        "owner@example.com",
		Name:         "Owner",
		Role:         domain.UserRoleAdmin,
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(owner); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// 正确密码
	session, err := svc.LoginLocal(&domain.LoginRequest{Email: "Owner@Example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("LoginLocal() error = %v", err)
	}
	if session.SessionToken == "" {
		t.Error("session token is empty")
	}
	if session.User.ID != owner.ID {
		t.Errorf("user ID = %v, want %v", session.User.ID, owner.ID)
	}

	// 错误密码
	if _, err := svc.LoginLocal(&domain.LoginRequest{Email: "owner@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}

	// 不存在的用户
	if _, err := svc.LoginLocal(&domain.LoginRequest{Email: "ghost@example.com", Password: "s3cret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserService_AuthenticateSession(t *testing.T) {
	cfg := testConfig()
	userRepo := newMockUserRepository()
	jwtService := NewJWTService(cfg, zap.NewNop())
	svc := NewUserService(userRepo, jwtService, cfg, zap.NewNop())

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	owner := &domain.User{Email: "owner@example.com", Name: "Owner", Role: domain.UserRoleAdmin, PasswordHash: string(hash)}
	if err := userRepo.Create(owner); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	session, err := svc.LoginLocal(&domain.LoginRequest{Email: "owner@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := svc.AuthenticateSession(session.SessionToken)
	if err != nil {
		t.Fatalf("AuthenticateSession() error = %v", err)
	}
	if user.ID != owner.ID {
		t.Errorf("user ID = %v, want %v", user.ID, owner.ID)
	}

	// 登出后令牌失效
	if err := svc.Logout(session.SessionToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.AuthenticateSession(session.SessionToken); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("error after logout = %v, want ErrInvalidSession", err)
	}

	// 伪造令牌
	if _, err := svc.AuthenticateSession("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("error for garbage token = %v, want ErrInvalidSession", err)
	}
}

func TestUserService_CreateSessionFromProvider(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Session-ID") != "valid-session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(domain.ProviderSession{
			ID:      "prov-1",
			Email:   "Customer@Example.com",
			Name:    "Customer",
			Picture: "https://example.com/pic.png",
		})
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.Auth.ProviderURL = provider.URL
	userRepo := newMockUserRepository()
	jwtService := NewJWTService(cfg, zap.NewNop())
	svc := NewUserService(userRepo, jwtService, cfg, zap.NewNop())

	session, err := svc.CreateSessionFromProvider(context.Background(), "valid-session")
	if err != nil {
		t.Fatalf("CreateSessionFromProvider() error = %v", err)
	}
	if session.User.Email != "customer@example.com" {
		t.Errorf("email = %v, want normalized customer@example.com", session.User.Email)
	}
	if session.User.Role != domain.UserRoleUser {
		t.Errorf("role = %v, want user", session.User.Role)
	}
	if session.SessionToken == "" {
		t.Error("session token is empty")
	}

	// 第二次换取不重复建档
	if _, err := svc.CreateSessionFromProvider(context.Background(), "valid-session"); err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	if len(userRepo.users) != 1 {
		t.Errorf("users = %d, want 1", len(userRepo.users))
	}

	// 上游拒绝
	if _, err := svc.CreateSessionFromProvider(context.Background(), "bad-session"); !errors.Is(err, ErrProviderRejected) {
		t.Errorf("error = %v, want ErrProviderRejected", err)
	}
}

func TestUserService_PromoteAdmin(t *testing.T) {
	cfg := testConfig()
	userRepo := newMockUserRepository()
	jwtService := NewJWTService(cfg, zap.NewNop())
	svc := NewUserService(userRepo, jwtService, cfg, zap.NewNop())

	customer := &domain.User{Email: "customer@example.com", Name: "Customer", Role: domain.UserRoleUser}
	if err := userRepo.Create(customer); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	promoted, err := svc.PromoteAdmin("Customer@Example.com")
	if err != nil {
		t.Fatalf("PromoteAdmin() error = %v", err)
	}
	if promoted.Role != domain.UserRoleAdmin {
		t.Errorf("role = %v, want admin", promoted.Role)
	}

	// 重复提升为幂等操作
	if _, err := svc.PromoteAdmin("customer@example.com"); err != nil {
		t.Errorf("repeat promote error = %v", err)
	}

	if _, err := svc.PromoteAdmin("ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AdminEmail = "owner@example.com"
	cfg.Auth.AdminPassword = "s3cret"
	userRepo := newMockUserRepository()
	jwtService := NewJWTService(cfg, zap.NewNop())
	svc := NewUserService(userRepo, jwtService, cfg, zap.NewNop())

	if err := svc.EnsureBootstrapAdmin(); err != nil {
		t.Fatalf("EnsureBootstrapAdmin() error = %v", err)
	}

	admin, err := userRepo.GetByEmail("owner@example.com")
	if err != nil || admin == nil {
		t.Fatalf("bootstrap admin not created: %v", err)
	}
	if admin.Role != domain.UserRoleAdmin {
		t.Errorf("role = %v, want admin", admin.Role)
	}
	if admin.PasswordHash == "" {
		t.Error("password hash not set")
	}

	// 幂等：再次执行不新建用户
	if err := svc.EnsureBootstrapAdmin(); err != nil {
		t.Fatalf("second EnsureBootstrapAdmin() error = %v", err)
	}
	if len(userRepo.users) != 1 {
		t.Errorf("users = %d, want 1", len(userRepo.users))
	}

	// 能用引导密码登录
	if _, err := svc.LoginLocal(&domain.LoginRequest{Email: "owner@example.com", Password: "s3cret"}); err != nil {
		t.Errorf("login with bootstrap credentials: %v", err)
	}
}
