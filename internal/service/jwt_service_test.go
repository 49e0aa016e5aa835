package service

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	cfg := testConfig()
	svc := NewJWTService(cfg, zap.NewNop())

	user := &domain.User{
		ID:    "user-1",
		Email: "owner@example.com",
		Role:  domain.UserRoleAdmin,
	}

	token, expiresAt, err := svc.GenerateSessionToken(user)
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("token is empty")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("expiry should be in the future")
	}

	claims, err := svc.ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("ValidateSessionToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %v, want %v", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %v, want %v", claims.Email, user.Email)
	}
	if claims.Role != domain.UserRoleAdmin {
		t.Errorf("Role = %v, want admin", claims.Role)
	}
}

func TestJWTService_ValidateSessionToken_Invalid(t *testing.T) {
	cfg := testConfig()
	svc := NewJWTService(cfg, zap.NewNop())

	// 乱码令牌
	if _, err := svc.ValidateSessionToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}

	// 其他密钥签发的令牌
	otherCfg := testConfig()
	otherCfg.JWT.Secret = "different-secret"
	otherSvc := NewJWTService(otherCfg, zap.NewNop())
	token, _, err := otherSvc.GenerateSessionToken(&domain.User{ID: "user-1", Role: domain.UserRoleUser})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := svc.ValidateSessionToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTService_ValidateSessionToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.SessionTTL = -time.Minute
	svc := NewJWTService(cfg, zap.NewNop())

	token, _, err := svc.GenerateSessionToken(&domain.User{ID: "user-1", Role: domain.UserRoleUser})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := svc.ValidateSessionToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestJWTService_ValidateSessionToken_IssuerMismatch(t *testing.T) {
	cfg := testConfig()
	otherCfg := testConfig()
	otherCfg.App.Name = "some-other-app"
	otherSvc := NewJWTService(otherCfg, zap.NewNop())

	token, _, err := otherSvc.GenerateSessionToken(&domain.User{ID: "user-1", Role: domain.UserRoleUser})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	svc := NewJWTService(cfg, zap.NewNop())
	if _, err := svc.ValidateSessionToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}
