// Package service 提供业务逻辑层实现。
// 服务层负责协调领域对象和仓储，实现具体的业务用例。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jamthebest/Sales-web-page/internal/config"
	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/repo"
)

// 定义业务错误
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrProviderRejected   = errors.New("identity provider rejected session")
)

// UserService 定义用户与会话服务接口
type UserService interface {
	// CreateSessionFromProvider 用上游身份提供方的会话ID换取本地会话
	CreateSessionFromProvider(ctx context.Context, providerSessionID string) (*domain.SessionResponse, error)

	// LoginLocal 店主本地密码登录
	LoginLocal(req *domain.LoginRequest) (*domain.SessionResponse, error)

	// AuthenticateSession 验证会话令牌并返回对应用户
	AuthenticateSession(token string) (*domain.User, error)

	// Logout 吊销会话令牌
	Logout(token string) error

	// PromoteAdmin 将指定邮箱的用户提升为管理员
	PromoteAdmin(email string) (*domain.User, error)

	// EnsureBootstrapAdmin 启动时确保初始管理员账号存在
	EnsureBootstrapAdmin() error

	GetUserByID(id string) (*domain.User, error)
}

// userService 是 UserService 接口的实现
type userService struct {
	userRepo   repo.UserRepository
	jwtService JWTService
	config     *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUserService 创建用户服务实例
func NewUserService(userRepo repo.UserRepository, jwtService JWTService, cfg *config.Config, logger *zap.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtService: jwtService,
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Auth.Timeout},
		logger:     logger,
	}
}

// CreateSessionFromProvider 用上游会话ID换取本地会话
// 业务规则：
// 1. 向身份提供方校验会话ID并取回用户画像
// 2. 按邮箱就地建档或更新用户信息
// 3. 签发本地JWT并落库会话行，支持登出即吊销
func (s *userService) CreateSessionFromProvider(ctx context.Context, providerSessionID string) (*domain.SessionResponse, error) {
	providerSession, err := s.fetchProviderSession(ctx, providerSessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.upsertUserFromProvider(providerSession)
	if err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

// fetchProviderSession 调用身份提供方换取会话数据
func (s *userService) fetchProviderSession(ctx context.Context, sessionID string) (*domain.ProviderSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Auth.ProviderURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	res, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("identity provider unreachable", zap.Error(err))
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		s.logger.Warn("identity provider rejected session", zap.Int("status", res.StatusCode))
		return nil, ErrProviderRejected
	}

	var providerSession domain.ProviderSession
	if err := json.NewDecoder(res.Body).Decode(&providerSession); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if providerSession.Email == "" {
		return nil, ErrProviderRejected
	}

	return &providerSession, nil
}

// upsertUserFromProvider 按邮箱建档或刷新用户画像
func (s *userService) upsertUserFromProvider(ps *domain.ProviderSession) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(ps.Email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user != nil {
		return user, nil
	}

	user = &domain.User{
		ID:    ps.ID,
		Email: email,
		Name:  ps.Name,
		Role:  domain.UserRoleUser,
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if ps.Picture != "" {
		picture := ps.Picture
		user.Picture = &picture
	}

	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered from identity provider",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return user, nil
}

// LoginLocal 店主本地密码登录
func (s *userService) LoginLocal(req *domain.LoginRequest) (*domain.SessionResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	// bcrypt.CompareHashAndPassword 自动处理盐值，且比较耗时恒定
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to compare password", zap.Error(err))
		return nil, fmt.Errorf("compare password: %w", err)
	}

	s.logger.Info("local login succeeded",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return s.issueSession(user)
}

// issueSession 签发会话令牌并落库会话行
func (s *userService) issueSession(user *domain.User) (*domain.SessionResponse, error) {
	token, expiresAt, err := s.jwtService.GenerateSessionToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	session := &domain.Session{
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    expiresAt,
	}
	if err := s.userRepo.CreateSession(session); err != nil {
		s.logger.Error("failed to persist session", zap.Error(err))
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &domain.SessionResponse{
		User:         user,
		SessionToken: token,
	}, nil
}

// AuthenticateSession 验证会话令牌并返回用户
// 会话必须同时通过JWT签名校验和库内会话行校验，登出后的令牌立即失效
func (s *userService) AuthenticateSession(token string) (*domain.User, error) {
	claims, err := s.jwtService.ValidateSessionToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	session, err := s.userRepo.GetSession(token)
	if err != nil {
		s.logger.Error("failed to get session", zap.Error(err))
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || session.IsExpired(time.Now()) {
		return nil, ErrInvalidSession
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		s.logger.Error("failed to get user by id", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidSession
	}

	return user, nil
}

// Logout 删除会话行，令牌即刻失效
func (s *userService) Logout(token string) error {
	if err := s.userRepo.DeleteSession(token); err != nil {
		s.logger.Error("failed to delete session", zap.Error(err))
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PromoteAdmin 将指定邮箱的用户提升为管理员
func (s *userService) PromoteAdmin(email string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.Role == domain.UserRoleAdmin {
		return user, nil
	}

	updated, err := s.userRepo.UpdateRole(user.ID, domain.UserRoleAdmin)
	if err != nil {
		s.logger.Error("failed to update role", zap.Error(err))
		return nil, fmt.Errorf("update role: %w", err)
	}
	if !updated {
		return nil, ErrUserNotFound
	}

	user.Role = domain.UserRoleAdmin
	s.logger.Info("user promoted to admin",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)

	return user, nil
}

// EnsureBootstrapAdmin 启动时确保初始管理员存在
// 账号来自环境配置，已存在时只补齐管理员角色，不覆盖密码
func (s *userService) EnsureBootstrapAdmin() error {
	email := strings.TrimSpace(strings.ToLower(s.config.Auth.AdminEmail))
	password := s.config.Auth.AdminPassword
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return fmt.Errorf("check bootstrap admin: %w", err)
	}
	if existing != nil {
		if existing.Role != domain.UserRoleAdmin {
			if _, err := s.userRepo.UpdateRole(existing.ID, domain.UserRoleAdmin); err != nil {
				return fmt.Errorf("promote bootstrap admin: %w", err)
			}
		}
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	admin := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         "Store Admin",
		Role:         domain.UserRoleAdmin,
		PasswordHash: string(passwordHash),
	}
	if err := s.userRepo.Create(admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

// GetUserByID 根据ID获取用户
func (s *userService) GetUserByID(id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user by id", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
