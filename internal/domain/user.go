// Package domain 定义用户与会话相关的领域模型。
// 领域模型是业务逻辑的核心，独立于外部依赖（数据库、HTTP等）。
package domain

import (
	"time"
)

// UserRole 定义用户角色类型
type UserRole string

const (
	UserRoleUser  UserRole = "user"  // 普通用户
	UserRoleAdmin UserRole = "admin" // 管理员
)

// User 表示用户领域模型
// 普通顾客通过上游身份提供方换取会话；店主可使用本地密码登录。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      *string   `json:"picture,omitempty"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"` // 本地登录用，JSON序列化时忽略
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin 判断用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Session 表示持久化的用户会话
// 令牌本身是签名JWT，但会话行保留在库中以支持登出即吊销。
type Session struct {
	UserID       string    `json:"user_id"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired 判断会话是否已过期
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// LoginRequest 表示本地登录请求（店主使用）
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse 表示会话创建结果
type SessionResponse struct {
	User         *User  `json:"user"`
	SessionToken string `json:"session_token"`
}

// ProviderSession 表示上游身份提供方返回的会话数据
type ProviderSession struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}
