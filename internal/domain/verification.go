// Package domain 定义手机验证相关的领域模型。
package domain

import (
	"time"
)

// PendingVerification 表示待消费的验证码
// 按手机号唯一，重复发码覆盖旧码；验证成功后立即删除，保证至多一次消费。
type PendingVerification struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"` // 6位数字码
	CreatedAt time.Time `json:"created_at"`
}

// ExpiredAt 返回验证码按给定TTL计算的过期时间
func (p *PendingVerification) ExpiredAt(ttl time.Duration) time.Time {
	return p.CreatedAt.Add(ttl)
}

// IsExpired 判断验证码是否已过期
func (p *PendingVerification) IsExpired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.After(p.ExpiredAt(ttl))
}

// VerifiedPhone 表示已通过验证的手机号
// 验证状态长期有效；再次请求发码时直接短路返回已验证。
type VerifiedPhone struct {
	Phone      string    `json:"phone"`
	VerifiedAt time.Time `json:"verified_at"`
	LastUsed   time.Time `json:"last_used"`
}

// RequestCodeRequest 表示发码请求入参
type RequestCodeRequest struct {
	Phone string `json:"phone"`
}

// RequestCodeResponse 表示发码结果
// MockCode 仅为演示用途：真实部署必须改为短信网关投递且不得在响应中回传。
type RequestCodeResponse struct {
	AlreadyVerified bool   `json:"already_verified"`
	MockCode        string `json:"mock_code,omitempty"`
}

// ValidateCodeRequest 表示验证码校验入参
type ValidateCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// ValidateCodeResponse 表示验证码校验结果
type ValidateCodeResponse struct {
	Verified bool `json:"verified"`
}
