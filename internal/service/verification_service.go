// Package service 手机验证码的签发与校验。
package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/repo"
)

// 验证相关业务错误
var (
	ErrInvalidPhone = errors.New("invalid phone number")
	ErrInvalidCode  = errors.New("invalid or expired verification code")
)

// VerificationService 定义手机验证服务接口
type VerificationService interface {
	// RequestCode 为手机号签发验证码；已验证的号码直接短路返回
	RequestCode(req *domain.RequestCodeRequest) (*domain.RequestCodeResponse, error)

	// ValidateCode 校验验证码，成功后码被消费且号码记为已验证
	ValidateCode(req *domain.ValidateCodeRequest) (*domain.ValidateCodeResponse, error)

	// IsVerified 查询手机号当前验证状态
	IsVerified(phone string) (bool, error)
}

// verificationService 是 VerificationService 接口的实现
type verificationService struct {
	verificationRepo repo.VerificationRepository
	codeTTL          time.Duration
	exposeCode       bool
	logger           *zap.Logger
}

// NewVerificationService 创建手机验证服务实例
// exposeCode 控制是否在响应中回传验证码，仅限无短信网关的演示环境开启
func NewVerificationService(verificationRepo repo.VerificationRepository, codeTTL time.Duration, exposeCode bool, logger *zap.Logger) VerificationService {
	return &verificationService{
		verificationRepo: verificationRepo,
		codeTTL:          codeTTL,
		exposeCode:       exposeCode,
		logger:           logger,
	}
}

// RequestCode 为手机号签发6位验证码
// 业务规则：
// 1. 已验证的号码不再发码，直接返回已验证标记
// 2. 同号码重复请求时新码覆盖旧码
func (s *verificationService) RequestCode(req *domain.RequestCodeRequest) (*domain.RequestCodeResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	verified, err := s.verificationRepo.GetVerifiedPhone(phone)
	if err != nil {
		s.logger.Error("failed to check verified phone", zap.Error(err))
		return nil, fmt.Errorf("check verified phone: %w", err)
	}
	if verified != nil {
		return &domain.RequestCodeResponse{AlreadyVerified: true}, nil
	}

	code, err := generateCode()
	if err != nil {
		s.logger.Error("failed to generate verification code", zap.Error(err))
		return nil, fmt.Errorf("generate code: %w", err)
	}

	if err := s.verificationRepo.UpsertPendingCode(phone, code); err != nil {
		s.logger.Error("failed to store verification code", zap.Error(err))
		return nil, fmt.Errorf("store code: %w", err)
	}

	s.logger.Info("verification code issued", zap.String("phone", maskPhone(phone)))

	res := &domain.RequestCodeResponse{}
	if s.exposeCode {
		res.MockCode = code
	}
	return res, nil
}

// ValidateCode 校验验证码
// 业务规则：
// 1. 码不存在、已过期或不匹配均返回同一业务错误，不泄露具体原因
// 2. 过期码在校验时惰性删除
// 3. 校验成功即消费：删除待验证码并登记已验证号码
func (s *verificationService) ValidateCode(req *domain.ValidateCodeRequest) (*domain.ValidateCodeResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	pending, err := s.verificationRepo.GetPendingCode(phone)
	if err != nil {
		s.logger.Error("failed to get pending code", zap.Error(err))
		return nil, fmt.Errorf("get pending code: %w", err)
	}
	if pending == nil {
		return nil, ErrInvalidCode
	}

	if pending.IsExpired(s.codeTTL, time.Now()) {
		if err := s.verificationRepo.DeletePendingCode(phone); err != nil {
			s.logger.Warn("failed to delete expired code", zap.Error(err))
		}
		return nil, ErrInvalidCode
	}

	if pending.Code != strings.TrimSpace(req.Code) {
		return nil, ErrInvalidCode
	}

	if err := s.verificationRepo.DeletePendingCode(phone); err != nil {
		s.logger.Error("failed to consume code", zap.Error(err))
		return nil, fmt.Errorf("consume code: %w", err)
	}

	if err := s.verificationRepo.UpsertVerifiedPhone(phone); err != nil {
		s.logger.Error("failed to mark phone verified", zap.Error(err))
		return nil, fmt.Errorf("mark phone verified: %w", err)
	}

	s.logger.Info("phone verified", zap.String("phone", maskPhone(phone)))

	return &domain.ValidateCodeResponse{Verified: true}, nil
}

// IsVerified 查询手机号验证状态
func (s *verificationService) IsVerified(phone string) (bool, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return false, err
	}

	verified, err := s.verificationRepo.GetVerifiedPhone(normalized)
	if err != nil {
		return false, fmt.Errorf("check verified phone: %w", err)
	}
	return verified != nil, nil
}

// generateCode 用加密随机源生成6位数字码
func generateCode() (string, error) {
	// [100000, 999999] 保证首位不为0
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// normalizePhone 规范化手机号：去空白，保留前导加号和数字
func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrInvalidPhone
	}

	var b strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
			// 分隔符直接丢弃
		default:
			return "", ErrInvalidPhone
		}
	}

	normalized := b.String()
	digits := strings.TrimPrefix(normalized, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

// maskPhone 日志用手机号脱敏，只保留末四位
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
