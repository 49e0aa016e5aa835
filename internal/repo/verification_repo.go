// Package repo 实现手机验证台账的数据访问层。
package repo

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// VerificationRepository 定义手机验证数据访问接口
// 待验证码按手机号分片，键间互不竞争；单文档更新天然原子。
type VerificationRepository interface {
	// 待消费验证码
	UpsertPendingCode(phone, code string) error
	GetPendingCode(phone string) (*domain.PendingVerification, error)
	DeletePendingCode(phone string) error

	// 已验证手机号
	GetVerifiedPhone(phone string) (*domain.VerifiedPhone, error)
	UpsertVerifiedPhone(phone string) error
	TouchVerifiedPhone(phone string) error
}

// verificationRepo 实现VerificationRepository接口
type verificationRepo struct {
	db *sql.DB
}

// NewVerificationRepository 创建手机验证仓储实例
func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepo{db: db}
}

// UpsertPendingCode 写入待消费验证码，覆盖同一手机号的旧码
func (r *verificationRepo) UpsertPendingCode(phone, code string) error {
	query := `
		INSERT INTO pending_verifications (phone, code, created_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE code = VALUES(code), created_at = VALUES(created_at)
	`
	_, err := r.db.Exec(query, phone, code, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert pending code: %w", err)
	}
	return nil
}

// GetPendingCode 获取手机号对应的待消费验证码
func (r *verificationRepo) GetPendingCode(phone string) (*domain.PendingVerification, error) {
	query := `SELECT phone, code, created_at FROM pending_verifications WHERE phone = ?`

	pending := &domain.PendingVerification{}
	err := r.db.QueryRow(query, phone).Scan(&pending.Phone, &pending.Code, &pending.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending code: %w", err)
	}
	return pending, nil
}

// DeletePendingCode 删除待消费验证码（验证成功或过期清理时调用）
func (r *verificationRepo) DeletePendingCode(phone string) error {
	_, err := r.db.Exec(`DELETE FROM pending_verifications WHERE phone = ?`, phone)
	if err != nil {
		return fmt.Errorf("failed to delete pending code: %w", err)
	}
	return nil
}

// GetVerifiedPhone 获取已验证手机号记录
func (r *verificationRepo) GetVerifiedPhone(phone string) (*domain.VerifiedPhone, error) {
	query := `SELECT phone, verified_at, last_used FROM verified_phones WHERE phone = ?`

	verified := &domain.VerifiedPhone{}
	err := r.db.QueryRow(query, phone).Scan(&verified.Phone, &verified.VerifiedAt, &verified.LastUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verified phone: %w", err)
	}
	return verified, nil
}

// UpsertVerifiedPhone 标记手机号为已验证，重复验证刷新时间戳
func (r *verificationRepo) UpsertVerifiedPhone(phone string) error {
	now := time.Now()
	query := `
		INSERT INTO verified_phones (phone, verified_at, last_used)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE verified_at = VALUES(verified_at), last_used = VALUES(last_used)
	`
	_, err := r.db.Exec(query, phone, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert verified phone: %w", err)
	}
	return nil
}

// TouchVerifiedPhone 刷新已验证手机号的最近使用时间
func (r *verificationRepo) TouchVerifiedPhone(phone string) error {
	_, err := r.db.Exec(`UPDATE verified_phones SET last_used = ? WHERE phone = ?`, time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to touch verified phone: %w", err)
	}
	return nil
}
