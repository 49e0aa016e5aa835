// Package repo 实现店铺配置的数据访问层。
package repo

import (
	"database/sql"
	"fmt"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// StoreConfigRepository 定义店铺配置数据访问接口
// 配置为单行记录，读取不到时返回nil由调用方给默认值。
type StoreConfigRepository interface {
	Get() (*domain.StoreConfig, error)
	Upsert(config *domain.StoreConfig) error
}

// storeConfigRepo 实现StoreConfigRepository接口
type storeConfigRepo struct {
	db *sql.DB
}

// NewStoreConfigRepository 创建店铺配置仓储实例
func NewStoreConfigRepository(db *sql.DB) StoreConfigRepository {
	return &storeConfigRepo{db: db}
}

// Get 获取店铺配置
func (r *storeConfigRepo) Get() (*domain.StoreConfig, error) {
	config := &domain.StoreConfig{}
	err := r.db.QueryRow(`SELECT email, phone FROM store_config WHERE id = 1`).Scan(&config.Email, &config.Phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store config: %w", err)
	}
	return config, nil
}

// Upsert 写入店铺配置
func (r *storeConfigRepo) Upsert(config *domain.StoreConfig) error {
	query := `
		INSERT INTO store_config (id, email, phone)
		VALUES (1, ?, ?)
		ON DUPLICATE KEY UPDATE email = VALUES(email), phone = VALUES(phone)
	`
	_, err := r.db.Exec(query, config.Email, config.Phone)
	if err != nil {
		return fmt.Errorf("failed to upsert store config: %w", err)
	}
	return nil
}
