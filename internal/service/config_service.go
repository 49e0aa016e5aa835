// Package service 店铺联系方式配置的业务逻辑。
package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/repo"
)

// StoreConfigService 定义店铺配置服务接口
type StoreConfigService interface {
	GetConfig() (*domain.StoreConfig, error)
	UpdateConfig(config *domain.StoreConfig) (*domain.StoreConfig, error)
}

// storeConfigService 实现StoreConfigService接口
type storeConfigService struct {
	configRepo repo.StoreConfigRepository
	logger     *zap.Logger
}

// NewStoreConfigService 创建店铺配置服务实例
func NewStoreConfigService(configRepo repo.StoreConfigRepository, logger *zap.Logger) StoreConfigService {
	return &storeConfigService{
		configRepo: configRepo,
		logger:     logger,
	}
}

// GetConfig 读取店铺配置，从未设置过时返回空配置
func (s *storeConfigService) GetConfig() (*domain.StoreConfig, error) {
	config, err := s.configRepo.Get()
	if err != nil {
		s.logger.Error("failed to get store config", zap.Error(err))
		return nil, fmt.Errorf("get store config: %w", err)
	}
	if config == nil {
		return &domain.StoreConfig{}, nil
	}
	return config, nil
}

// UpdateConfig 覆盖写入店铺配置
func (s *storeConfigService) UpdateConfig(config *domain.StoreConfig) (*domain.StoreConfig, error) {
	config.Email = strings.TrimSpace(config.Email)
	config.Phone = strings.TrimSpace(config.Phone)

	if err := s.configRepo.Upsert(config); err != nil {
		s.logger.Error("failed to update store config", zap.Error(err))
		return nil, fmt.Errorf("update store config: %w", err)
	}

	s.logger.Info("store config updated", zap.String("email", config.Email))
	return config, nil
}
