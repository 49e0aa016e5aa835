// Package repo 提供带缓存的商品仓储实现
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jamthebest/Sales-web-page/internal/cache"
	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// CachedProductRepository 带缓存的商品仓储
// 读路径走缓存，写路径（含所有库存变更）直写数据库并使缓存失效，
// 保证条件扣减的判定永远基于数据库中的权威库存值。
type CachedProductRepository struct {
	repo  ProductRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(repo ProductRepository, cache cache.Cache, ttl time.Duration) ProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

// Create 创建商品（清除列表缓存）
func (r *CachedProductRepository) Create(product *domain.Product) error {
	if err := r.repo.Create(product); err != nil {
		return err
	}

	ctx := context.Background()
	_ = r.cache.Del(ctx, productListCacheKey)
	return nil
}

// GetByID 根据ID获取商品（带缓存）
func (r *CachedProductRepository) GetByID(id string) (*domain.Product, error) {
	ctx := context.Background()
	cacheKey := productCacheKey(id)

	var product domain.Product
	if err := r.cache.Get(ctx, cacheKey, &product); err == nil {
		return &product, nil
	}

	result, err := r.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	_ = r.cache.Set(ctx, cacheKey, result, r.ttl)
	return result, nil
}

// List 获取全部商品（带缓存）
func (r *CachedProductRepository) List() ([]*domain.Product, error) {
	ctx := context.Background()

	var products []*domain.Product
	if err := r.cache.Get(ctx, productListCacheKey, &products); err == nil {
		return products, nil
	}

	result, err := r.repo.List()
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, productListCacheKey, result, r.ttl)
	return result, nil
}

// Update 更新商品（清除相关缓存）
func (r *CachedProductRepository) Update(product *domain.Product) error {
	if err := r.repo.Update(product); err != nil {
		return err
	}
	r.invalidate(product.ID)
	return nil
}

// Delete 删除商品（清除相关缓存）
func (r *CachedProductRepository) Delete(id string) error {
	if err := r.repo.Delete(id); err != nil {
		return err
	}
	r.invalidate(id)
	return nil
}

// ReserveStock 条件扣减库存（直写数据库后使缓存失效）
func (r *CachedProductRepository) ReserveStock(productID string, quantity int) (bool, error) {
	ok, err := r.repo.ReserveStock(productID, quantity)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(productID)
	}
	return ok, nil
}

// RestituteStock 返还库存（直写数据库后使缓存失效）
func (r *CachedProductRepository) RestituteStock(productID string, quantity int) error {
	if err := r.repo.RestituteStock(productID, quantity); err != nil {
		return err
	}
	r.invalidate(productID)
	return nil
}

// SetStock 管理员覆盖库存（直写数据库后使缓存失效）
func (r *CachedProductRepository) SetStock(productID string, value int) error {
	if err := r.repo.SetStock(productID, value); err != nil {
		return err
	}
	r.invalidate(productID)
	return nil
}

// invalidate 清除单个商品及列表缓存
func (r *CachedProductRepository) invalidate(productID string) {
	ctx := context.Background()
	_ = r.cache.Del(ctx, productCacheKey(productID), productListCacheKey)
}

const productListCacheKey = "products:list"

// productCacheKey 生成单个商品的缓存键
func productCacheKey(id string) string {
	return fmt.Sprintf("products:id:%s", id)
}
