// Package service 商品目录的业务逻辑实现。
package service

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/repo"
)

// 商品相关业务错误
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product data")
)

// ProductService 定义商品目录服务接口
type ProductService interface {
	CreateProduct(req *domain.CreateProductRequest) (*domain.Product, error)
	GetProduct(id string) (*domain.Product, error)
	ListProducts() ([]*domain.Product, error)
	UpdateProduct(id string, req *domain.UpdateProductRequest) (*domain.Product, error)
	DeleteProduct(id string) error
}

// productService 实现ProductService接口
type productService struct {
	productRepo repo.ProductRepository
	logger      *zap.Logger
}

// NewProductService 创建商品服务实例
func NewProductService(productRepo repo.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// CreateProduct 创建商品
func (s *productService) CreateProduct(req *domain.CreateProductRequest) (*domain.Product, error) {
	if err := validateProductInput(req.Name, req.Price, req.Stock); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		Price:          req.Price,
		Stock:          req.Stock,
		ImageURL:       req.ImageURL,
		ImageTransform: req.ImageTransform,
		Images:         req.Images,
		Category:       req.Category,
	}
	if product.ImageTransform == nil {
		product.ImageTransform = domain.DefaultImageTransform()
	}
	if product.Images == nil {
		product.Images = []domain.ProductImage{}
	}

	if err := s.productRepo.Create(product); err != nil {
		s.logger.Error("failed to create product", zap.Error(err))
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock),
	)

	return product, nil
}

// GetProduct 获取商品详情
func (s *productService) GetProduct(id string) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListProducts 列出全部商品
func (s *productService) ListProducts() ([]*domain.Product, error) {
	products, err := s.productRepo.List()
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct 更新商品
// 指针字段为nil表示保留原值；Stock在此处是管理员的全量覆盖
func (s *productService) UpdateProduct(id string, req *domain.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	if req.ImageTransform != nil {
		product.ImageTransform = req.ImageTransform
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.Category != nil {
		product.Category = req.Category
	}

	targetStock := product.Stock
	if req.Stock != nil {
		targetStock = *req.Stock
	}
	if err := validateProductInput(product.Name, product.Price, targetStock); err != nil {
		return nil, err
	}

	if err := s.productRepo.Update(product); err != nil {
		s.logger.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("update product: %w", err)
	}

	// 库存走独立的全量覆盖路径，管理员给出的值是权威值
	if req.Stock != nil {
		if err := s.productRepo.SetStock(id, *req.Stock); err != nil {
			s.logger.Error("failed to set stock", zap.String("product_id", id), zap.Error(err))
			return nil, fmt.Errorf("set stock: %w", err)
		}
		product.Stock = *req.Stock
	}

	s.logger.Info("product updated", zap.String("product_id", product.ID))

	return product, nil
}

// DeleteProduct 删除商品
func (s *productService) DeleteProduct(id string) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	if err := s.productRepo.Delete(id); err != nil {
		s.logger.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// validateProductInput 商品字段基础校验
func validateProductInput(name string, price float64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}
