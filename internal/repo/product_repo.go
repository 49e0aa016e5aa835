// Package repo 实现数据访问层，负责与数据库的交互。
package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// ProductRepository 定义商品数据访问接口
// 库存有三条互不混用的变更路径：
// - ReserveStock：工作流的条件扣减（stock >= quantity 才生效）；
// - RestituteStock：拒绝购买请求时的精确返还；
// - SetStock：管理员编辑的全量覆盖，绕过预留不变式（权威值）。
type ProductRepository interface {
	Create(product *domain.Product) error
	GetByID(id string) (*domain.Product, error)
	List() ([]*domain.Product, error)
	Update(product *domain.Product) error
	Delete(id string) error

	// 库存操作
	ReserveStock(productID string, quantity int) (bool, error)
	RestituteStock(productID string, quantity int) error
	SetStock(productID string, value int) error
}

// productRepo 实现ProductRepository接口
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, name, description, price, stock, image_url, image_transform, images, category, created_at, updated_at`

// Create 创建商品
func (r *productRepo) Create(product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	transformJSON, imagesJSON, err := marshalMedia(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, stock, image_url, image_transform, images, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.ImageURL,
		transformJSON,
		imagesJSON,
		product.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID 根据ID获取商品
func (r *productRepo) GetByID(id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ?`, productColumns)

	product, err := scanProduct(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}
	return product, nil
}

// List 获取全部商品
func (r *productRepo) List() ([]*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Update 更新商品基础字段
// 不触碰stock列：库存只经由ReserveStock/RestituteStock/SetStock变更，
// 避免把读取时的旧库存值写回去覆盖并发扣减。
func (r *productRepo) Update(product *domain.Product) error {
	transformJSON, imagesJSON, err := marshalMedia(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, image_url = ?, image_transform = ?, images = ?, category = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		transformJSON,
		imagesJSON,
		product.Category,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// Delete 删除商品
func (r *productRepo) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// ReserveStock 条件扣减库存
// 检查与扣减在同一条UPDATE中完成，并发提交不可能把库存扣成负数。
// 返回 false 表示库存不足（受影响行数为0）。
func (r *productRepo) ReserveStock(productID string, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`
	result, err := r.db.Exec(query, quantity, productID, quantity)
	if err != nil {
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// RestituteStock 返还库存
// 只在拒绝购买请求时调用，返还量等于当初的扣减量，无需上界检查。
func (r *productRepo) RestituteStock(productID string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to restitute stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// SetStock 管理员全量覆盖库存
func (r *productRepo) SetStock(productID string, value int) error {
	result, err := r.db.Exec(`UPDATE products SET stock = ? WHERE id = ?`, value, productID)
	if err != nil {
		return fmt.Errorf("failed to set stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProduct 从结果行构建商品对象，JSON列为空时保持零值
func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var transformJSON, imagesJSON sql.NullString

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.ImageURL,
		&transformJSON,
		&imagesJSON,
		&product.Category,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if transformJSON.Valid && transformJSON.String != "" {
		var t domain.ImageTransform
		if err := json.Unmarshal([]byte(transformJSON.String), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal image transform: %w", err)
		}
		product.ImageTransform = &t
	}
	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &product.Images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}
	return product, nil
}

// marshalMedia 序列化商品的媒体JSON列
func marshalMedia(product *domain.Product) (transform, images interface{}, err error) {
	if product.ImageTransform != nil {
		data, err := json.Marshal(product.ImageTransform)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal image transform: %w", err)
		}
		transform = string(data)
	}
	if product.Images != nil {
		data, err := json.Marshal(product.Images)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal images: %w", err)
		}
		images = string(data)
	}
	return transform, images, nil
}
