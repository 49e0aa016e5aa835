// Package domain 定义商品相关的业务领域模型和核心业务规则。
package domain

import (
	"time"
)

// ImageTransform 表示商品主图的展示变换参数
type ImageTransform struct {
	Scale float64 `json:"scale"` // 缩放比例
	X     float64 `json:"x"`     // 横向位置（百分比）
	Y     float64 `json:"y"`     // 纵向位置（百分比）
}

// DefaultImageTransform 返回默认的图片变换参数
func DefaultImageTransform() *ImageTransform {
	return &ImageTransform{Scale: 1.0, X: 50, Y: 50}
}

// ProductImage 表示商品图库中的一项媒体资源
type ProductImage struct {
	URL         string          `json:"url"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"` // image 或 video
	Transform   *ImageTransform `json:"transform,omitempty"`
}

// Product 表示商品领域模型
// 库存不变式：stock >= 0 恒成立。库存只能通过两条路径变化：
// 1) 管理员目录编辑（全量覆盖，权威值）；
// 2) 请求工作流的预留/返还操作（有界增减）。
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          float64         `json:"price"`
	Stock          int             `json:"stock"`
	ImageURL       *string         `json:"image_url,omitempty"`
	ImageTransform *ImageTransform `json:"image_transform,omitempty"`
	Images         []ProductImage  `json:"images"`
	Category       *string         `json:"category,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HasStock 判断库存是否足以覆盖给定数量
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// CreateProductRequest 表示创建商品请求
type CreateProductRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          float64         `json:"price"`
	Stock          int             `json:"stock"`
	ImageURL       *string         `json:"image_url"`
	ImageTransform *ImageTransform `json:"image_transform"`
	Images         []ProductImage  `json:"images"`
	Category       *string         `json:"category"`
}

// UpdateProductRequest 表示更新商品请求
// 指针字段为 nil 表示不修改该字段。Stock 在此处为管理员的全量覆盖，
// 不经过工作流的条件扣减路径。
type UpdateProductRequest struct {
	Name           *string         `json:"name"`
	Description    *string         `json:"description"`
	Price          *float64        `json:"price"`
	Stock          *int            `json:"stock"`
	ImageURL       *string         `json:"image_url"`
	ImageTransform *ImageTransform `json:"image_transform"`
	Images         []ProductImage  `json:"images"`
	Category       *string         `json:"category"`
}
