// Package domain 定义客户请求相关的业务领域模型和状态机规则。
package domain

import (
	"time"
)

// RequestStatus 定义请求状态类型
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // 待处理（初始态）
	RequestStatusCompleted RequestStatus = "completed" // 已完成（终态）
	RequestStatusRejected  RequestStatus = "rejected"  // 已拒绝（终态）
)

// IsTerminal 判断状态是否为终态
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusRejected
}

// RequestKind 定义客户请求的种类
type RequestKind string

const (
	RequestKindPurchase   RequestKind = "purchase"     // 购买请求（占用库存）
	RequestKindOutOfStock RequestKind = "out_of_stock" // 缺货登记（不动库存）
	RequestKindCustom     RequestKind = "custom"       // 定制请求（目录外商品）
)

// ValidKind 判断是否为已知的请求种类
func ValidKind(k RequestKind) bool {
	switch k {
	case RequestKindPurchase, RequestKindOutOfStock, RequestKindCustom:
		return true
	}
	return false
}

// PurchaseRequest 表示购买请求领域模型
// 状态机：pending -> completed | rejected，终态不可再迁移。
// 提交时扣减库存，拒绝时按 Quantity 精确返还。
type PurchaseRequest struct {
	ID          string        `json:"id"`
	UserEmail   string        `json:"user_email"`
	UserName    string        `json:"user_name"`
	UserPhone   string        `json:"user_phone"`
	ProductID   string        `json:"product_id"`
	ProductName string        `json:"product_name"` // 提交时的商品名快照
	Quantity    int           `json:"quantity"`
	TotalPrice  float64       `json:"total_price"` // 提交时单价×数量的快照
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsPending 判断请求是否仍待处理
func (r *PurchaseRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// OutOfStockRequest 表示缺货登记领域模型
// 仅记录需求，不触碰库存。
type OutOfStockRequest struct {
	ID          string        `json:"id"`
	ProductID   string        `json:"product_id"`
	ProductName string        `json:"product_name"`
	Phone       string        `json:"phone"`
	Quantity    int           `json:"quantity"`
	Verified    bool          `json:"verified"` // 提交时手机号是否已通过验证
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CustomRequest 表示定制商品请求领域模型
type CustomRequest struct {
	ID          string        `json:"id"`
	Phone       string        `json:"phone"`
	Description string        `json:"description"`
	Quantity    int           `json:"quantity"`
	Verified    bool          `json:"verified"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SubmitPurchaseRequest 表示购买请求的提交入参
type SubmitPurchaseRequest struct {
	ProductID string `json:"product_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	UserPhone string `json:"user_phone"`
	Quantity  int    `json:"quantity"`
}

// SubmitOutOfStockRequest 表示缺货登记的提交入参
type SubmitOutOfStockRequest struct {
	ProductID string `json:"product_id"`
	Phone     string `json:"phone"`
	Quantity  int    `json:"quantity"`
}

// SubmitCustomRequest 表示定制请求的提交入参
type SubmitCustomRequest struct {
	Phone       string `json:"phone"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// RequestsByKind 表示按种类分组的请求列表（管理端视图）
type RequestsByKind struct {
	PurchaseRequests   []*PurchaseRequest   `json:"purchase_requests"`
	OutOfStockRequests []*OutOfStockRequest `json:"out_of_stock_requests"`
	CustomRequests     []*CustomRequest     `json:"custom_requests"`
}
