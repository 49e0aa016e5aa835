// Package repo 实现购买请求台账的数据访问层。
package repo

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// PurchaseRequestRepository 定义购买请求数据访问接口
// 状态迁移通过条件UPDATE（id且status='pending'）实现，
// 单条语句即保证pending门控的原子性。
type PurchaseRequestRepository interface {
	Create(request *domain.PurchaseRequest) error
	GetByID(id string) (*domain.PurchaseRequest, error)
	List() ([]*domain.PurchaseRequest, error)
	UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error)
}

// purchaseRequestRepo 实现PurchaseRequestRepository接口
type purchaseRequestRepo struct {
	db *sql.DB
}

// NewPurchaseRequestRepository 创建购买请求仓储实例
func NewPurchaseRequestRepository(db *sql.DB) PurchaseRequestRepository {
	return &purchaseRequestRepo{db: db}
}

const purchaseRequestColumns = `id, user_email, user_name, user_phone, product_id, product_name, quantity, total_price, status, created_at, updated_at`

// Create 创建购买请求
func (r *purchaseRequestRepo) Create(request *domain.PurchaseRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}

	query := `
		INSERT INTO purchase_requests (id, user_email, user_name, user_phone, product_id, product_name, quantity, total_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		request.ID,
		request.UserEmail,
		request.UserName,
		request.UserPhone,
		request.ProductID,
		request.ProductName,
		request.Quantity,
		request.TotalPrice,
		request.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase request: %w", err)
	}
	return nil
}

// GetByID 根据ID获取购买请求
func (r *purchaseRequestRepo) GetByID(id string) (*domain.PurchaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE id = ?`, purchaseRequestColumns)

	request := &domain.PurchaseRequest{}
	err := r.db.QueryRow(query, id).Scan(
		&request.ID,
		&request.UserEmail,
		&request.UserName,
		&request.UserPhone,
		&request.ProductID,
		&request.ProductName,
		&request.Quantity,
		&request.TotalPrice,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase request by id: %w", err)
	}
	return request, nil
}

// List 获取全部购买请求
func (r *purchaseRequestRepo) List() ([]*domain.PurchaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests ORDER BY created_at DESC`, purchaseRequestColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.PurchaseRequest
	for rows.Next() {
		request := &domain.PurchaseRequest{}
		err := rows.Scan(
			&request.ID,
			&request.UserEmail,
			&request.UserName,
			&request.UserPhone,
			&request.ProductID,
			&request.ProductName,
			&request.Quantity,
			&request.TotalPrice,
			&request.Status,
			&request.CreatedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// UpdateStatusIfPending 仅当请求仍为pending时迁移状态
// 返回 false 表示没有行被更新（请求不存在或已处于终态，由调用方区分）。
func (r *purchaseRequestRepo) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	query := `
		UPDATE purchase_requests
		SET status = ?
		WHERE id = ? AND status = 'pending'
	`
	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to update purchase request status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}
