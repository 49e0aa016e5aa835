// Package repo 实现缺货登记与定制请求台账的数据访问层。
// 这两类请求只记录需求，不触碰库存；状态迁移同样走pending门控的条件UPDATE。
package repo

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// OutOfStockRequestRepository 定义缺货登记数据访问接口
type OutOfStockRequestRepository interface {
	Create(request *domain.OutOfStockRequest) error
	GetByID(id string) (*domain.OutOfStockRequest, error)
	List() ([]*domain.OutOfStockRequest, error)
	UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error)
}

// CustomRequestRepository 定义定制请求数据访问接口
type CustomRequestRepository interface {
	Create(request *domain.CustomRequest) error
	GetByID(id string) (*domain.CustomRequest, error)
	List() ([]*domain.CustomRequest, error)
	UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error)
}

// outOfStockRequestRepo 实现OutOfStockRequestRepository接口
type outOfStockRequestRepo struct {
	db *sql.DB
}

// NewOutOfStockRequestRepository 创建缺货登记仓储实例
func NewOutOfStockRequestRepository(db *sql.DB) OutOfStockRequestRepository {
	return &outOfStockRequestRepo{db: db}
}

// Create 创建缺货登记
func (r *outOfStockRequestRepo) Create(request *domain.OutOfStockRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}

	query := `
		INSERT INTO out_of_stock_requests (id, product_id, product_name, phone, quantity, verified, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		request.ID,
		request.ProductID,
		request.ProductName,
		request.Phone,
		request.Quantity,
		request.Verified,
		request.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create out of stock request: %w", err)
	}
	return nil
}

// GetByID 根据ID获取缺货登记
func (r *outOfStockRequestRepo) GetByID(id string) (*domain.OutOfStockRequest, error) {
	query := `
		SELECT id, product_id, product_name, phone, quantity, verified, status, created_at, updated_at
		FROM out_of_stock_requests
		WHERE id = ?
	`
	request := &domain.OutOfStockRequest{}
	err := r.db.QueryRow(query, id).Scan(
		&request.ID,
		&request.ProductID,
		&request.ProductName,
		&request.Phone,
		&request.Quantity,
		&request.Verified,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get out of stock request by id: %w", err)
	}
	return request, nil
}

// List 获取全部缺货登记
func (r *outOfStockRequestRepo) List() ([]*domain.OutOfStockRequest, error) {
	query := `
		SELECT id, product_id, product_name, phone, quantity, verified, status, created_at, updated_at
		FROM out_of_stock_requests
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query out of stock requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.OutOfStockRequest
	for rows.Next() {
		request := &domain.OutOfStockRequest{}
		err := rows.Scan(
			&request.ID,
			&request.ProductID,
			&request.ProductName,
			&request.Phone,
			&request.Quantity,
			&request.Verified,
			&request.Status,
			&request.CreatedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan out of stock request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// UpdateStatusIfPending 仅当登记仍为pending时迁移状态
func (r *outOfStockRequestRepo) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE out_of_stock_requests SET status = ? WHERE id = ? AND status = 'pending'`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update out of stock request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// customRequestRepo 实现CustomRequestRepository接口
type customRequestRepo struct {
	db *sql.DB
}

// NewCustomRequestRepository 创建定制请求仓储实例
func NewCustomRequestRepository(db *sql.DB) CustomRequestRepository {
	return &customRequestRepo{db: db}
}

// Create 创建定制请求
func (r *customRequestRepo) Create(request *domain.CustomRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = domain.RequestStatusPending
	}

	query := `
		INSERT INTO custom_requests (id, phone, description, quantity, verified, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		request.ID,
		request.Phone,
		request.Description,
		request.Quantity,
		request.Verified,
		request.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create custom request: %w", err)
	}
	return nil
}

// GetByID 根据ID获取定制请求
func (r *customRequestRepo) GetByID(id string) (*domain.CustomRequest, error) {
	query := `
		SELECT id, phone, description, quantity, verified, status, created_at, updated_at
		FROM custom_requests
		WHERE id = ?
	`
	request := &domain.CustomRequest{}
	err := r.db.QueryRow(query, id).Scan(
		&request.ID,
		&request.Phone,
		&request.Description,
		&request.Quantity,
		&request.Verified,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom request by id: %w", err)
	}
	return request, nil
}

// List 获取全部定制请求
func (r *customRequestRepo) List() ([]*domain.CustomRequest, error) {
	query := `
		SELECT id, phone, description, quantity, verified, status, created_at, updated_at
		FROM custom_requests
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.CustomRequest
	for rows.Next() {
		request := &domain.CustomRequest{}
		err := rows.Scan(
			&request.ID,
			&request.Phone,
			&request.Description,
			&request.Quantity,
			&request.Verified,
			&request.Status,
			&request.CreatedAt,
			&request.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan custom request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// UpdateStatusIfPending 仅当请求仍为pending时迁移状态
func (r *customRequestRepo) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	result, err := r.db.Exec(
		`UPDATE custom_requests SET status = ? WHERE id = ? AND status = 'pending'`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update custom request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}
