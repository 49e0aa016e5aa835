package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

// Mock ProductRepository for testing
type mockProductRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[string]*domain.Product),
	}
}

func (m *mockProductRepository) Create(product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) GetByID(id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[id]
	if !exists {
		return nil, nil
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List() ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Product
	for _, product := range m.products {
		copied := *product
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockProductRepository) Update(product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, exists := m.products[product.ID]
	if !exists {
		return errors.New("product not found")
	}
	copied := *product
	// 库存列不经由Update变更
	copied.Stock = existing.Stock
	copied.UpdatedAt = time.Now()
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[id]; !exists {
		return errors.New("product not found")
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) ReserveStock(productID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return false, nil
	}
	if product.Stock < quantity {
		return false, nil
	}
	product.Stock -= quantity
	return true, nil
}

func (m *mockProductRepository) RestituteStock(productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return errors.New("product not found")
	}
	product.Stock += quantity
	return nil
}

func (m *mockProductRepository) SetStock(productID string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return errors.New("product not found")
	}
	product.Stock = value
	return nil
}

// Mock PurchaseRequestRepository for testing
type mockPurchaseRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*domain.PurchaseRequest
	failNext bool
}

func newMockPurchaseRequestRepository() *mockPurchaseRequestRepository {
	return &mockPurchaseRequestRepository{
		requests: make(map[string]*domain.PurchaseRequest),
	}
}

func (m *mockPurchaseRequestRepository) Create(request *domain.PurchaseRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("simulated create failure")
	}
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.requests[request.ID] = request
	return nil
}

func (m *mockPurchaseRequestRepository) GetByID(id string) (*domain.PurchaseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockPurchaseRequestRepository) List() ([]*domain.PurchaseRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.PurchaseRequest
	for _, request := range m.requests {
		copied := *request
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockPurchaseRequestRepository) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists || request.Status != domain.RequestStatusPending {
		return false, nil
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return true, nil
}

// Mock OutOfStockRequestRepository for testing
type mockOutOfStockRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*domain.OutOfStockRequest
}

func newMockOutOfStockRequestRepository() *mockOutOfStockRequestRepository {
	return &mockOutOfStockRequestRepository{
		requests: make(map[string]*domain.OutOfStockRequest),
	}
}

func (m *mockOutOfStockRequestRepository) Create(request *domain.OutOfStockRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.requests[request.ID] = request
	return nil
}

func (m *mockOutOfStockRequestRepository) GetByID(id string) (*domain.OutOfStockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockOutOfStockRequestRepository) List() ([]*domain.OutOfStockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.OutOfStockRequest
	for _, request := range m.requests {
		copied := *request
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockOutOfStockRequestRepository) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists || request.Status != domain.RequestStatusPending {
		return false, nil
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return true, nil
}

// Mock CustomRequestRepository for testing
type mockCustomRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*domain.CustomRequest
}

func newMockCustomRequestRepository() *mockCustomRequestRepository {
	return &mockCustomRequestRepository{
		requests: make(map[string]*domain.CustomRequest),
	}
}

func (m *mockCustomRequestRepository) Create(request *domain.CustomRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.requests[request.ID] = request
	return nil
}

func (m *mockCustomRequestRepository) GetByID(id string) (*domain.CustomRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockCustomRequestRepository) List() ([]*domain.CustomRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.CustomRequest
	for _, request := range m.requests {
		copied := *request
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockCustomRequestRepository) UpdateStatusIfPending(id string, status domain.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, exists := m.requests[id]
	if !exists || request.Status != domain.RequestStatusPending {
		return false, nil
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return true, nil
}

// Mock VerificationRepository for testing
type mockVerificationRepository struct {
	mu       sync.Mutex
	pending  map[string]*domain.PendingVerification
	verified map[string]*domain.VerifiedPhone
}

func newMockVerificationRepository() *mockVerificationRepository {
	return &mockVerificationRepository{
		pending:  make(map[string]*domain.PendingVerification),
		verified: make(map[string]*domain.VerifiedPhone),
	}
}

func (m *mockVerificationRepository) UpsertPendingCode(phone, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[phone] = &domain.PendingVerification{
		Phone:     phone,
		Code:      code,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockVerificationRepository) GetPendingCode(phone string) (*domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending, exists := m.pending[phone]
	if !exists {
		return nil, nil
	}
	copied := *pending
	return &copied, nil
}

func (m *mockVerificationRepository) DeletePendingCode(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, phone)
	return nil
}

func (m *mockVerificationRepository) GetVerifiedPhone(phone string) (*domain.VerifiedPhone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	verified, exists := m.verified[phone]
	if !exists {
		return nil, nil
	}
	copied := *verified
	return &copied, nil
}

func (m *mockVerificationRepository) UpsertVerifiedPhone(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.verified[phone] = &domain.VerifiedPhone{
		Phone:      phone,
		VerifiedAt: now,
		LastUsed:   now,
	}
	return nil
}

func (m *mockVerificationRepository) TouchVerifiedPhone(phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if verified, exists := m.verified[phone]; exists {
		verified.LastUsed = time.Now()
	}
	return nil
}

// Mock StoreConfigRepository for testing
type mockStoreConfigRepository struct {
	mu     sync.Mutex
	config *domain.StoreConfig
}

func newMockStoreConfigRepository() *mockStoreConfigRepository {
	return &mockStoreConfigRepository{}
}

func (m *mockStoreConfigRepository) Get() (*domain.StoreConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return nil, nil
	}
	copied := *m.config
	return &copied, nil
}

func (m *mockStoreConfigRepository) Upsert(config *domain.StoreConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *config
	m.config = &copied
	return nil
}

// Mock UserRepository for testing
type mockUserRepository struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	sessions map[string]*domain.Session
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:    make(map[string]*domain.User),
		sessions: make(map[string]*domain.Session),
	}
}

func (m *mockUserRepository) Create(user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[id]
	if !exists {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) UpdateRole(id string, role domain.UserRole) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[id]
	if !exists {
		return false, nil
	}
	user.Role = role
	return true, nil
}

func (m *mockUserRepository) CreateSession(session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.CreatedAt = time.Now()
	m.sessions[session.SessionToken] = session
	return nil
}

func (m *mockUserRepository) GetSession(token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[token]
	if !exists {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *mockUserRepository) DeleteSession(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
