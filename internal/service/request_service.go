// Package service 客户请求工作流的业务逻辑实现。
// 购买请求提交时原子占用库存，拒绝时精确返还；三类请求共用
// pending -> completed | rejected 状态机，终态一经写入不可再变。
package service

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
	"github.com/jamthebest/Sales-web-page/internal/notify"
	"github.com/jamthebest/Sales-web-page/internal/repo"
)

// 工作流相关业务错误
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrRequestNotFound   = errors.New("request not found")
	ErrInvalidState      = errors.New("request already resolved")
	ErrInvalidRequest    = errors.New("invalid request data")
	ErrUnknownKind       = errors.New("unknown request kind")
)

// RequestService 定义客户请求工作流服务接口
type RequestService interface {
	// SubmitPurchase 提交购买请求，原子扣减库存
	SubmitPurchase(req *domain.SubmitPurchaseRequest) (*domain.PurchaseRequest, error)

	// SubmitOutOfStock 提交缺货登记，不触碰库存
	SubmitOutOfStock(req *domain.SubmitOutOfStockRequest) (*domain.OutOfStockRequest, error)

	// SubmitCustom 提交定制商品请求
	SubmitCustom(req *domain.SubmitCustomRequest) (*domain.CustomRequest, error)

	// ListRequests 按种类分组列出全部请求（管理端）
	ListRequests() (*domain.RequestsByKind, error)

	// CompleteRequest 将待处理请求标记为已完成
	CompleteRequest(kind domain.RequestKind, id string) error

	// RejectRequest 将待处理请求标记为已拒绝；购买请求拒绝时返还库存
	RejectRequest(kind domain.RequestKind, id string) error
}

// requestService 实现RequestService接口
type requestService struct {
	productRepo    repo.ProductRepository
	purchaseRepo   repo.PurchaseRequestRepository
	outOfStockRepo repo.OutOfStockRequestRepository
	customRepo     repo.CustomRequestRepository
	verification   repo.VerificationRepository
	configRepo     repo.StoreConfigRepository
	dispatcher     *notify.Dispatcher
	fallbackEmail  string
	logger         *zap.Logger
}

// NewRequestService 创建请求工作流服务实例
func NewRequestService(
	productRepo repo.ProductRepository,
	purchaseRepo repo.PurchaseRequestRepository,
	outOfStockRepo repo.OutOfStockRequestRepository,
	customRepo repo.CustomRequestRepository,
	verification repo.VerificationRepository,
	configRepo repo.StoreConfigRepository,
	dispatcher *notify.Dispatcher,
	fallbackEmail string,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		productRepo:    productRepo,
		purchaseRepo:   purchaseRepo,
		outOfStockRepo: outOfStockRepo,
		customRepo:     customRepo,
		verification:   verification,
		configRepo:     configRepo,
		dispatcher:     dispatcher,
		fallbackEmail:  fallbackEmail,
		logger:         logger,
	}
}

// SubmitPurchase 提交购买请求
// 业务规则：
// 1. 库存扣减走条件更新，并发提交时超过库存的请求整体失败，绝不超卖
// 2. 先占库存再落请求行，落库失败时返还库存，避免出现无主扣减
// 3. 商品名与总价在提交时快照，后续改价不影响已提交请求
func (s *requestService) SubmitPurchase(req *domain.SubmitPurchaseRequest) (*domain.PurchaseRequest, error) {
	if err := validatePurchaseInput(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(req.ProductID)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	reserved, err := s.productRepo.ReserveStock(req.ProductID, req.Quantity)
	if err != nil {
		s.logger.Error("failed to reserve stock",
			zap.String("product_id", req.ProductID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, fmt.Errorf("reserve stock: %w", err)
	}
	if !reserved {
		return nil, ErrInsufficientStock
	}

	purchase := &domain.PurchaseRequest{
		UserEmail:   strings.TrimSpace(req.UserEmail),
		UserName:    strings.TrimSpace(req.UserName),
		UserPhone:   strings.TrimSpace(req.UserPhone),
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		TotalPrice:  product.Price * float64(req.Quantity),
		Status:      domain.RequestStatusPending,
	}

	if err := s.purchaseRepo.Create(purchase); err != nil {
		// 请求行没写成，占掉的库存必须还回去
		if restErr := s.productRepo.RestituteStock(req.ProductID, req.Quantity); restErr != nil {
			s.logger.Error("failed to restitute stock after create failure",
				zap.String("product_id", req.ProductID),
				zap.Int("quantity", req.Quantity),
				zap.Error(restErr))
		}
		s.logger.Error("failed to create purchase request", zap.Error(err))
		return nil, fmt.Errorf("create purchase request: %w", err)
	}

	s.logger.Info("purchase request submitted",
		zap.String("request_id", purchase.ID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", purchase.Quantity),
	)

	s.notifyOwner("New purchase request",
		fmt.Sprintf("<p>%s requested %d x %s (total %.2f).</p><p>Contact: %s / %s</p>",
			purchase.UserName, purchase.Quantity, purchase.ProductName,
			purchase.TotalPrice, purchase.UserEmail, purchase.UserPhone))

	return purchase, nil
}

// SubmitOutOfStock 提交缺货登记
// 不做库存操作，只快照当前手机号的验证状态
func (s *requestService) SubmitOutOfStock(req *domain.SubmitOutOfStockRequest) (*domain.OutOfStockRequest, error) {
	if req.ProductID == "" || req.Quantity <= 0 || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: product, phone and positive quantity are required", ErrInvalidRequest)
	}

	product, err := s.productRepo.GetByID(req.ProductID)
	if err != nil {
		s.logger.Error("failed to get product", zap.String("product_id", req.ProductID), zap.Error(err))
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	phone := strings.TrimSpace(req.Phone)
	verified := s.snapshotVerified(phone)

	request := &domain.OutOfStockRequest{
		ProductID:   product.ID,
		ProductName: product.Name,
		Phone:       phone,
		Quantity:    req.Quantity,
		Verified:    verified,
		Status:      domain.RequestStatusPending,
	}

	if err := s.outOfStockRepo.Create(request); err != nil {
		s.logger.Error("failed to create out-of-stock request", zap.Error(err))
		return nil, fmt.Errorf("create out-of-stock request: %w", err)
	}

	s.logger.Info("out-of-stock request submitted",
		zap.String("request_id", request.ID),
		zap.String("product_id", product.ID),
	)

	s.notifyOwner("New out-of-stock request",
		fmt.Sprintf("<p>Someone wants %d x %s when it is back in stock.</p><p>Phone: %s</p>",
			request.Quantity, request.ProductName, request.Phone))

	return request, nil
}

// SubmitCustom 提交定制商品请求
func (s *requestService) SubmitCustom(req *domain.SubmitCustomRequest) (*domain.CustomRequest, error) {
	if strings.TrimSpace(req.Description) == "" || req.Quantity <= 0 || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: description, phone and positive quantity are required", ErrInvalidRequest)
	}

	phone := strings.TrimSpace(req.Phone)
	verified := s.snapshotVerified(phone)

	request := &domain.CustomRequest{
		Phone:       phone,
		Description: strings.TrimSpace(req.Description),
		Quantity:    req.Quantity,
		Verified:    verified,
		Status:      domain.RequestStatusPending,
	}

	if err := s.customRepo.Create(request); err != nil {
		s.logger.Error("failed to create custom request", zap.Error(err))
		return nil, fmt.Errorf("create custom request: %w", err)
	}

	s.logger.Info("custom request submitted", zap.String("request_id", request.ID))

	s.notifyOwner("New custom product request",
		fmt.Sprintf("<p>Custom request (x%d): %s</p><p>Phone: %s</p>",
			request.Quantity, request.Description, request.Phone))

	return request, nil
}

// snapshotVerified 读取手机号当前验证状态并刷新其最近使用时间
// 查询前先做与验证台账一致的规范化，保证带格式符的号码也能命中；
// 验证状态只影响请求上的标记，不阻断提交
func (s *requestService) snapshotVerified(phone string) bool {
	normalized, err := normalizePhone(phone)
	if err != nil {
		// 台账里只存规范化号码，无法规范化的号码必然未验证
		return false
	}

	verified, err := s.verification.GetVerifiedPhone(normalized)
	if err != nil {
		s.logger.Warn("failed to check phone verification", zap.Error(err))
		return false
	}
	if verified == nil {
		return false
	}
	if err := s.verification.TouchVerifiedPhone(normalized); err != nil {
		s.logger.Warn("failed to touch verified phone", zap.Error(err))
	}
	return true
}

// ListRequests 按种类分组列出全部请求
func (s *requestService) ListRequests() (*domain.RequestsByKind, error) {
	purchases, err := s.purchaseRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list purchase requests: %w", err)
	}

	outOfStock, err := s.outOfStockRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list out-of-stock requests: %w", err)
	}

	custom, err := s.customRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}

	return &domain.RequestsByKind{
		PurchaseRequests:   purchases,
		OutOfStockRequests: outOfStock,
		CustomRequests:     custom,
	}, nil
}

// CompleteRequest 将待处理请求标记为已完成
// 状态迁移走条件更新，只有pending行会被改写；并发处理同一请求时
// 恰好一个操作成功，其余得到已终结错误
func (s *requestService) CompleteRequest(kind domain.RequestKind, id string) error {
	return s.resolve(kind, id, domain.RequestStatusCompleted)
}

// RejectRequest 将待处理请求标记为已拒绝
// 购买请求在状态迁移成功后按数量返还库存，返还只在迁移成功时执行一次
func (s *requestService) RejectRequest(kind domain.RequestKind, id string) error {
	if kind == domain.RequestKindPurchase {
		return s.rejectPurchase(id)
	}
	return s.resolve(kind, id, domain.RequestStatusRejected)
}

// rejectPurchase 拒绝购买请求并返还库存
func (s *requestService) rejectPurchase(id string) error {
	purchase, err := s.purchaseRepo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get purchase request", zap.String("request_id", id), zap.Error(err))
		return fmt.Errorf("get purchase request: %w", err)
	}
	if purchase == nil {
		return ErrRequestNotFound
	}

	updated, err := s.purchaseRepo.UpdateStatusIfPending(id, domain.RequestStatusRejected)
	if err != nil {
		s.logger.Error("failed to reject purchase request", zap.String("request_id", id), zap.Error(err))
		return fmt.Errorf("reject purchase request: %w", err)
	}
	if !updated {
		return ErrInvalidState
	}

	// 迁移成功者独占返还，重复拒绝在上一步就被挡掉
	if err := s.productRepo.RestituteStock(purchase.ProductID, purchase.Quantity); err != nil {
		s.logger.Error("failed to restitute stock on reject",
			zap.String("request_id", id),
			zap.String("product_id", purchase.ProductID),
			zap.Int("quantity", purchase.Quantity),
			zap.Error(err))
		return fmt.Errorf("restitute stock: %w", err)
	}

	s.logger.Info("purchase request rejected",
		zap.String("request_id", id),
		zap.String("product_id", purchase.ProductID),
		zap.Int("restituted", purchase.Quantity),
	)

	return nil
}

// resolve 通用的状态迁移路径（不涉及库存）
func (s *requestService) resolve(kind domain.RequestKind, id string, status domain.RequestStatus) error {
	exists, updated, err := s.transition(kind, id, status)
	if err != nil {
		s.logger.Error("failed to resolve request",
			zap.String("kind", string(kind)),
			zap.String("request_id", id),
			zap.Error(err))
		return fmt.Errorf("resolve request: %w", err)
	}
	if !exists {
		return ErrRequestNotFound
	}
	if !updated {
		return ErrInvalidState
	}

	s.logger.Info("request resolved",
		zap.String("kind", string(kind)),
		zap.String("request_id", id),
		zap.String("status", string(status)),
	)

	return nil
}

// transition 按种类分派条件状态更新，返回（是否存在，是否更新成功）
func (s *requestService) transition(kind domain.RequestKind, id string, status domain.RequestStatus) (bool, bool, error) {
	switch kind {
	case domain.RequestKindPurchase:
		request, err := s.purchaseRepo.GetByID(id)
		if err != nil || request == nil {
			return false, false, err
		}
		updated, err := s.purchaseRepo.UpdateStatusIfPending(id, status)
		return true, updated, err
	case domain.RequestKindOutOfStock:
		request, err := s.outOfStockRepo.GetByID(id)
		if err != nil || request == nil {
			return false, false, err
		}
		updated, err := s.outOfStockRepo.UpdateStatusIfPending(id, status)
		return true, updated, err
	case domain.RequestKindCustom:
		request, err := s.customRepo.GetByID(id)
		if err != nil || request == nil {
			return false, false, err
		}
		updated, err := s.customRepo.UpdateStatusIfPending(id, status)
		return true, updated, err
	default:
		return false, false, ErrUnknownKind
	}
}

// notifyOwner 异步通知店主，收件人优先取店铺配置，缺省回退到环境配置
func (s *requestService) notifyOwner(subject, htmlBody string) {
	if s.dispatcher == nil {
		return
	}

	recipient := s.fallbackEmail
	if cfg, err := s.configRepo.Get(); err != nil {
		s.logger.Warn("failed to load store config for notification", zap.Error(err))
	} else if cfg != nil && cfg.Email != "" {
		recipient = cfg.Email
	}
	if recipient == "" {
		return
	}

	s.dispatcher.Enqueue(notify.Message{
		Recipient: recipient,
		Subject:   subject,
		HTMLBody:  htmlBody,
	})
}

// validatePurchaseInput 购买请求入参校验
func validatePurchaseInput(req *domain.SubmitPurchaseRequest) error {
	if req.ProductID == "" {
		return fmt.Errorf("%w: product_id is required", ErrInvalidRequest)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.UserEmail) == "" {
		return fmt.Errorf("%w: name and email are required", ErrInvalidRequest)
	}
	return nil
}
