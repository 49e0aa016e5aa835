package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/domain"
)

type requestServiceFixture struct {
	service        RequestService
	productRepo    *mockProductRepository
	purchaseRepo   *mockPurchaseRequestRepository
	outOfStockRepo *mockOutOfStockRequestRepository
	customRepo     *mockCustomRequestRepository
	verification   *mockVerificationRepository
}

func newRequestServiceFixture() *requestServiceFixture {
	productRepo := newMockProductRepository()
	purchaseRepo := newMockPurchaseRequestRepository()
	outOfStockRepo := newMockOutOfStockRequestRepository()
	customRepo := newMockCustomRequestRepository()
	verification := newMockVerificationRepository()
	configRepo := newMockStoreConfigRepository()

	svc := NewRequestService(productRepo, purchaseRepo, outOfStockRepo, customRepo,
		verification, configRepo, nil, "", zap.NewNop())

	return &requestServiceFixture{
		service:        svc,
		productRepo:    productRepo,
		purchaseRepo:   purchaseRepo,
		outOfStockRepo: outOfStockRepo,
		customRepo:     customRepo,
		verification:   verification,
	}
}

func (f *requestServiceFixture) seedProduct(t *testing.T, price float64, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:  "Handmade Mug",
		Price: price,
		Stock: stock,
	}
	if err := f.productRepo.Create(product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestRequestService_SubmitPurchase(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 25.50, 5)

	tests := []struct {
		name    string
		req     *domain.SubmitPurchaseRequest
		wantErr error
	}{
		{
			name: "valid purchase",
			req: &domain.SubmitPurchaseRequest{
				ProductID: product.ID,
				UserEmail: "buyer@example.com",
				UserName:  "Buyer",
				UserPhone: "+50212345678",
				Quantity:  2,
			},
		},
		{
			name: "quantity exceeds stock",
			req: &domain.SubmitPurchaseRequest{
				ProductID: product.ID,
				UserEmail: "buyer@example.com",
				UserName:  "Buyer",
				Quantity:  10,
			},
			wantErr: ErrInsufficientStock,
		},
		{
			name: "unknown product",
			req: &domain.SubmitPurchaseRequest{
				ProductID: "no-such-product",
				UserEmail: "buyer@example.com",
				UserName:  "Buyer",
				Quantity:  1,
			},
			wantErr: ErrProductNotFound,
		},
		{
			name: "zero quantity",
			req: &domain.SubmitPurchaseRequest{
				ProductID: product.ID,
				UserEmail: "buyer@example.com",
				UserName:  "Buyer",
				Quantity:  0,
			},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "missing contact info",
			req: &domain.SubmitPurchaseRequest{
				ProductID: product.ID,
				Quantity:  1,
			},
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purchase, err := f.service.SubmitPurchase(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SubmitPurchase() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SubmitPurchase() error = %v", err)
			}
			if purchase.Status != domain.RequestStatusPending {
				t.Errorf("Status = %v, want pending", purchase.Status)
			}
			if purchase.ProductName != product.Name {
				t.Errorf("ProductName = %v, want %v", purchase.ProductName, product.Name)
			}
			if want := product.Price * float64(tt.req.Quantity); purchase.TotalPrice != want {
				t.Errorf("TotalPrice = %v, want %v", purchase.TotalPrice, want)
			}
		})
	}

	// 有效购买扣掉2件，剩余库存应为3
	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 3 {
		t.Errorf("remaining stock = %d, want 3", got.Stock)
	}
}

func TestRequestService_SubmitPurchase_SequentialDepletion(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 5)

	req := &domain.SubmitPurchaseRequest{
		ProductID: product.ID,
		UserEmail: "buyer@example.com",
		UserName:  "Buyer",
		Quantity:  3,
	}

	if _, err := f.service.SubmitPurchase(req); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := f.service.SubmitPurchase(req); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("second purchase error = %v, want ErrInsufficientStock", err)
	}

	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 2 {
		t.Errorf("remaining stock = %d, want 2", got.Stock)
	}
}

func TestRequestService_SubmitPurchase_Concurrent(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 10)

	const attempts = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	insufficient := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.SubmitPurchase(&domain.SubmitPurchaseRequest{
				ProductID: product.ID,
				UserEmail: "buyer@example.com",
				UserName:  "Buyer",
				Quantity:  1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("succeeded = %d, want 10", succeeded)
	}
	if insufficient != attempts-10 {
		t.Errorf("insufficient = %d, want %d", insufficient, attempts-10)
	}

	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 0 {
		t.Errorf("remaining stock = %d, want 0", got.Stock)
	}
}

func TestRequestService_SubmitPurchase_RestitutesOnCreateFailure(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 5)
	f.purchaseRepo.failNext = true

	_, err := f.service.SubmitPurchase(&domain.SubmitPurchaseRequest{
		ProductID: product.ID,
		UserEmail: "buyer@example.com",
		UserName:  "Buyer",
		Quantity:  2,
	})
	if err == nil {
		t.Fatal("expected error from failing create")
	}

	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 5 {
		t.Errorf("stock after failed create = %d, want 5", got.Stock)
	}
}

func TestRequestService_RejectPurchase_RestitutesOnce(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 5)

	purchase, err := f.service.SubmitPurchase(&domain.SubmitPurchaseRequest{
		ProductID: product.ID,
		UserEmail: "buyer@example.com",
		UserName:  "Buyer",
		Quantity:  3,
	})
	if err != nil {
		t.Fatalf("submit purchase: %v", err)
	}

	if err := f.service.RejectRequest(domain.RequestKindPurchase, purchase.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 5 {
		t.Errorf("stock after reject = %d, want 5", got.Stock)
	}

	// 重复拒绝被状态机挡住，库存不会二次返还
	if err := f.service.RejectRequest(domain.RequestKindPurchase, purchase.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second reject error = %v, want ErrInvalidState", err)
	}
	got, _ = f.productRepo.GetByID(product.ID)
	if got.Stock != 5 {
		t.Errorf("stock after double reject = %d, want 5", got.Stock)
	}
}

func TestRequestService_CompleteRequest(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 5)

	purchase, err := f.service.SubmitPurchase(&domain.SubmitPurchaseRequest{
		ProductID: product.ID,
		UserEmail: "buyer@example.com",
		UserName:  "Buyer",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("submit purchase: %v", err)
	}

	if err := f.service.CompleteRequest(domain.RequestKindPurchase, purchase.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stored, _ := f.purchaseRepo.GetByID(purchase.ID)
	if stored.Status != domain.RequestStatusCompleted {
		t.Errorf("status = %v, want completed", stored.Status)
	}

	// 完成不返还库存
	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 4 {
		t.Errorf("stock after complete = %d, want 4", got.Stock)
	}

	// 终态请求不可再迁移
	if err := f.service.CompleteRequest(domain.RequestKindPurchase, purchase.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("complete resolved request error = %v, want ErrInvalidState", err)
	}
	if err := f.service.RejectRequest(domain.RequestKindPurchase, purchase.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("reject completed request error = %v, want ErrInvalidState", err)
	}

	// 不存在的请求
	if err := f.service.CompleteRequest(domain.RequestKindPurchase, "missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("complete missing request error = %v, want ErrRequestNotFound", err)
	}

	// 未知种类
	if err := f.service.CompleteRequest(domain.RequestKind("bogus"), purchase.ID); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRequestService_SubmitOutOfStock(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 0)

	// 未验证手机号
	request, err := f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{
		ProductID: product.ID,
		Phone:     "+50212345678",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("submit out-of-stock: %v", err)
	}
	if request.Verified {
		t.Error("Verified = true, want false for unverified phone")
	}
	if request.ProductName != product.Name {
		t.Errorf("ProductName = %v, want %v", request.ProductName, product.Name)
	}

	// 库存不受影响
	got, _ := f.productRepo.GetByID(product.ID)
	if got.Stock != 0 {
		t.Errorf("stock = %d, want 0", got.Stock)
	}

	// 已验证手机号
	if err := f.verification.UpsertVerifiedPhone("+50287654321"); err != nil {
		t.Fatalf("seed verified phone: %v", err)
	}
	request, err = f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{
		ProductID: product.ID,
		Phone:     "+50287654321",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("submit out-of-stock: %v", err)
	}
	if !request.Verified {
		t.Error("Verified = false, want true for verified phone")
	}

	// 缺少字段
	if _, err := f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{ProductID: product.ID}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}

	// 未知商品
	if _, err := f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{
		ProductID: "missing", Phone: "+50212345678", Quantity: 1,
	}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("error = %v, want ErrProductNotFound", err)
	}
}

func TestRequestService_VerifiedSnapshotTracksFormattedPhone(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 0)

	// 走完整验证流程，使用带分隔符的号码
	verifySvc := NewVerificationService(f.verification, 10*time.Minute, true, zap.NewNop())
	const formatted = "+502 1234-5678"

	issued, err := verifySvc.RequestCode(&domain.RequestCodeRequest{Phone: formatted})
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	validated, err := verifySvc.ValidateCode(&domain.ValidateCodeRequest{Phone: formatted, Code: issued.MockCode})
	if err != nil {
		t.Fatalf("validate code: %v", err)
	}
	if !validated.Verified {
		t.Fatal("phone not verified after handshake")
	}

	// 提交时用同一带格式的写法，快照必须命中台账里的规范化号码
	request, err := f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{
		ProductID: product.ID,
		Phone:     formatted,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("submit out-of-stock: %v", err)
	}
	if !request.Verified {
		t.Errorf("Verified = false for phone %q that passed the handshake", formatted)
	}

	// 另一种等价写法同样命中
	custom, err := f.service.SubmitCustom(&domain.SubmitCustomRequest{
		Phone:       "+502-1234-5678",
		Description: "engraved wooden box",
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("submit custom: %v", err)
	}
	if !custom.Verified {
		t.Error("Verified = false for equivalent formatted phone")
	}
}

func TestRequestService_SubmitCustom(t *testing.T) {
	f := newRequestServiceFixture()

	request, err := f.service.SubmitCustom(&domain.SubmitCustomRequest{
		Phone:       "+50212345678",
		Description: "engraved wooden box",
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("submit custom: %v", err)
	}
	if request.Status != domain.RequestStatusPending {
		t.Errorf("status = %v, want pending", request.Status)
	}
	if request.Verified {
		t.Error("Verified = true, want false")
	}

	if _, err := f.service.SubmitCustom(&domain.SubmitCustomRequest{Phone: "+50212345678"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestRequestService_ListRequests(t *testing.T) {
	f := newRequestServiceFixture()
	product := f.seedProduct(t, 10, 5)

	if _, err := f.service.SubmitPurchase(&domain.SubmitPurchaseRequest{
		ProductID: product.ID, UserEmail: "a@example.com", UserName: "A", Quantity: 1,
	}); err != nil {
		t.Fatalf("submit purchase: %v", err)
	}
	if _, err := f.service.SubmitOutOfStock(&domain.SubmitOutOfStockRequest{
		ProductID: product.ID, Phone: "+50212345678", Quantity: 1,
	}); err != nil {
		t.Fatalf("submit out-of-stock: %v", err)
	}
	if _, err := f.service.SubmitCustom(&domain.SubmitCustomRequest{
		Phone: "+50212345678", Description: "custom", Quantity: 1,
	}); err != nil {
		t.Fatalf("submit custom: %v", err)
	}

	requests, err := f.service.ListRequests()
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(requests.PurchaseRequests) != 1 {
		t.Errorf("purchase requests = %d, want 1", len(requests.PurchaseRequests))
	}
	if len(requests.OutOfStockRequests) != 1 {
		t.Errorf("out-of-stock requests = %d, want 1", len(requests.OutOfStockRequests))
	}
	if len(requests.CustomRequests) != 1 {
		t.Errorf("custom requests = %d, want 1", len(requests.CustomRequests))
	}
}
