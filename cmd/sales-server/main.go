package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamthebest/Sales-web-page/internal/api"
	"github.com/jamthebest/Sales-web-page/internal/cache"
	"github.com/jamthebest/Sales-web-page/internal/config"
	"github.com/jamthebest/Sales-web-page/internal/database"
	"github.com/jamthebest/Sales-web-page/internal/limiter"
	"github.com/jamthebest/Sales-web-page/internal/logger"
	mw "github.com/jamthebest/Sales-web-page/internal/middleware"
	"github.com/jamthebest/Sales-web-page/internal/notify"
	"github.com/jamthebest/Sales-web-page/internal/repo"
	"github.com/jamthebest/Sales-web-page/internal/resp"
	"github.com/jamthebest/Sales-web-page/internal/service"
	"github.com/jamthebest/Sales-web-page/internal/storage"
)

// AppDependencies 包含应用的所有依赖
type AppDependencies struct {
	UserHandler         *api.UserHandler
	ProductHandler      *api.ProductHandler
	RequestHandler      *api.RequestHandler
	VerificationHandler *api.VerificationHandler
	ConfigHandler       *api.ConfigHandler
	UploadHandler       *api.UploadHandler
	UserService         service.UserService
	VerifyLimiter       limiter.Limiter
	Dispatcher          *notify.Dispatcher
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %v", err)
	}

	// init logger
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %v", err)
	}

	return cfg, lg, nil
}

// initDatabase 初始化数据库连接并执行迁移
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// 迁移在HTTP服务器启动前执行，保证处理请求时表结构已就位
	migrationsDir := cfg.Migrations.Dir
	lg.Sugar().Infow("using migrations directory", "path", migrationsDir)

	if err := db.RunMigrations(migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %v", err)
	}

	return db, nil
}

// initCache 初始化缓存实例
// Redis连接失败时降级为进程内缓存，不阻塞启动
func initCache(cfg *config.Config, lg *zap.Logger) cache.Cache {
	var cacheInstance cache.Cache
	if cfg.Cache.Enabled {
		switch cfg.Cache.Type {
		case "redis":
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			redisCache, err := cache.NewRedisCache(redisAddr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				lg.Sugar().Warnw("failed to connect to Redis, falling back to memory cache", "error", err)
				cacheInstance = cache.NewMemoryCache()
			} else {
				cacheInstance = redisCache
				lg.Sugar().Infow("cache enabled", "type", "redis", "addr", redisAddr, "ttl", cfg.Cache.TTL)
			}
		case "memory":
			cacheInstance = cache.NewMemoryCache()
			lg.Sugar().Infow("cache enabled", "type", "memory", "ttl", cfg.Cache.TTL)
		default:
			lg.Sugar().Warnw("unknown cache type, using memory cache", "type", cfg.Cache.Type)
			cacheInstance = cache.NewMemoryCache()
		}
	} else {
		cacheInstance = cache.NewNullCache()
		lg.Sugar().Infow("cache disabled")
	}
	return cacheInstance
}

// initLimiter 初始化验证码接口限流器
// 限流依赖Redis计数，缓存未走Redis时退化为全放行
func initLimiter(cfg *config.Config, cacheInstance cache.Cache, lg *zap.Logger) limiter.Limiter {
	redisCache, ok := cacheInstance.(*cache.RedisCache)
	if !ok || cfg.Verify.RateLimit <= 0 {
		lg.Sugar().Infow("verification rate limiting disabled")
		return limiter.NopLimiter{}
	}

	lg.Sugar().Infow("verification rate limiting enabled",
		"rate", cfg.Verify.RateLimit, "window", cfg.Verify.RateWindow)
	return limiter.NewFixedWindowLimiter(redisCache.Client(), &limiter.Config{
		Rate:      cfg.Verify.RateLimit,
		Window:    cfg.Verify.RateWindow,
		KeyPrefix: "limiter:verify",
	})
}

// initDispatcher 初始化异步邮件派发器；通知关闭时返回nil
func initDispatcher(cfg *config.Config, lg *zap.Logger) *notify.Dispatcher {
	if !cfg.Notify.Enabled {
		lg.Sugar().Infow("email notifications disabled")
		return nil
	}

	mailer := notify.NewSMTPMailer(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort,
		cfg.Notify.Username, cfg.Notify.Password, cfg.Notify.From)
	lg.Sugar().Infow("email notifications enabled",
		"smtp_host", cfg.Notify.SMTPHost, "from", cfg.Notify.From)
	return notify.NewDispatcher(mailer, lg, cfg.Notify.QueueSize)
}

// initDependencies 初始化应用依赖（仓储、服务、处理器）
func initDependencies(cfg *config.Config, db *database.DB, cacheInstance cache.Cache, lg *zap.Logger) (*AppDependencies, error) {
	// 依赖注入链：仓储 -> 服务 -> API处理器
	userRepo := repo.NewUserRepository(db.DB)
	jwtService := service.NewJWTService(cfg, lg)
	userService := service.NewUserService(userRepo, jwtService, cfg, lg)
	userHandler := api.NewUserHandler(userService, cfg.JWT.SessionTTL, lg)

	if err := userService.EnsureBootstrapAdmin(); err != nil {
		return nil, fmt.Errorf("ensure bootstrap admin: %w", err)
	}

	// 商品目录，可选缓存装饰器
	baseProductRepo := repo.NewProductRepository(db.DB)
	var productRepo repo.ProductRepository
	if cfg.Cache.Enabled {
		productRepo = repo.NewCachedProductRepository(baseProductRepo, cacheInstance, cfg.Cache.TTL)
	} else {
		productRepo = baseProductRepo
	}

	productService := service.NewProductService(productRepo, lg)
	productHandler := api.NewProductHandler(productService, lg)

	// 手机验证
	verificationRepo := repo.NewVerificationRepository(db.DB)
	exposeCode := cfg.App.Env != "prod"
	verificationService := service.NewVerificationService(verificationRepo, cfg.Verify.CodeTTL, exposeCode, lg)
	verificationHandler := api.NewVerificationHandler(verificationService, lg)

	// 店铺配置
	configRepo := repo.NewStoreConfigRepository(db.DB)
	configService := service.NewStoreConfigService(configRepo, lg)
	configHandler := api.NewConfigHandler(configService, lg)

	// 客户请求工作流
	dispatcher := initDispatcher(cfg, lg)
	purchaseRepo := repo.NewPurchaseRequestRepository(db.DB)
	outOfStockRepo := repo.NewOutOfStockRequestRepository(db.DB)
	customRepo := repo.NewCustomRequestRepository(db.DB)
	requestService := service.NewRequestService(
		productRepo, purchaseRepo, outOfStockRepo, customRepo,
		verificationRepo, configRepo, dispatcher, cfg.Notify.DefaultRecipient, lg)
	requestHandler := api.NewRequestHandler(requestService, lg)

	// 媒体上传
	blobStore, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	uploadHandler := api.NewUploadHandler(blobStore, lg)

	return &AppDependencies{
		UserHandler:         userHandler,
		ProductHandler:      productHandler,
		RequestHandler:      requestHandler,
		VerificationHandler: verificationHandler,
		ConfigHandler:       configHandler,
		UploadHandler:       uploadHandler,
		UserService:         userService,
		VerifyLimiter:       initLimiter(cfg, cacheInstance, lg),
		Dispatcher:          dispatcher,
	}, nil
}

// setupRoutes 设置路由和中间件
func setupRoutes(cfg *config.Config, deps *AppDependencies, lg *zap.Logger) http.Handler {
	// 标准库 ServeMux 即可满足当前需求
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		reqID := mw.RequestIDFromContext(r.Context())
		data := map[string]any{
			"status":  "ok",
			"version": cfg.App.Version,
		}
		resp.OK(w, &data, reqID, "")
	})

	// 认证相关API路由（无需认证）
	mux.HandleFunc("/api/v1/auth/session", deps.UserHandler.CreateSession)
	mux.HandleFunc("/api/v1/auth/login", deps.UserHandler.Login)

	// 需要认证的API路由
	authMiddleware := mw.Auth(deps.UserService, lg)
	mux.Handle("/api/v1/auth/me", authMiddleware(http.HandlerFunc(deps.UserHandler.Me)))
	mux.Handle("/api/v1/auth/logout", authMiddleware(http.HandlerFunc(deps.UserHandler.Logout)))

	// 商品目录（公开只读）
	mux.HandleFunc("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.ProductHandler.ListProducts(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.ProductHandler.GetProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// 手机验证（公开，带限流）
	verifyLimit := limiter.Middleware(deps.VerifyLimiter, "verify", lg)
	mux.Handle("/api/v1/verification/request-code", verifyLimit(http.HandlerFunc(deps.VerificationHandler.RequestCode)))
	mux.Handle("/api/v1/verification/validate-code", verifyLimit(http.HandlerFunc(deps.VerificationHandler.ValidateCode)))

	// 客户请求提交（公开）
	mux.HandleFunc("/api/v1/requests/purchase", deps.RequestHandler.SubmitPurchase)
	mux.HandleFunc("/api/v1/requests/out-of-stock", deps.RequestHandler.SubmitOutOfStock)
	mux.HandleFunc("/api/v1/requests/custom", deps.RequestHandler.SubmitCustom)

	// 管理员专用API路由（需要管理员权限）
	adminMiddleware := mw.RequireAdmin(lg)

	// 商品管理
	mux.Handle("/api/v1/admin/products", authMiddleware(adminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.ProductHandler.CreateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))))
	mux.Handle("/api/v1/admin/products/", authMiddleware(adminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			deps.ProductHandler.UpdateProduct(w, r)
		case http.MethodDelete:
			deps.ProductHandler.DeleteProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))))

	// 请求工作流管理
	mux.Handle("/api/v1/admin/requests", authMiddleware(adminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.RequestHandler.ListRequests(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))))
	mux.Handle("/api/v1/admin/requests/", authMiddleware(adminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.RequestHandler.ResolveRequest(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))))

	// 店铺配置与用户管理（通知收件人属敏感信息，读写都只对管理员开放）
	mux.Handle("/api/v1/admin/config", authMiddleware(adminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.ConfigHandler.GetConfig(w, r)
		case http.MethodPut:
			deps.ConfigHandler.UpdateConfig(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))))
	mux.Handle("/api/v1/admin/users/promote", authMiddleware(adminMiddleware(http.HandlerFunc(deps.UserHandler.PromoteAdmin))))

	// 媒体上传与静态访问
	mux.Handle("/api/v1/admin/uploads", authMiddleware(adminMiddleware(http.HandlerFunc(deps.UploadHandler.Upload))))
	uploadsPrefix := strings.TrimRight(cfg.Upload.BaseURL, "/") + "/"
	mux.Handle(uploadsPrefix, http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(cfg.Upload.Dir))))

	// 构建中间件链：请求进入时执行顺序为 access log -> CORS -> timeout -> recovery -> request ID
	handler := mw.RequestID(mux)
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(handler)
	handler = mw.AccessLog(lg)(handler)

	return handler
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	// 启动服务器（异步）
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	select {
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			lg.Sugar().Fatalw("server error", "err", err)
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}

	// 2) 初始化数据库连接并执行迁移
	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database connection", "err", err)
		}
	}()

	// 3) 初始化缓存
	cacheInstance := initCache(cfg, lg)

	// 4) 初始化应用依赖（仓储、服务、处理器）
	deps, err := initDependencies(cfg, db, cacheInstance, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize dependencies", "err", err)
	}

	// 5) 设置路由和中间件
	handler := setupRoutes(cfg, deps, lg)

	// 6) 启动 HTTP 服务器，退出前排空通知队列
	startServer(cfg, handler, lg)

	if deps.Dispatcher != nil {
		deps.Dispatcher.Stop()
	}
}
