package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"appstore_v1_202609/internal/config"
	"appstore_v1_202609/internal/controller"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
	"appstore_v1_202609/internal/router"
	"appstore_v1_202609/internal/service"
	"appstore_v1_202609/internal/task"
	"appstore_v1_202609/pkg/database"
)

// @title AppStore API
// @version 1.0
// @description 应用商店服务：目录、购买、评价、审核
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. 加载配置
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          "appstore",
	})

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(cfg, db)

	// 4. 启动定时任务
	initTasks(cfg, deps)

	// 5. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.Controllers)

	// 6. 启动服务
	startServer(cfg, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	User     repository.UserRepository
	App      repository.AppRepository
	Purchase repository.PurchaseRepository
	Review   repository.ReviewRepository
}

// Services 服务集合
type Services struct {
	User     *service.UserService
	App      *service.AppService
	Purchase *service.PurchaseService
	Review   *service.ReviewService
	Admin    *service.AdminService
	Payment  service.PaymentProvider
	Storage  service.StorageProvider
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	db := database.InitDB(cfg.DatabaseDSN, cfg.DBDebug,
		// 用户
		&model.User{},
		// 应用
		&model.App{}, &model.AppVersion{}, &model.Screenshot{},
		// 交易
		&model.Purchase{}, &model.PaymentIntent{},
		// 评价
		&model.Review{},
	)

	middleware.RegisterAuditCallbacks(db)
	return db
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		User:     repository.NewUserRepository(db),
		App:      repository.NewAppRepository(db),
		Purchase: repository.NewPurchaseRepository(db),
		Review:   repository.NewReviewRepository(db),
	}

	// -------- 外部渠道 --------
	payment := service.NewStripeService(&service.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		BaseURL:   cfg.StripeBaseURL,
		Timeout:   cfg.StripeTimeout,
	})
	storage := initStorage(cfg)

	// -------- 业务服务 --------
	services := &Services{
		Payment: payment,
		Storage: storage,
	}
	services.User = service.NewUserService(repos.User, repos.App, repos.Purchase, repos.Review)
	services.App = service.NewAppService(repos.App, repos.Review)
	services.Purchase = service.NewPurchaseService(repos.Purchase, repos.App, payment, storage)
	services.Review = service.NewReviewService(repos.Review, repos.App, repos.Purchase)
	services.Admin = service.NewAdminService(repos.User, repos.App, repos.Purchase, services.App)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:     controller.NewAuthController(services.User),
		User:     controller.NewUserController(services.User),
		App:      controller.NewAppController(services.App),
		Purchase: controller.NewPurchaseController(services.Purchase),
		Review:   controller.NewReviewController(services.Review),
		Admin:    controller.NewAdminController(services.Admin),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorage 初始化下载分发存储
// 没配 S3 时返回 nil，下载接口回落到版本自带的公开 URL
func initStorage(cfg *config.Config) service.StorageProvider {
	storageCfg := &service.StorageConfig{
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
	}
	if !storageCfg.Enabled() {
		log.Println("未配置对象存储，下载走版本公开 URL")
		return nil
	}

	storage, err := service.NewS3Storage(storageCfg)
	if err != nil {
		log.Printf("警告: 存储服务初始化失败: %v", err)
		return nil
	}
	return storage
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(cfg *config.Config, deps *Dependencies) {
	if !cfg.ReconcileEnabled {
		log.Println("支付对账任务已禁用")
		return
	}

	reconcile := task.NewReconcileTask(
		deps.Repos.Purchase,
		deps.Services.Purchase,
		cfg.ReconcileMinAge,
		cfg.ReconcileBatch,
	)
	reconcile.Start()

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(cfg *config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}
