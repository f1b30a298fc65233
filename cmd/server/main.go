package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/notofall/finaltalabt-sub001/internal/config"
	"github.com/notofall/finaltalabt-sub001/internal/middleware"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/handler"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting procurement service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Project{},
		&entity.Supplier{},
		&entity.CatalogItem{},
		&entity.BudgetCategory{},
		&entity.MaterialRequest{},
		&entity.RequestItem{},
		&entity.PurchaseOrder{},
		&entity.OrderItem{},
		&entity.RFQ{},
		&entity.Quotation{},
		&entity.QuotationItem{},
		&entity.SupplyTracking{},
		&entity.Setting{},
		&entity.AuditLog{},
	); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 组装仓库、服务、处理器
	repos := repository.NewRepositories(db, rdb, zapLogger)
	services := service.NewServices(db, repos, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// 编号冲突重试依赖统一的 gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1", middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 物料申请
		requests := api.Group("/requests")
		{
			requests.GET("", h.Request.List)
			requests.POST("", h.Request.Create)
			requests.GET("/:id", h.Request.Get)
			requests.POST("/:id/approve", h.Request.Approve)
			requests.POST("/:id/reject", h.Request.Reject)
		}

		// 采购订单
		orders := api.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.POST("", h.Order.Create)
			orders.GET("/:id", h.Order.Get)
			orders.PUT("/:id", h.Order.Update)
			orders.POST("/:id/approve", h.Order.Approve)
			orders.POST("/:id/reject", h.Order.Reject)
			orders.POST("/:id/ship", h.Order.Ship)
			orders.POST("/:id/deliveries", h.Order.ConfirmDelivery)
		}

		// 询价比价
		rfqs := api.Group("/rfqs")
		{
			rfqs.GET("", h.RFQ.List)
			rfqs.POST("", h.RFQ.Create)
			rfqs.GET("/:id", h.RFQ.Get)
			rfqs.POST("/:id/quotes", h.RFQ.AddQuote)
			rfqs.POST("/:id/quotes/:quote_id/select", h.RFQ.SelectQuote)
		}

		// 供应台账
		supply := api.Group("/supply")
		{
			supply.GET("/projects/:id", h.Supply.ProjectSummary)
			supply.PUT("/projects/:id/requirements", h.Supply.SetRequirement)
		}

		// 项目
		projects := api.Group("/projects")
		{
			projects.GET("", h.Reference.ListProjects)
			projects.POST("", h.Reference.CreateProject)
			projects.GET("/:id", h.Reference.GetProject)
		}

		// 供应商
		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", h.Reference.ListSuppliers)
			suppliers.POST("", h.Reference.CreateSupplier)
			suppliers.GET("/:id", h.Reference.GetSupplier)
			suppliers.PUT("/:id", h.Reference.UpdateSupplier)
		}

		// 物料目录与预算类别
		catalog := api.Group("/catalog")
		{
			catalog.GET("/items", h.Reference.ListCatalogItems)
			catalog.POST("/items", h.Reference.CreateCatalogItem)
			catalog.GET("/categories", h.Reference.ListBudgetCategories)
			catalog.POST("/categories", h.Reference.CreateBudgetCategory)
		}

		// 系统设置
		settings := api.Group("/settings")
		{
			settings.GET("/approval-threshold", h.Setting.GetApprovalThreshold)
			settings.PUT("/approval-threshold", h.Setting.SetApprovalThreshold)
		}

		// 审计记录
		api.GET("/audit-logs", h.Reference.ListAuditLogs)
	}
}
