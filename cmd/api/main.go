package main

import (
	"context"
	"log"
	"time"

	_ "github.com/fishryanie/GC-sub000/api/swagger" // swagger docs
	"github.com/fishryanie/GC-sub000/internal/cache"
	"github.com/fishryanie/GC-sub000/internal/config"
	"github.com/fishryanie/GC-sub000/internal/database"
	"github.com/fishryanie/GC-sub000/internal/handler"
	"github.com/fishryanie/GC-sub000/internal/i18n"
	"github.com/fishryanie/GC-sub000/internal/logger"
	"github.com/fishryanie/GC-sub000/internal/middleware"
	"github.com/fishryanie/GC-sub000/internal/repository"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Order Pricing and Approval API
// @version         1.0
// @description     Order pricing, discount requests and admin approval for sellers, plus public order links for customers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config failed: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.NewConnection(cfg.DSN(), zl)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	zl.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(context.Background(), cfg.RedisAddr)
		if err != nil {
			// prices are still served from postgres
			zl.Warn("redis unavailable, price cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			redisClient = nil
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORSOrigins, zl.Named("ws"))
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	sellerRepo := repository.NewSellerRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceListRepo := repository.NewPriceListRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	linkRepo := repository.NewPublicLinkRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	codes := repository.NewOrderCodeGenerator(db, orderRepo)

	priceCache := cache.NewPriceCache(redisClient, cfg.PriceCacheTTL, priceListRepo.FindItems, zl.Named("price_cache"))
	resolver := service.NewPriceListResolver(priceListRepo, priceCache)
	ledger := service.NewCustomerLedger(orderRepo, customerRepo, auditRepo, zl.Named("ledger"))

	deps := service.OrderDeps{
		Orders:    orderRepo,
		Customers: customerRepo,
		Products:  productRepo,
		AuditRepo: auditRepo,
		TxManager: txManager,
		Codes:     codes,
		Resolver:  resolver,
		Ledger:    ledger,
		Events:    wsHub,
		Log:       zl.Named("orders"),
		Now:       time.Now,
	}
	orderService := service.NewOrderService(deps)
	broker := service.NewPublicOrderLinkBroker(linkRepo, resolver, auditRepo, zl.Named("public_links"))
	publicService := service.NewPublicOrderService(deps, linkRepo, broker)
	priceListService := service.NewPriceListService(priceListRepo, auditRepo, priceCache, zl.Named("price_lists"))
	authService := service.NewAuthService(sellerRepo, []byte(cfg.JWTSecret), cfg.JWTTTL)

	// Initialize Handlers
	auth := middleware.NewAuth([]byte(cfg.JWTSecret), cfg.IsProduction())
	errs := handler.NewErrorWriter(i18n.New(cfg.DefaultLocale), zl.Named("http"))
	authHandler := handler.NewAuthHandler(authService, auth, errs)
	orderHandler := handler.NewOrderHandler(orderService, errs)
	publicHandler := handler.NewPublicOrderHandler(publicService, errs)
	priceListHandler := handler.NewPriceListHandler(priceListService, errs)

	// Set up Gin Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinMiddleware(zl), gin.Recovery(), middleware.SecureHeaders(cfg.IsProduction()))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Accept-Language"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, auth, c)
	})

	// API Routing
	publicLimit := middleware.RateLimitByIP(cfg.PublicRateLimit, time.Minute, errs.RateLimited())
	authHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""), auth)
	publicHandler.RegisterRoutes(router.Group(""), auth, publicLimit)
	priceListHandler.RegisterRoutes(router.Group(""), auth)

	zl.Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}
