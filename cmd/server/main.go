package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/api"
	"github.com/Naakoi/uekera_go_server/internal/api/handler"
	"github.com/Naakoi/uekera_go_server/internal/database"
	"github.com/Naakoi/uekera_go_server/internal/pkg/cron"
	"github.com/Naakoi/uekera_go_server/internal/pkg/email"
	"github.com/Naakoi/uekera_go_server/internal/pkg/oauth"
	"github.com/Naakoi/uekera_go_server/internal/pkg/oss"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pdf"
	"github.com/Naakoi/uekera_go_server/internal/pkg/pubsub"
	"github.com/Naakoi/uekera_go_server/internal/pkg/queue"
	"github.com/Naakoi/uekera_go_server/internal/pkg/ws"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS（可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			log.Println("OSS client initialized")
		}
	}

	// 初始化渲染管线
	backends := pdf.DetectBackends(&cfg.Render)
	pageCache := pdf.NewPageCache(cfg.Storage.PageCacheDir)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	redeemRepo := repository.NewRedeemCodeRepository(db)
	jobRepo := repository.NewRenderJobRepository(db)
	paymentCodeRepo := repository.NewPaymentCodeRepository(db)

	renderer := pdf.NewRenderer(pageCache, backends, docRepo)
	renderQueue := queue.NewQueue(rdb, cfg.Queue.RenderQueue)

	// 初始化 Service
	emailSvc := email.NewService(&cfg.Email)
	authService := service.NewAuthService(userRepo, emailSvc, cfg)
	userService := service.NewUserService(userRepo)
	accessService := service.NewAccessService(userRepo, purchaseRepo, subRepo, redeemRepo, docRepo)
	redeemService := service.NewRedeemService(redeemRepo, docRepo)
	paymentService := service.NewPaymentService(purchaseRepo, subRepo, docRepo, paymentCodeRepo)
	documentService := service.NewDocumentService(
		docRepo, jobRepo, accessService, renderer, renderQueue, ossClient, cfg)

	// WebSocket Hub + 渲染进度订阅
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
			if err := wsHub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to broadcast progress: %v", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("Progress subscriber stopped: %v", err)
		}
	}()
	log.Println("WebSocket hub started")

	// 后台定时任务（订阅过期扫描、上传临时目录清理）
	cron.NewScheduler(subRepo, cfg).Start(ctx)

	// 初始化 Handler
	stateStore := oauth.NewStateStore(rdb)
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService)
	documentHandler := handler.NewDocumentHandler(documentService)
	redeemHandler := handler.NewRedeemHandler(redeemService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		documentHandler,
		redeemHandler,
		paymentHandler,
		websocketHandler,
		accessService,
		userRepo,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
