package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Naakoi/uekera_go_server/config"
	"github.com/Naakoi/uekera_go_server/internal/api/handler"
	"github.com/Naakoi/uekera_go_server/internal/api/middleware"
	"github.com/Naakoi/uekera_go_server/internal/repository"
	"github.com/Naakoi/uekera_go_server/internal/service"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	documentHandler  *handler.DocumentHandler
	redeemHandler    *handler.RedeemHandler
	paymentHandler   *handler.PaymentHandler
	websocketHandler *handler.WebSocketHandler
	accessService    *service.AccessService
	userRepo         *repository.UserRepository
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	documentHandler *handler.DocumentHandler,
	redeemHandler *handler.RedeemHandler,
	paymentHandler *handler.PaymentHandler,
	websocketHandler *handler.WebSocketHandler,
	accessService *service.AccessService,
	userRepo *repository.UserRepository,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		documentHandler:  documentHandler,
		redeemHandler:    redeemHandler,
		paymentHandler:   paymentHandler,
		websocketHandler: websocketHandler,
		accessService:    accessService,
		userRepo:         userRepo,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	api.Use(middleware.Device())
	{
		// WebSocket（渲染进度推送，token 在 query 里自行校验）
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/verify-email", r.authHandler.VerifyEmail)
			auth.GET("/google", r.authHandler.GoogleAuth)
			auth.GET("/google/callback", r.authHandler.GoogleCallback)
		}

		// 公开接口 - 套餐
		api.GET("/plans", r.paymentHandler.Plans)

		// 游客或登录用户均可访问（激活/购买状态随身份变化）
		public := api.Group("")
		public.Use(middleware.OptionalAuth(r.cfg.JWT.Secret))
		{
			public.GET("/documents", r.documentHandler.List)
			public.GET("/documents/:id", r.documentHandler.Detail)
			public.GET("/documents/:id/thumbnail", r.documentHandler.Thumbnail)
			public.GET("/documents/:id/download", r.documentHandler.Download)
			public.POST("/redeem-code", r.redeemHandler.Redeem)
			public.POST("/redeem-code/status", r.redeemHandler.CheckStatus)
			public.GET("/library", r.documentHandler.Library)

			// 阅读接口：进入前先过访问判定
			reader := public.Group("/documents/:id")
			reader.Use(middleware.RequireDocumentAccess(r.accessService))
			{
				reader.GET("/reader", r.documentHandler.Reader)
				reader.GET("/pages/:page", r.documentHandler.PageImage)
			}
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/profile", r.userHandler.UpdateProfile)
			}

			authenticated.POST("/documents/:id/pay", r.paymentHandler.Purchase)
			authenticated.POST("/subscribe", r.paymentHandler.Subscribe)
			authenticated.POST("/payment-code/redeem", r.paymentHandler.RedeemPaymentCode)
		}

		// 编辑部接口
		staff := api.Group("")
		staff.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			upload := staff.Group("")
			upload.Use(middleware.RequireStaff(r.userRepo, middleware.CapUploadDocuments))
			{
				upload.POST("/documents", r.documentHandler.Upload)
				upload.DELETE("/documents/:id", r.documentHandler.Delete)
				upload.GET("/documents/:id/stream", r.documentHandler.Stream)
			}

			vouchers := staff.Group("")
			vouchers.Use(middleware.RequireStaff(r.userRepo, middleware.CapCreateVouchers))
			{
				vouchers.POST("/redeem-codes/generate", r.redeemHandler.Generate)
				vouchers.GET("/redeem-codes", r.redeemHandler.List)
				vouchers.DELETE("/redeem-codes/:id", r.redeemHandler.Delete)
				vouchers.POST("/payment-codes/generate", r.paymentHandler.GeneratePaymentCodes)
				vouchers.GET("/payment-codes", r.paymentHandler.ListPaymentCodes)
			}
		}

		// 管理员接口
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.RequireAdmin(r.userRepo))
		{
			admin.GET("/users", r.userHandler.List)
			admin.PUT("/users/:id/role", r.userHandler.SetRole)
		}
	}

	return engine
}
