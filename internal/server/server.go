package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/performlikemj/C2M/internal/auth"
	"github.com/performlikemj/C2M/internal/billing"
	"github.com/performlikemj/C2M/internal/config"
	"github.com/performlikemj/C2M/internal/email"
	"github.com/performlikemj/C2M/internal/membership"
	"github.com/performlikemj/C2M/internal/schedule"
	"github.com/performlikemj/C2M/internal/trainer"
	"github.com/performlikemj/C2M/internal/user"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *sqlx.DB
	config     *config.Config
	email      *email.Service

	// Memberships is exposed so the background worker can share the same
	// wired service instance.
	Memberships membership.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userRepo := user.NewRepository(db)
	trainerRepo := trainer.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)
	membershipRepo := membership.NewRepository(db)
	billingRepo := billing.NewRepository(db)

	provider := billing.NewClient(cfg.StripeSecretKey)

	userService := user.NewService(userRepo, emailService, cfg.JWTSecret)
	trainerService := trainer.NewService(trainerRepo)
	membershipService := membership.NewService(membershipRepo, provider, userService, emailService)
	scheduleService := schedule.NewService(scheduleRepo, trainerService, membershipService, userRepo, emailService, schedule.Options{
		OpenHour:         cfg.OpenHour,
		CloseHour:        cfg.CloseHour,
		StrictRecurrence: cfg.StrictRecurrence,
	})
	reconciler := billing.NewReconciler(billingRepo, membershipService, userRepo, provider)

	userHandler := user.NewHandler(userService)
	trainerHandler := trainer.NewHandler(trainerService)
	scheduleHandler := schedule.NewHandler(scheduleService)
	membershipHandler := membership.NewHandler(membershipService)
	webhookHandler := billing.NewHandler(reconciler, cfg.StripeWebhookSecret)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
		public.GET("/verify/:token", userHandler.VerifyEmail)
		public.POST("/resend-verification", userHandler.ResendVerification)
	}

	// Webhook deliveries authenticate by signature, not by bearer token.
	webhooks := router.Group("/webhooks")
	webhooks.Use(RateLimitMiddleware(20, 40))
	{
		webhooks.POST("/stripe", webhookHandler.HandleWebhook)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/me/profile", userHandler.GetMyProfile)
		protected.GET("/me/membership", membershipHandler.GetMyMembership)

		protected.GET("/classes", scheduleHandler.ListClasses)
		protected.GET("/classes/:id", scheduleHandler.GetClass)
		protected.GET("/classes/:id/sessions", scheduleHandler.ListClassSessions)
		protected.GET("/sessions", scheduleHandler.ListSessions)
		protected.POST("/sessions/:id/book", scheduleHandler.BookSession)
		protected.GET("/bookings", scheduleHandler.MyBookings)
		protected.DELETE("/bookings/:id", scheduleHandler.CancelBooking)

		protected.GET("/trainers", trainerHandler.ListTrainers)
		protected.GET("/membership-types", membershipHandler.ListMembershipTypes)
	}

	kiosk := router.Group("/kiosk")
	kiosk.Use(authMiddleware, auth.RequireRole(auth.RoleKiosk, auth.RoleStaff, auth.RoleAdmin))
	{
		kiosk.POST("/check-in", membershipHandler.CheckIn)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	{
		admin.POST("/classes", scheduleHandler.CreateClass)
		admin.DELETE("/classes/:id", scheduleHandler.DeleteClass)
		admin.POST("/sessions", scheduleHandler.CreateSession)
		admin.GET("/sessions/preview", scheduleHandler.PreviewRecurrence)
		admin.DELETE("/sessions/:id", scheduleHandler.DeleteSession)
		admin.POST("/personal-training", scheduleHandler.CreatePersonalTraining)

		admin.POST("/trainers", trainerHandler.CreateTrainer)
		admin.GET("/trainers/:id/availability", trainerHandler.CheckAvailability)

		admin.POST("/membership-types", membershipHandler.CreateMembershipType)
		admin.POST("/memberships", membershipHandler.AssignMembership)
		admin.GET("/users/:id/membership", membershipHandler.GetUserMembership)
		admin.GET("/trial-payments", membershipHandler.ListTrialPayments)
		admin.POST("/memberships/:id/align-period", membershipHandler.AlignBillingPeriod)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router:      router,
		db:          db,
		config:      cfg,
		email:       emailService,
		Memberships: membershipService,
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
