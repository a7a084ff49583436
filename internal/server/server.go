package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/studyhub/internal/ai"
	"anoa.com/studyhub/internal/config"
	"anoa.com/studyhub/internal/middleware"
	"anoa.com/studyhub/internal/scheduler"
	"anoa.com/studyhub/pkg/database"

	adminHttp "anoa.com/studyhub/internal/modules/admin/delivery/http"
	adminService "anoa.com/studyhub/internal/modules/admin/service"

	classHttp "anoa.com/studyhub/internal/modules/class/delivery/http"
	classRepo "anoa.com/studyhub/internal/modules/class/repository"
	classService "anoa.com/studyhub/internal/modules/class/service"

	exerciseHttp "anoa.com/studyhub/internal/modules/exercise/delivery/http"
	exerciseRepo "anoa.com/studyhub/internal/modules/exercise/repository"
	exerciseService "anoa.com/studyhub/internal/modules/exercise/service"

	gamificationHttp "anoa.com/studyhub/internal/modules/gamification/delivery/http"
	gamificationRepo "anoa.com/studyhub/internal/modules/gamification/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"

	leaderboardHttp "anoa.com/studyhub/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/studyhub/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/studyhub/internal/modules/leaderboard/service"

	missionHttp "anoa.com/studyhub/internal/modules/mission/delivery/http"
	missionRepo "anoa.com/studyhub/internal/modules/mission/repository"
	missionService "anoa.com/studyhub/internal/modules/mission/service"

	noteHttp "anoa.com/studyhub/internal/modules/note/delivery/http"
	noteRepo "anoa.com/studyhub/internal/modules/note/repository"
	noteService "anoa.com/studyhub/internal/modules/note/service"

	notiHttp "anoa.com/studyhub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/studyhub/internal/modules/notification/repository"
	notifService "anoa.com/studyhub/internal/modules/notification/service"

	paymentHttp "anoa.com/studyhub/internal/modules/payment/delivery/http"
	paymentRepo "anoa.com/studyhub/internal/modules/payment/repository"
	paymentService "anoa.com/studyhub/internal/modules/payment/service"

	searchService "anoa.com/studyhub/internal/modules/search/service"

	statHttp "anoa.com/studyhub/internal/modules/stat/delivery/http"
	statService "anoa.com/studyhub/internal/modules/stat/service"

	userHttp "anoa.com/studyhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	userService "anoa.com/studyhub/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	closers     []func() error
}

// NewServer wires every module. Search, AI generation and payments are only
// enabled when their credentials are configured.
func NewServer(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	clock := cfg.Clock()
	tx := database.NewTransactor(db)
	srv := &Server{db: db, redisClient: redisClient, scheduler: scheduler.NewScheduler()}

	userRepo := userRepo.NewUserRepository(db)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	// Optional search
	var search searchService.SearchService
	var tokenIssuer userService.SearchTokenIssuer
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		search = searchService.NewSearchService(meiliClient, clock)
		tokenIssuer = search
	} else {
		zap.L().Info("MEILISEARCH_HOST not set, note search disabled")
	}

	// Optional AI generation
	var generator ai.Generator
	if cfg.GeminiAPIKey != "" {
		provider, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		srv.closers = append(srv.closers, func() error {
			provider.Close()
			return nil
		})
		generator = ai.NewGenerator(provider)
	} else {
		zap.L().Info("GEMINI_API_KEY not set, AI generation disabled")
	}

	// Gamification
	gRepo := gamificationRepo.NewGamificationRepository(db)
	coinSvc := gamificationService.NewCoinService(gRepo)
	subscriptionSvc := gamificationService.NewSubscriptionService(gRepo, tx, clock)
	accessSvc := gamificationService.NewAccessService(gRepo, tx, coinSvc, subscriptionSvc)
	pointsSvc := gamificationService.NewPointsService(gRepo, tx, notificationSvc)
	statusSvc := gamificationService.NewStatusService(gRepo, clock)
	gamificationHandler := gamificationHttp.NewGamificationHandler(coinSvc, subscriptionSvc, accessSvc, statusSvc)

	// Users
	authSvc := userService.NewAuthService(userRepo, userService.AuthConfig{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.JWTTTL,
	}, tokenIssuer, clock)
	authHandler := userHttp.NewAuthHandler(authSvc)
	userSvc := userService.NewUserService(userRepo, clock)
	profileHandler := userHttp.NewProfileHandler(userSvc)

	// Missions
	missionSvc := missionService.NewMissionService(
		missionRepo.NewMissionRepository(db),
		missionService.DefaultCatalog(),
		pointsSvc,
		coinSvc,
		tx,
		notificationSvc,
		clock,
	)
	missionHandler := missionHttp.NewMissionHandler(missionSvc)

	// Study content
	notesRepository := noteRepo.NewNoteRepository(db)
	noteSvc := noteService.NewNoteService(notesRepository, accessSvc, generator, search, redisClient, cfg.RateLimitAI, clock)
	noteHandler := noteHttp.NewNoteHandler(noteSvc)

	classSvc := classService.NewClassService(classRepo.NewClassRepository(db), notesRepository, tx, nil, clock)
	classHandler := classHttp.NewClassHandler(classSvc)

	exercisesRepository := exerciseRepo.NewExerciseRepository(db)
	exerciseSvc := exerciseService.NewExerciseService(
		exercisesRepository,
		notesRepository,
		pointsSvc,
		accessSvc,
		generator,
		tx,
		redisClient,
		cfg.RateLimitAI,
		clock,
	)
	exerciseHandler := exerciseHttp.NewExerciseHandler(exerciseSvc)

	// Payments
	purchaseRepository := paymentRepo.NewPurchaseRepository(db)
	paymentSvc := paymentService.NewPaymentService(
		purchaseRepository,
		userRepo,
		coinSvc,
		subscriptionSvc,
		tx,
		notificationSvc,
		cfg.PaymentWebhookSecret,
		clock,
	)
	paymentHandler := paymentHttp.NewPaymentHandler(paymentSvc)

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), clock)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	statSvc := statService.NewStatService(userRepo, notesRepository, exercisesRepository, purchaseRepository)
	statHandler := statHttp.NewStatHandler(statSvc)

	adminSvc := adminService.NewAdminService(userRepo, userSvc, pointsSvc, coinSvc, noteSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	// Background jobs
	reminder := scheduler.NewSubscriptionReminderJob(subscriptionSvc, notificationSvc, redisClient, cfg.SubscriptionReminderCron, clock)
	if err := srv.scheduler.Register(reminder); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.GET("/health", srv.health)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	api.GET("/products", paymentHandler.GetProducts)
	api.POST("/payments/webhook", paymentHandler.Webhook)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.POST("/users/:id/points", adminHandler.AwardPoints)
			adminGroup.POST("/users/:id/coins", adminHandler.AddCoins)
			adminGroup.DELETE("/notes/:id", adminHandler.DeleteNote)
			adminGroup.GET("/purchases", paymentHandler.ListPurchases)
			adminGroup.POST("/purchases/grant", paymentHandler.Grant)
			adminGroup.GET("/stats", statHandler.GetStats)
		}

		// User routes
		protected.GET("/users/count", statHandler.GetTotalUsers)
		protected.GET("/user/me", profileHandler.GetMe)
		protected.PUT("/user/me", profileHandler.UpdateMe)
		protected.PUT("/user/password", profileHandler.ChangePassword)
		protected.GET("/user/coins", gamificationHandler.GetCoins)
		protected.GET("/user/progress", gamificationHandler.GetProgress)
		protected.GET("/user/purchases", paymentHandler.MyPurchases)
		protected.GET("/ai/access", gamificationHandler.CheckAccess)

		// Mission routes
		protected.GET("/missions", missionHandler.GetTodayMissions)
		protected.POST("/missions/complete", missionHandler.CompleteMission)

		// Note routes
		protected.GET("/notes", noteHandler.ListNotes)
		protected.POST("/notes", noteHandler.CreateNote)
		protected.POST("/notes/generate", noteHandler.GenerateNote)
		protected.GET("/notes/search-token", noteHandler.GetSearchToken)
		protected.POST("/notes/share", classHandler.ShareNote)
		protected.GET("/notes/:id", noteHandler.GetNote)
		protected.PUT("/notes/:id", noteHandler.UpdateNote)
		protected.DELETE("/notes/:id", noteHandler.DeleteNote)

		// Class routes
		protected.GET("/classes", classHandler.ListClasses)
		protected.POST("/classes", classHandler.CreateClass)
		protected.POST("/classes/join", classHandler.JoinClass)
		protected.GET("/classes/:id", classHandler.GetClass)

		// Exercise routes
		protected.GET("/exercises", exerciseHandler.ListExercises)
		protected.POST("/exercises", exerciseHandler.CreateExercise)
		protected.POST("/exercises/generate", exerciseHandler.GenerateExercise)
		protected.GET("/exercises/:id", exerciseHandler.GetExercise)
		protected.POST("/exercises/:id/submit", exerciseHandler.SubmitExercise)
		protected.DELETE("/exercises/:id", exerciseHandler.DeleteExercise)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	}

	srv.engine = router
	return srv, nil
}

func (s *Server) health(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}
	}

	c.JSON(code, status)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background jobs and serves HTTP until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop(ctx)

	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Shutdown(ctx))
	}
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
