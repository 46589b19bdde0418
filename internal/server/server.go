// Package server contains the HTTP handlers for the forum API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "threadboard/docs" // swagger docs
	"threadboard/internal/auth"
	"threadboard/internal/config"
	"threadboard/internal/featureflags"
	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/oracle"
	"threadboard/internal/repository"
	"threadboard/internal/search"
	"threadboard/internal/service"
	"threadboard/internal/tokenstore"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators a Server is built from.
// Redis, Search and Oracle are optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Search search.Backend
	Oracle oracle.Oracle
	// Background launches fire-and-forget work; nil means a bare goroutine.
	Background func(name string, fn func())
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokenStore     *tokenstore.Store
	tokens         *auth.TokenManager
	resolver       middleware.PrincipalResolver
	limiter        *middleware.RateLimiter
	flags          *featureflags.Manager
	search         *search.Service
	threadRepo     repository.ThreadRepository
	threadService  *service.ThreadService
	replyService   *service.ReplyService
	assistService  *service.AssistService
	authService    *service.AuthService
	avatarService  *service.AvatarService
}

// NewServer wires repositories and services around deps.
func NewServer(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.DB == nil {
		return nil, errors.New("server requires config and database")
	}
	cfg := deps.Config

	userRepo := repository.NewUserRepository(deps.DB)
	threadRepo := repository.NewThreadRepository(deps.DB)
	replyRepo := repository.NewReplyRepository(deps.DB)
	likeRepo := repository.NewLikeRepository(deps.DB)

	store := tokenstore.New(deps.Redis)
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)
	searchService := search.NewService(deps.Search)
	searchService.LaunchWith(deps.Background)

	var revoker service.TokenRevoker
	if store.Available() {
		revoker = store
	}

	return &Server{
		config:         cfg,
		db:             deps.DB,
		promMiddleware: middleware.InitMetrics("threadboard-api"),
		tokenStore:     store,
		tokens:         tokens,
		resolver:       auth.NewResolver(tokens, store, userRepo),
		limiter:        middleware.NewRateLimiter(deps.Redis, cfg.RateLimitActive()),
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		search:         searchService,
		threadRepo:     threadRepo,
		threadService:  service.NewThreadService(threadRepo, likeRepo, searchService),
		replyService:   service.NewReplyService(replyRepo, threadRepo, likeRepo),
		assistService:  service.NewAssistService(deps.Oracle),
		authService:    service.NewAuthService(userRepo, tokens, revoker),
		avatarService:  service.NewAvatarService(userRepo, cfg.AvatarDir, cfg.AvatarMaxUploadMB),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses keep the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Per-IP ceiling across the whole API; shares the RATE_LIMIT_ENABLED switch
	// with the per-route Redis limits, so local and test runs are never throttled.
	if !s.config.RateLimitActive() {
		return
	}
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/media/avatars/:name", s.ServeAvatar)

	api := app.Group("/api")
	api.Get("/health", s.HealthCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Threadboard Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/categories", s.GetCategories)

	authRequired := middleware.AuthRequired(s.resolver)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", s.limiter.Limit("signup", 3, 10*time.Minute), s.Signup)
	authRoutes.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.Login)
	authRoutes.Get("/me", authRequired, s.GetMe)
	authRoutes.Get("/validate", authRequired, s.ValidateToken)
	authRoutes.Post("/logout", authRequired, s.Logout)
	authRoutes.Put("/avatar", authRequired, s.limiter.Limit("avatar", 5, time.Minute), s.UploadAvatar)

	threads := api.Group("/threads")
	threads.Get("/", s.GetThreads)
	threads.Post("/", authRequired, s.limiter.Limit("create_thread", 5, time.Minute), s.CreateThread)
	// Specific /:id/:resource routes before generic /:id
	threads.Get("/:threadId/replies", s.GetReplies)
	threads.Post("/:threadId/replies", authRequired, s.limiter.Limit("create_reply", 10, time.Minute), s.CreateReply)
	threads.Post("/:id/like", authRequired, s.LikeThread)
	threads.Get("/:id", s.GetThread)
	threads.Put("/:id", authRequired, s.UpdateThread)
	threads.Delete("/:id", authRequired, s.DeleteThread)

	replies := api.Group("/replies", authRequired)
	replies.Post("/:id/like", s.LikeReply)
	replies.Post("/:id/accept", s.AcceptReply)
	replies.Put("/:id", s.UpdateReply)
	replies.Delete("/:id", s.DeleteReply)

	ai := api.Group("/ai", middleware.OptionalAuth(s.resolver), s.limiter.Limit("ai", 20, time.Minute))
	ai.Post("/chat", middleware.FeatureGate(s.flags, featureflags.AIChat, "AI chat"), s.ChatWithAI)
	ai.Post("/suggestions", middleware.FeatureGate(s.flags, featureflags.AISuggestions, "AI suggestions"), s.GetSuggestions)

	admin := api.Group("/admin", authRequired, s.AdminRequired())
	admin.Post("/search/reindex", s.ReindexSearch)
}

// App builds the Fiber application with every middleware and route installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Threadboard API",
		ErrorHandler: errorHandler,
		BodyLimit:    int(s.avatarService.MaxBytes()) + 64*1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Success: false, Message: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.String("path", c.Path()), slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and releases every connection the server owns.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close database: %w", cerr))
		}
	}

	if err := s.tokenStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
