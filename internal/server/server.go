// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pawhome/internal/cache"
	"pawhome/internal/config"
	"pawhome/internal/database"
	"pawhome/internal/middleware"
	"pawhome/internal/models"
	"pawhome/internal/notifications"
	"pawhome/internal/repository"
	"pawhome/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	verifier       middleware.TokenVerifier

	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	requestRepo repository.AdoptionRequestRepository
	chatRepo    repository.ChatRepository
	petRepo     repository.PetRepository

	notifier *notifications.Notifier
	chatHub  *notifications.ChatHub
	hubs     []wireableHub

	listingService  service.ListingService
	adoptionService service.AdoptionService
	chatService     service.ChatService
	petService      service.PetService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// A nil redisClient is valid: the server then runs single-instance with
// direct hub broadcasts and no cross-instance fan-out.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	requestRepo := repository.NewAdoptionRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)
	petRepo := repository.NewPetRepository(db)

	prom := middleware.InitMetrics("pawhome-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		verifier:       &middleware.JWTVerifier{Secret: cfg.JWTSecret},
		userRepo:       userRepo,
		listingRepo:    listingRepo,
		requestRepo:    requestRepo,
		chatRepo:       chatRepo,
		petRepo:        petRepo,
	}

	server.listingService = service.NewListingService(listingRepo)
	server.adoptionService = service.NewAdoptionService(db, requestRepo, listingRepo, chatRepo)
	server.chatService = service.NewChatService(chatRepo, requestRepo, userRepo)
	server.petService = service.NewPetService(petRepo)

	// The hub always exists; the notifier only does work when Redis is up.
	server.chatHub = notifications.NewChatHub()
	server.hubs = []wireableHub{server.chatHub}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware runs before middlewares that can short-circuit (e.g.
	// limiter) so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Public listing browse
	listings := api.Group("/listings")
	listings.Get("/", s.GetListings)
	listings.Get("/:id", s.GetListing)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Post("/listings", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "create_listing"), s.CreateListing)

	// Adoption request routes
	requests := protected.Group("/adoption-requests")
	requests.Post("/", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "create_request"), s.CreateAdoptionRequest)
	requests.Get("/mine", s.GetMyRequests)
	requests.Get("/received", s.GetReceivedRequests)
	requests.Post("/:requestId/confirm-completion", s.ConfirmCompletion)

	// Chat routes
	chats := protected.Group("/chats")
	chats.Get("/", s.GetChats)
	chats.Get("/request/:requestId", s.GetChatForRequest)
	chats.Get("/:chatId/messages", s.GetChatMessages)
	chats.Post("/:chatId/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_chat"), s.SendChatMessage)
	chats.Delete("/:chatId", s.DeleteChat)

	// Post-adoption tracker routes
	pets := protected.Group("/pets")
	pets.Get("/", s.GetMyPets)
	pets.Get("/:petId/health-records", s.GetPetHealthRecords)

	// Websocket endpoint - protected by AuthRequired
	ws := api.Group("/ws", s.AuthRequired())
	ws.Get("/chat", s.WebSocketChatHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional; readiness only degrades when it is configured
		// but unreachable.
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. It accepts the bearer
// token from the Authorization header, or from the `token` query parameter
// for websocket upgrade requests.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.BearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.verifier.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", userID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "PawHome API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.Error("unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to the Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					middleware.Logger.Error("failed to start hub wiring",
						slog.String("hub", h.Name()),
						slog.String("error", err.Error()),
					)
				}
			}()
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server",
				slog.String("error", err.Error()))
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub",
				slog.String("hub", h.Name()),
				slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB",
				slog.String("error", cerr.Error()))
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis",
				slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
