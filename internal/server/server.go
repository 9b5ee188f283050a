// Package server contains the HTTP handlers and routing for the blog API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "postblog/docs" // swagger docs
	"postblog/internal/auth"
	"postblog/internal/bootstrap"
	"postblog/internal/config"
	"postblog/internal/middleware"
	"postblog/internal/models"
	"postblog/internal/repository"
	"postblog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

const serviceName = "postblog-api"

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// initMetrics registers the HTTP collectors once per process.
func initMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	redis          *redis.Client
	rateLimiter    *middleware.RateLimiter
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	tokens         *auth.TokenService
	resolver       *auth.Resolver
	authService    *service.AuthService
	postService    *service.PostService
	userService    *service.UserService
	pruner         *service.RevocationPruner
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := NewServerWithDeps(cfg, rt)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return s, nil
}

// NewServerWithDeps creates a Server using an already-initialized runtime.
// Use this in tests or when a bootstrap layer establishes the stores.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	if rt == nil || rt.Users == nil || rt.Revocations == nil {
		return nil, errors.New("runtime with user and revocation stores is required")
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		TTL:       cfg.TokenTTL(),
	}, rt.Revocations)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	s := &Server{
		config:         cfg,
		runtime:        rt,
		redis:          rt.Redis,
		rateLimiter:    middleware.NewRateLimiter(rt.Redis, cfg.RateLimitEnabled()),
		promMiddleware: initMetrics(),
		userRepo:       rt.Users,
		tokens:         tokens,
	}
	s.resolver = auth.NewResolver(tokens, rt.Users)
	s.authService = service.NewAuthService(rt.Users, auth.NewPasswordHasher(cfg.BcryptCost), tokens)
	s.postService = service.NewPostService(rt.Users)
	s.userService = service.NewUserService(rt.Users)
	s.pruner = service.NewRevocationPruner(rt.Revocations, cfg.RevocationPruneInterval())

	return s, nil
}

// NewApp returns a fiber app configured with the API error handler.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "PostBlog API",
		ErrorHandler: errorHandler,
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Span per request; exposes traceID for the context middleware
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		// Credentialed CORS cannot be combined with a wildcard origin.
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Welcome)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	app.Post("/register", s.rateLimiter.Middleware(middleware.Rule{
		Name: "register", Limit: 5, Window: 10 * time.Minute,
	}), s.Register)
	app.Post("/login", s.rateLimiter.Middleware(middleware.Rule{
		Name: "login", Limit: 10, Window: 5 * time.Minute,
	}), s.Login)
	app.Post("/logout", s.Logout)

	// Public reads
	app.Get("/posts", s.GetPosts)
	app.Get("/posts/:post_id/author", s.GetPostAuthor)
	app.Get("/users", s.GetUsers)

	// Protected post routes
	app.Post("/posts", s.AuthRequired(), s.CreatePost)
	app.Get("/my-posts", s.AuthRequired(), s.GetMyPosts)
	app.Patch("/posts/:post_id", s.AuthRequired(), s.UpdatePost)
	app.Delete("/posts/:post_id", s.AuthRequired(), s.DeletePost)
}

// Welcome handles GET /
func (s *Server) Welcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to the PostBlog API"})
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
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.userRepo.Ping(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "store ping failed", slog.String("error", err.Error()))
		storeStatus = "unhealthy"
	}

	// Redis is optional; only a configured client that stops answering fails readiness.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired resolves the session token into the calling user.
// The token query parameter wins over a bearer header, which wins over the cookie.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.resolver.Resolve(c.UserContext(), explicitToken(c), c.Cookies(sessionCookie))
		if err != nil {
			return respondError(c, err)
		}

		c.Locals(localUser, user)
		c.Locals("username", user.Username)
		c.SetUserContext(middleware.WithUsername(c.UserContext(), user.Username))

		return c.Next()
	}
}

// Start starts the HTTP server and the revocation pruner.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	go s.pruner.Run(s.shutdownCtx)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the pruner
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.runtime.Close(ctx); err != nil {
		middleware.Logger.Error("error closing stores", slog.String("error", err.Error()))
		return err
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
