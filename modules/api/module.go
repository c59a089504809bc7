package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	domain "github.com/example/task-manager-demo/domain/ratelimit"
	"github.com/example/task-manager-demo/middleware/ratelimit"
	"github.com/example/task-manager-demo/modules/auth"
	"github.com/example/task-manager-demo/modules/tasks"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app            *fiber.App
	authContainer  mono.ServiceContainer
	tasksContainer mono.ServiceContainer
	authAdapter    auth.AuthPort
	taskAdapter    tasks.TaskPort
	redisClient    *redis.Client
	loginLimiter   domain.Limiter
	resetLimiter   domain.Limiter
	port           int
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule() *APIModule {
	return &APIModule{port: apiPort()}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "tasks"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authAdapter = auth.NewAuthAdapter(container)
	case "tasks":
		m.tasksContainer = container
		m.taskAdapter = tasks.NewTaskAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(ctx context.Context) error {
	if m.authContainer == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.tasksContainer == nil {
		return fmt.Errorf("tasks dependency not set")
	}

	m.setupLimiters(ctx)

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	// Add middleware
	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	// Setup routes
	m.setupRoutes()

	// Start server in goroutine
	go func() {
		if err := m.app.Listen(fmt.Sprintf(":%d", m.port)); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.redisClient != nil {
		if err := m.redisClient.Close(); err != nil {
			log.Printf("[api] Error closing Redis client: %v", err)
		}
	}
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	backend := "memory"
	if m.redisClient != nil {
		backend = "redis"
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":               m.port,
			"rate_limit_backend": backend,
		},
	}
}

// setupLimiters chooses the rate limiter backend. With REDIS_ADDR set a
// shared Redis sliding window is used; otherwise limits are tracked
// in process memory, which is enough for a single instance.
func (m *APIModule) setupLimiters(ctx context.Context) {
	loginCfg := domain.DefaultLoginConfig()
	resetCfg := domain.DefaultResetRequestConfig()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Println("[api] REDIS_ADDR not set, using in-memory rate limiting")
		m.loginLimiter = ratelimit.NewMemoryLimiter(loginCfg)
		m.resetLimiter = ratelimit.NewMemoryLimiter(resetCfg)
		return
	}

	m.redisClient = redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := m.redisClient.Ping(ctx).Err(); err != nil {
		// The limiter fails open at request time, so an unreachable
		// Redis at startup is not fatal.
		log.Printf("[api] Redis ping failed, rate limiting degraded: %v", err)
	} else {
		log.Printf("[api] Using Redis rate limiting at %s", redisAddr)
	}

	m.loginLimiter = ratelimit.NewSlidingWindowLimiter(m.redisClient, loginCfg, "ratelimit:login:")
	m.resetLimiter = ratelimit.NewSlidingWindowLimiter(m.redisClient, resetCfg, "ratelimit:reset:")
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.authAdapter, m.taskAdapter)

	// Health check endpoint
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	// Public routes
	m.app.Post("/users", handlers.Register)
	m.app.Post("/login",
		ratelimit.PerRoute(m.loginLimiter, domain.DefaultLoginConfig(), "login"),
		handlers.Login)
	m.app.Post("/refresh", handlers.Refresh)
	m.app.Post("/password-reset/request",
		ratelimit.PerRoute(m.resetLimiter, domain.DefaultResetRequestConfig(), "password-reset"),
		handlers.RequestPasswordReset)
	m.app.Post("/password-reset/confirm", handlers.ConfirmPasswordReset)

	// Admin routes (require authentication plus the admin role)
	admin := m.app.Group("/admin")
	admin.Use(AuthMiddleware(m.authAdapter))
	admin.Use(AdminMiddleware())
	admin.Get("/users", handlers.ListUsers)

	// Task routes (require authentication)
	taskRoutes := m.app.Group("/tasks")
	taskRoutes.Use(AuthMiddleware(m.authAdapter))
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

func apiPort() int {
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
		log.Printf("[api] Invalid API_PORT %q, using 3000", v)
	}
	return 3000
}
