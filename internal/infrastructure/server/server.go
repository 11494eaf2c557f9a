package server

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/tracker/docs"
	httpHandlers "github.com/taskmaster/tracker/internal/adapters/http"
	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/application/services"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
	"github.com/taskmaster/tracker/web"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	db      *database.DB
	metrics *metrics.Metrics
}

// CustomValidator runs the domain validation rules on bound requests
type CustomValidator struct{}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return entities.ValidateStruct(i)
}

// New creates a new server instance. Extra service options are applied after
// the defaults derived from cfg.
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger, opts ...services.Option) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{}

	// Configure Echo
	e.HideBanner = true
	e.Debug = cfg.App.Debug
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	var serviceOpts []services.Option
	if cfg.Metrics.Enabled {
		server.metrics = metrics.New("taskmaster")
		serviceOpts = append(serviceOpts, services.WithMetrics(server.metrics))
	}
	serviceOpts = append(serviceOpts, opts...)

	// Initialize repositories
	store := repository.NewStore(db)

	// Initialize services
	authService := services.NewAuthService(store, cfg.JWT, appLogger, serviceOpts...)
	userService := services.NewUserService(store, appLogger, serviceOpts...)
	categoryService := services.NewCategoryService(store, appLogger, serviceOpts...)
	tagService := services.NewTagService(store, appLogger, serviceOpts...)
	taskService := services.NewTaskService(store, appLogger, serviceOpts...)

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(routeHandlers{
		auth:       httpHandlers.NewAuthHandler(authService, appLogger),
		user:       httpHandlers.NewUserHandler(userService, appLogger),
		task:       httpHandlers.NewTaskHandler(taskService, appLogger),
		category:   httpHandlers.NewCategoryHandler(categoryService, appLogger),
		tag:        httpHandlers.NewTagHandler(tagService, appLogger),
		web:        httpHandlers.NewWebHandler(cfg.App.Name, cfg.App.Version),
		authn:      authService,
		activeUser: userService,
	})

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Metrics wrap the logger so they observe the final status
	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware())
	}

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.LogHTTPRequest(logger.HTTPRequest{
				Method:    values.Method,
				Path:      values.URI,
				RequestID: values.RequestID,
				RemoteIP:  values.RemoteIP,
				Status:    values.Status,
				Latency:   values.Latency,
				Err:       values.Error,
			})
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitEnabled {
		s.echo.Use(s.rateLimiter())
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.BodyLimit("1M"))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// rateLimiter allows RateLimitRequests per RateLimitWindow for each client IP
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	sec := s.config.Security
	every := sec.RateLimitWindow / time.Duration(sec.RateLimitRequests)

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == s.config.Metrics.Path
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(every),
			Burst:     sec.RateLimitRequests,
			ExpiresIn: sec.RateLimitWindow,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.logger.LogSecurityEvent("rate_limited", "", identifier, map[string]interface{}{
				"path": c.Request().URL.Path,
			})
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

type routeHandlers struct {
	auth       *httpHandlers.AuthHandler
	user       *httpHandlers.UserHandler
	task       *httpHandlers.TaskHandler
	category   *httpHandlers.CategoryHandler
	tag        *httpHandlers.TagHandler
	web        *httpHandlers.WebHandler
	authn      ports.AuthService
	activeUser ports.UserService
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Metrics endpoint
	if s.metrics != nil {
		s.echo.GET(s.config.Metrics.Path, echo.WrapHandler(s.metrics.Handler()))
	}

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Web pages
	s.echo.StaticFS("/static", web.Static())
	s.echo.GET("/", h.web.Page("index"))
	for _, page := range web.Pages {
		if page != "index" {
			s.echo.GET("/"+page, h.web.Page(page))
		}
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)

	protected := s.authMiddleware(h.authn, h.activeUser)

	// User routes (authenticated)
	userGroup := v1.Group("/users", protected)
	userGroup.GET("/me", h.user.GetCurrentUser)
	userGroup.PUT("/me", h.user.UpdateCurrentUser)

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", protected)
	taskGroup.GET("", h.task.ListTasks)
	taskGroup.POST("", h.task.CreateTask)
	taskGroup.GET("/statistics", h.task.GetStatistics)
	taskGroup.GET("/:id", h.task.GetTask)
	taskGroup.PUT("/:id", h.task.UpdateTask)
	taskGroup.PATCH("/:id/status", h.task.SetStatus)
	taskGroup.DELETE("/:id", h.task.DeleteTask)

	// Category routes (authenticated)
	categoryGroup := v1.Group("/categories", protected)
	categoryGroup.GET("", h.category.ListCategories)
	categoryGroup.POST("", h.category.CreateCategory)
	categoryGroup.GET("/:id", h.category.GetCategory)
	categoryGroup.PUT("/:id", h.category.UpdateCategory)
	categoryGroup.DELETE("/:id", h.category.DeleteCategory)

	// Tag routes (authenticated)
	tagGroup := v1.Group("/tags", protected)
	tagGroup.GET("", h.tag.ListTags)
	tagGroup.POST("", h.tag.CreateTag)
	tagGroup.GET("/:id", h.tag.GetTag)
	tagGroup.PUT("/:id", h.tag.UpdateTag)
	tagGroup.DELETE("/:id", h.tag.DeleteTag)
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     s.config.App.Name,
		"version": s.config.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type componentHealth struct {
	Status string              `json:"status"`
	Error  string              `json:"error,omitempty"`
	Stats  *database.PoolStats `json:"stats,omitempty"`
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	code := http.StatusOK
	db := componentHealth{Status: "ok"}

	if err := s.db.Ping(c.Request().Context()); err != nil {
		code = http.StatusServiceUnavailable
		db = componentHealth{Status: "error", Error: err.Error()}
	} else {
		stats := s.db.Stats()
		db.Stats = &stats
	}

	return c.JSON(code, map[string]interface{}{
		"status": db.Status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]componentHealth{"database": db},
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ServeHTTP lets the server be driven directly, without a listener
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler renders every error as the API error envelope
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := httpHandlers.MapError(err)

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error",
				"error", err,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}

		// Send response
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}
