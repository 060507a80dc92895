package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/wilhelmsk/core/docs"
	httpHandlers "github.com/wilhelmsk/core/internal/adapters/http"
	"github.com/wilhelmsk/core/internal/adapters/delta"
	"github.com/wilhelmsk/core/internal/application/services"
	"github.com/wilhelmsk/core/internal/infrastructure/config"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/infrastructure/metrics"
)

// Checker reports whether a dependency is usable. Readiness fails when any
// checker does.
type Checker interface {
	Check(ctx context.Context) error
}

// Dependencies are the application services the routes are bound to
type Dependencies struct {
	GaugeService    *services.GaugeService
	DefaultsService *services.DefaultsService
	MetadataService *services.MetadataService
	AuthService     *services.AuthService
	Stream          *delta.Stream
	Checks          map[string]Checker
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	checks  map[string]Checker
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger, m *metrics.Metrics) (*Server, error) {
	if deps.GaugeService == nil || deps.DefaultsService == nil || deps.MetadataService == nil {
		return nil, errors.New("server: gauge, defaults and metadata services are required")
	}
	if cfg.JWT.Enabled && deps.AuthService == nil {
		return nil, errors.New("server: jwt is enabled but no auth service was provided")
	}

	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	gaugeHandler := httpHandlers.NewGaugeHandler(deps.GaugeService, appLogger)
	defaultsHandler := httpHandlers.NewDefaultsHandler(deps.DefaultsService, appLogger)
	metadataHandler := httpHandlers.NewMetadataHandler(deps.MetadataService, appLogger)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		metrics: m,
		checks:  deps.Checks,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled && m != nil {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(gaugeHandler, defaultsHandler, metadataHandler, deps)

	return server, nil
}

func (s *Server) streamPath() string {
	return s.mountPath() + "/stream"
}

func (s *Server) mountPath() string {
	if s.config.Server.MountPath == "/" {
		return ""
	}
	return s.config.Server.MountPath
}

func (s *Server) isStream(c echo.Context) bool {
	return c.Path() == s.streamPath()
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		perSecond := rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds())

		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: s.isStream,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: perSecond, Burst: s.config.Security.RateLimitRequests, ExpiresIn: 3 * window},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				s.logger.LogSecurityEvent("rate_limited", identifier, map[string]interface{}{
					"endpoint": c.Request().URL.Path,
				})
				return c.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request size limit
	if s.config.Security.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.config.Security.BodyLimit))
	}

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Skipper: s.isStream,
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(gaugeHandler *httpHandlers.GaugeHandler, defaultsHandler *httpHandlers.DefaultsHandler, metadataHandler *httpHandlers.MetadataHandler, deps Dependencies) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	docs.SwaggerInfo.BasePath = s.config.Server.MountPath
	docs.SwaggerInfo.Version = s.config.App.Version
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	write := s.authMiddleware(deps.AuthService)

	plugin := s.echo.Group(s.mountPath())

	// Gauge routes. Static routes win over the wildcard defaults routes
	// registered below.
	plugin.GET("/get/gauges", gaugeHandler.GetGauges)
	plugin.POST("/save/gauge", gaugeHandler.SaveGauge, write)
	plugin.POST("/delete/gauge", gaugeHandler.DeleteGauge, write)

	// Defaults routes
	plugin.GET("/get/*", defaultsHandler.GetDefault)
	plugin.POST("/save/*", defaultsHandler.SaveDefault, write)
	plugin.GET("/delete/*", defaultsHandler.DeleteDefault, write)

	// Metadata routes
	wsk := plugin.Group("/wsk")
	wsk.GET("/switches", metadataHandler.Switches)
	wsk.GET("/multiSwitches", metadataHandler.MultiSwitches)
	wsk.GET("/putPaths", metadataHandler.PutPaths)
	wsk.GET("/allPaths", metadataHandler.AllPaths)
	wsk.GET("/meta/:path", metadataHandler.Meta)
	wsk.GET("/paths", metadataHandler.Paths)

	// Delta stream
	if s.config.Stream.Enabled && deps.Stream != nil {
		streamHandler := httpHandlers.NewStreamHandler(deps.Stream, s.logger)
		plugin.GET("/stream", streamHandler.Stream)
	}
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			s.metrics.RequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			s.metrics.RequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})
	path := s.config.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	s.echo.GET(path, echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	status := "ready"
	checks := make(map[string]interface{}, len(s.checks))

	for name, checker := range s.checks {
		if err := checker.Check(c.Request().Context()); err != nil {
			status = "not_ready"
			checks[name] = map[string]string{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]string{"status": "ok"}
	}

	response := map[string]interface{}{
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"checks":  checks,
		"version": s.config.App.Version,
	}

	if status == "ready" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns nil once Shutdown has been called.
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address, "mount_path", s.config.Server.MountPath)
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors. String messages are sent as plain
// text so the compatibility routes answer with the bodies clients expect.
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = httpHandlers.MsgInvalidRequest
		default:
			msg = http.StatusText(code)
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if c.Response().Committed {
			return
		}

		switch m := msg.(type) {
		case string:
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.String(code, m)
			}
		default:
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, m)
			}
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}
