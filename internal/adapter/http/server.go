package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/engine"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// Dashboard is the primary view: reconciled tanks, alerts and aggregates.
// Readiness of the service follows the dashboard's first successful cycle.
type Dashboard interface {
	sharedobs.ReadinessChecker
	State() engine.State
	Device(id string) (domain.DeviceState, error)
	Alerts() []domain.Alert
	DismissAlert(id string) bool
	Summary() domain.Summary
}

// Forecaster is the prediction view, polled independently of the dashboard.
type Forecaster interface {
	Prediction(id string) (domain.Prediction, error)
	Predictions() (map[string]domain.Prediction, domain.Weather)
}

// Deps are the collaborators behind the API. Geocoder is nil when location
// search is disabled.
type Deps struct {
	Dashboard      Dashboard
	Forecaster     Forecaster
	Geocoder       domain.Geocoder
	SearchRadiusKm float64
	PushInterval   time.Duration
	Metrics        *observability.Metrics
}

// Server exposes health, readiness, metrics, the JSON API and the live
// dashboard websocket.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.SearchRadiusKm <= 0 {
		deps.SearchRadiusKm = domain.DefaultSearchRadiusKm
	}
	if deps.PushInterval <= 0 {
		deps.PushInterval = defaultPushInterval
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	router.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	router.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Dashboard)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", s.handleWS)

	api := router.Group("/api/v1")
	api.GET("/tanks", s.handleListTanks)
	api.GET("/tanks/:id", s.handleGetTank)
	api.GET("/tanks/:id/prediction", s.handleGetPrediction)
	api.GET("/predictions", s.handleListPredictions)
	api.GET("/alerts", s.handleListAlerts)
	api.DELETE("/alerts/:id", s.handleDismissAlert)
	api.GET("/summary", s.handleSummary)
	api.GET("/search", s.handleSearch)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
