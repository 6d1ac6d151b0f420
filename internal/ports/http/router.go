package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/crashdesk/ondemand/internal/port/outbound"
	"github.com/crashdesk/ondemand/internal/utils/metrics"
	"github.com/crashdesk/ondemand/internal/utils/middleware"
)

// RouterConfig holds everything the HTTP router serves.
type RouterConfig struct {
	Debug       bool
	CORSOrigins []string
	// Swagger serves the registered API documentation under /swagger.
	Swagger     bool

	// ExceptionLimit requests per ExceptionWindow per client. Zero disables limiting.
	RateLimiter     outbound.RateLimiterPort
	ExceptionLimit  int
	ExceptionWindow time.Duration

	Metrics         *metrics.Metrics
	MetricsGatherer prometheus.Gatherer
	Logger          *zap.Logger

	OnDemand       *OnDemandHandler
	Reports        *ReportHandler
	DataCollection *DataCollectionHandler
	Health         *HealthHandler
}

// NewRouter creates the gin engine with middleware and all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(log))
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(middleware.CORS(corsCfg))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.Health != nil {
		r.GET("/health", cfg.Health.Health)
	} else {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}
	if cfg.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	// Swagger documentation endpoint
	if cfg.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	v1 := r.Group("/api/v1")

	var exceptionMiddleware []gin.HandlerFunc
	if cfg.RateLimiter != nil && cfg.ExceptionLimit > 0 && cfg.ExceptionWindow > 0 {
		exceptionMiddleware = append(exceptionMiddleware,
			middleware.RateLimitByEndpoint(cfg.RateLimiter, cfg.ExceptionLimit, cfg.ExceptionWindow, log))
	}

	if cfg.OnDemand != nil {
		cfg.OnDemand.RegisterRoutes(v1, exceptionMiddleware...)
	}
	if cfg.Reports != nil {
		cfg.Reports.RegisterRoutes(v1)
	}
	if cfg.DataCollection != nil {
		cfg.DataCollection.RegisterRoutes(v1)
	}

	return r
}
