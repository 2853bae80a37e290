package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/medchain/inventory-api/internal/handler/prometheus"
	"github.com/medchain/inventory-api/internal/middleware"
)

// Handler registers its routes on a gin group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORS             middleware.CORSConfig
}

type Router struct {
	engine  *gin.Engine
	metrics *prometheus.Handler
}

// NewRouter assembles the middleware chain and mounts every handler
// under /api/v1. Health and metrics stay at the root.
func NewRouter(config Config, metricsH *prometheus.Handler, healthH Handler, apiHandlers ...Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Validation(middleware.DefaultValidationConfig()),
		middleware.CORS(config.CORS),
	)
	if metricsH != nil {
		engine.Use(metricsH.Middleware())
	}
	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	root := engine.Group("")
	healthH.RegisterRoutes(root)
	if metricsH != nil {
		engine.GET("/metrics", metricsH.Handler())
	}

	api := engine.Group("/api/v1")
	for _, h := range apiHandlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return &Router{engine: engine, metrics: metricsH}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
