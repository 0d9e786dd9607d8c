package api

import (
	"net/http"

	_ "github.com/ZanzyTHEbar/pontos-doacao/docs"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/middleware"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/ratelimit"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/security"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Deps are the collaborators wired into the router. Only Store is required.
type Deps struct {
	Store    PointStore
	Health   HealthChecker
	Redis    *ratelimit.RedisClient
	Geocoder BreakerReporter
	Limiter  *ratelimit.RateLimiter
	Metrics  *monitoring.Metrics
	Logger   *monitoring.Logger
	Security security.SecurityConfig
}

// NewRouter builds the gin engine with the full middleware chain
func NewRouter(deps Deps) *gin.Engine {
	RegisterValidators()

	if deps.Logger == nil {
		deps.Logger = monitoring.NewLogger()
	}

	h := &Handler{
		store:    deps.Store,
		health:   deps.Health,
		redis:    deps.Redis,
		limiter:  deps.Limiter,
		geocoder: deps.Geocoder,
		metrics:  deps.Metrics,
		version:  Version,
	}

	r := gin.New()

	// Monitoring first so every request is counted
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(deps.Metrics, deps.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(deps.Logger, deps.Security.MaxBodyBytes))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware(deps.Security.EnableHSTS))
	r.Use(security.CORSMiddleware(deps.Security))
	r.Use(security.RequestTimeout(deps.Security.RequestTimeout))
	r.Use(security.MaxBodySize(deps.Security.MaxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		errors.Respond(c, errors.NewNotFoundError("Route not found", nil), "")
	})

	r.GET("/health", h.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.IPRateLimitMiddleware())
		api.Use(deps.Limiter.WriteRateLimitMiddleware())
	}
	api.Use(security.ValidateContentType())
	api.Use(middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()).Handler())

	pontos := api.Group("/pontos")
	{
		pontos.GET("", h.ListPoints)
		pontos.POST("", h.CreatePoint)
		pontos.GET("/necessidades", h.NeedsRanking)
		pontos.GET("/estatisticas", h.Statistics)
		pontos.GET("/cidade/:cidade", h.ListPointsByCity)
		pontos.GET("/:id", h.GetPoint)
		pontos.PUT("/:id", h.UpdatePoint)
		pontos.DELETE("/:id", h.DeletePoint)
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	return r
}
