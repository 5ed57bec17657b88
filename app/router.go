package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/handlers"
	"github.com/rskenterprises/billing_backend/metrics"
	"github.com/rskenterprises/billing_backend/middlewares"
)

// NewRouter builds the gin engine: probes and metrics are public, the API
// sits behind CORS, rate limiting and auth.
func (a *App) NewRouter() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.ErrorLogger(a.Logger))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.Use(cors.New(a.corsConfig()))
	if config.RateLimitEnabled() && a.Redis != nil {
		limiter := middlewares.NewRateLimiter(a.Redis.Client(), config.RateLimitMaxRequests(), time.Minute)
		r.Use(limiter.Middleware())
	}

	api := r.Group("/", middlewares.AuthMiddleware(a.Tokens))
	handlers.New(a.Services, a.Logger).Register(api)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

// corsConfig allows every origin outside production. Production requires an
// explicit CORS_ALLOWED_ORIGINS list and denies all without one.
func (a *App) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if a.Config.IsProduction() {
		cfg.AllowOrigins = a.Config.CORSAllowedOrigins
		if len(cfg.AllowOrigins) == 0 {
			cfg.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	cfg.AllowCredentials = !cfg.AllowAllOrigins
	return cfg
}
