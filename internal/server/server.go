// Package server assembles the gin engine: global middleware, probes, metrics,
// API docs and the document routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/pdfstore/handlers"
	"github.com/gogotex/pdfstore/internal/config"
	"github.com/gogotex/pdfstore/internal/document/handler"
	"github.com/gogotex/pdfstore/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Options carries everything the router needs. Documents is required.
type Options struct {
	Documents *handler.Handler
	// Verifier authenticates mutating routes; nil makes them answer 503.
	Verifier  middleware.Verifier
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	// Checks are run by /ready, keyed by dependency name.
	Checks       map[string]Check
	CheckTimeout time.Duration
	// Metrics serves /metrics; defaults to the default Prometheus registry.
	Metrics http.Handler
}

var startTime = time.Now()

// NewRouter builds the HTTP surface.
func NewRouter(o Options) *gin.Engine {
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	if o.RateLimit.Enabled {
		if o.RateLimit.UseRedis && o.Redis != nil {
			win := time.Duration(o.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(o.Redis, o.RateLimit.RPS, o.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(o.RateLimit.RPS, o.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(o.Checks, o.CheckTimeout))

	metricsHandler := o.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	handlers.RegisterSwagger(r)

	var auth gin.HandlerFunc
	if o.Verifier != nil {
		auth = middleware.AuthMiddleware(o.Verifier)
	}
	handler.RegisterDocumentRoutes(r, o.Documents, auth)
	return r
}

// readiness returns 200 only when every check passes.
func readiness(checks map[string]Check, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			err := check(ctx)
			cancel()
			deps[name] = err == nil
			if err != nil {
				ready = false
			}
		}
		body := gin.H{"deps": deps, "uptime": fmt.Sprintf("%s", time.Since(startTime).Round(time.Second))}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	}
}

// cors sets permissive headers and answers preflight requests.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
