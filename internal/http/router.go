// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, auth, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Student data is never cached by intermediaries
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/safestudent/safe-student-backend/internal/config"
	"github.com/safestudent/safe-student-backend/internal/http/handlers"
	"github.com/safestudent/safe-student-backend/internal/http/middleware"
	"github.com/safestudent/safe-student-backend/internal/services"
)

const (
	// defaultBodyLimit caps JSON request bodies.
	defaultBodyLimit int64 = 1 << 20
	// multipartOverhead is added to the upload limit for multipart framing.
	multipartOverhead int64 = 64 << 10
	// modelCallCost is the rate-limit weight of routes that call the model.
	modelCallCost = 3
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Global middleware, in order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (uploads get cfg.UploadMaxBytes)
//  6. Gzip
//  7. Metrics
//  8. CORS and security headers
//
// API group middleware, in order:
//  1. Auth (JWT bearer or development identity)
//  2. Idempotency validator (before rate limiter to allow bypass on replay)
//  3. Rate limiter (per user/IP, bypass on replay)
//
// CORS runs globally so preflight requests never need credentials.
func RegisterRoutes(r *gin.Engine, svc handlers.Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	uploadsRoute := path.Join(apiBase, "/uploads")

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-User-ID", middleware.HeaderIdempotencyKey},
		QuietPaths:  []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits
	maxUpload := cfg.UploadMaxBytes
	if maxUpload <= 0 {
		maxUpload = services.DefaultMaxUploadBytes
	}
	r.Use(limitBody(defaultBodyLimit, map[string]int64{
		uploadsRoute: maxUpload + multipartOverhead,
	}))

	// 6) Response compression (metrics scrapes negotiate their own encoding)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStore:           true,
		CacheablePrefixes: []string{"/swagger/"},
		EnablePolicy:      true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", health(svc))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.JWTIssuer,
		Required: cfg.Auth.Required,
	}))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, svc.IdempotencyLookup()))
	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RPS:   cfg.RateRPS,
		Burst: cfg.RateBurst,
		Key:   middleware.KeyByUserOrIP(),
		Cost: middleware.RouteCost(modelCallCost,
			path.Join(apiBase, "/uploads/:id/analyze"),
			path.Join(apiBase, "/uploads/:id/reanalyze"),
			path.Join(apiBase, "/assistant/messages"),
		),
	})
	api.Use(rl.Handler())

	h := handlers.New(svc)
	{
		// Uploads and history
		if svc.Uploads != nil {
			api.POST("/uploads", h.CreateUpload)
		}
		if svc.History != nil {
			api.GET("/uploads", h.ListUploads)
			api.GET("/uploads/stats", h.UploadStats)
			api.GET("/uploads/:id", h.GetUpload)
			api.DELETE("/uploads/:id", h.DeleteUpload)
		}

		// Analysis
		if svc.Analyses != nil {
			api.POST("/uploads/:id/analyze", h.Analyze)
			api.POST("/uploads/:id/reanalyze", h.Reanalyze)
		}

		// Feedback
		if svc.Feedback != nil {
			api.POST("/uploads/:id/feedback", h.LeaveFeedback)
		}

		// Profile
		if svc.Profiles != nil {
			api.GET("/profile", h.GetProfile)
			api.PUT("/profile", h.UpdateProfile)
		}

		// Safety assistant
		if svc.Assistant != nil {
			api.POST("/assistant/messages", h.AskAssistant)
		}
	}
}

// health answers liveness probes and reports the database as degraded when
// it cannot be pinged.
func health(svc handlers.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc.DB != nil {
			sqlDB, err := svc.DB.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database unreachable")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsMiddleware returns the CORS handlers. With no allowlist every origin is
// accepted without credentials; otherwise allowed origins are echoed.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
			"X-User-ID", middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "ETag", "Retry-After",
			middleware.HeaderIdempotencyReplayed,
		},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body with http.MaxBytesReader. The cap is
// looked up by matched route and falls back to def.
func limitBody(def int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := def
		if n, ok := perRoute[c.FullPath()]; ok {
			limit = n
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
