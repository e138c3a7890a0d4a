// Package api wires together the HTTP routes for the council portal backend.
//
// Route grouping philosophy:
//   - /health and /ready are public: load balancers and orchestrators probe
//     them without credentials.
//   - Everything under /members requires a verified bearer token; admin-only
//     routes additionally require admin privilege (claim or allowlist).
//   - Rate limiting runs before token verification on every members route so
//     a throttled caller never costs a verification round trip. The counter
//     key is therefore the client IP for the first middleware in the chain.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/council-portal/council-portal/internal/activity"
	"github.com/council-portal/council-portal/internal/api/members"
	"github.com/council-portal/council-portal/internal/auth"
	"github.com/council-portal/council-portal/internal/auth/oidc"
	"github.com/council-portal/council-portal/internal/config"
	"github.com/council-portal/council-portal/internal/db/repositories"
	"github.com/council-portal/council-portal/internal/jobs"
	"github.com/council-portal/council-portal/internal/middleware"
	"github.com/council-portal/council-portal/internal/storage"

	// Import storage backends to register them
	_ "github.com/council-portal/council-portal/internal/storage/azure"
	_ "github.com/council-portal/council-portal/internal/storage/gcs"
	_ "github.com/council-portal/council-portal/internal/storage/local"
	_ "github.com/council-portal/council-portal/internal/storage/s3"
)

// BackgroundServices holds background workers and stores that must be stopped
// during graceful shutdown. The caller (cmd/server) calls Shutdown() after
// the HTTP server has drained.
type BackgroundServices struct {
	retentionJob *jobs.ActivityRetentionJob
	counterStore *middleware.MemoryStore
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.retentionJob != nil {
		bg.retentionJob.Stop()
	}
	if bg.counterStore != nil {
		bg.counterStore.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	slog.Info("initialized storage backend", "backend", cfg.Storage.DefaultBackend)

	// Initialize repositories. Documents, meetings, and requests use raw
	// database/sql; messages and activities use sqlx over the same pool.
	documentRepo := repositories.NewDocumentRepository(db)
	meetingRepo := repositories.NewMeetingRepository(db)
	requestRepo := repositories.NewRequestRepository(db)

	sqlxDB := sqlx.NewDb(db, "postgres")
	messageRepo := repositories.NewMessageRepository(sqlxDB)
	activityRepo := repositories.NewActivityRepository(sqlxDB)

	recorder := activity.NewRecorder(activityRepo, cfg.Audit.Enabled)

	// Token verification: portal-issued session tokens always work; identity
	// provider ID tokens are accepted too when OIDC is configured. Every
	// verification runs under the configured timeout.
	verifiers := auth.MultiVerifier{auth.JWTVerifier{}}
	if cfg.Auth.OIDC.Enabled {
		provider, provErr := oidc.NewProvider(&cfg.Auth.OIDC)
		if provErr != nil {
			log.Fatalf("Failed to initialize OIDC provider: %v", provErr)
		}
		verifiers = append(verifiers, provider)
		slog.Info("OIDC token verification enabled", "issuer", cfg.Auth.OIDC.IssuerURL)
	}
	policy := auth.NewPolicy(
		auth.TimeoutVerifier{Inner: verifiers, Timeout: cfg.Auth.VerifyTimeout},
		cfg.Auth.AdminAllowlist(),
	)

	// Rate limiter over the configured counter store.
	bg := &BackgroundServices{}
	counterStore := middleware.NewStoreFromConfig(
		cfg.Security.RateLimiting.Backend,
		cfg.Security.RateLimiting.Redis.Addr,
		cfg.Security.RateLimiting.Redis.Password,
		cfg.Security.RateLimiting.Redis.DB,
	)
	if mem, ok := counterStore.(*middleware.MemoryStore); ok {
		bg.counterStore = mem
	}
	limiter := middleware.NewRateLimiter(counterStore, cfg.Security.RateLimiting)

	// Activity retention pruner.
	if cfg.Audit.Enabled && cfg.Audit.RetentionDays > 0 {
		bg.retentionJob = jobs.NewActivityRetentionJob(activityRepo, cfg.Audit.RetentionDays)
		bg.retentionJob.Start()
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes storage backend probe)
	router.GET("/ready", readinessHandler(db, storageBackend))

	// API version
	router.GET("/version", versionHandler())

	h := members.NewHandlers(cfg, documentRepo, meetingRepo, messageRepo, requestRepo, storageBackend, recorder)

	requireUser := middleware.RequireUser(policy)
	requireAdmin := middleware.RequireAdmin(policy)
	limit := func(class middleware.Class) gin.HandlerFunc {
		return middleware.RateLimitMiddleware(limiter, class)
	}

	// Members portal routes. The middleware order on each route is fixed:
	// rate limit first, then the auth gate, then the handler.
	portal := router.Group("/members")
	{
		portal.GET("/documents", limit(middleware.ClassRead), requireUser, h.ListDocuments)
		portal.POST("/documents", limit(middleware.ClassUpload), requireUser, h.UploadDocument)
		portal.GET("/documents/:id", limit(middleware.ClassRead), requireUser, h.GetDocument)
		portal.PUT("/documents/:id", limit(middleware.ClassAdmin), requireAdmin, h.UpdateDocument)
		portal.DELETE("/documents/:id", limit(middleware.ClassAdmin), requireAdmin, h.DeleteDocument)
		portal.POST("/documents/:id/download", limit(middleware.ClassDefault), requireUser, h.DownloadDocument)
		portal.GET("/documents/:id/file", limit(middleware.ClassDefault), requireUser, h.ServeDocumentFile)

		portal.GET("/meetings", limit(middleware.ClassRead), requireUser, h.ListMeetings)
		portal.POST("/meetings", limit(middleware.ClassCreate), requireUser, h.CreateMeeting)
		portal.GET("/meetings/:id", limit(middleware.ClassRead), requireUser, h.GetMeeting)

		portal.GET("/messages", limit(middleware.ClassRead), requireUser, h.ListMessages)
		portal.POST("/messages", limit(middleware.ClassCreate), requireUser, h.CreateMessage)
		portal.GET("/messages/:id", limit(middleware.ClassRead), requireUser, h.GetMessage)
		portal.POST("/messages/:id/read", limit(middleware.ClassDefault), requireUser, h.MarkMessageRead)

		portal.GET("/requests", limit(middleware.ClassRead), requireUser, h.ListRequests)
		portal.POST("/requests", limit(middleware.ClassCreate), requireUser, h.CreateRequest)
		portal.GET("/requests/:id", limit(middleware.ClassRead), requireUser, h.GetRequest)
		portal.PUT("/requests/:id/status", limit(middleware.ClassAdmin), requireAdmin, h.UpdateRequestStatus)

		portal.GET("/activities", limit(middleware.ClassRead), requireUser, h.ListActivities)
	}

	return router, bg
}

func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service. Unlike the
// liveness probe (/health), this also checks the storage backend so that a
// readiness gate fails when uploads/downloads would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Probe the storage backend with a known-absent sentinel path.
		// Exists() exercises authentication and network connectivity without
		// creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
