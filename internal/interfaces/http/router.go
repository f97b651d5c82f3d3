package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"warden/internal/application/sessions"
	"warden/internal/infrastructure/config"
	"warden/internal/interfaces/http/handlers"
	"warden/internal/interfaces/http/middleware"
	"warden/internal/shared/authorization"
	"warden/internal/shared/logger"
)

// Router wires the HTTP surface: session lifecycle endpoints, health and
// metrics.
type Router struct {
	engine         *gin.Engine
	sessionHandler *handlers.SessionHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(manager *sessions.Manager, cfg *config.Config, registry *prometheus.Registry, log logger.Interface) *Router {
	gin.SetMode(ginMode(cfg.Server.Mode))
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.ErrorHandler())
	if len(cfg.Server.AllowedOrigins) > 0 {
		engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	}

	router := &Router{
		engine:         engine,
		sessionHandler: handlers.NewSessionHandler(manager, log),
		authMiddleware: middleware.NewAuthMiddleware(manager, log),
	}

	router.setupRoutes(cfg, registry)

	return router
}

func (r *Router) setupRoutes(cfg *config.Config, registry *prometheus.Registry) {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := r.engine.Group("/api/v1")

	// Session establishment is reserved for the upstream login service.
	internal := v1.Group("/internal")
	internal.Use(middleware.InternalToken(cfg.Auth.InternalAPIToken))
	{
		internal.POST("/sessions", r.sessionHandler.CreateSession)
	}

	v1.POST("/auth/refresh", r.sessionHandler.Refresh)

	authed := v1.Group("/sessions")
	authed.Use(r.authMiddleware.RequireAuth())
	{
		authed.GET("", r.sessionHandler.ListSessions)
		authed.DELETE("/:id", r.sessionHandler.RevokeSession)
		authed.DELETE("", r.sessionHandler.RevokeAllSessions)
	}

	admin := v1.Group("/admin")
	admin.Use(r.authMiddleware.RequireAuth(), authorization.RequireAdmin())
	{
		admin.GET("/sessions/stats", r.sessionHandler.Stats)
	}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func ginMode(mode string) string {
	switch mode {
	case "release", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
