// Package httpapi exposes the tracker over JSON for other clients.
package httpapi

import (
	"context"
	"strconv"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Authenticator resolves credentials and bearer tokens to identities.
// identity.Provider satisfies it.
type Authenticator interface {
	Login(ctx context.Context, c identity.Credentials) (domain.Identity, error)
	Register(ctx context.Context, r identity.Registration) (domain.Identity, error)
	Identify(ctx context.Context, token string) (domain.Identity, error)
}

// NewRouter builds the gin engine with logging, recovery and the API routes.
func NewRouter(logger zerolog.Logger, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(loggerMiddleware(logger), metricsMiddleware(), gin.Recovery())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/login", h.Login)
	api.POST("/register", h.Register)

	authed := api.Group("", BearerAuth(h.auth))
	authed.GET("/today", h.Today)
	authed.GET("/sessions", h.ListSessions)
	authed.POST("/sessions", h.StartSession)
	authed.POST("/sessions/manual", h.ManualSession)
	authed.POST("/sessions/complete-all", h.CompleteAll)
	authed.POST("/sessions/:id/complete", h.CompleteSession)
	authed.POST("/sessions/:id/checkout", h.CheckOut)
	authed.POST("/reset", h.ResetToday)
	authed.PUT("/target", h.SetTarget)
	authed.POST("/sync", h.Sync)

	return r
}

func loggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := logger.Info()
		if c.Writer.Status() >= 500 {
			ev = logger.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
