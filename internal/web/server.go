// Package web exposes the calendar engine over a JSON HTTP API and serves
// the printable view.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"sessioncal/internal/auth"
	"sessioncal/internal/calendar"
	appLog "sessioncal/internal/log"
)

// ServiceName labels traces and metrics.
const ServiceName = "sessioncal"

// MaxUpload bounds import request bodies.
const MaxUpload = 10 << 20

const shutdownTimeout = 15 * time.Second

// Server routes HTTP requests to one calendar engine.
type Server struct {
	engine   *calendar.Engine
	verifier *auth.Verifier
	router   *gin.Engine
}

// NewServer builds the router. A nil verifier disables basic auth.
func NewServer(engine *calendar.Engine, verifier *auth.Verifier) *Server {
	s := &Server{
		engine:   engine,
		verifier: verifier,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(ServiceName))
	s.router.Use(NewHTTPMetrics(ServiceName).Middleware())
	s.router.Use(requestLog())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	// /health is always reachable without credentials.
	s.router.GET("/health", s.handleHealth)

	protected := s.router.Group("/")
	if s.verifier.Enabled() {
		protected.Use(basicAuth(s.verifier))
	}

	api := protected.Group("/api")
	api.GET("/events", s.listEvents)
	api.POST("/events", s.submitEvents)
	api.GET("/events/:id", s.getEvent)
	api.PUT("/events/:id", s.updateEvent)
	api.DELETE("/events/:id", s.deleteEvent)

	api.GET("/templates", s.listTemplates)
	api.POST("/templates", s.saveTemplate)
	api.POST("/templates/:id/apply", s.applyTemplate)

	api.GET("/views/month", s.monthView)
	api.GET("/views/week", s.weekView)
	api.GET("/views/day", s.dayView)

	api.GET("/export", s.exportJSON)
	api.GET("/export.ics", s.exportICS)
	api.POST("/import", s.importEvents)

	protected.GET("/print", s.printView)
}

func basicAuth(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !v.Check(user, pass) {
			c.Header("WWW-Authenticate", `Basic realm="sessioncal", charset="UTF-8"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, NewError("unauthorized"))
			return
		}
		c.Next()
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "basic_auth", s.verifier.Enabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		appLog.Info("stopping HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
