package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"parlayz/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the operations exposed over HTTP
type Services struct {
	Users      service.UserService
	Pools      service.PoolService
	MiniPools  service.MiniPoolService
	Offers     service.OfferService
	Settlement service.SettlementService
}

// Server is the JSON HTTP surface
type Server struct {
	services Services
	jwt      JWT
	db       Pinger
	engine   *gin.Engine
}

// NewServer builds the router with every route registered
func NewServer(services Services, jwt JWT, db Pinger) *Server {
	s := &Server{
		services: services,
		jwt:      jwt,
		db:       db,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

// Handler returns the http.Handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	s.engine.POST("/api/users", s.signup)

	authed := s.engine.Group("/api", RequireActor(s.jwt, s.services.Users))
	authed.GET("/me", s.me)
	authed.GET("/me/history", s.history)

	authed.GET("/events", s.listEvents)
	authed.POST("/events", s.createEvent)
	authed.GET("/events/:id", s.getEvent)
	authed.POST("/events/:id/entries", s.joinEvent)
	authed.POST("/events/:id/lock", s.lockEvent)
	authed.POST("/events/:id/settle", s.settleEvent)
	authed.POST("/events/:id/minipools", s.createMiniPool)
	authed.GET("/events/:id/offers", s.listOffers)
	authed.POST("/events/:id/offers", s.createOffer)

	authed.GET("/minipools/:id", s.getMiniPool)
	authed.POST("/minipools/:id/entries", s.joinMiniPool)

	authed.POST("/offers/:id/match", s.matchOffer)
	authed.POST("/offers/:id/cancel", s.cancelOffer)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		})
		switch {
		case status >= 500:
			entry.Error("HTTP request")
		case status >= 400:
			entry.Warn("HTTP request")
		default:
			entry.Debug("HTTP request")
		}
	}
}

// pathID parses the :id route parameter, writing a 400 on failure
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// listLimit reads ?limit=, clamped to (0, maxListLimit]
func listLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		Error(c, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, true
}

// bindJSON decodes the body, writing a 400 on failure
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}
