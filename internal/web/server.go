// Package web serves the narrative workflow over HTTP. Each browser session
// gets its own session.Session keyed by a UUID.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gonarrative/internal/session"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// Options configures a Server.
type Options struct {
	// Narrator generates narratives for every session.
	Narrator session.Narrator
	// NewSession creates an empty session. Defaults to session.New("").
	NewSession     func() *session.Session
	MaxUploadBytes int64
	CORSOrigins    []string
	SessionTTL     time.Duration
}

type entry struct {
	sess     *session.Session
	lastUsed time.Time
}

// Server holds the sessions and the gin engine.
type Server struct {
	narrator   session.Narrator
	newSession func() *session.Session
	maxUpload  int64
	ttl        time.Duration
	metrics    *metrics
	engine     *gin.Engine

	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		narrator:   opts.Narrator,
		newSession: opts.NewSession,
		maxUpload:  opts.MaxUploadBytes,
		ttl:        opts.SessionTTL,
		metrics:    newMetrics(),
		sessions:   map[string]*entry{},
		now:        time.Now,
	}
	if s.newSession == nil {
		s.newSession = func() *session.Session { return session.New("") }
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 1 << 20
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	s.engine = s.routes(opts.CORSOrigins)
	return s
}

func (s *Server) routes(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.MaxMultipartMemory = s.maxUpload

	if len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
			// the session id travels in the path, not in cookies
			AllowCredentials: false,
			ExposeHeaders:    []string{"Content-Disposition"},
		}))
	}

	router.GET("/healthcheck", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/profiles", listProfiles)
	api.POST("/sessions", s.createSession)

	sess := api.Group("/sessions/:id")
	sess.Use(s.loadSession())
	{
		sess.GET("", s.getState)
		sess.DELETE("", s.deleteSession)
		sess.PUT("/industry", s.setIndustry)
		sess.POST("/upload", s.upload)
		sess.DELETE("/upload", s.removeFile)
		sess.PUT("/profile", s.selectProfile)
		sess.POST("/generate", s.generate)
		sess.GET("/prompt", s.getPrompt)
		sess.GET("/download", s.download)
		sess.POST("/reset", s.reset)
	}
	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("HTTP server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// add registers a new session and drops idle ones.
func (s *Server) add() (string, *session.Session) {
	id := uuid.NewString()
	sess := s.newSession()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.ttl && !e.sess.Generating() {
			delete(s.sessions, k)
		}
	}
	s.sessions[id] = &entry{sess: sess, lastUsed: now}
	s.metrics.sessions.Set(float64(len(s.sessions)))
	return id, sess
}

func (s *Server) get(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = s.now()
	return e.sess, true
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	s.metrics.sessions.Set(float64(len(s.sessions)))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
