package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/tradeimport/internal/config"
	"github.com/cleared-dev/tradeimport/internal/mapping"
	"github.com/cleared-dev/tradeimport/internal/pipeline"
	"github.com/cleared-dev/tradeimport/internal/source"
)

// Server exposes the engine over HTTP. Files that need a column mapping are held in
// memory until the mapping arrives or the entry expires.
type Server struct {
	engine    *pipeline.Engine
	pending   *cache.Cache
	limiter   *rate.Limiter
	logger    *slog.Logger
	maxUpload int64
	router    *mux.Router
}

// pendingImport is a file waiting for its mapping.
type pendingImport struct {
	mu      sync.Mutex
	file    source.File
	locale  string
	session *mapping.Session
}

// New creates a Server and registers its routes.
func New(engine *pipeline.Engine, cfg config.ServerConfig, logger *slog.Logger) *Server {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	ttl := cfg.MappingTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	s := &Server{
		engine:    engine,
		pending:   cache.New(ttl, 2*ttl),
		limiter:   rate.NewLimiter(limit, cfg.Burst),
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
		router:    mux.NewRouter().StrictSlash(true),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.rateLimit, setContentType)
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/parse", s.handleParse).Methods(http.MethodPost)
	api.HandleFunc("/mapping/propose", s.handlePropose).Methods(http.MethodPost)
	api.HandleFunc("/mapping/{requestID}", s.handleMapping).Methods(http.MethodPost)
	api.HandleFunc("/adapters", s.handleAdapters).Methods(http.MethodGet)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
