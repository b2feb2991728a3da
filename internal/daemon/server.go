package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/cas"
	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/docs"
	"github.com/jcdickinson/apiref/internal/highlight"
	"github.com/jcdickinson/apiref/internal/metrics"
	"github.com/jcdickinson/apiref/internal/render"
	"github.com/jcdickinson/apiref/internal/rpc"
	"github.com/jcdickinson/apiref/internal/search"
)

// Catalog is the persistent package catalogue. *db.DB implements it.
type Catalog interface {
	docs.Catalog
	search.Index
	ListPackages(ctx context.Context, limit int) ([]db.Package, error)
	Clear(ctx context.Context) error
	Close() error
}

const recentLimit = 20

type Server struct {
	cfg         *config.Config
	catalog     Catalog
	store       *cas.Store
	loader      docs.Loader
	registry    *docs.Registry
	searcher    *search.Searcher
	highlighter highlight.Highlighter
	logger      *zap.Logger
	metrics     metrics.Recorder
	gatherer    prom.Gatherer
	router      chi.Router

	socketPath string
	httpServer *http.Server
	listener   net.Listener
	exit       func(code int)

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLoader replaces the doc-model loader built from the configuration.
func WithLoader(l docs.Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithStore replaces the blob store under the cache directory.
func WithStore(st *cas.Store) Option {
	return func(s *Server) { s.store = st }
}

func NewServer(cfg *config.Config, catalog Catalog, socketPath string, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		catalog:    catalog,
		socketPath: socketPath,
		logger:     zap.NewNop(),
		expiration: cfg.Expiration(),
		exit:       os.Exit,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		s.loader = docs.NewFetcher(cfg.Registry.URL,
			docs.WithFixturesDir(cfg.Fixtures.Dir),
			docs.WithLocalInput(cfg.Local.Input),
			docs.WithTimeout(cfg.Registry.Timeout),
		)
	}
	if s.store == nil {
		s.store = cas.New(config.CASDir())
	}
	if cfg.Highlight.Enabled {
		s.highlighter = highlight.NewChroma(cfg.Highlight.Style)
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.gatherer = reg
	s.metrics = metrics.NewPrometheusRecorder(reg)

	s.registry = docs.NewRegistry(s.loader,
		docs.WithStore(s.store),
		docs.WithCatalog(catalog),
		docs.WithLogger(s.logger.Named("registry")),
		docs.WithMetrics(s.metrics),
	)
	s.searcher = search.NewSearcher(catalog, s.logger.Named("search"))
	s.router = s.routes()
	return s
}

// Handler returns the daemon's HTTP API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.withExpReset)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.gatherer))

	r.Get("/package/*", s.handlePackagePage)
	r.Get("/recent", s.handleRecent)
	r.Get("/status", s.handleStatus)

	r.Post("/add-packages", s.handleAddPackages)
	r.Post("/get-page", s.handleGetPage)
	r.Post("/navigation", s.handleNavigation)
	r.Post("/resolve", s.handleResolve)
	r.Post("/search", s.handleSearch)
	r.Post("/clear-cache", s.handleClearCache)
	r.Post("/shutdown", s.handleShutdown)
	return r
}

// Start serves on the unix socket until the idle timer expires or the
// server is stopped.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	s.logger.Info("daemon listening",
		zap.String("socket", s.socketPath),
		zap.Duration("expiration", s.expiration),
	)
	return s.serve(ctx, listener)
}

// ServeTCP serves the same API on a TCP address with no idle expiry.
func (s *Server) ServeTCP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.logger.Info("web server listening", zap.String("addr", listener.Addr().String()))
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, listener := s.httpServer, s.listener
	if s.expTimer != nil {
		s.expTimer.Stop()
	}
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if listener != nil {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("listener close error", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if s.socketPath != "" {
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("socket remove error", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if err := s.catalog.Close(); err != nil {
		s.logger.Warn("db close error", zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	s.logger.Info("expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	s.exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, rpc.ErrorResponse{Error: msg, Code: code})
}

// writeFailure maps err onto a status and error code.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docs.ErrPackageNotFound):
		writeError(w, http.StatusNotFound, rpc.CodePackageNotFound, err.Error())
	case errors.Is(err, docmodel.ErrPageNotFound):
		writeError(w, http.StatusNotFound, rpc.CodePageNotFound, err.Error())
	case errors.Is(err, rpc.ErrBadRequest):
		writeError(w, http.StatusBadRequest, rpc.CodeBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, rpc.CodeInternal, err.Error())
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", rpc.ErrBadRequest, err)
	}
	return nil
}
