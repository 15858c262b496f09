// ABOUTME: Sandbox server lifecycle: construction, listening and graceful shutdown
// ABOUTME: Serves the triple-store REST protocol from a store.Store

package sandbox

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/agclient/internal/querycache"
	"github.com/2389/agclient/internal/store"
)

const (
	queryCacheTTL  = 10 * time.Minute
	queryCacheSize = 256
)

// Options configures a sandbox Server.
type Options struct {
	// User and Password enable HTTP basic auth when User is non-empty.
	User     string
	Password string
	// FileRoot is the directory server-side loads may read from. Empty
	// disables server-side loading.
	FileRoot string
	Logger   *slog.Logger
}

// Server is a single-catalog triple-store server backed by a store.Store.
type Server struct {
	store      store.Store
	opts       Options
	logger     *slog.Logger
	queries    *querycache.Cache[sparqlQuery]
	handler    http.Handler
	httpServer *http.Server
}

// New creates a sandbox server over st. The server owns st and closes it on
// Shutdown.
func New(st store.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   st,
		opts:    opts,
		logger:  logger,
		queries: querycache.New[sparqlQuery](queryCacheTTL, queryCacheSize),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = s.logRequests(s.requireAuth(mux))
	return s
}

// Handler returns the HTTP handler, for mounting in tests or other servers.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on addr and serves until ctx is canceled or the server fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("sandbox listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops the HTTP server, if running, and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down sandbox")

	s.queries.Close()

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.opts.User == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.User)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.opts.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="sandbox"`)
			sendError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
