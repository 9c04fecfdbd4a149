package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/config"
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/home"
	"github.com/jackzampolin/quire/internal/server/endpoints"
	"github.com/jackzampolin/quire/internal/svcctx"
)

// Server is the quire HTTP server.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	home       *home.Dir
	logger     *slog.Logger

	// services is swapped whole when the configuration reloads.
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu         sync.RWMutex
	running    bool
	listenAddr string
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: server.host from config)
	Host string
	// Port is the port to listen on (default: server.port from config)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// When nil, config.DefaultConfig is used.
	ConfigManager *config.Manager
	// Home is the quire home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	current := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		current = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = current.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = current.Server.Port
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	services, err := s.buildServices(current)
	if err != nil {
		return nil, err
	}
	s.services.Store(services)

	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(s.reload)
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.withServices(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// buildServices creates the conversion service for a config snapshot.
func (s *Server) buildServices(cfg *config.Config) (*svcctx.Services, error) {
	opts := cfg.ConvertOptions()
	opts.Logger = s.logger
	converter, err := convert.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion service: %w", err)
	}
	return &svcctx.Services{
		Converter: converter,
		Config:    cfg,
		Logger:    s.logger,
		Home:      s.home,
	}, nil
}

// reload swaps in services built from cfg. In-flight requests keep the
// snapshot they started with.
func (s *Server) reload(cfg *config.Config) {
	services, err := s.buildServices(cfg)
	if err != nil {
		s.logger.Error("config reload rejected, keeping previous settings", "error", err)
		return
	}
	s.services.Store(services)
	s.logger.Info("conversion service reloaded from config",
		"pdf_backend", cfg.PDF.Backend,
		"gap_factor", cfg.Reflow.GapFactor)
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listenAddr = ln.Addr().String()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the address the server is listening on, or the configured
// address before Start binds.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listenAddr != "" {
		return s.listenAddr
	}
	return s.httpServer.Addr
}

// Handler returns the root HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Services returns the services currently handed to requests.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.services.Load(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the conversion service is ready.
// Returns 503 Service Unavailable otherwise.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcctx.ConverterFrom(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"conversion service not initialized"}`))
			return
		}
		next(w, r)
	}
}
