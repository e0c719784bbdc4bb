package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolyard/internal/bootstrap"
	"github.com/yigit/schoolyard/internal/config"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

// Server holds the state for the HTTP server and its background workers.
type Server struct {
	config *config.Config
	router *gin.Engine
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	// cancel stops the hub, reconciler, listener and pruner
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(context.Background(), cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router, err := bootstrap.SetupRouter(cfg, deps, lgr)
	if err != nil {
		deps.Close(context.Background())
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		setupStaticFileServing(router, cfg, lgr)
	}

	return &Server{
		config: cfg,
		router: router,
		deps:   deps,
		logger: lgr,
	}, nil
}

// setupStaticFileServing configures the router to serve uploaded images
func setupStaticFileServing(router *gin.Engine, cfg *config.Config, lgr zerolog.Logger) {
	uploadPath := cfg.Server.StoragePath

	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
			lgr.Error().Err(err).Str("path", uploadPath).Msg("Failed to create uploads directory")
			return
		}
	}

	router.Static("/uploads", uploadPath)
	lgr.Info().Str("path", uploadPath).Msg("Static file serving configured for uploads directory")
}

func (s *Server) goWorker(name string, fn func()) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		fn()
		s.logger.Debug().Str("worker", name).Msg("Background worker stopped")
	}()
}

// startWorkers launches the long-running goroutines that live as long as the server
func (s *Server) startWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.goWorker("hub", func() { s.deps.Hub.Run(ctx) })

	if interval := config.Duration(s.config.Reconcile.Interval); interval > 0 {
		s.goWorker("reconciler", func() { s.deps.Services.Reconciler.Schedule(ctx, interval) })
	}

	if s.deps.RateLimiter != nil {
		s.goWorker("rate-limit-pruner", func() { s.deps.RateLimiter.RunPruner(ctx) })
	}

	// The memory store publishes inserts itself; postgres inserts arrive via NOTIFY.
	if pool := s.deps.Store.Pool; pool != nil {
		listener := realtime.NewPGListener(pool, s.config.Realtime.Channel, s.deps.Store.Broker,
			s.logger.With().Str("component", "pg-listener").Logger())
		s.goWorker("pg-listener", func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("Realtime listener stopped")
			}
		})
	}
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Str("store", s.config.Server.Store).Msg("Starting server...")
	s.startWorkers()

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for errors starting the server
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server, its workers and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownError := false

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	// Hijacked websocket connections are not covered by http.Server.Shutdown;
	// stopping the hub closes them.
	if s.cancel != nil {
		s.cancel()
		s.workers.Wait()
		s.logger.Info().Msg("Background workers stopped.")
	}

	s.deps.Close(ctx)

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
