// Package web serves read-only lookups over a persisted dataset: records by
// id, clusters from id_map, summary statistics and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cfdb/internal/debug"
	"github.com/cfdb/internal/metrics"
	"github.com/cfdb/internal/schema"
	"github.com/cfdb/internal/web/handlers"
	"github.com/cfdb/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	index      *handlers.Index
	metrics    *metrics.Metrics
	logger     *zap.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance over tables. m and logger may
// be nil.
func NewServer(config *Config, tables schema.TableSet, m *metrics.Metrics, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	server := &Server{
		config:  config,
		index:   handlers.NewIndex(tables),
		metrics: m,
		logger:  debug.OrNop(logger),
	}

	// Setup routes
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	apiHandler := &handlers.APIHandler{Index: s.index}
	recordsHandler := &handlers.RecordsHandler{Index: s.index}
	searchHandler := &handlers.SearchHandler{Index: s.index}
	exportHandler := &handlers.ExportHandler{Index: s.index}

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	api.HandleFunc("/search", searchHandler.SearchEntities).Methods("GET")
	api.HandleFunc("/export/{table}", exportHandler.ExportTable).Methods("GET")
	// before the generic record route, which would otherwise match
	api.HandleFunc("/clusters/{id}", recordsHandler.GetCluster).Methods("GET")
	api.HandleFunc("/{table}/{id}", recordsHandler.GetRecord).Methods("GET")

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// Apply middleware
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.logger))
	api.Use(middleware.Authentication(s.config.Auth.APIKey))
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
