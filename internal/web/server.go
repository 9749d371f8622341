// Package web serves stored availability records as JSON together with the
// Prometheus metrics of the process.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"prtg-extract/internal/metrics"
	"prtg-extract/internal/models"
)

// Server handles web requests
type Server struct {
	reader  models.RecordReader
	metrics *metrics.Metrics
	port    int
	log     *zap.Logger
}

// New creates a new web server. reader may be nil when only metrics are served.
func New(reader models.RecordReader, m *metrics.Metrics, port int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Server{reader: reader, metrics: m, port: port, log: log.Named("web")}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if s.reader != nil {
		api := router.PathPrefix("/api").Subrouter()
		api.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
		api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
		api.HandleFunc("/sensors/{id:[0-9]+}/records", s.handleSensorRecords).Methods(http.MethodGet)
	}
	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Web server starting", zap.Int("port", s.port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Web server stopping")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
