// Package web exposes the rate dashboard pipeline over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ymakhloufi/ratewatch/internal/app/series"
	"github.com/ymakhloufi/ratewatch/internal/pkg/model"
	"go.uber.org/zap"
)

// Ingester runs the configured feeds once. Implemented by feed.Service.
type Ingester interface {
	Run(ctx context.Context)
}

type Server struct {
	svc         *series.Service
	ingester    Ingester
	defaultBase model.Entity
	maxDiscount decimal.Decimal
	server      *http.Server
	logger      *zap.Logger
}

func NewServer(host string, port int, svc *series.Service, ingester Ingester, defaultBase model.Entity, maxDiscount decimal.Decimal, logger *zap.Logger) *Server {
	s := &Server{
		svc:         svc,
		ingester:    ingester,
		defaultBase: defaultBase,
		maxDiscount: maxDiscount,
		logger:      logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.logRequests(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/rates", s.handleRates)
	mux.HandleFunc("/api/rates/latest", s.handleLatest)
	mux.HandleFunc("/api/rates/chart.png", s.handleChart)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/ingest", s.handleIngest)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info("starting rate dashboard server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
