package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/crypto_price_tracker/internal/infrastructure/metrics"
	"github.com/vitos/crypto_price_tracker/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	tracker   *usecase.TrackerService
	resolver  *usecase.PriceResolver
	compare   *usecase.CompareService
	alerts    *usecase.AlertService
	scheduler *usecase.Scheduler
	hub       *Hub
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewServer(
	port int,
	tracker *usecase.TrackerService,
	resolver *usecase.PriceResolver,
	compare *usecase.CompareService,
	alerts *usecase.AlertService,
	scheduler *usecase.Scheduler,
	hub *Hub,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		tracker:   tracker,
		resolver:  resolver,
		compare:   compare,
		alerts:    alerts,
		scheduler: scheduler,
		hub:       hub,
		metrics:   m,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Assets
	s.router.HandleFunc("GET /api/assets", s.handleAssets)

	// Session
	s.router.HandleFunc("GET /api/session", s.handleSession)
	s.router.HandleFunc("POST /api/session/asset", s.handleSelectAsset)
	s.router.HandleFunc("POST /api/session/compare", s.handleSetCompare)

	// Prices
	s.router.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.router.HandleFunc("GET /api/price/{asset}", s.handlePrice)
	s.router.HandleFunc("GET /api/compare", s.handleCompare)

	// Alerts
	s.router.HandleFunc("GET /api/alerts", s.handleListAlerts)
	s.router.HandleFunc("POST /api/alerts", s.handleAddAlert)
	s.router.HandleFunc("DELETE /api/alerts/{id}", s.handleDeleteAlert)

	// Connectivity
	s.router.HandleFunc("POST /api/connectivity", s.handleConnectivity)

	// Event stream
	if s.hub != nil {
		s.router.Handle("GET /ws", s.hub)
	}

	// Metrics
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}
