package server

import (
	"log/slog"
	"net/http"

	"bizops-dashboard/internal/handlers"
	"bizops-dashboard/internal/observability"
	"bizops-dashboard/internal/services"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	metrics     *observability.Metrics
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, advisor *services.Advisor, metrics *observability.Metrics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		metrics:     metrics,
		apiHandlers: handlers.NewAPIHandlers(dashboard, advisor, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, advisor, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard and ops
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// REST API
	s.mux.HandleFunc("GET /api/business-units", s.apiHandlers.HandleBusinessUnits)
	s.mux.HandleFunc("GET /api/brands", s.apiHandlers.HandleBrands)
	s.mux.HandleFunc("GET /api/brand-revenue", s.apiHandlers.HandleBrandRevenue)
	s.mux.HandleFunc("GET /api/competitors", s.apiHandlers.HandleCompetitors)
	s.mux.HandleFunc("GET /api/competitors/overview", s.apiHandlers.HandleCompetitorsOverview)
	s.mux.HandleFunc("GET /api/supply-chain", s.apiHandlers.HandleSupplyChain)
	s.mux.HandleFunc("GET /api/baseline", s.apiHandlers.HandleBaseline)
	s.mux.HandleFunc("GET /api/scenario", s.apiHandlers.HandleScenario)
	s.mux.HandleFunc("GET /api/scenario/competitors", s.apiHandlers.HandleCompetitorScenario)
	s.mux.HandleFunc("GET /api/scenario/export", s.apiHandlers.HandleScenarioExport)
	s.mux.HandleFunc("POST /api/tariffs/products", s.apiHandlers.HandleProductTariffs)
	s.mux.HandleFunc("POST /api/tariffs/brand", s.apiHandlers.HandleBrandTariffs)
	s.mux.HandleFunc("POST /api/relocation", s.apiHandlers.HandleRelocation)

	// Datastar SSE
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("GET /sse/{input}", s.sseHandlers.HandleInput)
	s.mux.HandleFunc("POST /sse/product-tariffs", s.sseHandlers.HandleProductTariffs)
	s.mux.HandleFunc("POST /sse/relocation", s.sseHandlers.HandleRelocation)
}

// Route returns the pattern r would be dispatched to, for metric labels.
func (s *Server) Route(r *http.Request) string {
	_, pattern := s.mux.Handler(r)
	return pattern
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
