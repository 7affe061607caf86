// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/Gaganvinay/vendortrail/internal/app"
	"github.com/Gaganvinay/vendortrail/internal/domain/model"
	"github.com/Gaganvinay/vendortrail/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SubmitEvent(ctx context.Context, vendorID, eventType string, metadata map[string]any) (types.IngestResult, error)
	VendorGraph(ctx context.Context, vendorID string) (types.Graph, error)
	ScoreSeries(ctx context.Context, vendorID string) ([]types.ScorePoint, error)
	VendorEvents(ctx context.Context, vendorID string) ([]model.Event, error)
	AllEvents(ctx context.Context) ([]model.Event, error)
	Vendors(ctx context.Context) ([]model.Vendor, error)
	SaveAgreement(ctx context.Context, vendorID, fileURL, text string) (model.Agreement, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	eventsHandler     *EventsHandler
	graphHandler      *GraphHandler
	analyticsHandler  *AnalyticsHandler
	vendorsHandler    *VendorsHandler
	agreementsHandler *AgreementsHandler
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		eventsHandler:     NewEventsHandler(deps),
		graphHandler:      NewGraphHandler(deps),
		analyticsHandler:  NewAnalyticsHandler(deps),
		vendorsHandler:    NewVendorsHandler(deps),
		agreementsHandler: NewAgreementsHandler(deps),
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux. Literal segments take
// precedence over wildcards, so /api/events/all and /api/events/graph/ are
// matched before the raw-events route.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /api/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "post_event"))
	mux.HandleFunc("GET /api/events/all", MetricsMiddleware(s.eventsHandler.HandleAllEvents, "all_events"))
	mux.HandleFunc("GET /api/events/graph/{vendorId}", MetricsMiddleware(s.graphHandler.HandleGetGraph, "graph"))
	mux.HandleFunc("GET /api/events/{vendorId}", MetricsMiddleware(s.eventsHandler.HandleVendorEvents, "vendor_events"))
	mux.HandleFunc("GET /api/analytics/gnn/{vendorId}", MetricsMiddleware(s.analyticsHandler.HandleGetSeries, "analytics"))
	mux.HandleFunc("GET /api/vendors", MetricsMiddleware(s.vendorsHandler.HandleListVendors, "vendors"))
	mux.HandleFunc("POST /api/upload", MetricsMiddleware(s.agreementsHandler.HandleUpload, "upload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates coordinator errors to status codes. Only
// validation and storage failures ever reach here; oracle trouble is
// absorbed upstream.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrStorage):
		writeError(w, http.StatusInternalServerError, "storage_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
