package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
)

// EventsHandler handles event submission and raw event reads.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the JSON body of POST /api/events.
type eventRequest struct {
	VendorID  string         `json:"vendorId"`
	EventType string         `json:"eventType"`
	Metadata  map[string]any `json:"metadata"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.VendorID) == "":
		return errors.New("missing vendorId")
	case strings.TrimSpace(e.EventType) == "":
		return errors.New("missing eventType")
	}
	return nil
}

// HandlePostEvent handles POST /api/events.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.SubmitEvent(r.Context(), req.VendorID, req.EventType, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type vendorEventsResponse struct {
	VendorID string        `json:"vendorId"`
	Events   []model.Event `json:"events"`
}

// HandleVendorEvents handles GET /api/events/{vendorId}, newest first.
func (h *EventsHandler) HandleVendorEvents(w http.ResponseWriter, r *http.Request) {
	vendorID := r.PathValue("vendorId")
	events, err := h.deps.VendorEvents(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendorEventsResponse{VendorID: vendorID, Events: events})
}

type allEventsResponse struct {
	Events []model.Event `json:"events"`
}

// HandleAllEvents handles GET /api/events/all, used for vendor discovery.
func (h *EventsHandler) HandleAllEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.AllEvents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allEventsResponse{Events: events})
}
