package api

import (
	"encoding/json"
	"net/http"

	"github.com/Gaganvinay/vendortrail/internal/domain/model"
)

// AgreementsHandler handles agreement uploads.
type AgreementsHandler struct {
	deps Dependencies
}

// NewAgreementsHandler creates a new agreements handler.
func NewAgreementsHandler(deps Dependencies) *AgreementsHandler {
	return &AgreementsHandler{deps: deps}
}

type uploadRequest struct {
	VendorID string `json:"vendorId"`
	FileURL  string `json:"fileUrl"`
	Text     string `json:"text"`
}

type uploadResponse struct {
	Saved     bool            `json:"saved"`
	Agreement model.Agreement `json:"agreement"`
}

// HandleUpload handles POST /api/upload.
func (h *AgreementsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, err := h.deps.SaveAgreement(r.Context(), req.VendorID, req.FileURL, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Saved: true, Agreement: a})
}
