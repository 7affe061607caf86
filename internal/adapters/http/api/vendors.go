package api

import (
	"net/http"
)

// VendorsHandler handles vendor directory reads.
type VendorsHandler struct {
	deps Dependencies
}

// NewVendorsHandler creates a new vendors handler.
func NewVendorsHandler(deps Dependencies) *VendorsHandler {
	return &VendorsHandler{deps: deps}
}

// HandleListVendors handles GET /api/vendors.
func (h *VendorsHandler) HandleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.deps.Vendors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}
