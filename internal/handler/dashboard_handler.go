package handler

import (
	"net/http"

	"retail-pos/internal/model"
	"retail-pos/internal/service"

	"github.com/rs/zerolog"
)

type dashboardResponse struct {
	Success bool             `json:"success"`
	Data    *model.Dashboard `json:"data"`
}

// DashboardHandler serves the aggregated sales dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Get handles GET /api/dashboard requests.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{Success: true, Data: dashboard})
}
