package handlers

import (
	"log/slog"
	"net/http"

	"bilimbagdar/internal/service"
)

// AnalyticsHandler serves the teacher dashboard summary
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// Overview returns the class activity summary
// @Summary Dashboard overview
// @Description Roster counts, submission tallies per topic and the review topic ranking. Teacher role required.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ClassOverview
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analyticsService.Overview(r.Context())
	if err != nil {
		slog.Error("Failed to compute analytics overview", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternalError)
		return
	}

	respondWithJSON(w, http.StatusOK, overview)
}
