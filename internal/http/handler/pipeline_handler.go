package handler

import (
	"net/http"

	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/straye-as/jobsite-crm/internal/views"
)

// PipelineHandler serves revenue aggregates over the filtered project set
type PipelineHandler struct {
	views *views.Engine
	prefs *preferences.Manager
}

func NewPipelineHandler(engine *views.Engine, prefs *preferences.Manager) *PipelineHandler {
	return &PipelineHandler{views: engine, prefs: prefs}
}

// Get godoc
// @Summary Pipeline overview
// @Description Filtered projects with their total revenue and revenue grouped by opportunity type. Accepts the same filter parameters as GET /projects.
// @Tags Pipeline
// @Produce json
// @Param showCompleted query bool false "Include completed projects"
// @Param salesRepId query int false "Filter by sales rep"
// @Param statusId query string false "Filter by status"
// @Param divisionId query string false "Filter by division"
// @Param generalContractor query string false "General contractor name fragment"
// @Param showBehindPAR query bool false "Only projects with fewer associated opportunities than their planned annual rate"
// @Success 200 {object} views.Pipeline
// @Failure 400 {object} domain.APIError
// @Router /pipeline [get]
func (h *PipelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(h.prefs.Filters(), r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.views.Pipeline(filters))
}

// RevenueByType godoc
// @Summary Revenue by opportunity type
// @Tags Pipeline
// @Produce json
// @Success 200 {array} views.TypeRevenue
// @Failure 400 {object} domain.APIError
// @Router /pipeline/revenue-by-type [get]
func (h *PipelineHandler) RevenueByType(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(h.prefs.Filters(), r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.views.RevenueByType(filters))
}
