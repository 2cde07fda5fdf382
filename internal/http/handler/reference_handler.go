package handler

import (
	"net/http"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/views"
)

// ReferenceHandler serves the read-only lookup tables
type ReferenceHandler struct {
	views *views.Engine
}

func NewReferenceHandler(engine *views.Engine) *ReferenceHandler {
	return &ReferenceHandler{views: engine}
}

// SalesReps godoc
// @Summary List sales reps
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.SalesRep
// @Router /reference/sales-reps [get]
func (h *ReferenceHandler) SalesReps(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.views.Tables().SalesReps())
}

// Stages godoc
// @Summary List opportunity stages
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.OpportunityStage
// @Router /reference/stages [get]
func (h *ReferenceHandler) Stages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.views.Tables().Stages())
}

// Types godoc
// @Summary List opportunity types
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.OpportunityType
// @Router /reference/types [get]
func (h *ReferenceHandler) Types(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.views.Tables().Types())
}

// Divisions godoc
// @Summary List divisions
// @Tags Reference
// @Produce json
// @Success 200 {array} domain.Division
// @Router /reference/divisions [get]
func (h *ReferenceHandler) Divisions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.views.Tables().Divisions())
}

// ActivityTypes godoc
// @Summary List activity types
// @Tags Reference
// @Produce json
// @Success 200 {array} string
// @Router /reference/activity-types [get]
func (h *ReferenceHandler) ActivityTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.ActivityTypes)
}
