package handler

import (
	"net/http"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

type OpportunityHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewOpportunityHandler(s *store.Store, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{store: s, logger: logger}
}

// List godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Success 200 {array} domain.Opportunity
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Opportunities())
}

// GetByID godoc
// @Summary Get opportunity
// @Tags Opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} domain.Opportunity
// @Failure 404 {object} domain.APIError
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	opp, found := h.store.Opportunity(id)
	if !found {
		respondNotFound(w, "Opportunity")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// Create godoc
// @Summary Create opportunity
// @Description Create an opportunity and link it to its project. A zero id takes the next free one.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} domain.Opportunity
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, found := h.store.Project(req.ProjectID); !found {
		respondNotFound(w, "Project")
		return
	}

	id := req.ID
	if id == 0 {
		id = h.store.NextOpportunityID()
	} else if _, exists := h.store.Opportunity(id); exists {
		respondWithError(w, http.StatusConflict, "Opportunity id already in use")
		return
	}

	opp, created := h.store.CreateNewOpportunity(actor(r), req.ToOpportunity(id))
	if !created {
		respondNotFound(w, "Project")
		return
	}
	h.logger.Info("Opportunity created",
		zap.Int("opportunity_id", opp.ID),
		zap.Int("project_id", opp.ProjectID),
	)
	respondJSON(w, http.StatusCreated, opp)
}

// Update godoc
// @Summary Update opportunity
// @Description Partially update an opportunity. Attributes merge per key. The owning project's summary rows are not refreshed.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path int true "Opportunity ID"
// @Param request body domain.OpportunityPatch true "Changed fields"
// @Success 200 {object} domain.Opportunity
// @Failure 404 {object} domain.APIError
// @Router /opportunities/{id} [patch]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var patch domain.OpportunityPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	opp, found := h.store.UpdateOpportunity(actor(r), id, patch)
	if !found {
		respondNotFound(w, "Opportunity")
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// Associate godoc
// @Summary Link opportunity to project
// @Tags Opportunities
// @Produce json
// @Param id path int true "Project ID"
// @Param opportunityId path int true "Opportunity ID"
// @Success 200 {object} domain.Project
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/opportunities/{opportunityId} [put]
func (h *OpportunityHandler) Associate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	oppID, ok := intParam(w, r, "opportunityId")
	if !ok {
		return
	}
	project, found := h.store.AddOpportunityToProject(actor(r), projectID, oppID)
	if !found {
		respondNotFound(w, "Project or opportunity")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Disassociate godoc
// @Summary Unlink opportunity from project
// @Tags Opportunities
// @Produce json
// @Param id path int true "Project ID"
// @Param opportunityId path int true "Opportunity ID"
// @Success 200 {object} domain.Project
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/opportunities/{opportunityId} [delete]
func (h *OpportunityHandler) Disassociate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	oppID, ok := intParam(w, r, "opportunityId")
	if !ok {
		return
	}
	project, found := h.store.RemoveOpportunityFromProject(actor(r), projectID, oppID)
	if !found {
		respondNotFound(w, "Project or opportunity")
		return
	}
	respondJSON(w, http.StatusOK, project)
}
