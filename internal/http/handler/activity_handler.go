package handler

import (
	"net/http"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewActivityHandler(s *store.Store, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{store: s, logger: logger}
}

// List godoc
// @Summary List project activities
// @Tags Activities
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.Activity
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	project, found := h.store.Project(projectID)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusOK, project.Activities)
}

// Create godoc
// @Summary Add an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.ActivityRequest true "Activity data"
// @Success 201 {object} domain.Activity
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/activities [post]
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.ActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	activity, found := h.store.AddActivity(actor(r), projectID, req.ToActivity())
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusCreated, activity)
}

// Update godoc
// @Summary Update an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param activityId path int true "Activity ID"
// @Param request body domain.ActivityPatch true "Changed fields"
// @Success 200 {object} domain.Activity
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/activities/{activityId} [patch]
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	activityID, ok := intParam(w, r, "activityId")
	if !ok {
		return
	}
	var patch domain.ActivityPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	activity, found := h.store.UpdateActivity(actor(r), projectID, activityID, patch)
	if !found {
		respondNotFound(w, "Activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// Delete godoc
// @Summary Delete an activity
// @Tags Activities
// @Param id path int true "Project ID"
// @Param activityId path int true "Activity ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/activities/{activityId} [delete]
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	activityID, ok := intParam(w, r, "activityId")
	if !ok {
		return
	}
	if _, found := h.store.DeleteActivity(actor(r), projectID, activityID); !found {
		respondNotFound(w, "Activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
