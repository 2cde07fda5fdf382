package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/straye-as/jobsite-crm/internal/store"
	"github.com/straye-as/jobsite-crm/internal/views"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	store  *store.Store
	views  *views.Engine
	prefs  *preferences.Manager
	logger *zap.Logger
}

func NewProjectHandler(s *store.Store, engine *views.Engine, prefs *preferences.Manager, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		store:  s,
		views:  engine,
		prefs:  prefs,
		logger: logger,
	}
}

// filtersFromQuery overlays query parameters on the persisted filter set
func filtersFromQuery(base domain.Filters, q url.Values) (domain.Filters, error) {
	f := base
	if v := q.Get("showCompleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.ShowCompleted = b
	}
	if v := q.Get("showBehindPAR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.ShowBehindPAR = b
	}
	if v := q.Get("salesRepId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, err
		}
		f.SalesRepID = domain.UserID(id)
	}
	if q.Has("statusId") {
		f.StatusID = q.Get("statusId")
	}
	if q.Has("divisionId") {
		f.DivisionID = q.Get("divisionId")
	}
	if q.Has("generalContractor") {
		f.GeneralContractor = q.Get("generalContractor")
	}
	return f, nil
}

// List godoc
// @Summary List projects
// @Description List projects through the saved filter set. Query parameters override individual filters for this request only.
// @Tags Projects
// @Produce json
// @Param showCompleted query bool false "Include completed projects"
// @Param salesRepId query int false "Filter by sales rep"
// @Param statusId query string false "Filter by status"
// @Param divisionId query string false "Filter by division"
// @Param generalContractor query string false "Case-insensitive general contractor name fragment"
// @Param showBehindPAR query bool false "Only projects with fewer associated opportunities than their planned annual rate"
// @Success 200 {array} domain.Project
// @Failure 400 {object} domain.APIError
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(h.prefs.Filters(), r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid filter: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.views.FilteredProjects(filters))
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body domain.CreateProjectRequest true "Project data"
// @Param X-Acting-User header int false "Acting sales rep"
// @Success 201 {object} domain.Project
// @Failure 400 {object} domain.APIError
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project := h.store.CreateProject(actor(r), req.ToProject())
	respondJSON(w, http.StatusCreated, project)
}

// GetByID godoc
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.Project
// @Failure 404 {object} domain.APIError
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	project, found := h.store.Project(id)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Update godoc
// @Summary Update project
// @Description Partially update a project. Fields left out keep their value; an update that changes nothing writes no change-log entry.
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.ProjectPatch true "Changed fields"
// @Success 200 {object} domain.Project
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var patch domain.ProjectPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	project, found := h.store.UpdateProject(actor(r), id, patch)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// ChangeLog godoc
// @Summary Project change log
// @Description The project's change-log entries, newest first
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.ChangeLogEntry
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/changelog [get]
func (h *ProjectHandler) ChangeLog(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if _, found := h.store.Project(id); !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusOK, changelog.SortForDisplay(h.store.ChangeLog(id)))
}
