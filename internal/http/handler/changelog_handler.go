package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// ChangeLogHandler exposes the global change log
type ChangeLogHandler struct {
	recorder *changelog.Recorder
	logger   *zap.Logger
}

func NewChangeLogHandler(recorder *changelog.Recorder, logger *zap.Logger) *ChangeLogHandler {
	return &ChangeLogHandler{recorder: recorder, logger: logger}
}

func changeLogFilter(q url.Values) (changelog.Filter, error) {
	var f changelog.Filter
	if v := q.Get("projectId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid projectId %q", v)
		}
		f.ProjectID = id
	}
	if v := q.Get("changedById"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("invalid changedById %q", v)
		}
		f.ChangedByID = domain.UserID(id)
	}
	if v := q.Get("action"); v != "" {
		action := domain.ChangeAction(v)
		if !action.IsValid() {
			return f, fmt.Errorf("unknown action %q", v)
		}
		f.Action = action
	}
	if v := q.Get("category"); v != "" {
		f.Category = domain.ChangeCategory(v)
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid since %q, expected RFC 3339", v)
		}
		f.Since = since
	}
	return f, nil
}

// List godoc
// @Summary Query the change log
// @Description Entries matching every given filter, newest first
// @Tags ChangeLog
// @Produce json
// @Param projectId query int false "Project ID"
// @Param category query string false "Category" Enums(Project, Opportunity, Company, Activity, Note, Equipment)
// @Param action query string false "Action, e.g. NOTE_ADDED"
// @Param changedById query int false "Acting user"
// @Param since query string false "RFC 3339 lower bound on timestamp"
// @Success 200 {array} domain.ChangeLogEntry
// @Failure 400 {object} domain.APIError
// @Router /changelog [get]
func (h *ChangeLogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := changeLogFilter(r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, changelog.SortForDisplay(h.recorder.List(filter)))
}

// Export godoc
// @Summary Export the change log
// @Description Download matching entries as a JSON file
// @Tags ChangeLog
// @Produce json
// @Param projectId query int false "Project ID"
// @Param category query string false "Category"
// @Param action query string false "Action"
// @Param changedById query int false "Acting user"
// @Param since query string false "RFC 3339 lower bound on timestamp"
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Router /changelog/export [get]
func (h *ChangeLogHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := changeLogFilter(r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := h.recorder.Export(filter)
	if err != nil {
		h.logger.Error("Failed to export change log", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to export change log")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\"changelog.json\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
