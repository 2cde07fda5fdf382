package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

// PreferenceHandler exposes the saved filter set, the note-tag taxonomy and
// the status colour mapping
type PreferenceHandler struct {
	store  *store.Store
	prefs  *preferences.Manager
	logger *zap.Logger
}

func NewPreferenceHandler(s *store.Store, prefs *preferences.Manager, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{store: s, prefs: prefs, logger: logger}
}

// GetFilters godoc
// @Summary Get saved filters
// @Tags Preferences
// @Produce json
// @Success 200 {object} domain.Filters
// @Router /preferences/filters [get]
func (h *PreferenceHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.prefs.Filters())
}

// SetFilters godoc
// @Summary Replace saved filters
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body domain.Filters true "Filter set"
// @Success 200 {object} domain.Filters
// @Router /preferences/filters [put]
func (h *PreferenceHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var filters domain.Filters
	if !decodeBody(w, r, &filters) {
		return
	}
	h.prefs.SetFilters(r.Context(), filters)
	respondJSON(w, http.StatusOK, h.prefs.Filters())
}

// ListNoteTags godoc
// @Summary List note tags
// @Tags Preferences
// @Produce json
// @Success 200 {array} domain.NoteTag
// @Router /preferences/note-tags [get]
func (h *PreferenceHandler) ListNoteTags(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.NoteTags())
}

// AddNoteTag godoc
// @Summary Add a note tag
// @Description The tag id is derived from the label. Labels that map to an existing id are rejected.
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body domain.NoteTagRequest true "Tag"
// @Success 201 {object} domain.NoteTag
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /preferences/note-tags [post]
func (h *PreferenceHandler) AddNoteTag(w http.ResponseWriter, r *http.Request) {
	var req domain.NoteTagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if domain.NoteTagID(req.Label) == "" {
		respondWithError(w, http.StatusBadRequest, "Label must contain a letter or digit")
		return
	}
	tag, ok := h.store.AddNoteTag(req.Label, req.Color)
	if !ok {
		respondWithError(w, http.StatusConflict, "A tag with this label already exists")
		return
	}
	respondJSON(w, http.StatusCreated, tag)
}

// UpdateNoteTag godoc
// @Summary Update a note tag
// @Tags Preferences
// @Accept json
// @Produce json
// @Param tagId path string true "Tag ID"
// @Param request body domain.NoteTagPatch true "Changed fields"
// @Success 200 {object} domain.NoteTag
// @Failure 404 {object} domain.APIError
// @Router /preferences/note-tags/{tagId} [patch]
func (h *PreferenceHandler) UpdateNoteTag(w http.ResponseWriter, r *http.Request) {
	var patch domain.NoteTagPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	tag, ok := h.store.UpdateNoteTag(chi.URLParam(r, "tagId"), patch)
	if !ok {
		respondNotFound(w, "Note tag")
		return
	}
	respondJSON(w, http.StatusOK, tag)
}

// RemoveNoteTag godoc
// @Summary Remove a note tag
// @Description Removes the tag and strips it from every note
// @Tags Preferences
// @Param tagId path string true "Tag ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /preferences/note-tags/{tagId} [delete]
func (h *PreferenceHandler) RemoveNoteTag(w http.ResponseWriter, r *http.Request) {
	if !h.store.RemoveNoteTag(chi.URLParam(r, "tagId")) {
		respondNotFound(w, "Note tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderNoteTags godoc
// @Summary Reorder note tags
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body domain.ReorderNoteTagsRequest true "Tag ids in display order"
// @Success 200 {array} domain.NoteTag
// @Router /preferences/note-tags/reorder [put]
func (h *PreferenceHandler) ReorderNoteTags(w http.ResponseWriter, r *http.Request) {
	var req domain.ReorderNoteTagsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.store.ReorderNoteTags(req.IDs))
}

// GetStatusColors godoc
// @Summary Get status colours
// @Tags Preferences
// @Produce json
// @Success 200 {object} domain.StatusColors
// @Router /preferences/status-colors [get]
func (h *PreferenceHandler) GetStatusColors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.prefs.StatusColors())
}

// SetStatusColor godoc
// @Summary Set one status colour
// @Tags Preferences
// @Accept json
// @Produce json
// @Param statusId path string true "Status ID"
// @Param request body domain.StatusColorRequest true "Colour"
// @Success 200 {object} domain.StatusColors
// @Failure 400 {object} domain.APIError
// @Router /preferences/status-colors/{statusId} [put]
func (h *PreferenceHandler) SetStatusColor(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusColorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.prefs.SetStatusColor(r.Context(), chi.URLParam(r, "statusId"), req.Color))
}
