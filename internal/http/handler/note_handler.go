package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/storage"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

// multipartOverhead is allowed on top of the file cap for form boundaries and headers
const multipartOverhead = 64 * 1024

type NoteHandler struct {
	store       *store.Store
	attachments *storage.AttachmentStore
	logger      *zap.Logger
}

func NewNoteHandler(s *store.Store, attachments *storage.AttachmentStore, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{store: s, attachments: attachments, logger: logger}
}

// List godoc
// @Summary List project notes
// @Tags Notes
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.Note
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/notes [get]
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	project, found := h.store.Project(projectID)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusOK, project.Notes)
}

// Create godoc
// @Summary Add a note
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.NoteRequest true "Note data"
// @Success 201 {object} domain.Note
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/notes [post]
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.NoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	note, found := h.store.AddNote(actor(r), projectID, req.ToNote())
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// Update godoc
// @Summary Update a note
// @Description Every update appends a modification record to the note's history
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param noteId path int true "Note ID"
// @Param request body domain.NotePatch true "Changed fields"
// @Success 200 {object} domain.Note
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/notes/{noteId} [patch]
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := intParam(w, r, "noteId")
	if !ok {
		return
	}
	var patch domain.NotePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	note, found := h.store.UpdateNote(actor(r), projectID, noteID, patch)
	if !found {
		respondNotFound(w, "Note")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// Delete godoc
// @Summary Delete a note
// @Tags Notes
// @Param id path int true "Project ID"
// @Param noteId path int true "Note ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/notes/{noteId} [delete]
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := intParam(w, r, "noteId")
	if !ok {
		return
	}
	if _, found := h.store.DeleteNote(actor(r), projectID, noteID); !found {
		respondNotFound(w, "Note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func findNote(p domain.Project, noteID int) (domain.Note, bool) {
	for _, n := range p.Notes {
		if n.ID == noteID {
			return n, true
		}
	}
	return domain.Note{}, false
}

// UploadAttachment godoc
// @Summary Attach a file to a note
// @Description Upload a file (at most 5 MB) and append it to the note's attachments
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Project ID"
// @Param noteId path int true "Note ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.Note
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Router /projects/{id}/notes/{noteId}/attachments [post]
func (h *NoteHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := intParam(w, r, "noteId")
	if !ok {
		return
	}
	project, found := h.store.Project(projectID)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	if _, found := findNote(project, noteID); !found {
		respondNotFound(w, "Note")
		return
	}

	maxSize := h.attachments.MaxSize()
	tooLarge := fmt.Sprintf("File too large: maximum size is %d bytes", maxSize)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachments.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		h.logger.Error("Failed to store attachment", zap.Error(err), zap.Int("note_id", noteID))
		respondWithError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	updated, found := h.store.AddNoteAttachment(actor(r), projectID, noteID, attachment)
	if !found {
		// The note vanished while the file was uploading
		if err := h.attachments.Remove(r.Context(), attachment.FileURL); err != nil {
			h.logger.Warn("Failed to remove orphaned attachment", zap.Error(err), zap.String("file_url", attachment.FileURL))
		}
		respondNotFound(w, "Note")
		return
	}
	respondJSON(w, http.StatusCreated, updated)
}

// DownloadAttachment godoc
// @Summary Download a note attachment
// @Tags Notes
// @Produce octet-stream
// @Param id path int true "Project ID"
// @Param noteId path int true "Note ID"
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/notes/{noteId}/attachments/{attachmentId} [get]
func (h *NoteHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := intParam(w, r, "noteId")
	if !ok {
		return
	}
	project, found := h.store.Project(projectID)
	if !found {
		respondNotFound(w, "Project")
		return
	}
	note, found := findNote(project, noteID)
	if !found {
		respondNotFound(w, "Note")
		return
	}

	attachmentID := chi.URLParam(r, "attachmentId")
	var attachment *domain.Attachment
	for i := range note.Attachments {
		if note.Attachments[i].ID == attachmentID {
			attachment = &note.Attachments[i]
			break
		}
	}
	if attachment == nil {
		respondNotFound(w, "Attachment")
		return
	}

	reader, err := h.attachments.Open(r.Context(), attachment.FileURL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(w, "Attachment content")
			return
		}
		h.logger.Error("Failed to open attachment", zap.Error(err), zap.String("file_url", attachment.FileURL))
		respondWithError(w, http.StatusInternalServerError, "Failed to open attachment")
		return
	}
	defer reader.Close()

	contentType := attachment.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+attachment.FileName+"\"")
	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, reader)
}
