package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

// CompanyHandler manages the companies and contacts attached to a project
type CompanyHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewCompanyHandler(s *store.Store, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{store: s, logger: logger}
}

// Add godoc
// @Summary Add company to project
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.CompanyRequest true "Company data"
// @Success 201 {object} domain.ProjectCompany
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies [post]
func (h *CompanyHandler) Add(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, found := h.store.AddProjectCompany(actor(r), projectID, req.ToCompany())
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusCreated, company)
}

// AssociateExisting godoc
// @Summary Copy a company from another project
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Target project ID"
// @Param request body domain.AssociateCompanyRequest true "Source company"
// @Success 201 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/associate [post]
func (h *CompanyHandler) AssociateExisting(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.AssociateCompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, found := h.store.AssociateExistingCompany(actor(r), req.SourceProjectID, req.AssociationID, projectID)
	if !found {
		respondNotFound(w, "Project or company")
		return
	}
	respondJSON(w, http.StatusCreated, company)
}

// Update godoc
// @Summary Replace a project company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Param request body domain.CompanyRequest true "Company data"
// @Success 200 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId} [put]
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	var req domain.CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, found := h.store.UpdateProjectCompany(actor(r), projectID, associationID, req.ToCompany())
	if !found {
		respondNotFound(w, "Company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// UpdateByName godoc
// @Summary Replace a project company by name
// @Description Legacy lookup by company name; the first row with that name is replaced
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param name path string true "Company name"
// @Param request body domain.CompanyRequest true "Company data"
// @Success 200 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/by-name/{name} [put]
func (h *CompanyHandler) UpdateByName(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.CompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, found := h.store.UpdateProjectCompanyByName(actor(r), projectID, chi.URLParam(r, "name"), req.ToCompany())
	if !found {
		respondNotFound(w, "Company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// Remove godoc
// @Summary Remove a company from a project
// @Tags Companies
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Success 200 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId} [delete]
func (h *CompanyHandler) Remove(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	company, found := h.store.RemoveProjectCompany(actor(r), projectID, associationID)
	if !found {
		respondNotFound(w, "Company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// RemoveByName godoc
// @Summary Remove a company from a project by name
// @Tags Companies
// @Produce json
// @Param id path int true "Project ID"
// @Param name path string true "Company name"
// @Success 200 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/by-name/{name} [delete]
func (h *CompanyHandler) RemoveByName(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	company, found := h.store.RemoveProjectCompanyByName(actor(r), projectID, chi.URLParam(r, "name"))
	if !found {
		respondNotFound(w, "Company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// AddContact godoc
// @Summary Add a contact to a project company
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Param request body domain.ContactRequest true "Contact data"
// @Success 201 {object} domain.CompanyContact
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId}/contacts [post]
func (h *CompanyHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	contact, found := h.store.AddCompanyContact(actor(r), projectID, associationID, req.ToContact())
	if !found {
		respondNotFound(w, "Company")
		return
	}
	respondJSON(w, http.StatusCreated, contact)
}

// UpdateContact godoc
// @Summary Replace a company contact
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Param contactId path int true "Contact ID"
// @Param request body domain.ContactRequest true "Contact data"
// @Success 200 {object} domain.CompanyContact
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId}/contacts/{contactId} [put]
func (h *CompanyHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	contactID, ok := intParam(w, r, "contactId")
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	contact, found := h.store.UpdateCompanyContact(actor(r), projectID, associationID, contactID, req.ToContact())
	if !found {
		respondNotFound(w, "Contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// RemoveContact godoc
// @Summary Remove a company contact
// @Tags Companies
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Param contactId path int true "Contact ID"
// @Success 200 {object} domain.CompanyContact
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId}/contacts/{contactId} [delete]
func (h *CompanyHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	contactID, ok := intParam(w, r, "contactId")
	if !ok {
		return
	}
	contact, found := h.store.RemoveCompanyContact(actor(r), projectID, associationID, contactID)
	if !found {
		respondNotFound(w, "Contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// SetPrimaryContact godoc
// @Summary Set a company's primary contact
// @Tags Companies
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param associationId path int true "Association ID"
// @Param request body domain.PrimaryContactRequest true "Contact"
// @Success 200 {object} domain.ProjectCompany
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/companies/{associationId}/primary-contact [put]
func (h *CompanyHandler) SetPrimaryContact(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	associationID, ok := intParam(w, r, "associationId")
	if !ok {
		return
	}
	var req domain.PrimaryContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	company, found := h.store.SetPrimaryCompanyContact(actor(r), projectID, associationID, req.ContactID)
	if !found {
		respondNotFound(w, "Contact")
		return
	}
	respondJSON(w, http.StatusOK, company)
}
