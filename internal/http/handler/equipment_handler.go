package handler

import (
	"net/http"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/store"
	"go.uber.org/zap"
)

type EquipmentHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewEquipmentHandler(s *store.Store, logger *zap.Logger) *EquipmentHandler {
	return &EquipmentHandler{store: s, logger: logger}
}

// Create godoc
// @Summary Add customer equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.EquipmentRequest true "Equipment data"
// @Success 201 {object} domain.CustomerEquipment
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/equipment [post]
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.EquipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	equipment, found := h.store.AddCustomerEquipment(actor(r), projectID, req.ToEquipment())
	if !found {
		respondNotFound(w, "Project")
		return
	}
	respondJSON(w, http.StatusCreated, equipment)
}

// Update godoc
// @Summary Update customer equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param equipmentId path int true "Equipment ID"
// @Param request body domain.EquipmentPatch true "Changed fields"
// @Success 200 {object} domain.CustomerEquipment
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/equipment/{equipmentId} [patch]
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	equipmentID, ok := intParam(w, r, "equipmentId")
	if !ok {
		return
	}
	var patch domain.EquipmentPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	equipment, found := h.store.UpdateCustomerEquipment(actor(r), projectID, equipmentID, patch)
	if !found {
		respondNotFound(w, "Equipment")
		return
	}
	respondJSON(w, http.StatusOK, equipment)
}

// Delete godoc
// @Summary Delete customer equipment
// @Tags Equipment
// @Param id path int true "Project ID"
// @Param equipmentId path int true "Equipment ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /projects/{id}/equipment/{equipmentId} [delete]
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	equipmentID, ok := intParam(w, r, "equipmentId")
	if !ok {
		return
	}
	if _, found := h.store.DeleteCustomerEquipment(actor(r), projectID, equipmentID); !found {
		respondNotFound(w, "Equipment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
