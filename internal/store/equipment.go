package store

import (
	"fmt"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

func equipmentIndex(p *domain.Project, equipmentID int) int {
	if p == nil {
		return -1
	}
	for i, e := range p.CustomerEquipment {
		if e.ID == equipmentID {
			return i
		}
	}
	return -1
}

// AddCustomerEquipment appends equipment with the next equipment id for the project
func (s *Store) AddCustomerEquipment(actor domain.UserID, projectID int, equipment domain.CustomerEquipment) (domain.CustomerEquipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("AddCustomerEquipment", zap.Int("project_id", projectID))
		return domain.CustomerEquipment{}, false
	}

	e := equipment.Clone()
	e.ID = s.nextID(sequence{kind: seqEquip, scope: projectID},
		idsOf(p.CustomerEquipment, func(e domain.CustomerEquipment) int { return e.ID }))
	p.CustomerEquipment = append(p.CustomerEquipment, e)

	s.record(actor, projectID, domain.ActionEquipmentAdded,
		fmt.Sprintf("Added equipment %s", e.Label()),
		domain.EntityRef{ID: e.ID, Label: e.Label()})
	return e.Clone(), true
}

// UpdateCustomerEquipment merges patch into the equipment row
func (s *Store) UpdateCustomerEquipment(actor domain.UserID, projectID, equipmentID int, patch domain.EquipmentPatch) (domain.CustomerEquipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := equipmentIndex(p, equipmentID)
	if idx < 0 {
		s.miss("UpdateCustomerEquipment", zap.Int("project_id", projectID), zap.Int("equipment_id", equipmentID))
		return domain.CustomerEquipment{}, false
	}

	before := p.CustomerEquipment[idx]
	updated := mergeEquipment(before, patch)
	p.CustomerEquipment[idx] = updated

	names, changes := diffFields(before, updated)
	s.record(actor, projectID, domain.ActionEquipmentUpdated,
		fmt.Sprintf("Updated equipment %s", updated.Label()),
		changeDetails(names, changes))
	return updated.Clone(), true
}

// DeleteCustomerEquipment removes the equipment row. Its label is captured
// before removal.
func (s *Store) DeleteCustomerEquipment(actor domain.UserID, projectID, equipmentID int) (domain.CustomerEquipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := equipmentIndex(p, equipmentID)
	if idx < 0 {
		s.miss("DeleteCustomerEquipment", zap.Int("project_id", projectID), zap.Int("equipment_id", equipmentID))
		return domain.CustomerEquipment{}, false
	}

	removed := p.CustomerEquipment[idx]
	label := removed.Label()
	p.CustomerEquipment = append(p.CustomerEquipment[:idx:idx], p.CustomerEquipment[idx+1:]...)

	s.record(actor, projectID, domain.ActionEquipmentDeleted,
		fmt.Sprintf("Deleted equipment %s", label),
		domain.EntityRef{ID: removed.ID, Label: label})
	return removed, true
}
