package store

import (
	"fmt"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// CreateProject appends a project with the next project id. Nested
// collections start empty; any supplied in data are kept.
func (s *Store) CreateProject(actor domain.UserID, data domain.Project) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := data.Clone()
	p.ID = s.nextID(sequence{kind: seqProject}, idsOf(s.projects, func(p domain.Project) int { return p.ID }))
	initCollections(&p)
	assignAssociationIDs(&p)

	s.projects = append(s.projects, p)
	s.record(actor, p.ID, domain.ActionProjectCreated,
		fmt.Sprintf("Created project %s", p.Name),
		domain.EntityRef{ID: p.ID, Label: p.Name})

	s.logger.Info("project created", zap.Int("project_id", p.ID), zap.String("name", p.Name), zap.Int("acting_user_id", int(actor)))
	return p.Clone()
}

// UpdateProject merges patch into the project. A change-log entry is written
// only when at least one field actually differs; its summary names exactly
// the changed fields.
func (s *Store) UpdateProject(actor domain.UserID, id int, patch domain.ProjectPatch) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(id)
	if p == nil {
		s.miss("UpdateProject", zap.Int("project_id", id))
		return domain.Project{}, false
	}

	updated := mergeProject(*p, patch)
	names, changes := diffFields(*p, updated)
	if len(names) == 0 {
		return p.Clone(), true
	}

	*p = updated
	s.record(actor, id, domain.ActionProjectUpdated,
		fmt.Sprintf("Updated %s", strings.Join(names, ", ")),
		changeDetails(names, changes))
	return p.Clone(), true
}

// initCollections replaces nil collections with empty ones
func initCollections(p *domain.Project) {
	if p.SalesRepIDs == nil {
		p.SalesRepIDs = []domain.UserID{}
	}
	if p.ProjectCompanies == nil {
		p.ProjectCompanies = []domain.ProjectCompany{}
	}
	if p.AssociatedOpportunities == nil {
		p.AssociatedOpportunities = []domain.OpportunitySummary{}
	}
	if p.Activities == nil {
		p.Activities = []domain.Activity{}
	}
	if p.Notes == nil {
		p.Notes = []domain.Note{}
	}
	if p.CustomerEquipment == nil {
		p.CustomerEquipment = []domain.CustomerEquipment{}
	}
}
