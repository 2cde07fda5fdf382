package store

import (
	"fmt"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// NextOpportunityID returns max(existing ids, MinOpportunityID) + 1
func (s *Store) NextOpportunityID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxID := domain.MinOpportunityID
	for _, o := range s.opportunities {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	return maxID + 1
}

// AddOpportunityToProject appends the opportunity's summary row to the
// project. An opportunity that is already associated is left alone and
// nothing is recorded.
func (s *Store) AddOpportunityToProject(actor domain.UserID, projectID, opportunityID int) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	o := s.opportunity(opportunityID)
	if p == nil || o == nil {
		s.miss("AddOpportunityToProject", zap.Int("project_id", projectID), zap.Int("opportunity_id", opportunityID))
		return domain.Project{}, false
	}
	if p.HasOpportunity(opportunityID) {
		return p.Clone(), true
	}

	p.AssociatedOpportunities = append(p.AssociatedOpportunities, o.Summary())
	s.record(actor, projectID, domain.ActionOpportunityAssociated,
		fmt.Sprintf("Associated opportunity %d: %s", o.ID, o.Description),
		domain.EntityRef{ID: o.ID, Label: o.Description})
	return p.Clone(), true
}

// RemoveOpportunityFromProject drops the opportunity's summary row from the
// project. The global opportunity record is untouched.
func (s *Store) RemoveOpportunityFromProject(actor domain.UserID, projectID, opportunityID int) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil || !p.HasOpportunity(opportunityID) {
		s.miss("RemoveOpportunityFromProject", zap.Int("project_id", projectID), zap.Int("opportunity_id", opportunityID))
		return domain.Project{}, false
	}

	var removed domain.OpportunitySummary
	kept := make([]domain.OpportunitySummary, 0, len(p.AssociatedOpportunities))
	for _, summary := range p.AssociatedOpportunities {
		if summary.ID == opportunityID {
			removed = summary
			continue
		}
		kept = append(kept, summary)
	}
	p.AssociatedOpportunities = kept

	s.record(actor, projectID, domain.ActionOpportunityDisassociated,
		fmt.Sprintf("Removed opportunity %d: %s", removed.ID, removed.Description),
		domain.EntityRef{ID: removed.ID, Label: removed.Description})
	return p.Clone(), true
}

// CreateNewOpportunity appends the opportunity verbatim to the global list and
// its summary row to the owning project. The caller supplies the id, normally
// from NextOpportunityID.
func (s *Store) CreateNewOpportunity(actor domain.UserID, opportunity domain.Opportunity) (domain.Opportunity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(opportunity.ProjectID)
	if p == nil {
		s.miss("CreateNewOpportunity", zap.Int("project_id", opportunity.ProjectID), zap.Int("opportunity_id", opportunity.ID))
		return domain.Opportunity{}, false
	}

	o := opportunity.Clone()
	s.opportunities = append(s.opportunities, o)
	if !p.HasOpportunity(o.ID) {
		p.AssociatedOpportunities = append(p.AssociatedOpportunities, o.Summary())
	}

	s.record(actor, p.ID, domain.ActionOpportunityCreated,
		fmt.Sprintf("Created opportunity %d: %s", o.ID, o.Description),
		domain.EntityRef{ID: o.ID, Label: o.Description})
	return o.Clone(), true
}

// UpdateOpportunity merges patch into the global opportunity record. The
// summary row cached on the owning project is NOT refreshed; it stays a
// snapshot from association time until the next reload. Nothing is recorded
// when no field differs.
func (s *Store) UpdateOpportunity(actor domain.UserID, id int, patch domain.OpportunityPatch) (domain.Opportunity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.opportunity(id)
	if o == nil {
		s.miss("UpdateOpportunity", zap.Int("opportunity_id", id))
		return domain.Opportunity{}, false
	}

	updated := mergeOpportunity(*o, patch)
	names, changes := diffFields(*o, updated)
	attrNames, attrChanges := diffAttributes(o.Attributes, updated.Attributes)
	names = append(names, attrNames...)
	for k, v := range attrChanges {
		changes[k] = v
	}
	if len(names) == 0 {
		return o.Clone(), true
	}

	*o = updated
	s.record(actor, o.ProjectID, domain.ActionOpportunityUpdated,
		fmt.Sprintf("Updated opportunity %d: %s", o.ID, strings.Join(names, ", ")),
		changeDetails(names, changes))
	return o.Clone(), true
}
