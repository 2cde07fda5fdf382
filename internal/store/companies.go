package store

import (
	"fmt"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// companyIndex returns the slice index of the association, or -1
func companyIndex(p *domain.Project, associationID int) int {
	for i, c := range p.ProjectCompanies {
		if c.AssociationID == associationID {
			return i
		}
	}
	return -1
}

// companyIndexByName returns the first row with the given name, or -1
func companyIndexByName(p *domain.Project, name string) int {
	for i, c := range p.ProjectCompanies {
		if c.CompanyName == name {
			return i
		}
	}
	return -1
}

func (s *Store) nextAssociationID(p *domain.Project) int {
	return s.nextID(sequence{kind: seqCompany, scope: p.ID},
		idsOf(p.ProjectCompanies, func(c domain.ProjectCompany) int { return c.AssociationID }))
}

// prepareContacts gives contacts without an id the next contact id and
// clamps the primary index into range
func (s *Store) prepareContacts(projectID int, c *domain.ProjectCompany) {
	if c.CompanyContacts == nil {
		c.CompanyContacts = []domain.CompanyContact{}
	}
	seq := sequence{kind: seqContact, scope: projectID, sub: c.AssociationID}
	for i := range c.CompanyContacts {
		if c.CompanyContacts[i].ID == 0 {
			c.CompanyContacts[i].ID = s.nextID(seq, idsOf(c.CompanyContacts, func(cc domain.CompanyContact) int { return cc.ID }))
		}
	}
	if c.PrimaryContactIndex < 0 || c.PrimaryContactIndex >= len(c.CompanyContacts) {
		c.PrimaryContactIndex = 0
	}
}

// AddProjectCompany associates a company with the project under a new
// association id
func (s *Store) AddProjectCompany(actor domain.UserID, projectID int, company domain.ProjectCompany) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("AddProjectCompany", zap.Int("project_id", projectID))
		return domain.ProjectCompany{}, false
	}

	c := company.Clone()
	c.AssociationID = s.nextAssociationID(p)
	s.prepareContacts(projectID, &c)
	p.ProjectCompanies = append(p.ProjectCompanies, c)

	s.record(actor, projectID, domain.ActionCompanyAdded,
		fmt.Sprintf("Added company %s", c.CompanyName),
		domain.EntityRef{ID: c.AssociationID, Label: c.CompanyName})
	return c.Clone(), true
}

// AssociateExistingCompany copies a company row, contacts included, from one
// project onto another. The copy shares nothing with the source row.
func (s *Store) AssociateExistingCompany(actor domain.UserID, sourceProjectID, associationID, targetProjectID int) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.project(sourceProjectID)
	dst := s.project(targetProjectID)
	if src == nil || dst == nil {
		s.miss("AssociateExistingCompany", zap.Int("source_project_id", sourceProjectID), zap.Int("target_project_id", targetProjectID))
		return domain.ProjectCompany{}, false
	}
	idx := companyIndex(src, associationID)
	if idx < 0 {
		s.miss("AssociateExistingCompany", zap.Int("source_project_id", sourceProjectID), zap.Int("association_id", associationID))
		return domain.ProjectCompany{}, false
	}

	c := src.ProjectCompanies[idx].Clone()
	c.AssociationID = s.nextAssociationID(dst)
	s.prepareContacts(targetProjectID, &c)
	dst.ProjectCompanies = append(dst.ProjectCompanies, c)

	s.record(actor, targetProjectID, domain.ActionCompanyAdded,
		fmt.Sprintf("Added company %s", c.CompanyName),
		domain.EntityRef{ID: c.AssociationID, Label: c.CompanyName})
	return c.Clone(), true
}

// RemoveProjectCompany removes the association
func (s *Store) RemoveProjectCompany(actor domain.UserID, projectID, associationID int) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("RemoveProjectCompany", zap.Int("project_id", projectID))
		return domain.ProjectCompany{}, false
	}
	return s.removeCompanyAt(actor, p, companyIndex(p, associationID))
}

// RemoveProjectCompanyByName removes the first company row with the name
func (s *Store) RemoveProjectCompanyByName(actor domain.UserID, projectID int, companyName string) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("RemoveProjectCompanyByName", zap.Int("project_id", projectID))
		return domain.ProjectCompany{}, false
	}
	return s.removeCompanyAt(actor, p, companyIndexByName(p, companyName))
}

func (s *Store) removeCompanyAt(actor domain.UserID, p *domain.Project, idx int) (domain.ProjectCompany, bool) {
	if idx < 0 {
		s.miss("RemoveProjectCompany", zap.Int("project_id", p.ID))
		return domain.ProjectCompany{}, false
	}

	removed := p.ProjectCompanies[idx]
	p.ProjectCompanies = append(p.ProjectCompanies[:idx:idx], p.ProjectCompanies[idx+1:]...)

	s.record(actor, p.ID, domain.ActionCompanyRemoved,
		fmt.Sprintf("Removed company %s", removed.CompanyName),
		domain.EntityRef{ID: removed.AssociationID, Label: removed.CompanyName})
	return removed.Clone(), true
}

// UpdateProjectCompany replaces the company row wholesale, keeping its
// association id. Renames only touch this project's row.
func (s *Store) UpdateProjectCompany(actor domain.UserID, projectID, associationID int, company domain.ProjectCompany) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("UpdateProjectCompany", zap.Int("project_id", projectID))
		return domain.ProjectCompany{}, false
	}
	return s.updateCompanyAt(actor, p, companyIndex(p, associationID), company)
}

// UpdateProjectCompanyByName replaces the first company row named oldName
func (s *Store) UpdateProjectCompanyByName(actor domain.UserID, projectID int, oldName string, company domain.ProjectCompany) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("UpdateProjectCompanyByName", zap.Int("project_id", projectID))
		return domain.ProjectCompany{}, false
	}
	return s.updateCompanyAt(actor, p, companyIndexByName(p, oldName), company)
}

func (s *Store) updateCompanyAt(actor domain.UserID, p *domain.Project, idx int, company domain.ProjectCompany) (domain.ProjectCompany, bool) {
	if idx < 0 {
		s.miss("UpdateProjectCompany", zap.Int("project_id", p.ID))
		return domain.ProjectCompany{}, false
	}

	before := p.ProjectCompanies[idx]
	updated := company.Clone()
	updated.AssociationID = before.AssociationID
	s.prepareContacts(p.ID, &updated)
	p.ProjectCompanies[idx] = updated

	summary := fmt.Sprintf("Updated company %s", updated.CompanyName)
	if before.CompanyName != updated.CompanyName {
		summary = fmt.Sprintf("Renamed company %s to %s", before.CompanyName, updated.CompanyName)
	}
	names, changes := diffFields(before, updated)
	s.record(actor, p.ID, domain.ActionCompanyUpdated, summary, changeDetails(names, changes))
	return updated.Clone(), true
}

// company resolves a project's company row; callers hold the lock
func (s *Store) company(projectID, associationID int) (*domain.Project, *domain.ProjectCompany) {
	p := s.project(projectID)
	if p == nil {
		return nil, nil
	}
	idx := companyIndex(p, associationID)
	if idx < 0 {
		return p, nil
	}
	return p, &p.ProjectCompanies[idx]
}

// AddCompanyContact appends a contact with the next contact id for the
// company. The first contact becomes the primary.
func (s *Store) AddCompanyContact(actor domain.UserID, projectID, associationID int, contact domain.CompanyContact) (domain.CompanyContact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.company(projectID, associationID)
	if c == nil {
		s.miss("AddCompanyContact", zap.Int("project_id", projectID), zap.Int("association_id", associationID))
		return domain.CompanyContact{}, false
	}

	contact.ID = s.nextID(sequence{kind: seqContact, scope: projectID, sub: associationID},
		idsOf(c.CompanyContacts, func(cc domain.CompanyContact) int { return cc.ID }))
	c.CompanyContacts = append(c.CompanyContacts, contact)
	if len(c.CompanyContacts) == 1 {
		c.PrimaryContactIndex = 0
	}

	s.record(actor, projectID, domain.ActionContactAdded,
		fmt.Sprintf("Added contact %s to %s", contact.Name, c.CompanyName),
		domain.EntityRef{ID: contact.ID, Label: contact.Name})
	return contact, true
}

// UpdateCompanyContact replaces the contact wholesale, keeping its id
func (s *Store) UpdateCompanyContact(actor domain.UserID, projectID, associationID, contactID int, contact domain.CompanyContact) (domain.CompanyContact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.company(projectID, associationID)
	idx := contactIndex(c, contactID)
	if idx < 0 {
		s.miss("UpdateCompanyContact", zap.Int("project_id", projectID), zap.Int("contact_id", contactID))
		return domain.CompanyContact{}, false
	}

	before := c.CompanyContacts[idx]
	contact.ID = before.ID
	c.CompanyContacts[idx] = contact

	names, changes := diffFields(before, contact)
	s.record(actor, projectID, domain.ActionContactUpdated,
		fmt.Sprintf("Updated contact %s at %s", contact.Name, c.CompanyName),
		changeDetails(names, changes))
	return contact, true
}

// RemoveCompanyContact removes the contact. The primary index keeps pointing
// at the same person; when the primary itself is removed it falls back to
// the first remaining contact.
func (s *Store) RemoveCompanyContact(actor domain.UserID, projectID, associationID, contactID int) (domain.CompanyContact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.company(projectID, associationID)
	idx := contactIndex(c, contactID)
	if idx < 0 {
		s.miss("RemoveCompanyContact", zap.Int("project_id", projectID), zap.Int("contact_id", contactID))
		return domain.CompanyContact{}, false
	}

	removed := c.CompanyContacts[idx]
	c.CompanyContacts = append(c.CompanyContacts[:idx:idx], c.CompanyContacts[idx+1:]...)
	switch {
	case idx < c.PrimaryContactIndex:
		c.PrimaryContactIndex--
	case idx == c.PrimaryContactIndex:
		c.PrimaryContactIndex = 0
	}
	if c.PrimaryContactIndex >= len(c.CompanyContacts) {
		c.PrimaryContactIndex = 0
	}

	s.record(actor, projectID, domain.ActionContactRemoved,
		fmt.Sprintf("Removed contact %s from %s", removed.Name, c.CompanyName),
		domain.EntityRef{ID: removed.ID, Label: removed.Name})
	return removed, true
}

// SetPrimaryCompanyContact designates the company's default contact
func (s *Store) SetPrimaryCompanyContact(actor domain.UserID, projectID, associationID, contactID int) (domain.ProjectCompany, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, c := s.company(projectID, associationID)
	idx := contactIndex(c, contactID)
	if idx < 0 {
		s.miss("SetPrimaryCompanyContact", zap.Int("project_id", projectID), zap.Int("contact_id", contactID))
		return domain.ProjectCompany{}, false
	}
	if idx == c.PrimaryContactIndex {
		return c.Clone(), true
	}

	var from any
	if prev, ok := c.PrimaryContact(); ok {
		from = prev.Name
	}
	c.PrimaryContactIndex = idx

	s.record(actor, projectID, domain.ActionCompanyUpdated,
		fmt.Sprintf("Set %s as primary contact for %s", c.CompanyContacts[idx].Name, c.CompanyName),
		domain.FieldChange{Field: "primaryContact", From: from, To: c.CompanyContacts[idx].Name})
	return c.Clone(), true
}

func contactIndex(c *domain.ProjectCompany, contactID int) int {
	if c == nil {
		return -1
	}
	for i, cc := range c.CompanyContacts {
		if cc.ID == contactID {
			return i
		}
	}
	return -1
}
