// Package store is the single source of truth for projects, opportunities
// and the note-tag taxonomy. Every mutator applies its state change and its
// change-log entry under one lock, so readers never observe half a mutation.
//
// Mutators never fail on a lookup miss: they return ok=false, leave state
// untouched and record nothing. Returned values are deep copies.
package store

import (
	"sync"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// sequence identifies one max-plus-one id space
type sequence struct {
	kind  string
	scope int
	sub   int
}

const (
	seqProject  = "project"
	seqActivity = "activity"
	seqNote     = "note"
	seqEquip    = "equipment"
	seqCompany  = "company"
	seqContact  = "contact"
)

// Store holds all mutable entities
type Store struct {
	mu            sync.RWMutex
	projects      []domain.Project
	opportunities []domain.Opportunity
	noteTags      []domain.NoteTag

	// issued remembers the highest id handed out per sequence so a removed
	// tail entity never gets its id reused
	issued map[sequence]int

	recorder     *changelog.Recorder
	now          func() time.Time
	tagObservers []func([]domain.NoteTag)
	missHooks    []func(operation string)
	logger       *zap.Logger
}

// New creates an empty store writing to recorder. now stamps note times.
func New(recorder *changelog.Recorder, logger *zap.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		projects:      []domain.Project{},
		opportunities: []domain.Opportunity{},
		noteTags:      domain.DefaultNoteTags(),
		issued:        make(map[sequence]int),
		recorder:      recorder,
		now:           now,
		logger:        logger,
	}
}

// Load replaces the entity collections with seed data. Company rows without
// an association id get one. Nothing is written to the change log.
func (s *Store) Load(projects []domain.Project, opportunities []domain.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		p = p.Clone()
		initCollections(&p)
		assignAssociationIDs(&p)
		s.projects = append(s.projects, p)
	}

	s.opportunities = make([]domain.Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		s.opportunities = append(s.opportunities, o.Clone())
	}
	s.issued = make(map[sequence]int)
	for i := range s.projects {
		s.markLoaded(&s.projects[i])
	}

	s.logger.Info("store loaded",
		zap.Int("projects", len(s.projects)),
		zap.Int("opportunities", len(s.opportunities)))
}

// markLoaded raises every nested sequence of p to the ids already present,
// so deleting a seeded tail entity never frees its id
func (s *Store) markLoaded(p *domain.Project) {
	s.raise(sequence{kind: seqProject}, p.ID)
	for _, a := range p.Activities {
		s.raise(sequence{kind: seqActivity, scope: p.ID}, a.ID)
	}
	for _, n := range p.Notes {
		s.raise(sequence{kind: seqNote, scope: p.ID}, n.ID)
	}
	for _, e := range p.CustomerEquipment {
		s.raise(sequence{kind: seqEquip, scope: p.ID}, e.ID)
	}
	for _, c := range p.ProjectCompanies {
		s.raise(sequence{kind: seqCompany, scope: p.ID}, c.AssociationID)
		for _, cc := range c.CompanyContacts {
			s.raise(sequence{kind: seqContact, scope: p.ID, sub: c.AssociationID}, cc.ID)
		}
	}
}

func (s *Store) raise(seq sequence, id int) {
	if id > s.issued[seq] {
		s.issued[seq] = id
	}
}

func assignAssociationIDs(p *domain.Project) {
	maxID := 0
	for _, c := range p.ProjectCompanies {
		if c.AssociationID > maxID {
			maxID = c.AssociationID
		}
	}
	for i := range p.ProjectCompanies {
		if p.ProjectCompanies[i].AssociationID == 0 {
			maxID++
			p.ProjectCompanies[i].AssociationID = maxID
		}
	}
}

// OnLookupMiss registers a callback run whenever a mutator misses its target
func (s *Store) OnLookupMiss(fn func(operation string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missHooks = append(s.missHooks, fn)
}

func (s *Store) miss(operation string, fields ...zap.Field) {
	s.logger.Debug("lookup miss, mutation skipped", append(fields, zap.String("operation", operation))...)
	for _, fn := range s.missHooks {
		fn(operation)
	}
}

func (s *Store) record(actor domain.UserID, projectID int, action domain.ChangeAction, summary string, details domain.ChangeDetails) {
	s.recorder.Record(changelog.Entry{
		ProjectID: projectID,
		Action:    action,
		Summary:   summary,
		ActorID:   actor,
		Details:   details,
	})
}

// nextID returns max(existing ids, previously issued ids) + 1 for a sequence
func (s *Store) nextID(seq sequence, ids []int) int {
	maxID := s.issued[seq]
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	next := maxID + 1
	s.issued[seq] = next
	return next
}

func idsOf[T any](items []T, id func(T) int) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = id(it)
	}
	return ids
}

// project returns a pointer into the project slice; callers hold the lock
func (s *Store) project(id int) *domain.Project {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return &s.projects[i]
		}
	}
	return nil
}

// opportunity returns a pointer into the opportunity slice; callers hold the lock
func (s *Store) opportunity(id int) *domain.Opportunity {
	for i := range s.opportunities {
		if s.opportunities[i].ID == id {
			return &s.opportunities[i]
		}
	}
	return nil
}

// Projects returns every project in insertion order
func (s *Store) Projects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// Project returns a single project
func (s *Store) Project(id int) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.project(id)
	if p == nil {
		return domain.Project{}, false
	}
	return p.Clone(), true
}

// Opportunities returns the global opportunity list
func (s *Store) Opportunities() []domain.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Opportunity, len(s.opportunities))
	for i, o := range s.opportunities {
		out[i] = o.Clone()
	}
	return out
}

// Opportunity returns a single opportunity
func (s *Store) Opportunity(id int) (domain.Opportunity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := s.opportunity(id)
	if o == nil {
		return domain.Opportunity{}, false
	}
	return o.Clone(), true
}

// Snapshot returns projects and opportunities read under one lock
func (s *Store) Snapshot() ([]domain.Project, []domain.Opportunity) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]domain.Project, len(s.projects))
	for i, p := range s.projects {
		projects[i] = p.Clone()
	}
	opportunities := make([]domain.Opportunity, len(s.opportunities))
	for i, o := range s.opportunities {
		opportunities[i] = o.Clone()
	}
	return projects, opportunities
}

// ChangeLog returns the project's change-log entries in insertion order
func (s *Store) ChangeLog(projectID int) []domain.ChangeLogEntry {
	return s.recorder.Query(projectID)
}
