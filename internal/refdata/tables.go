// Package refdata loads the immutable lookup tables (sales reps, opportunity
// stages and types, divisions) and resolves ids to display names.
package refdata

import (
	"sort"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
)

// Tables holds the reference data loaded at startup. It is never mutated
// after construction and is safe for concurrent reads.
type Tables struct {
	salesReps []domain.SalesRep
	stages    []domain.OpportunityStage
	types     []domain.OpportunityType
	divisions []domain.Division

	repByID      map[domain.UserID]domain.SalesRep
	stageByID    map[int]domain.OpportunityStage
	typeByID     map[int]domain.OpportunityType
	divisionByID map[string]domain.Division
}

// NewTables indexes the given collections. A nil divisions slice means the
// fixed default division set.
func NewTables(salesReps []domain.SalesRep, stages []domain.OpportunityStage, types []domain.OpportunityType, divisions []domain.Division) *Tables {
	if divisions == nil {
		divisions = domain.DefaultDivisions
	}

	t := &Tables{
		salesReps:    append([]domain.SalesRep{}, salesReps...),
		stages:       append([]domain.OpportunityStage{}, stages...),
		types:        append([]domain.OpportunityType{}, types...),
		divisions:    append([]domain.Division{}, divisions...),
		repByID:      make(map[domain.UserID]domain.SalesRep, len(salesReps)),
		stageByID:    make(map[int]domain.OpportunityStage, len(stages)),
		typeByID:     make(map[int]domain.OpportunityType, len(types)),
		divisionByID: make(map[string]domain.Division, len(divisions)),
	}

	sort.SliceStable(t.stages, func(i, j int) bool { return t.stages[i].DisplayOrder < t.stages[j].DisplayOrder })
	sort.SliceStable(t.types, func(i, j int) bool { return t.types[i].DisplayOrder < t.types[j].DisplayOrder })

	// first occurrence wins on duplicate ids
	for _, r := range t.salesReps {
		if _, ok := t.repByID[r.ID]; !ok {
			t.repByID[r.ID] = r
		}
	}
	for _, s := range t.stages {
		if _, ok := t.stageByID[s.ID]; !ok {
			t.stageByID[s.ID] = s
		}
	}
	for _, ty := range t.types {
		if _, ok := t.typeByID[ty.ID]; !ok {
			t.typeByID[ty.ID] = ty
		}
	}
	for _, d := range t.divisions {
		if _, ok := t.divisionByID[d.ID]; !ok {
			t.divisionByID[d.ID] = d
		}
	}
	return t
}

// SalesReps returns all sales reps in load order
func (t *Tables) SalesReps() []domain.SalesRep {
	return append([]domain.SalesRep{}, t.salesReps...)
}

// Stages returns the stages sorted by display order
func (t *Tables) Stages() []domain.OpportunityStage {
	return append([]domain.OpportunityStage{}, t.stages...)
}

// Types returns the opportunity types sorted by display order
func (t *Tables) Types() []domain.OpportunityType {
	return append([]domain.OpportunityType{}, t.types...)
}

// Divisions returns the division codes
func (t *Tables) Divisions() []domain.Division {
	return append([]domain.Division{}, t.divisions...)
}

// SalesRepName resolves a sales rep id, or "Unknown"
func (t *Tables) SalesRepName(id domain.UserID) string {
	if r, ok := t.repByID[id]; ok {
		return r.Name
	}
	return domain.UnknownName
}

// SalesRepNames resolves each id and joins the names with "; "
func (t *Tables) SalesRepNames(ids []domain.UserID) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, t.SalesRepName(id))
	}
	return strings.Join(names, "; ")
}

// StageName resolves a stage id, or "Unknown"
func (t *Tables) StageName(id int) string {
	if s, ok := t.stageByID[id]; ok {
		return s.Name
	}
	return domain.UnknownName
}

// TypeName resolves an opportunity type id, or "Unknown"
func (t *Tables) TypeName(id int) string {
	if ty, ok := t.typeByID[id]; ok {
		return ty.Name
	}
	return domain.UnknownName
}

// Type returns the opportunity type with the given id
func (t *Tables) Type(id int) (domain.OpportunityType, bool) {
	ty, ok := t.typeByID[id]
	return ty, ok
}

// DivisionName resolves a division code, or "Unknown"
func (t *Tables) DivisionName(id string) string {
	if d, ok := t.divisionByID[id]; ok {
		return d.Name
	}
	return domain.UnknownName
}
