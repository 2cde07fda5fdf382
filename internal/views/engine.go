// Package views computes the derived, read-only views over store state:
// filtered project lists, pipeline revenue and revenue by opportunity type.
// Nothing is cached; every call works on a fresh snapshot.
package views

import (
	"sort"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/refdata"
)

// Snapshotter provides a consistent copy of the entity collections
type Snapshotter interface {
	Snapshot() ([]domain.Project, []domain.Opportunity)
}

// TypeRevenue is the revenue of one opportunity type
type TypeRevenue struct {
	TypeID       int     `json:"typeId"`
	Label        string  `json:"label"`
	DisplayOrder int     `json:"displayOrder"`
	Revenue      float64 `json:"revenue"`
}

// Pipeline is the filtered project set together with the aggregates derived
// from exactly that set
type Pipeline struct {
	Projects      []domain.Project `json:"projects"`
	TotalRevenue  float64          `json:"totalRevenue"`
	RevenueByType []TypeRevenue    `json:"revenueByType"`
}

// Engine evaluates views against the current store state
type Engine struct {
	source Snapshotter
	tables *refdata.Tables
}

// NewEngine creates a view engine
func NewEngine(source Snapshotter, tables *refdata.Tables) *Engine {
	return &Engine{source: source, tables: tables}
}

// Tables returns the reference tables used for name resolution
func (e *Engine) Tables() *refdata.Tables {
	return e.tables
}

// FilteredProjects returns the projects matching every active filter, in
// store order
func (e *Engine) FilteredProjects(f domain.Filters) []domain.Project {
	projects, opportunities := e.source.Snapshot()
	return filterProjects(projects, indexOpportunities(opportunities), f)
}

// TotalPipelineRevenue sums project revenue over the filtered project set
func (e *Engine) TotalPipelineRevenue(f domain.Filters) float64 {
	return totalRevenue(e.FilteredProjects(f))
}

// RevenueByType groups the filtered set's opportunity revenue by type
func (e *Engine) RevenueByType(f domain.Filters) []TypeRevenue {
	return e.revenueByType(e.FilteredProjects(f))
}

// Pipeline computes the filtered set and both aggregates from one snapshot
func (e *Engine) Pipeline(f domain.Filters) Pipeline {
	filtered := e.FilteredProjects(f)
	return Pipeline{
		Projects:      filtered,
		TotalRevenue:  totalRevenue(filtered),
		RevenueByType: e.revenueByType(filtered),
	}
}

// CalculateProjectRevenue sums the revenue of the project's associated
// opportunity summaries. The cached summaries are used, not live records.
func CalculateProjectRevenue(p domain.Project) float64 {
	var total float64
	for _, o := range p.AssociatedOpportunities {
		total += o.Revenue
	}
	return total
}

// ProjectDivision returns the division of the project's first associated
// opportunity, or the default division
func ProjectDivision(p domain.Project, opportunities map[int]domain.Opportunity) string {
	if len(p.AssociatedOpportunities) == 0 {
		return domain.DefaultDivisionID
	}
	o, ok := opportunities[p.AssociatedOpportunities[0].ID]
	if !ok || o.DivisionID == "" {
		return domain.DefaultDivisionID
	}
	return o.DivisionID
}

// IsBehindPAR reports whether the project has fewer associated opportunities
// than its planned annual rate
func IsBehindPAR(p domain.Project) bool {
	return float64(len(p.AssociatedOpportunities)) < p.PlannedAnnualRate
}

func indexOpportunities(opportunities []domain.Opportunity) map[int]domain.Opportunity {
	index := make(map[int]domain.Opportunity, len(opportunities))
	for _, o := range opportunities {
		if _, ok := index[o.ID]; !ok {
			index[o.ID] = o
		}
	}
	return index
}

func filterProjects(projects []domain.Project, opportunities map[int]domain.Opportunity, f domain.Filters) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if matches(p, opportunities, f) {
			out = append(out, p)
		}
	}
	return out
}

// matches applies the filters in a fixed order; all of them must hold
func matches(p domain.Project, opportunities map[int]domain.Opportunity, f domain.Filters) bool {
	if !f.ShowCompleted && p.StatusID == domain.StatusCompleted {
		return false
	}
	if f.SalesRepID != 0 && !hasSalesRep(p, f.SalesRepID) {
		return false
	}
	if f.StatusID != "" && p.StatusID != f.StatusID {
		return false
	}
	if f.DivisionID != "" && ProjectDivision(p, opportunities) != f.DivisionID {
		return false
	}
	if f.GeneralContractor != "" && !hasGeneralContractor(p, f.GeneralContractor) {
		return false
	}
	if f.ShowBehindPAR && !IsBehindPAR(p) {
		return false
	}
	return true
}

func hasSalesRep(p domain.Project, id domain.UserID) bool {
	for _, r := range p.SalesRepIDs {
		if r == id {
			return true
		}
	}
	return false
}

func hasGeneralContractor(p domain.Project, query string) bool {
	query = strings.ToLower(query)
	for _, c := range p.ProjectCompanies {
		if c.IsGeneralContractor() && strings.Contains(strings.ToLower(c.CompanyName), query) {
			return true
		}
	}
	return false
}

func totalRevenue(projects []domain.Project) float64 {
	var total float64
	for _, p := range projects {
		total += CalculateProjectRevenue(p)
	}
	return total
}

// rentalTypeID is the type assumed for summaries labelled "Rental" that
// carry no type id: the first non-sale type by display order
func (e *Engine) rentalTypeID() int {
	for _, t := range e.tables.Types() {
		if t.ID != domain.SaleTypeID {
			return t.ID
		}
	}
	return domain.SaleTypeID + 1
}

func (e *Engine) revenueByType(projects []domain.Project) []TypeRevenue {
	rental := e.rentalTypeID()

	byType := make(map[int]float64)
	for _, p := range projects {
		for _, o := range p.AssociatedOpportunities {
			byType[o.ResolvedTypeID(rental)] += o.Revenue
		}
	}

	out := make([]TypeRevenue, 0, len(byType))
	for id, revenue := range byType {
		if revenue == 0 {
			continue
		}
		entry := TypeRevenue{TypeID: id, Label: e.tables.TypeName(id), Revenue: revenue}
		if t, ok := e.tables.Type(id); ok {
			entry.DisplayOrder = t.DisplayOrder
		} else {
			entry.DisplayOrder = int(^uint(0) >> 1)
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].TypeID < out[j].TypeID
	})
	return out
}
