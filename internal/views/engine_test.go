package views_test

import (
	"testing"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/refdata"
	"github.com/straye-as/jobsite-crm/internal/store"
	"github.com/straye-as/jobsite-crm/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const actor domain.UserID = 3

func newTables() *refdata.Tables {
	return refdata.NewTables(
		[]domain.SalesRep{{ID: 1, Name: "Alex Morgan"}, {ID: 2, Name: "Sam Ortiz"}},
		[]domain.OpportunityStage{{ID: 1, Name: "Prospect", DisplayOrder: 1}},
		[]domain.OpportunityType{
			{ID: 1, Name: "Sale", DisplayOrder: 2},
			{ID: 2, Name: "Rental", DisplayOrder: 1},
			{ID: 3, Name: "Service Contract", DisplayOrder: 3},
		},
		nil,
	)
}

func newStore() *store.Store {
	recorder := changelog.NewRecorder(zap.NewNop(), time.Now)
	return store.New(recorder, zap.NewNop(), time.Now)
}

// fixture builds four projects:
//
//	1 Harbor Bridge  Active     rep 1  GC "Acme Corp"   division R  revenue 300
//	2 Old Depot      Completed  rep 2                   division E  revenue 50
//	3 Mill Street    Active     rep 2  GC "Bolt Build"  division E  revenue 0   PAR 2
//	4 Quarry Road    Planning   rep 1  sub "Acme Corp"  no opps                 PAR 1
func fixture() *store.Store {
	s := newStore()
	s.Load([]domain.Project{
		{
			ID: 1, Name: "Harbor Bridge", StatusID: "Active", SalesRepIDs: []domain.UserID{1},
			ProjectCompanies: []domain.ProjectCompany{{CompanyName: "Acme Corp", RoleID: domain.RoleGeneralContractor}},
			AssociatedOpportunities: []domain.OpportunitySummary{
				{ID: 100001, Type: "Rental", TypeID: 2, Revenue: 100},
				{ID: 100002, Type: "Sale", TypeID: 1, Revenue: 200},
			},
		},
		{
			ID: 2, Name: "Old Depot", StatusID: domain.StatusCompleted, SalesRepIDs: []domain.UserID{2},
			AssociatedOpportunities: []domain.OpportunitySummary{{ID: 100003, Type: "Sale", Revenue: 50}},
		},
		{
			ID: 3, Name: "Mill Street", StatusID: "Active", SalesRepIDs: []domain.UserID{2}, PlannedAnnualRate: 2,
			ProjectCompanies:        []domain.ProjectCompany{{CompanyName: "Bolt Build", IsPrimaryContact: true}},
			AssociatedOpportunities: []domain.OpportunitySummary{{ID: 100004, Type: "Rental", TypeID: 3, Revenue: 0}},
		},
		{
			ID: 4, Name: "Quarry Road", StatusID: "Planning", SalesRepIDs: []domain.UserID{1}, PlannedAnnualRate: 1,
			ProjectCompanies: []domain.ProjectCompany{{CompanyName: "Acme Corp", RoleID: "SUB-ELEC"}},
		},
	}, []domain.Opportunity{
		{ID: 100001, DivisionID: "R", ProjectID: 1, TypeID: 2, EstimateRevenue: 100},
		{ID: 100002, DivisionID: "S", ProjectID: 1, TypeID: 1, EstimateRevenue: 200},
		{ID: 100003, DivisionID: "E", ProjectID: 2, TypeID: 1, EstimateRevenue: 50},
		{ID: 100004, DivisionID: "", ProjectID: 3, TypeID: 3},
	})
	return s
}

func names(projects []domain.Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Name)
	}
	return out
}

func TestFilteredProjects(t *testing.T) {
	engine := views.NewEngine(fixture(), newTables())

	tests := []struct {
		name    string
		filters domain.Filters
		want    []string
	}{
		{
			name:    "completed hidden by default",
			filters: domain.Filters{},
			want:    []string{"Harbor Bridge", "Mill Street", "Quarry Road"},
		},
		{
			name:    "show completed",
			filters: domain.Filters{ShowCompleted: true},
			want:    []string{"Harbor Bridge", "Old Depot", "Mill Street", "Quarry Road"},
		},
		{
			name:    "sales rep",
			filters: domain.Filters{SalesRepID: 2, ShowCompleted: true},
			want:    []string{"Old Depot", "Mill Street"},
		},
		{
			name:    "status",
			filters: domain.Filters{StatusID: "Planning"},
			want:    []string{"Quarry Road"},
		},
		{
			name:    "division from first associated opportunity",
			filters: domain.Filters{DivisionID: "R"},
			want:    []string{"Harbor Bridge"},
		},
		{
			name:    "default division without opportunities or division",
			filters: domain.Filters{DivisionID: "E"},
			want:    []string{"Mill Street", "Quarry Road"},
		},
		{
			name:    "general contractor substring is case insensitive",
			filters: domain.Filters{GeneralContractor: "acme"},
			want:    []string{"Harbor Bridge"},
		},
		{
			name:    "general contractor via primary contact flag",
			filters: domain.Filters{GeneralContractor: "BOLT"},
			want:    []string{"Mill Street"},
		},
		{
			name:    "behind PAR",
			filters: domain.Filters{ShowBehindPAR: true},
			want:    []string{"Mill Street", "Quarry Road"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(engine.FilteredProjects(tt.filters)))
		})
	}
}

func TestFilteredProjects_Conjunction(t *testing.T) {
	engine := views.NewEngine(fixture(), newTables())

	byRep := names(engine.FilteredProjects(domain.Filters{SalesRepID: 1}))
	byPAR := names(engine.FilteredProjects(domain.Filters{ShowBehindPAR: true}))
	both := names(engine.FilteredProjects(domain.Filters{SalesRepID: 1, ShowBehindPAR: true}))

	var intersection []string
	for _, n := range byRep {
		for _, m := range byPAR {
			if n == m {
				intersection = append(intersection, n)
			}
		}
	}
	assert.Equal(t, intersection, both)
	assert.Equal(t, []string{"Quarry Road"}, both)
}

func TestRevenue(t *testing.T) {
	engine := views.NewEngine(fixture(), newTables())

	filters := domain.Filters{}
	filtered := engine.FilteredProjects(filters)

	var sum float64
	for _, p := range filtered {
		sum += views.CalculateProjectRevenue(p)
	}
	assert.Equal(t, sum, engine.TotalPipelineRevenue(filters))
	assert.Equal(t, 300.0, engine.TotalPipelineRevenue(filters), "completed project revenue excluded")
	assert.Equal(t, 350.0, engine.TotalPipelineRevenue(domain.Filters{ShowCompleted: true}))
}

func TestRevenueByType_SortedByDisplayOrderWithoutZeroGroups(t *testing.T) {
	engine := views.NewEngine(fixture(), newTables())

	got := engine.RevenueByType(domain.Filters{ShowCompleted: true})

	require.Len(t, got, 2)
	assert.Equal(t, views.TypeRevenue{TypeID: 2, Label: "Rental", DisplayOrder: 1, Revenue: 100}, got[0])
	// the completed project's summary has no type id; its "Sale" label resolves to type 1
	assert.Equal(t, views.TypeRevenue{TypeID: 1, Label: "Sale", DisplayOrder: 2, Revenue: 250}, got[1])
}

func TestPipeline_ConsistentAggregates(t *testing.T) {
	engine := views.NewEngine(fixture(), newTables())

	pipeline := engine.Pipeline(domain.Filters{StatusID: "Active"})

	assert.Equal(t, []string{"Harbor Bridge", "Mill Street"}, names(pipeline.Projects))
	assert.Equal(t, 300.0, pipeline.TotalRevenue)
	require.Len(t, pipeline.RevenueByType, 2)
}

func TestRiversideParkBehindPAR(t *testing.T) {
	s := newStore()
	engine := views.NewEngine(s, newTables())
	behind := domain.Filters{ShowBehindPAR: true}

	p := s.CreateProject(actor, domain.Project{Name: "Riverside Park", StatusID: "Active", PlannedAnnualRate: 5})
	for i := 0; i < 3; i++ {
		_, ok := s.AddActivity(actor, p.ID, domain.Activity{ActivityType: domain.ActivityTypeSiteVisit, Description: "walk"})
		require.True(t, ok)
	}
	assert.Contains(t, names(engine.FilteredProjects(behind)), "Riverside Park")

	for i := 0; i < 5; i++ {
		_, ok := s.CreateNewOpportunity(actor, domain.Opportunity{
			ID:              s.NextOpportunityID(),
			Description:     "unit",
			EstimateRevenue: 10,
			TypeID:          1,
			ProjectID:       p.ID,
		})
		require.True(t, ok)
	}
	assert.NotContains(t, names(engine.FilteredProjects(behind)), "Riverside Park")
	assert.Equal(t, 50.0, engine.TotalPipelineRevenue(domain.Filters{}))
}

func TestCalculateProjectRevenue_UsesCachedSummaries(t *testing.T) {
	s := fixture()
	engine := views.NewEngine(s, newTables())

	_, ok := s.UpdateOpportunity(actor, 100001, domain.OpportunityPatch{EstimateRevenue: ptrTo(9999.0)})
	require.True(t, ok)

	p, ok := s.Project(1)
	require.True(t, ok)
	assert.Equal(t, 300.0, views.CalculateProjectRevenue(p))
	assert.Equal(t, 300.0, engine.TotalPipelineRevenue(domain.Filters{StatusID: "Active", SalesRepID: 1}))
}

func ptrTo[T any](v T) *T { return &v }
