package store_test

import (
	"testing"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOpportunities() []domain.Opportunity {
	return []domain.Opportunity{
		{ID: 100001, Description: "Excavator sale", EstimateRevenue: 250000, StageID: 2, TypeID: domain.SaleTypeID, DivisionID: "E", ProjectID: 1},
		{ID: 100002, Description: "Loader rental", EstimateRevenue: 40000, StageID: 1, TypeID: 2, DivisionID: "R", ProjectID: 1},
	}
}

func TestNextOpportunityID(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, domain.MinOpportunityID+1, s.NextOpportunityID())

	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())
	assert.Equal(t, 100003, s.NextOpportunityID())
}

func TestAddOpportunityToProject(t *testing.T) {
	s, recorder := newTestStore(t)
	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())

	p, ok := s.AddOpportunityToProject(actor, 1, 100002)
	require.True(t, ok)
	require.Len(t, p.AssociatedOpportunities, 1)
	assert.Equal(t, domain.OpportunitySummary{
		ID:          100002,
		Type:        "Rental",
		TypeID:      2,
		Description: "Loader rental",
		StageID:     1,
		Revenue:     40000,
	}, p.AssociatedOpportunities[0])

	again, ok := s.AddOpportunityToProject(actor, 1, 100002)
	require.True(t, ok)
	assert.Len(t, again.AssociatedOpportunities, 1)
	assert.Len(t, recorder.Query(1), 1)

	_, ok = s.AddOpportunityToProject(actor, 1, 999)
	assert.False(t, ok)
	assert.Len(t, recorder.Query(1), 1)
}

func TestCreateNewOpportunity(t *testing.T) {
	s, recorder := newTestStore(t)
	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())

	o, ok := s.CreateNewOpportunity(actor, domain.Opportunity{
		ID:              s.NextOpportunityID(),
		Description:     "Crane sale",
		EstimateRevenue: 500000,
		TypeID:          domain.SaleTypeID,
		ProjectID:       1,
		Attributes:      map[string]any{"caseNumber": "C-17"},
	})
	require.True(t, ok)
	assert.Equal(t, 100003, o.ID)

	stored, ok := s.Opportunity(o.ID)
	require.True(t, ok)
	assert.Equal(t, "C-17", stored.Attributes["caseNumber"])

	p, _ := s.Project(1)
	require.Len(t, p.AssociatedOpportunities, 1)
	assert.Equal(t, "Sale", p.AssociatedOpportunities[0].Type)
	assert.Equal(t, 500000.0, p.AssociatedOpportunities[0].Revenue)

	entries := recorder.Query(1)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionOpportunityCreated, entries[0].Action)

	_, ok = s.CreateNewOpportunity(actor, domain.Opportunity{ID: 200000, ProjectID: 42})
	assert.False(t, ok)
	_, ok = s.Opportunity(200000)
	assert.False(t, ok)
}

// The summary cached on the project is a snapshot from association time.
// Updating the opportunity leaves it stale until the next reload.
func TestUpdateOpportunity_LeavesProjectSummaryStale(t *testing.T) {
	s, _ := newTestStore(t)
	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())
	_, ok := s.AddOpportunityToProject(actor, 1, 100001)
	require.True(t, ok)

	updated, ok := s.UpdateOpportunity(actor, 100001, domain.OpportunityPatch{
		EstimateRevenue: ptr(300000.0),
		StageID:         ptr(4),
	})
	require.True(t, ok)
	assert.Equal(t, 300000.0, updated.EstimateRevenue)

	p, _ := s.Project(1)
	require.Len(t, p.AssociatedOpportunities, 1)
	assert.Equal(t, 250000.0, p.AssociatedOpportunities[0].Revenue)
	assert.Equal(t, 2, p.AssociatedOpportunities[0].StageID)
}

func TestUpdateOpportunity_RecordsChangedFields(t *testing.T) {
	s, recorder := newTestStore(t)
	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())

	_, ok := s.UpdateOpportunity(actor, 100001, domain.OpportunityPatch{
		Description: ptr("Excavator sale"),
		StageID:     ptr(3),
		Attributes:  map[string]any{"workOrder": "WO-9"},
	})
	require.True(t, ok)

	entries := recorder.List(changelog.Filter{ProjectID: 1, Action: domain.ActionOpportunityUpdated})
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Summary, "stageId")
	assert.Contains(t, entries[0].Summary, "workOrder")
	assert.NotContains(t, entries[0].Summary, "description")

	_, ok = s.UpdateOpportunity(actor, 100001, domain.OpportunityPatch{StageID: ptr(3)})
	require.True(t, ok)
	assert.Len(t, recorder.List(changelog.Filter{Action: domain.ActionOpportunityUpdated}), 1)

	o, _ := s.UpdateOpportunity(actor, 100001, domain.OpportunityPatch{Attributes: map[string]any{"workOrder": nil}})
	assert.Nil(t, o.Attributes)
}

func TestRemoveOpportunityFromProject(t *testing.T) {
	s, recorder := newTestStore(t)
	s.Load([]domain.Project{{ID: 1, Name: "Riverside Park"}}, seedOpportunities())
	_, _ = s.AddOpportunityToProject(actor, 1, 100001)
	_, _ = s.AddOpportunityToProject(actor, 1, 100002)

	p, ok := s.RemoveOpportunityFromProject(actor, 1, 100001)
	require.True(t, ok)
	require.Len(t, p.AssociatedOpportunities, 1)
	assert.Equal(t, 100002, p.AssociatedOpportunities[0].ID)

	_, ok = s.Opportunity(100001)
	assert.True(t, ok)

	_, ok = s.RemoveOpportunityFromProject(actor, 1, 100001)
	assert.False(t, ok)

	entries := recorder.List(changelog.Filter{ProjectID: 1, Action: domain.ActionOpportunityDisassociated})
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntityRef{ID: 100001, Label: "Excavator sale"}, entries[0].Details)
}
