package migration_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newNormalizer() *migration.Normalizer {
	return migration.NewNormalizer(zap.NewNop(), func() time.Time { return fixedNow })
}

func TestNormalizeNotes_LegacyStrings(t *testing.T) {
	n := newNormalizer()

	notes := n.NormalizeNotes(json.RawMessage(`["Called GC", "Left voicemail"]`))

	require.Len(t, notes, 2)
	assert.Equal(t, 1, notes[0].ID)
	assert.Equal(t, "Called GC", notes[0].Content)
	assert.Equal(t, fixedNow, notes[0].CreatedAt)
	assert.Equal(t, domain.LegacyAuthorID, notes[0].CreatedByID)
	assert.Empty(t, notes[0].TagIDs)
	assert.Empty(t, notes[0].Attachments)
	assert.Equal(t, 2, notes[1].ID)
	assert.Equal(t, "Left voicemail", notes[1].Content)
}

func TestNormalizeNotes_NonStringEntriesAreCoerced(t *testing.T) {
	n := newNormalizer()

	notes := n.NormalizeNotes(json.RawMessage(`[42, true, null, {"text":"x"}]`))

	require.Len(t, notes, 4)
	assert.Equal(t, "42", notes[0].Content)
	assert.Equal(t, "true", notes[1].Content)
	assert.Equal(t, "", notes[2].Content)
	assert.Equal(t, `{"text":"x"}`, notes[3].Content)
	assert.Equal(t, 4, notes[3].ID)
}

func TestNormalizeNotes_CanonicalPassThrough(t *testing.T) {
	n := newNormalizer()

	raw := `[{"id":7,"content":"Bid due Friday","createdAt":"2024-01-02T10:00:00Z","createdById":3,"tagIds":["PRICING"],"attachments":[]}]`
	notes := n.NormalizeNotes(json.RawMessage(raw))

	require.Len(t, notes, 1)
	assert.Equal(t, 7, notes[0].ID)
	assert.Equal(t, domain.UserID(3), notes[0].CreatedByID)
	assert.Equal(t, []string{"PRICING"}, notes[0].TagIDs)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), notes[0].CreatedAt)
}

func TestNormalizeNotes_MixedEntriesUsePositionalIDs(t *testing.T) {
	n := newNormalizer()

	raw := `[{"id":1,"content":"canonical","createdAt":"2024-01-02T10:00:00Z","createdById":2,"tagIds":[],"attachments":[]}, "legacy"]`
	notes := n.NormalizeNotes(json.RawMessage(raw))

	require.Len(t, notes, 2)
	assert.Equal(t, 1, notes[0].ID)
	assert.Equal(t, 2, notes[1].ID)
	assert.Equal(t, "legacy", notes[1].Content)
}

func TestNormalizeNotes_NonArrayInput(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ``},
		{name: "null", raw: `null`},
		{name: "string", raw: `"just a note"`},
		{name: "object", raw: `{"content":"x"}`},
		{name: "malformed", raw: `[1,`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := n.NormalizeNotes(json.RawMessage(tt.raw))
			assert.NotNil(t, notes)
			assert.Empty(t, notes)
		})
	}
}

func TestNormalizeNotes_Idempotent(t *testing.T) {
	n := newNormalizer()

	first := n.NormalizeNotes(json.RawMessage(`["one", "two", 3]`))
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	second := n.NormalizeNotes(firstJSON)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.JSONEq(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestNormalizeCompanies_LegacyNestedContact(t *testing.T) {
	n := newNormalizer()

	raw := `[{"companyName":"Acme Corp","roleId":"GC","isPrimaryContact":true,"companyContact":{"name":"Jane Doe","title":"PM","phone":"555-0100","email":"jane@acme.test"}}]`
	companies := n.NormalizeCompanies(json.RawMessage(raw))

	require.Len(t, companies, 1)
	c := companies[0]
	assert.Equal(t, "Acme Corp", c.CompanyName)
	assert.Equal(t, "GC", c.RoleID)
	assert.True(t, c.IsPrimaryContact)
	assert.Equal(t, 0, c.PrimaryContactIndex)
	require.Len(t, c.CompanyContacts, 1)
	assert.Equal(t, domain.CompanyContact{
		ID:    1,
		Name:  "Jane Doe",
		Title: "PM",
		Phone: "555-0100",
		Email: "jane@acme.test",
	}, c.CompanyContacts[0])
}

func TestNormalizeCompanies_LegacyFlatContact(t *testing.T) {
	n := newNormalizer()

	raw := `[{"companyName":"Steel Works","contactName":"Bob","contactEmail":"bob@steel.test"}]`
	companies := n.NormalizeCompanies(json.RawMessage(raw))

	require.Len(t, companies, 1)
	require.Len(t, companies[0].CompanyContacts, 1)
	assert.Equal(t, "Bob", companies[0].CompanyContacts[0].Name)
	assert.Equal(t, "bob@steel.test", companies[0].CompanyContacts[0].Email)
	assert.Equal(t, 1, companies[0].CompanyContacts[0].ID)
}

func TestNormalizeCompanies_MalformedLegacyDegrades(t *testing.T) {
	n := newNormalizer()

	raw := `[{"companyName":"No Contact Inc"}, {"companyName":"Odd","companyContacts":"not-a-list"}, "garbage"]`
	companies := n.NormalizeCompanies(json.RawMessage(raw))

	require.Len(t, companies, 3)
	assert.Equal(t, "No Contact Inc", companies[0].CompanyName)
	assert.Empty(t, companies[0].CompanyContacts)
	assert.Equal(t, "Odd", companies[1].CompanyName)
	assert.Empty(t, companies[1].CompanyContacts)
	assert.Empty(t, companies[2].CompanyName)
	assert.NotNil(t, companies[2].CompanyContacts)
}

func TestNormalizeCompanies_CanonicalPassThrough(t *testing.T) {
	n := newNormalizer()

	raw := `[{"associationId":2,"companyName":"Acme Corp","isPrimaryContact":false,"companyContacts":[{"id":1,"name":"A","email":""},{"id":4,"name":"B","email":""}],"primaryContactIndex":1}]`
	companies := n.NormalizeCompanies(json.RawMessage(raw))

	require.Len(t, companies, 1)
	assert.Equal(t, 2, companies[0].AssociationID)
	assert.Equal(t, 1, companies[0].PrimaryContactIndex)
	require.Len(t, companies[0].CompanyContacts, 2)
	assert.Equal(t, 4, companies[0].CompanyContacts[1].ID)
}

func TestNormalizeCompanies_Idempotent(t *testing.T) {
	n := newNormalizer()

	first := n.NormalizeCompanies(json.RawMessage(`[{"companyName":"Acme Corp","contactName":"Jane"},{"companyName":"Empty"}]`))
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	second := n.NormalizeCompanies(firstJSON)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestNormalizeProject(t *testing.T) {
	n := newNormalizer()

	var raw migration.RawProject
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 12,
		"name": "Riverside Park",
		"statusId": "Active",
		"salesRepIds": [3],
		"plannedAnnualRate": 4,
		"notes": ["kickoff scheduled"],
		"projectCompanies": [{"companyName":"Acme Corp","contactName":"Jane"}]
	}`), &raw))

	project := n.NormalizeProject(raw)

	assert.Equal(t, 12, project.ID)
	assert.Equal(t, "Riverside Park", project.Name)
	assert.Equal(t, []domain.UserID{3}, project.SalesRepIDs)
	require.Len(t, project.Notes, 1)
	assert.Equal(t, "kickoff scheduled", project.Notes[0].Content)
	require.Len(t, project.ProjectCompanies, 1)
	assert.Equal(t, "Jane", project.ProjectCompanies[0].CompanyContacts[0].Name)
}
