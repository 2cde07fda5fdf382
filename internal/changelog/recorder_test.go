package changelog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// steppingClock returns a clock advancing one minute per call
func steppingClock(start time.Time) func() time.Time {
	current := start.Add(-time.Minute)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestRecorder_RecordAssignsSequenceAndCategory(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := changelog.NewRecorder(zap.NewNop(), steppingClock(start))

	first := r.Record(changelog.Entry{
		ProjectID: 1,
		Action:    domain.ActionProjectCreated,
		Summary:   "Created project Riverside Park",
		ActorID:   3,
	})
	second := r.Record(changelog.Entry{
		ProjectID: 2,
		Action:    domain.ActionNoteAdded,
		Summary:   "Added note",
		ActorID:   4,
	})

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, domain.CategoryProject, first.Category)
	assert.Equal(t, domain.CategoryNote, second.Category)
	assert.Equal(t, start, first.Timestamp)
	assert.Equal(t, start.Add(time.Minute), second.Timestamp)
	assert.Equal(t, domain.UserID(3), first.ChangedByID)
	assert.Equal(t, 2, r.Len())
}

func TestRecorder_QueryIsProjectScopedInInsertionOrder(t *testing.T) {
	r := changelog.NewRecorder(zap.NewNop(), nil)

	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionProjectCreated, Summary: "a"})
	r.Record(changelog.Entry{ProjectID: 2, Action: domain.ActionProjectCreated, Summary: "b"})
	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionActivityAdded, Summary: "c"})

	entries := r.Query(1)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Summary)
	assert.Equal(t, "c", entries[1].Summary)

	assert.Empty(t, r.Query(99))
	assert.NotNil(t, r.Query(99))
}

func TestRecorder_AppendOnly(t *testing.T) {
	r := changelog.NewRecorder(zap.NewNop(), nil)

	var snapshots [][]domain.ChangeLogEntry
	for i := 0; i < 5; i++ {
		r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionActivityAdded, Summary: "step"})
		snapshots = append(snapshots, r.Query(1))
	}

	final := r.Query(1)
	for _, prefix := range snapshots {
		require.LessOrEqual(t, len(prefix), len(final))
		for i, entry := range prefix {
			assert.Equal(t, entry, final[i])
		}
	}
}

func TestRecorder_ReturnedSlicesAreCopies(t *testing.T) {
	r := changelog.NewRecorder(zap.NewNop(), nil)
	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionProjectCreated, Summary: "original"})

	entries := r.All()
	entries[0].Summary = "tampered"

	assert.Equal(t, "original", r.Query(1)[0].Summary)
}

func TestRecorder_List(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := changelog.NewRecorder(zap.NewNop(), steppingClock(start))

	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionNoteAdded, ActorID: 2})
	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionNoteUpdated, ActorID: 3})
	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionActivityAdded, ActorID: 3})
	r.Record(changelog.Entry{ProjectID: 2, Action: domain.ActionNoteAdded, ActorID: 3})

	tests := []struct {
		name   string
		filter changelog.Filter
		want   []int64
	}{
		{name: "no filter", filter: changelog.Filter{}, want: []int64{1, 2, 3, 4}},
		{name: "by category", filter: changelog.Filter{ProjectID: 1, Category: domain.CategoryNote}, want: []int64{1, 2}},
		{name: "by action", filter: changelog.Filter{Action: domain.ActionNoteAdded}, want: []int64{1, 4}},
		{name: "by actor", filter: changelog.Filter{ChangedByID: 3, ProjectID: 1}, want: []int64{2, 3}},
		{name: "since", filter: changelog.Filter{Since: start.Add(2 * time.Minute)}, want: []int64{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []int64
			for _, e := range r.List(tt.filter) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRecorder_Subscribe(t *testing.T) {
	r := changelog.NewRecorder(zap.NewNop(), nil)

	var seen []domain.ChangeAction
	r.Subscribe(func(e domain.ChangeLogEntry) {
		seen = append(seen, e.Action)
	})

	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionCompanyAdded})
	r.Record(changelog.Entry{ProjectID: 1, Action: domain.ActionCompanyRemoved})

	assert.Equal(t, []domain.ChangeAction{domain.ActionCompanyAdded, domain.ActionCompanyRemoved}, seen)
}

func TestSortForDisplay_NewestFirstWithStableTies(t *testing.T) {
	same := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	entries := []domain.ChangeLogEntry{
		{ID: 1, Timestamp: same},
		{ID: 2, Timestamp: same.Add(time.Hour)},
		{ID: 3, Timestamp: same},
		{ID: 4, Timestamp: same},
	}

	sorted := changelog.SortForDisplay(entries)

	var ids []int64
	for _, e := range sorted {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{2, 1, 3, 4}, ids)
	assert.Equal(t, int64(1), entries[0].ID, "input must not be reordered")
}

func TestRecorder_Export(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r := changelog.NewRecorder(zap.NewNop(), steppingClock(start))

	r.Record(changelog.Entry{
		ProjectID: 1,
		Action:    domain.ActionProjectUpdated,
		Summary:   "Updated name",
		Details: domain.MultiFieldChange{Changes: map[string]domain.ValueChange{
			"name": {From: "Old", To: "New"},
		}},
	})
	r.Record(changelog.Entry{
		ProjectID: 1,
		Action:    domain.ActionActivityDeleted,
		Summary:   "Deleted activity",
		Details:   domain.EntityRef{ID: 4, Label: "Site Visit"},
	})

	data, err := r.Export(changelog.Filter{ProjectID: 1})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, float64(2), decoded[0]["id"])
	details := decoded[0]["details"].(map[string]any)
	assert.Equal(t, "entity", details["kind"])
	assert.Equal(t, "Site Visit", details["label"])

	details = decoded[1]["details"].(map[string]any)
	assert.Equal(t, "fields", details["kind"])
}
