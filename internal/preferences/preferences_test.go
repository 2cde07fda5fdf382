package preferences_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestManager_DefaultsWhenNothingPersisted(t *testing.T) {
	m := preferences.NewManager(preferences.NewMemoryBackend(), zap.NewNop())
	m.Load(context.Background())

	assert.Equal(t, domain.DefaultFilters(), m.Filters())
	assert.Equal(t, domain.DefaultNoteTags(), m.NoteTags())
	assert.Equal(t, domain.DefaultStatusColors(), m.StatusColors())
}

func TestManager_RoundTripsThroughBackend(t *testing.T) {
	ctx := context.Background()
	backend := preferences.NewMemoryBackend()

	first := preferences.NewManager(backend, zap.NewNop())
	first.SetFilters(ctx, domain.Filters{SalesRepID: 4, ShowBehindPAR: true})
	first.SetNoteTags([]domain.NoteTag{{ID: "PERMITS", Label: "Permits", DisplayOrder: 1, Color: domain.ColorBlue}})
	first.SetStatusColor(ctx, "Bidding", domain.ColorPink)

	second := preferences.NewManager(backend, zap.NewNop())
	second.Load(ctx)

	assert.Equal(t, domain.Filters{SalesRepID: 4, ShowBehindPAR: true}, second.Filters())
	assert.Equal(t, []domain.NoteTag{{ID: "PERMITS", Label: "Permits", DisplayOrder: 1, Color: domain.ColorBlue}}, second.NoteTags())
	assert.Equal(t, domain.ColorPink, second.StatusColors()["Bidding"])
	assert.Equal(t, domain.ColorGreen, second.StatusColors()["Active"])
}

func TestManager_MalformedValueFallsBackIndependently(t *testing.T) {
	ctx := context.Background()
	backend := preferences.NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, preferences.KeyFilters, `{"salesRepId": 2}`))
	require.NoError(t, backend.Set(ctx, preferences.KeyNoteTags, `[{"id": "SAFETY"`))
	require.NoError(t, backend.Set(ctx, preferences.KeyStatusColors, `"not a map"`))

	core, logs := observer.New(zap.WarnLevel)
	m := preferences.NewManager(backend, zap.New(core))
	m.Load(ctx)

	assert.Equal(t, domain.UserID(2), m.Filters().SalesRepID)
	assert.Equal(t, domain.DefaultNoteTags(), m.NoteTags())
	assert.Equal(t, domain.DefaultStatusColors(), m.StatusColors())
	assert.Equal(t, 2, logs.FilterMessage("Malformed preference, using default").Len())
}

type failingBackend struct{}

func (failingBackend) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("disk unavailable")
}

func (failingBackend) Set(ctx context.Context, key, value string) error {
	return errors.New("disk unavailable")
}

func TestManager_BackendFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	m := preferences.NewManager(failingBackend{}, zap.New(core))

	m.Load(ctx)
	m.SetFilters(ctx, domain.Filters{StatusID: "Active"})

	assert.Equal(t, "Active", m.Filters().StatusID, "in-memory value kept when the write fails")
	assert.Equal(t, 3, logs.FilterMessage("Failed to read preference, using default").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to persist preference").Len())
}

func TestManager_ReturnsCopies(t *testing.T) {
	m := preferences.NewManager(preferences.NewMemoryBackend(), zap.NewNop())

	colors := m.StatusColors()
	colors["Active"] = domain.ColorRed
	tags := m.NoteTags()
	tags[0].Label = "changed"

	assert.Equal(t, domain.ColorGreen, m.StatusColors()["Active"])
	assert.Equal(t, "Safety", m.NoteTags()[0].Label)
}

func TestGormBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.PreferencesConfig{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "prefs.db"),
	}

	backend, err := preferences.NewBackend(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = backend.Get(ctx, "jobsite.filters")
	assert.ErrorIs(t, err, preferences.ErrNotFound)

	require.NoError(t, backend.Set(ctx, "jobsite.filters", `{"a":1}`))
	require.NoError(t, backend.Set(ctx, "jobsite.filters", `{"a":2}`))

	got, err := backend.Get(ctx, "jobsite.filters")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, got)

	_, err = backend.Get(ctx, "Jobsite.Filters")
	assert.ErrorIs(t, err, preferences.ErrNotFound, "keys are case-sensitive")

	assert.NoError(t, preferences.HealthCheck(backend))
}

func TestNewBackend(t *testing.T) {
	logger := zap.NewNop()

	b, err := preferences.NewBackend(&config.PreferencesConfig{Backend: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &preferences.MemoryBackend{}, b)
	assert.NoError(t, preferences.HealthCheck(b))

	_, err = preferences.NewBackend(&config.PreferencesConfig{Backend: "redis"}, logger)
	assert.ErrorIs(t, err, preferences.ErrUnknownBackend)
}
