// Package preferences mirrors the filter set, the note-tag taxonomy and the
// status colour mapping to a durable key/value backend. Each preference is
// loaded and written independently. Persistence is best effort: a value
// that cannot be read or decoded falls back to its default, and write
// failures are logged, never returned.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// Durable keys
const (
	KeyFilters      = "jobsite.filters"
	KeyNoteTags     = "jobsite.noteTags"
	KeyStatusColors = "jobsite.statusColors"
)

// Manager holds the current preference values and writes every change
// through to the backend
type Manager struct {
	backend Backend
	logger  *zap.Logger

	mu           sync.RWMutex
	filters      domain.Filters
	noteTags     []domain.NoteTag
	statusColors domain.StatusColors
}

// NewManager creates a manager holding the defaults until Load runs
func NewManager(backend Backend, logger *zap.Logger) *Manager {
	return &Manager{
		backend:      backend,
		logger:       logger,
		filters:      domain.DefaultFilters(),
		noteTags:     domain.DefaultNoteTags(),
		statusColors: domain.DefaultStatusColors(),
	}
}

// Load restores each preference from the backend
func (m *Manager) Load(ctx context.Context) {
	filters, ok := restore[domain.Filters](ctx, m, KeyFilters)
	if !ok {
		filters = domain.DefaultFilters()
	}

	tags, ok := restore[[]domain.NoteTag](ctx, m, KeyNoteTags)
	if !ok || tags == nil {
		tags = domain.DefaultNoteTags()
	}

	colors, ok := restore[domain.StatusColors](ctx, m, KeyStatusColors)
	if !ok || colors == nil {
		colors = domain.DefaultStatusColors()
	}

	m.mu.Lock()
	m.filters = filters
	m.noteTags = tags
	m.statusColors = colors
	m.mu.Unlock()
}

// restore reads and decodes one preference. It reports false when the key is
// absent, unreadable or malformed.
func restore[T any](ctx context.Context, m *Manager, key string) (T, bool) {
	var value T

	raw, err := m.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("Failed to read preference, using default", zap.String("key", key), zap.Error(err))
		}
		return value, false
	}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		m.logger.Warn("Malformed preference, using default", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, false
	}
	return value, true
}

func (m *Manager) persist(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Error("Failed to encode preference", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.backend.Set(ctx, key, string(data)); err != nil {
		m.logger.Error("Failed to persist preference", zap.String("key", key), zap.Error(err))
	}
}

// Filters returns the active filter set
func (m *Manager) Filters() domain.Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters
}

// SetFilters replaces the active filter set
func (m *Manager) SetFilters(ctx context.Context, f domain.Filters) {
	m.mu.Lock()
	m.filters = f
	m.mu.Unlock()

	m.persist(ctx, KeyFilters, f)
}

// NoteTags returns the persisted note-tag taxonomy
func (m *Manager) NoteTags() []domain.NoteTag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.NoteTag{}, m.noteTags...)
}

// SetNoteTags replaces the note-tag taxonomy. It matches the store's
// note-tag observer signature.
func (m *Manager) SetNoteTags(tags []domain.NoteTag) {
	tags = append([]domain.NoteTag{}, tags...)

	m.mu.Lock()
	m.noteTags = tags
	m.mu.Unlock()

	m.persist(context.Background(), KeyNoteTags, tags)
}

// StatusColors returns a copy of the status colour mapping
func (m *Manager) StatusColors() domain.StatusColors {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(domain.StatusColors, len(m.statusColors))
	for k, v := range m.statusColors {
		out[k] = v
	}
	return out
}

// SetStatusColor assigns a colour to one status
func (m *Manager) SetStatusColor(ctx context.Context, statusID string, color domain.TagColor) domain.StatusColors {
	m.mu.Lock()
	m.statusColors[statusID] = color
	snapshot := make(domain.StatusColors, len(m.statusColors))
	for k, v := range m.statusColors {
		snapshot[k] = v
	}
	m.mu.Unlock()

	m.persist(ctx, KeyStatusColors, snapshot)
	return snapshot
}

// SetStatusColors replaces the whole status colour mapping
func (m *Manager) SetStatusColors(ctx context.Context, colors domain.StatusColors) {
	snapshot := make(domain.StatusColors, len(colors))
	for k, v := range colors {
		snapshot[k] = v
	}

	m.mu.Lock()
	m.statusColors = snapshot
	m.mu.Unlock()

	m.persist(ctx, KeyStatusColors, snapshot)
}
