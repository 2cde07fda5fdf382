// Package changelog is the append-only ledger of every store mutation. The
// sequence is global; entries are scoped to a project by ProjectID.
package changelog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// Entry is the input for recording a change
type Entry struct {
	ProjectID int
	Action    domain.ChangeAction
	Summary   string
	ActorID   domain.UserID
	Details   domain.ChangeDetails
}

// Filter narrows a ledger query. Zero values match everything.
type Filter struct {
	ProjectID   int
	Category    domain.ChangeCategory
	Action      domain.ChangeAction
	ChangedByID domain.UserID
	Since       time.Time
}

func (f Filter) matches(e domain.ChangeLogEntry) bool {
	if f.ProjectID != 0 && e.ProjectID != f.ProjectID {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ChangedByID != 0 && e.ChangedByID != f.ChangedByID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Subscriber is notified after an entry has been appended
type Subscriber func(entry domain.ChangeLogEntry)

// Recorder holds the ledger. Entries are never mutated or removed.
type Recorder struct {
	mu          sync.RWMutex
	entries     []domain.ChangeLogEntry
	lastID      int64
	now         func() time.Time
	subscribers []Subscriber
	logger      *zap.Logger
}

// NewRecorder creates an empty ledger. now stamps entry timestamps.
func NewRecorder(logger *zap.Logger, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		now:    now,
		logger: logger,
	}
}

// Subscribe registers a callback run after every recorded entry
func (r *Recorder) Subscribe(fn Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Record appends an entry with the next sequence id and the current time.
// The category is derived from the action.
func (r *Recorder) Record(entry Entry) domain.ChangeLogEntry {
	r.mu.Lock()
	r.lastID++
	logged := domain.ChangeLogEntry{
		ID:          r.lastID,
		ProjectID:   entry.ProjectID,
		Timestamp:   r.now(),
		Action:      entry.Action,
		Category:    entry.Action.Category(),
		Summary:     entry.Summary,
		ChangedByID: entry.ActorID,
		Details:     entry.Details,
	}
	r.entries = append(r.entries, logged)
	subscribers := r.subscribers
	r.mu.Unlock()

	r.logger.Debug("change recorded",
		zap.Int64("id", logged.ID),
		zap.Int("project_id", logged.ProjectID),
		zap.String("action", string(logged.Action)),
		zap.Int("changed_by", int(logged.ChangedByID)))

	for _, fn := range subscribers {
		fn(logged)
	}
	return logged
}

// Query returns the entries for a project in insertion order
func (r *Recorder) Query(projectID int) []domain.ChangeLogEntry {
	return r.List(Filter{ProjectID: projectID})
}

// List returns every entry matching the filter in insertion order
func (r *Recorder) List(filter Filter) []domain.ChangeLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ChangeLogEntry, 0)
	for _, e := range r.entries {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// All returns a copy of the full ledger in insertion order
func (r *Recorder) All() []domain.ChangeLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ChangeLogEntry, len(r.entries))
	copy(result, r.entries)
	return result
}

// Len returns the number of recorded entries
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Export encodes the ledger matching filter as JSON, newest first
func (r *Recorder) Export(filter Filter) ([]byte, error) {
	entries := SortForDisplay(r.List(filter))
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change log: %w", err)
	}
	return data, nil
}

// SortForDisplay orders entries by timestamp descending. Entries with equal
// timestamps keep their relative insertion order.
func SortForDisplay(entries []domain.ChangeLogEntry) []domain.ChangeLogEntry {
	sorted := make([]domain.ChangeLogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}
