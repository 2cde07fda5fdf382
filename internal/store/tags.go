package store

import (
	"slices"
	"sort"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// Tag taxonomy changes are global and are not written to the change log.
// Observers registered with OnNoteTagsChanged receive the full taxonomy after
// every change, outside the store lock.

// OnNoteTagsChanged registers a callback for taxonomy changes
func (s *Store) OnNoteTagsChanged(fn func([]domain.NoteTag)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagObservers = append(s.tagObservers, fn)
}

// SetNoteTags replaces the taxonomy without notifying observers. Used when
// loading persisted tags at startup.
func (s *Store) SetNoteTags(tags []domain.NoteTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteTags = sortedTags(tags)
}

// NoteTags returns the taxonomy in display order
func (s *Store) NoteTags() []domain.NoteTag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedTags(s.noteTags)
}

func sortedTags(tags []domain.NoteTag) []domain.NoteTag {
	out := slices.Clone(tags)
	if out == nil {
		out = []domain.NoteTag{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

func tagIndex(tags []domain.NoteTag, id string) int {
	for i, t := range tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// notifyTags hands the current taxonomy to observers. Callers must have
// released the lock.
func (s *Store) notifyTags() {
	s.mu.RLock()
	tags := sortedTags(s.noteTags)
	observers := slices.Clone(s.tagObservers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(slices.Clone(tags))
	}
}

// AddNoteTag adds a tag whose id is derived from the label. Labels that
// produce an empty or already used id are rejected.
func (s *Store) AddNoteTag(label string, color domain.TagColor) (domain.NoteTag, bool) {
	s.mu.Lock()
	id := domain.NoteTagID(label)
	if id == "" || tagIndex(s.noteTags, id) >= 0 {
		s.mu.Unlock()
		s.logger.Debug("note tag rejected", zap.String("label", label), zap.String("id", id))
		return domain.NoteTag{}, false
	}

	order := 0
	for _, t := range s.noteTags {
		if t.DisplayOrder >= order {
			order = t.DisplayOrder + 1
		}
	}
	tag := domain.NoteTag{ID: id, Label: label, DisplayOrder: order, Color: color}
	s.noteTags = append(s.noteTags, tag)
	s.mu.Unlock()

	s.notifyTags()
	return tag, true
}

// UpdateNoteTag changes a tag's label or color. The id never changes.
func (s *Store) UpdateNoteTag(id string, patch domain.NoteTagPatch) (domain.NoteTag, bool) {
	s.mu.Lock()
	idx := tagIndex(s.noteTags, id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.NoteTag{}, false
	}
	if patch.Label != nil {
		s.noteTags[idx].Label = *patch.Label
	}
	if patch.Color != nil {
		s.noteTags[idx].Color = *patch.Color
	}
	tag := s.noteTags[idx]
	s.mu.Unlock()

	s.notifyTags()
	return tag, true
}

// RemoveNoteTag deletes the tag and strips it from every note
func (s *Store) RemoveNoteTag(id string) bool {
	s.mu.Lock()
	idx := tagIndex(s.noteTags, id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.noteTags = append(s.noteTags[:idx:idx], s.noteTags[idx+1:]...)

	stripped := 0
	for pi := range s.projects {
		for ni := range s.projects[pi].Notes {
			note := &s.projects[pi].Notes[ni]
			if !note.HasTag(id) {
				continue
			}
			note.TagIDs = slices.DeleteFunc(slices.Clone(note.TagIDs), func(t string) bool { return t == id })
			stripped++
		}
	}
	s.mu.Unlock()

	s.logger.Info("note tag removed", zap.String("tag_id", id), zap.Int("notes_updated", stripped))
	s.notifyTags()
	return true
}

// ReorderNoteTags assigns display order following ids. Unknown ids are
// ignored; tags not named keep their relative order after the named ones.
func (s *Store) ReorderNoteTags(ids []string) []domain.NoteTag {
	s.mu.Lock()
	current := sortedTags(s.noteTags)
	reordered := make([]domain.NoteTag, 0, len(current))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		idx := tagIndex(current, id)
		if idx < 0 || seen[id] {
			continue
		}
		seen[id] = true
		reordered = append(reordered, current[idx])
	}
	for _, t := range current {
		if !seen[t.ID] {
			reordered = append(reordered, t)
		}
	}
	for i := range reordered {
		reordered[i].DisplayOrder = i + 1
	}
	s.noteTags = reordered
	s.mu.Unlock()

	s.notifyTags()
	return slices.Clone(reordered)
}
