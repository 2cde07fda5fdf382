package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

const noteExcerptLength = 50

// Note modification summaries
const (
	noteContentUpdated     = "Content updated"
	noteTagsChanged        = "Tags changed"
	noteAttachmentsChanged = "Attachments changed"
	noteUpdated            = "Note updated"
)

func noteIndex(p *domain.Project, noteID int) int {
	if p == nil {
		return -1
	}
	for i, n := range p.Notes {
		if n.ID == noteID {
			return i
		}
	}
	return -1
}

// noteExcerpt shortens note content for log summaries
func noteExcerpt(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= noteExcerptLength {
		return string(runes)
	}
	return string(runes[:noteExcerptLength]) + "..."
}

func attachmentsEqual(a, b []domain.Attachment) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Attachment) bool {
		return x.ID == y.ID &&
			x.FileName == y.FileName &&
			x.FileURL == y.FileURL &&
			x.FileType == y.FileType &&
			x.FileSize == y.FileSize &&
			x.UploadedAt.Equal(y.UploadedAt)
	})
}

// AddNote appends a note with the next note id for the project, authored by
// actor at the current time. Id, author, timestamps and history in note are
// ignored.
func (s *Store) AddNote(actor domain.UserID, projectID int, note domain.Note) (domain.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("AddNote", zap.Int("project_id", projectID))
		return domain.Note{}, false
	}

	n := domain.Note{
		ID: s.nextID(sequence{kind: seqNote, scope: projectID},
			idsOf(p.Notes, func(n domain.Note) int { return n.ID })),
		Content:     note.Content,
		CreatedAt:   s.now(),
		CreatedByID: actor,
		TagIDs:      slices.Clone(note.TagIDs),
		Attachments: slices.Clone(note.Attachments),
	}
	if n.TagIDs == nil {
		n.TagIDs = []string{}
	}
	if n.Attachments == nil {
		n.Attachments = []domain.Attachment{}
	}
	p.Notes = append(p.Notes, n)

	s.record(actor, projectID, domain.ActionNoteAdded,
		fmt.Sprintf("Added note: %s", noteExcerpt(n.Content)),
		domain.EntityRef{ID: n.ID, Label: noteExcerpt(n.Content)})
	return n.Clone(), true
}

// UpdateNote applies patch and appends one entry to the note's modification
// history. The entry keeps the previous content and tags only when those
// changed. A NOTE_UPDATED entry is always recorded, even when nothing
// detectably changed.
func (s *Store) UpdateNote(actor domain.UserID, projectID, noteID int, patch domain.NotePatch) (domain.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := noteIndex(p, noteID)
	if idx < 0 {
		s.miss("UpdateNote", zap.Int("project_id", projectID), zap.Int("note_id", noteID))
		return domain.Note{}, false
	}

	before := p.Notes[idx]
	updated := before.Clone()
	now := s.now()
	mod := domain.NoteModification{ModifiedAt: now, ModifiedByID: actor}

	var summaries, fields []string
	changes := make(map[string]domain.ValueChange)

	if patch.Content != nil {
		if *patch.Content != before.Content {
			summaries = append(summaries, noteContentUpdated)
			fields = append(fields, "content")
			changes["content"] = domain.ValueChange{From: before.Content, To: *patch.Content}
			previous := before.Content
			mod.PreviousContent = &previous
		}
		updated.Content = *patch.Content
	}
	if patch.TagIDs != nil {
		if !slices.Equal(*patch.TagIDs, before.TagIDs) {
			summaries = append(summaries, noteTagsChanged)
			fields = append(fields, "tagIds")
			changes["tagIds"] = domain.ValueChange{From: slices.Clone(before.TagIDs), To: slices.Clone(*patch.TagIDs)}
			previous := slices.Clone(before.TagIDs)
			if previous == nil {
				previous = []string{}
			}
			mod.PreviousTagIDs = &previous
		}
		updated.TagIDs = slices.Clone(*patch.TagIDs)
	}
	if patch.Attachments != nil {
		if !attachmentsEqual(*patch.Attachments, before.Attachments) {
			summaries = append(summaries, noteAttachmentsChanged)
			fields = append(fields, "attachments")
			changes["attachments"] = domain.ValueChange{From: len(before.Attachments), To: len(*patch.Attachments)}
		}
		updated.Attachments = slices.Clone(*patch.Attachments)
	}

	mod.Summary = noteUpdated
	if len(summaries) > 0 {
		mod.Summary = strings.Join(summaries, ", ")
	}
	return s.commitNote(actor, p, idx, updated, mod, changeDetails(fields, changes)), true
}

// AddNoteAttachment appends att to the note's current attachment list.
// Concurrent uploads to one note each land; none replaces another's list.
func (s *Store) AddNoteAttachment(actor domain.UserID, projectID, noteID int, att domain.Attachment) (domain.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := noteIndex(p, noteID)
	if idx < 0 {
		s.miss("AddNoteAttachment", zap.Int("project_id", projectID), zap.Int("note_id", noteID))
		return domain.Note{}, false
	}

	updated := p.Notes[idx].Clone()
	before := len(updated.Attachments)
	updated.Attachments = append(updated.Attachments, att)

	mod := domain.NoteModification{ModifiedAt: s.now(), ModifiedByID: actor, Summary: noteAttachmentsChanged}
	details := domain.FieldChange{Field: "attachments", From: before, To: len(updated.Attachments)}
	return s.commitNote(actor, p, idx, updated, mod, details), true
}

// commitNote stores updated with mod appended to its history and records
// NOTE_UPDATED. Callers hold the write lock.
func (s *Store) commitNote(actor domain.UserID, p *domain.Project, idx int, updated domain.Note, mod domain.NoteModification, details domain.ChangeDetails) domain.Note {
	updated.ModificationHistory = append(updated.ModificationHistory, mod)
	at := mod.ModifiedAt
	updated.LastModifiedAt = &at
	by := actor
	updated.LastModifiedByID = &by
	p.Notes[idx] = updated

	s.record(actor, p.ID, domain.ActionNoteUpdated,
		fmt.Sprintf("Updated note: %s", mod.Summary),
		details)
	return updated.Clone()
}

// DeleteNote removes the note. Its excerpt is captured before removal.
func (s *Store) DeleteNote(actor domain.UserID, projectID, noteID int) (domain.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := noteIndex(p, noteID)
	if idx < 0 {
		s.miss("DeleteNote", zap.Int("project_id", projectID), zap.Int("note_id", noteID))
		return domain.Note{}, false
	}

	removed := p.Notes[idx]
	label := noteExcerpt(removed.Content)
	p.Notes = append(p.Notes[:idx:idx], p.Notes[idx+1:]...)

	s.record(actor, projectID, domain.ActionNoteDeleted,
		fmt.Sprintf("Deleted note: %s", label),
		domain.EntityRef{ID: removed.ID, Label: label})
	return removed, true
}
