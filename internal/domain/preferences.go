package domain

import (
	"strings"
	"time"
	"unicode"
)

// TagColor is a key into the fixed tag/status palette
type TagColor string

const (
	ColorGray   TagColor = "gray"
	ColorRed    TagColor = "red"
	ColorOrange TagColor = "orange"
	ColorYellow TagColor = "yellow"
	ColorGreen  TagColor = "green"
	ColorBlue   TagColor = "blue"
	ColorPurple TagColor = "purple"
	ColorPink   TagColor = "pink"
)

// Palette lists every allowed colour key
var Palette = []TagColor{
	ColorGray, ColorRed, ColorOrange, ColorYellow,
	ColorGreen, ColorBlue, ColorPurple, ColorPink,
}

// IsValid checks if the TagColor is in the palette
func (c TagColor) IsValid() bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// NoteTag is an entry of the note-tag taxonomy
type NoteTag struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	DisplayOrder int      `json:"displayOrder"`
	Color        TagColor `json:"color"`
}

// NoteTagID derives a tag id from its label: upper-cased, with every run of
// whitespace or punctuation collapsed to a single underscore.
func NoteTagID(label string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// DefaultNoteTags is the taxonomy used when nothing was persisted
func DefaultNoteTags() []NoteTag {
	return []NoteTag{
		{ID: "SAFETY", Label: "Safety", DisplayOrder: 1, Color: ColorRed},
		{ID: "FOLLOW_UP", Label: "Follow Up", DisplayOrder: 2, Color: ColorOrange},
		{ID: "PRICING", Label: "Pricing", DisplayOrder: 3, Color: ColorGreen},
		{ID: "COMPETITOR", Label: "Competitor", DisplayOrder: 4, Color: ColorPurple},
		{ID: "GENERAL", Label: "General", DisplayOrder: 5, Color: ColorGray},
	}
}

// StatusColors maps a project status id to a palette key
type StatusColors map[string]TagColor

// DefaultStatusColors is the mapping used when nothing was persisted
func DefaultStatusColors() StatusColors {
	return StatusColors{
		"Planning":      ColorBlue,
		"Active":        ColorGreen,
		"On Hold":       ColorYellow,
		StatusCompleted: ColorGray,
	}
}

// Filters is the active project filter set. Zero values mean "not filtering",
// except ShowCompleted: completed projects are hidden unless it is set.
type Filters struct {
	ShowCompleted     bool   `json:"showCompleted"`
	SalesRepID        UserID `json:"salesRepId,omitempty"`
	StatusID          string `json:"statusId,omitempty"`
	DivisionID        string `json:"divisionId,omitempty"`
	GeneralContractor string `json:"generalContractor,omitempty"`
	ShowBehindPAR     bool   `json:"showBehindPAR"`
}

// DefaultFilters is the filter set used when nothing was persisted
func DefaultFilters() Filters {
	return Filters{}
}

// PreferenceRecord is one persisted preference value, stored as encoded text
// under a case-sensitive key
type PreferenceRecord struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the gorm table name
func (PreferenceRecord) TableName() string {
	return "preferences"
}
