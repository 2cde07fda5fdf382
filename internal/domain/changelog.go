package domain

import (
	"encoding/json"
	"time"
)

// ChangeCategory groups change-log actions by entity
type ChangeCategory string

const (
	CategoryProject     ChangeCategory = "Project"
	CategoryOpportunity ChangeCategory = "Opportunity"
	CategoryCompany     ChangeCategory = "Company"
	CategoryActivity    ChangeCategory = "Activity"
	CategoryNote        ChangeCategory = "Note"
	CategoryEquipment   ChangeCategory = "Equipment"
)

// ChangeAction is the closed vocabulary of change-log verbs
type ChangeAction string

const (
	ActionProjectCreated           ChangeAction = "PROJECT_CREATED"
	ActionProjectUpdated           ChangeAction = "PROJECT_UPDATED"
	ActionOpportunityCreated       ChangeAction = "OPPORTUNITY_CREATED"
	ActionOpportunityUpdated       ChangeAction = "OPPORTUNITY_UPDATED"
	ActionOpportunityAssociated    ChangeAction = "OPPORTUNITY_ASSOCIATED"
	ActionOpportunityDisassociated ChangeAction = "OPPORTUNITY_DISASSOCIATED"
	ActionCompanyAdded             ChangeAction = "COMPANY_ADDED"
	ActionCompanyRemoved           ChangeAction = "COMPANY_REMOVED"
	ActionCompanyUpdated           ChangeAction = "COMPANY_UPDATED"
	ActionContactAdded             ChangeAction = "CONTACT_ADDED"
	ActionContactUpdated           ChangeAction = "CONTACT_UPDATED"
	ActionContactRemoved           ChangeAction = "CONTACT_REMOVED"
	ActionActivityAdded            ChangeAction = "ACTIVITY_ADDED"
	ActionActivityUpdated          ChangeAction = "ACTIVITY_UPDATED"
	ActionActivityDeleted          ChangeAction = "ACTIVITY_DELETED"
	ActionNoteAdded                ChangeAction = "NOTE_ADDED"
	ActionNoteUpdated              ChangeAction = "NOTE_UPDATED"
	ActionNoteDeleted              ChangeAction = "NOTE_DELETED"
	ActionEquipmentAdded           ChangeAction = "EQUIPMENT_ADDED"
	ActionEquipmentUpdated         ChangeAction = "EQUIPMENT_UPDATED"
	ActionEquipmentDeleted         ChangeAction = "EQUIPMENT_DELETED"
)

var actionCategories = map[ChangeAction]ChangeCategory{
	ActionProjectCreated:           CategoryProject,
	ActionProjectUpdated:           CategoryProject,
	ActionOpportunityCreated:       CategoryOpportunity,
	ActionOpportunityUpdated:       CategoryOpportunity,
	ActionOpportunityAssociated:    CategoryOpportunity,
	ActionOpportunityDisassociated: CategoryOpportunity,
	ActionCompanyAdded:             CategoryCompany,
	ActionCompanyRemoved:           CategoryCompany,
	ActionCompanyUpdated:           CategoryCompany,
	ActionContactAdded:             CategoryCompany,
	ActionContactUpdated:           CategoryCompany,
	ActionContactRemoved:           CategoryCompany,
	ActionActivityAdded:            CategoryActivity,
	ActionActivityUpdated:          CategoryActivity,
	ActionActivityDeleted:          CategoryActivity,
	ActionNoteAdded:                CategoryNote,
	ActionNoteUpdated:              CategoryNote,
	ActionNoteDeleted:              CategoryNote,
	ActionEquipmentAdded:           CategoryEquipment,
	ActionEquipmentUpdated:         CategoryEquipment,
	ActionEquipmentDeleted:         CategoryEquipment,
}

// Category returns the category an action belongs to
func (a ChangeAction) Category() ChangeCategory {
	return actionCategories[a]
}

// IsValid checks if the ChangeAction is a valid enum value
func (a ChangeAction) IsValid() bool {
	_, ok := actionCategories[a]
	return ok
}

// ChangeDetails is the structured payload of a change-log entry.
// The concrete type is one of FieldChange, MultiFieldChange or EntityRef.
type ChangeDetails interface {
	DetailsKind() string
}

// ValueChange is a before/after pair
type ValueChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// FieldChange describes a change of a single field
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// DetailsKind implements ChangeDetails
func (FieldChange) DetailsKind() string { return "field" }

// MarshalJSON tags the payload with its kind
func (d FieldChange) MarshalJSON() ([]byte, error) {
	type alias FieldChange
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{d.DetailsKind(), alias(d)})
}

// MultiFieldChange describes changes to several fields at once
type MultiFieldChange struct {
	Changes map[string]ValueChange `json:"changes"`
}

// DetailsKind implements ChangeDetails
func (MultiFieldChange) DetailsKind() string { return "fields" }

// MarshalJSON tags the payload with its kind
func (d MultiFieldChange) MarshalJSON() ([]byte, error) {
	type alias MultiFieldChange
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{d.DetailsKind(), alias(d)})
}

// EntityRef names the entity an add/remove action touched
type EntityRef struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// DetailsKind implements ChangeDetails
func (EntityRef) DetailsKind() string { return "entity" }

// MarshalJSON tags the payload with its kind
func (d EntityRef) MarshalJSON() ([]byte, error) {
	type alias EntityRef
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{d.DetailsKind(), alias(d)})
}

// ChangeLogEntry is one append-only audit record
type ChangeLogEntry struct {
	ID          int64          `json:"id"`
	ProjectID   int            `json:"projectId"`
	Timestamp   time.Time      `json:"timestamp"`
	Action      ChangeAction   `json:"action"`
	Category    ChangeCategory `json:"category"`
	Summary     string         `json:"summary"`
	ChangedByID UserID         `json:"changedById"`
	Details     ChangeDetails  `json:"details,omitempty"`
}
