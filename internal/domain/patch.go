package domain

import "time"

// Patch types carry partial updates. A nil field was not supplied and keeps
// its current value. Slices, Address and contact objects are replaced
// wholesale, never merged element by element.

// ProjectPatch is a partial update of a project's descriptive fields
type ProjectPatch struct {
	Name                  *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description           *string         `json:"description,omitempty"`
	StatusID              *string         `json:"statusId,omitempty" validate:"omitempty,min=1,max=50"`
	SalesRepIDs           *[]UserID       `json:"salesRepIds,omitempty" validate:"omitempty,min=1"`
	PlannedAnnualRate     *float64        `json:"plannedAnnualRate,omitempty" validate:"omitempty,gte=0"`
	ParStartDate          *string         `json:"parStartDate,omitempty"`
	Address               *Address        `json:"address,omitempty"`
	ProjectPrimaryContact *PrimaryContact `json:"projectPrimaryContact,omitempty"`
}

// OpportunityPatch is a partial update of an opportunity.
// Attributes merge per key; a key mapped to nil is removed.
type OpportunityPatch struct {
	Description           *string         `json:"description,omitempty"`
	EstimateRevenue       *float64        `json:"estimateRevenue,omitempty" validate:"omitempty,gte=0"`
	StageID               *int            `json:"stageId,omitempty"`
	TypeID                *int            `json:"typeId,omitempty"`
	DivisionID            *string         `json:"divisionId,omitempty"`
	EstimateDeliveryMonth *int            `json:"estimateDeliveryMonth,omitempty" validate:"omitempty,min=1,max=12"`
	EstimateDeliveryYear  *int            `json:"estimateDeliveryYear,omitempty"`
	ProductGroups         *[]ProductGroup `json:"productGroups,omitempty"`
	Attributes            map[string]any  `json:"attributes,omitempty"`
}

// ActivityPatch is a partial update of an activity
type ActivityPatch struct {
	AssigneeID   *UserID       `json:"assigneeId,omitempty"`
	ActivityType *ActivityType `json:"activityType,omitempty" validate:"omitempty,activitytype"`
	Date         *time.Time    `json:"date,omitempty"`
	Description  *string       `json:"description,omitempty" validate:"omitempty,min=1"`
}

// NotePatch is a partial update of a note
type NotePatch struct {
	Content     *string       `json:"content,omitempty" validate:"omitempty,min=1"`
	TagIDs      *[]string     `json:"tagIds,omitempty"`
	Attachments *[]Attachment `json:"attachments,omitempty"`
}

// EquipmentPatch is a partial update of a customer equipment row
type EquipmentPatch struct {
	CompanyID     *string  `json:"companyId,omitempty"`
	EquipmentType *string  `json:"equipmentType,omitempty"`
	Make          *string  `json:"make,omitempty"`
	Model         *string  `json:"model,omitempty"`
	Year          *int     `json:"year,omitempty"`
	SerialNumber  *string  `json:"serialNumber,omitempty"`
	Hours         *float64 `json:"hours,omitempty"`
}

// NoteTagPatch is a partial update of a note tag. The id never changes.
type NoteTagPatch struct {
	Label *string   `json:"label,omitempty" validate:"omitempty,min=1,max=50"`
	Color *TagColor `json:"color,omitempty" validate:"omitempty,tagcolor"`
}
