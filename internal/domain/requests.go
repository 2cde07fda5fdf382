package domain

import "time"

// Request bodies accepted by the HTTP adapter. Validation tags express the
// presentation-layer policy; the store itself accepts whatever it is given.

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	Name                  string         `json:"name" validate:"required,max=200"`
	Description           string         `json:"description" validate:"max=2000"`
	StatusID              string         `json:"statusId" validate:"required,max=50"`
	SalesRepIDs           []UserID       `json:"salesRepIds" validate:"required,min=1"`
	PlannedAnnualRate     float64        `json:"plannedAnnualRate" validate:"gte=0"`
	ParStartDate          string         `json:"parStartDate,omitempty"`
	Address               Address        `json:"address"`
	ProjectPrimaryContact PrimaryContact `json:"projectPrimaryContact"`
}

// ToProject converts the request into a project for the store
func (r CreateProjectRequest) ToProject() Project {
	return Project{
		Name:                  r.Name,
		Description:           r.Description,
		StatusID:              r.StatusID,
		SalesRepIDs:           r.SalesRepIDs,
		PlannedAnnualRate:     r.PlannedAnnualRate,
		ParStartDate:          r.ParStartDate,
		Address:               r.Address,
		ProjectPrimaryContact: r.ProjectPrimaryContact,
	}
}

// CreateOpportunityRequest represents the request body for creating an
// opportunity. A zero ID asks the server to assign the next one.
type CreateOpportunityRequest struct {
	ID                    int            `json:"id" validate:"gte=0"`
	Description           string         `json:"description" validate:"required,max=500"`
	EstimateRevenue       float64        `json:"estimateRevenue" validate:"gte=0"`
	StageID               int            `json:"stageId" validate:"required"`
	TypeID                int            `json:"typeId" validate:"required"`
	DivisionID            string         `json:"divisionId" validate:"required,max=10"`
	ProjectID             int            `json:"projectId" validate:"required"`
	EstimateDeliveryMonth *int           `json:"estimateDeliveryMonth,omitempty" validate:"omitempty,min=1,max=12"`
	EstimateDeliveryYear  *int           `json:"estimateDeliveryYear,omitempty" validate:"omitempty,gte=1900"`
	ProductGroups         []ProductGroup `json:"productGroups,omitempty"`
	Attributes            map[string]any `json:"attributes,omitempty"`
}

// ToOpportunity converts the request into an opportunity with the given id
func (r CreateOpportunityRequest) ToOpportunity(id int) Opportunity {
	return Opportunity{
		ID:                    id,
		Description:           r.Description,
		EstimateRevenue:       r.EstimateRevenue,
		StageID:               r.StageID,
		TypeID:                r.TypeID,
		DivisionID:            r.DivisionID,
		ProjectID:             r.ProjectID,
		EstimateDeliveryMonth: r.EstimateDeliveryMonth,
		EstimateDeliveryYear:  r.EstimateDeliveryYear,
		ProductGroups:         r.ProductGroups,
		Attributes:            r.Attributes,
	}
}

// ContactRequest represents a company contact in a request body
type ContactRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Title string `json:"title" validate:"max=200"`
	Phone string `json:"phone" validate:"max=50"`
	Email string `json:"email" validate:"required,email"`
}

// ToContact converts the request into a contact
func (r ContactRequest) ToContact() CompanyContact {
	return CompanyContact{Name: r.Name, Title: r.Title, Phone: r.Phone, Email: r.Email}
}

// CompanyRequest represents the request body for adding or replacing a
// project company
type CompanyRequest struct {
	CompanyName         string           `json:"companyName" validate:"required,max=200"`
	CompanyID           string           `json:"companyId" validate:"max=50"`
	RoleID              string           `json:"roleId" validate:"max=50"`
	RoleDescription     string           `json:"roleDescription" validate:"max=200"`
	IsPrimaryContact    bool             `json:"isPrimaryContact"`
	CompanyContacts     []ContactRequest `json:"companyContacts" validate:"dive"`
	PrimaryContactIndex int              `json:"primaryContactIndex" validate:"gte=0"`
}

// ToCompany converts the request into a project company. Contact ids are
// assigned by position.
func (r CompanyRequest) ToCompany() ProjectCompany {
	contacts := make([]CompanyContact, 0, len(r.CompanyContacts))
	for i, c := range r.CompanyContacts {
		contact := c.ToContact()
		contact.ID = i + 1
		contacts = append(contacts, contact)
	}
	return ProjectCompany{
		CompanyName:         r.CompanyName,
		CompanyID:           r.CompanyID,
		RoleID:              r.RoleID,
		RoleDescription:     r.RoleDescription,
		IsPrimaryContact:    r.IsPrimaryContact,
		CompanyContacts:     contacts,
		PrimaryContactIndex: r.PrimaryContactIndex,
	}
}

// AssociateCompanyRequest copies a company row from another project
type AssociateCompanyRequest struct {
	SourceProjectID int `json:"sourceProjectId" validate:"required"`
	AssociationID   int `json:"associationId" validate:"required"`
}

// PrimaryContactRequest designates a company's default contact
type PrimaryContactRequest struct {
	ContactID int `json:"contactId" validate:"required"`
}

// ActivityRequest represents the request body for adding an activity
type ActivityRequest struct {
	AssigneeID   UserID       `json:"assigneeId" validate:"required"`
	ActivityType ActivityType `json:"activityType" validate:"required,activitytype"`
	Date         time.Time    `json:"date" validate:"required"`
	Description  string       `json:"description" validate:"required,max=2000"`
}

// ToActivity converts the request into an activity
func (r ActivityRequest) ToActivity() Activity {
	return Activity{
		AssigneeID:   r.AssigneeID,
		ActivityType: r.ActivityType,
		Date:         r.Date,
		Description:  r.Description,
	}
}

// NoteRequest represents the request body for adding a note
type NoteRequest struct {
	Content     string       `json:"content" validate:"required,max=10000"`
	TagIDs      []string     `json:"tagIds"`
	Attachments []Attachment `json:"attachments"`
}

// ToNote converts the request into a note
func (r NoteRequest) ToNote() Note {
	return Note{Content: r.Content, TagIDs: r.TagIDs, Attachments: r.Attachments}
}

// EquipmentRequest represents the request body for adding customer equipment
type EquipmentRequest struct {
	CompanyID     string   `json:"companyId" validate:"max=50"`
	EquipmentType string   `json:"equipmentType" validate:"required,max=100"`
	Make          string   `json:"make" validate:"required,max=100"`
	Model         string   `json:"model" validate:"required,max=100"`
	Year          *int     `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	SerialNumber  string   `json:"serialNumber" validate:"max=100"`
	Hours         *float64 `json:"hours,omitempty" validate:"omitempty,gte=0"`
}

// ToEquipment converts the request into a customer equipment row
func (r EquipmentRequest) ToEquipment() CustomerEquipment {
	return CustomerEquipment{
		CompanyID:     r.CompanyID,
		EquipmentType: r.EquipmentType,
		Make:          r.Make,
		Model:         r.Model,
		Year:          r.Year,
		SerialNumber:  r.SerialNumber,
		Hours:         r.Hours,
	}
}

// NoteTagRequest represents the request body for adding a note tag
type NoteTagRequest struct {
	Label string   `json:"label" validate:"required,max=50"`
	Color TagColor `json:"color" validate:"required,tagcolor"`
}

// ReorderNoteTagsRequest lists tag ids in their new display order
type ReorderNoteTagsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// StatusColorRequest assigns a palette colour to a status
type StatusColorRequest struct {
	Color TagColor `json:"color" validate:"required,tagcolor"`
}
