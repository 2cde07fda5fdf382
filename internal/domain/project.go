package domain

import (
	"slices"
	"time"
)

// UserID identifies a sales rep. The acting user is always one of these.
type UserID int

// LegacyAuthorID is attributed to notes migrated from bare strings
const LegacyAuthorID UserID = 1

// StatusCompleted is the status key hidden by the default project filters
const StatusCompleted = "Completed"

// MaxAttachmentSize is the per-file upload cap (5 MB)
const MaxAttachmentSize int64 = 5 * 1024 * 1024

// Address is either a postal address or a lat/long pair. Both shapes share
// one struct; IsCoordinates tells them apart.
type Address struct {
	Street    string   `json:"street,omitempty" yaml:"street,omitempty"`
	City      string   `json:"city,omitempty" yaml:"city,omitempty"`
	State     string   `json:"state,omitempty" yaml:"state,omitempty"`
	Zip       string   `json:"zip,omitempty" yaml:"zip,omitempty"`
	Country   string   `json:"country,omitempty" yaml:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// IsCoordinates reports whether the address is a lat/long pair
func (a Address) IsCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

func (a Address) clone() Address {
	out := a
	if a.Latitude != nil {
		lat := *a.Latitude
		out.Latitude = &lat
	}
	if a.Longitude != nil {
		lng := *a.Longitude
		out.Longitude = &lng
	}
	return out
}

// PrimaryContact is the site contact stored directly on a project
type PrimaryContact struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email"`
}

// Project is a job site and everything attached to it
type Project struct {
	ID                      int                  `json:"id"`
	Name                    string               `json:"name"`
	Description             string               `json:"description"`
	StatusID                string               `json:"statusId"`
	SalesRepIDs             []UserID             `json:"salesRepIds"`
	PlannedAnnualRate       float64              `json:"plannedAnnualRate"`
	ParStartDate            string               `json:"parStartDate,omitempty"` // YYYY-MM-DD
	Address                 Address              `json:"address"`
	ProjectPrimaryContact   PrimaryContact       `json:"projectPrimaryContact"`
	ProjectCompanies        []ProjectCompany     `json:"projectCompanies"`
	AssociatedOpportunities []OpportunitySummary `json:"associatedOpportunities"`
	Activities              []Activity           `json:"activities"`
	Notes                   []Note               `json:"notes"`
	CustomerEquipment       []CustomerEquipment  `json:"customerEquipment"`
}

// HasOpportunity reports whether the opportunity id is already associated
func (p *Project) HasOpportunity(opportunityID int) bool {
	for _, o := range p.AssociatedOpportunities {
		if o.ID == opportunityID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares no slices or pointers with p
func (p Project) Clone() Project {
	out := p
	out.SalesRepIDs = slices.Clone(p.SalesRepIDs)
	out.Address = p.Address.clone()

	if p.ProjectCompanies != nil {
		out.ProjectCompanies = make([]ProjectCompany, len(p.ProjectCompanies))
		for i, c := range p.ProjectCompanies {
			out.ProjectCompanies[i] = c.Clone()
		}
	}
	out.AssociatedOpportunities = slices.Clone(p.AssociatedOpportunities)
	out.Activities = slices.Clone(p.Activities)
	if p.Notes != nil {
		out.Notes = make([]Note, len(p.Notes))
		for i, n := range p.Notes {
			out.Notes[i] = n.Clone()
		}
	}
	if p.CustomerEquipment != nil {
		out.CustomerEquipment = make([]CustomerEquipment, len(p.CustomerEquipment))
		for i, e := range p.CustomerEquipment {
			out.CustomerEquipment[i] = e.Clone()
		}
	}
	return out
}

// CompanyContact is a person at a company associated to a project
type CompanyContact struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email"`
}

// RoleGeneralContractor is the role id of the managing company on a site
const RoleGeneralContractor = "GC"

// ProjectCompany is a company's association to one project.
// AssociationID is the per-project key; CompanyName is a mutable attribute.
type ProjectCompany struct {
	AssociationID       int              `json:"associationId"`
	CompanyName         string           `json:"companyName"`
	CompanyID           string           `json:"companyId,omitempty"`
	RoleID              string           `json:"roleId,omitempty"`
	RoleDescription     string           `json:"roleDescription,omitempty"`
	IsPrimaryContact    bool             `json:"isPrimaryContact"`
	CompanyContacts     []CompanyContact `json:"companyContacts"`
	PrimaryContactIndex int              `json:"primaryContactIndex"`
}

// IsGeneralContractor reports whether the row is the GC (or GC-equivalent) company
func (c ProjectCompany) IsGeneralContractor() bool {
	return c.RoleID == RoleGeneralContractor || c.IsPrimaryContact
}

// PrimaryContact returns the designated default contact, if any
func (c ProjectCompany) PrimaryContact() (CompanyContact, bool) {
	if c.PrimaryContactIndex < 0 || c.PrimaryContactIndex >= len(c.CompanyContacts) {
		return CompanyContact{}, false
	}
	return c.CompanyContacts[c.PrimaryContactIndex], true
}

// Clone returns a deep copy of the company row
func (c ProjectCompany) Clone() ProjectCompany {
	out := c
	out.CompanyContacts = slices.Clone(c.CompanyContacts)
	return out
}

// ActivityType is the closed vocabulary of site activities
type ActivityType string

const (
	ActivityTypeSiteVisit ActivityType = "Site Visit"
	ActivityTypePhoneCall ActivityType = "Phone Call"
	ActivityTypeEmail     ActivityType = "Email"
	ActivityTypeMeeting   ActivityType = "Meeting"
	ActivityTypeFollowUp  ActivityType = "Follow-up"
	ActivityTypeProposal  ActivityType = "Proposal"
	ActivityTypeDemo      ActivityType = "Demo"
	ActivityTypeOther     ActivityType = "Other"
)

// ActivityTypes lists the vocabulary in display order
var ActivityTypes = []ActivityType{
	ActivityTypeSiteVisit,
	ActivityTypePhoneCall,
	ActivityTypeEmail,
	ActivityTypeMeeting,
	ActivityTypeFollowUp,
	ActivityTypeProposal,
	ActivityTypeDemo,
	ActivityTypeOther,
}

// IsValid checks if the ActivityType is a valid enum value
func (at ActivityType) IsValid() bool {
	for _, t := range ActivityTypes {
		if t == at {
			return true
		}
	}
	return false
}

// Activity is a logged interaction on a site
type Activity struct {
	ID           int          `json:"id"`
	AssigneeID   UserID       `json:"assigneeId"`
	ActivityType ActivityType `json:"activityType"`
	Date         time.Time    `json:"date"`
	Description  string       `json:"description"`
}

// Attachment is a file attached to a note. FileURL is an opaque blob handle.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NoteModification records one update of a note
type NoteModification struct {
	ModifiedAt      time.Time `json:"modifiedAt"`
	ModifiedByID    UserID    `json:"modifiedById"`
	Summary         string    `json:"summary"`
	PreviousContent *string   `json:"previousContent,omitempty"`
	PreviousTagIDs  *[]string `json:"previousTagIds,omitempty"`
}

// Note is a free-text note on a project
type Note struct {
	ID                  int                `json:"id"`
	Content             string             `json:"content"`
	CreatedAt           time.Time          `json:"createdAt"`
	CreatedByID         UserID             `json:"createdById"`
	TagIDs              []string           `json:"tagIds"`
	Attachments         []Attachment       `json:"attachments"`
	LastModifiedAt      *time.Time         `json:"lastModifiedAt,omitempty"`
	LastModifiedByID    *UserID            `json:"lastModifiedById,omitempty"`
	ModificationHistory []NoteModification `json:"modificationHistory,omitempty"`
}

// HasTag reports whether the note carries the tag
func (n Note) HasTag(tagID string) bool {
	for _, t := range n.TagIDs {
		if t == tagID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the note
func (n Note) Clone() Note {
	out := n
	out.TagIDs = slices.Clone(n.TagIDs)
	out.Attachments = slices.Clone(n.Attachments)
	if n.LastModifiedAt != nil {
		at := *n.LastModifiedAt
		out.LastModifiedAt = &at
	}
	if n.LastModifiedByID != nil {
		by := *n.LastModifiedByID
		out.LastModifiedByID = &by
	}
	if n.ModificationHistory != nil {
		out.ModificationHistory = make([]NoteModification, len(n.ModificationHistory))
		for i, m := range n.ModificationHistory {
			mc := m
			if m.PreviousContent != nil {
				c := *m.PreviousContent
				mc.PreviousContent = &c
			}
			if m.PreviousTagIDs != nil {
				tags := slices.Clone(*m.PreviousTagIDs)
				mc.PreviousTagIDs = &tags
			}
			out.ModificationHistory[i] = mc
		}
	}
	return out
}

// CustomerEquipment is a machine the customer runs on site
type CustomerEquipment struct {
	ID            int      `json:"id"`
	CompanyID     string   `json:"companyId"`
	EquipmentType string   `json:"equipmentType"`
	Make          string   `json:"make"`
	Model         string   `json:"model"`
	Year          *int     `json:"year,omitempty"`
	SerialNumber  string   `json:"serialNumber,omitempty"`
	Hours         *float64 `json:"hours,omitempty"`
}

// Label is the human-readable name used in change-log summaries
func (e CustomerEquipment) Label() string {
	return e.Make + " " + e.Model
}

// Clone returns a deep copy of the equipment row
func (e CustomerEquipment) Clone() CustomerEquipment {
	out := e
	if e.Year != nil {
		y := *e.Year
		out.Year = &y
	}
	if e.Hours != nil {
		h := *e.Hours
		out.Hours = &h
	}
	return out
}
