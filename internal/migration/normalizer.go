// Package migration converts legacy seed record shapes into the canonical
// entity model. It runs once at load time and never fails: shapes it cannot
// understand degrade to empty values.
package migration

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// RawProject is a project as it appears in seed input. Notes and companies
// are kept raw because they may still use legacy shapes.
type RawProject struct {
	ID                      int                         `json:"id"`
	Name                    string                      `json:"name"`
	Description             string                      `json:"description"`
	StatusID                string                      `json:"statusId"`
	SalesRepIDs             []domain.UserID             `json:"salesRepIds"`
	PlannedAnnualRate       float64                     `json:"plannedAnnualRate"`
	ParStartDate            string                      `json:"parStartDate,omitempty"`
	Address                 domain.Address              `json:"address"`
	ProjectPrimaryContact   domain.PrimaryContact       `json:"projectPrimaryContact"`
	ProjectCompanies        json.RawMessage             `json:"projectCompanies"`
	AssociatedOpportunities []domain.OpportunitySummary `json:"associatedOpportunities"`
	Activities              []domain.Activity           `json:"activities"`
	Notes                   json.RawMessage             `json:"notes"`
	CustomerEquipment       []domain.CustomerEquipment  `json:"customerEquipment"`
}

// legacyContact is the single-contact shape companies used before contact lists
type legacyContact struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// legacyCompany carries both legacy contact encodings: a nested
// companyContact object or flat contact* fields
type legacyCompany struct {
	AssociationID    int             `json:"associationId"`
	CompanyName      string          `json:"companyName"`
	CompanyID        string          `json:"companyId"`
	RoleID           string          `json:"roleId"`
	RoleDescription  string          `json:"roleDescription"`
	IsPrimaryContact bool            `json:"isPrimaryContact"`
	CompanyContact   json.RawMessage `json:"companyContact"`
	ContactName      string          `json:"contactName"`
	ContactTitle     string          `json:"contactTitle"`
	ContactPhone     string          `json:"contactPhone"`
	ContactEmail     string          `json:"contactEmail"`
}

// Normalizer migrates raw records into canonical shapes
type Normalizer struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewNormalizer creates a normalizer. now stamps createdAt on migrated notes.
func NewNormalizer(logger *zap.Logger, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now, logger: logger}
}

// NormalizeProject converts a raw seed project into a canonical project
func (n *Normalizer) NormalizeProject(raw RawProject) domain.Project {
	return domain.Project{
		ID:                      raw.ID,
		Name:                    raw.Name,
		Description:             raw.Description,
		StatusID:                raw.StatusID,
		SalesRepIDs:             raw.SalesRepIDs,
		PlannedAnnualRate:       raw.PlannedAnnualRate,
		ParStartDate:            raw.ParStartDate,
		Address:                 raw.Address,
		ProjectPrimaryContact:   raw.ProjectPrimaryContact,
		ProjectCompanies:        n.NormalizeCompanies(raw.ProjectCompanies),
		AssociatedOpportunities: raw.AssociatedOpportunities,
		Activities:              raw.Activities,
		Notes:                   n.NormalizeNotes(raw.Notes),
		CustomerEquipment:       raw.CustomerEquipment,
	}
}

// NormalizeNotes converts a raw notes value into notes. Entries that already
// have a content field pass through; anything else becomes a note authored
// by the legacy author. Non-array input yields an empty list.
func (n *Normalizer) NormalizeNotes(raw json.RawMessage) []domain.Note {
	entries, ok := splitArray(raw)
	if !ok {
		return []domain.Note{}
	}

	notes := make([]domain.Note, 0, len(entries))
	migrated := 0
	for i, entry := range entries {
		if hasKey(entry, "content") {
			var note domain.Note
			if err := json.Unmarshal(entry, &note); err == nil {
				notes = append(notes, note)
				continue
			}
		}

		notes = append(notes, domain.Note{
			ID:          i + 1,
			Content:     coerceString(entry),
			CreatedAt:   n.now(),
			CreatedByID: domain.LegacyAuthorID,
			TagIDs:      []string{},
			Attachments: []domain.Attachment{},
		})
		migrated++
	}

	if migrated > 0 {
		n.logger.Debug("migrated legacy notes", zap.Int("count", migrated))
	}
	return notes
}

// NormalizeCompanies converts a raw companies value into company rows.
// Rows with an array-typed companyContacts pass through; legacy rows get a
// single contact (id 1) built from their single-contact fields.
func (n *Normalizer) NormalizeCompanies(raw json.RawMessage) []domain.ProjectCompany {
	entries, ok := splitArray(raw)
	if !ok {
		return []domain.ProjectCompany{}
	}

	companies := make([]domain.ProjectCompany, 0, len(entries))
	migrated := 0
	for _, entry := range entries {
		if isArray(fieldOf(entry, "companyContacts")) {
			var company domain.ProjectCompany
			if err := json.Unmarshal(entry, &company); err == nil {
				companies = append(companies, company)
				continue
			}
		}

		companies = append(companies, n.migrateCompany(entry))
		migrated++
	}

	if migrated > 0 {
		n.logger.Debug("migrated legacy companies", zap.Int("count", migrated))
	}
	return companies
}

func (n *Normalizer) migrateCompany(entry json.RawMessage) domain.ProjectCompany {
	var legacy legacyCompany
	if err := json.Unmarshal(entry, &legacy); err != nil {
		n.logger.Debug("legacy company not decodable, using empty row", zap.Error(err))
		return domain.ProjectCompany{CompanyContacts: []domain.CompanyContact{}}
	}

	company := domain.ProjectCompany{
		AssociationID:    legacy.AssociationID,
		CompanyName:      legacy.CompanyName,
		CompanyID:        legacy.CompanyID,
		RoleID:           legacy.RoleID,
		RoleDescription:  legacy.RoleDescription,
		IsPrimaryContact: legacy.IsPrimaryContact,
		CompanyContacts:  []domain.CompanyContact{},
	}

	contact := legacyContact{
		Name:  legacy.ContactName,
		Title: legacy.ContactTitle,
		Phone: legacy.ContactPhone,
		Email: legacy.ContactEmail,
	}
	if len(legacy.CompanyContact) > 0 {
		var nested legacyContact
		if err := json.Unmarshal(legacy.CompanyContact, &nested); err == nil {
			contact = nested
		}
	}
	if contact != (legacyContact{}) {
		company.CompanyContacts = []domain.CompanyContact{{
			ID:    1,
			Name:  contact.Name,
			Title: contact.Title,
			Phone: contact.Phone,
			Email: contact.Email,
		}}
	}
	return company
}

func splitArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if !isArray(raw) {
		return nil, false
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func fieldOf(entry json.RawMessage, key string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(entry, &obj); err != nil {
		return nil
	}
	return obj[key]
}

func hasKey(entry json.RawMessage, key string) bool {
	return fieldOf(entry, key) != nil
}

// coerceString renders any JSON value as text: strings unquoted, null empty,
// everything else as its JSON encoding
func coerceString(entry json.RawMessage) string {
	trimmed := bytes.TrimSpace(entry)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
