package domain

// SalesRep is a member of the sales team
type SalesRep struct {
	ID    UserID `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// OpportunityStage is a step in the sales pipeline
type OpportunityStage struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DisplayOrder int    `json:"displayOrder" yaml:"displayOrder"`
}

// OpportunityType is a sale/rental classification
type OpportunityType struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DisplayOrder int    `json:"displayOrder" yaml:"displayOrder"`
}

// Division is a business division code
type Division struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DefaultDivisionID is used for projects without associated opportunities
const DefaultDivisionID = "E"

// DefaultDivisions is the fixed set of division codes
var DefaultDivisions = []Division{
	{ID: "E", Name: "Equipment Sales"},
	{ID: "R", Name: "Rental"},
	{ID: "S", Name: "Service"},
	{ID: "P", Name: "Parts"},
	{ID: "U", Name: "Used Equipment"},
}

// UnknownName is returned by name lookups that miss
const UnknownName = "Unknown"
