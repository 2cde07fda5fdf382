package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// SaleTypeID is the opportunity type displayed as "Sale"; every other type is a rental
const SaleTypeID = 1

// MinOpportunityID is the floor for generated opportunity ids
const MinOpportunityID = 100000

// TypeLabel returns the summary label for an opportunity type id
func TypeLabel(typeID int) string {
	if typeID == SaleTypeID {
		return "Sale"
	}
	return "Rental"
}

// ProductItem is one equipment or product line on an opportunity
type ProductItem struct {
	Description string   `json:"description"`
	Make        string   `json:"make,omitempty"`
	Model       string   `json:"model,omitempty"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	Age         *int     `json:"age,omitempty"`
	Hours       *float64 `json:"hours,omitempty"`
}

// ProductGroup groups product lines on an opportunity
type ProductGroup struct {
	Name  string        `json:"name"`
	Items []ProductItem `json:"items"`
}

// Total is the sum of quantity * unit price over the group
func (g ProductGroup) Total() float64 {
	var total float64
	for _, it := range g.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}

// Opportunity is a sale or rental engagement tied to a project.
// Fields the core does not interpret (customer contact, case and work-order
// identifiers, classification) are carried in Attributes and round-trip
// through JSON as top-level keys.
type Opportunity struct {
	ID                    int            `json:"id"`
	Description           string         `json:"description"`
	EstimateRevenue       float64        `json:"estimateRevenue"`
	StageID               int            `json:"stageId"`
	TypeID                int            `json:"typeId"`
	DivisionID            string         `json:"divisionId"`
	ProjectID             int            `json:"projectId"`
	EstimateDeliveryMonth *int           `json:"estimateDeliveryMonth,omitempty"`
	EstimateDeliveryYear  *int           `json:"estimateDeliveryYear,omitempty"`
	ProductGroups         []ProductGroup `json:"productGroups,omitempty"`
	Attributes            map[string]any `json:"-"`
}

// opportunityFields are the keys owned by the typed fields
var opportunityFields = map[string]bool{
	"id":                    true,
	"description":           true,
	"estimateRevenue":       true,
	"stageId":               true,
	"typeId":                true,
	"divisionId":            true,
	"projectId":             true,
	"estimateDeliveryMonth": true,
	"estimateDeliveryYear":  true,
	"productGroups":         true,
}

type opportunityAlias Opportunity

// MarshalJSON flattens Attributes next to the typed fields
func (o Opportunity) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(opportunityAlias(o))
	if err != nil {
		return nil, err
	}
	if len(o.Attributes) == 0 {
		return typed, nil
	}

	merged := make(map[string]any, len(o.Attributes)+len(opportunityFields))
	for k, v := range o.Attributes {
		if !opportunityFields[k] {
			merged[k] = v
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON captures unknown keys into Attributes
func (o *Opportunity) UnmarshalJSON(data []byte) error {
	var alias opportunityAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("failed to decode opportunity: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode opportunity attributes: %w", err)
	}
	for k := range raw {
		if opportunityFields[k] {
			delete(raw, k)
		}
	}

	*o = Opportunity(alias)
	if len(raw) > 0 {
		o.Attributes = raw
	}
	return nil
}

// Summary builds the denormalized row cached on the owning project
func (o Opportunity) Summary() OpportunitySummary {
	return OpportunitySummary{
		ID:          o.ID,
		Type:        TypeLabel(o.TypeID),
		TypeID:      o.TypeID,
		Description: o.Description,
		StageID:     o.StageID,
		Revenue:     o.EstimateRevenue,
	}
}

// Clone returns a deep copy of the opportunity
func (o Opportunity) Clone() Opportunity {
	out := o
	if o.EstimateDeliveryMonth != nil {
		m := *o.EstimateDeliveryMonth
		out.EstimateDeliveryMonth = &m
	}
	if o.EstimateDeliveryYear != nil {
		y := *o.EstimateDeliveryYear
		out.EstimateDeliveryYear = &y
	}
	if o.ProductGroups != nil {
		out.ProductGroups = make([]ProductGroup, len(o.ProductGroups))
		for i, g := range o.ProductGroups {
			gc := g
			gc.Items = slices.Clone(g.Items)
			out.ProductGroups[i] = gc
		}
	}
	if o.Attributes != nil {
		out.Attributes = make(map[string]any, len(o.Attributes))
		for k, v := range o.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}

// OpportunitySummary is the denormalized opportunity row stored on a project.
// It is a snapshot taken at association time and is not kept in sync.
type OpportunitySummary struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	TypeID      int     `json:"typeId,omitempty"`
	Description string  `json:"description"`
	StageID     int     `json:"stageId"`
	Revenue     float64 `json:"revenue"`
}

// ResolvedTypeID returns TypeID, falling back to the label for summaries
// written before the id was cached
func (s OpportunitySummary) ResolvedTypeID(rentalTypeID int) int {
	if s.TypeID != 0 {
		return s.TypeID
	}
	if s.Type == TypeLabel(SaleTypeID) {
		return SaleTypeID
	}
	return rentalTypeID
}
