package store

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/straye-as/jobsite-crm/internal/domain"
)

// Merge functions return a copy of the entity with every supplied patch field
// applied. Scalars are overwritten, slices and nested objects replaced whole.

func mergeProject(p domain.Project, patch domain.ProjectPatch) domain.Project {
	out := p.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.StatusID != nil {
		out.StatusID = *patch.StatusID
	}
	if patch.SalesRepIDs != nil {
		out.SalesRepIDs = append([]domain.UserID{}, (*patch.SalesRepIDs)...)
	}
	if patch.PlannedAnnualRate != nil {
		out.PlannedAnnualRate = *patch.PlannedAnnualRate
	}
	if patch.ParStartDate != nil {
		out.ParStartDate = *patch.ParStartDate
	}
	if patch.Address != nil {
		out.Address = *patch.Address
	}
	if patch.ProjectPrimaryContact != nil {
		out.ProjectPrimaryContact = *patch.ProjectPrimaryContact
	}
	return out
}

func mergeOpportunity(o domain.Opportunity, patch domain.OpportunityPatch) domain.Opportunity {
	out := o.Clone()
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.EstimateRevenue != nil {
		out.EstimateRevenue = *patch.EstimateRevenue
	}
	if patch.StageID != nil {
		out.StageID = *patch.StageID
	}
	if patch.TypeID != nil {
		out.TypeID = *patch.TypeID
	}
	if patch.DivisionID != nil {
		out.DivisionID = *patch.DivisionID
	}
	if patch.EstimateDeliveryMonth != nil {
		m := *patch.EstimateDeliveryMonth
		out.EstimateDeliveryMonth = &m
	}
	if patch.EstimateDeliveryYear != nil {
		y := *patch.EstimateDeliveryYear
		out.EstimateDeliveryYear = &y
	}
	if patch.ProductGroups != nil {
		out.ProductGroups = append([]domain.ProductGroup{}, (*patch.ProductGroups)...)
	}
	for k, v := range patch.Attributes {
		if out.Attributes == nil {
			out.Attributes = make(map[string]any)
		}
		if v == nil {
			delete(out.Attributes, k)
			continue
		}
		out.Attributes[k] = v
	}
	if len(out.Attributes) == 0 {
		out.Attributes = nil
	}
	return out
}

func mergeActivity(a domain.Activity, patch domain.ActivityPatch) domain.Activity {
	out := a
	if patch.AssigneeID != nil {
		out.AssigneeID = *patch.AssigneeID
	}
	if patch.ActivityType != nil {
		out.ActivityType = *patch.ActivityType
	}
	if patch.Date != nil {
		out.Date = *patch.Date
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	return out
}

func mergeEquipment(e domain.CustomerEquipment, patch domain.EquipmentPatch) domain.CustomerEquipment {
	out := e.Clone()
	if patch.CompanyID != nil {
		out.CompanyID = *patch.CompanyID
	}
	if patch.EquipmentType != nil {
		out.EquipmentType = *patch.EquipmentType
	}
	if patch.Make != nil {
		out.Make = *patch.Make
	}
	if patch.Model != nil {
		out.Model = *patch.Model
	}
	if patch.Year != nil {
		y := *patch.Year
		out.Year = &y
	}
	if patch.SerialNumber != nil {
		out.SerialNumber = *patch.SerialNumber
	}
	if patch.Hours != nil {
		h := *patch.Hours
		out.Hours = &h
	}
	return out
}

var timeType = reflect.TypeOf(time.Time{})

// valuesEqual compares two field values structurally. Times compare by
// instant so a location or monotonic reading never counts as a change.
func valuesEqual(a, b reflect.Value) bool {
	if a.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// diffFields compares two structs of the same type field by field and returns
// the changed json field names in declaration order with their before/after
// values. Fields tagged json:"-" are skipped.
func diffFields(before, after any) ([]string, map[string]domain.ValueChange) {
	bv := reflect.ValueOf(before)
	av := reflect.ValueOf(after)
	t := bv.Type()

	var names []string
	changes := make(map[string]domain.ValueChange)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := jsonName(field)
		if name == "" {
			continue
		}
		if valuesEqual(bv.Field(i), av.Field(i)) {
			continue
		}
		names = append(names, name)
		changes[name] = domain.ValueChange{
			From: bv.Field(i).Interface(),
			To:   av.Field(i).Interface(),
		}
	}
	return names, changes
}

// diffAttributes compares opaque attribute maps key by key, in sorted key order
func diffAttributes(before, after map[string]any) ([]string, map[string]domain.ValueChange) {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	slices.Sort(sorted)

	var names []string
	changes := make(map[string]domain.ValueChange)
	for _, k := range sorted {
		if reflect.DeepEqual(before[k], after[k]) {
			continue
		}
		names = append(names, k)
		changes[k] = domain.ValueChange{From: before[k], To: after[k]}
	}
	return names, changes
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// changeDetails picks the narrowest detail variant for a set of changes
func changeDetails(names []string, changes map[string]domain.ValueChange) domain.ChangeDetails {
	if len(names) == 1 {
		c := changes[names[0]]
		return domain.FieldChange{Field: names[0], From: c.From, To: c.To}
	}
	return domain.MultiFieldChange{Changes: changes}
}
