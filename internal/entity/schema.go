package entity

import "github.com/joseph-ayodele/offer-generator/constants"

// SchemaVersion is stamped on every extracted offer.
const SchemaVersion = "offer.v3"

// FieldKind is the JSON type of a declared field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindList
)

// Default returns the value inserted for an absent field.
func (k FieldKind) Default() any {
	switch k {
	case KindNumber:
		return 0.0
	case KindBool:
		return false
	case KindList:
		return []any{}
	default:
		return ""
	}
}

// JSONType returns the JSON-Schema type name.
func (k FieldKind) JSONType() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "array"
	default:
		return "string"
	}
}

// FieldSpec declares one field of a section.
type FieldSpec struct {
	Name        string
	Kind        FieldKind
	Identifying bool
	Hint        string
}

// SectionSpec declares one section of the offer.
type SectionSpec struct {
	Name   string
	Title  string
	Fields []FieldSpec
}

// Field returns the declared field by name.
func (s SectionSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var offerSchema = []SectionSpec{
	{
		Name:  constants.SectionClient,
		Title: "Client",
		Fields: []FieldSpec{
			{Name: "name", Kind: KindString, Identifying: true, Hint: "company or person name"},
			{Name: "address", Kind: KindString, Identifying: true},
			{Name: "tax_id", Kind: KindString, Identifying: true, Hint: "NIP / VAT number"},
			{Name: "contact_person", Kind: KindString},
			{Name: "phone", Kind: KindString},
			{Name: "email", Kind: KindString},
		},
	},
	{
		Name:  constants.SectionVehicle,
		Title: "Vehicle",
		Fields: []FieldSpec{
			{Name: "brand", Kind: KindString, Identifying: true, Hint: "must match a catalog brand"},
			{Name: "model", Kind: KindString, Identifying: true, Hint: "must match a catalog model"},
			{Name: "cargo_volume", Kind: KindNumber, Identifying: true, Hint: "cubic metres"},
			{Name: "conversion_price", Kind: KindNumber},
			{Name: "plywood_price", Kind: KindNumber},
			{Name: "wheel_arch_price", Kind: KindNumber},
			{Name: "finishes", Kind: KindList, Hint: "requested finishing options"},
		},
	},
	{
		Name:  constants.SectionUnit,
		Title: "Refrigeration Unit",
		Fields: []FieldSpec{
			{Name: "model", Kind: KindString, Identifying: true, Hint: "must match a catalog unit"},
			{Name: "product_line", Kind: KindString},
			{Name: "refrigerant", Kind: KindString},
			{Name: "electrical_installation", Kind: KindString},
			{Name: "road_only", Kind: KindBool},
			{Name: "road_and_230v", Kind: KindBool},
			{Name: "road_and_400v", Kind: KindBool},
			{Name: "list_price", Kind: KindNumber, Identifying: true, Hint: "net list price from the catalog"},
			{Name: "cooling_capacity_0c", Kind: KindNumber},
			{Name: "cooling_capacity_minus20c", Kind: KindNumber},
			{Name: "van_size_0c", Kind: KindNumber},
			{Name: "van_size_minus20c", Kind: KindNumber},
			{Name: "temperature_range", Kind: KindString},
			{Name: "notes", Kind: KindString},
		},
	},
	{
		Name:  constants.SectionHeating,
		Title: "Heating",
		Fields: []FieldSpec{
			{Name: "unit_model", Kind: KindString},
			{Name: "option_model", Kind: KindString},
			{Name: "price", Kind: KindNumber},
		},
	},
	{
		Name:  constants.SectionHeaterKit,
		Title: "Heater Kit",
		Fields: []FieldSpec{
			{Name: "heaters", Kind: KindString},
			{Name: "option_model", Kind: KindString},
			{Name: "price", Kind: KindNumber},
		},
	},
}

// OfferSchema returns the declared sections in document order.
func OfferSchema() []SectionSpec {
	return offerSchema
}

// LookupSection finds a declared section by name.
func LookupSection(name string) (SectionSpec, bool) {
	for _, s := range offerSchema {
		if s.Name == name {
			return s, true
		}
	}
	return SectionSpec{}, false
}
