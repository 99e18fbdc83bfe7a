package entity

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/offer-generator/constants"
)

// Section is a flat mapping of field name to value (string, number, bool,
// list or nil).
type Section map[string]any

// Offer is the structured result of one extraction.
type Offer struct {
	SchemaVersion string  `json:"schema_version"`
	Client        Section `json:"client"`
	Vehicle       Section `json:"vehicle"`
	Unit          Section `json:"unit"`
	Heating       Section `json:"heating"`
	HeaterKit     Section `json:"heater_kit"`
	OfferDate     string  `json:"offer_date"`
	OfferNumber   string  `json:"offer_number"`
}

// Section returns the named section, or nil for unknown names.
func (o *Offer) Section(name string) Section {
	switch name {
	case constants.SectionClient:
		return o.Client
	case constants.SectionVehicle:
		return o.Vehicle
	case constants.SectionUnit:
		return o.Unit
	case constants.SectionHeating:
		return o.Heating
	case constants.SectionHeaterKit:
		return o.HeaterKit
	}
	return nil
}

// SetSection replaces the named section.
func (o *Offer) SetSection(name string, s Section) {
	switch name {
	case constants.SectionClient:
		o.Client = s
	case constants.SectionVehicle:
		o.Vehicle = s
	case constants.SectionUnit:
		o.Unit = s
	case constants.SectionHeating:
		o.Heating = s
	case constants.SectionHeaterKit:
		o.HeaterKit = s
	}
}

// Clone returns a deep-enough copy: sections are copied, values are shared.
func (o *Offer) Clone() *Offer {
	c := *o
	for _, spec := range offerSchema {
		src := o.Section(spec.Name)
		if src == nil {
			continue
		}
		dst := make(Section, len(src))
		for k, v := range src {
			dst[k] = v
		}
		c.SetSection(spec.Name, dst)
	}
	return &c
}

// String returns the trimmed string form of a field, "" for nil or non-strings.
func (s Section) String(key string) string {
	if v, ok := s[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Number returns a numeric field, coercing numeric strings. Absent and
// non-numeric values count as zero.
func (s Section) Number(key string) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, ok := ParseAmount(v); ok {
			return f
		}
	}
	return 0
}

// IsBlank reports whether a value is nil, a blank string, a zero number,
// false or an empty list.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// IsEmpty reports whether every value in the section is blank.
func (s Section) IsEmpty() bool {
	for _, v := range s {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}

// ParseAmount parses a human-written amount such as "11 000", "12100,50",
// "12 100.00 zł" or "PLN 900". The last ',' or '.' followed by one or two
// digits is taken as the decimal separator. A single currency or unit word
// may precede or follow the number; digits after that word ("13 m3",
// "2x 450 zł") make the whole value unparseable.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	const (
		before = iota
		inNumber
		after
	)
	phase := before
	var b strings.Builder
	for _, r := range s {
		switch phase {
		case before:
			switch {
			case unicode.IsDigit(r), r == '-':
				b.WriteRune(r)
				phase = inNumber
			case unicode.IsLetter(r), unicode.IsSpace(r), r == '.':
			default:
				return 0, false
			}
		case inNumber:
			switch {
			case unicode.IsDigit(r), r == '.', r == ',':
				b.WriteRune(r)
			case unicode.IsSpace(r), r == '\'':
			case unicode.IsLetter(r):
				phase = after
			default:
				return 0, false
			}
		case after:
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '.' && r != '²' && r != '³' {
				return 0, false
			}
		}
	}
	num := b.String()
	if num == "" || num == "-" {
		return 0, false
	}
	if i := strings.LastIndexAny(num, ".,"); i >= 0 {
		frac := num[i+1:]
		whole := strings.NewReplacer(".", "", ",", "").Replace(num[:i])
		if len(frac) > 0 && len(frac) <= 2 {
			num = whole + "." + frac
		} else {
			num = whole + frac
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
