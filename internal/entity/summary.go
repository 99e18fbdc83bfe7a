package entity

import (
	"math"

	"github.com/joseph-ayodele/offer-generator/internal/common"
)

// Price summary categories in document order.
const (
	LineVehicleConversion = "vehicle_conversion"
	LinePlywoodLining     = "plywood_lining"
	LineWheelArchLining   = "wheel_arch_lining"
	LineRefrigerationUnit = "refrigeration_unit"
	LineHeatingOption     = "heating_option"
	LineHeaterKit         = "heater_kit"
	LineAccessories       = "accessories"
)

// PriceLine is one priced component of an offer.
type PriceLine struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
}

// PriceSummary holds the priced components and their sum.
type PriceSummary struct {
	Lines    []PriceLine `json:"lines"`
	NetTotal float64     `json:"net_total"`
	Currency string      `json:"currency"`
}

// NewPriceSummary builds a summary whose NetTotal is the sum of lines.
func NewPriceSummary(currency string, lines ...PriceLine) PriceSummary {
	s := PriceSummary{Lines: lines, Currency: currency}
	s.NetTotal = s.Sum()
	return s
}

// Sum adds every line, rounded to cents.
func (s PriceSummary) Sum() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.Amount
	}
	return math.Round(total*100) / 100
}

// Amount returns the amount of a category, zero when absent.
func (s PriceSummary) Amount(category string) float64 {
	for _, l := range s.Lines {
		if l.Category == category {
			return l.Amount
		}
	}
	return 0
}

// Map flattens the summary into category -> amount plus "net_total".
func (s PriceSummary) Map() map[string]float64 {
	m := make(map[string]float64, len(s.Lines)+1)
	for _, l := range s.Lines {
		m[l.Category] = l.Amount
	}
	m["net_total"] = s.NetTotal
	return m
}

// MissingField is an identifying field the extraction left empty.
type MissingField = common.ValidationError
