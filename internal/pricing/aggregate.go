package pricing

import (
	"math"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// DefaultAccessorySurcharge is the net price of every non-"none" accessory.
const DefaultAccessorySurcharge = 100.0

// Aggregator sums priced components into a PriceSummary.
type Aggregator struct {
	currency  string
	surcharge float64
}

func NewAggregator(currency string, accessorySurcharge float64) *Aggregator {
	if currency == "" {
		currency = "PLN"
	}
	if accessorySurcharge < 0 {
		accessorySurcharge = DefaultAccessorySurcharge
	}
	return &Aggregator{currency: currency, surcharge: accessorySurcharge}
}

// Currency returns the summary currency.
func (a *Aggregator) Currency() string { return a.currency }

// Aggregate prices an offer. Absent or non-numeric values count as zero.
// Missing identifying fields are returned, never raised.
func (a *Aggregator) Aggregate(o *entity.Offer, accessories []constants.Accessory) (entity.PriceSummary, []entity.MissingField) {
	summary := entity.NewPriceSummary(a.currency,
		entity.PriceLine{Category: entity.LineVehicleConversion, Label: "Vehicle conversion", Amount: money(o.Vehicle.Number("conversion_price"))},
		entity.PriceLine{Category: entity.LinePlywoodLining, Label: "Plywood lining", Amount: money(o.Vehicle.Number("plywood_price"))},
		entity.PriceLine{Category: entity.LineWheelArchLining, Label: "Wheel arch lining", Amount: money(o.Vehicle.Number("wheel_arch_price"))},
		entity.PriceLine{Category: entity.LineRefrigerationUnit, Label: "Refrigeration unit", Amount: money(o.Unit.Number("list_price"))},
		entity.PriceLine{Category: entity.LineHeatingOption, Label: "Heating option", Amount: money(o.Heating.Number("price"))},
		entity.PriceLine{Category: entity.LineHeaterKit, Label: "Heater kit", Amount: money(o.HeaterKit.Number("price"))},
		entity.PriceLine{Category: entity.LineAccessories, Label: "Accessories", Amount: a.AccessoriesTotal(accessories)},
	)
	return summary, MissingIdentifyingFields(o)
}

// AccessoriesTotal charges the surcharge once per distinct known option,
// skipping the zero-cost "none" options.
func (a *Aggregator) AccessoriesTotal(accessories []constants.Accessory) float64 {
	seen := make(map[constants.Accessory]struct{}, len(accessories))
	var total float64
	for _, acc := range accessories {
		if _, dup := seen[acc]; dup {
			continue
		}
		seen[acc] = struct{}{}
		if _, known := constants.LookupAccessory(acc); !known || acc.IsNone() {
			continue
		}
		total += a.surcharge
	}
	return money(total)
}

// MissingIdentifyingFields lists identifying fields that are null, blank or zero.
func MissingIdentifyingFields(o *entity.Offer) []entity.MissingField {
	v := common.NewValidator()
	for _, sec := range entity.OfferSchema() {
		s := o.Section(sec.Name)
		for _, f := range sec.Fields {
			if !f.Identifying {
				continue
			}
			name := sec.Name + "." + f.Name
			if f.Kind == entity.KindNumber {
				v.Field(name, s.Number(f.Name), common.NonZero)
				continue
			}
			v.Field(name, s[f.Name], common.Required)
		}
	}
	return v.Errors()
}

func money(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
