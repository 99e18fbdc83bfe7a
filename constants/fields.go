package constants

import "strings"

// Section names of an extracted offer, in document order.
const (
	SectionClient    = "client"
	SectionVehicle   = "vehicle"
	SectionUnit      = "unit"
	SectionHeating   = "heating"
	SectionHeaterKit = "heater_kit"
)

// HiddenFields are never rendered into a customer document.
var HiddenFields = map[string]struct{}{
	"id":                        {},
	"refrigerant":               {},
	"notes":                     {},
	"cooling_capacity_0c":       {},
	"cooling_capacity_minus20c": {},
}

// priceMarkers identify price-bearing field names.
var priceMarkers = []string{"price", "cost", "total", "cena", "koszt"}

// IsHiddenField reports whether key is on the deny-list.
func IsHiddenField(key string) bool {
	_, ok := HiddenFields[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// IsPriceField reports whether key names a price or cost value.
func IsPriceField(key string) bool {
	k := strings.ToLower(key)
	for _, m := range priceMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}
