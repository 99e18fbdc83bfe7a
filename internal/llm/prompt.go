package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

const maxOfferTextChars = 12000

// PromptInput carries what the prompt builder needs for one request.
type PromptInput struct {
	Catalog  entity.CatalogSnapshot
	Today    string // YYYY-MM-DD
	Currency string
}

// BuildSystemPrompt serializes the catalog snapshot and the answer template
// into the instruction message. Pure function of its input.
func BuildSystemPrompt(in PromptInput) string {
	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "PLN"
	}

	parts := []string{
		"You extract structured data from a customer enquiry for a refrigerated van conversion.",
		"Return ONLY one JSON object that matches the answer template below. No markdown, no commentary.",
		"Choose the vehicle, refrigeration unit, heating option and heater kit from the catalog. " +
			"Copy brand, model and option names exactly as they appear in the catalog.",
		"Copy catalog prices into the matching price fields. All prices are net amounts in " + currency + " written as plain numbers.",
		"Leave a field at its template default when the enquiry and the catalog do not determine it. Never invent clients or prices.",
		"Leave heating and heater_kit at their defaults unless the enquiry asks for them.",
		"Use ISO-8601 dates (YYYY-MM-DD). Today is " + in.Today + ". Use it for offer_date when none is given.",
		"",
		"Catalog:",
		mustJSON(catalogContext(in.Catalog)),
		"",
		"Answer template:",
		mustJSON(OutputTemplate()),
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt wraps the raw enquiry text.
func BuildUserPrompt(text string) string {
	t := strings.TrimSpace(text)
	var b strings.Builder
	b.WriteString("Enquiry text:\n")
	if len([]rune(t)) > maxOfferTextChars {
		b.WriteString(string([]rune(t)[:maxOfferTextChars]))
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(t)
	}
	return b.String()
}

// catalogContext drops columns the model does not need to choose or price items.
func catalogContext(s entity.CatalogSnapshot) map[string]any {
	units := make([]map[string]any, 0, len(s.Units))
	for _, u := range s.Units {
		units = append(units, map[string]any{
			"model":                     u.Model,
			"product_line":              u.ProductLine,
			"refrigerant":               u.Refrigerant,
			"electrical_installation":   u.ElectricalInstallation,
			"road_only":                 u.RoadOnly,
			"road_and_230v":             u.RoadAnd230V,
			"road_and_400v":             u.RoadAnd400V,
			"list_price":                u.ListPrice,
			"cooling_capacity_0c":       u.CoolingCapacity0C,
			"cooling_capacity_minus20c": u.CoolingCapacityMinus20,
			"van_size_0c":               u.VanSize0C,
			"van_size_minus20c":         u.VanSizeMinus20,
			"temperature_range":         u.TemperatureRange,
			"notes":                     u.Notes,
		})
	}
	return map[string]any{
		"vehicles":        s.Vehicles,
		"units":           units,
		"heating_options": s.HeatingOptions,
		"heater_kits":     s.HeaterKits,
	}
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
