package catalog

import "github.com/joseph-ayodele/offer-generator/internal/utils"

// Sheet kinds of a catalog workbook.
const (
	SheetVehicles       = "vehicles"
	SheetUnits          = "refrigeration_units"
	SheetHeatingOptions = "heating_options"
	SheetHeaterKits     = "heater_kits"
)

// sheetAliases maps folded sheet names to a sheet kind. The Polish names are
// the ones used in the shop's price lists.
var sheetAliases = foldKeys(map[string]string{
	"vehicles":                             SheetVehicles,
	"samochody":                            SheetVehicles,
	"refrigeration units":                  SheetUnits,
	"units":                                SheetUnits,
	"agregaty":                             SheetUnits,
	"agregaty daikin":                      SheetUnits,
	"agregaty zanotti":                     SheetUnits,
	"heating options":                      SheetHeatingOptions,
	"heating":                              SheetHeatingOptions,
	"grzanie":                              SheetHeatingOptions,
	"heater kits":                          SheetHeaterKits,
	"zestaw podgrzewacza odplywu skroplin": SheetHeaterKits,
})

// columnAliases maps folded header text to a field name, per sheet kind.
var columnAliases = map[string]map[string]string{
	SheetVehicles: foldKeys(map[string]string{
		"brand":                                 "brand",
		"marka":                                 "brand",
		"model":                                 "model",
		"cargo volume":                          "cargo_volume",
		"kubatura (m³)":                         "cargo_volume",
		"kubatura":                              "cargo_volume",
		"conversion price":                      "conversion_price",
		"zabudowy izotermiczne cena (zł netto)": "conversion_price",
		"plywood price":                         "plywood_price",
		"sklejki cena (zł netto)":               "plywood_price",
		"wheel arch price":                      "wheel_arch_price",
		"nadkola sklejka 12mm cena zł netto":    "wheel_arch_price",
	}),
	SheetUnits: foldKeys(map[string]string{
		"model":                                "model",
		"product line":                         "product_line",
		"daikin product line":                  "product_line",
		"refrigerant":                          "refrigerant",
		"czynnik":                              "refrigerant",
		"electrical installation":              "electrical_installation",
		"instalacja elektryczna pojazdu":       "electrical_installation",
		"road only":                            "road_only",
		"tylko drogowy":                        "road_only",
		"road and 230v":                        "road_and_230v",
		"drogowy + sieć 230v":                  "road_and_230v",
		"road and 400v":                        "road_and_400v",
		"drogowy + sieć 400v":                  "road_and_400v",
		"list price":                           "list_price",
		"cena cennikowa (pln)":                 "list_price",
		"cena netto":                           "list_price",
		"cooling capacity 0c":                  "cooling_capacity_0c",
		"cooling capacity (0°c at 30°amb) [w]": "cooling_capacity_0c",
		"cooling capacity minus20c":            "cooling_capacity_minus20c",
		"cooling capacity w (-20°c at 30°amb) [w]-20c": "cooling_capacity_minus20c",
		"van size 0c":                         "van_size_0c",
		"recommended van size for 0°c [m3]":   "van_size_0c",
		"van size minus20c":                   "van_size_minus20c",
		"recommended van size for -20°c [m3]": "van_size_minus20c",
		"notes":                               "notes",
		"uwagi":                               "notes",
		"temperature range":                   "temperature_range",
	}),
	SheetHeatingOptions: foldKeys(map[string]string{
		"unit model":      "unit_model",
		"model jednostki": "unit_model",
		"option model":    "option_model",
		"model opcji":     "option_model",
		"price":           "price",
		"cena pln":        "price",
	}),
	SheetHeaterKits: foldKeys(map[string]string{
		"heaters": "heaters",
		"grzatki grzałki elektryczne odpływu (35w)": "heaters",
		"grzałki":      "heaters",
		"option model": "option_model",
		"model opcji":  "option_model",
		"price":        "price",
		"cena pln":     "price",
	}),
}

// sheetHeaders are the canonical English headers written by WriteXLSX.
var sheetHeaders = map[string][]string{
	SheetVehicles: {"brand", "model", "cargo_volume", "conversion_price", "plywood_price", "wheel_arch_price"},
	SheetUnits: {
		"model", "product_line", "refrigerant", "electrical_installation",
		"road_only", "road_and_230v", "road_and_400v", "list_price",
		"cooling_capacity_0c", "cooling_capacity_minus20c", "van_size_0c", "van_size_minus20c",
		"notes", "temperature_range",
	},
	SheetHeatingOptions: {"unit_model", "option_model", "price"},
	SheetHeaterKits:     {"heaters", "option_model", "price"},
}

var sheetOrder = []string{SheetVehicles, SheetUnits, SheetHeatingOptions, SheetHeaterKits}

func foldKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[utils.KeyFold(k)] = v
	}
	return out
}

// resolveColumn maps a header to a field name. Canonical snake_case headers
// are always accepted.
func resolveColumn(kind, header string) (string, bool) {
	key := utils.KeyFold(header)
	if field, ok := columnAliases[kind][key]; ok {
		return field, true
	}
	for _, field := range sheetHeaders[kind] {
		if utils.KeyFold(field) == key {
			return field, true
		}
	}
	return "", false
}
