package entity

// CatalogVehicle is one row of the vehicle price list. Prices are net.
type CatalogVehicle struct {
	Brand           string  `json:"brand" yaml:"brand"`
	Model           string  `json:"model" yaml:"model"`
	CargoVolume     float64 `json:"cargo_volume" yaml:"cargo_volume"`
	ConversionPrice float64 `json:"conversion_price" yaml:"conversion_price"`
	PlywoodPrice    float64 `json:"plywood_price" yaml:"plywood_price"`
	WheelArchPrice  float64 `json:"wheel_arch_price" yaml:"wheel_arch_price"`
}

// CatalogUnit is a refrigeration unit from the manufacturer's price list.
type CatalogUnit struct {
	Model                  string  `json:"model" yaml:"model"`
	ProductLine            string  `json:"product_line" yaml:"product_line"`
	Refrigerant            string  `json:"refrigerant" yaml:"refrigerant"`
	ElectricalInstallation string  `json:"electrical_installation" yaml:"electrical_installation"`
	RoadOnly               bool    `json:"road_only" yaml:"road_only"`
	RoadAnd230V            bool    `json:"road_and_230v" yaml:"road_and_230v"`
	RoadAnd400V            bool    `json:"road_and_400v" yaml:"road_and_400v"`
	ListPrice              float64 `json:"list_price" yaml:"list_price"`
	CoolingCapacity0C      float64 `json:"cooling_capacity_0c" yaml:"cooling_capacity_0c"`
	CoolingCapacityMinus20 float64 `json:"cooling_capacity_minus20c" yaml:"cooling_capacity_minus20c"`
	VanSize0C              float64 `json:"van_size_0c" yaml:"van_size_0c"`
	VanSizeMinus20         float64 `json:"van_size_minus20c" yaml:"van_size_minus20c"`
	Notes                  string  `json:"notes" yaml:"notes"`
	TemperatureRange       string  `json:"temperature_range" yaml:"temperature_range"`
}

// HeatingOption is a heating add-on priced per unit model.
type HeatingOption struct {
	UnitModel   string  `json:"unit_model" yaml:"unit_model"`
	OptionModel string  `json:"option_model" yaml:"option_model"`
	Price       float64 `json:"price" yaml:"price"`
}

// HeaterKit is a condensate-drain heater kit.
type HeaterKit struct {
	Heaters     string  `json:"heaters" yaml:"heaters"`
	OptionModel string  `json:"option_model" yaml:"option_model"`
	Price       float64 `json:"price" yaml:"price"`
}

// CatalogSnapshot is the full reference data handed to the prompt builder.
type CatalogSnapshot struct {
	Vehicles       []CatalogVehicle `json:"vehicles" yaml:"vehicles"`
	Units          []CatalogUnit    `json:"units" yaml:"units"`
	HeatingOptions []HeatingOption  `json:"heating_options" yaml:"heating_options"`
	HeaterKits     []HeaterKit      `json:"heater_kits" yaml:"heater_kits"`
}

// Counts returns row counts per table, keyed by table name.
func (s CatalogSnapshot) Counts() map[string]int {
	return map[string]int{
		"vehicles":            len(s.Vehicles),
		"refrigeration_units": len(s.Units),
		"heating_options":     len(s.HeatingOptions),
		"heater_kits":         len(s.HeaterKits),
	}
}
