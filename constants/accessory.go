package constants

import (
	"strings"
)

// Accessory is the stable key of an optional body-work extra.
type Accessory string

const (
	SideDoor           Accessory = "side_door"
	SideDoorNone       Accessory = "side_door_none"
	PartitionFixed     Accessory = "partition_fixed"
	PartitionSliding   Accessory = "partition_sliding"
	PartitionNone      Accessory = "partition_none"
	LEDLighting        Accessory = "led_lighting"
	CurtainStrips      Accessory = "curtain_strips"
	MeatRails          Accessory = "meat_rails"
	FloorDrain         Accessory = "floor_drain"
	AntiSlipFloor      Accessory = "anti_slip_floor"
	ThermometerDisplay Accessory = "thermometer_display"
)

// AccessoryInfo describes one selectable option.
type AccessoryInfo struct {
	Key   Accessory
	Group string
	Label string
}

var allAccessories = []AccessoryInfo{
	{SideDoor, "side_door", "Insulated side door"},
	{SideDoorNone, "side_door", "No side door"},
	{PartitionFixed, "partition", "Fixed partition wall"},
	{PartitionSliding, "partition", "Sliding partition wall"},
	{PartitionNone, "partition", "No partition wall"},
	{LEDLighting, "lighting", "LED cargo lighting"},
	{CurtainStrips, "curtain", "PVC curtain strips"},
	{MeatRails, "rails", "Meat hanging rails"},
	{FloorDrain, "floor", "Floor drain"},
	{AntiSlipFloor, "floor", "Anti-slip floor"},
	{ThermometerDisplay, "thermometer", "Cab thermometer display"},
}

// IsNone reports whether the option is the zero-cost "none" choice of its group.
func (a Accessory) IsNone() bool {
	return strings.HasSuffix(string(a), "_none")
}

// Accessories returns the fixed accessory list in display order.
func Accessories() []AccessoryInfo {
	out := make([]AccessoryInfo, len(allAccessories))
	copy(out, allAccessories)
	return out
}

func AccessoriesAsStringSlice() []string {
	result := make([]string, len(allAccessories))
	for i, a := range allAccessories {
		result[i] = string(a.Key)
	}
	return result
}

// LookupAccessory returns the info for a known key.
func LookupAccessory(key Accessory) (AccessoryInfo, bool) {
	for _, a := range allAccessories {
		if a.Key == key {
			return a, true
		}
	}
	return AccessoryInfo{}, false
}

// CanonicalizeAccessory maps free-form input (key, label or a known synonym)
// to an accessory key.
func CanonicalizeAccessory(input string) (Accessory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	synonyms := map[string]Accessory{
		"drzwi_boczne":    SideDoor,
		"side_doors":      SideDoor,
		"przegroda":       PartitionFixed,
		"partition":       PartitionFixed,
		"oswietlenie_led": LEDLighting,
		"led":             LEDLighting,
		"kurtyna":         CurtainStrips,
		"haki":            MeatRails,
		"rails":           MeatRails,
		"odplyw":          FloorDrain,
		"termometr":       ThermometerDisplay,
	}
	if a, ok := synonyms[normalized]; ok {
		return a, true
	}
	for _, a := range allAccessories {
		label := strings.ReplaceAll(strings.ToLower(a.Label), " ", "_")
		if normalized == string(a.Key) || normalized == label {
			return a.Key, true
		}
	}
	return "", false
}
