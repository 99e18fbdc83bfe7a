package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"11000":        11000,
		"11 000":       11000,
		"12100,50":     12100.5,
		"12 100.00 zł": 12100,
		"PLN 900":      900,
		"1.234.567":    1234567,
		"1,234.5":      1234.5,
		"-250":         -250,
		"13 m³":        13,
		"ok. 450 zł":   450,
	}
	for in, want := range cases {
		got, ok := ParseAmount(in)
		require.True(t, ok, in)
		assert.InDelta(t, want, got, 0.001, in)
	}
	for _, in := range []string{"", "n/a", "-", "12/100", "13 m3", "ok. 13 m3", "2x 450 zł", "450 zł x2"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, in)
	}
}

func TestFlattenValue(t *testing.T) {
	assert.Equal(t, "", FlattenValue(nil, false))
	assert.Equal(t, "13", FlattenValue(13.0, false))
	assert.Equal(t, "12.5", FlattenValue(12.5, false))
	assert.Equal(t, "Yes", FlattenValue(true, false))
	assert.Equal(t, "a, b", FlattenValue([]any{"a", nil, "b"}, false))
	assert.Equal(t, "a: 1, b: x", FlattenValue(map[string]any{"b": "x", "a": 1.0}, false))
}

func TestFlattenValueDropsHiddenAndPriceSubkeys(t *testing.T) {
	extras := map[string]any{"color": "white", "price": 500.0, "refrigerant": "R452A"}
	assert.Equal(t, "color: white", FlattenValue(extras, false))
	assert.Equal(t, "color: white, price: 500", FlattenValue(extras, true))

	list := []any{
		map[string]any{"name": "shelf", "cena": "300 zł"},
		map[string]any{"notes": "internal", "koszt": 20.0},
	}
	assert.Equal(t, "name: shelf", FlattenValue(list, false))

	nested := Section{"street": "Polna 1", "meta": map[string]any{"total": 9.0, "id": "x"}}
	assert.Equal(t, "street: Polna 1", FlattenValue(nested, false))
}

func TestSectionAccessors(t *testing.T) {
	s := Section{"brand": " Fiat ", "price": "1 500", "nothing": nil, "flag": true}
	assert.Equal(t, "Fiat", s.String("brand"))
	assert.Equal(t, 1500.0, s.Number("price"))
	assert.Equal(t, 0.0, s.Number("nothing"))
	assert.Equal(t, 0.0, s.Number("brand"))
	assert.Equal(t, 0.0, Section{"price": "2x 450 zł"}.Number("price"))
	assert.False(t, s.IsEmpty())
	assert.True(t, Section{"a": "", "b": 0.0, "c": nil, "d": []any{}}.IsEmpty())
}

func TestPriceSummaryTotalIsSumOfLines(t *testing.T) {
	s := NewPriceSummary("PLN",
		PriceLine{Category: LineVehicleConversion, Amount: 11000},
		PriceLine{Category: LineRefrigerationUnit, Amount: 12100},
		PriceLine{Category: LineAccessories, Amount: 0.1},
		PriceLine{Category: LineHeaterKit, Amount: 0.2},
	)
	assert.Equal(t, 23100.3, s.NetTotal)
	assert.Equal(t, s.Sum(), s.NetTotal)
	assert.Equal(t, 12100.0, s.Amount(LineRefrigerationUnit))
	assert.Equal(t, 0.0, s.Amount(LineHeatingOption))
	assert.Equal(t, 23100.3, s.Map()["net_total"])

	empty := NewPriceSummary("PLN")
	assert.Equal(t, 0.0, empty.NetTotal)
}

func TestOfferCloneCopiesSections(t *testing.T) {
	o := &Offer{Vehicle: Section{"brand": "Fiat"}}
	c := o.Clone()
	c.Vehicle["brand"] = "Iveco"
	assert.Equal(t, "Fiat", o.Vehicle["brand"])
	assert.Nil(t, c.Client)
}

func TestSchemaDeclaresIdentifyingFields(t *testing.T) {
	var ids []string
	for _, sec := range OfferSchema() {
		for _, f := range sec.Fields {
			if f.Identifying {
				ids = append(ids, sec.Name+"."+f.Name)
			}
		}
	}
	assert.Equal(t, []string{
		"client.name", "client.address", "client.tax_id",
		"vehicle.brand", "vehicle.model", "vehicle.cargo_volume",
		"unit.model", "unit.list_price",
	}, ids)
}
