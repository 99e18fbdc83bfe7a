package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

type fakeCatalog struct {
	vehicles []entity.CatalogVehicle
	units    []entity.CatalogUnit
	err      error
	lookups  int
}

func (f *fakeCatalog) GetVehicle(_ context.Context, brand, model string) (*entity.CatalogVehicle, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.vehicles {
		if strings.EqualFold(strings.TrimSpace(brand), v.Brand) && strings.EqualFold(strings.TrimSpace(model), v.Model) {
			v := v
			return &v, nil
		}
	}
	return nil, fmt.Errorf("vehicle: %w", common.ErrNotFound)
}

func (f *fakeCatalog) FindUnit(_ context.Context, model string) (*entity.CatalogUnit, error) {
	for _, u := range f.units {
		if strings.EqualFold(strings.TrimSpace(model), u.Model) {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("unit: %w", common.ErrNotFound)
}

func ducatoCatalog() *fakeCatalog {
	return &fakeCatalog{
		vehicles: []entity.CatalogVehicle{{Brand: "Fiat", Model: "Ducato", CargoVolume: 13, ConversionPrice: 11000}},
		units:    []entity.CatalogUnit{{Model: "Zanotti ZB220", ListPrice: 12100}},
	}
}

func extracted() *entity.Offer {
	return &entity.Offer{
		Client:    entity.Section{"name": "Chłodnia", "address": "Poznań", "tax_id": "1234567890"},
		Vehicle:   entity.Section{"brand": "fiat", "model": " Ducato ", "cargo_volume": 0.0, "conversion_price": 9999.0, "plywood_price": 500.0, "wheel_arch_price": nil},
		Unit:      entity.Section{"model": "Zanotti ZB220", "list_price": 12100.0},
		Heating:   entity.Section{"price": 0.0},
		HeaterKit: entity.Section{"price": 0.0},
	}
}

func TestCrossReferenceOverwritesVehiclePrices(t *testing.T) {
	in := extracted()
	res, err := NewCrossReferencer(ducatoCatalog(), nil).Apply(context.Background(), in)
	require.NoError(t, err)

	v := res.Offer.Vehicle
	assert.Equal(t, 11000.0, v["conversion_price"])
	assert.Equal(t, 0.0, v["plywood_price"])
	assert.Equal(t, 0.0, v["wheel_arch_price"])
	assert.Equal(t, 13.0, v["cargo_volume"])
	assert.Empty(t, res.Warnings)

	// the input is left alone
	assert.Equal(t, 9999.0, in.Vehicle["conversion_price"])
}

func TestCrossReferenceUnknownVehicleHalts(t *testing.T) {
	in := extracted()
	in.Vehicle["model"] = "Doblo"
	_, err := NewCrossReferencer(ducatoCatalog(), nil).Apply(context.Background(), in)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeVehicleNotInCatalog))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestCrossReferenceCatalogFailure(t *testing.T) {
	cat := ducatoCatalog()
	cat.err = errors.New("disk I/O error")
	_, err := NewCrossReferencer(cat, nil).Apply(context.Background(), extracted())
	assert.True(t, common.HasCode(err, common.CodeCatalog))
}

func TestCrossReferenceWarnsOnUnknownUnit(t *testing.T) {
	in := extracted()
	in.Unit["model"] = "Carrier X"
	res, err := NewCrossReferencer(ducatoCatalog(), nil).Apply(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Carrier X")
}

func TestAggregateDucatoZanotti(t *testing.T) {
	res, err := NewCrossReferencer(ducatoCatalog(), nil).Apply(context.Background(), extracted())
	require.NoError(t, err)

	summary, missing := NewAggregator("PLN", DefaultAccessorySurcharge).Aggregate(res.Offer, nil)
	assert.Equal(t, 23100.0, summary.NetTotal)
	assert.Equal(t, 11000.0, summary.Amount(entity.LineVehicleConversion))
	assert.Equal(t, 12100.0, summary.Amount(entity.LineRefrigerationUnit))
	assert.Empty(t, missing)
}

func TestNetTotalEqualsSumOfLines(t *testing.T) {
	agg := NewAggregator("PLN", DefaultAccessorySurcharge)
	offers := []*entity.Offer{
		{},
		{Vehicle: entity.Section{"conversion_price": "abc", "plywood_price": nil}},
		{
			Vehicle:   entity.Section{"conversion_price": 11500.0, "plywood_price": "1 800", "wheel_arch_price": 600.0},
			Unit:      entity.Section{"list_price": 15999.99},
			Heating:   entity.Section{"price": 1450.0},
			HeaterKit: entity.Section{"price": "390,50"},
		},
	}
	for i, o := range offers {
		summary, _ := agg.Aggregate(o, []constants.Accessory{constants.SideDoor})
		assert.Equal(t, summary.Sum(), summary.NetTotal, "offer %d", i)
		assert.Len(t, summary.Lines, 7)
	}

	zero, _ := agg.Aggregate(&entity.Offer{}, nil)
	assert.Equal(t, 0.0, zero.NetTotal)
}

func TestAccessoriesTotal(t *testing.T) {
	agg := NewAggregator("PLN", DefaultAccessorySurcharge)
	all := constants.Accessories()

	// every subset of the fixed list
	for mask := 0; mask < 1<<len(all); mask++ {
		var selected []constants.Accessory
		paid := 0
		for i, a := range all {
			if mask&(1<<i) != 0 {
				selected = append(selected, a.Key)
				if !a.Key.IsNone() {
					paid++
				}
			}
		}
		assert.Equal(t, float64(100*paid), agg.AccessoriesTotal(selected))
	}

	assert.Equal(t, 100.0, agg.AccessoriesTotal([]constants.Accessory{constants.LEDLighting, constants.LEDLighting, "unknown"}))
}

func TestMissingIdentifyingFields(t *testing.T) {
	o := extracted()
	o.Client["tax_id"] = nil
	o.Client["address"] = "   "
	o.Vehicle["cargo_volume"] = "n/a"
	o.Unit["model"] = ""

	missing := MissingIdentifyingFields(o)
	var fields []string
	for _, m := range missing {
		fields = append(fields, m.Field)
	}
	assert.Equal(t, []string{"client.address", "client.tax_id", "vehicle.cargo_volume", "unit.model"}, fields)

	assert.Len(t, MissingIdentifyingFields(&entity.Offer{}), 8)
}
