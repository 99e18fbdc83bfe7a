package pricing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// Catalog is the subset of the catalog store cross-referencing needs.
type Catalog interface {
	GetVehicle(ctx context.Context, brand, model string) (*entity.CatalogVehicle, error)
	FindUnit(ctx context.Context, model string) (*entity.CatalogUnit, error)
}

// CrossRefResult is the offer after catalog prices were applied.
type CrossRefResult struct {
	Offer    *entity.Offer
	Vehicle  *entity.CatalogVehicle
	Warnings []string
}

// CrossReferencer makes the catalog authoritative for vehicle prices.
type CrossReferencer struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewCrossReferencer(catalog Catalog, logger *zap.Logger) *CrossReferencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CrossReferencer{catalog: catalog, logger: logger}
}

// Apply re-resolves the extracted vehicle and overwrites its three price
// fields with catalog values. The input offer is not modified. Unit and
// heating prices are kept as extracted; an unknown unit only yields a warning.
func (c *CrossReferencer) Apply(ctx context.Context, offer *entity.Offer) (*CrossRefResult, error) {
	logger := common.LoggerFromContext(ctx, c.logger)
	out := offer.Clone()
	if out.Vehicle == nil {
		out.Vehicle = entity.Section{}
	}
	brand, model := out.Vehicle.String("brand"), out.Vehicle.String("model")

	v, err := c.catalog.GetVehicle(ctx, brand, model)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn("pipeline.crossref.miss", zap.String("brand", brand), zap.String("model", model))
			return nil, common.NewAppError(common.CodeVehicleNotInCatalog,
				fmt.Sprintf("vehicle %q %q is not in the catalog", brand, model), err)
		}
		return nil, common.NewAppError(common.CodeCatalog, "vehicle lookup failed", err)
	}

	out.Vehicle["conversion_price"] = v.ConversionPrice
	out.Vehicle["plywood_price"] = v.PlywoodPrice
	out.Vehicle["wheel_arch_price"] = v.WheelArchPrice
	if entity.IsBlank(out.Vehicle["cargo_volume"]) && v.CargoVolume > 0 {
		out.Vehicle["cargo_volume"] = v.CargoVolume
	}

	res := &CrossRefResult{Offer: out, Vehicle: v}
	if unitModel := out.Unit.String("model"); unitModel != "" {
		if _, err := c.catalog.FindUnit(ctx, unitModel); err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return nil, common.NewAppError(common.CodeCatalog, "unit lookup failed", err)
			}
			logger.Warn("pipeline.crossref.unit_unknown", zap.String("unit_model", unitModel))
			res.Warnings = append(res.Warnings, fmt.Sprintf("refrigeration unit %q is not in the catalog; its price was taken from the extraction", unitModel))
		}
	}

	logger.Info("pipeline.crossref.ok",
		zap.String("brand", v.Brand),
		zap.String("model", v.Model),
		zap.Float64("conversion_price", v.ConversionPrice),
	)
	return res, nil
}
