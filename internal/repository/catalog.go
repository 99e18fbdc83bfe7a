package repository

import (
	"context"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// CatalogRepository is the read-only view of the reference tables used by the
// offer pipeline.
type CatalogRepository interface {
	GetVehicle(ctx context.Context, brand, model string) (*entity.CatalogVehicle, error)
	ListVehicles(ctx context.Context) ([]entity.CatalogVehicle, error)
	FindUnit(ctx context.Context, model string) (*entity.CatalogUnit, error)
	ListUnits(ctx context.Context) ([]entity.CatalogUnit, error)
	ListHeatingOptions(ctx context.Context) ([]entity.HeatingOption, error)
	ListHeaterKits(ctx context.Context) ([]entity.HeaterKit, error)
	Snapshot(ctx context.Context) (entity.CatalogSnapshot, error)
}

type catalogRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewCatalogRepository(db *DB, logger *zap.Logger) CatalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

// sameKey compares catalog keys after trimming, with full Unicode case
// folding. SQLite's LOWER only folds ASCII, so "ŁADA" would miss "Łada".
func sameKey(stored, wanted string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(stored)) == fold.String(strings.TrimSpace(wanted))
}

func (r *catalogRepository) GetVehicle(ctx context.Context, brand, model string) (*entity.CatalogVehicle, error) {
	vehicles, err := r.ListVehicles(ctx)
	if err != nil {
		r.logger.Error("catalog.vehicle.query_failed", zap.String("brand", brand), zap.String("model", model), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	for i := range vehicles {
		if sameKey(vehicles[i].Brand, brand) && sameKey(vehicles[i].Model, model) {
			return &vehicles[i], nil
		}
	}
	return nil, fmt.Errorf("vehicle %q %q: %w", strings.TrimSpace(brand), strings.TrimSpace(model), common.ErrNotFound)
}

func (r *catalogRepository) ListVehicles(ctx context.Context) ([]entity.CatalogVehicle, error) {
	sel := r.db.builder().
		Select(vehiclesTable.columnNames()...).
		From(entsql.Table(tableVehicles)).
		OrderBy("brand", "model")

	var out []entity.CatalogVehicle
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		v, err := scanVehicle(rows)
		if err == nil {
			out = append(out, v)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return out, nil
}

func (r *catalogRepository) FindUnit(ctx context.Context, model string) (*entity.CatalogUnit, error) {
	units, err := r.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	for i := range units {
		if sameKey(units[i].Model, model) {
			return &units[i], nil
		}
	}
	return nil, fmt.Errorf("unit %q: %w", strings.TrimSpace(model), common.ErrNotFound)
}

func (r *catalogRepository) ListUnits(ctx context.Context) ([]entity.CatalogUnit, error) {
	sel := r.db.builder().
		Select(unitsTable.columnNames()...).
		From(entsql.Table(tableUnits)).
		OrderBy("product_line", "model")

	var out []entity.CatalogUnit
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		u, err := scanUnit(rows)
		if err == nil {
			out = append(out, u)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return out, nil
}

func (r *catalogRepository) ListHeatingOptions(ctx context.Context) ([]entity.HeatingOption, error) {
	sel := r.db.builder().
		Select(heatingTable.columnNames()...).
		From(entsql.Table(tableHeatingOptions)).
		OrderBy("unit_model", "option_model")

	var out []entity.HeatingOption
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var h entity.HeatingOption
		if err := rows.Scan(&h.UnitModel, &h.OptionModel, &h.Price); err != nil {
			return err
		}
		out = append(out, h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list heating options: %w", err)
	}
	return out, nil
}

func (r *catalogRepository) ListHeaterKits(ctx context.Context) ([]entity.HeaterKit, error) {
	sel := r.db.builder().
		Select(heaterKitsTable.columnNames()...).
		From(entsql.Table(tableHeaterKits)).
		OrderBy("option_model")

	var out []entity.HeaterKit
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var k entity.HeaterKit
		if err := rows.Scan(&k.Heaters, &k.OptionModel, &k.Price); err != nil {
			return err
		}
		out = append(out, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list heater kits: %w", err)
	}
	return out, nil
}

// Snapshot reads all four reference tables.
func (r *catalogRepository) Snapshot(ctx context.Context) (entity.CatalogSnapshot, error) {
	var (
		snap entity.CatalogSnapshot
		err  error
	)
	if snap.Vehicles, err = r.ListVehicles(ctx); err != nil {
		return snap, err
	}
	if snap.Units, err = r.ListUnits(ctx); err != nil {
		return snap, err
	}
	if snap.HeatingOptions, err = r.ListHeatingOptions(ctx); err != nil {
		return snap, err
	}
	if snap.HeaterKits, err = r.ListHeaterKits(ctx); err != nil {
		return snap, err
	}
	r.logger.Debug("catalog.snapshot.ok",
		zap.Int("vehicles", len(snap.Vehicles)),
		zap.Int("units", len(snap.Units)),
		zap.Int("heating_options", len(snap.HeatingOptions)),
		zap.Int("heater_kits", len(snap.HeaterKits)),
	)
	return snap, nil
}

func (r *catalogRepository) query(ctx context.Context, sel *entsql.Selector, scan func(*entsql.Rows) error) error {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(&rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanVehicle(rows *entsql.Rows) (entity.CatalogVehicle, error) {
	var v entity.CatalogVehicle
	err := rows.Scan(&v.Brand, &v.Model, &v.CargoVolume, &v.ConversionPrice, &v.PlywoodPrice, &v.WheelArchPrice)
	return v, err
}

func scanUnit(rows *entsql.Rows) (entity.CatalogUnit, error) {
	var (
		u                          entity.CatalogUnit
		roadOnly, road230, road400 int
	)
	err := rows.Scan(
		&u.Model, &u.ProductLine, &u.Refrigerant, &u.ElectricalInstallation,
		&roadOnly, &road230, &road400,
		&u.ListPrice, &u.CoolingCapacity0C, &u.CoolingCapacityMinus20,
		&u.VanSize0C, &u.VanSizeMinus20, &u.Notes, &u.TemperatureRange,
	)
	u.RoadOnly, u.RoadAnd230V, u.RoadAnd400V = roadOnly != 0, road230 != 0, road400 != 0
	return u, err
}
