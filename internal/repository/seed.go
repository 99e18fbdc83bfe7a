package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// CatalogWriter replaces reference data. Only the catalog admin commands use it.
type CatalogWriter interface {
	ReplaceCatalog(ctx context.Context, snap entity.CatalogSnapshot) error
}

type catalogWriter struct {
	db     *DB
	logger *zap.Logger
}

func NewCatalogWriter(db *DB, logger *zap.Logger) CatalogWriter {
	return &catalogWriter{db: db, logger: logger}
}

// ReplaceCatalog truncates the four reference tables and inserts snap in one
// transaction.
func (w *catalogWriter) ReplaceCatalog(ctx context.Context, snap entity.CatalogSnapshot) (err error) {
	tx, err := w.db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				w.logger.Warn("catalog.replace.rollback_failed", zap.Error(rbErr))
			}
		}
	}()

	b := w.db.builder()
	for _, t := range catalogTables {
		q, args := b.Delete(t.name).Query()
		if err = tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("clear %s: %w", t.name, err)
		}
	}

	insert := func(t table, values ...any) error {
		q, args := b.Insert(t.name).Columns(t.columnNames()...).Values(values...).Query()
		return tx.Exec(ctx, q, args, nil)
	}
	for _, v := range snap.Vehicles {
		if err = insert(vehiclesTable, v.Brand, v.Model, v.CargoVolume, v.ConversionPrice, v.PlywoodPrice, v.WheelArchPrice); err != nil {
			return fmt.Errorf("insert vehicle %s %s: %w", v.Brand, v.Model, err)
		}
	}
	for _, u := range snap.Units {
		if err = insert(unitsTable,
			u.Model, u.ProductLine, u.Refrigerant, u.ElectricalInstallation,
			flag(u.RoadOnly), flag(u.RoadAnd230V), flag(u.RoadAnd400V),
			u.ListPrice, u.CoolingCapacity0C, u.CoolingCapacityMinus20,
			u.VanSize0C, u.VanSizeMinus20, u.Notes, u.TemperatureRange,
		); err != nil {
			return fmt.Errorf("insert unit %s: %w", u.Model, err)
		}
	}
	for _, h := range snap.HeatingOptions {
		if err = insert(heatingTable, h.UnitModel, h.OptionModel, h.Price); err != nil {
			return fmt.Errorf("insert heating option %s: %w", h.OptionModel, err)
		}
	}
	for _, k := range snap.HeaterKits {
		if err = insert(heaterKitsTable, k.Heaters, k.OptionModel, k.Price); err != nil {
			return fmt.Errorf("insert heater kit %s: %w", k.OptionModel, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fields := []zap.Field{zap.String("dialect", w.db.dialect)}
	for name, n := range snap.Counts() {
		fields = append(fields, zap.Int(name, n))
	}
	w.logger.Info("catalog.replace.ok", fields...)
	return nil
}
