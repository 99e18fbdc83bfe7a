package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/repository"
)

// ImportResult summarizes one catalog load.
type ImportResult struct {
	Source   string
	Counts   map[string]int
	Warnings []string
}

// Service is the admin path that replaces catalog contents.
type Service struct {
	writer repository.CatalogWriter
	logger *zap.Logger
}

func NewService(writer repository.CatalogWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{writer: writer, logger: logger}
}

// ImportFile loads an .xlsx workbook or a .yaml fixture and replaces the
// catalog with it. Nothing is written when the file fails validation.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var snap entity.CatalogSnapshot
	var warnings []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		snap, warnings, err = ReadXLSX(f)
	case ".yaml", ".yml":
		snap, err = ReadYAML(f)
	default:
		return nil, common.NewAppError(common.CodeCatalog, "unsupported catalog file type", common.ErrInvalidInput).WithDetail(path)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeCatalog, "catalog file is unreadable", err).WithDetail(path)
	}
	res, err := s.replace(ctx, path, snap, warnings)
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog.import.ok",
		zap.String("source", path),
		zap.Any("counts", res.Counts),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Seed replaces the catalog with the built-in demo data.
func (s *Service) Seed(ctx context.Context) (*ImportResult, error) {
	snap, err := DemoSnapshot()
	if err != nil {
		return nil, common.NewAppError(common.CodeCatalog, "demo catalog is unreadable", err)
	}
	res, err := s.replace(ctx, "demo", snap, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog.seed.ok", zap.Any("counts", res.Counts))
	return res, nil
}

func (s *Service) replace(ctx context.Context, source string, snap entity.CatalogSnapshot, warnings []string) (*ImportResult, error) {
	if err := Validate(snap); err != nil {
		return nil, err
	}
	if err := s.writer.ReplaceCatalog(ctx, snap); err != nil {
		return nil, common.NewAppError(common.CodeCatalog, "catalog write failed", err)
	}
	for _, w := range warnings {
		s.logger.Warn("catalog.import.warning", zap.String("source", source), zap.String("warning", w))
	}
	return &ImportResult{Source: source, Counts: snap.Counts(), Warnings: warnings}, nil
}

// Validate checks keys and prices. Vehicle (brand, model) pairs and unit
// models must be unique under the same case-insensitive comparison the
// cross-reference uses.
func Validate(snap entity.CatalogSnapshot) error {
	v := common.NewValidator()
	vehicles := make(map[string]int, len(snap.Vehicles))
	for i, veh := range snap.Vehicles {
		prefix := fmt.Sprintf("vehicles[%d]", i)
		v.Field(prefix+".brand", veh.Brand, common.Required)
		v.Field(prefix+".model", veh.Model, common.Required)
		v.Field(prefix+".cargo_volume", veh.CargoVolume, nonNegative)
		v.Field(prefix+".conversion_price", veh.ConversionPrice, nonNegative)
		v.Field(prefix+".plywood_price", veh.PlywoodPrice, nonNegative)
		v.Field(prefix+".wheel_arch_price", veh.WheelArchPrice, nonNegative)
		key := foldKey(veh.Brand) + "|" + foldKey(veh.Model)
		if first, dup := vehicles[key]; dup {
			v.Field(prefix, key, duplicateOf(first))
		}
		vehicles[key] = i
	}
	units := make(map[string]int, len(snap.Units))
	for i, u := range snap.Units {
		prefix := fmt.Sprintf("units[%d]", i)
		v.Field(prefix+".model", u.Model, common.Required)
		v.Field(prefix+".list_price", u.ListPrice, nonNegative)
		key := foldKey(u.Model)
		if first, dup := units[key]; dup {
			v.Field(prefix, key, duplicateOf(first))
		}
		units[key] = i
	}
	for i, h := range snap.HeatingOptions {
		v.Field(fmt.Sprintf("heating_options[%d].option_model", i), h.OptionModel, common.Required)
		v.Field(fmt.Sprintf("heating_options[%d].price", i), h.Price, nonNegative)
	}
	for i, k := range snap.HeaterKits {
		v.Field(fmt.Sprintf("heater_kits[%d].option_model", i), k.OptionModel, common.Required)
		v.Field(fmt.Sprintf("heater_kits[%d].price", i), k.Price, nonNegative)
	}
	if v.HasErrors() {
		return common.NewAppError(common.CodeCatalog, "catalog is invalid", common.ErrValidation).WithDetail(v.ErrorMessage())
	}
	return nil
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nonNegative(field string, value any) *common.ValidationError {
	if f, ok := value.(float64); ok && f < 0 {
		return &common.ValidationError{Field: field, Value: value, Message: "must not be negative"}
	}
	return nil
}

func duplicateOf(first int) common.ValidationRule {
	return func(field string, value any) *common.ValidationError {
		return &common.ValidationError{Field: field, Value: value, Message: fmt.Sprintf("duplicates entry %d", first)}
	}
}
