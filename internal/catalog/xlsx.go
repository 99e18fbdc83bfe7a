package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/utils"
)

// ReadXLSX loads a catalog workbook. Sheets and headers are matched by name
// in English or Polish; unknown sheets and columns are reported as warnings.
func ReadXLSX(r io.Reader) (entity.CatalogSnapshot, []string, error) {
	var snap entity.CatalogSnapshot
	f, err := excelize.OpenReader(r)
	if err != nil {
		return snap, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var warnings []string
	found := 0
	for _, sheet := range f.GetSheetList() {
		kind, ok := sheetAliases[utils.KeyFold(sheet)]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("sheet %q ignored", sheet))
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return snap, warnings, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		records, w := sheetRecords(sheet, kind, rows)
		warnings = append(warnings, w...)
		for i, rec := range records {
			if err := appendRecord(&snap, kind, rec); err != nil {
				return snap, warnings, fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
			}
		}
		found++
	}
	if found == 0 {
		return snap, warnings, fmt.Errorf("workbook has no catalog sheets")
	}
	return snap, warnings, nil
}

// sheetRecords maps each data row to field -> cell text. Blank rows are skipped.
func sheetRecords(sheet, kind string, rows [][]string) ([]map[string]string, []string) {
	if len(rows) == 0 {
		return nil, nil
	}
	var warnings []string
	fields := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if strings.TrimSpace(h) == "" {
			continue
		}
		field, ok := resolveColumn(kind, h)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("sheet %q: column %q ignored", sheet, h))
			continue
		}
		fields[i] = field
	}

	var out []map[string]string
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(fields))
		blank := true
		for i, cell := range row {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			rec[fields[i]] = cell
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out, warnings
}

func appendRecord(snap *entity.CatalogSnapshot, kind string, rec map[string]string) error {
	var p cellParser
	switch kind {
	case SheetVehicles:
		snap.Vehicles = append(snap.Vehicles, entity.CatalogVehicle{
			Brand:           rec["brand"],
			Model:           rec["model"],
			CargoVolume:     p.number(rec, "cargo_volume"),
			ConversionPrice: p.number(rec, "conversion_price"),
			PlywoodPrice:    p.number(rec, "plywood_price"),
			WheelArchPrice:  p.number(rec, "wheel_arch_price"),
		})
	case SheetUnits:
		snap.Units = append(snap.Units, entity.CatalogUnit{
			Model:                  rec["model"],
			ProductLine:            rec["product_line"],
			Refrigerant:            rec["refrigerant"],
			ElectricalInstallation: rec["electrical_installation"],
			RoadOnly:               p.flag(rec, "road_only"),
			RoadAnd230V:            p.flag(rec, "road_and_230v"),
			RoadAnd400V:            p.flag(rec, "road_and_400v"),
			ListPrice:              p.number(rec, "list_price"),
			CoolingCapacity0C:      p.number(rec, "cooling_capacity_0c"),
			CoolingCapacityMinus20: p.number(rec, "cooling_capacity_minus20c"),
			VanSize0C:              p.number(rec, "van_size_0c"),
			VanSizeMinus20:         p.number(rec, "van_size_minus20c"),
			Notes:                  rec["notes"],
			TemperatureRange:       rec["temperature_range"],
		})
	case SheetHeatingOptions:
		snap.HeatingOptions = append(snap.HeatingOptions, entity.HeatingOption{
			UnitModel:   rec["unit_model"],
			OptionModel: rec["option_model"],
			Price:       p.number(rec, "price"),
		})
	case SheetHeaterKits:
		snap.HeaterKits = append(snap.HeaterKits, entity.HeaterKit{
			Heaters:     rec["heaters"],
			OptionModel: rec["option_model"],
			Price:       p.number(rec, "price"),
		})
	}
	return p.err
}

// cellParser keeps the first conversion error.
type cellParser struct{ err error }

func (p *cellParser) number(rec map[string]string, field string) float64 {
	raw := rec[field]
	if raw == "" || raw == "-" {
		return 0
	}
	v, ok := entity.ParseAmount(raw)
	if !ok && p.err == nil {
		p.err = fmt.Errorf("%s: %q is not a number", field, raw)
	}
	return v
}

func (p *cellParser) flag(rec map[string]string, field string) bool {
	if strings.ContainsAny(rec[field], "✓✔") {
		return true
	}
	switch utils.KeyFold(rec[field]) {
	case "", "0", "nie", "no", "n", "false", "brak":
		return false
	case "1", "tak", "yes", "y", "x", "true", "t":
		return true
	}
	if p.err == nil {
		p.err = fmt.Errorf("%s: %q is not a yes/no value", field, rec[field])
	}
	return false
}

// WriteXLSX writes the catalog as a workbook with canonical headers, one
// sheet per table. The output is accepted by ReadXLSX.
func WriteXLSX(w io.Writer, snap entity.CatalogSnapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, kind := range sheetOrder {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", kind); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(kind); err != nil {
			return err
		}
		headers := sheetHeaders[kind]
		for c, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			_ = f.SetCellValue(kind, cell, h)
		}
		for r, row := range sheetRows(snap, kind) {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				_ = f.SetCellValue(kind, cell, v)
			}
		}
		_ = f.SetColWidth(kind, "A", "B", 22)
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func sheetRows(snap entity.CatalogSnapshot, kind string) [][]any {
	var rows [][]any
	switch kind {
	case SheetVehicles:
		for _, v := range snap.Vehicles {
			rows = append(rows, []any{v.Brand, v.Model, v.CargoVolume, v.ConversionPrice, v.PlywoodPrice, v.WheelArchPrice})
		}
	case SheetUnits:
		for _, u := range snap.Units {
			rows = append(rows, []any{
				u.Model, u.ProductLine, u.Refrigerant, u.ElectricalInstallation,
				yesNo(u.RoadOnly), yesNo(u.RoadAnd230V), yesNo(u.RoadAnd400V), u.ListPrice,
				u.CoolingCapacity0C, u.CoolingCapacityMinus20, u.VanSize0C, u.VanSizeMinus20,
				u.Notes, u.TemperatureRange,
			})
		}
	case SheetHeatingOptions:
		for _, h := range snap.HeatingOptions {
			rows = append(rows, []any{h.UnitModel, h.OptionModel, h.Price})
		}
	case SheetHeaterKits:
		for _, k := range snap.HeaterKits {
			rows = append(rows, []any{k.Heaters, k.OptionModel, k.Price})
		}
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
