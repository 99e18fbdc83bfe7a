package repository

import (
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type columnKind int

const (
	colText columnKind = iota
	colReal
	colFlag
)

type column struct {
	name string
	kind columnKind
}

type table struct {
	name    string
	columns []column
}

const (
	tableVehicles       = "vehicles"
	tableUnits          = "refrigeration_units"
	tableHeatingOptions = "heating_options"
	tableHeaterKits     = "heater_kits"
	tableOfferRecords   = "offer_records"
)

var (
	vehiclesTable = table{tableVehicles, []column{
		{"brand", colText}, {"model", colText}, {"cargo_volume", colReal},
		{"conversion_price", colReal}, {"plywood_price", colReal}, {"wheel_arch_price", colReal},
	}}
	unitsTable = table{tableUnits, []column{
		{"model", colText}, {"product_line", colText}, {"refrigerant", colText},
		{"electrical_installation", colText},
		{"road_only", colFlag}, {"road_and_230v", colFlag}, {"road_and_400v", colFlag},
		{"list_price", colReal},
		{"cooling_capacity_0c", colReal}, {"cooling_capacity_minus20c", colReal},
		{"van_size_0c", colReal}, {"van_size_minus20c", colReal},
		{"notes", colText}, {"temperature_range", colText},
	}}
	heatingTable = table{tableHeatingOptions, []column{
		{"unit_model", colText}, {"option_model", colText}, {"price", colReal},
	}}
	heaterKitsTable = table{tableHeaterKits, []column{
		{"heaters", colText}, {"option_model", colText}, {"price", colReal},
	}}
	offerRecordsTable = table{tableOfferRecords, []column{
		{"id", colText}, {"offer_number", colText}, {"offer_date", colText},
		{"client_name", colText}, {"vehicle", colText}, {"unit_model", colText},
		{"net_total", colReal}, {"currency", colText}, {"status", colText},
		{"payload", colText}, {"document_path", colText}, {"created_at", colText},
	}}

	catalogTables = []table{vehiclesTable, unitsTable, heatingTable, heaterKitsTable}
	allTables     = append(append([]table{}, catalogTables...), offerRecordsTable)
)

func (t table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

func (t table) createTable(d string) *entsql.TableBuilder {
	cols := make([]*entsql.ColumnBuilder, len(t.columns))
	for i, c := range t.columns {
		cb := entsql.Column(c.name)
		switch c.kind {
		case colReal:
			if d == dialect.Postgres {
				cb.Type("DOUBLE PRECISION")
			} else {
				cb.Type("REAL")
			}
			cb.Attr("NOT NULL DEFAULT 0")
		case colFlag:
			cb.Type("INTEGER").Attr("NOT NULL DEFAULT 0")
		default:
			cb.Type("TEXT").Attr("NOT NULL DEFAULT ''")
		}
		cols[i] = cb
	}
	b := entsql.Dialect(d).CreateTable(t.name).IfNotExists().Columns(cols...)
	if t.name == tableOfferRecords {
		b.PrimaryKey("id")
	}
	return b
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
