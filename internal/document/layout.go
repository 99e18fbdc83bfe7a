package document

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// Block names that are not offer sections.
const (
	BlockAccessories = "accessories"
	BlockCost        = "cost"
	BlockTotal       = "total"
)

// Row is one "Label: value" line of a block. Value may be empty.
type Row struct {
	Key   string
	Label string
	Value string
}

// Text returns the printed form of the row.
func (r Row) Text() string {
	if r.Value == "" {
		return r.Label
	}
	return r.Label + ": " + r.Value
}

// Block is a titled group of rows.
type Block struct {
	Name  string
	Title string
	Rows  []Row
}

// AllowsPrices reports whether price-bearing keys may appear in the block.
func (b Block) AllowsPrices() bool {
	return b.Name == BlockCost || b.Name == BlockTotal
}

// Layout is the renderer-independent content of a quote.
type Layout struct {
	OfferDate   string
	OfferNumber string
	Blocks      []Block
}

var (
	titleCaser   = cases.Title(language.English)
	moneyPrinter = message.NewPrinter(language.English)
)

// BuildLayout orders the offer into printable blocks: client, vehicle and
// unit always; heating and heater kit only when they carry data; accessories
// only when a priced option is selected; then the cost breakdown and total.
func BuildLayout(o *entity.Offer, summary entity.PriceSummary, accessories []constants.Accessory) Layout {
	l := Layout{OfferDate: o.OfferDate, OfferNumber: o.OfferNumber}

	for _, spec := range entity.OfferSchema() {
		sec := o.Section(spec.Name)
		optional := spec.Name == constants.SectionHeating || spec.Name == constants.SectionHeaterKit
		if optional && sec.IsEmpty() {
			continue
		}
		l.Blocks = append(l.Blocks, Block{
			Name:  spec.Name,
			Title: spec.Title,
			Rows:  SectionRows(spec, sec, false),
		})
	}

	if rows := accessoryRows(accessories); len(rows) > 0 {
		l.Blocks = append(l.Blocks, Block{Name: BlockAccessories, Title: "Accessories", Rows: rows})
	}

	cost := Block{Name: BlockCost, Title: "Cost Breakdown"}
	for _, line := range summary.Lines {
		cost.Rows = append(cost.Rows, Row{
			Key:   line.Category,
			Label: line.Label,
			Value: FormatMoney(line.Amount, summary.Currency),
		})
	}
	l.Blocks = append(l.Blocks, cost)
	l.Blocks = append(l.Blocks, Block{
		Name:  BlockTotal,
		Title: "Total",
		Rows:  []Row{{Key: "net_total", Label: "Net total", Value: FormatMoney(summary.NetTotal, summary.Currency)}},
	})
	return l
}

// SectionRows renders a section's fields: declared fields first in schema
// order, then undeclared keys sorted. Deny-listed keys are always dropped and
// price-bearing keys are dropped unless allowPrices is set, both at the top
// level and inside nested maps and lists.
func SectionRows(spec entity.SectionSpec, sec entity.Section, allowPrices bool) []Row {
	keys := make([]string, 0, len(sec))
	seen := make(map[string]struct{}, len(sec))
	for _, f := range spec.Fields {
		if _, ok := sec[f.Name]; ok {
			keys = append(keys, f.Name)
			seen[f.Name] = struct{}{}
		}
	}
	var extra []string
	for k := range sec {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	var rows []Row
	for _, k := range keys {
		if constants.IsHiddenField(k) || (!allowPrices && constants.IsPriceField(k)) {
			continue
		}
		v := sec[k]
		if _, isBool := v.(bool); !isBool && entity.IsBlank(v) {
			continue
		}
		value := entity.FlattenValue(v, allowPrices)
		if value == "" {
			continue
		}
		rows = append(rows, Row{Key: k, Label: Label(k), Value: value})
	}
	return rows
}

func accessoryRows(accessories []constants.Accessory) []Row {
	var rows []Row
	seen := make(map[constants.Accessory]struct{}, len(accessories))
	for _, a := range accessories {
		if _, dup := seen[a]; dup || a.IsNone() {
			continue
		}
		seen[a] = struct{}{}
		info, ok := constants.LookupAccessory(a)
		if !ok {
			continue
		}
		rows = append(rows, Row{Key: string(a), Label: info.Label})
	}
	return rows
}

// Label derives a display label from a field name: "cargo_volume" becomes
// "Cargo Volume".
func Label(key string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(key))
	return titleCaser.String(strings.Join(strings.Fields(s), " "))
}

// FormatMoney prints an amount with grouping and two decimals, e.g.
// "23,100.00 PLN".
func FormatMoney(amount float64, currency string) string {
	s := moneyPrinter.Sprintf("%.2f", amount)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
