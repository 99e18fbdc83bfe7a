package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/repository"
	"github.com/joseph-ayodele/offer-generator/internal/utils"
)

const (
	offersSheet    = "Offers"
	breakdownSheet = "Cost Breakdown"
	maxRecords     = 10000
)

// Service produces XLSX bytes for offer history exports.
type Service struct {
	offers repository.OfferRepository
	logger *zap.Logger
}

func NewService(offers repository.OfferRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{offers: offers, logger: logger}
}

// ExportOffersXLSX returns a workbook of stored offers whose offer date falls
// in the window, plus one cost-breakdown row per price line.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all offers.
func (s *Service) ExportOffersXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	all, err := s.offers.List(ctx, maxRecords)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	recs := make([]*entity.OfferRecord, 0, len(all))
	for _, r := range all {
		if inWindow(r.OfferDate, fromDate, toDate) {
			recs = append(recs, r)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", offersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(breakdownSheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Offer Number",
		"Offer Date",
		"Client",
		"Vehicle",
		"Refrigeration Unit",
		"Net Total",
		"Currency",
		"Status",
		"Document Path",
		"Created At",
	}
	writeRow(f, offersSheet, 1, toAny(headers))
	writeRow(f, breakdownSheet, 1, []any{"Offer Number", "Category", "Label", "Amount", "Currency"})

	row, lineRow := 2, 2
	for _, r := range recs {
		writeRow(f, offersSheet, row, []any{
			r.OfferNumber,
			r.OfferDate,
			r.ClientName,
			r.Vehicle,
			r.UnitModel,
			r.NetTotal,
			r.Currency,
			r.Status,
			r.DocumentPath,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
		row++
		for _, l := range r.Summary.Lines {
			writeRow(f, breakdownSheet, lineRow, []any{r.OfferNumber, l.Category, l.Label, l.Amount, r.Summary.Currency})
			lineRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(offersSheet, "A", "A", 22) // number
	_ = f.SetColWidth(offersSheet, "B", "B", 12) // date
	_ = f.SetColWidth(offersSheet, "C", "E", 28) // client, vehicle, unit
	_ = f.SetColWidth(offersSheet, "F", "H", 12) // totals
	_ = f.SetColWidth(offersSheet, "I", "I", 60) // path
	_ = f.SetColWidth(breakdownSheet, "A", "C", 22)

	if style, err := f.NewStyle(&excelize.Style{NumFmt: 4}); err == nil {
		_ = f.SetColStyle(offersSheet, "F", style)
		_ = f.SetColStyle(breakdownSheet, "D", style)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		zap.Int("rows", len(recs)),
		zap.Int("lines", lineRow-2),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}

// inWindow compares the offer date; records without a parseable date are
// kept only when no window is set.
func inWindow(offerDate string, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	d, err := utils.ParseYMD(offerDate)
	if err != nil {
		return false
	}
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
