package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
	"github.com/joseph-ayodele/offer-generator/internal/repository"
)

const ducatoCompletion = `Sure, here is the offer:
{
  "client": {"name": "Chłodnia Sp. z o.o.", "address": "Poznań", "tax_id": "7781234567"},
  "vehicle": {"brand": "fiat", "model": " Ducato ", "cargo_volume": null, "conversion_price": "9 999", "plywood_price": 0, "wheel_arch_price": 0},
  "unit": {"model": "Zanotti ZB220", "list_price": "12 100"},
  "heating": {},
  "heater_kit": {}
}
Let me know if you need anything else.`

type recordingCompleter struct {
	reply string
	err   error
	calls int
	last  llm.CompletionRequest
}

func (c *recordingCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.calls++
	c.last = req
	return c.reply, c.err
}

type countingCatalog struct {
	Catalog
	vehicleLookups int
}

func (c *countingCatalog) GetVehicle(ctx context.Context, brand, model string) (*entity.CatalogVehicle, error) {
	c.vehicleLookups++
	return c.Catalog.GetVehicle(ctx, brand, model)
}

func seededCatalog(t *testing.T) repository.CatalogRepository {
	t.Helper()
	logger := zap.NewNop()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: filepath.Join(t.TempDir(), "catalog.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(logger) })
	require.NoError(t, db.Migrate(ctx, logger))
	require.NoError(t, repository.NewCatalogWriter(db, logger).ReplaceCatalog(ctx, entity.CatalogSnapshot{
		Vehicles: []entity.CatalogVehicle{{Brand: "Fiat", Model: "Ducato", CargoVolume: 13, ConversionPrice: 11000}},
		Units:    []entity.CatalogUnit{{Model: "Zanotti ZB220", ProductLine: "Zanotti", ListPrice: 12100}},
	}))
	return repository.NewCatalogRepository(db, logger)
}

func newTestProcessor(t *testing.T, catalog Catalog, completer llm.Completer, policy string) (*Processor, string) {
	t.Helper()
	dir := t.TempDir()
	assembler := document.NewAssembler(common.DocumentConfig{
		OutputDir:     dir,
		PhotoCacheDir: filepath.Join(dir, "cache"),
		CompanyName:   "Autoadaptacje",
	}, zap.NewNop())
	fixed := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	p := NewProcessor(zap.NewNop(), Config{
		Currency:             "PLN",
		AccessorySurcharge:   100,
		RequiredFieldsPolicy: policy,
		StructuredOutput:     true,
		Now:                  func() time.Time { return fixed },
	}, catalog, completer, assembler)
	return p, dir
}

func TestGenerate_DucatoZanotti(t *testing.T) {
	completer := &recordingCompleter{reply: ducatoCompletion}
	p, dir := newTestProcessor(t, seededCatalog(t), completer, common.PolicyWarn)

	res, err := p.Generate(context.Background(), Request{Text: "Fiat Ducato z agregatem Zanotti", Photos: []string{}})
	require.NoError(t, err)

	assert.Equal(t, 23100.0, res.Summary.NetTotal)
	assert.Equal(t, 11000.0, res.Offer.Vehicle.Number("conversion_price"))
	assert.Equal(t, 13.0, res.Offer.Vehicle.Number("cargo_volume"))
	assert.Equal(t, "2026-10-15", res.Offer.OfferDate)
	assert.True(t, strings.HasPrefix(res.Offer.OfferNumber, "OF/20261015/"))
	assert.Empty(t, res.Missing)
	assert.Equal(t, filepath.Dir(res.DocumentPath), dir)

	pages, err := document.VerifyPDF(res.DocumentPath)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, llm.SchemaName, completer.last.SchemaName)
	assert.Contains(t, completer.last.System, "Zanotti ZB220")
	assert.Contains(t, completer.last.User, "Fiat Ducato")
	for _, stage := range []constants.Stage{constants.StageSnapshot, constants.StageComplete, constants.StageParse, constants.StageCrossRef, constants.StageAggregate, constants.StageAssemble} {
		assert.Contains(t, res.Timings, stage)
	}
}

func TestGenerate_Accessories(t *testing.T) {
	p, _ := newTestProcessor(t, seededCatalog(t), &recordingCompleter{reply: ducatoCompletion}, common.PolicyWarn)

	res, err := p.Generate(context.Background(), Request{
		Text:        "offer",
		Accessories: []string{"side_door", "partition_none", "LED", "side_door", "jetpack"},
		Photos:      []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, []constants.Accessory{constants.SideDoor, constants.PartitionNone, constants.LEDLighting}, res.Accessories)
	assert.Equal(t, 200.0, res.Summary.Amount(entity.LineAccessories))
	assert.Equal(t, 23300.0, res.Summary.NetTotal)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "jetpack")
}

func TestGenerate_EmptyInput(t *testing.T) {
	completer := &recordingCompleter{reply: ducatoCompletion}
	p, _ := newTestProcessor(t, seededCatalog(t), completer, common.PolicyWarn)

	_, err := p.Generate(context.Background(), Request{Text: "  \n\t "})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeEmptyInput))
	assert.Zero(t, completer.calls)
}

func TestGenerate_UnknownVehicleHaltsBeforePricing(t *testing.T) {
	reply := strings.Replace(ducatoCompletion, `"model": " Ducato "`, `"model": "Doblo"`, 1)
	catalog := &countingCatalog{Catalog: seededCatalog(t)}
	p, dir := newTestProcessor(t, catalog, &recordingCompleter{reply: reply}, common.PolicyWarn)

	res, err := p.Generate(context.Background(), Request{Text: "Fiat Doblo", Photos: []string{}})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeVehicleNotInCatalog))
	assert.Equal(t, 1, catalog.vehicleLookups)
	assert.Empty(t, res.Summary.Lines)
	assert.Empty(t, res.DocumentPath)
	assert.NotContains(t, res.Timings, constants.StageAggregate)

	matches, _ := filepath.Glob(filepath.Join(dir, "*.pdf"))
	assert.Empty(t, matches)
}

func TestGenerate_CompletionErrors(t *testing.T) {
	cases := []struct {
		name      string
		completer *recordingCompleter
		code      string
	}{
		{"transport", &recordingCompleter{err: errors.New("connection reset")}, common.CodeCompletion},
		{"no object", &recordingCompleter{reply: "I cannot help with that."}, common.CodeMalformedResponse},
		{"bad json", &recordingCompleter{reply: `{"client": {"name": "x",}}`}, common.CodeInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newTestProcessor(t, seededCatalog(t), tc.completer, common.PolicyWarn)
			res, err := p.Generate(context.Background(), Request{Text: "offer"})
			require.Error(t, err)
			assert.Equal(t, tc.code, common.ErrorCode(err))
			assert.Nil(t, res.Offer)
		})
	}
}

func TestGenerate_RequiredFieldsPolicy(t *testing.T) {
	reply := strings.Replace(ducatoCompletion, `"tax_id": "7781234567"`, `"tax_id": ""`, 1)

	warn, _ := newTestProcessor(t, seededCatalog(t), &recordingCompleter{reply: reply}, common.PolicyWarn)
	res, err := warn.Generate(context.Background(), Request{Text: "offer", Photos: []string{}})
	require.NoError(t, err)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "client.tax_id", res.Missing[0].Field)
	assert.NotEmpty(t, res.DocumentPath)
	assert.Equal(t, 23100.0, res.Summary.NetTotal)

	block, _ := newTestProcessor(t, seededCatalog(t), &recordingCompleter{reply: reply}, common.PolicyBlock)
	res, err = block.Generate(context.Background(), Request{Text: "offer", Photos: []string{}})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeRequiredFieldMissing))
	assert.Empty(t, res.DocumentPath)
	assert.Equal(t, 23100.0, res.Summary.NetTotal)
}

func TestRebuild_KeepsEditedPrices(t *testing.T) {
	completer := &recordingCompleter{}
	catalog := &countingCatalog{Catalog: seededCatalog(t)}
	p, _ := newTestProcessor(t, catalog, completer, common.PolicyWarn)

	offer := &entity.Offer{
		Client:      entity.Section{"name": "A", "address": "B", "tax_id": "C"},
		Vehicle:     entity.Section{"brand": "Fiat", "model": "Ducato", "cargo_volume": 13.0, "conversion_price": 10500.0},
		Unit:        entity.Section{"model": "Zanotti ZB220", "list_price": 12000.0},
		Heating:     entity.Section{"option_model": "HG-220", "price": 1000.0},
		OfferNumber: "OF/20261001/ABCDEF",
	}
	res, err := p.Rebuild(context.Background(), RebuildRequest{Offer: offer, Accessories: []string{"meat_rails"}, Photos: []string{}})
	require.NoError(t, err)

	assert.Equal(t, 23600.0, res.Summary.NetTotal)
	assert.Equal(t, "OF/20261001/ABCDEF", res.Offer.OfferNumber)
	assert.Equal(t, entity.SchemaVersion, res.Offer.SchemaVersion)
	assert.Zero(t, completer.calls)
	assert.Zero(t, catalog.vehicleLookups)
	assert.Empty(t, offer.OfferDate, "input offer must not be modified")

	rec := NewRecord(res, constants.OfferStatusRebuilt)
	assert.Equal(t, "Fiat Ducato", rec.Vehicle)
	assert.Equal(t, []string{"meat_rails"}, rec.Accessories)
	assert.Equal(t, "REBUILT", rec.Status)
}

func TestRebuild_NilOffer(t *testing.T) {
	p, _ := newTestProcessor(t, seededCatalog(t), &recordingCompleter{}, common.PolicyWarn)
	_, err := p.Rebuild(context.Background(), RebuildRequest{})
	assert.True(t, common.HasCode(err, common.CodeEmptyInput))
}
