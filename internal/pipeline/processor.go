package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
	"github.com/joseph-ayodele/offer-generator/internal/pricing"
)

// Catalog is the read-only catalog view the pipeline needs.
type Catalog interface {
	pricing.Catalog
	Snapshot(ctx context.Context) (entity.CatalogSnapshot, error)
}

// Assembler renders a layout to a document file.
type Assembler interface {
	Assemble(ctx context.Context, req document.AssembleRequest) (string, error)
}

// Config holds behavior flags for the processor.
type Config struct {
	Currency             string
	AccessorySurcharge   float64
	RequiredFieldsPolicy string   // warn (default) or block
	DefaultPhotos        []string // used when a request carries no photo list
	StructuredOutput     bool
	Now                  func() time.Time
}

// Request is one generation request. It replaces any session state: every
// input the pipeline reads is here.
type Request struct {
	Text        string
	Accessories []string
	// Photos nil selects the configured defaults; an empty non-nil slice
	// renders no photos.
	Photos     []string
	LogoPath   string
	OutputPath string
}

// RebuildRequest re-prices and re-renders an edited offer.
type RebuildRequest struct {
	Offer       *entity.Offer
	Accessories []string
	Photos      []string
	LogoPath    string
	OutputPath  string
}

// Result is everything produced for one request.
type Result struct {
	RequestID    string
	Offer        *entity.Offer
	Summary      entity.PriceSummary
	Accessories  []constants.Accessory
	Warnings     []string
	Missing      []entity.MissingField
	DocumentPath string
	Timings      Timings
	Completion   string
}

// Timings records how long each stage took.
type Timings map[constants.Stage]time.Duration

// Processor coordinates completion, parsing, cross-reference, pricing and
// document assembly.
type Processor struct {
	Logger     *zap.Logger
	Cfg        Config
	Catalog    Catalog
	Completer  llm.Completer
	CrossRef   *pricing.CrossReferencer
	Aggregator *pricing.Aggregator
	Assembler  Assembler
}

func NewProcessor(logger *zap.Logger, cfg Config, catalog Catalog, completer llm.Completer, assembler Assembler) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "PLN"
	}
	if cfg.RequiredFieldsPolicy == "" {
		cfg.RequiredFieldsPolicy = common.PolicyWarn
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Processor{
		Logger:     logger,
		Cfg:        cfg,
		Catalog:    catalog,
		Completer:  completer,
		CrossRef:   pricing.NewCrossReferencer(catalog, logger),
		Aggregator: pricing.NewAggregator(cfg.Currency, cfg.AccessorySurcharge),
		Assembler:  assembler,
	}
}

// Generate runs the full pipeline for free-form offer text. On failure the
// partially filled result is returned with the error.
func (p *Processor) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, reqID := common.EnsureRequestID(ctx)
	logger := common.LoggerFromContext(ctx, p.Logger)
	ctx = common.WithLogger(ctx, logger)
	res := &Result{RequestID: reqID, Timings: Timings{}}

	start := time.Now()
	text := strings.TrimSpace(req.Text)
	if text == "" {
		err := common.NewAppError(common.CodeEmptyInput, "no offer text supplied", common.ErrInvalidInput)
		logger.Warn("pipeline.validate.failed", zap.String("code", common.CodeEmptyInput))
		return res, err
	}
	res.Accessories, res.Warnings = ParseAccessories(req.Accessories)
	res.Timings[constants.StageValidate] = time.Since(start)

	logger.Info("pipeline.generate.start",
		zap.Int("text_chars", len([]rune(text))),
		zap.Int("accessories", len(res.Accessories)))

	start = time.Now()
	snap, err := p.Catalog.Snapshot(ctx)
	res.Timings[constants.StageSnapshot] = time.Since(start)
	if err != nil {
		return res, p.fail(logger, constants.StageSnapshot, common.NewAppError(common.CodeCatalog, "catalog snapshot failed", err))
	}

	start = time.Now()
	creq := llm.CompletionRequest{
		System: llm.BuildSystemPrompt(llm.PromptInput{
			Catalog:  snap,
			Today:    p.Cfg.Now().Format(time.DateOnly),
			Currency: p.Cfg.Currency,
		}),
		User: llm.BuildUserPrompt(text),
	}
	if p.Cfg.StructuredOutput {
		creq.SchemaName = llm.SchemaName
		creq.Schema = llm.BuildOfferJSONSchema()
	}
	res.Timings[constants.StagePrompt] = time.Since(start)

	start = time.Now()
	raw, err := p.Completer.Complete(ctx, creq)
	res.Timings[constants.StageComplete] = time.Since(start)
	if err != nil {
		if common.ErrorCode(err) == "" {
			err = common.NewAppError(common.CodeCompletion, "completion failed", fmt.Errorf("%w: %w", common.ErrUpstream, err))
		}
		return res, p.fail(logger, constants.StageComplete, err)
	}
	res.Completion = raw

	start = time.Now()
	parsed, err := llm.ParseOffer(raw)
	res.Timings[constants.StageParse] = time.Since(start)
	if err != nil {
		return res, p.fail(logger, constants.StageParse, err)
	}
	if len(parsed.Adjustments) > 0 {
		logger.Debug("pipeline.parse.adjusted", zap.Strings("adjustments", parsed.Adjustments))
	}
	res.Offer = parsed.Offer

	start = time.Now()
	xref, err := p.CrossRef.Apply(ctx, parsed.Offer)
	res.Timings[constants.StageCrossRef] = time.Since(start)
	if err != nil {
		if common.HasCode(err, common.CodeVehicleNotInCatalog) {
			res.Warnings = append(res.Warnings, err.Error())
		}
		return res, p.fail(logger, constants.StageCrossRef, err)
	}
	res.Offer = xref.Offer
	res.Warnings = append(res.Warnings, xref.Warnings...)

	if err := p.finish(ctx, logger, res, req.Photos, req.LogoPath, req.OutputPath); err != nil {
		return res, err
	}
	logger.Info("pipeline.generate.ok",
		zap.String("offer_number", res.Offer.OfferNumber),
		zap.Float64("net_total", res.Summary.NetTotal),
		zap.Int("warnings", len(res.Warnings)),
		zap.String("document", res.DocumentPath))
	return res, nil
}

// Rebuild re-prices and re-renders an offer the user edited. No completion
// or cross-reference runs, so edited prices are kept.
func (p *Processor) Rebuild(ctx context.Context, req RebuildRequest) (*Result, error) {
	ctx, reqID := common.EnsureRequestID(ctx)
	logger := common.LoggerFromContext(ctx, p.Logger)
	ctx = common.WithLogger(ctx, logger)
	res := &Result{RequestID: reqID, Timings: Timings{}}

	if req.Offer == nil {
		return res, common.NewAppError(common.CodeEmptyInput, "no offer supplied", common.ErrInvalidInput)
	}
	res.Offer = req.Offer.Clone()
	if res.Offer.SchemaVersion == "" {
		res.Offer.SchemaVersion = entity.SchemaVersion
	}
	res.Accessories, res.Warnings = ParseAccessories(req.Accessories)

	if err := p.finish(ctx, logger, res, req.Photos, req.LogoPath, req.OutputPath); err != nil {
		return res, err
	}
	logger.Info("pipeline.rebuild.ok",
		zap.String("offer_number", res.Offer.OfferNumber),
		zap.Float64("net_total", res.Summary.NetTotal))
	return res, nil
}

// finish aggregates, applies the required-fields policy, stamps date and
// number, and assembles the document.
func (p *Processor) finish(ctx context.Context, logger *zap.Logger, res *Result, photos []string, logo, out string) error {
	start := time.Now()
	res.Summary, res.Missing = p.Aggregator.Aggregate(res.Offer, res.Accessories)
	res.Timings[constants.StageAggregate] = time.Since(start)
	for _, m := range res.Missing {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", m.Field, m.Message))
	}
	if len(res.Missing) > 0 {
		logger.Warn("pipeline.aggregate.missing_fields", zap.Int("count", len(res.Missing)))
		if p.Cfg.RequiredFieldsPolicy == common.PolicyBlock {
			fields := make([]string, len(res.Missing))
			for i, m := range res.Missing {
				fields[i] = m.Field
			}
			err := common.NewAppError(common.CodeRequiredFieldMissing, "identifying fields are missing", common.ErrValidation).
				WithDetail(strings.Join(fields, ","))
			return p.fail(logger, constants.StageAggregate, err)
		}
	}

	now := p.Cfg.Now()
	if strings.TrimSpace(res.Offer.OfferDate) == "" {
		res.Offer.OfferDate = now.Format(time.DateOnly)
	}
	if strings.TrimSpace(res.Offer.OfferNumber) == "" {
		res.Offer.OfferNumber = NewOfferNumber(now)
	}

	if p.Assembler == nil {
		return nil
	}
	if photos == nil {
		photos = p.Cfg.DefaultPhotos
	}
	start = time.Now()
	path, err := p.Assembler.Assemble(ctx, document.AssembleRequest{
		Layout:     document.BuildLayout(res.Offer, res.Summary, res.Accessories),
		Photos:     photos,
		LogoPath:   logo,
		OutputPath: out,
	})
	res.Timings[constants.StageAssemble] = time.Since(start)
	if err != nil {
		if common.ErrorCode(err) == "" {
			err = common.NewAppError(common.CodeDocumentWrite, "document assembly failed", err)
		}
		return p.fail(logger, constants.StageAssemble, err)
	}
	res.DocumentPath = path
	return nil
}

func (p *Processor) fail(logger *zap.Logger, stage constants.Stage, err error) error {
	fields := []zap.Field{zap.String("stage", string(stage)), zap.String("code", common.ErrorCode(err)), zap.Error(err)}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Detail != "" {
		fields = append(fields, zap.String("detail", appErr.Detail))
	}
	logger.Error("pipeline."+string(stage)+".failed", fields...)
	return err
}

// NewOfferNumber builds "OF/YYYYMMDD/XXXXXX".
func NewOfferNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("OF/%s/%s", now.Format("20060102"), strings.ToUpper(id[:6]))
}

// ParseAccessories canonicalizes free-form accessory names. Unknown names
// are dropped and reported as warnings.
func ParseAccessories(in []string) ([]constants.Accessory, []string) {
	var out []constants.Accessory
	var warnings []string
	seen := make(map[constants.Accessory]struct{}, len(in))
	for _, raw := range in {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		a, ok := constants.CanonicalizeAccessory(raw)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown accessory %q ignored", raw))
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, warnings
}
