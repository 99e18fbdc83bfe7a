// Package app wires configuration, the catalog database, the completion
// client and the pipeline for the offerd and offergen binaries.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/catalog"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/document"
	"github.com/joseph-ayodele/offer-generator/internal/llm"
	"github.com/joseph-ayodele/offer-generator/internal/llm/openai"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
	repo "github.com/joseph-ayodele/offer-generator/internal/repository"
	"github.com/joseph-ayodele/offer-generator/internal/server"
)

// App holds the wired components. Offers is nil when PERSIST_OFFERS is off.
type App struct {
	Config    *common.Config
	Logger    *zap.Logger
	DB        *repo.DB
	Catalog   repo.CatalogRepository
	Offers    repo.OfferRepository
	Admin     *catalog.Service
	Processor *pipeline.Processor
	Service   *server.OfferService
}

// New opens the database and builds the pipeline. A missing API key does not
// fail here so catalog commands work without one; generation then reports
// CONFIG_ERROR.
func New(ctx context.Context, cfg *common.Config, logger *zap.Logger) (*App, error) {
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Catalog: repo.NewCatalogRepository(db, logger),
		Admin:   catalog.NewService(repo.NewCatalogWriter(db, logger), logger),
	}
	if cfg.Database.PersistOffers {
		a.Offers = repo.NewOfferRepository(db, logger)
	}

	a.Processor = pipeline.NewProcessor(logger, pipeline.Config{
		Currency:             cfg.Pricing.Currency,
		AccessorySurcharge:   cfg.Pricing.AccessorySurcharge,
		RequiredFieldsPolicy: cfg.Pricing.RequiredFieldsPolicy,
		DefaultPhotos:        cfg.Document.PhotoPaths,
		StructuredOutput:     cfg.LLM.StructuredOutput,
	}, a.Catalog, newCompleter(cfg.LLM, logger), document.NewAssembler(cfg.Document, logger))
	a.Service = server.NewOfferService(a.Processor, a.Catalog, a.Offers, logger)
	return a, nil
}

func newCompleter(cfg common.LLMConfig, logger *zap.Logger) llm.Completer {
	if cfg.APIKey == "" {
		logger.Warn("llm.client.disabled", zap.String("reason", "OPENAI_API_KEY is not set"))
		return llm.CompleterFunc(func(context.Context, llm.CompletionRequest) (string, error) {
			return "", common.NewAppError(common.CodeConfig, "OPENAI_API_KEY is required for generation", common.ErrInvalidInput)
		})
	}
	logger.Info("llm.client.ready", zap.String("model", cfg.Model))
	return openai.NewClient(openai.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		Model:            cfg.Model,
		Temperature:      cfg.Temperature,
		Timeout:          cfg.Timeout,
		MaxRetries:       cfg.MaxRetries,
		StructuredOutput: cfg.StructuredOutput,
	}, logger)
}

// Record persists a pipeline outcome when history is enabled. Failures before
// an offer was extracted are not kept.
func (a *App) Record(ctx context.Context, res *pipeline.Result, runErr error, status constants.OfferStatus) {
	if a.Offers == nil || res == nil || res.Offer == nil {
		return
	}
	if runErr != nil {
		status = constants.OfferStatusFailed
	}
	if err := a.Offers.Save(ctx, pipeline.NewRecord(res, status)); err != nil {
		common.LoggerFromContext(ctx, a.Logger).Warn("offers.persist.failed", zap.Error(err))
	}
}

func (a *App) Close() {
	a.DB.Close(a.Logger)
	_ = a.Logger.Sync()
}
