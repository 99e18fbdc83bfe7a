package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
	"github.com/joseph-ayodele/offer-generator/internal/export"
	"github.com/joseph-ayodele/offer-generator/internal/pipeline"
	"github.com/joseph-ayodele/offer-generator/internal/repository"
)

// GenerateInput is a remote generation request. Paths are not accepted from
// callers; photos, logo and output location come from configuration.
type GenerateInput struct {
	Text        string   `json:"text"`
	Accessories []string `json:"accessories"`
}

// RebuildInput re-renders either an edited offer or a stored one by id.
type RebuildInput struct {
	ID          string        `json:"id"`
	Offer       *entity.Offer `json:"offer"`
	Accessories []string      `json:"accessories"`
}

// OfferResponse is returned by generate and rebuild on both transports.
type OfferResponse struct {
	RequestID    string                `json:"request_id"`
	RecordID     string                `json:"record_id,omitempty"`
	Offer        *entity.Offer         `json:"offer"`
	Summary      entity.PriceSummary   `json:"summary"`
	Warnings     []string              `json:"warnings"`
	Missing      []entity.MissingField `json:"missing,omitempty"`
	DocumentPath string                `json:"document_path"`
	DocumentName string                `json:"document_name"`
	TimingsMS    map[string]int64      `json:"timings_ms"`
}

// OfferService is the transport-independent core behind gRPC and HTTP.
type OfferService struct {
	processor *pipeline.Processor
	catalog   repository.CatalogRepository
	offers    repository.OfferRepository
	export    *export.Service
	logger    *zap.Logger
}

// NewOfferService wires the service. offers may be nil, which disables
// history: nothing is saved and history lookups report not found.
func NewOfferService(processor *pipeline.Processor, catalog repository.CatalogRepository, offers repository.OfferRepository, logger *zap.Logger) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OfferService{processor: processor, catalog: catalog, offers: offers, logger: logger}
	if offers != nil {
		s.export = export.NewService(offers, logger)
	}
	return s
}

func (s *OfferService) Generate(ctx context.Context, in GenerateInput) (*OfferResponse, error) {
	res, err := s.processor.Generate(ctx, pipeline.Request{
		Text:        in.Text,
		Accessories: in.Accessories,
	})
	return s.respond(ctx, res, err, constants.OfferStatusGenerated)
}

func (s *OfferService) Rebuild(ctx context.Context, in RebuildInput) (*OfferResponse, error) {
	offer, accessories := in.Offer, in.Accessories
	if offer == nil {
		if strings.TrimSpace(in.ID) == "" {
			return nil, common.NewAppError(common.CodeEmptyInput, "offer or id is required", common.ErrInvalidInput)
		}
		rec, err := s.GetOffer(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		offer = rec.Offer
		if accessories == nil {
			accessories = rec.Accessories
		}
	}
	res, err := s.processor.Rebuild(ctx, pipeline.RebuildRequest{Offer: offer, Accessories: accessories})
	return s.respond(ctx, res, err, constants.OfferStatusRebuilt)
}

// respond persists the outcome when history is enabled and shapes the reply.
// Failures that got as far as an extracted offer are kept as FAILED records.
func (s *OfferService) respond(ctx context.Context, res *pipeline.Result, runErr error, status constants.OfferStatus) (*OfferResponse, error) {
	if res == nil {
		return nil, runErr
	}
	logger := common.LoggerFromContext(common.WithRequestID(ctx, res.RequestID), s.logger)

	var recordID string
	if s.offers != nil && res.Offer != nil {
		if runErr != nil {
			status = constants.OfferStatusFailed
		}
		rec := pipeline.NewRecord(res, status)
		if err := s.offers.Save(ctx, rec); err != nil {
			logger.Warn("offers.persist.failed", zap.Error(err))
		} else {
			recordID = rec.ID.String()
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	out := &OfferResponse{
		RequestID:    res.RequestID,
		RecordID:     recordID,
		Offer:        res.Offer,
		Summary:      res.Summary,
		Warnings:     res.Warnings,
		Missing:      res.Missing,
		DocumentPath: res.DocumentPath,
		TimingsMS:    make(map[string]int64, len(res.Timings)),
	}
	if res.DocumentPath != "" {
		out.DocumentName = filepath.Base(res.DocumentPath)
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	for stage, d := range res.Timings {
		out.TimingsMS[string(stage)] = d.Milliseconds()
	}
	return out, nil
}

// GetOffer loads a stored record by id.
func (s *OfferService) GetOffer(ctx context.Context, id string) (*entity.OfferRecord, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("offer id %q: %w", id, common.ErrInvalidInput)
	}
	if s.offers == nil {
		return nil, fmt.Errorf("offer history is disabled: %w", common.ErrNotFound)
	}
	return s.offers.Get(ctx, uid)
}

func (s *OfferService) ListOffers(ctx context.Context, limit int) ([]*entity.OfferRecord, error) {
	if s.offers == nil {
		return []*entity.OfferRecord{}, nil
	}
	return s.offers.List(ctx, limit)
}

func (s *OfferService) ListVehicles(ctx context.Context) ([]entity.CatalogVehicle, error) {
	vs, err := s.catalog.ListVehicles(ctx)
	if err != nil {
		return nil, common.NewAppError(common.CodeCatalog, "list vehicles failed", err)
	}
	return vs, nil
}

func (s *OfferService) ListUnits(ctx context.Context) ([]entity.CatalogUnit, error) {
	us, err := s.catalog.ListUnits(ctx)
	if err != nil {
		return nil, common.NewAppError(common.CodeCatalog, "list units failed", err)
	}
	return us, nil
}

// Export returns the offer history workbook for an optional YYYY-MM-DD window.
func (s *OfferService) Export(ctx context.Context, from, to string) ([]byte, error) {
	if s.export == nil {
		return nil, fmt.Errorf("offer history is disabled: %w", common.ErrNotFound)
	}
	fromPtr, err := parseDate(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date: %w", common.ErrInvalidInput)
	}
	toPtr, err := parseDate(to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date: %w", common.ErrInvalidInput)
	}
	if fromPtr != nil && toPtr != nil && toPtr.Before(*fromPtr) {
		return nil, fmt.Errorf("to is before from: %w", common.ErrInvalidInput)
	}
	return s.export.ExportOffersXLSX(ctx, fromPtr, toPtr)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// errorBody is the payload shared by HTTP error responses and logs.
type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func newErrorBody(err error) errorBody {
	body := errorBody{Error: err.Error(), Code: common.ErrorCode(err)}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Detail = appErr.Detail
	}
	return body
}
