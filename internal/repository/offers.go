package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// OfferRepository stores generated offers for later lookup and regeneration.
type OfferRepository interface {
	Save(ctx context.Context, rec *entity.OfferRecord) error
	Get(ctx context.Context, id uuid.UUID) (*entity.OfferRecord, error)
	List(ctx context.Context, limit int) ([]*entity.OfferRecord, error)
}

// createdAtLayout is fixed width so text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type offerRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewOfferRepository(db *DB, logger *zap.Logger) OfferRepository {
	return &offerRepository{
		db:     db,
		logger: logger,
	}
}

type offerPayload struct {
	Offer       *entity.Offer       `json:"offer"`
	Summary     entity.PriceSummary `json:"summary"`
	Accessories []string            `json:"accessories"`
}

func (r *offerRepository) Save(ctx context.Context, rec *entity.OfferRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(offerPayload{Offer: rec.Offer, Summary: rec.Summary, Accessories: rec.Accessories})
	if err != nil {
		return fmt.Errorf("encode offer payload: %w", err)
	}

	q, args := r.db.builder().
		Insert(tableOfferRecords).
		Columns(offerRecordsTable.columnNames()...).
		Values(
			rec.ID.String(), rec.OfferNumber, rec.OfferDate,
			rec.ClientName, rec.Vehicle, rec.UnitModel,
			rec.NetTotal, rec.Currency, rec.Status,
			string(payload), rec.DocumentPath, rec.CreatedAt.UTC().Format(createdAtLayout),
		).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("offers.save.failed", zap.String("offer_id", rec.ID.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	r.logger.Info("offers.save.ok",
		zap.String("offer_id", rec.ID.String()),
		zap.String("offer_number", rec.OfferNumber),
		zap.Float64("net_total", rec.NetTotal),
	)
	return nil
}

func (r *offerRepository) Get(ctx context.Context, id uuid.UUID) (*entity.OfferRecord, error) {
	sel := r.db.builder().
		Select(offerRecordsTable.columnNames()...).
		From(entsql.Table(tableOfferRecords)).
		Where(entsql.EQ("id", id.String())).
		Limit(1)
	recs, err := r.scan(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("offer %s: %w", id, common.ErrNotFound)
	}
	return recs[0], nil
}

func (r *offerRepository) List(ctx context.Context, limit int) ([]*entity.OfferRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	sel := r.db.builder().
		Select(offerRecordsTable.columnNames()...).
		From(entsql.Table(tableOfferRecords)).
		OrderBy(entsql.Desc("created_at")).
		Limit(limit)
	return r.scan(ctx, sel)
}

func (r *offerRepository) scan(ctx context.Context, sel *entsql.Selector) ([]*entity.OfferRecord, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.OfferRecord
	for rows.Next() {
		var (
			rec             entity.OfferRecord
			id, payload, at string
		)
		if err := rows.Scan(
			&id, &rec.OfferNumber, &rec.OfferDate,
			&rec.ClientName, &rec.Vehicle, &rec.UnitModel,
			&rec.NetTotal, &rec.Currency, &rec.Status,
			&payload, &rec.DocumentPath, &at,
		); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("offer id %q: %w", id, err)
		}
		rec.ID = parsed
		rec.CreatedAt, _ = time.Parse(createdAtLayout, at)

		var p offerPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			r.logger.Warn("offers.scan.payload_invalid", zap.String("offer_id", id), zap.Error(err))
		} else {
			rec.Offer, rec.Summary, rec.Accessories = p.Offer, p.Summary, p.Accessories
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
