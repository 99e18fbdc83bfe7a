package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/offer-generator/constants"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// NewRecord builds the history row for a finished result. The pipeline
// never persists records itself; callers decide whether to keep them.
func NewRecord(res *Result, status constants.OfferStatus) *entity.OfferRecord {
	rec := &entity.OfferRecord{
		NetTotal:     res.Summary.NetTotal,
		Currency:     res.Summary.Currency,
		Status:       string(status),
		Offer:        res.Offer,
		Summary:      res.Summary,
		DocumentPath: res.DocumentPath,
	}
	for _, a := range res.Accessories {
		rec.Accessories = append(rec.Accessories, string(a))
	}
	if o := res.Offer; o != nil {
		rec.OfferNumber = o.OfferNumber
		rec.OfferDate = o.OfferDate
		rec.ClientName = o.Client.String("name")
		rec.Vehicle = strings.TrimSpace(o.Vehicle.String("brand") + " " + o.Vehicle.String("model"))
		rec.UnitModel = o.Unit.String("model")
	}
	return rec
}
