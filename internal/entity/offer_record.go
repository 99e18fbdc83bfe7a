package entity

import (
	"time"

	"github.com/google/uuid"
)

// OfferRecord is a generated offer kept in the history table.
type OfferRecord struct {
	ID           uuid.UUID    `json:"id"`
	OfferNumber  string       `json:"offer_number"`
	OfferDate    string       `json:"offer_date"`
	ClientName   string       `json:"client_name"`
	Vehicle      string       `json:"vehicle"`
	UnitModel    string       `json:"unit_model"`
	NetTotal     float64      `json:"net_total"`
	Currency     string       `json:"currency"`
	Status       string       `json:"status"`
	Offer        *Offer       `json:"offer"`
	Summary      PriceSummary `json:"summary"`
	Accessories  []string     `json:"accessories"`
	DocumentPath string       `json:"document_path"`
	CreatedAt    time.Time    `json:"created_at"`
}
