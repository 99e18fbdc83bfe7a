package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// Letters that do not decompose into base + combining mark.
var foldReplacer = strings.NewReplacer(
	"ł", "l", "Ł", "L",
	"ß", "ss", "ø", "o", "Ø", "O",
	"\u00a0", " ", "–", "-", "—", "-",
	"„", "\"", "”", "\"", "“", "\"",
	"³", "3", "²", "2", "°", "",
)

// FoldASCII strips diacritics: "Chłodnia Poznań" becomes "Chlodnia Poznan".
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// KeyFold reduces a header or name to lowercase ASCII letters and digits so
// "Kubatura (m³)" and "kubatura m3" compare equal.
func KeyFold(s string) string {
	folded := strings.ToLower(FoldASCII(s))
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ToStruct converts any JSON-encodable value into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a protobuf Struct into dst.
func FromStruct(s *structpb.Struct, dst any) error {
	if s == nil {
		return fmt.Errorf("empty message")
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return json.Unmarshal(b, dst)
}

// ToPBOfferRecord flattens a history record for the wire, without the full
// offer payload.
func ToPBOfferRecord(r *entity.OfferRecord) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":            r.ID.String(),
		"offer_number":  r.OfferNumber,
		"offer_date":    r.OfferDate,
		"client_name":   r.ClientName,
		"vehicle":       r.Vehicle,
		"unit_model":    r.UnitModel,
		"net_total":     r.NetTotal,
		"currency":      r.Currency,
		"status":        r.Status,
		"document_path": r.DocumentPath,
		"created_at":    r.CreatedAt.UTC().Format(time.RFC3339),
	})
}
