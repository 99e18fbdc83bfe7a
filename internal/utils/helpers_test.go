package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "Chlodnia Poznan, Zolta 5", FoldASCII("Chłodnia Poznań, Żółta 5"))
	assert.Equal(t, "plain", FoldASCII("plain"))
}

func TestKeyFold(t *testing.T) {
	assert.Equal(t, "kubaturam3", KeyFold("Kubatura (m³)"))
	assert.Equal(t, KeyFold("Cena cennikowa (PLN)"), KeyFold("cena_cennikowa pln"))
	assert.Equal(t, "drogowysiec230v", KeyFold("drogowy + sieć 230V"))
}

func TestParseYMD(t *testing.T) {
	d, err := ParseYMD("2026-10-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseYMD("15.10.2026")
	assert.Error(t, err)
}

func TestStructRoundTrip(t *testing.T) {
	in := entity.Offer{
		SchemaVersion: entity.SchemaVersion,
		Vehicle:       entity.Section{"brand": "Fiat", "cargo_volume": 13.0, "finishes": []any{"a"}},
		OfferNumber:   "OF/1",
	}
	s, err := ToStruct(in)
	require.NoError(t, err)
	assert.Equal(t, "Fiat", s.Fields["vehicle"].GetStructValue().Fields["brand"].GetStringValue())

	var out entity.Offer
	require.NoError(t, FromStruct(s, &out))
	assert.Equal(t, in.Vehicle, out.Vehicle)
	assert.Equal(t, in.OfferNumber, out.OfferNumber)

	assert.Error(t, FromStruct(nil, &out))
}

func TestToPBOfferRecord(t *testing.T) {
	id := uuid.New()
	s, err := ToPBOfferRecord(&entity.OfferRecord{ID: id, NetTotal: 23100, Currency: "PLN", CreatedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, id.String(), s.Fields["id"].GetStringValue())
	assert.Equal(t, 23100.0, s.Fields["net_total"].GetNumberValue())
	assert.Equal(t, "1970-01-01T00:00:00Z", s.Fields["created_at"].GetStringValue())
}
