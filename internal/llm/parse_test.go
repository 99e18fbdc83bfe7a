package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

func TestExtractJSONObjectIgnoresSurroundingProse(t *testing.T) {
	obj := `{"vehicle":{"brand":"Fiat","model":"Ducato"}}`
	cases := []string{
		obj,
		"Here is the offer:\n" + obj,
		obj + "\nLet me know if you need anything else!",
		"```json\n" + obj + "\n```",
		"Sure thing {not really}... " + obj,
	}
	for _, in := range cases[:4] {
		got, err := ExtractJSONObject(in)
		require.NoError(t, err, in)
		assert.Equal(t, obj, got)
	}

	// the first brace wins even when it opens prose, decoding then fails
	_, err := ParseOffer(cases[4])
	assert.True(t, common.HasCode(err, common.CodeInvalidJSON))
}

func TestParseOfferMalformed(t *testing.T) {
	for _, in := range []string{"", "no json here", "} backwards {"} {
		_, err := ParseOffer(in)
		require.Error(t, err, in)
		assert.True(t, common.HasCode(err, common.CodeMalformedResponse), in)
	}
}

func TestParseOfferInvalidJSONCarriesCandidate(t *testing.T) {
	_, err := ParseOffer(`prefix {"vehicle": {"brand": "Fiat",}} suffix`)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, common.CodeInvalidJSON, appErr.Code)
	assert.Equal(t, `{"vehicle": {"brand": "Fiat",}}`, appErr.Detail)
}

func TestParseOfferFillsDefaultsAndKeepsNulls(t *testing.T) {
	res, err := ParseOffer(`Offer: {
		"client": {"name": "Chłodnia Kowalski", "tax_id": null},
		"vehicle": {"brand": "Fiat", "model": "Ducato", "cargo_volume": "13,5"},
		"unit": {"model": "Zanotti ZB220", "list_price": "12 100 zł", "road_only": "tak", "secret": 1},
		"offer_number": 17
	}`)
	require.NoError(t, err)
	o := res.Offer

	assert.Equal(t, entity.SchemaVersion, o.SchemaVersion)
	assert.Equal(t, "17", o.OfferNumber)
	assert.Equal(t, "", o.OfferDate)

	// present values untouched, explicit null preserved
	assert.Equal(t, "Chłodnia Kowalski", o.Client["name"])
	v, present := o.Client["tax_id"]
	assert.True(t, present)
	assert.Nil(t, v)

	// absent declared keys filled with defaults
	assert.Equal(t, "", o.Client["address"])
	assert.Equal(t, 0.0, o.Vehicle["conversion_price"])
	assert.Equal(t, []any{}, o.Vehicle["finishes"])
	assert.Equal(t, false, o.Unit["road_and_400v"])
	assert.Equal(t, 0.0, o.Heating["price"])
	assert.Equal(t, "", o.HeaterKit["option_model"])

	// coercions
	assert.Equal(t, 13.5, o.Vehicle["cargo_volume"])
	assert.Equal(t, 12100.0, o.Unit["list_price"])
	assert.Equal(t, true, o.Unit["road_only"])

	_, leaked := o.Unit["secret"]
	assert.False(t, leaked)
	assert.Contains(t, res.Adjustments, "unit.secret(unknown)")
	assert.Contains(t, res.Adjustments, "unit.list_price(coerced)")
}

func TestParseOfferFlattensStructuredStringFields(t *testing.T) {
	res, err := ParseOffer(`{
		"client": {
			"name": "Chłodnia Kowalski",
			"address": {"street": "Polna 1", "city": "Łódź", "price": 500, "notes": "back door"},
			"contact_person": ["Jan", "Anna"],
			"phone": {"price": 1}
		}
	}`)
	require.NoError(t, err)
	c := res.Offer.Client

	assert.Equal(t, "city: Łódź, street: Polna 1", c["address"])
	assert.Equal(t, "Jan, Anna", c["contact_person"])
	assert.Nil(t, c["phone"])
	assert.Contains(t, res.Adjustments, "client.address(flattened)")
	assert.Contains(t, res.Adjustments, "client.phone(flattened)")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := map[string]any{
		"vehicle": map[string]any{"brand": "Fiat", "cargo_volume": nil},
		"heating": "none",
	}
	first, adj := Normalize(raw)
	assert.Contains(t, adj, "heating(type)")

	b, err := json.Marshal(first)
	require.NoError(t, err)
	var again map[string]any
	require.NoError(t, json.Unmarshal(b, &again))
	second, adj2 := Normalize(again)

	assert.Equal(t, first, second)
	assert.Empty(t, adj2)
	assert.Nil(t, second["vehicle"].(map[string]any)["cargo_volume"])
}

func TestNormalizedTemplateValidates(t *testing.T) {
	doc, _ := Normalize(OutputTemplate())
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NoError(t, ValidateOffer(b))

	bad := []byte(`{"client":{"name":5},"vehicle":{},"unit":{},"heating":{},"heater_kit":{}}`)
	assert.Error(t, ValidateOffer(bad))
	missing := []byte(`{"client":{}}`)
	assert.Error(t, ValidateOffer(missing))
}
