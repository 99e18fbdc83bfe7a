package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

func TestBuildSystemPromptEmbedsCatalogAndTemplate(t *testing.T) {
	snap := entity.CatalogSnapshot{
		Vehicles: []entity.CatalogVehicle{{Brand: "Fiat", Model: "Ducato", ConversionPrice: 11000}},
		Units:    []entity.CatalogUnit{{Model: "Zanotti ZB220", ListPrice: 12100}},
	}
	p := BuildSystemPrompt(PromptInput{Catalog: snap, Today: "2024-05-06", Currency: "PLN"})

	assert.Contains(t, p, `"brand": "Fiat"`)
	assert.Contains(t, p, `"model": "Zanotti ZB220"`)
	assert.Contains(t, p, "Today is 2024-05-06")
	assert.Contains(t, p, `"heater_kit"`)
	assert.Contains(t, p, "PLN")

	// same input, same prompt
	assert.Equal(t, p, BuildSystemPrompt(PromptInput{Catalog: snap, Today: "2024-05-06", Currency: "PLN"}))
}

func TestBuildUserPromptTruncates(t *testing.T) {
	long := strings.Repeat("ą", maxOfferTextChars+10)
	p := BuildUserPrompt(long)
	assert.True(t, strings.HasSuffix(p, "…(truncated)"))
	assert.Equal(t, "Enquiry text:\nFiat Ducato", BuildUserPrompt("  Fiat Ducato \n"))
}
