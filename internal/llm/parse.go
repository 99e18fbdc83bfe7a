package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// ExtractJSONObject returns the substring from the first '{' to the last '}'.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", common.NewAppError(common.CodeMalformedResponse, "no JSON object in completion", common.ErrValidation).
			WithDetail(truncate(text, 500))
	}
	return text[start : end+1], nil
}

// ParseResult is a normalized offer plus the adjustments made to reach it.
type ParseResult struct {
	Offer       *entity.Offer
	Adjustments []string
}

// ParseOffer brace-scans the completion text, decodes it, normalizes it
// against the offer schema and validates the result.
func ParseOffer(text string) (*ParseResult, error) {
	candidate, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, common.NewAppError(common.CodeInvalidJSON, "completion JSON does not decode", err).
			WithDetail(candidate)
	}

	doc, adjustments := Normalize(raw)

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidJSON, "normalized offer does not encode", err)
	}
	if err := ValidateOffer(b); err != nil {
		return nil, common.NewAppError(common.CodeInvalidJSON, "normalized offer does not match schema", err).
			WithDetail(candidate)
	}

	offer := &entity.Offer{SchemaVersion: entity.SchemaVersion}
	if err := json.Unmarshal(b, offer); err != nil {
		return nil, common.NewAppError(common.CodeInvalidJSON, "normalized offer does not decode", err)
	}
	offer.SchemaVersion = entity.SchemaVersion
	return &ParseResult{Offer: offer, Adjustments: adjustments}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
