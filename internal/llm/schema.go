package llm

import (
	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

// SchemaName identifies the offer schema in structured-output requests.
const SchemaName = "extracted_offer"

// BuildOfferJSONSchema returns the JSON-Schema of an extracted offer as a
// generic map. Every declared field is nullable; sections reject unknown keys.
// We pass this to the completion endpoint and also use it locally to validate.
func BuildOfferJSONSchema() map[string]any {
	props := map[string]any{
		"schema_version": map[string]any{"type": []any{"string", "null"}},
		"offer_date":     map[string]any{"type": []any{"string", "null"}},
		"offer_number":   map[string]any{"type": []any{"string", "null"}},
	}
	required := make([]any, 0, len(entity.OfferSchema()))
	for _, sec := range entity.OfferSchema() {
		fields := make(map[string]any, len(sec.Fields))
		for _, f := range sec.Fields {
			prop := map[string]any{"type": []any{f.Kind.JSONType(), "null"}}
			if f.Hint != "" {
				prop["description"] = f.Hint
			}
			fields[f.Name] = prop
		}
		props[sec.Name] = map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           fields,
		}
		required = append(required, sec.Name)
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// OutputTemplate returns a document with every declared field set to its
// default, used as the answer template in the system prompt.
func OutputTemplate() map[string]any {
	out := map[string]any{
		"offer_date":   "",
		"offer_number": "",
	}
	for _, sec := range entity.OfferSchema() {
		fields := make(map[string]any, len(sec.Fields))
		for _, f := range sec.Fields {
			fields[f.Name] = f.Kind.Default()
		}
		out[sec.Name] = fields
	}
	return out
}
