package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateWith(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var (
	offerSchemaOnce     sync.Once
	offerSchemaCompiled *jsonschema.Schema
	offerSchemaErr      error
)

// ValidateOffer validates a normalized offer document against the canonical
// offer schema, compiled once per process.
func ValidateOffer(data []byte) error {
	offerSchemaOnce.Do(func() {
		offerSchemaCompiled, offerSchemaErr = compileSchema(BuildOfferJSONSchema())
	})
	if offerSchemaErr != nil {
		return offerSchemaErr
	}
	return validateWith(offerSchemaCompiled, data)
}
