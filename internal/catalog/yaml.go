package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/offer-generator/internal/entity"
)

//go:embed seed/demo.yaml
var demoSeed []byte

// ReadYAML decodes a catalog fixture. Unknown keys are rejected so typos in
// hand-written fixtures surface immediately.
func ReadYAML(r io.Reader) (entity.CatalogSnapshot, error) {
	var snap entity.CatalogSnapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return snap, fmt.Errorf("catalog fixture is empty")
		}
		return snap, fmt.Errorf("decode catalog fixture: %w", err)
	}
	return snap, nil
}

// WriteYAML encodes the catalog as a fixture.
func WriteYAML(w io.Writer, snap entity.CatalogSnapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode catalog fixture: %w", err)
	}
	return enc.Close()
}

// DemoSnapshot returns the built-in demo catalog.
func DemoSnapshot() (entity.CatalogSnapshot, error) {
	return ReadYAML(bytes.NewReader(demoSeed))
}
