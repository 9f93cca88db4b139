package store

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/meta.schema.json schema/index.schema.json
var schemaFS embed.FS

type schemaSet struct {
	meta  *jsonschema.Schema
	index *jsonschema.Schema
}

var loadSchemas = sync.OnceValues(func() (*schemaSet, error) {
	c := jsonschema.NewCompiler()
	for _, name := range []string{"meta.schema.json", "index.schema.json"} {
		raw, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse embedded %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
	}
	meta, err := c.Compile("meta.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile meta schema: %w", err)
	}
	index, err := c.Compile("index.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile index schema: %w", err)
	}
	return &schemaSet{meta: meta, index: index}, nil
})

// validateDocument parses data and validates it against the chosen schema.
// The returned error describes the first problem found; it is not typed.
func validateDocument(data []byte, pick func(*schemaSet) *jsonschema.Schema) error {
	set, err := loadSchemas()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := pick(set).Validate(doc); err != nil {
		return err
	}
	return nil
}

func metaSchema(s *schemaSet) *jsonschema.Schema  { return s.meta }
func indexSchema(s *schemaSet) *jsonschema.Schema { return s.index }

// decodeStrict unmarshals validated data into v, keeping numbers as
// json.Number so config values round-trip byte for byte.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
