package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := json.Marshal(BuildExtractionJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal extraction schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("extraction.json", bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("add extraction schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("extraction.json")
	})
	return schema, schemaErr
}

// ValidateExtraction checks a sanitized model response against the extraction
// schema. The schema is compiled once and reused for every response.
func ValidateExtraction(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("response does not match extraction schema: %w", err)
	}
	return nil
}
