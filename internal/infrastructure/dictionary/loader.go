// Package dictionary loads the classifier vocabulary from YAML and reloads it
// when the file changes.
package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "dictionary.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Schema returns the JSON schema a dictionary file must satisfy. Allergen
// keys are restricted to the closed vocabulary.
func Schema() map[string]any {
	names := make([]any, 0, len(domain.AllAllergens))
	for _, a := range domain.AllAllergens {
		names = append(names, string(a))
	}
	fragments := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
	nonEmpty := map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    map[string]any{"type": "string", "minLength": 1},
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"additionalProperties": false,
		"minProperties":        1,
		"properties": map[string]any{
			"allergens": map[string]any{
				"type":          "object",
				"propertyNames": map[string]any{"enum": names},
				"additionalProperties": map[string]any{
					"type":                 "object",
					"required":             []any{"patterns"},
					"additionalProperties": false,
					"properties": map[string]any{
						"patterns":  nonEmpty,
						"negations": fragments,
					},
				},
			},
			"dietary": map[string]any{
				"type":                 "object",
				"propertyNames":        map[string]any{"pattern": "^[a-z][a-z-]*$"},
				"additionalProperties": nonEmpty,
			},
		},
	}
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(Schema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Parse decodes and validates a YAML dictionary. Regular expressions are
// checked later, when the classifier compiles the spec.
func Parse(data []byte) (domain.DictionarySpec, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidDictionary, err)
	}

	// round-trip through JSON so the validator sees JSON types
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("%w: %v", domain.ErrInvalidDictionary, err)
	}
	var doc any
	if err := json.Unmarshal(asJSON, &doc); err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("%w: %v", domain.ErrInvalidDictionary, err)
	}

	s, err := compiledSchema()
	if err != nil {
		return domain.DictionarySpec{}, err
	}
	if err := s.Validate(doc); err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("%w: %v", domain.ErrInvalidDictionary, err)
	}

	var spec domain.DictionarySpec
	if err := json.Unmarshal(asJSON, &spec); err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("%w: %v", domain.ErrInvalidDictionary, err)
	}
	return spec, nil
}

// Load reads and validates the dictionary file at path
func Load(path string) (domain.DictionarySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DictionarySpec{}, fmt.Errorf("read dictionary: %w", err)
	}
	return Parse(data)
}
