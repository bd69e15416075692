// Package batch reads restaurant lists for offline runs and writes one JSON
// line per extraction result.
package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "restaurants.schema.json"

// ErrInvalidInput is returned when the restaurant list fails validation
var ErrInvalidInput = errors.New("invalid restaurant list")

const descriptorsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id": {"type": "string"},
      "name": {"type": "string"},
      "url": {"type": "string"},
      "location": {"type": "string"}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader([]byte(descriptorsSchema))); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ReadDescriptors decodes a JSON array of restaurant descriptors. Only the
// shape is checked here: an entry with an empty or bad field is returned as
// is so the pipeline reports it in that restaurant's own result. The whole
// list is rejected when it is not an array of objects with string fields or
// when a non-empty id repeats.
func ReadDescriptors(r io.Reader) ([]domain.RestaurantDescriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read restaurants: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var descs []domain.RestaurantDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	seen := make(map[string]int, len(descs))
	for i, d := range descs {
		if d.ID == "" {
			continue
		}
		if first, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("%w: id %q repeated at entries %d and %d", ErrInvalidInput, d.ID, first, i)
		}
		seen[d.ID] = i
	}
	return descs, nil
}

// ReadFile reads descriptors from path
func ReadFile(path string) ([]domain.RestaurantDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open restaurants: %w", err)
	}
	defer f.Close()
	return ReadDescriptors(f)
}
