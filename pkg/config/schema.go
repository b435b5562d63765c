package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// typeConfigSchema is the shape every event-type definition must satisfy
// before it is decoded. Keeping the gate in one schema means a typo'd key
// or a mistyped weight fails loudly instead of half-loading.
const typeConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "unit":  {"type": "string", "minLength": 1},
    "value": {"type": "number"},
    "calc":  {"type": "string", "minLength": 1},
    "meta": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "prompt": {"type": "string"},
          "weight": {"type": "number"}
        },
        "required": ["weight"],
        "additionalProperties": false
      }
    }
  },
  "required": ["unit"],
  "additionalProperties": false
}`

const schemaURL = "https://amorfati.dev/schemas/eventtype.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(typeConfigSchema)); err != nil {
			schemaErr = fmt.Errorf("load event type schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateDefinition checks a decoded YAML document against the event-type
// schema. doc comes from yaml.Unmarshal into any; it is round-tripped
// through encoding/json because the validator only understands JSON-decoded
// value types (YAML integers arrive as int, not float64).
func validateDefinition(doc any) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("definition is not JSON-representable: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return err
	}
	return schema.Validate(instance)
}
