package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v2"
)

// configSchema describes the top-level configuration document shape
// (spec.md §6). It is intentionally loose on plugin-specific `options`
// bags, which each collector/sink validates for itself once loaded.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"app": {
			"type": "object",
			"properties": {
				"log_level": {"type": "string", "enum": ["trace", "debug", "info", "warn", "error", "fatal", "panic"]},
				"log_format": {"type": "string", "enum": ["json", "text"]},
				"dotenv_file": {"type": "string"}
			}
		},
		"interval": {"type": "integer", "minimum": 1},
		"flush_interval": {"type": "integer", "minimum": 0},
		"max_buffer_size": {"type": "integer", "minimum": 0},
		"warn_on_buffer": {"type": "boolean"},
		"tags": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"inputs": {"type": "array"},
		"outputs": {"type": "array"},
		"logs_only_outputs": {"type": "array"},
		"metrics_only_outputs": {"type": "array"},
		"secret_store": {"type": "object"},
		"self_metrics": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"addr": {"type": "string"}
			}
		}
	},
	"additionalProperties": false
}`

var schemaCompiled *jsonschema.Schema

func compileSchema() (*jsonschema.Schema, error) {
	if schemaCompiled != nil {
		return schemaCompiled, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
		return nil, fmt.Errorf("compiling embedded config schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling embedded config schema: %w", err)
	}
	schemaCompiled = schema
	return schema, nil
}

// ValidateAgainstSchema re-decodes the raw YAML document into a
// JSON-compatible tree and validates it against configSchema, catching
// typos and structurally malformed documents as written: defaults applied
// to the parsed Config do not affect it, and it runs before secret
// resolution.
func ValidateAgainstSchema(yamlData []byte) error {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(yamlData, &generic); err != nil {
		return fmt.Errorf("re-parsing document for schema validation: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return err
	}

	// Round-trip through encoding/json so yaml.v2's native Go ints and
	// map[interface{}]interface{} nodes become the float64/map[string]any
	// shapes jsonschema.Validate expects.
	normalized, err := json.Marshal(jsonCompatible(generic))
	if err != nil {
		return fmt.Errorf("normalizing document for schema validation: %w", err)
	}
	var instance interface{}
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return fmt.Errorf("normalizing document for schema validation: %w", err)
	}

	return schema.Validate(instance)
}

// jsonCompatible recursively converts yaml.v2's map[interface{}]interface{}
// nodes into map[string]interface{}, which is what jsonschema.Validate
// expects its document tree to look like.
func jsonCompatible(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = jsonCompatible(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = jsonCompatible(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = jsonCompatible(item)
		}
		return out
	default:
		return val
	}
}
