package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaBase = "https://df07.github.io/go-probegrid/schemas/"

//go:embed schemas/config.schema.json
var configSchemaJSON string

//go:embed schemas/scene.schema.json
var sceneSchemaJSON string

var (
	configSchema = mustCompile("config.schema.json")
	sceneSchema  = mustCompile("scene.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	for file, body := range map[string]string{
		"config.schema.json": configSchemaJSON,
		"scene.schema.json":  sceneSchemaJSON,
	} {
		if err := c.AddResource(schemaBase+file, strings.NewReader(body)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", file, err))
		}
	}
	return c.MustCompile(schemaBase + name)
}

// validateYAML checks a YAML document against schema. An empty document
// validates as an empty object.
func validateYAML(schema *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// Round trip through JSON so the validator sees JSON types
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
