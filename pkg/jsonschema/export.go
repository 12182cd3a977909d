// Package jsonschema exports block descriptors as JSON Schema documents and
// validates stored values against them, so downstream systems can check
// payloads without loading the block definitions themselves.
package jsonschema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

// SchemaFor builds a JSON Schema document describing the block's stored
// representation.
func SchemaFor(block blocks.Block) (map[string]any, error) {
	schema, err := schemaFor(block)
	if err != nil {
		return nil, err
	}
	schema["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return schema, nil
}

// Validate checks a stored payload against the block's schema. The payload is
// JSON-decoded first so ordered maps and struct values validate the same as
// raw bytes.
func Validate(block blocks.Block, payload []byte) error {
	schemaMap, err := SchemaFor(block)
	if err != nil {
		return err
	}

	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("jsonschema: decode payload: %w", err)
	}

	var schema jsonschema.Schema
	schemaBytes, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("jsonschema: marshal schema: %w", err)
	}
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return fmt.Errorf("jsonschema: parse schema: %w", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("jsonschema: resolve schema: %w", err)
	}
	if err := resolved.Validate(data); err != nil {
		return fmt.Errorf("jsonschema: validate payload: %w", err)
	}
	return nil
}

func schemaFor(block blocks.Block) (map[string]any, error) {
	if structBlock, ok := block.(*blocks.StructBlock); ok {
		return structSchema(structBlock)
	}
	provider, ok := block.(blocks.MetaProvider)
	if !ok {
		return nil, fmt.Errorf("jsonschema: block %T exposes no construction config", block)
	}
	return fieldSchema(block, provider.Meta())
}

func structSchema(block *blocks.StructBlock) (map[string]any, error) {
	properties := make(map[string]any)
	var required []string
	for _, child := range block.Children() {
		childSchema, err := schemaFor(child.Block)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: child %q: %w", child.Name, err)
		}
		properties[child.Name] = childSchema
		if provider, ok := child.Block.(blocks.MetaProvider); ok && provider.Meta().Required {
			required = append(required, child.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	annotate(schema, block)
	return schema, nil
}

func fieldSchema(block blocks.Block, meta blocks.Meta) (map[string]any, error) {
	schema := make(map[string]any)

	switch block.(type) {
	case *blocks.CharBlock, *blocks.TextBlock, *blocks.RichTextBlock:
		schema["type"] = "string"
		applyLengths(schema, meta)
	case *blocks.EmailBlock:
		schema["type"] = "string"
		schema["format"] = "email"
	case *blocks.URLBlock:
		schema["type"] = "string"
		schema["format"] = "uri"
	case *blocks.DateBlock:
		schema["type"] = "string"
		schema["format"] = "date"
	case *blocks.IntegerBlock:
		schema["type"] = "integer"
		applyBounds(schema, meta)
	case *blocks.DecimalBlock:
		schema["type"] = "number"
		applyBounds(schema, meta)
	case *blocks.BooleanBlock:
		schema["type"] = "boolean"
	case *blocks.ChoiceBlock:
		schema["type"] = "string"
		if len(meta.Choices) > 0 {
			values := make([]any, 0, len(meta.Choices))
			for _, choice := range meta.Choices {
				values = append(values, choice.Value)
			}
			schema["enum"] = values
		}
	default:
		return nil, fmt.Errorf("jsonschema: unsupported block %T", block)
	}

	if meta.Default != nil {
		schema["default"] = meta.Default
	}
	annotateMeta(schema, meta)
	return schema, nil
}

func applyLengths(schema map[string]any, meta blocks.Meta) {
	if meta.MinLength > 0 {
		schema["minLength"] = meta.MinLength
	}
	if meta.MaxLength > 0 {
		schema["maxLength"] = meta.MaxLength
	}
}

func applyBounds(schema map[string]any, meta blocks.Meta) {
	if meta.Min != nil {
		schema["minimum"] = *meta.Min
	}
	if meta.Max != nil {
		schema["maximum"] = *meta.Max
	}
}

func annotate(schema map[string]any, block blocks.Block) {
	provider, ok := block.(blocks.MetaProvider)
	if !ok {
		return
	}
	annotateMeta(schema, provider.Meta())
}

func annotateMeta(schema map[string]any, meta blocks.Meta) {
	if meta.Label != "" {
		schema["title"] = meta.Label
	}
	if meta.HelpText != "" {
		schema["description"] = meta.HelpText
	}
}
