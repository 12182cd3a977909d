package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

const (
	// fieldOrderExtension lists property names in the order the resulting
	// block should declare them. Properties it omits append alphabetically.
	fieldOrderExtension = "x-field-order"
	// multilineExtension marks a string property as multi-line text.
	multilineExtension = "x-multiline"
	// richTextExtension marks a string property as formatted rich text.
	richTextExtension = "x-richtext"
)

// BlockFromComponent loads an OpenAPI document and converts the named
// component schema into a struct block. Only object schemas convert; the
// component's properties become the block's children.
func BlockFromComponent(ctx context.Context, doc []byte, component string) (*blocks.StructBlock, error) {
	if len(doc) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil {
		return nil, errors.New("openapi: document has no components")
	}
	ref, ok := spec.Components.Schemas[component]
	if !ok {
		return nil, fmt.Errorf("openapi: component %q not found", component)
	}
	if ref.Value == nil {
		return nil, fmt.Errorf("openapi: component %q has no schema", component)
	}
	return BlockFromSchema(ref.Value)
}

// BlockFromSchema converts an object schema into a struct block.
func BlockFromSchema(schema *openapi3.Schema) (*blocks.StructBlock, error) {
	if schema == nil {
		return nil, errors.New("openapi: schema is nil")
	}
	if schema.Type != nil && !schema.Type.Is("object") {
		return nil, fmt.Errorf("openapi: schema type %v is not an object", schema.Type.Slice())
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	children := make([]blocks.Child, 0, len(schema.Properties))
	for _, name := range propertyOrder(schema) {
		property := schema.Properties[name]
		if property == nil || property.Value == nil {
			continue
		}
		child, err := blockFromProperty(property.Value, required[name])
		if err != nil {
			return nil, fmt.Errorf("openapi: property %q: %w", name, err)
		}
		children = append(children, blocks.Child{Name: name, Block: child})
	}

	var options []blocks.Option
	if schema.Title != "" {
		options = append(options, blocks.WithLabel(schema.Title))
	}
	if schema.Description != "" {
		options = append(options, blocks.WithHelpText(schema.Description))
	}
	return blocks.NewStructBlock(children, options...), nil
}

// propertyOrder honours the x-field-order extension and appends unlisted
// properties alphabetically so output stays deterministic.
func propertyOrder(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered, ok := schema.Extensions[fieldOrderExtension].([]any)
	if !ok {
		return names
	}

	seen := make(map[string]bool, len(ordered))
	out := make([]string, 0, len(names))
	for _, entry := range ordered {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		if _, exists := schema.Properties[name]; !exists {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, name := range names {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

func blockFromProperty(schema *openapi3.Schema, required bool) (blocks.Block, error) {
	options := fieldOptions(schema, required)

	if len(schema.Enum) > 0 {
		choices := make([]blocks.Choice, 0, len(schema.Enum))
		for _, entry := range schema.Enum {
			value := fmt.Sprint(entry)
			choices = append(choices, blocks.Choice{Value: value, Label: value})
		}
		options = append(options, blocks.WithChoices(choices...))
		return blocks.NewChoiceBlock(options...), nil
	}

	switch {
	case schema.Type == nil || schema.Type.Is("string"):
		switch schema.Format {
		case "email":
			return blocks.NewEmailBlock(options...), nil
		case "uri", "url":
			return blocks.NewURLBlock(options...), nil
		case "date":
			return blocks.NewDateBlock(options...), nil
		}
		if flag, ok := schema.Extensions[richTextExtension].(bool); ok && flag {
			return blocks.NewRichTextBlock(options...), nil
		}
		if flag, ok := schema.Extensions[multilineExtension].(bool); ok && flag {
			return blocks.NewTextBlock(options...), nil
		}
		return blocks.NewCharBlock(options...), nil
	case schema.Type.Is("integer"):
		return blocks.NewIntegerBlock(options...), nil
	case schema.Type.Is("number"):
		return blocks.NewDecimalBlock(options...), nil
	case schema.Type.Is("boolean"):
		return blocks.NewBooleanBlock(options...), nil
	case schema.Type.Is("object"):
		nested, err := BlockFromSchema(schema)
		if err != nil {
			return nil, err
		}
		return nested, nil
	default:
		return nil, fmt.Errorf("unsupported schema type %v", schema.Type.Slice())
	}
}

func fieldOptions(schema *openapi3.Schema, required bool) []blocks.Option {
	var options []blocks.Option
	if schema.Title != "" {
		options = append(options, blocks.WithLabel(schema.Title))
	}
	if schema.Description != "" {
		options = append(options, blocks.WithHelpText(schema.Description))
	}
	if required {
		options = append(options, blocks.WithRequired())
	}
	if schema.Default != nil {
		options = append(options, blocks.WithDefault(schema.Default))
	}
	if schema.MinLength > 0 {
		options = append(options, blocks.WithMinLength(int(schema.MinLength)))
	}
	if schema.MaxLength != nil {
		options = append(options, blocks.WithMaxLength(int(*schema.MaxLength)))
	}
	if schema.Min != nil {
		options = append(options, blocks.WithMin(*schema.Min))
	}
	if schema.Max != nil {
		options = append(options, blocks.WithMax(*schema.Max))
	}
	return options
}
