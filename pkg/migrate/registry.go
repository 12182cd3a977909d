// Package migrate reconstructs block descriptors from their persisted
// definitions. Schema history stores definitions rather than Go types, so
// records written by older builds keep loading after blocks are renamed,
// extended, or removed.
package migrate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

// Factory builds a block from a persisted definition's children and config.
type Factory func(children []blocks.Child, config map[string]any) (blocks.Block, error)

// Registry stores block factories by construct path.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry pre-populated with the built-in block
// factories.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	registerBuiltins(r)
	return r
}

// Register adds a factory for a construct path. Duplicate paths return an
// error.
func (r *Registry) Register(path string, factory Factory) error {
	if path == "" {
		return fmt.Errorf("migrate: construct path is required")
	}
	if factory == nil {
		return fmt.Errorf("migrate: factory is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[path]; exists {
		return fmt.Errorf("migrate: factory for %q already registered", path)
	}
	r.factories[path] = factory
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(path string, factory Factory) {
	if err := r.Register(path, factory); err != nil {
		panic(err)
	}
}

// Paths returns the registered construct paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.factories))
	for path := range r.factories {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FromDefinition rebuilds a block from its persisted definition, recursing
// through child definitions.
func (r *Registry) FromDefinition(def blocks.Definition) (blocks.Block, error) {
	r.mu.RLock()
	factory, ok := r.factories[def.Path]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("migrate: no factory for construct path %q", def.Path)
	}

	children := make([]blocks.Child, 0, len(def.Children))
	for _, child := range def.Children {
		block, err := r.FromDefinition(child.Definition)
		if err != nil {
			return nil, fmt.Errorf("migrate: child %q: %w", child.Name, err)
		}
		children = append(children, blocks.Child{Name: child.Name, Block: block})
	}

	block, err := factory(children, def.Config)
	if err != nil {
		return nil, fmt.Errorf("migrate: build %q: %w", def.Path, err)
	}
	return block, nil
}

func registerBuiltins(r *Registry) {
	r.MustRegister(blocks.StructBlockPath, func(children []blocks.Child, config map[string]any) (blocks.Block, error) {
		return blocks.NewStructBlock(children, optionsFromConfig(config)...), nil
	})

	leaf := func(construct func(...blocks.Option) blocks.Block) Factory {
		return func(children []blocks.Child, config map[string]any) (blocks.Block, error) {
			if len(children) > 0 {
				return nil, fmt.Errorf("leaf block cannot hold children")
			}
			return construct(optionsFromConfig(config)...), nil
		}
	}

	r.MustRegister(blocks.CharBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewCharBlock(opts...) }))
	r.MustRegister(blocks.TextBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewTextBlock(opts...) }))
	r.MustRegister(blocks.IntegerBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewIntegerBlock(opts...) }))
	r.MustRegister(blocks.DecimalBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewDecimalBlock(opts...) }))
	r.MustRegister(blocks.BooleanBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewBooleanBlock(opts...) }))
	r.MustRegister(blocks.ChoiceBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewChoiceBlock(opts...) }))
	r.MustRegister(blocks.DateBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewDateBlock(opts...) }))
	r.MustRegister(blocks.EmailBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewEmailBlock(opts...) }))
	r.MustRegister(blocks.URLBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewURLBlock(opts...) }))
	r.MustRegister(blocks.RichTextBlockPath, leaf(func(opts ...blocks.Option) blocks.Block { return blocks.NewRichTextBlock(opts...) }))
}

// optionsFromConfig maps a persisted config back onto construction options.
// Numeric values arrive as whatever the serialisation layer produced (int,
// int64, float64), so they are coerced rather than asserted.
func optionsFromConfig(config map[string]any) []blocks.Option {
	if len(config) == 0 {
		return nil
	}

	var options []blocks.Option
	if label, ok := config["label"].(string); ok && label != "" {
		options = append(options, blocks.WithLabel(label))
	}
	if help, ok := config["helpText"].(string); ok && help != "" {
		options = append(options, blocks.WithHelpText(help))
	}
	if required, ok := config["required"].(bool); ok && required {
		options = append(options, blocks.WithRequired())
	}
	if value, ok := config["default"]; ok && value != nil {
		options = append(options, blocks.WithDefault(value))
	}
	if template, ok := config["template"].(string); ok && template != "" {
		options = append(options, blocks.WithTemplate(template))
	}
	if n, ok := asInt(config["minLength"]); ok && n > 0 {
		options = append(options, blocks.WithMinLength(n))
	}
	if n, ok := asInt(config["maxLength"]); ok && n > 0 {
		options = append(options, blocks.WithMaxLength(n))
	}
	if f, ok := asFloat(config["min"]); ok {
		options = append(options, blocks.WithMin(f))
	}
	if f, ok := asFloat(config["max"]); ok {
		options = append(options, blocks.WithMax(f))
	}
	if choices := choicesFromConfig(config["choices"]); len(choices) > 0 {
		options = append(options, blocks.WithChoices(choices...))
	}
	return options
}

func choicesFromConfig(raw any) []blocks.Choice {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	choices := make([]blocks.Choice, 0, len(entries))
	for _, entry := range entries {
		mapping, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		value, _ := mapping["value"].(string)
		label, _ := mapping["label"].(string)
		if value == "" && label == "" {
			continue
		}
		choices = append(choices, blocks.Choice{Value: value, Label: label})
	}
	return choices
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
