package blocks

import (
	"context"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"unicode"
)

// FileMap carries uploaded files keyed by the namespaced input name, as
// supplied by the surrounding form-processing layer.
type FileMap map[string][]*multipart.FileHeader

// TemplateRenderer is the slice of the template engine contract blocks rely on
// when rendering stored values. The engines under pkg/render/template satisfy
// it.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// Block is the contract every child block implements. A block describes one
// named sub-field: how it parses request data, validates, converts between
// stored and native representations, renders its form fragment, and
// contributes searchable text.
//
// Blocks are immutable after construction (aside from SetName, which parents
// call while wiring children) and safe to share across requests.
type Block interface {
	Name() string
	SetName(name string)

	// Default reports the configured default value, used wherever a field is
	// absent from its input.
	Default() any

	// RenderForm produces the block's form fragment. Inputs are namespaced
	// under prefix. Callers pass zero or one aggregated error; the block
	// distributes any per-child payload to its own fragments.
	RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error)

	// ValueFromDataDict extracts the block's raw submitted value from a flat
	// namespaced submission. Malformed input is not an error here; it
	// surfaces from Clean.
	ValueFromDataDict(data url.Values, files FileMap, prefix string) any

	// Clean validates and normalises a parsed value.
	Clean(value any) (any, error)

	// ToNative converts the stored representation into the native one.
	ToNative(raw any) (any, error)

	// PrepValue converts the native representation into the storage-ready
	// one. The result is meant for persistence, not further binding.
	PrepValue(value any) (any, error)

	// SearchableContent extracts the block's searchable text fragments.
	SearchableContent(value any) []string

	// JSInitializer reports the client-side initializer expression, or ""
	// when the block needs no client-side setup.
	JSInitializer() string

	// Deconstruct reports the canonical, subclass-independent description of
	// this block for persisted schema history.
	Deconstruct() Definition
}

// MediaProvider is implemented by blocks that depend on client-side assets.
type MediaProvider interface {
	MediaScripts() []string
}

// MetaProvider exposes a block's construction config to collaborators such as
// schema exporters.
type MetaProvider interface {
	Meta() Meta
}

// Definition is the canonical description of a block type: a construct path, an
// ordered child list, and the original construction configuration. Persisted
// schema history references definitions rather than Go types so that renamed
// or removed specialisations do not invalidate old records.
type Definition struct {
	Path     string            `json:"path" yaml:"path"`
	Children []ChildDefinition `json:"children,omitempty" yaml:"children,omitempty"`
	Config   map[string]any    `json:"config,omitempty" yaml:"config,omitempty"`
}

// ChildDefinition pairs a child name with its definition. Order in the slice is
// the declaration order and part of the persisted contract.
type ChildDefinition struct {
	Name       string     `json:"name" yaml:"name"`
	Definition Definition `json:"definition" yaml:"definition"`
}

// Choice is one selectable option for choice blocks.
type Choice struct {
	Value string
	Label string
}

// Meta holds the construction configuration shared by all block kinds. Blocks
// read the fields relevant to them and ignore the rest, mirroring how a single
// field model carries per-kind constraints.
type Meta struct {
	Label     string
	HelpText  string
	Required  bool
	Default   any
	Template  string
	Templates TemplateRenderer
	MinLength int
	MaxLength int
	Min       *float64
	Max       *float64
	Choices   []Choice
}

// Option configures block construction.
type Option func(*Meta)

// WithLabel sets the display label.
func WithLabel(label string) Option {
	return func(m *Meta) {
		m.Label = label
	}
}

// WithHelpText sets help text rendered alongside the field.
func WithHelpText(text string) Option {
	return func(m *Meta) {
		m.HelpText = text
	}
}

// WithRequired marks the block as required during Clean.
func WithRequired() Option {
	return func(m *Meta) {
		m.Required = true
	}
}

// WithDefault sets the value used when the field is absent from its input.
func WithDefault(value any) Option {
	return func(m *Meta) {
		m.Default = value
	}
}

// WithTemplate names the template used to render stored values.
func WithTemplate(name string) Option {
	return func(m *Meta) {
		m.Template = name
	}
}

// WithTemplateRenderer injects the engine used to render stored values when a
// template is configured.
func WithTemplateRenderer(renderer TemplateRenderer) Option {
	return func(m *Meta) {
		if renderer != nil {
			m.Templates = renderer
		}
	}
}

// WithMinLength sets the minimum accepted length for text blocks.
func WithMinLength(n int) Option {
	return func(m *Meta) {
		m.MinLength = n
	}
}

// WithMaxLength sets the maximum accepted length for text blocks.
func WithMaxLength(n int) Option {
	return func(m *Meta) {
		m.MaxLength = n
	}
}

// WithMin sets the minimum accepted value for numeric blocks.
func WithMin(v float64) Option {
	return func(m *Meta) {
		m.Min = &v
	}
}

// WithMax sets the maximum accepted value for numeric blocks.
func WithMax(v float64) Option {
	return func(m *Meta) {
		m.Max = &v
	}
}

// WithChoices sets the selectable options for choice blocks.
func WithChoices(choices ...Choice) Option {
	return func(m *Meta) {
		m.Choices = append([]Choice(nil), choices...)
	}
}

func buildMeta(options []Option) Meta {
	var meta Meta
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&meta)
	}
	return meta
}

// configMap reports the construction configuration in a serialisable form for
// Deconstruct. Template renderers are runtime wiring and deliberately omitted.
func (m Meta) configMap() map[string]any {
	out := make(map[string]any)
	if m.Label != "" {
		out["label"] = m.Label
	}
	if m.HelpText != "" {
		out["helpText"] = m.HelpText
	}
	if m.Required {
		out["required"] = true
	}
	if m.Default != nil {
		out["default"] = m.Default
	}
	if m.Template != "" {
		out["template"] = m.Template
	}
	if m.MinLength > 0 {
		out["minLength"] = m.MinLength
	}
	if m.MaxLength > 0 {
		out["maxLength"] = m.MaxLength
	}
	if m.Min != nil {
		out["min"] = *m.Min
	}
	if m.Max != nil {
		out["max"] = *m.Max
	}
	if len(m.Choices) > 0 {
		choices := make([]any, 0, len(m.Choices))
		for _, choice := range m.Choices {
			choices = append(choices, map[string]any{
				"value": choice.Value,
				"label": choice.Label,
			})
		}
		out["choices"] = choices
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BaseBlock carries the name and construction config shared by every block
// implementation. Embed it and override the contract methods that matter.
type BaseBlock struct {
	name string
	meta Meta
}

func newBaseBlock(options []Option) BaseBlock {
	return BaseBlock{meta: buildMeta(options)}
}

// Name reports the name assigned by the owning struct block, if any.
func (b *BaseBlock) Name() string {
	return b.name
}

// SetName assigns the block's name. Parents call this while wiring children.
func (b *BaseBlock) SetName(name string) {
	b.name = name
}

// Default reports the configured default value.
func (b *BaseBlock) Default() any {
	return b.meta.Default
}

// Meta exposes the construction configuration.
func (b *BaseBlock) Meta() Meta {
	return b.meta
}

// Label reports the configured label, falling back to a humanised form of the
// block's name. Empty when neither is set.
func (b *BaseBlock) Label() string {
	if b.meta.Label != "" {
		return b.meta.Label
	}
	return humanizeName(b.name)
}

// JSInitializer reports no client-side setup by default.
func (b *BaseBlock) JSInitializer() string {
	return ""
}

func humanizeName(name string) string {
	if name == "" {
		return ""
	}
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	runes := []rune(cleaned)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// isMapping reports whether value is one of the mapping shapes blocks accept.
func isMapping(value any) bool {
	switch value.(type) {
	case *StructValue, *Map, map[string]any:
		return true
	default:
		return false
	}
}

// mappingGet resolves a named entry from any of the mapping shapes blocks
// accept: struct values, ordered maps, and plain decoded JSON objects.
func mappingGet(value any, name string) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case *StructValue:
		return v.Get(name)
	case *Map:
		return v.Get(name)
	case map[string]any:
		val, ok := v[name]
		return val, ok
	default:
		return nil, false
	}
}
