package blocks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// StructBlockPath is the canonical construct path every struct block reports
// from Deconstruct, regardless of how the block was assembled.
const StructBlockPath = "blockform.blocks.StructBlock"

// StructScript is the client-side asset backing struct block initialisation.
const StructScript = "blockform/js/struct.js"

// Child pairs a child name with its block for struct block construction.
type Child struct {
	Name  string
	Block Block
}

// StructBlock groups named child blocks into a composite field. Children keep
// their declaration order through parsing, validation, rendering, storage and
// search.
type StructBlock struct {
	BaseBlock

	names        []string
	children     map[string]Block
	childJSInits map[string]string
}

// NewStructBlock builds a struct block from an ordered child list.
func NewStructBlock(children []Child, options ...Option) *StructBlock {
	return newStructBlock(nil, children, buildMeta(options))
}

// Extend builds a new struct block that starts from this block's children and
// applies local declarations on top. A local child that reuses an existing
// name replaces the block but keeps the original position; new names append
// after the inherited ones. The receiver is not modified.
func (b *StructBlock) Extend(local []Child, options ...Option) *StructBlock {
	base := make([]Child, 0, len(b.names))
	for _, name := range b.names {
		base = append(base, Child{Name: name, Block: b.children[name]})
	}
	meta := b.meta
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&meta)
	}
	return newStructBlock(base, local, meta)
}

func newStructBlock(base, local []Child, meta Meta) *StructBlock {
	block := &StructBlock{
		BaseBlock: BaseBlock{meta: meta},
		children:  make(map[string]Block),
	}
	for _, child := range base {
		block.addChild(child)
	}
	for _, child := range local {
		block.addChild(child)
	}

	block.childJSInits = make(map[string]string)
	for _, name := range block.names {
		if expr := block.children[name].JSInitializer(); expr != "" {
			block.childJSInits[name] = expr
		}
	}
	return block
}

func (b *StructBlock) addChild(child Child) {
	if child.Block == nil {
		return
	}
	child.Block.SetName(child.Name)
	if _, exists := b.children[child.Name]; !exists {
		b.names = append(b.names, child.Name)
	}
	b.children[child.Name] = child.Block
}

// Children reports the child blocks in declaration order.
func (b *StructBlock) Children() []Child {
	out := make([]Child, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, Child{Name: name, Block: b.children[name]})
	}
	return out
}

// Child reports the named child block.
func (b *StructBlock) Child(name string) (Block, bool) {
	block, ok := b.children[name]
	return block, ok
}

// JSInitializer reports the client-side initializer when any child needs
// setup, passing each child's expression keyed by name.
func (b *StructBlock) JSInitializer() string {
	if len(b.childJSInits) == 0 {
		return ""
	}
	return "StructBlock(" + jsDict(b.names, b.childJSInits) + ")"
}

// MediaScripts reports the client-side assets the block depends on. The
// struct runtime is always required; only the initializer expression depends
// on the children.
func (b *StructBlock) MediaScripts() []string {
	return []string{StructScript}
}

// RenderForm renders every child's form fragment in declaration order,
// namespacing inputs as "{prefix}-{name}". At most one aggregated error is
// accepted; its per-child payload is distributed so each child receives only
// its own failure.
func (b *StructBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if len(errs) > 1 {
		return "", fmt.Errorf("blocks: struct block render received %d errors, want at most one aggregated error", len(errs))
	}

	payload := map[string]error{}
	var topMessages []string
	if len(errs) == 1 && errs[0] != nil {
		var structErr *StructBlockError
		if errors.As(errs[0], &structErr) {
			payload = structErr.BlockErrors
		} else {
			topMessages = ErrorMessages(errs[0])
		}
	}

	var body strings.Builder
	for _, name := range b.names {
		child := b.children[name]
		childValue, ok := mappingGet(value, name)
		if !ok {
			childValue = child.Default()
		}
		var childErrs []error
		if err, ok := payload[name]; ok {
			childErrs = []error{err}
		}
		fragment, err := child.RenderForm(ctx, childValue, prefix+"-"+name, childErrs)
		if err != nil {
			return "", fmt.Errorf("blocks: render child %q: %w", name, err)
		}
		body.WriteString("<li>")
		body.WriteString(fragment)
		body.WriteString("</li>")
	}

	var out strings.Builder
	out.WriteString(`<div class="struct-block">`)
	if label := b.Label(); label != "" {
		out.WriteString("<label>")
		out.WriteString(html.EscapeString(label))
		out.WriteString("</label>")
	}
	if len(topMessages) > 0 {
		out.WriteString(`<ul class="errors">`)
		for _, msg := range topMessages {
			out.WriteString("<li>")
			out.WriteString(html.EscapeString(msg))
			out.WriteString("</li>")
		}
		out.WriteString("</ul>")
	}
	out.WriteString("<ul>")
	out.WriteString(body.String())
	out.WriteString("</ul></div>")
	return out.String(), nil
}

// ValueFromDataDict extracts each child's raw value from the flat submission,
// delegating to the child under its namespaced prefix.
func (b *StructBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	value := newStructValue(b, len(b.names))
	for _, name := range b.names {
		value.append(name, b.children[name].ValueFromDataDict(data, files, prefix+"-"+name))
	}
	return value
}

// Clean validates every present child in declaration order. All children are
// visited even after failures, and the failures come back aggregated in a
// single error keyed by child name.
func (b *StructBlock) Clean(value any) (any, error) {
	if value != nil && !isMapping(value) {
		return nil, fmt.Errorf("blocks: struct block clean: unsupported value type %T", value)
	}
	cleaned := newStructValue(b, len(b.names))
	blockErrs := make(map[string]error)
	for _, name := range b.names {
		childValue, ok := mappingGet(value, name)
		if !ok {
			continue
		}
		cleanedValue, err := b.children[name].Clean(childValue)
		if err != nil {
			blockErrs[name] = err
			continue
		}
		cleaned.append(name, cleanedValue)
	}
	if len(blockErrs) > 0 {
		return nil, &StructBlockError{BlockErrors: blockErrs}
	}
	return cleaned, nil
}

// ToNative converts a stored mapping into a struct value. Children absent from
// the stored data take their defaults, so values stored before a child was
// added still bind cleanly.
func (b *StructBlock) ToNative(raw any) (any, error) {
	value := newStructValue(b, len(b.names))
	for _, name := range b.names {
		child := b.children[name]
		rawValue, ok := mappingGet(raw, name)
		if !ok {
			value.append(name, child.Default())
			continue
		}
		converted, err := child.ToNative(rawValue)
		if err != nil {
			return nil, fmt.Errorf("blocks: convert %q: %w", name, err)
		}
		value.append(name, converted)
	}
	return value, nil
}

// PrepValue converts a struct value into its storage-ready form, an ordered
// mapping of each present child's prepared value.
func (b *StructBlock) PrepValue(value any) (any, error) {
	out := NewMap()
	for _, name := range b.names {
		childValue, ok := mappingGet(value, name)
		if !ok {
			continue
		}
		prepared, err := b.children[name].PrepValue(childValue)
		if err != nil {
			return nil, fmt.Errorf("blocks: prepare %q: %w", name, err)
		}
		out.Set(name, prepared)
	}
	return out, nil
}

// SearchableContent concatenates every child's searchable fragments in
// declaration order. Absent children contribute their default's content.
func (b *StructBlock) SearchableContent(value any) []string {
	var out []string
	for _, name := range b.names {
		child := b.children[name]
		childValue, ok := mappingGet(value, name)
		if !ok {
			childValue = child.Default()
		}
		out = append(out, child.SearchableContent(childValue)...)
	}
	return out
}

// Deconstruct reports the canonical description of this block. The path is
// always the base struct block path with the full flattened child list, so
// persisted schema history stays valid when an Extend-derived specialisation
// is renamed or removed.
func (b *StructBlock) Deconstruct() Definition {
	children := make([]ChildDefinition, 0, len(b.names))
	for _, name := range b.names {
		children = append(children, ChildDefinition{
			Name:       name,
			Definition: b.children[name].Deconstruct(),
		})
	}
	return Definition{
		Path:     StructBlockPath,
		Children: children,
		Config:   b.meta.configMap(),
	}
}

// RenderValue renders a stored struct value for display. When a template and
// engine are configured they take over; otherwise a definition-list fallback
// keeps output usable.
func (b *StructBlock) RenderValue(ctx context.Context, value any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.meta.Template != "" && b.meta.Templates != nil {
		return b.meta.Templates.RenderTemplate(b.meta.Template, map[string]any{
			"label": b.Label(),
			"value": value,
		})
	}

	var out strings.Builder
	out.WriteString("<dl>")
	for _, name := range b.names {
		childValue, ok := mappingGet(value, name)
		if !ok {
			childValue = b.children[name].Default()
		}
		out.WriteString("<dt>")
		out.WriteString(html.EscapeString(name))
		out.WriteString("</dt><dd>")
		out.WriteString(html.EscapeString(fmt.Sprint(childValue)))
		out.WriteString("</dd>")
	}
	out.WriteString("</dl>")
	return out.String(), nil
}
