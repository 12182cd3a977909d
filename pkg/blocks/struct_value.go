package blocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StructValue is the native value of a struct block: an ordered mapping of
// child names to child values that knows which block produced it. Values are
// request-scoped and not safe for concurrent mutation.
type StructValue struct {
	block  *StructBlock
	names  []string
	values map[string]any
	bound  []BoundBlock
}

// BoundBlock pairs a child name and block with the value held for it.
type BoundBlock struct {
	Name  string
	Block Block
	Value any
}

func newStructValue(block *StructBlock, capacity int) *StructValue {
	return &StructValue{
		block:  block,
		names:  make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

func (v *StructValue) append(name string, value any) {
	if _, exists := v.values[name]; !exists {
		v.names = append(v.names, name)
	}
	v.values[name] = value
}

// Block reports the struct block this value belongs to.
func (v *StructValue) Block() *StructBlock {
	return v.block
}

// Get reports the value held for name.
func (v *StructValue) Get(name string) (any, bool) {
	value, ok := v.values[name]
	return value, ok
}

// Names reports the held names in declaration order.
func (v *StructValue) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len reports the number of held entries.
func (v *StructValue) Len() int {
	return len(v.names)
}

// BoundBlocks pairs every child of the owning block with the value held for
// it, in declaration order, applying defaults for absent children. The result
// is computed once and reused.
func (v *StructValue) BoundBlocks() []BoundBlock {
	if v.bound != nil {
		return v.bound
	}
	bound := make([]BoundBlock, 0, len(v.block.names))
	for _, name := range v.block.names {
		child := v.block.children[name]
		value, ok := v.values[name]
		if !ok {
			value = child.Default()
		}
		bound = append(bound, BoundBlock{Name: name, Block: child, Value: value})
	}
	v.bound = bound
	return v.bound
}

// String renders the value for display via the owning block, falling back to a
// plain listing when rendering fails.
func (v *StructValue) String() string {
	if v.block != nil {
		if rendered, err := v.block.RenderValue(context.Background(), v); err == nil {
			return rendered
		}
	}
	parts := make([]string, 0, len(v.names))
	for _, name := range v.names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, v.values[name]))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON writes the entries as a JSON object in declaration order.
func (v *StructValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valueJSON, err := json.Marshal(v.values[name])
		if err != nil {
			return nil, fmt.Errorf("blocks: marshal entry %q: %w", name, err)
		}
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
