// Package blockform assembles composite form fields ("blocks") into editable
// forms: it parses submissions, validates them with aggregated per-field
// errors, renders HTML or terminal UIs, and converts values between stored
// and native representations.
package blockform

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/orchestrator"
	"github.com/goliatone/go-blockform/pkg/render"
)

// Block is the contract every block implements; aliased at the root for
// convenience.
type Block = blocks.Block

// StructBlock groups named child blocks into a composite field.
type StructBlock = blocks.StructBlock

// StructValue is the native value a struct block produces.
type StructValue = blocks.StructValue

// Child pairs a child name with its block.
type Child = blocks.Child

// Definition is the canonical persisted description of a block type.
type Definition = blocks.Definition

// RenderOptions describes per-request overrides that renderers can use to
// surface server-side validation errors or theme configuration.
type RenderOptions = render.RenderOptions

// NewStructBlock builds a struct block from an ordered child list.
func NewStructBlock(children []Child, options ...blocks.Option) *StructBlock {
	return blocks.NewStructBlock(children, options...)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module so most callers need a single import.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// RenderHTML binds a stored value to the block and renders it with the
// default vanilla renderer. It is the simplest entry point for callers that
// just want HTML output.
func RenderHTML(ctx context.Context, block Block, stored []byte, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Block:  block,
		Stored: stored,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}
