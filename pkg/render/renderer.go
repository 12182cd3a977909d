package render

import (
	"context"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

// Renderer converts a block and its current value into a byte representation
// (an HTML document fragment, a terminal session transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	RenderForm(ctx context.Context, block blocks.Block, value any, options RenderOptions) ([]byte, error)
}
