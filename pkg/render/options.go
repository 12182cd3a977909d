package render

import "github.com/goliatone/go-theme"

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the block descriptors themselves.
type RenderOptions struct {
	// Prefix namespaces every input name in the rendered form. Nested blocks
	// extend it with "-{childName}" segments.
	Prefix string
	// Method and Action configure the surrounding <form> element when the
	// renderer emits one. Renderers translate non-browser verbs (PATCH, PUT,
	// DELETE) into POST plus a hidden _method input.
	Method string
	Action string
	// Errors carries zero or one aggregated validation error from a prior
	// Clean pass. The block distributes per-child failures itself.
	Errors []error
	// FormErrors surfaces failures that could not be attached to any field,
	// rendered above the field list.
	FormErrors []string
	// Hidden lists hidden inputs emitted alongside the visible fields, such
	// as CSRF tokens or version markers.
	Hidden map[string]string
	// Theme customises chrome emitted by theme-aware renderers. Nil renders
	// with the renderer's defaults.
	Theme *theme.RendererConfig
}
