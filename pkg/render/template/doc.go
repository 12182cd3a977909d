// Package template defines renderer-agnostic template interfaces and adapters.
// Blocks and renderers depend on the TemplateRenderer seam rather than a
// concrete engine, so projects can swap template backends without touching
// block definitions.
package template
