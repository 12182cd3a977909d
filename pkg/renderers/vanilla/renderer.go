package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/render"
	rendertemplate "github.com/goliatone/go-blockform/pkg/render/template"
	gotemplate "github.com/goliatone/go-blockform/pkg/render/template/gotemplate"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer emits plain HTML forms from block definitions, wrapping each
// block's own fragment in form chrome (action, method, hidden inputs,
// form-level errors, theme hooks).
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// RenderForm renders the block's form fragment and wraps it in a <form>
// element. Non-browser verbs (PATCH, PUT, DELETE) become POST plus a hidden
// _method input.
func (r *Renderer) RenderForm(ctx context.Context, block blocks.Block, value any, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	prefix := options.Prefix
	if prefix == "" {
		prefix = "form"
	}

	fragment, err := block.RenderForm(ctx, value, prefix, options.Errors)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render block: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = "POST"
	}
	hidden := options.Hidden
	if method != "GET" && method != "POST" {
		hidden = render.MergeHiddenFields(hidden, render.Hidden("_method", method))
		method = "POST"
	}

	hiddenFields := make([]map[string]any, 0)
	for _, field := range render.SortedHiddenFields(hidden) {
		hiddenFields = append(hiddenFields, map[string]any{
			"name":  field.Name,
			"value": field.Value,
		})
	}

	data := map[string]any{
		"action":      options.Action,
		"method":      strings.ToLower(method),
		"prefix":      prefix,
		"fragment":    fragment,
		"hidden":      hiddenFields,
		"form_errors": options.FormErrors,
		"form_class":  formClass(options),
		"style":       themeStyle(options),
		"scripts":     mediaScripts(block, options),
	}

	result, err := r.templates.RenderTemplate("templates/form.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func formClass(options render.RenderOptions) string {
	classes := []string{"blockform"}
	if options.Theme != nil {
		if options.Theme.Theme != "" {
			classes = append(classes, "blockform-theme-"+options.Theme.Theme)
		}
		if options.Theme.Variant != "" {
			classes = append(classes, "blockform-variant-"+options.Theme.Variant)
		}
	}
	return strings.Join(classes, " ")
}

// themeStyle flattens the theme's CSS variables into an inline style so forms
// pick up tokens without a separate stylesheet round trip.
func themeStyle(options render.RenderOptions) string {
	if options.Theme == nil || len(options.Theme.CSSVars) == 0 {
		return ""
	}
	names := make([]string, 0, len(options.Theme.CSSVars))
	for name := range options.Theme.CSSVars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(options.Theme.CSSVars[name])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

func mediaScripts(block blocks.Block, options render.RenderOptions) []string {
	provider, ok := block.(blocks.MediaProvider)
	if !ok {
		return nil
	}
	scripts := provider.MediaScripts()
	if options.Theme == nil || options.Theme.AssetURL == nil {
		return scripts
	}
	out := make([]string, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, options.Theme.AssetURL(script))
	}
	return out
}
