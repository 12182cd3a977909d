package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	theme "github.com/goliatone/go-theme"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/render"
	"github.com/goliatone/go-blockform/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithLogger injects a structured logger. Without it the orchestrator stays
// silent.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeDefaults sets the theme and variant used when a request does not
// name one.
func WithThemeDefaults(name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithThemeFallbacks overrides the fallback partials used when deriving
// renderer configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = fallbacks
	}
}

// Orchestrator coordinates the block lifecycle end to end: binding stored
// values, rendering forms, cleaning submissions, and preparing values for
// storage. It applies sensible defaults (vanilla renderer, embedded
// templates) while remaining open to dependency injection for advanced
// callers.
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	logger          *zap.Logger
	themeSelector   theme.ThemeSelector
	themeName       string
	themeVariant    string
	themeFallbacks  map[string]string
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with built-in implementations so callers can
// start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to render a block as a form.
type Request struct {
	// Block is the descriptor to render.
	Block blocks.Block

	// Stored carries the serialised stored value. Ignored when Value is set.
	Stored []byte

	// Value supplies the native value directly, bypassing Stored.
	Value any

	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string

	// Prefix namespaces the form inputs. When empty a unique prefix is
	// generated so multiple forms can coexist on one page.
	Prefix string

	// ThemeName and ThemeVariant select the theme for this request,
	// overriding the configured defaults.
	ThemeName    string
	ThemeVariant string

	// Errors carries a server-side validation payload keyed by namespaced
	// input names; entries that match no field surface as form-level errors.
	Errors map[string][]string

	// FormErrors lists messages rendered above the field list.
	FormErrors []string

	// Hidden lists hidden inputs (CSRF tokens, version markers) to emit.
	Hidden map[string]string

	// Action and Method configure the surrounding <form> element.
	Action string
	Method string
}

// Generate binds the request's value and renders the block through the
// selected renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if req.Block == nil {
		return nil, errors.New("orchestrator: block is required")
	}

	value := req.Value
	if value == nil {
		if len(req.Stored) > 0 {
			bound, err := o.BindStored(req.Block, req.Stored)
			if err != nil {
				return nil, err
			}
			value = bound
		} else {
			value = req.Block.Default()
		}
	}

	prefix := req.Prefix
	if prefix == "" {
		prefix = "block-" + uuid.NewString()[:8]
	}

	options := render.RenderOptions{
		Prefix:     prefix,
		Action:     req.Action,
		Method:     req.Method,
		Hidden:     req.Hidden,
		FormErrors: req.FormErrors,
	}

	if len(req.Errors) > 0 {
		if structBlock, ok := req.Block.(*blocks.StructBlock); ok {
			mapping := render.MapErrorPayload(structBlock, prefix, req.Errors)
			if mapping.Block != nil {
				options.Errors = []error{mapping.Block}
			}
			options.FormErrors = render.MergeFormErrors(options.FormErrors, mapping.Form...)
		}
	}

	themeConfig, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return nil, err
	}
	options.Theme = themeConfig

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.RenderForm(ctx, req.Block, value, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}

	o.logger.Debug("rendered block form",
		zap.String("renderer", renderer.Name()),
		zap.String("prefix", prefix),
		zap.Int("bytes", len(output)),
	)
	return output, nil
}

// CleanSubmission extracts the block's value from a flat submission and
// validates it. Validation failures come back as the block's aggregated
// error; callers feed that into the next Generate call via FlattenError.
func (o *Orchestrator) CleanSubmission(ctx context.Context, block blocks.Block, data url.Values, files blocks.FileMap, prefix string) (any, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, errors.New("orchestrator: block is required")
	}

	parsed := block.ValueFromDataDict(data, files, prefix)
	cleaned, err := block.Clean(parsed)
	if err != nil {
		o.logger.Debug("submission failed validation",
			zap.String("prefix", prefix),
			zap.Error(err),
		)
		return nil, err
	}
	return cleaned, nil
}

// BindStored deserialises a stored value and converts it to the block's
// native representation.
func (o *Orchestrator) BindStored(block blocks.Block, stored []byte) (any, error) {
	if block == nil {
		return nil, errors.New("orchestrator: block is required")
	}
	raw := blocks.NewMap()
	if err := json.Unmarshal(stored, raw); err != nil {
		return nil, fmt.Errorf("orchestrator: decode stored value: %w", err)
	}
	native, err := block.ToNative(raw)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: bind stored value: %w", err)
	}
	return native, nil
}

// PrepForStorage converts a native value into its serialised storage form.
func (o *Orchestrator) PrepForStorage(ctx context.Context, block blocks.Block, value any) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, errors.New("orchestrator: block is required")
	}

	prepped, err := block.PrepValue(value)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: prepare value: %w", err)
	}
	out, err := json.Marshal(prepped)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: encode value: %w", err)
	}
	return out, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	o.defaultsApplied = true
}
