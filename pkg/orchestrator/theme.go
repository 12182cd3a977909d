package orchestrator

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// defaultThemeFallbacks lists the partials renderers can count on even when a
// manifest leaves them unmapped.
func defaultThemeFallbacks() map[string]string {
	return map[string]string{
		"forms.form":   "templates/form.tmpl",
		"blocks.field": "templates/field.tmpl",
	}
}

// resolveTheme turns a theme/variant selection into the renderer configuration
// passed along with render options. Variant tokens, templates and assets
// overlay the manifest's base values; fallback partials fill whatever remains
// unmapped. A nil selector with no requested theme yields no configuration.
func (o *Orchestrator) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	if name == "" {
		name = o.themeName
	}
	if variant == "" {
		variant = o.themeVariant
	}
	if o.themeSelector == nil || name == "" {
		return nil, nil
	}

	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme %q: %w", name, err)
	}
	if selection == nil {
		return nil, nil
	}

	fallbacks := o.themeFallbacks
	if fallbacks == nil {
		fallbacks = defaultThemeFallbacks()
	}

	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: make(map[string]string, len(fallbacks)),
		Tokens:   make(map[string]string),
		CSSVars:  make(map[string]string),
	}
	for key, value := range fallbacks {
		cfg.Partials[key] = value
	}

	manifest := selection.Manifest
	if manifest == nil {
		return cfg, nil
	}

	for key, value := range manifest.Tokens {
		cfg.Tokens[key] = value
	}
	for key, value := range manifest.Templates {
		cfg.Partials[key] = value
	}

	assetPrefix := manifest.Assets.Prefix
	assetFiles := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		assetFiles[key] = value
	}

	if variantSpec, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variantSpec.Tokens {
			cfg.Tokens[key] = value
		}
		for key, value := range variantSpec.Templates {
			cfg.Partials[key] = value
		}
		if variantSpec.Assets.Prefix != "" {
			assetPrefix = variantSpec.Assets.Prefix
		}
		for key, value := range variantSpec.Assets.Files {
			assetFiles[key] = value
		}
	}

	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}

	cfg.AssetURL = func(name string) string {
		file, ok := assetFiles[name]
		if !ok {
			file = name
		}
		if assetPrefix == "" {
			return file
		}
		return strings.TrimSuffix(assetPrefix, "/") + "/" + strings.TrimPrefix(file, "/")
	}

	return cfg, nil
}
