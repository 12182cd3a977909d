package orchestrator

import (
	"context"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-blockform/pkg/render"
)

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}

func TestOrchestratorPassesThemeConfigToRenderer(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "editorial",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
		Templates: map[string]string{
			"forms.form": "themes/editorial/form.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/editorial",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"stylesheet": "theme.dark.css",
					},
				},
			},
		},
	}

	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:    "editorial",
		Variant:  "dark",
		Manifest: manifest,
	}}

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(
		WithRegistry(registry),
		WithDefaultRenderer(renderer.Name()),
		WithThemeSelector(selector),
	)

	_, err := orch.Generate(context.Background(), Request{
		Block:        pageBlock(),
		Prefix:       "page",
		ThemeName:    "editorial",
		ThemeVariant: "dark",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(selector.calls) != 1 {
		t.Fatalf("expected selector called once, got %d", len(selector.calls))
	}
	if selector.calls[0].name != "editorial" || selector.calls[0].variant != "dark" {
		t.Fatalf("unexpected selector args: %+v", selector.calls[0])
	}

	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatal("expected theme config passed to renderer")
	}
	if cfg.Theme != "editorial" || cfg.Variant != "dark" {
		t.Fatalf("selection mismatch: %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.Tokens["brand"] != "#654321" {
		t.Errorf("tokens not merged with variant override, got %s", cfg.Tokens["brand"])
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Errorf("css vars not derived from variant tokens, got %s", cfg.CSSVars["--brand"])
	}
	if cfg.Partials["forms.form"] != "themes/editorial/form.tmpl" {
		t.Errorf("manifest template not applied, got %s", cfg.Partials["forms.form"])
	}
	if cfg.Partials["blocks.field"] != defaultThemeFallbacks()["blocks.field"] {
		t.Errorf("fallback partial not applied, got %s", cfg.Partials["blocks.field"])
	}
	if cfg.AssetURL == nil {
		t.Fatal("expected AssetURL resolver present")
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/editorial/theme.dark.css" {
		t.Errorf("unexpected stylesheet url: %s", got)
	}
}

func TestOrchestratorThemeDefaultsApply(t *testing.T) {
	selector := &stubThemeSelector{selection: &theme.Selection{Theme: "editorial"}}

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(
		WithRegistry(registry),
		WithDefaultRenderer(renderer.Name()),
		WithThemeSelector(selector),
		WithThemeDefaults("editorial", "light"),
	)

	if _, err := orch.Generate(context.Background(), Request{Block: pageBlock()}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(selector.calls) != 1 {
		t.Fatalf("expected selector called once, got %d", len(selector.calls))
	}
	if selector.calls[0].name != "editorial" || selector.calls[0].variant != "light" {
		t.Fatalf("unexpected selector args: %+v", selector.calls[0])
	}
}

func TestOrchestratorNoThemeWithoutSelector(t *testing.T) {
	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(WithRegistry(registry), WithDefaultRenderer(renderer.Name()))

	if _, err := orch.Generate(context.Background(), Request{Block: pageBlock(), ThemeName: "editorial"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if renderer.options.Theme != nil {
		t.Errorf("expected no theme config, got %+v", renderer.options.Theme)
	}
}
