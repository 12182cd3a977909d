package tui_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/render"
	"github.com/goliatone/go-blockform/pkg/renderers/tui"
)

// stubDriver replays scripted answers keyed by prompt message.
type stubDriver struct {
	inputs    map[string][]string
	confirms  map[string]bool
	selects   map[string]int
	textareas map[string]string
	messages  []string
}

func (d *stubDriver) next(message string) string {
	queue := d.inputs[message]
	if len(queue) == 0 {
		return ""
	}
	answer := queue[0]
	d.inputs[message] = queue[1:]
	return answer
}

func (d *stubDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	return d.next(cfg.Message), nil
}

func (d *stubDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	return d.confirms[cfg.Message], nil
}

func (d *stubDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	return d.selects[cfg.Message], nil
}

func (d *stubDriver) TextArea(_ context.Context, cfg tui.TextAreaConfig) (string, error) {
	return d.textareas[cfg.Message], nil
}

func (d *stubDriver) Info(_ context.Context, msg string) error {
	d.messages = append(d.messages, msg)
	return nil
}

func articleBlock() *blocks.StructBlock {
	return blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock(blocks.WithRequired(), blocks.WithLabel("Title"))},
		{Name: "body", Block: blocks.NewTextBlock(blocks.WithLabel("Body"))},
		{Name: "status", Block: blocks.NewChoiceBlock(
			blocks.WithLabel("Status"),
			blocks.WithRequired(),
			blocks.WithChoices(
				blocks.Choice{Value: "draft", Label: "Draft"},
				blocks.Choice{Value: "live", Label: "Live"},
			),
		)},
		{Name: "featured", Block: blocks.NewBooleanBlock(blocks.WithLabel("Featured"))},
	}, blocks.WithLabel("Article"))
}

func TestRendererCollectsAndCleans(t *testing.T) {
	driver := &stubDriver{
		inputs:    map[string][]string{"Title": {"Hello world"}},
		textareas: map[string]string{"Body": "First post."},
		selects:   map[string]int{"Status": 1},
		confirms:  map[string]bool{"Featured": true},
	}
	renderer, err := tui.New(tui.WithDriver(driver))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := renderer.RenderForm(context.Background(), articleBlock(), nil, render.RenderOptions{Prefix: "article"})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}

	want := `{"title":"Hello world","body":"First post.","status":"live","featured":true}`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if len(driver.messages) == 0 || driver.messages[0] != "Article" {
		t.Errorf("expected struct label announcement, got %v", driver.messages)
	}
}

func TestRendererRepromptsFailedFields(t *testing.T) {
	driver := &stubDriver{
		// Blank first answer fails the required check; the retry succeeds.
		inputs:    map[string][]string{"Title": {"", "Second try"}},
		textareas: map[string]string{"Body": ""},
		selects:   map[string]int{"Status": 0},
	}
	renderer, err := tui.New(tui.WithDriver(driver))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := renderer.RenderForm(context.Background(), articleBlock(), nil, render.RenderOptions{Prefix: "article"})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}

	want := `{"title":"Second try","body":"","status":"draft","featured":false}`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	var sawFailure bool
	for _, msg := range driver.messages {
		if msg == "✗ title: This field is required." {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Errorf("expected failure notice, got %v", driver.messages)
	}
}

func TestRendererGivesUpAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{
		inputs:    map[string][]string{"Title": {"", "", ""}},
		textareas: map[string]string{"Body": ""},
		selects:   map[string]int{"Status": 0},
	}
	renderer, err := tui.New(tui.WithDriver(driver), tui.WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = renderer.RenderForm(context.Background(), articleBlock(), nil, render.RenderOptions{Prefix: "article"})
	if err != tui.ErrTooManyAttempts {
		t.Fatalf("err = %v, want ErrTooManyAttempts", err)
	}
}
