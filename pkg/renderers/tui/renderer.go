package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/render"
)

const defaultMaxAttempts = 3

type Option func(*Renderer)

// WithDriver swaps the prompt driver, primarily for tests and alternate TUI
// backends.
func WithDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithMaxAttempts caps how many times failed fields are re-prompted before
// the renderer gives up.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// Renderer drives an interactive terminal session: it prompts for every child
// of the block, validates the collected submission, re-prompts failed fields,
// and emits the storage-ready value as JSON.
type Renderer struct {
	driver      PromptDriver
	maxAttempts int
}

// New constructs the TUI renderer. Without options it prompts on the real
// terminal via survey.
func New(options ...Option) (*Renderer, error) {
	renderer := &Renderer{
		driver:      newSurveyDriver(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(renderer)
	}
	return renderer, nil
}

func (r *Renderer) Name() string {
	return "tui"
}

func (r *Renderer) ContentType() string {
	return "application/json; charset=utf-8"
}

// RenderForm runs the interactive session for the block and returns the
// cleaned, storage-ready value serialised as JSON.
func (r *Renderer) RenderForm(ctx context.Context, block blocks.Block, value any, options render.RenderOptions) ([]byte, error) {
	prefix := options.Prefix
	if prefix == "" {
		prefix = "form"
	}

	data := url.Values{}
	if err := r.promptBlock(ctx, block, value, prefix, data, nil); err != nil {
		return nil, err
	}

	cleaned, err := r.cleanLoop(ctx, block, prefix, data)
	if err != nil {
		return nil, err
	}

	prepped, err := block.PrepValue(cleaned)
	if err != nil {
		return nil, fmt.Errorf("tui: prepare value: %w", err)
	}
	out, err := json.Marshal(prepped)
	if err != nil {
		return nil, fmt.Errorf("tui: encode value: %w", err)
	}
	return out, nil
}

// cleanLoop validates the collected submission and re-prompts only the failed
// fields until Clean passes or attempts run out.
func (r *Renderer) cleanLoop(ctx context.Context, block blocks.Block, prefix string, data url.Values) (any, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		parsed := block.ValueFromDataDict(data, nil, prefix)
		cleaned, err := block.Clean(parsed)
		if err == nil {
			return cleaned, nil
		}

		var structErr *blocks.StructBlockError
		if !errors.As(err, &structErr) {
			return nil, err
		}
		for _, msg := range blocks.ErrorMessages(structErr) {
			if infoErr := r.driver.Info(ctx, "✗ "+msg); infoErr != nil {
				return nil, infoErr
			}
		}

		structBlock, ok := block.(*blocks.StructBlock)
		if !ok {
			return nil, err
		}
		if err := r.repromptFailed(ctx, structBlock, prefix, data, structErr); err != nil {
			return nil, err
		}
	}
	return nil, ErrTooManyAttempts
}

func (r *Renderer) repromptFailed(ctx context.Context, block *blocks.StructBlock, prefix string, data url.Values, structErr *blocks.StructBlockError) error {
	for _, child := range block.Children() {
		childErr, failed := structErr.BlockErrors[child.Name]
		if !failed {
			continue
		}
		childPrefix := prefix + "-" + child.Name
		if nested, ok := child.Block.(*blocks.StructBlock); ok {
			var nestedErr *blocks.StructBlockError
			if errors.As(childErr, &nestedErr) {
				if err := r.repromptFailed(ctx, nested, childPrefix, data, nestedErr); err != nil {
					return err
				}
				continue
			}
		}
		if err := r.promptChild(ctx, child, nil, childPrefix, data); err != nil {
			return err
		}
	}
	return nil
}

// promptBlock prompts for a block's value. Struct blocks announce themselves
// and recurse into their children; leaves get a single prompt.
func (r *Renderer) promptBlock(ctx context.Context, block blocks.Block, value any, prefix string, data url.Values, parentErr error) error {
	structBlock, ok := block.(*blocks.StructBlock)
	if !ok {
		return r.promptChild(ctx, blocks.Child{Name: block.Name(), Block: block}, value, prefix, data)
	}

	if label := blockLabel(block); label != "" {
		if err := r.driver.Info(ctx, label); err != nil {
			return err
		}
	}
	for _, child := range structBlock.Children() {
		childValue, _ := valueFor(value, child.Name)
		if nested, ok := child.Block.(*blocks.StructBlock); ok {
			if err := r.promptBlock(ctx, nested, childValue, prefix+"-"+child.Name, data, nil); err != nil {
				return err
			}
			continue
		}
		if err := r.promptChild(ctx, child, childValue, prefix+"-"+child.Name, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptChild(ctx context.Context, child blocks.Child, value any, prefix string, data url.Values) error {
	message := blockLabel(child.Block)
	if message == "" {
		message = child.Name
	}
	help := blockHelp(child.Block)

	switch b := child.Block.(type) {
	case *blocks.BooleanBlock:
		current := false
		if value != nil {
			if v, ok := value.(bool); ok {
				current = v
			}
		}
		checked, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: current,
			Help:    help,
		})
		if err != nil {
			return err
		}
		// Presence of the key is the submission signal, matching checkbox
		// behaviour in browser forms.
		data.Del(prefix)
		if checked {
			data.Set(prefix, "1")
		}
		return nil

	case *blocks.ChoiceBlock:
		choices := b.Meta().Choices
		labels := make([]string, 0, len(choices))
		defaultIndex := 0
		current := fmt.Sprint(value)
		for i, choice := range choices {
			labels = append(labels, choice.Label)
			if choice.Value == current {
				defaultIndex = i
			}
		}
		index, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: defaultIndex,
			Help:         help,
		})
		if err != nil {
			return err
		}
		if index >= 0 && index < len(choices) {
			data.Set(prefix, choices[index].Value)
		}
		return nil

	case *blocks.TextBlock, *blocks.RichTextBlock:
		out, err := r.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Default: stringValue(value),
			Help:    help,
		})
		if err != nil {
			return err
		}
		data.Set(prefix, out)
		return nil

	default:
		out, err := r.driver.Input(ctx, InputConfig{
			Message: message,
			Default: stringValue(value),
			Help:    help,
		})
		if err != nil {
			return err
		}
		data.Set(prefix, out)
		return nil
	}
}

func blockLabel(block blocks.Block) string {
	if labeled, ok := block.(interface{ Label() string }); ok {
		return labeled.Label()
	}
	return ""
}

func blockHelp(block blocks.Block) string {
	if provider, ok := block.(blocks.MetaProvider); ok {
		return provider.Meta().HelpText
	}
	return ""
}

func valueFor(value any, name string) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case *blocks.StructValue:
		return v.Get(name)
	case *blocks.Map:
		return v.Get(name)
	case map[string]any:
		out, ok := v[name]
		return out, ok
	default:
		return nil, false
	}
}

func stringValue(value any) string {
	if value == nil {
		return ""
	}
	s := fmt.Sprint(value)
	return strings.TrimSpace(s)
}
