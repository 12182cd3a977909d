package blocks_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

func linkBlock() *blocks.StructBlock {
	return blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock(blocks.WithRequired())},
		{Name: "url", Block: blocks.NewURLBlock(blocks.WithRequired())},
		{Name: "external", Block: blocks.NewBooleanBlock()},
	})
}

func TestStructBlockValueFromDataDictOrder(t *testing.T) {
	block := linkBlock()
	data := url.Values{
		"link-url":      {"https://example.com"},
		"link-title":    {"Example"},
		"link-external": {"1"},
	}

	value, ok := block.ValueFromDataDict(data, nil, "link").(*blocks.StructValue)
	if !ok {
		t.Fatalf("expected *StructValue, got %T", value)
	}
	if diff := cmp.Diff([]string{"title", "url", "external"}, value.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	title, _ := value.Get("title")
	if title != "Example" {
		t.Errorf("title = %v, want Example", title)
	}
	external, _ := value.Get("external")
	if external != true {
		t.Errorf("external = %v, want true", external)
	}
}

func TestStructBlockExtendOverrideKeepsPosition(t *testing.T) {
	base := linkBlock()
	extended := base.Extend([]blocks.Child{
		{Name: "url", Block: blocks.NewCharBlock(blocks.WithRequired())},
		{Name: "caption", Block: blocks.NewCharBlock()},
	})

	var names []string
	for _, child := range extended.Children() {
		names = append(names, child.Name)
	}
	if diff := cmp.Diff([]string{"title", "url", "external", "caption"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if child, _ := extended.Child("url"); child == nil {
		t.Fatal("expected url child")
	} else if _, ok := child.(*blocks.CharBlock); !ok {
		t.Errorf("url child = %T, want *CharBlock override", child)
	}

	// The receiver must not pick up the local declarations.
	if got := len(base.Children()); got != 3 {
		t.Errorf("base child count = %d, want 3", got)
	}
	if child, _ := base.Child("url"); child == nil {
		t.Fatal("expected base url child")
	} else if _, ok := child.(*blocks.URLBlock); !ok {
		t.Errorf("base url child = %T, want *URLBlock", child)
	}
}

func TestStructBlockCleanAggregatesFailures(t *testing.T) {
	block := linkBlock()
	value := map[string]any{
		"title":    "Example",
		"url":      "not a url",
		"external": true,
	}

	_, err := block.Clean(value)
	var structErr *blocks.StructBlockError
	if !errors.As(err, &structErr) {
		t.Fatalf("expected *StructBlockError, got %v", err)
	}
	if len(structErr.BlockErrors) != 1 {
		t.Fatalf("block errors = %v, want exactly one", structErr.BlockErrors)
	}
	if _, ok := structErr.BlockErrors["url"]; !ok {
		t.Errorf("expected failure keyed by url, got %v", structErr.BlockErrors)
	}
}

func TestStructBlockCleanPassesAllChildren(t *testing.T) {
	block := linkBlock()
	value := map[string]any{
		"title":    "  Example  ",
		"url":      "https://example.com",
		"external": true,
	}

	cleaned, err := block.Clean(value)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	sv := cleaned.(*blocks.StructValue)
	title, _ := sv.Get("title")
	if title != "Example" {
		t.Errorf("title = %q, want trimmed Example", title)
	}
	if diff := cmp.Diff([]string{"title", "url", "external"}, sv.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestStructBlockCleanRejectsNonMapping(t *testing.T) {
	block := linkBlock()
	for _, value := range []any{"not a mapping", 42, []any{"title"}} {
		if _, err := block.Clean(value); err == nil {
			t.Errorf("Clean(%T) succeeded, want error", value)
		} else {
			var structErr *blocks.StructBlockError
			if errors.As(err, &structErr) {
				t.Errorf("Clean(%T) returned validation error %v, want internal error", value, err)
			}
		}
	}
}

func TestStructBlockRenderFormDistributesErrors(t *testing.T) {
	block := linkBlock()
	aggregated := &blocks.StructBlockError{BlockErrors: map[string]error{
		"title": blocks.NewValidationError("This field is required."),
		"url":   blocks.NewValidationError("Enter a valid URL."),
	}}
	value := map[string]any{"title": "", "url": "nope", "external": false}

	htmlOut, err := block.RenderForm(context.Background(), value, "myform", []error{aggregated})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}
	if got := strings.Count(htmlOut, "This field is required."); got != 1 {
		t.Errorf("required message count = %d, want 1", got)
	}
	if got := strings.Count(htmlOut, "Enter a valid URL."); got != 1 {
		t.Errorf("url message count = %d, want 1", got)
	}
	titleAt := strings.Index(htmlOut, `id="myform-title"`)
	requiredAt := strings.Index(htmlOut, "This field is required.")
	urlAt := strings.Index(htmlOut, `id="myform-url"`)
	if titleAt < 0 || requiredAt < 0 || urlAt < 0 {
		t.Fatalf("missing expected fragments in output:\n%s", htmlOut)
	}
	if !(requiredAt < titleAt && titleAt < urlAt) {
		t.Errorf("required message not attached to title fragment")
	}
}

func TestStructBlockRenderFormSurfacesPlainError(t *testing.T) {
	block := linkBlock()
	plain := blocks.NewValidationError("Submission could not be processed.")

	htmlOut, err := block.RenderForm(context.Background(), nil, "myform", []error{plain})
	if err != nil {
		t.Fatalf("RenderForm: %v", err)
	}
	if !strings.Contains(htmlOut, `<ul class="errors"><li>Submission could not be processed.</li></ul>`) {
		t.Errorf("plain error not rendered at block level:\n%s", htmlOut)
	}
}

func TestStructBlockRenderFormRejectsMultipleErrors(t *testing.T) {
	block := linkBlock()
	errs := []error{
		blocks.NewValidationError("one"),
		blocks.NewValidationError("two"),
	}
	_, err := block.RenderForm(context.Background(), nil, "form", errs)
	if err == nil {
		t.Fatal("expected error for multiple aggregated errors")
	}
	var structErr *blocks.StructBlockError
	if errors.As(err, &structErr) {
		t.Errorf("expected internal error, got validation error %v", err)
	}
}

func TestStructBlockToNativeAppliesDefaults(t *testing.T) {
	block := blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock(blocks.WithDefault("Untitled"))},
		{Name: "count", Block: blocks.NewIntegerBlock()},
		{Name: "external", Block: blocks.NewBooleanBlock()},
	})

	value, err := block.ToNative(map[string]any{"count": float64(3)})
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}
	sv := value.(*blocks.StructValue)
	title, _ := sv.Get("title")
	if title != "Untitled" {
		t.Errorf("title = %v, want default Untitled", title)
	}
	count, _ := sv.Get("count")
	if count != int64(3) {
		t.Errorf("count = %v (%T), want int64(3)", count, count)
	}
	external, _ := sv.Get("external")
	if external != false {
		t.Errorf("external = %v, want default false", external)
	}
}

func TestStructBlockRoundTripIdempotent(t *testing.T) {
	block := linkBlock()
	stored := map[string]any{
		"title":    "Example",
		"url":      "https://example.com",
		"external": true,
	}

	native, err := block.ToNative(stored)
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}
	prepped, err := block.PrepValue(native)
	if err != nil {
		t.Fatalf("PrepValue: %v", err)
	}
	again, err := block.ToNative(prepped)
	if err != nil {
		t.Fatalf("ToNative round trip: %v", err)
	}

	first, err := json.Marshal(native)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(again)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("round trip changed value (-first +second):\n%s", diff)
	}
}

func TestStructBlockPrepValueOrderedStorage(t *testing.T) {
	block := linkBlock()
	native, err := block.ToNative(map[string]any{
		"external": true,
		"url":      "https://example.com",
		"title":    "Example",
	})
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}

	prepped, err := block.PrepValue(native)
	if err != nil {
		t.Fatalf("PrepValue: %v", err)
	}
	stored, ok := prepped.(*blocks.Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", prepped)
	}
	if diff := cmp.Diff([]string{"title", "url", "external"}, stored.Keys()); diff != "" {
		t.Errorf("stored keys mismatch (-want +got):\n%s", diff)
	}
}

func TestStructBlockSearchableContentOrder(t *testing.T) {
	base := blocks.NewStructBlock([]blocks.Child{
		{Name: "heading", Block: blocks.NewCharBlock()},
	})
	block := base.Extend([]blocks.Child{
		{Name: "caption", Block: blocks.NewCharBlock()},
	})

	content := block.SearchableContent(map[string]any{
		"caption": "World",
		"heading": "Hello",
	})
	if diff := cmp.Diff([]string{"Hello", "World"}, content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestStructBlockDeconstructReportsBaseType(t *testing.T) {
	extended := linkBlock().Extend([]blocks.Child{
		{Name: "caption", Block: blocks.NewCharBlock()},
	}, blocks.WithLabel("Fancy link"))

	def := extended.Deconstruct()
	if def.Path != blocks.StructBlockPath {
		t.Errorf("path = %q, want %q", def.Path, blocks.StructBlockPath)
	}
	if len(def.Children) != 4 {
		t.Fatalf("child count = %d, want 4", len(def.Children))
	}
	if def.Config["label"] != "Fancy link" {
		t.Errorf("config label = %v, want Fancy link", def.Config["label"])
	}
}

func TestStructBlockJSInitializer(t *testing.T) {
	plain := linkBlock()
	if got := plain.JSInitializer(); got != "" {
		t.Errorf("plain initializer = %q, want empty", got)
	}

	block := blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock()},
		{Name: "body", Block: blocks.NewRichTextBlock()},
		{Name: "date", Block: blocks.NewDateBlock()},
	})
	want := `StructBlock({"body": RichTextEditor(), "date": DateChooser()})`
	if got := block.JSInitializer(); got != want {
		t.Errorf("initializer = %q, want %q", got, want)
	}
}

func TestStructValueBoundBlocksMemoizedAndOrdered(t *testing.T) {
	block := linkBlock()
	native, err := block.ToNative(map[string]any{
		"title": "Example",
		"url":   "https://example.com",
	})
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}
	sv := native.(*blocks.StructValue)

	first := sv.BoundBlocks()
	second := sv.BoundBlocks()
	if &first[0] != &second[0] {
		t.Error("expected BoundBlocks to reuse the computed slice")
	}
	if len(first) != 3 {
		t.Fatalf("bound count = %d, want 3", len(first))
	}
	if first[2].Name != "external" || first[2].Value != false {
		t.Errorf("external bound = %+v, want default false", first[2])
	}
}

func TestStructValueMarshalJSONOrdered(t *testing.T) {
	block := linkBlock()
	native, err := block.ToNative(map[string]any{
		"external": true,
		"title":    "Example",
		"url":      "https://example.com",
	})
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}

	out, err := json.Marshal(native)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"Example","url":"https://example.com","external":true}`
	if string(out) != want {
		t.Errorf("marshal = %s, want %s", out, want)
	}
}

func TestStructBlockMediaScripts(t *testing.T) {
	// The struct runtime ships regardless of whether any child needs
	// client-side setup; only the initializer expression is conditional.
	plain := blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock()},
	})
	scripts := plain.MediaScripts()
	if len(scripts) != 1 || scripts[0] != blocks.StructScript {
		t.Errorf("scripts = %v, want [%s]", scripts, blocks.StructScript)
	}
	if got := plain.JSInitializer(); got != "" {
		t.Errorf("initializer = %q, want empty", got)
	}

	block := blocks.NewStructBlock([]blocks.Child{
		{Name: "date", Block: blocks.NewDateBlock()},
	})
	scripts = block.MediaScripts()
	if len(scripts) != 1 || scripts[0] != blocks.StructScript {
		t.Errorf("scripts = %v, want [%s]", scripts, blocks.StructScript)
	}
}
