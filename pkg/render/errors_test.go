package render_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/render"
)

func profileBlock() *blocks.StructBlock {
	link := blocks.NewStructBlock([]blocks.Child{
		{Name: "title", Block: blocks.NewCharBlock(blocks.WithRequired())},
		{Name: "url", Block: blocks.NewURLBlock(blocks.WithRequired())},
	})
	return blocks.NewStructBlock([]blocks.Child{
		{Name: "name", Block: blocks.NewCharBlock(blocks.WithRequired())},
		{Name: "website", Block: link},
	})
}

func TestMapErrorPayloadAttachesToChildren(t *testing.T) {
	block := profileBlock()
	payload := map[string][]string{
		"profile-name":        {"This field is required."},
		"profile-website-url": {"Enter a valid URL."},
		"profile-unknown":     {"Something went wrong."},
	}

	mapping := render.MapErrorPayload(block, "profile", payload)

	var structErr *blocks.StructBlockError
	if !errors.As(mapping.Block, &structErr) {
		t.Fatalf("expected *StructBlockError, got %v", mapping.Block)
	}
	if _, ok := structErr.BlockErrors["name"]; !ok {
		t.Errorf("expected name failure, got %v", structErr.BlockErrors)
	}

	websiteErr, ok := structErr.BlockErrors["website"]
	if !ok {
		t.Fatalf("expected website failure, got %v", structErr.BlockErrors)
	}
	var nested *blocks.StructBlockError
	if !errors.As(websiteErr, &nested) {
		t.Fatalf("expected nested *StructBlockError, got %v", websiteErr)
	}
	if _, ok := nested.BlockErrors["url"]; !ok {
		t.Errorf("expected nested url failure, got %v", nested.BlockErrors)
	}

	if diff := cmp.Diff([]string{"Something went wrong."}, mapping.Form); diff != "" {
		t.Errorf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenErrorInvertsMapping(t *testing.T) {
	block := profileBlock()
	aggregated := &blocks.StructBlockError{BlockErrors: map[string]error{
		"name": blocks.NewValidationError("This field is required."),
		"website": &blocks.StructBlockError{BlockErrors: map[string]error{
			"url": blocks.NewValidationError("Enter a valid URL."),
		}},
	}}

	payload := render.FlattenError(block, "profile", aggregated)

	want := map[string][]string{
		"profile-name":        {"This field is required."},
		"profile-website-url": {"Enter a valid URL."},
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrorsDeduplicates(t *testing.T) {
	got := render.MergeFormErrors([]string{"boom", " boom "}, "", "second")
	if diff := cmp.Diff([]string{"boom", "second"}, got); diff != "" {
		t.Errorf("merged errors mismatch (-want +got):\n%s", diff)
	}
}
