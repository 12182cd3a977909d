package migrate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/migrate"
)

func cardBlock() *blocks.StructBlock {
	base := blocks.NewStructBlock([]blocks.Child{
		{Name: "heading", Block: blocks.NewCharBlock(blocks.WithRequired(), blocks.WithMaxLength(120))},
		{Name: "body", Block: blocks.NewRichTextBlock()},
	})
	return base.Extend([]blocks.Child{
		{Name: "rating", Block: blocks.NewDecimalBlock(blocks.WithMin(0.5), blocks.WithMax(5))},
		{Name: "kind", Block: blocks.NewChoiceBlock(
			blocks.WithDefault("news"),
			blocks.WithChoices(
				blocks.Choice{Value: "news", Label: "News"},
				blocks.Choice{Value: "review", Label: "Review"},
			),
		)},
	}, blocks.WithLabel("Card"))
}

func TestFromDefinitionRebuildsBlock(t *testing.T) {
	registry := migrate.NewRegistry()
	def := cardBlock().Deconstruct()

	rebuilt, err := registry.FromDefinition(def)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if diff := cmp.Diff(def, rebuilt.Deconstruct()); diff != "" {
		t.Errorf("definition mismatch after rebuild (-want +got):\n%s", diff)
	}

	structBlock, ok := rebuilt.(*blocks.StructBlock)
	if !ok {
		t.Fatalf("rebuilt = %T, want *StructBlock", rebuilt)
	}
	if _, err := structBlock.Clean(map[string]any{"heading": ""}); err == nil {
		t.Error("expected required heading to fail after rebuild")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	registry := migrate.NewRegistry()
	def := cardBlock().Deconstruct()

	encoded, err := migrate.DumpYAML(def)
	if err != nil {
		t.Fatalf("DumpYAML: %v", err)
	}
	if !strings.Contains(string(encoded), blocks.StructBlockPath) {
		t.Errorf("encoded definition missing construct path:\n%s", encoded)
	}

	rebuilt, err := registry.LoadBlockYAML(encoded)
	if err != nil {
		t.Fatalf("LoadBlockYAML: %v", err)
	}
	if diff := cmp.Diff(def, rebuilt.Deconstruct()); diff != "" {
		t.Errorf("definition mismatch after YAML round trip (-want +got):\n%s", diff)
	}
}

func TestFromDefinitionUnknownPath(t *testing.T) {
	registry := migrate.NewRegistry()
	_, err := registry.FromDefinition(blocks.Definition{Path: "blockform.blocks.Removed"})
	if err == nil || !strings.Contains(err.Error(), "no factory") {
		t.Fatalf("err = %v, want unknown path error", err)
	}
}

func TestRegisterCustomFactory(t *testing.T) {
	registry := migrate.NewRegistry()
	err := registry.Register("example.blocks.Custom", func(children []blocks.Child, config map[string]any) (blocks.Block, error) {
		return blocks.NewCharBlock(), nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Register(blocks.CharBlockPath, nil); err == nil {
		t.Error("expected nil factory rejection")
	}
	if err := registry.Register("example.blocks.Custom", func([]blocks.Child, map[string]any) (blocks.Block, error) {
		return nil, nil
	}); err == nil {
		t.Error("expected duplicate registration error")
	}

	block, err := registry.FromDefinition(blocks.Definition{Path: "example.blocks.Custom"})
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if _, ok := block.(*blocks.CharBlock); !ok {
		t.Errorf("block = %T, want custom factory output", block)
	}
}
