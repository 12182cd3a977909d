package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-blockform/pkg/blocks"
	"github.com/goliatone/go-blockform/pkg/jsonschema"
	"github.com/goliatone/go-blockform/pkg/migrate"
	"github.com/goliatone/go-blockform/pkg/openapi"
	"github.com/goliatone/go-blockform/pkg/orchestrator"
	"github.com/goliatone/go-blockform/pkg/render"
	"github.com/goliatone/go-blockform/pkg/renderers/tui"
	"github.com/goliatone/go-blockform/pkg/renderers/vanilla"
)

func main() {
	definition := flag.String("definition", "", "block definition YAML path")
	spec := flag.String("spec", "", "OpenAPI document path (alternative to -definition)")
	component := flag.String("component", "", "component schema name when using -spec")
	renderer := flag.String("renderer", "vanilla", "renderer to use (vanilla, tui)")
	mode := flag.String("mode", "form", "output mode: form, schema, definition")
	stored := flag.String("stored", "", "stored value JSON path used to pre-fill the form")
	prefix := flag.String("prefix", "block", "form input name prefix")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	block, err := loadBlock(ctx, *definition, *spec, *component)
	if err != nil {
		log.Fatalf("Failed to load block: %v", err)
	}

	var out []byte
	switch *mode {
	case "form":
		out, err = renderForm(ctx, block, *renderer, *stored, *prefix)
	case "schema":
		out, err = renderSchema(block)
	case "definition":
		out, err = migrate.DumpYAML(block.Deconstruct())
	default:
		log.Fatalf("Unknown mode: %q", *mode)
	}
	if err != nil {
		log.Fatalf("Failed to generate output: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func loadBlock(ctx context.Context, definition, spec, component string) (blocks.Block, error) {
	switch {
	case definition != "":
		data, err := os.ReadFile(definition)
		if err != nil {
			return nil, err
		}
		return migrate.NewRegistry().LoadBlockYAML(data)
	case spec != "":
		if component == "" {
			return nil, fmt.Errorf("-component is required with -spec")
		}
		data, err := os.ReadFile(spec)
		if err != nil {
			return nil, err
		}
		return openapi.BlockFromComponent(ctx, data, component)
	default:
		return nil, fmt.Errorf("either -definition or -spec is required")
	}
}

func renderForm(ctx context.Context, block blocks.Block, rendererName, storedPath, prefix string) ([]byte, error) {
	registry := render.NewRegistry()

	htmlRenderer, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(htmlRenderer); err != nil {
		return nil, err
	}

	if rendererName == "tui" {
		interactive, err := tui.New()
		if err != nil {
			return nil, err
		}
		if err := registry.Register(interactive); err != nil {
			return nil, err
		}
	}

	req := orchestrator.Request{
		Block:    block,
		Renderer: rendererName,
		Prefix:   prefix,
	}
	if storedPath != "" {
		stored, err := os.ReadFile(storedPath)
		if err != nil {
			return nil, err
		}
		req.Stored = stored
	}

	return orchestrator.New(orchestrator.WithRegistry(registry)).Generate(ctx, req)
}

func renderSchema(block blocks.Block) ([]byte, error) {
	schema, err := jsonschema.SchemaFor(block)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(schema, "", "  ")
}
