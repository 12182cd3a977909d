package migrate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

// DumpYAML serialises a block definition for schema history files.
func DumpYAML(def blocks.Definition) ([]byte, error) {
	out, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("migrate: encode definition: %w", err)
	}
	return out, nil
}

// LoadYAML reads a block definition from a schema history file.
func LoadYAML(data []byte) (blocks.Definition, error) {
	var def blocks.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return blocks.Definition{}, fmt.Errorf("migrate: decode definition: %w", err)
	}
	if def.Path == "" {
		return blocks.Definition{}, fmt.Errorf("migrate: definition has no construct path")
	}
	return def, nil
}

// LoadBlockYAML reads a definition and rebuilds the block it describes.
func (r *Registry) LoadBlockYAML(data []byte) (blocks.Block, error) {
	def, err := LoadYAML(data)
	if err != nil {
		return nil, err
	}
	return r.FromDefinition(def)
}
