package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule constrains one numeric instrumental field to a closed range.
type Rule struct {
	Path string  `yaml:"path"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// Schema is the ordered set of instrumental constraints. Rule order is
// declaration order and determines validator output order.
type Schema struct {
	Rules []Rule
}

// NonInstrumentalSchema lists the canonical cosmetic field paths. Presence
// is advisory only; missing paths never block geometry derivation.
type NonInstrumentalSchema struct {
	Paths []string
}

// DefaultSchema returns the built-in manufacturing constraint schema.
func DefaultSchema() Schema {
	return Schema{Rules: []Rule{
		{Path: PathShoeLength, Min: 250, Max: 330},
		{Path: PathShoeWidth, Min: 90, Max: 130},
		{Path: PathSoleThickness, Min: 20, Max: 45},
		{Path: PathArchHeight, Min: 5, Max: 35},
		{Path: PathToeSpring, Min: 5, Max: 25},
		{Path: PathCollarHeight, Min: 30, Max: 90},
	}}
}

// DefaultNonInstrumentalSchema returns the canonical cosmetic field set.
func DefaultNonInstrumentalSchema() NonInstrumentalSchema {
	return NonInstrumentalSchema{Paths: []string{
		"materials.upper",
		"materials.lining",
		"materials.outsole",
		"colors.primary_hex",
		"colors.secondary_hex",
		"branding.monogram_placement",
		"branding.embroidery_thread",
		"textures.upper_texture",
	}}
}

// schemaFile is the YAML layout for a schema override file.
type schemaFile struct {
	Instrumental    []Rule   `yaml:"instrumental"`
	NonInstrumental []string `yaml:"non_instrumental"`
}

// LoadSchemaFile reads a schema override from YAML. Intended to be called
// once at process start; the returned values are treated as immutable.
func LoadSchemaFile(path string) (Schema, NonInstrumentalSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, NonInstrumentalSchema{}, fmt.Errorf("spec: read schema: %w", err)
	}
	var f schemaFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Schema{}, NonInstrumentalSchema{}, fmt.Errorf("spec: parse schema: %w", err)
	}
	if len(f.Instrumental) == 0 {
		return Schema{}, NonInstrumentalSchema{}, fmt.Errorf("spec: schema file %s declares no instrumental rules", path)
	}
	for _, r := range f.Instrumental {
		if r.Path == "" {
			return Schema{}, NonInstrumentalSchema{}, fmt.Errorf("spec: schema rule with empty path")
		}
		if r.Min > r.Max {
			return Schema{}, NonInstrumentalSchema{}, fmt.Errorf("spec: schema rule %s has min %v > max %v", r.Path, r.Min, r.Max)
		}
	}
	return Schema{Rules: f.Instrumental}, NonInstrumentalSchema{Paths: f.NonInstrumental}, nil
}
