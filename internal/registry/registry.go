package registry

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// #endregion imports

// #region types

// VariableSpec describes one canonical worldstate variable.
type VariableSpec struct {
	Default float64    `json:"default" yaml:"default"`
	Range   [2]float64 `json:"range" yaml:"range"`
	Type    string     `json:"type" yaml:"type"` // "variable" | "overlay" | "capital"
}

// Schema is the canonical variable registry: the complete set of keys the
// simulator expects, with defaults used to impute sparse baselines.
type Schema map[string]VariableSpec

// #endregion types

// #region load

// LoadFromPath reads a schema file (YAML or JSON, by extension; content
// sniffing when the extension is unknown) and returns the parsed Schema.
func LoadFromPath(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a schema from bytes. ext is the file extension hint
// (".yaml"/".yml"/".json"); empty means detect from content.
func Load(data []byte, ext string) (Schema, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	var s Schema
	switch ext {
	case ".yaml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse schema yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse schema json: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse schema: unsupported extension %q", ext)
	}

	if len(s) == 0 {
		return nil, fmt.Errorf("parse schema: no variables defined")
	}
	return s, nil
}

// #endregion load

// #region queries

// Keys returns all schema keys in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns the canonical default for key, 0 when key is unknown.
func (s Schema) Default(key string) float64 {
	return s[key].Default
}

// Contains reports whether key is part of the canonical schema.
func (s Schema) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Clamp restricts v to the declared range for key. Unknown keys pass
// through unchanged.
func (s Schema) Clamp(key string, v float64) float64 {
	spec, ok := s[key]
	if !ok || spec.Range == [2]float64{} {
		return v
	}
	if v < spec.Range[0] {
		return spec.Range[0]
	}
	if v > spec.Range[1] {
		return spec.Range[1]
	}
	return v
}

// #endregion queries

// #region default-schema

// DefaultSchema returns the built-in worldstate schema used when no registry
// file is supplied: the four symbolic overlays plus a small capital block.
func DefaultSchema() Schema {
	return Schema{
		"hope":      {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"despair":   {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"rage":      {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"fatigue":   {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"trust":     {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"},
		"nvda_cash": {Default: 100000, Range: [2]float64{0, 10000000}, Type: "capital"},
		"msft_cash": {Default: 100000, Range: [2]float64{0, 10000000}, Type: "capital"},
		"ibit_cash": {Default: 100000, Range: [2]float64{0, 10000000}, Type: "capital"},
		"spy_cash":  {Default: 100000, Range: [2]float64{0, 10000000}, Type: "capital"},
	}
}

// #endregion default-schema
