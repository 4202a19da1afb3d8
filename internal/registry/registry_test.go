package registry

import (
	"testing"
)

func TestLoadYAML(t *testing.T) {
	data := []byte(`
hope:
  default: 0.5
  range: [0, 1]
  type: overlay
nvda_cash:
  default: 1000
  range: [0, 100000]
  type: capital
`)
	s, err := Load(data, ".yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Contains("hope") || !s.Contains("nvda_cash") {
		t.Fatalf("missing keys: %v", s.Keys())
	}
	if got := s.Default("nvda_cash"); got != 1000 {
		t.Fatalf("default lost: %v", got)
	}
}

func TestLoadJSONByContentSniff(t *testing.T) {
	data := []byte(`{"hope": {"default": 0.5, "range": [0, 1], "type": "overlay"}}`)
	s, err := Load(data, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Contains("hope") {
		t.Fatal("sniffed JSON schema missing key")
	}
}

func TestLoadRejectsEmptySchema(t *testing.T) {
	if _, err := Load([]byte(`{}`), ".json"); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestClamp(t *testing.T) {
	s := Schema{"hope": {Default: 0.5, Range: [2]float64{0, 1}, Type: "overlay"}}
	if got := s.Clamp("hope", 1.7); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := s.Clamp("hope", -0.2); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := s.Clamp("unknown", 42); got != 42 {
		t.Fatalf("unknown keys pass through, got %v", got)
	}
}

func TestDefaultSchemaIsComplete(t *testing.T) {
	s := DefaultSchema()
	for _, key := range s.Keys() {
		spec := s[key]
		if spec.Type != "overlay" && spec.Type != "capital" {
			t.Fatalf("key %s has unexpected type %q", key, spec.Type)
		}
	}
	if !s.Contains("hope") {
		t.Fatal("built-in schema must carry the symbolic overlays")
	}
}
