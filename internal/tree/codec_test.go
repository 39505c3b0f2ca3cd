package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleForest() Forest {
	return Forest{
		"A": {
			Title: "HUMAN NECESSITIES",
			Children: Forest{
				"A01": {
					Title: "AGRICULTURE",
					Children: Forest{
						"A01B": {Title: "SOIL WORKING"},
					},
				},
			},
		},
		"B": {
			Title: "PERFORMING OPERATIONS; TRANSPORTING",
			Children: Forest{
				"B01": {Children: Forest{"B01D": {Title: "SEPARATION"}}},
			},
		},
		"Y": {},
	}
}

func TestWriteJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Forest{"A": {Title: "T", Children: Forest{"A01": {}}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{
    "A": {
        "title": "T",
        "children": {
            "A01": {}
        }
    }
}
`
	if buf.String() != want {
		t.Errorf("unexpected json:\n%s", buf.String())
	}
}

func TestWriteJSON_NilForest(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "{}" {
		t.Errorf("expected {}, got %q", buf.String())
	}
}

func TestRoundTrip_JSON(t *testing.T) {
	want := sampleForest()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, ToForest(nodes)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	a01b := nodes["A"].Children["A01"].Children["A01B"]
	if a01b.Title != "SOIL WORKING" {
		t.Errorf("expected %q, got %q", "SOIL WORKING", a01b.Title)
	}
	if a01b.Children == nil || len(a01b.Children) != 0 {
		t.Errorf("expected empty children map, got %#v", a01b.Children)
	}
	if b01 := nodes["B"].Children["B01"]; b01.HasTitle {
		t.Errorf("expected B01 without title, got %q", b01.Title)
	}
}

func TestRoundTrip_YAML(t *testing.T) {
	want := sampleForest()
	var buf bytes.Buffer
	if err := WriteYAML(&buf, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes, err := DecodeYAML(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, ToForest(nodes)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSON_SyntaxError(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader(`{"A": `)); err == nil {
		t.Error("expected syntax error")
	}
}

func TestDecodeJSON_WrongShapeIsTolerated(t *testing.T) {
	nodes, err := DecodeJSON(strings.NewReader(`["A", "B"]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected empty forest, got %d nodes", len(nodes))
	}
}

func TestDecodeYAML_Empty(t *testing.T) {
	nodes, err := DecodeYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected empty forest, got %d nodes", len(nodes))
	}
}

func TestReadFile_ByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tree.json")
	yamlPath := filepath.Join(dir, "tree.yml")

	if err := os.WriteFile(jsonPath, []byte(`{"A": {"title": "from json"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("A:\n  title: from yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{jsonPath, "from json"},
		{yamlPath, "from yaml"},
	}
	for _, tt := range tests {
		nodes, err := ReadFile(tt.path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.path, err)
		}
		if got := nodes["A"].Title; got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, got)
		}
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
