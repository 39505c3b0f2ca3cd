package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes f as JSON indented with four spaces.
func WriteJSON(w io.Writer, f Forest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(nonNil(f)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes f as YAML.
func WriteYAML(w io.Writer, f Forest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(nonNil(f)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// DecodeJSON reads a serialized forest and loads it. Only syntax errors are
// reported; shape mismatches are handled by LoadForest.
func DecodeJSON(r io.Reader) (map[string]*Node, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return LoadForest(v), nil
}

// DecodeYAML is DecodeJSON for YAML input. An empty document loads as an
// empty forest.
func DecodeYAML(r io.Reader) (map[string]*Node, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return LoadForest(v), nil
}

// ReadFile loads a serialized forest, choosing YAML for .yaml/.yml files and
// JSON otherwise.
func ReadFile(path string) (map[string]*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return DecodeJSON(f)
	}
}

func nonNil(f Forest) Forest {
	if f == nil {
		return Forest{}
	}
	return f
}
