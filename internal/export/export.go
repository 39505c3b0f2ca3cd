package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/cpctree/internal/tree"
)

// Writer renders a forest of loaded nodes to w.
type Writer interface {
	Write(w io.Writer, nodes map[string]*tree.Node) error
}

// Formats lists the format names accepted by ForFormat.
var Formats = []string{"json", "yaml", "markdown", "html", "docx"}

// ForFormat returns the writer for a format name.
func ForFormat(name string) (Writer, error) {
	switch strings.ToLower(name) {
	case "json":
		return &JSONWriter{}, nil
	case "yaml", "yml":
		return &YAMLWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "html", "htm":
		return &HTMLWriter{}, nil
	case "docx":
		return &DOCXWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", name)
	}
}

// ForFile returns the writer matching a filename's extension.
func ForFile(filename string) (Writer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("unsupported file extension: %q", filename)
	}
	w, err := ForFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	return w, nil
}

// JSONWriter emits the serialized tree shape as indented JSON.
type JSONWriter struct{}

func (JSONWriter) Write(w io.Writer, nodes map[string]*tree.Node) error {
	return tree.WriteJSON(w, tree.ToForest(nodes))
}

// YAMLWriter emits the serialized tree shape as YAML.
type YAMLWriter struct{}

func (YAMLWriter) Write(w io.Writer, nodes map[string]*tree.Node) error {
	return tree.WriteYAML(w, tree.ToForest(nodes))
}
