package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/cpctree/internal/export"
	"github.com/dgallion1/cpctree/internal/tree"
)

var contentTypes = map[string]string{
	"json":     "application/json",
	"yaml":     "application/yaml",
	"markdown": "text/markdown; charset=utf-8",
	"html":     "text/html; charset=utf-8",
	"docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// currentForest writes a 503 and returns false when nothing has been built yet.
func (s *Server) currentForest(w http.ResponseWriter) (tree.Forest, bool) {
	forest, _ := s.store.Forest()
	if forest == nil {
		jsonError(w, "tree not built", http.StatusServiceUnavailable)
		return nil, false
	}
	return forest, true
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	forest, ok := s.currentForest(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"symbols": tree.SortedKeys(forest)})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	forest, ok := s.currentForest(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := tree.WriteJSON(w, forest); err != nil {
		s.log.Error("write tree", "error", err)
	}
}

// handleNode resolves ?path=A&path=A01 by direct key access, one level per
// value.
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query()["path"]
	if len(path) == 0 {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	forest, ok := s.currentForest(w)
	if !ok {
		return
	}

	node, found := forest.Lookup(path...)
	if !found {
		jsonError(w, fmt.Sprintf("no node at %s", strings.Join(path, " > ")), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(node)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	writer, err := export.ForFormat(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	forest, ok := s.currentForest(w)
	if !ok {
		return
	}

	// Render fully before writing so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := writer.Write(&buf, tree.LoadForest(forest)); err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if ct, ok := contentTypes[format]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Write(buf.Bytes())
}
