package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/cpctree/internal/builder"
)

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.Rebuild(r.Context())
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, builder.ErrDatasetNotFound):
			code = http.StatusNotFound
		case errors.Is(err, builder.ErrRootMalformed):
			code = http.StatusUnprocessableEntity
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			code = http.StatusServiceUnavailable
		}
		jsonError(w, "rebuild failed: "+err.Error(), code)
		return
	}

	forest, builtAt := s.store.Forest()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"top_level": len(forest),
		"nodes":     nodes,
		"built_at":  builtAt,
	})
}

func (s *Server) handleBuildStats(w http.ResponseWriter, r *http.Request) {
	_, builtAt := s.store.Forest()

	resp := map[string]any{
		"latency": s.store.Latency(),
		"builder": s.store.BuildStats(),
	}
	if !builtAt.IsZero() {
		resp["built_at"] = builtAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
