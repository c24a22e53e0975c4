package http

import (
	"net/http"
	"strings"

	"tally/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.ledger.CreateCategory(r.Context(), cat)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctype := core.CategoryType(strings.TrimSpace(r.URL.Query().Get("type")))
	if ctype != "" && !ctype.Valid() {
		writeBadRequest(w, "invalid category type")
		return
	}

	categories, err := s.ledger.ListCategories(r.Context(), ctype)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid category id")
		return
	}

	var cat core.Category
	if err := decodeJSON(r, &cat); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	cat.ID = id

	updated, err := s.ledger.UpdateCategory(r.Context(), cat)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid category id")
		return
	}

	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
