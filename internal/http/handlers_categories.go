package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var direction core.Direction
	if v := r.URL.Query().Get("direction"); v != "" {
		if direction, err = core.ParseDirection(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	cats, err := s.categories.List(r.Context(), owner, direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(cats, toCategory))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	direction, err := core.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.categories.Create(r.Context(), owner, core.Category{Name: sanitizeInput(req.Name), Direction: direction})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategory(c))
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := services.CategoryPatch{Name: sanitizePtr(req.Name)}
	if req.Direction != nil {
		d, err := core.ParseDirection(*req.Direction)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Direction = &d
	}
	c, err := s.categories.Update(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategory(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
