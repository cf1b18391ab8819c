package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accounts, err := s.accounts.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(accounts, toAccount))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	typ, err := core.ParseAccountType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.accounts.Create(r.Context(), owner, core.Account{
		Name:           sanitizeInput(req.Name),
		Type:           typ,
		InitialBalance: req.InitialBalance,
		Currency:       req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccount(a))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.accounts.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(a))
}

func (s *Server) handlePatchAccount(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accountPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := services.AccountPatch{Name: sanitizePtr(req.Name), Active: req.Active}
	if req.Type != nil {
		typ, err := core.ParseAccountType(*req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Type = &typ
	}
	a, err := s.accounts.Update(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccount(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
