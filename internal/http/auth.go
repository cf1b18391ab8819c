package http

import (
	"context"
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// TokenResolver maps an API token to the user that owns it.
type TokenResolver interface {
	UserByToken(ctx context.Context, token string) (core.User, error)
}

type ownerKey struct{}

// requireAuth resolves the bearer token and stores the owner in the request
// context. Requests without a valid token never reach next.
func requireAuth(resolver TokenResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, core.ErrInvalidToken)
			return
		}
		user, err := resolver.UserByToken(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logger := log.FromContext(r.Context()).With(log.FieldOwnerID, user.ID)
		ctx := log.WithLogger(context.WithValue(r.Context(), ownerKey{}, user.ID), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ownerID returns the authenticated owner. Handlers only run behind
// requireAuth, so a missing value is a programming error reported as 401.
func ownerID(r *http.Request) (int64, error) {
	id, ok := r.Context().Value(ownerKey{}).(int64)
	if !ok || id <= 0 {
		return 0, core.ErrInvalidToken
	}
	return id, nil
}
