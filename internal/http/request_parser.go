// Package http serves the JSON API.
//
// This file implements decoding of request bodies, path values and query
// parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequest marks input that could not be decoded at all, as opposed to
// decoded input that fails validation.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func newBadRequest(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected. Domain errors raised by field decoders are returned unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var domainErr *core.Error
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &domainErr):
			return domainErr
		case errors.As(err, &maxErr):
			return newBadRequest("request body too large")
		case errors.Is(err, io.EOF):
			return newBadRequest("request body is empty")
		default:
			return newBadRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return newBadRequest("request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, newBadRequest("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func queryInt64Ptr(q url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, newBadRequest("invalid %s %q", key, v)
	}
	return &n, nil
}

func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, newBadRequest("invalid %s %q", key, v)
	}
	return n, nil
}

func queryDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

func queryBool(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, newBadRequest("invalid %s %q", key, v)
	}
	return b, nil
}

// parseTransactionFilter reads the listing filters from the query string.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var (
		f   core.TransactionFilter
		err error
	)
	if f.AccountID, err = queryInt64Ptr(q, "accountId"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryInt64Ptr(q, "categoryId"); err != nil {
		return f, err
	}
	if v := q.Get("type"); v != "" {
		if f.Type, err = core.ParseTransactionType(v); err != nil {
			return f, err
		}
	}
	if f.From, err = queryDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(q, "to"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}
