// Package request provides the decoding helpers shared by generated CRUD
// handlers: pagination bounds and typed URL path parameters.
package request

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size used when the caller omits limit.
	DefaultLimit = 100
	// MaxLimit is the largest accepted page size.
	MaxLimit = 1000
)

// Page is a validated pagination window.
type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads the skip and limit query parameters. Out-of-range values
// are rejected at the boundary, never silently clamped: skip must be >= 0
// and limit must be within [1, MaxLimit].
func ParsePage(r *http.Request) (Page, error) {
	page := Page{Limit: DefaultLimit}

	if raw := r.URL.Query().Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, fmt.Errorf("invalid skip value %q", raw)
		}
		if n < 0 {
			return Page{}, fmt.Errorf("skip must be >= 0, got %d", n)
		}
		page.Skip = n
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, fmt.Errorf("invalid limit value %q", raw)
		}
		if n < 1 || n > MaxLimit {
			return Page{}, fmt.Errorf("limit must be between 1 and %d, got %d", MaxLimit, n)
		}
		page.Limit = n
	}

	return page, nil
}

// UUIDParam parses a UUID path parameter from the routing context.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// IntParam parses an integer path parameter from the routing context.
func IntParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// StringParam returns a raw path parameter from the routing context.
func StringParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
