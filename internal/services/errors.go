package services

import (
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports missing or empty submission fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ConflictError reports a slug that is already taken. Source names who holds
// it: "registered" for a curated or custom icon, "builtin" for a renderer icon,
// or "store" when the write itself lost a race.
type ConflictError struct {
	Slug   string
	Source string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use (%s)", e.Slug, e.Source)
}

// UpstreamError reports that the renderer refused the test badge.
type UpstreamError struct {
	StatusCode int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rejected badge: %d %s", e.StatusCode, e.StatusText)
}

// TooLarge reports whether the renderer refused the icon for its size.
func (e *UpstreamError) TooLarge() bool {
	return e.StatusCode == http.StatusRequestURITooLong
}

// TransportError operations.
const (
	OpIconLookup   = "icon lookup"
	OpIconInsert   = "icon insert"
	OpBadgeFetch   = "badge fetch"
	OpTestRender   = "test render"
	OpBuiltinProbe = "builtin probe"
)

// TransportError wraps a failure to reach the renderer or the icon store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// StoreFailure reports whether the icon store, rather than the renderer, failed.
func (e *TransportError) StoreFailure() bool {
	return e.Op == OpIconLookup || e.Op == OpIconInsert
}
