package jsonapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Error is a JSON:API error object. Detail and source are omitted when
// unset, except for errors built with NewNullError: the emulated API
// renders most not-found errors with explicit nulls, and clients match on
// that shape.
type Error struct {
	Status string         `json:"status"`
	Title  string         `json:"title"`
	Detail *string        `json:"detail,omitempty"`
	Source map[string]any `json:"source,omitempty"`

	explicitNulls bool
}

// NewError builds an error object with a detail string.
func NewError(status int, title, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: &detail,
	}
}

// NewNullError builds an error object that serializes detail and source as
// explicit nulls.
func NewNullError(status int, title string) Error {
	return Error{
		Status:        strconv.Itoa(status),
		Title:         title,
		explicitNulls: true,
	}
}

// WithSource attaches a source object to the error.
func (e Error) WithSource(source map[string]any) Error {
	e.Source = source
	return e
}

// MarshalJSON picks the wire shape: errors from NewNullError carry their
// detail and source keys even when unset, every other error drops them.
func (e Error) MarshalJSON() ([]byte, error) {
	if e.explicitNulls {
		return json.Marshal(struct {
			Status string         `json:"status"`
			Title  string         `json:"title"`
			Detail *string        `json:"detail"`
			Source map[string]any `json:"source"`
		}{e.Status, e.Title, e.Detail, e.Source})
	}
	type plain Error
	return json.Marshal(plain(e))
}

// WriteErrors serializes an errors-only document. The HTTP status is taken
// from the first error object.
func WriteErrors(w http.ResponseWriter, errs ...Error) error {
	status := http.StatusInternalServerError
	if len(errs) > 0 {
		if s, err := strconv.Atoi(errs[0].Status); err == nil {
			status = s
		}
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(&Document{Errors: errs})
}
