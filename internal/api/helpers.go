package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// parsePage reads page[number] and page[size] query parameters.
func parsePage(r *http.Request, defaultSize int) jsonapi.Page {
	page := jsonapi.Page{Number: 1, Size: defaultSize}
	if v := r.URL.Query().Get("page[number]"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Number = n
		}
	}
	if v := r.URL.Query().Get("page[size]"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page.Size = n
		}
	}
	return page
}

// parseFields reads the fields[{type}] sparse fieldset parameter.
func parseFields(r *http.Request, resourceType string) []string {
	raw := r.URL.Query().Get(fmt.Sprintf("fields[%s]", resourceType))
	if raw == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// parseInclude reads the include parameter as a set.
func parseInclude(r *http.Request) map[string]bool {
	raw := r.URL.Query().Get("include")
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, inc := range strings.Split(raw, ",") {
		if inc = strings.TrimSpace(inc); inc != "" {
			set[inc] = true
		}
	}
	return set
}

// decodeBody parses a JSON request body into dst. A malformed or empty body
// is a ValidationError.
func decodeBody(r *http.Request, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		return store.NewValidation("Request must be JSON")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return store.NewValidation("Request must be JSON")
	}
	return nil
}

// relRef is the data member of a to-one relationship in request bodies.
type relRef struct {
	Data struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"data"`
}

// actionDocument builds the envelope returned by action endpoints.
func actionDocument(action, message string) *jsonapi.Document {
	return jsonapi.NewSingle(jsonapi.Resource{
		Type: "actions",
		ID:   action,
		Attributes: jsonapi.Attributes{
			"status":  "success",
			"message": message,
		},
	})
}
