// Package jsonapi builds wire-compatible JSON:API response documents for
// the emulated ALM REST surface: resource objects, paginated collections,
// sparse fieldsets, error documents and the byte-size normalization the
// real service exhibits for empty collections.
package jsonapi

import (
	"encoding/json"
	"net/http"

	"github.com/iancoleman/strcase"
)

// ContentType is the media type of every response body.
const ContentType = "application/json"

// ResourceIdentifier is a {type, id} reference to another resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship is a to-one relationship object. The emulated surface never
// returns to-many relationship linkage.
type Relationship struct {
	Data *ResourceIdentifier `json:"data,omitempty"`
}

// Relationships is the named relationship map of a resource.
type Relationships map[string]Relationship

// Attributes is the attribute map of a resource. Absent attributes are
// absent keys, never null placeholders.
type Attributes map[string]any

// Resource is a single JSON:API resource object. Optional member groups
// are omitted entirely when empty.
type Resource struct {
	Type          string            `json:"type"`
	ID            string            `json:"id"`
	Attributes    Attributes        `json:"attributes,omitempty"`
	Relationships Relationships     `json:"relationships,omitempty"`
	Links         map[string]string `json:"links,omitempty"`
	Meta          map[string]any    `json:"meta,omitempty"`
}

// ToOne builds a to-one relationship pointing at the given resource.
func ToOne(resourceType, id string) Relationship {
	return Relationship{Data: &ResourceIdentifier{Type: resourceType, ID: id}}
}

// Document is a top-level JSON:API document. Data may hold a single
// Resource, a []Resource, or nil (error documents).
type Document struct {
	Data     any               `json:"data,omitempty"`
	Included []Resource        `json:"included,omitempty"`
	Meta     map[string]any    `json:"meta,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Errors   []Error           `json:"errors,omitempty"`
}

// NewSingle builds a document carrying one resource.
func NewSingle(res Resource) *Document {
	return &Document{Data: res}
}

// NewMulti builds a document carrying a plain (non-paginated) resource
// array, as returned from batch create operations.
func NewMulti(resources []Resource) *Document {
	if resources == nil {
		resources = []Resource{}
	}
	return &Document{Data: resources}
}

// ApplySparseFieldsets trims a resource's attributes to the requested keys.
// Requested keys are normalized to lowerCamel before matching and unknown
// keys are silently dropped; an empty request leaves the resource intact.
func ApplySparseFieldsets(res *Resource, fields []string) {
	if len(fields) == 0 || res.Attributes == nil {
		return
	}
	filtered := Attributes{}
	for _, f := range fields {
		key := strcase.ToLowerCamel(f)
		if v, ok := res.Attributes[key]; ok {
			filtered[key] = v
		}
	}
	res.Attributes = filtered
}

// Write serializes a document. Empty collection documents are padded to the
// observed fixed byte size before encoding (see padding.go).
func Write(w http.ResponseWriter, status int, doc *Document) error {
	PadEmptyCollection(doc)
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}
