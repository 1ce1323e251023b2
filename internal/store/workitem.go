package store

import (
	"strings"
	"time"

	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// TimeFormat is the timestamp layout the API emits for created and
// updated attributes. Times are always rendered in UTC.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// Description is a typed rich-text value used for work item and document
// bodies.
type Description struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// WorkItem is a tracked requirement, task, defect or heading. The document
// association runs through a two-step lifecycle:
//
//	Unassociated:      Module == ""
//	Associated/Hidden: Module != "" && !InDocument (the recycle bin)
//	Visible:           Module != "" && InDocument
//
// OutlineNumber and Position are meaningful only while the item is visible.
type WorkItem struct {
	ID          string // full id: "{project}/{local}"
	Project     string
	Title       string
	Description *Description
	Type        string
	Status      string
	Priority    string
	Severity    string
	Author      string
	Assignee    []string
	Created     time.Time
	Updated     time.Time

	Module     string // full document id, "" when unassociated
	Parent     string // full work item id of the parent weak reference
	InDocument bool
	Position   int
	Outline    string
}

// LocalID returns the id without the project prefix.
func (wi *WorkItem) LocalID() string {
	if _, local, ok := strings.Cut(wi.ID, "/"); ok {
		return local
	}
	return wi.ID
}

// DeclareModule records the module relationship, moving an unassociated
// item into the recycle bin of the target document. Redeclaring the same
// module is a no-op; silently switching an existing association to a
// different document is rejected.
func (wi *WorkItem) DeclareModule(documentID string) error {
	if wi.Module != "" && wi.Module != documentID {
		return NewValidation(
			"work item %s is already associated with module %s", wi.ID, wi.Module)
	}
	wi.Module = documentID
	return nil
}

// MoveToModule forcibly redeclares the module relationship. A visible item
// moved to a different document loses its placement and lands in the new
// document's recycle bin.
func (wi *WorkItem) MoveToModule(documentID string) {
	if wi.Module != documentID {
		wi.InDocument = false
		wi.Position = 0
		wi.Outline = ""
	}
	wi.Module = documentID
}

// PlaceInDocument flips the item visible at the given position and outline.
// The item must already be associated with exactly the target document.
func (wi *WorkItem) PlaceInDocument(documentID string, position int, outline string) error {
	if wi.Module == "" {
		return NewValidation("WorkItem %s has no module relationship", wi.ID)
	}
	if wi.Module != documentID {
		return NewValidation(
			"WorkItem module (%s) does not match document (%s)", wi.Module, documentID)
	}
	wi.InDocument = true
	wi.Position = position
	wi.Outline = outline
	return nil
}

// InRecycleBin reports whether the item is associated but not placed. The
// bin is a derived view, never stored.
func (wi *WorkItem) InRecycleBin() bool {
	return wi.Module != "" && !wi.InDocument
}

// JSONAPI renders the work item as a resource object. OutlineNumber is
// serialized only while the item is visible in its document; recycle-bin
// items expose no outline.
func (wi *WorkItem) JSONAPI() jsonapi.Resource {
	attrs := jsonapi.Attributes{
		"id":      wi.LocalID(),
		"title":   wi.Title,
		"type":    wi.Type,
		"status":  wi.Status,
		"created": wi.Created.UTC().Format(TimeFormat),
		"updated": wi.Updated.UTC().Format(TimeFormat),
	}
	if wi.Description != nil {
		attrs["description"] = map[string]string{
			"type":  wi.Description.Type,
			"value": wi.Description.Value,
		}
	}
	if wi.Priority != "" {
		attrs["priority"] = wi.Priority
	}
	if wi.Severity != "" {
		attrs["severity"] = wi.Severity
	}
	if wi.Author != "" {
		attrs["author"] = wi.Author
	}
	if len(wi.Assignee) > 0 {
		attrs["assignee"] = wi.Assignee
	}
	if wi.InDocument && wi.Outline != "" {
		attrs["outlineNumber"] = wi.Outline
	}

	rels := jsonapi.Relationships{}
	if wi.Module != "" {
		rels["module"] = jsonapi.ToOne("documents", wi.Module)
	}
	if wi.Parent != "" {
		rels["parent"] = jsonapi.ToOne("workitems", wi.Parent)
	}
	if len(rels) == 0 {
		rels = nil
	}

	return jsonapi.Resource{
		Type:          "workitems",
		ID:            wi.ID,
		Attributes:    attrs,
		Relationships: rels,
		Links: map[string]string{
			"self":   "/polarion/rest/v1/projects/" + wi.Project + "/workitems/" + wi.LocalID(),
			"portal": "/polarion/#/project/" + wi.Project + "/workitem?id=" + wi.LocalID(),
		},
	}
}

func (wi *WorkItem) clone() *WorkItem {
	c := *wi
	if wi.Description != nil {
		d := *wi.Description
		c.Description = &d
	}
	c.Assignee = append([]string(nil), wi.Assignee...)
	return &c
}
