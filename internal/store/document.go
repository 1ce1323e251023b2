package store

import (
	"strings"
	"time"

	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// Part is one entry in a document's ordered content. Parts are created by
// the document-parts endpoint; the slice order is the document order.
type Part struct {
	ID           string // "{documentID}/workitem_{local}" or ".../heading_{local}"
	WorkItem     string // full work item id
	Position     int    // position recorded at insertion time
	PreviousPart string // the previousPart reference from the request, if any
	CreatedAt    time.Time
}

// JSONAPI renders the part as a resource object. The emulated API returns no
// attributes for work item parts, only the workItem relationship.
func (p *Part) JSONAPI() jsonapi.Resource {
	return jsonapi.Resource{
		Type: "document_parts",
		ID:   p.ID,
		Relationships: jsonapi.Relationships{
			"workItem": jsonapi.ToOne("workitems", p.WorkItem),
		},
		Links: map[string]string{
			"self": "/polarion/rest/v1/parts/" + p.ID,
		},
	}
}

// Document is a structured specification document identified by
// "{project}/{space}/{name}". Parts holds the ordered placed content;
// associated-but-hidden work items are not parts.
type Document struct {
	ID      string
	Project string
	Space   string
	Name    string

	Title           string
	Type            string
	Status          string
	Author          string
	HomePageContent *Description
	Created         time.Time
	Updated         time.Time

	Parts []Part
}

// JSONAPI renders the document as a resource object.
func (d *Document) JSONAPI() jsonapi.Resource {
	attrs := jsonapi.Attributes{
		"title":             d.Title,
		"name":              d.Name,
		"type":              d.Type,
		"status":            d.Status,
		"structureLinkRole": "parent",
		"created":           d.Created.UTC().Format(TimeFormat),
		"updated":           d.Updated.UTC().Format(TimeFormat),
	}
	if d.Author != "" {
		attrs["author"] = d.Author
	}
	if d.HomePageContent != nil {
		attrs["homePageContent"] = map[string]string{
			"type":  d.HomePageContent.Type,
			"value": d.HomePageContent.Value,
		}
	}
	return jsonapi.Resource{
		Type:       "documents",
		ID:         d.ID,
		Attributes: attrs,
		Links: map[string]string{
			"self": "/polarion/rest/v1/projects/" + d.Project +
				"/spaces/" + d.Space + "/documents/" + d.Name,
			"portal": "/polarion/#/project/" + d.Project + "/wiki/" + d.Name,
		},
	}
}

func (d *Document) clone() *Document {
	c := *d
	if d.HomePageContent != nil {
		h := *d.HomePageContent
		c.HomePageContent = &h
	}
	c.Parts = append([]Part(nil), d.Parts...)
	return &c
}

// partIDs returns the ordered part ids, the input to position calculation.
func (d *Document) partIDs() []string {
	ids := make([]string, len(d.Parts))
	for i, p := range d.Parts {
		ids[i] = p.ID
	}
	return ids
}

// partIDFor derives the part id for a work item placed in this document.
// Heading items use the heading_ prefix so later insertions can reference
// them for heading-relative numbering.
func (d *Document) partIDFor(wi *WorkItem) string {
	prefix := "workitem_"
	if strings.EqualFold(wi.Type, "heading") {
		prefix = "heading_"
	}
	return d.ID + "/" + prefix + wi.LocalID()
}
