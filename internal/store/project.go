package store

import (
	"time"

	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// Project is a container for work items and documents.
type Project struct {
	ID            string
	Name          string
	Description   *Description
	TrackerPrefix string
	Version       string
	Active        bool
	Location      string
	Created       time.Time
	Updated       time.Time
}

// JSONAPI renders the project as a resource object.
func (p *Project) JSONAPI() jsonapi.Resource {
	attrs := jsonapi.Attributes{
		"id":      p.ID,
		"name":    p.Name,
		"active":  p.Active,
		"created": p.Created.UTC().Format(TimeFormat),
		"updated": p.Updated.UTC().Format(TimeFormat),
	}
	if p.Description != nil {
		attrs["description"] = map[string]string{
			"type":  p.Description.Type,
			"value": p.Description.Value,
		}
	}
	if p.TrackerPrefix != "" {
		attrs["trackerPrefix"] = p.TrackerPrefix
	}
	if p.Version != "" {
		attrs["version"] = p.Version
	}
	if p.Location != "" {
		attrs["location"] = p.Location
	}
	return jsonapi.Resource{
		Type:       "projects",
		ID:         p.ID,
		Attributes: attrs,
		Links: map[string]string{
			"self":   "/polarion/rest/v1/projects/" + p.ID,
			"portal": "/polarion/#/project/" + p.ID,
		},
	}
}

func (p *Project) clone() *Project {
	c := *p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	return &c
}

// User is a known account, referenced by author and assignee attributes.
type User struct {
	ID      string
	Name    string
	Email   string
	Created time.Time
}

// JSONAPI renders the user as a resource object.
func (u *User) JSONAPI() jsonapi.Resource {
	return jsonapi.Resource{
		Type: "users",
		ID:   u.ID,
		Attributes: jsonapi.Attributes{
			"id":       u.ID,
			"name":     u.Name,
			"email":    u.Email,
			"disabled": false,
			"created":  u.Created.UTC().Format(TimeFormat),
		},
		Links: map[string]string{
			"self":   "/polarion/rest/v1/users/" + u.ID,
			"portal": "/polarion/#/user/" + u.ID,
		},
	}
}
