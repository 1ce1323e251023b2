package api

import (
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// ProjectsHandler lists projects with pagination, sorting and sparse
// fieldsets.
func ProjectsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}

		projects := srv.Store.ListProjects()
		sortProjects(projects, r.URL.Query().Get("sort"))

		page := parsePage(r, srv.Config.DefaultPageSize)
		total := len(projects)
		start, end := page.Slice(total)

		fields := parseFields(r, "projects")
		resources := make([]jsonapi.Resource, 0, end-start)
		for _, p := range projects[start:end] {
			res := p.JSONAPI()
			jsonapi.ApplySparseFieldsets(&res, fields)
			resources = append(resources, res)
		}

		doc := jsonapi.NewCollection(resources, total, page, r.URL.Path)
		srv.Logger.Info("listed projects", append(logArgs, "count", len(resources))...)
		jsonapi.Write(w, http.StatusOK, doc)
	})
}

func sortProjects(projects []store.Project, param string) {
	if param == "" {
		return
	}
	desc := strings.HasPrefix(param, "-")
	field := strings.TrimPrefix(param, "-")

	less := func(i, j int) bool { return projects[i].ID < projects[j].ID }
	switch field {
	case "name":
		less = func(i, j int) bool { return projects[i].Name < projects[j].Name }
	case "created":
		less = func(i, j int) bool { return projects[i].Created.Before(projects[j].Created) }
	case "id":
	default:
		return
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(projects, less)
}

// ProjectHandler returns one project.
func ProjectHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("projectID")

		p, err := srv.Store.GetProject(id)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		res := p.JSONAPI()
		jsonapi.ApplySparseFieldsets(&res, parseFields(r, "projects"))
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(res))
	})
}

type projectPayload struct {
	Data struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			Name          string `json:"name"`
			Description   any    `json:"description"`
			TrackerPrefix string `json:"trackerPrefix"`
			Version       string `json:"version"`
			Active        *bool  `json:"active"`
		} `json:"attributes"`
	} `json:"data"`
}

func (p *projectPayload) validate() error {
	if err := validation.Validate(p.Data.Type,
		validation.Required, validation.In("projects")); err != nil {
		return store.NewValidation("Resource type must be 'projects'")
	}
	if p.Data.ID == "" {
		return store.NewValidation("Project ID is required")
	}
	if p.Data.Attributes.Name == "" {
		return store.NewFieldValidation("name", "Project name is required")
	}
	return nil
}

// ProjectCreateHandler creates one project from a single-resource body.
func ProjectCreateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload projectPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if err := payload.validate(); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		attrs := payload.Data.Attributes
		prefix := attrs.TrackerPrefix
		if prefix == "" {
			prefix = strings.ToUpper(payload.Data.ID)
		}
		p := store.Project{
			ID:            payload.Data.ID,
			Name:          attrs.Name,
			Description:   descriptionFromBody(attrs.Description, "text/plain"),
			TrackerPrefix: prefix,
			Version:       attrs.Version,
			Active:        attrs.Active == nil || *attrs.Active,
		}
		if err := srv.Store.CreateProject(p); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		created, err := srv.Store.GetProject(p.ID)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		srv.Logger.Info("created project", "project", p.ID)
		jsonapi.Write(w, http.StatusCreated, jsonapi.NewSingle(created.JSONAPI()))
	})
}

// descriptionFromBody accepts the API's two description encodings: a
// bare string or a {type, value} object.
func descriptionFromBody(v any, defaultType string) *store.Description {
	switch d := v.(type) {
	case string:
		if d == "" {
			return nil
		}
		return &store.Description{Type: defaultType, Value: d}
	case map[string]any:
		desc := &store.Description{Type: defaultType}
		if t, ok := d["type"].(string); ok {
			desc.Type = t
		}
		if val, ok := d["value"].(string); ok {
			desc.Value = val
		}
		return desc
	default:
		return nil
	}
}

// ProjectUpdateHandler merges attributes into an existing project.
func ProjectUpdateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("projectID")

		var payload struct {
			Data struct {
				Type       string         `json:"type"`
				ID         string         `json:"id"`
				Attributes map[string]any `json:"attributes"`
			} `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if payload.Data.Type != "" && payload.Data.Type != "projects" {
			writeError(w, srv.Logger, r, store.NewValidation("Resource type must be 'projects'"))
			return
		}
		if payload.Data.ID != "" && payload.Data.ID != id {
			writeError(w, srv.Logger, r, store.NewValidation("Project ID in URL and body must match"))
			return
		}

		updated, err := srv.Store.UpdateProject(id, func(p *store.Project) error {
			for key, value := range payload.Data.Attributes {
				switch key {
				case "name":
					if v, ok := value.(string); ok {
						p.Name = v
					}
				case "description":
					p.Description = descriptionFromBody(value, "text/plain")
				case "trackerPrefix":
					if v, ok := value.(string); ok {
						p.TrackerPrefix = v
					}
				case "version":
					if v, ok := value.(string); ok {
						p.Version = v
					}
				case "active":
					if v, ok := value.(bool); ok {
						p.Active = v
					}
				}
			}
			return nil
		})
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		srv.Logger.Info("updated project", "project", id)
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(updated.JSONAPI()))
	})
}

// ProjectDeleteHandler removes a project.
func ProjectDeleteHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("projectID")
		if err := srv.Store.DeleteProject(id); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		srv.Logger.Info("deleted project", "project", id)
		w.WriteHeader(http.StatusNoContent)
	})
}

// ProjectActionHandler serves the markProject and unmarkProject actions.
func ProjectActionHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("projectID")
		action := r.PathValue("action")

		if _, err := srv.Store.GetProject(id); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		switch action {
		case "markProject":
			jsonapi.Write(w, http.StatusOK,
				actionDocument(action, "Project "+id+" marked successfully"))
		case "unmarkProject":
			jsonapi.Write(w, http.StatusOK,
				actionDocument(action, "Project "+id+" unmarked successfully"))
		default:
			writeNotAvailable(w, r.URL.Path)
		}
	})
}
