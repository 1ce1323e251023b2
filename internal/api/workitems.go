package api

import (
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/almid"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// WorkItemsHandler lists a project's work items with query filtering,
// sorting, pagination and module side-loading.
func WorkItemsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projectID := r.PathValue("projectID")
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
			"project", projectID,
		}

		if _, err := srv.Store.GetProject(projectID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		items := srv.Store.QueryWorkItems(r.URL.Query().Get("query"), projectID)
		sortWorkItems(items, r.URL.Query().Get("sort"))

		page := parsePage(r, srv.Config.DefaultPageSize)
		total := len(items)
		start, end := page.Slice(total)
		pageItems := items[start:end]

		resources := make([]jsonapi.Resource, 0, len(pageItems))
		for i := range pageItems {
			resources = append(resources, pageItems[i].JSONAPI())
		}

		doc := jsonapi.NewCollection(resources, total, page, r.URL.Path)
		if parseInclude(r)["module"] {
			doc.Included = includeModules(srv, pageItems)
		}

		srv.Logger.Info("listed work items", append(logArgs, "count", len(resources))...)
		jsonapi.Write(w, http.StatusOK, doc)
	})
}

// AllWorkItemsHandler lists work items across every project.
func AllWorkItemsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := srv.Store.QueryWorkItems(r.URL.Query().Get("query"), "")

		page := parsePage(r, srv.Config.DefaultPageSize)
		total := len(items)
		start, end := page.Slice(total)

		resources := make([]jsonapi.Resource, 0, end-start)
		for i := start; i < end; i++ {
			resources = append(resources, items[i].JSONAPI())
		}

		doc := jsonapi.NewCollection(resources, total, page, r.URL.Path)
		jsonapi.Write(w, http.StatusOK, doc)
	})
}

func sortWorkItems(items []store.WorkItem, param string) {
	if param == "" {
		return
	}
	desc := strings.HasPrefix(param, "-")
	field := strings.TrimPrefix(param, "-")

	var less func(i, j int) bool
	switch field {
	case "created":
		less = func(i, j int) bool { return items[i].Created.Before(items[j].Created) }
	case "updated":
		less = func(i, j int) bool { return items[i].Updated.Before(items[j].Updated) }
	case "title":
		less = func(i, j int) bool { return items[i].Title < items[j].Title }
	default:
		return
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(items, less)
}

// includeModules side-loads the documents referenced by the page's module
// relationships, deduplicated, in first-reference order.
func includeModules(srv server.Server, items []store.WorkItem) []jsonapi.Resource {
	var included []jsonapi.Resource
	seen := make(map[string]bool)
	for i := range items {
		moduleID := items[i].Module
		if moduleID == "" || seen[moduleID] {
			continue
		}
		seen[moduleID] = true
		if doc, err := srv.Store.GetDocument(moduleID); err == nil {
			included = append(included, doc.JSONAPI())
		}
	}
	return included
}

// WorkItemHandler returns one work item.
func WorkItemHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fullID := almid.NewWorkItemID(r.PathValue("projectID"), r.PathValue("workItemID")).String()

		wi, err := srv.Store.GetWorkItem(fullID)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(wi.JSONAPI()))
	})
}

type workItemResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Title       string   `json:"title"`
		Description any      `json:"description"`
		Type        string   `json:"type"`
		Status      string   `json:"status"`
		Priority    string   `json:"priority"`
		Severity    string   `json:"severity"`
		Assignee    []string `json:"assignee"`
	} `json:"attributes"`
	Relationships map[string]relRef `json:"relationships"`
}

func (res *workItemResource) validate() error {
	if err := validation.Validate(res.Type,
		validation.Required, validation.In("workitems")); err != nil {
		return store.NewValidation("Resource type must be 'workitems'")
	}
	if res.Attributes.Title == "" {
		return store.NewFieldValidation("title", "Work item title is required")
	}
	return nil
}

// WorkItemCreateHandler creates a batch of work items. Local ids are
// synthesized from the project's tracker prefix when absent; a module
// relationship in the body associates the item without placing it.
func WorkItemCreateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projectID := r.PathValue("projectID")

		if _, err := srv.Store.GetProject(projectID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		var payload struct {
			Data []workItemResource `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if payload.Data == nil {
			writeError(w, srv.Logger, r, store.NewValidation("Request must contain 'data' array"))
			return
		}

		created := make([]jsonapi.Resource, 0, len(payload.Data))
		for _, res := range payload.Data {
			if err := res.validate(); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}

			localID := res.ID
			if localID == "" {
				var err error
				localID, err = srv.Store.NextWorkItemID(projectID)
				if err != nil {
					writeError(w, srv.Logger, r, err)
					return
				}
			}

			wi := store.WorkItem{
				ID:          almid.NewWorkItemID(projectID, localID).String(),
				Project:     projectID,
				Title:       res.Attributes.Title,
				Description: descriptionFromBody(res.Attributes.Description, "text/html"),
				Type:        defaultString(res.Attributes.Type, "task"),
				Status:      defaultString(res.Attributes.Status, "open"),
				Priority:    defaultString(res.Attributes.Priority, "medium"),
				Severity:    res.Attributes.Severity,
				Author:      "admin",
				Assignee:    res.Attributes.Assignee,
			}
			if module, ok := res.Relationships["module"]; ok && module.Data.ID != "" {
				if err := wi.DeclareModule(module.Data.ID); err != nil {
					writeError(w, srv.Logger, r, err)
					return
				}
			}
			if parent, ok := res.Relationships["parent"]; ok && parent.Data.ID != "" {
				wi.Parent = parent.Data.ID
			}

			if err := srv.Store.CreateWorkItem(wi); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			stored, err := srv.Store.GetWorkItem(wi.ID)
			if err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			created = append(created, stored.JSONAPI())
		}

		srv.Logger.Info("created work items",
			"project", projectID,
			"count", len(created),
		)
		jsonapi.Write(w, http.StatusCreated, jsonapi.NewMulti(created))
	})
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// WorkItemUpdateHandler merges attributes and relationships into a work
// item and answers 204 with no body. Direct outlineNumber writes
// are rejected: the outline is owned by document placement.
func WorkItemUpdateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fullID := almid.NewWorkItemID(r.PathValue("projectID"), r.PathValue("workItemID")).String()

		var payload struct {
			Data struct {
				Attributes    map[string]any    `json:"attributes"`
				Relationships map[string]relRef `json:"relationships"`
			} `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if _, ok := payload.Data.Attributes["outlineNumber"]; ok {
			writeError(w, srv.Logger, r, store.NewFieldValidation("outlineNumber",
				"outlineNumber is derived from document structure and cannot be set directly"))
			return
		}

		_, err := srv.Store.UpdateWorkItem(fullID, func(wi *store.WorkItem) error {
			for key, value := range payload.Data.Attributes {
				switch key {
				case "title":
					if v, ok := value.(string); ok {
						wi.Title = v
					}
				case "description":
					wi.Description = descriptionFromBody(value, "text/html")
				case "type":
					if v, ok := value.(string); ok {
						wi.Type = v
					}
				case "status":
					if v, ok := value.(string); ok {
						wi.Status = v
					}
				case "priority":
					if v, ok := value.(string); ok {
						wi.Priority = v
					}
				case "severity":
					if v, ok := value.(string); ok {
						wi.Severity = v
					}
				case "parentWorkItemId":
					if v, ok := value.(string); ok {
						wi.Parent = v
					}
				}
			}
			for name, rel := range payload.Data.Relationships {
				switch name {
				case "module":
					if err := wi.DeclareModule(rel.Data.ID); err != nil {
						return err
					}
				case "parent":
					wi.Parent = rel.Data.ID
				}
			}
			return nil
		})
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		srv.Logger.Info("updated work item", "workitem", fullID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// WorkItemDeleteHandler removes a work item and its document part.
func WorkItemDeleteHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fullID := almid.NewWorkItemID(r.PathValue("projectID"), r.PathValue("workItemID")).String()
		if err := srv.Store.DeleteWorkItem(fullID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		srv.Logger.Info("deleted work item", "workitem", fullID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// WorkItemActionHandler serves the moveToDocument and setParent actions.
// Neither grants visibility; placement stays with the parts endpoint.
func WorkItemActionHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fullID := almid.NewWorkItemID(r.PathValue("projectID"), r.PathValue("workItemID")).String()
		action := r.PathValue("action")

		if _, err := srv.Store.GetWorkItem(fullID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		switch action {
		case "moveToDocument":
			var body struct {
				TargetDocument string `json:"targetDocument"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			if body.TargetDocument == "" {
				writeError(w, srv.Logger, r, store.NewValidation("targetDocument is required"))
				return
			}
			if err := srv.Store.MoveWorkItem(fullID, body.TargetDocument); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			jsonapi.Write(w, http.StatusOK, actionDocument(action,
				"Work item "+r.PathValue("workItemID")+" moved to document "+body.TargetDocument))

		case "setParent":
			var body struct {
				ParentID string `json:"parentId"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			if body.ParentID == "" {
				writeError(w, srv.Logger, r, store.NewValidation("parentId is required"))
				return
			}
			if err := srv.Store.SetParent(fullID, body.ParentID); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			jsonapi.Write(w, http.StatusOK, actionDocument(action,
				"Parent work item set to "+body.ParentID))

		default:
			writeNotAvailable(w, r.URL.Path)
		}
	})
}

// LinkedWorkItemsHandler creates work item links. A parent-role link
// records the parent weak reference; links never affect visibility.
func LinkedWorkItemsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fullID := almid.NewWorkItemID(r.PathValue("projectID"), r.PathValue("workItemID")).String()

		if _, err := srv.Store.GetWorkItem(fullID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		var payload struct {
			Data []struct {
				Type       string `json:"type"`
				Attributes struct {
					Role string `json:"role"`
				} `json:"attributes"`
				Relationships map[string]relRef `json:"relationships"`
			} `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if payload.Data == nil {
			writeError(w, srv.Logger, r, store.NewValidation("Request must contain 'data' array"))
			return
		}

		created := make([]jsonapi.Resource, 0, len(payload.Data))
		for _, link := range payload.Data {
			if link.Type != "linkedworkitems" {
				writeError(w, srv.Logger, r,
					store.NewValidation("Resource type must be 'linkedworkitems'"))
				return
			}
			target, ok := link.Relationships["workItem"]
			if !ok || target.Data.ID == "" {
				writeError(w, srv.Logger, r,
					store.NewValidation("workItem relationship is required"))
				return
			}
			if _, err := srv.Store.GetWorkItem(target.Data.ID); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}

			role := defaultString(link.Attributes.Role, "parent")
			if role == "parent" {
				if err := srv.Store.SetParent(fullID, target.Data.ID); err != nil {
					writeError(w, srv.Logger, r, err)
					return
				}
			}
			created = append(created, jsonapi.Resource{
				Type: "linkedworkitems",
				ID:   fullID + "/" + role + "/" + target.Data.ID,
			})
		}

		srv.Logger.Info("created work item links",
			"workitem", fullID,
			"count", len(created),
		)
		jsonapi.Write(w, http.StatusCreated, jsonapi.NewMulti(created))
	})
}
