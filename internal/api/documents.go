package api

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/almid"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

func documentID(r *http.Request) string {
	return almid.NewDocumentID(r.PathValue("projectID"), r.PathValue("spaceID"),
		r.PathValue("documentName")).String()
}

// DocumentHandler returns one document by its space path.
func DocumentHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, err := srv.Store.GetDocument(documentID(r))
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(doc.JSONAPI()))
	})
}

// DocumentLookupHandler resolves a document by its full id, tolerating ids
// that contain slashes. A trailing "/workitems" segment lists the work
// items associated with the document instead.
func DocumentLookupHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("documentID")

		if trimmed, ok := strings.CutSuffix(id, "/workitems"); ok {
			if _, err := srv.Store.GetDocument(trimmed); err == nil {
				items := srv.Store.QueryWorkItems("module.id:"+trimmed, "")
				page := parsePage(r, srv.Config.DefaultPageSize)
				total := len(items)
				start, end := page.Slice(total)
				resources := make([]jsonapi.Resource, 0, end-start)
				for i := start; i < end; i++ {
					resources = append(resources, items[i].JSONAPI())
				}
				jsonapi.Write(w, http.StatusOK,
					jsonapi.NewCollection(resources, total, page, r.URL.Path))
				return
			}
		}

		doc, err := srv.Store.GetDocument(id)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(doc.JSONAPI()))
	})
}

type documentResource struct {
	Type       string `json:"type"`
	Attributes struct {
		Title             string `json:"title"`
		ModuleName        string `json:"moduleName"`
		Type              string `json:"type"`
		Status            string `json:"status"`
		HomePageContent   any    `json:"homePageContent"`
		StructureLinkRole string `json:"structureLinkRole"`
	} `json:"attributes"`
}

func (res *documentResource) validate() error {
	if err := validation.Validate(res.Type,
		validation.Required, validation.In("documents")); err != nil {
		return store.NewValidation("Resource type must be 'documents'")
	}
	if res.Attributes.Title == "" {
		return store.NewFieldValidation("title", "Document title is required")
	}
	if res.Attributes.ModuleName == "" {
		return store.NewFieldValidation("moduleName", "Document module name is required")
	}
	return nil
}

// DocumentCreateHandler creates a batch of documents in a space.
func DocumentCreateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projectID := r.PathValue("projectID")
		spaceID := r.PathValue("spaceID")

		if _, err := srv.Store.GetProject(projectID); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		var payload struct {
			Data []documentResource `json:"data"`
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
			doc := store.Document{
				ID:              almid.NewDocumentID(projectID, spaceID, res.Attributes.ModuleName).String(),
				Project:         projectID,
				Space:           spaceID,
				Name:            res.Attributes.ModuleName,
				Title:           res.Attributes.Title,
				Type:            defaultString(res.Attributes.Type, "generic"),
				Status:          defaultString(res.Attributes.Status, "draft"),
				HomePageContent: descriptionFromBody(res.Attributes.HomePageContent, "text/html"),
			}
			if err := srv.Store.CreateDocument(doc); err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			stored, err := srv.Store.GetDocument(doc.ID)
			if err != nil {
				writeError(w, srv.Logger, r, err)
				return
			}
			created = append(created, stored.JSONAPI())
		}

		srv.Logger.Info("created documents",
			"project", projectID,
			"space", spaceID,
			"count", len(created),
		)
		jsonapi.Write(w, http.StatusCreated, jsonapi.NewMulti(created))
	})
}

// DocumentUpdateHandler merges attributes into a document.
func DocumentUpdateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := documentID(r)

		var payload struct {
			Data struct {
				Attributes map[string]any `json:"attributes"`
			} `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		updated, err := srv.Store.UpdateDocument(id, func(d *store.Document) error {
			for key, value := range payload.Data.Attributes {
				switch key {
				case "title":
					if v, ok := value.(string); ok {
						d.Title = v
					}
				case "type":
					if v, ok := value.(string); ok {
						d.Type = v
					}
				case "status":
					if v, ok := value.(string); ok {
						d.Status = v
					}
				case "homePageContent":
					d.HomePageContent = descriptionFromBody(value, "text/html")
				}
			}
			return nil
		})
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		srv.Logger.Info("updated document", "document", id)
		jsonapi.Write(w, http.StatusOK, jsonapi.NewSingle(updated.JSONAPI()))
	})
}

// DocumentDeleteHandler removes a document, its parts, and the module
// association of every work item that referenced it.
func DocumentDeleteHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := documentID(r)
		if err := srv.Store.DeleteDocument(id); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		srv.Logger.Info("deleted document", "document", id)
		w.WriteHeader(http.StatusNoContent)
	})
}
