package api

import (
	"net/http"

	"github.com/alm-forge/stanza/internal/parts"
	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// DocumentPartsHandler lists a document's visible parts in document order.
// Associated-but-hidden work items never appear. include=workItem
// side-loads the placed work items.
func DocumentPartsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := documentID(r)
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
			"document", id,
		}

		listed, err := srv.Parts.List(id)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		resources := make([]jsonapi.Resource, 0, len(listed))
		for i := range listed {
			resources = append(resources, listed[i].JSONAPI())
		}

		doc := &jsonapi.Document{
			Data:  resources,
			Links: map[string]string{"self": r.URL.RequestURI()},
		}
		if parseInclude(r)["workItem"] {
			doc.Included = includeWorkItems(srv, listed)
		}

		srv.Logger.Info("listed document parts", append(logArgs, "count", len(resources))...)
		jsonapi.Write(w, http.StatusOK, doc)
	})
}

func includeWorkItems(srv server.Server, listed []store.Part) []jsonapi.Resource {
	var included []jsonapi.Resource
	seen := make(map[string]bool)
	for i := range listed {
		id := listed[i].WorkItem
		if seen[id] {
			continue
		}
		seen[id] = true
		if wi, err := srv.Store.GetWorkItem(id); err == nil {
			included = append(included, wi.JSONAPI())
		}
	}
	return included
}

// DocumentPartsCreateHandler places a batch of work items into a document:
// the second step of the two-step association. The batch is not atomic;
// placements before a failing entry stay applied.
func DocumentPartsCreateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := documentID(r)

		var payload struct {
			Data []parts.PartResource `json:"data"`
		}
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}
		if payload.Data == nil {
			writeError(w, srv.Logger, r, store.NewValidation("Request must contain 'data' array"))
			return
		}

		created, err := srv.Parts.Add(id, payload.Data)
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		resources := make([]jsonapi.Resource, 0, len(created))
		for i := range created {
			resources = append(resources, created[i].JSONAPI())
		}
		srv.Logger.Info("created document parts",
			"document", id,
			"count", len(resources),
		)
		jsonapi.Write(w, http.StatusCreated, jsonapi.NewMulti(resources))
	})
}
