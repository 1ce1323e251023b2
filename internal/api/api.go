// Package api exposes the REST surface of the emulator: JSON:API handlers
// for projects, work items, documents and document parts, plus the header
// and logging middleware the emulated API contract requires.
package api

import (
	"net/http"
	"time"

	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/version"
	"github.com/alm-forge/stanza/pkg/auth"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// New assembles the routed handler with the middleware chain: request
// logging, header gatekeeping, then authentication.
func New(srv server.Server) http.Handler {
	base := srv.Config.BasePath
	mux := http.NewServeMux()

	mux.Handle("GET /health", HealthHandler(srv))
	mux.Handle("GET /{$}", RootHandler(srv))
	mux.Handle("GET "+base, APIRootHandler(srv))

	// projects
	mux.Handle("GET "+base+"/projects", ProjectsHandler(srv))
	mux.Handle("POST "+base+"/projects", ProjectCreateHandler(srv))
	mux.Handle("GET "+base+"/projects/{projectID}", ProjectHandler(srv))
	mux.Handle("PATCH "+base+"/projects/{projectID}", ProjectUpdateHandler(srv))
	mux.Handle("DELETE "+base+"/projects/{projectID}", ProjectDeleteHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/actions/{action}", ProjectActionHandler(srv))

	// work items
	mux.Handle("GET "+base+"/projects/{projectID}/workitems", WorkItemsHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/workitems", WorkItemCreateHandler(srv))
	mux.Handle("GET "+base+"/all/workitems", AllWorkItemsHandler(srv))
	mux.Handle("GET "+base+"/projects/{projectID}/workitems/{workItemID}", WorkItemHandler(srv))
	mux.Handle("PATCH "+base+"/projects/{projectID}/workitems/{workItemID}", WorkItemUpdateHandler(srv))
	mux.Handle("DELETE "+base+"/projects/{projectID}/workitems/{workItemID}", WorkItemDeleteHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/workitems/{workItemID}/actions/{action}",
		WorkItemActionHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/workitems/{workItemID}/linkedworkitems",
		LinkedWorkItemsHandler(srv))

	// documents
	mux.Handle("GET "+base+"/projects/{projectID}/spaces/{spaceID}/documents/{documentName}",
		DocumentHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/spaces/{spaceID}/documents",
		DocumentCreateHandler(srv))
	mux.Handle("PATCH "+base+"/projects/{projectID}/spaces/{spaceID}/documents/{documentName}",
		DocumentUpdateHandler(srv))
	mux.Handle("DELETE "+base+"/projects/{projectID}/spaces/{spaceID}/documents/{documentName}",
		DocumentDeleteHandler(srv))
	mux.Handle("GET "+base+"/documents/{documentID...}", DocumentLookupHandler(srv))

	// the emulated service deliberately does not serve these
	mux.HandleFunc("GET "+base+"/all/documents", func(w http.ResponseWriter, r *http.Request) {
		writeNotAvailable(w, r.URL.Path)
	})
	mux.HandleFunc("GET "+base+"/projects/{projectID}/documents", func(w http.ResponseWriter, r *http.Request) {
		writeNotAvailable(w, r.URL.Path)
	})
	mux.HandleFunc("GET "+base+"/projects/{projectID}/spaces", func(w http.ResponseWriter, r *http.Request) {
		writeNotAvailable(w, r.URL.Path)
	})
	mux.HandleFunc("GET "+base+"/projects/{projectID}/spaces/{spaceID}/documents",
		func(w http.ResponseWriter, r *http.Request) {
			writeMethodNotAllowed(w, r.Method)
		})

	// document parts
	mux.Handle("GET "+base+"/projects/{projectID}/spaces/{spaceID}/documents/{documentName}/parts",
		DocumentPartsHandler(srv))
	mux.Handle("POST "+base+"/projects/{projectID}/spaces/{spaceID}/documents/{documentName}/parts",
		DocumentPartsCreateHandler(srv))

	// debug surface for test harnesses
	mux.Handle("GET "+base+"/mock/debug/workitem-states/{workItemID...}", DebugWorkItemStateHandler(srv))
	mux.Handle("GET "+base+"/mock/debug/recycle-bin/{documentID...}", DebugRecycleBinHandler(srv))

	var h http.Handler = mux
	if !srv.Config.DisableAuth {
		h = auth.Middleware(srv.Auth, base, srv.Logger.Named("auth"), h)
	}
	h = HeaderGateMiddleware(base, srv.Logger.Named("headers"), h)
	h = RequestLogMiddleware(srv.Logger.Named("http"), h)
	return h
}

// HealthHandler reports liveness. Always unauthenticated.
func HealthHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonapi.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","timestamp":"` +
			time.Now().UTC().Format(time.RFC3339) +
			`","version":"` + version.Version + `","api_version":"v1"}`))
	})
}

// RootHandler describes the service at "/".
func RootHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonapi.ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name":"stanza","version":"` + version.Version +
			`","api_base":"` + srv.Config.BasePath + `","health":"/health"}`))
	})
}

// APIRootHandler serves the JSON:API root resource with entry links.
func APIRootHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := srv.Config.BasePath
		doc := jsonapi.NewSingle(jsonapi.Resource{
			Type: "api-info",
			ID:   "v1",
			Attributes: jsonapi.Attributes{
				"version":          "v1",
				"name":             "Polarion REST API",
				"json_api_version": "1.0",
			},
			Links: map[string]string{
				"self":      base,
				"projects":  base + "/projects",
				"workitems": base + "/all/workitems",
			},
		})
		jsonapi.Write(w, http.StatusOK, doc)
	})
}
