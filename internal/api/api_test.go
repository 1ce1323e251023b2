package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alm-forge/stanza/internal/config"
	"github.com/alm-forge/stanza/internal/parts"
	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/auth"
)

const basePath = "/polarion/rest/v1"

func newTestServer(t *testing.T, disableAuth bool) (server.Server, http.Handler) {
	t.Helper()
	cfg := config.Default()
	cfg.DisableAuth = disableAuth

	log := hclog.NewNullLogger()
	st := store.New(log)
	require.NoError(t, st.SeedDefaults())

	srv := server.Server{
		Config: cfg,
		Store:  st,
		Parts:  parts.NewService(st, log),
		Auth:   auth.NewTokenIssuer(cfg.JWTSecret, 0),
		Logger: log,
	}
	return srv, New(srv)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set("Accept", "*/*")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func dataList(t *testing.T, doc map[string]any) []any {
	t.Helper()
	list, ok := doc["data"].([]any)
	require.True(t, ok, "data is not an array: %v", doc["data"])
	return list
}

func errorDetail(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	doc := decode(t, w)
	errs, ok := doc["errors"].([]any)
	require.True(t, ok, "no errors array: %s", w.Body.String())
	require.NotEmpty(t, errs)
	return errs[0].(map[string]any)["detail"]
}

func TestHeaderGate(t *testing.T) {
	_, h := newTestServer(t, true)

	t.Run("wrong accept header answers 406 before routing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects/nope", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotAcceptable, w.Code)
		assert.Equal(t, "Accept header must be '*/*', got 'application/json'", errorDetail(t, w))
		assert.NotContains(t, w.Body.String(), `"source"`)
	})

	t.Run("empty accept header passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong content type answers 415", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, basePath+"/projects", strings.NewReader("x=1"))
		r.Header.Set("Accept", "*/*")
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, "Content-Type must be application/json", errorDetail(t, w))
	})

	t.Run("health is exempt", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Accept", "text/html")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthIntegration(t *testing.T) {
	srv, h := newTestServer(t, false)

	t.Run("unauthenticated projects probe", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/projects", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Authentication required. API is available.", errorDetail(t, w))
	})

	t.Run("bearer token grants access", func(t *testing.T) {
		token, err := srv.Auth.Issue("admin", "admin", []string{"read", "write", "admin"})
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, basePath+"/projects", nil)
		r.Header.Set("Accept", "*/*")
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestProjectEndpoints(t *testing.T) {
	_, h := newTestServer(t, true)

	t.Run("list with pagination meta", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/projects?page[size]=4&page[number]=1", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		assert.Len(t, dataList(t, doc), 4)
		meta := doc["meta"].(map[string]any)
		assert.EqualValues(t, 6, meta["totalCount"])
		assert.EqualValues(t, 4, meta["pageCount"])
		assert.EqualValues(t, 2, meta["totalPages"])

		links := doc["links"].(map[string]any)
		assert.Contains(t, links["next"], "page%5Bnumber%5D=2")
		assert.NotContains(t, links, "prev")
	})

	t.Run("sparse fieldsets drop unknown keys silently", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet,
			basePath+"/projects/elibrary?fields[projects]=name,bogus", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		attrs := doc["data"].(map[string]any)["attributes"].(map[string]any)
		assert.Equal(t, map[string]any{"name": "eLibrary"}, attrs)
	})

	t.Run("missing project renders a sentence detail", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/projects/ghost", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "projects with id 'ghost' not found", errorDetail(t, w))
	})

	t.Run("create, duplicate and delete", func(t *testing.T) {
		body := `{"data":{"type":"projects","id":"newproj","attributes":{"name":"New Project"}}}`
		w := doJSON(t, h, http.MethodPost, basePath+"/projects", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, h, http.MethodPost, basePath+"/projects", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorDetail(t, w), "already exists")

		w = doJSON(t, h, http.MethodDelete, basePath+"/projects/newproj", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("patch rejects id mismatch", func(t *testing.T) {
		body := `{"data":{"type":"projects","id":"other","attributes":{"name":"x"}}}`
		w := doJSON(t, h, http.MethodPatch, basePath+"/projects/elibrary", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Project ID in URL and body must match", errorDetail(t, w))
	})

	t.Run("actions answer an envelope", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, basePath+"/projects/elibrary/actions/markProject", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		data := doc["data"].(map[string]any)
		assert.Equal(t, "actions", data["type"])
		assert.Equal(t, "markProject", data["id"])
	})
}

func TestEmptyCollectionPadding(t *testing.T) {
	_, h := newTestServer(t, true)

	w := doJSON(t, h, http.MethodGet, basePath+"/projects/medical/workitems", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc := decode(t, w)
	assert.Empty(t, dataList(t, doc))
	meta := doc["meta"].(map[string]any)
	assert.Contains(t, meta, "_padding")
	assert.InDelta(t, 2472, w.Body.Len(), 30)
}

func TestWorkItemEndpoints(t *testing.T) {
	_, h := newTestServer(t, true)

	t.Run("paginated cross-project listing", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/all/workitems?page[size]=25&page[number]=3", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		assert.Len(t, dataList(t, doc), 25)
		meta := doc["meta"].(map[string]any)
		assert.EqualValues(t, 163, meta["totalCount"])
		assert.EqualValues(t, 3, meta["currentPage"])
	})

	t.Run("module query with include", func(t *testing.T) {
		moduleID := "Python/Functional Layer/Functional Concept"
		w := doJSON(t, h, http.MethodGet,
			basePath+"/projects/Python/workitems?query=module.id:"+
				strings.ReplaceAll(moduleID, " ", "%20")+"&include=module&page[size]=10", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		require.NotEmpty(t, dataList(t, doc))
		included := doc["included"].([]any)
		require.Len(t, included, 1)
		assert.Equal(t, moduleID, included[0].(map[string]any)["id"])
	})

	t.Run("recycle bin item exposes no outline", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/projects/Python/workitems/FCTS-9001", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		data := doc["data"].(map[string]any)
		attrs := data["attributes"].(map[string]any)
		assert.NotContains(t, attrs, "outlineNumber")
		rels := data["relationships"].(map[string]any)
		assert.Contains(t, rels, "module")
	})

	t.Run("create synthesizes tracker-prefixed ids", func(t *testing.T) {
		body := `{"data":[{"type":"workitems","attributes":{"title":"Check stock"}}]}`
		w := doJSON(t, h, http.MethodPost, basePath+"/projects/elibrary/workitems", body)
		require.Equal(t, http.StatusCreated, w.Code)

		doc := decode(t, w)
		list := dataList(t, doc)
		require.Len(t, list, 1)
		assert.Equal(t, "elibrary/ELIB-5", list[0].(map[string]any)["id"])
	})

	t.Run("create with module starts hidden", func(t *testing.T) {
		body := `{"data":[{"type":"workitems","attributes":{"title":"Hidden"},` +
			`"relationships":{"module":{"data":{"type":"documents","id":"elibrary/_default/requirements"}}}}]}`
		w := doJSON(t, h, http.MethodPost, basePath+"/projects/elibrary/workitems", body)
		require.Equal(t, http.StatusCreated, w.Code)

		doc := decode(t, w)
		item := dataList(t, doc)[0].(map[string]any)
		assert.NotContains(t, item["attributes"].(map[string]any), "outlineNumber")
	})

	t.Run("patch answers 204", func(t *testing.T) {
		body := `{"data":{"attributes":{"status":"approved"}}}`
		w := doJSON(t, h, http.MethodPatch, basePath+"/projects/elibrary/workitems/ELIB-1", body)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("patch rejects direct outline writes", func(t *testing.T) {
		body := `{"data":{"attributes":{"outlineNumber":"9.9"}}}`
		w := doJSON(t, h, http.MethodPatch, basePath+"/projects/elibrary/workitems/ELIB-1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorDetail(t, w), "cannot be set directly")
	})

	t.Run("missing work item renders null detail", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, basePath+"/projects/elibrary/workitems/ELIB-404", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Nil(t, errorDetail(t, w))
	})

	t.Run("moveToDocument redeclares without placing", func(t *testing.T) {
		body := `{"targetDocument":"elibrary/_default/architecture"}`
		w := doJSON(t, h, http.MethodPost,
			basePath+"/projects/elibrary/workitems/ELIB-1/actions/moveToDocument", body)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/workitem-states/elibrary/ELIB-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		state := decode(t, w)
		assert.Equal(t, "elibrary/_default/architecture", state["module_id"])
		assert.Equal(t, false, state["in_document"])
		assert.Equal(t, true, state["in_recycle_bin"])
	})

	t.Run("linkedworkitems records parent", func(t *testing.T) {
		body := `{"data":[{"type":"linkedworkitems","attributes":{"role":"parent"},` +
			`"relationships":{"workItem":{"data":{"type":"workitems","id":"elibrary/ELIB-2"}}}}]}`
		w := doJSON(t, h, http.MethodPost,
			basePath+"/projects/elibrary/workitems/ELIB-3/linkedworkitems", body)
		require.Equal(t, http.StatusCreated, w.Code)

		doc := decode(t, w)
		link := dataList(t, doc)[0].(map[string]any)
		assert.Equal(t, "elibrary/ELIB-3/parent/elibrary/ELIB-2", link["id"])

		w = doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/workitem-states/elibrary/ELIB-3", "")
		state := decode(t, w)
		assert.Equal(t, "elibrary/ELIB-2", state["parent_workitem_id"])
	})
}

func TestDocumentEndpoints(t *testing.T) {
	_, h := newTestServer(t, true)

	t.Run("get by space path", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet,
			basePath+"/projects/elibrary/spaces/_default/documents/requirements", "")
		require.Equal(t, http.StatusOK, w.Code)

		doc := decode(t, w)
		data := doc["data"].(map[string]any)
		assert.Equal(t, "elibrary/_default/requirements", data["id"])
	})

	t.Run("batch create requires title and moduleName", func(t *testing.T) {
		body := `{"data":[{"type":"documents","attributes":{"title":"No module name"}}]}`
		w := doJSON(t, h, http.MethodPost,
			basePath+"/projects/elibrary/spaces/_default/documents", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Document module name is required", errorDetail(t, w))

		body = `{"data":[{"type":"documents","attributes":{"title":"Design","moduleName":"design"}}]}`
		w = doJSON(t, h, http.MethodPost,
			basePath+"/projects/elibrary/spaces/_default/documents", body)
		require.Equal(t, http.StatusCreated, w.Code)
		created := dataList(t, decode(t, w))
		assert.Equal(t, "elibrary/_default/design",
			created[0].(map[string]any)["id"])
	})

	t.Run("delete clears module associations", func(t *testing.T) {
		w := doJSON(t, h, http.MethodDelete,
			basePath+"/projects/myproject/spaces/docs/documents/api_spec", "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/workitem-states/myproject/MP-2", "")
		state := decode(t, w)
		assert.Equal(t, false, state["has_module"])
	})

	t.Run("deliberately absent endpoints", func(t *testing.T) {
		tests := []struct {
			path   string
			status int
			detail string
		}{
			{basePath + "/all/documents", http.StatusNotFound,
				"The requested resource [" + basePath + "/all/documents] is not available"},
			{basePath + "/projects/elibrary/documents", http.StatusNotFound,
				"The requested resource [" + basePath + "/projects/elibrary/documents] is not available"},
			{basePath + "/projects/elibrary/spaces", http.StatusNotFound,
				"The requested resource [" + basePath + "/projects/elibrary/spaces] is not available"},
			{basePath + "/projects/elibrary/spaces/_default/documents", http.StatusMethodNotAllowed,
				"GET method is not allowed for this endpoint"},
		}
		for _, tt := range tests {
			w := doJSON(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code, tt.path)
			assert.Equal(t, tt.detail, errorDetail(t, w), tt.path)
		}
	})
}

func TestDocumentPartsFlow(t *testing.T) {
	_, h := newTestServer(t, true)
	partsPath := basePath + "/projects/elibrary/spaces/_default/documents/requirements/parts"

	t.Run("hidden items are not listed", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet, partsPath, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, dataList(t, decode(t, w)))
	})

	t.Run("placement makes the item visible with an outline", func(t *testing.T) {
		body := `{"data":[{"type":"document_parts","attributes":{"type":"workitem"},` +
			`"relationships":{"workItem":{"data":{"type":"workitems","id":"elibrary/ELIB-1"}}}}]}`
		w := doJSON(t, h, http.MethodPost, partsPath, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		created := dataList(t, decode(t, w))
		require.Len(t, created, 1)
		part := created[0].(map[string]any)
		assert.Equal(t, "elibrary/_default/requirements/workitem_ELIB-1", part["id"])

		w = doJSON(t, h, http.MethodGet, partsPath+"?include=workItem", "")
		require.Equal(t, http.StatusOK, w.Code)
		doc := decode(t, w)
		assert.Len(t, dataList(t, doc), 1)
		links := doc["links"].(map[string]any)
		assert.Equal(t, partsPath+"?include=workItem", links["self"])
		included := doc["included"].([]any)
		require.Len(t, included, 1)
		attrs := included[0].(map[string]any)["attributes"].(map[string]any)
		assert.Equal(t, "FC-1.1-1", attrs["outlineNumber"])
	})

	t.Run("module mismatch is rejected", func(t *testing.T) {
		body := `{"data":[{"type":"document_parts",` +
			`"relationships":{"workItem":{"data":{"type":"workitems","id":"elibrary/ELIB-4"}}}}]}`
		w := doJSON(t, h, http.MethodPost, partsPath, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorDetail(t, w), "does not match document")
	})

	t.Run("debug recycle bin shrinks after placement", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/recycle-bin/elibrary/_default/requirements", "")
		require.Equal(t, http.StatusOK, w.Code)

		state := decode(t, w)
		assert.EqualValues(t, 2, state["recycle_bin_count"])
	})
}

func TestDebugEndpointsRejectMalformedIDs(t *testing.T) {
	_, h := newTestServer(t, true)

	t.Run("work item id without a project segment", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/workitem-states/ELIB-1", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("document id with too few segments", func(t *testing.T) {
		w := doJSON(t, h, http.MethodGet,
			basePath+"/mock/debug/recycle-bin/elibrary/requirements", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPIRootAndHealth(t *testing.T) {
	_, h := newTestServer(t, true)

	w := doJSON(t, h, http.MethodGet, basePath, "")
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode(t, w)
	assert.Equal(t, "api-info", doc["data"].(map[string]any)["type"])

	w = doJSON(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}
