package api

import (
	"encoding/json"
	"net/http"

	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/almid"
)

// DebugWorkItemStateHandler exposes a work item's internal lifecycle flags.
// Test harnesses use it to assert on visibility transitions that the
// public surface only shows indirectly.
func DebugWorkItemStateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wid, err := almid.ParseWorkItemID(r.PathValue("workItemID"), "")
		if err != nil {
			writeError(w, srv.Logger, r,
				store.NewNotFound("workitems", r.PathValue("workItemID")))
			return
		}

		wi, err := srv.Store.GetWorkItem(wid.String())
		if err != nil {
			writeError(w, srv.Logger, r, err)
			return
		}

		state := map[string]any{
			"id":                 wi.ID,
			"title":              wi.Title,
			"type":               wi.Type,
			"in_document":        wi.InDocument,
			"outline_number":     nullableString(wi.Outline),
			"document_position":  nullableInt(wi.Position),
			"in_recycle_bin":     wi.InRecycleBin(),
			"parent_workitem_id": nullableString(wi.Parent),
			"has_module":         wi.Module != "",
			"module_id":          nullableString(wi.Module),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	})
}

// DebugRecycleBinHandler lists the derived recycle bin of a document.
func DebugRecycleBinHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		did, err := almid.ParseDocumentID(r.PathValue("documentID"))
		if err != nil {
			writeError(w, srv.Logger, r,
				store.NewNotFound("documents", r.PathValue("documentID")))
			return
		}
		id := did.String()

		bin := srv.Store.RecycleBin(id)
		items := make([]map[string]any, 0, len(bin))
		for i := range bin {
			items = append(items, map[string]any{
				"id":             bin[i].ID,
				"title":          bin[i].Title,
				"type":           bin[i].Type,
				"in_recycle_bin": true,
				"has_module":     true,
				"is_in_document": bin[i].InDocument,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"document_id":       id,
			"recycle_bin_count": len(items),
			"items":             items,
		})
	})
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
