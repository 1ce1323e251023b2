package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// writeError maps a domain error onto the wire shape the emulated API emits.
//
// ValidationError renders 400 with the detail and, when a field is named,
// an attribute source pointer. NotFoundError renders 404: missing projects
// carry a human-readable sentence in detail, every other resource type
// renders detail and source as explicit nulls. Clients match on this
// asymmetry, so it is reproduced exactly.
func writeError(w http.ResponseWriter, log hclog.Logger, r *http.Request, err error) {
	logArgs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	}

	var ve *store.ValidationError
	if errors.As(err, &ve) {
		log.Warn("request rejected", logArgs...)
		e := jsonapi.NewError(http.StatusBadRequest, "Validation", ve.Detail)
		if ve.Field != "" {
			e = e.WithSource(map[string]any{
				"pointer": "/data/attributes/" + ve.Field,
			})
		}
		jsonapi.WriteErrors(w, e)
		return
	}

	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		log.Warn("resource not found", logArgs...)
		if nf.Resource == "projects" {
			jsonapi.WriteErrors(w,
				jsonapi.NewError(http.StatusNotFound, "NotFound", nf.Error()))
			return
		}
		jsonapi.WriteErrors(w,
			jsonapi.NewNullError(http.StatusNotFound, "NotFound"))
		return
	}

	log.Error("unexpected error", logArgs...)
	jsonapi.WriteErrors(w,
		jsonapi.NewError(http.StatusInternalServerError, "Internal Server Error",
			"An unexpected error occurred"))
}

// writeNotAvailable renders the 404 shape of endpoints the emulated service
// deliberately does not serve.
func writeNotAvailable(w http.ResponseWriter, path string) {
	jsonapi.WriteErrors(w, jsonapi.NewError(http.StatusNotFound, "Not Found",
		"The requested resource ["+path+"] is not available"))
}

// writeMethodNotAllowed renders the emulated service's 405 shape.
func writeMethodNotAllowed(w http.ResponseWriter, method string) {
	jsonapi.WriteErrors(w, jsonapi.NewError(http.StatusMethodNotAllowed,
		"Method Not Allowed", method+" method is not allowed for this endpoint"))
}
