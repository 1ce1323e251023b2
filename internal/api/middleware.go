package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/pkg/jsonapi"
)

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// RequestLogMiddleware logs every request with a generated request id.
func RequestLogMiddleware(log hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// HeaderGateMiddleware enforces the emulated service's header contract on API
// paths before any routing runs:
//
//   - a non-empty Accept header must be exactly "*/*", otherwise 406
//   - bodies must declare Content-Type application/json, otherwise 415
//
// Paths outside the API base (health, root) are exempt.
func HeaderGateMiddleware(basePath string, log hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, basePath) {
			next.ServeHTTP(w, r)
			return
		}

		accept := r.Header.Get("Accept")
		if accept != "" && accept != "*/*" {
			log.Warn("rejecting accept header",
				"path", r.URL.Path,
				"method", r.Method,
				"accept", accept,
			)
			jsonapi.WriteErrors(w, jsonapi.NewError(http.StatusNotAcceptable,
				"Not Acceptable",
				"Accept header must be '*/*', got '"+accept+"'"))
			return
		}

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength != 0 {
				ct := r.Header.Get("Content-Type")
				if !strings.HasPrefix(ct, "application/json") {
					log.Warn("rejecting content type",
						"path", r.URL.Path,
						"method", r.Method,
						"content_type", ct,
					)
					jsonapi.WriteErrors(w, jsonapi.NewError(http.StatusUnsupportedMediaType,
						"Unsupported Media Type",
						"Content-Type must be application/json"))
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}
