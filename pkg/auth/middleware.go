package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/alm-forge/stanza/pkg/jsonapi"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFromContext returns the verified claims attached by Middleware,
// if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// probeDetail is returned to unauthenticated availability probes so that
// clients can distinguish "service down" from "credentials missing".
const probeDetail = "Authentication required. API is available."

// Middleware validates bearer tokens on every API request.
//
// Exemptions:
//   - the service root and /health are always open
//   - an unauthenticated GET on the projects collection is treated as an
//     availability probe and answered 401 with an explanatory detail
//
// Usage:
//
//	handler := auth.Middleware(issuer, basePath, log, next)
func Middleware(issuer *TokenIssuer, basePath string, log hclog.Logger, next http.Handler) http.Handler {
	probePath := basePath + "/projects"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if r.Method == http.MethodGet && r.URL.Path == probePath {
				log.Debug("answering unauthenticated availability probe", logArgs...)
				jsonapi.WriteErrors(w,
					jsonapi.NewError(http.StatusUnauthorized, "Unauthorized", probeDetail))
				return
			}
			log.Warn("missing authorization header", logArgs...)
			jsonapi.WriteErrors(w,
				jsonapi.NewError(http.StatusUnauthorized, "Unauthorized", "Authorization header missing"))
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			log.Warn("invalid authorization header format", logArgs...)
			jsonapi.WriteErrors(w,
				jsonapi.NewError(http.StatusUnauthorized, "Unauthorized",
					"Invalid authorization header format. Expected: Bearer <token>"))
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			log.Warn("invalid bearer token", append(logArgs, "error", err)...)
			jsonapi.WriteErrors(w,
				jsonapi.NewError(http.StatusUnauthorized, "Unauthorized", "Invalid or expired token"))
			return
		}

		log.Debug("authenticated request", append(logArgs, "user", claims.Username)...)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}
