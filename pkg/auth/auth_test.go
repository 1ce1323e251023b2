package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "admin", []string{"read", "write"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, []string{"read", "write"}, claims.Permissions)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenIssuerRejections(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", time.Hour)
		token, err := other.Issue("user-1", "admin", nil)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenIssuer("test-secret", -time.Hour)
		token, err := expired.Issue("user-1", "admin", nil)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	log := hclog.NewNullLogger()
	basePath := "/polarion/rest/v1"

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, found := ClaimsFromContext(r.Context()); found {
			w.Header().Set("X-User", claims.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(issuer, basePath, log, ok)

	errorDetail := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		var body struct {
			Errors []struct {
				Detail string `json:"detail"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Errors, 1)
		return body.Errors[0].Detail
	}

	t.Run("valid token passes with claims", func(t *testing.T) {
		token, err := issuer.Issue("user-1", "admin", nil)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, basePath+"/projects/elibrary", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", w.Header().Get("X-User"))
	})

	t.Run("missing header rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects/elibrary", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Authorization header missing", errorDetail(t, w))
	})

	t.Run("projects probe gets availability detail", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Authentication required. API is available.", errorDetail(t, w))
	})

	t.Run("non-bearer scheme rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects/elibrary", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid authorization header format. Expected: Bearer <token>", errorDetail(t, w))
	})

	t.Run("bad token rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, basePath+"/projects/elibrary", nil)
		r.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid or expired token", errorDetail(t, w))
	})

	t.Run("health is always open", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
