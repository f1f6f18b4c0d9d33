package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	storyhosthttp "github.com/previewhq/storyhost/http"
	"github.com/previewhq/storyhost/tokens"
)

func TestBearerVerifier(t *testing.T) {
	store := tokens.NewMapStore(map[string]struct{}{"tok-good": {}})
	verifier := storyhosthttp.NewBearerVerifier(store)

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "valid token", header: "Bearer tok-good", wantErr: false},
		{name: "missing header", header: "", wantErr: true},
		{name: "unknown token", header: "Bearer tok-bad", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "bare token", header: "tok-good", wantErr: true},
		{name: "empty bearer", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/versions/my-app", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			err := verifier.Verify(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, storyhosthttp.ErrUnauthorized)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthMiddlewareNilVerifierPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := storyhosthttp.AuthMiddleware(nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareBlocksWithoutToken(t *testing.T) {
	store := tokens.NewMapStore(map[string]struct{}{"tok-good": {}})
	verifier := storyhosthttp.NewBearerVerifier(store)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	handler := storyhosthttp.AuthMiddleware(verifier)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
