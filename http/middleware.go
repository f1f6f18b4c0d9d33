package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/previewhq/storyhost/tokens"
)

// RequestVerifier authenticates one operational API request.
type RequestVerifier interface {
	Verify(r *http.Request) error
}

// BearerVerifier verifies "Authorization: Bearer <token>" headers against a
// token store.
type BearerVerifier struct {
	store tokens.Store
}

// NewBearerVerifier creates a verifier over the given token store.
func NewBearerVerifier(store tokens.Store) *BearerVerifier {
	return &BearerVerifier{store: store}
}

// Verify checks the request's bearer token.
func (v *BearerVerifier) Verify(r *http.Request) error {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return fmt.Errorf("missing authorization header: %w", ErrUnauthorized)
	}

	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return fmt.Errorf("malformed authorization header: %w", ErrUnauthorized)
	}

	if !v.store.Contains(token) {
		return fmt.Errorf("unknown token: %w", ErrUnauthorized)
	}
	return nil
}

// AuthMiddleware creates middleware that enforces request authentication.
// Pass nil to disable authentication (public access).
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r); err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
