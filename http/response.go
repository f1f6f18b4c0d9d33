package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/previewhq/storyhost"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate JSON error response based on error
// type. Archive parse and extraction failures surface as internal errors;
// the archive is the operator's input, not the visitor's.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, storyhost.ErrInvalidIdentifier) {
		WriteError(w, http.StatusBadRequest, "invalid_identifier", "Invalid project, version, or file path")
		return
	}

	if errors.Is(err, storyhost.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	if errors.Is(err, ErrUnauthorized) {
		WriteError(w, http.StatusForbidden, "unauthorized", "Unauthorized")
		return
	}

	if errors.Is(err, storyhost.ErrUnsupported) {
		WriteError(w, http.StatusNotImplemented, "unsupported", "Operation not supported by this backend")
		return
	}

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// HandleSiteError is HandleError for the public serving surface: browsers
// asking for HTML get an HTML 404 page instead of a JSON body.
func HandleSiteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storyhost.ErrNotFound) && wantsHTML(r) {
		slog.Info("page not found", "path", r.URL.Path)
		writeDefaultNotFound(w)
		return
	}

	HandleError(w, err)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
