package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/previewhq/storyhost"
)

// Service is the serving pipeline the handler sits on.
type Service interface {
	Serve(ctx context.Context, res storyhost.Resolution) (storyhost.Resolution, storyhost.ServedFile, error)
	Versions(ctx context.Context, project string) ([]storyhost.VersionInfo, error)
	Publish(ctx context.Context, project, version string, content io.Reader) (storyhost.ObjectInfo, error)
	OpenArchive(ctx context.Context, project, version string) (io.ReadCloser, error)
	DeleteArchive(ctx context.Context, project, version string) error
	InvalidateArchive(ctx context.Context, archiveKey string)
}

// Authorizer decides whether a public read of a project is allowed. The
// default allows everything.
type Authorizer interface {
	Authorize(ctx context.Context, project string) error
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, string) error { return nil }

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	// Verifier guards the operational /api routes. Nil leaves them open,
	// which is only sensible in tests and local development.
	Verifier RequestVerifier
	// Authorizer guards public reads per project. Nil allows all.
	Authorizer Authorizer
	CORS       CORSConfig
}

// Handler provides the HTTP surface: the public site routes and the
// operational archive-management API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	h := &Handler{
		config:  *config,
		service: service,
	}
	if h.config.Authorizer == nil {
		h.config.Authorizer = allowAll{}
	}
	return h
}

// Router returns an http.Handler with all routes configured. Operational
// routes live under /api and require a valid bearer token; everything else
// is the public serving surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Verifier))
		r.Put("/archives/{project}", h.handlePublish)
		r.Put("/archives/{project}/{version}", h.handlePublish)
		r.Get("/archives/{project}", h.handleDownloadArchive)
		r.Get("/archives/{project}/{version}", h.handleDownloadArchive)
		r.Delete("/archives/{project}", h.handleDeleteArchive)
		r.Delete("/archives/{project}/{version}", h.handleDeleteArchive)
		r.Post("/invalidate/{project}", h.handleInvalidate)
		r.Post("/invalidate/{project}/{version}", h.handleInvalidate)
		r.Get("/versions/{project}", h.handleVersions)
	})

	r.Get("/*", h.handleServe)

	return r
}

func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	res, err := storyhost.ResolvePath(r.URL.Path)
	if err != nil {
		HandleSiteError(w, r, err)
		return
	}

	if err := h.config.Authorizer.Authorize(r.Context(), res.Project); err != nil {
		HandleSiteError(w, r, fmt.Errorf("authorize %s: %w", res.Project, ErrUnauthorized))
		return
	}

	_, served, err := h.service.Serve(r.Context(), res)
	if err != nil {
		HandleSiteError(w, r, err)
		return
	}

	etag := fmt.Sprintf(`"%08x"`, served.CRC32)
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", contentTypeFor(served.Path))
	// Cache policy follows the requested identifier, not the concrete
	// version an alias resolved to.
	w.Header().Set("Cache-Control", cacheControlFor(res))

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(served.ContentLength, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(served.Data)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	version := chi.URLParam(r, "version")

	info, err := h.service.Publish(r.Context(), project, version, r.Body)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	version := chi.URLParam(r, "version")

	rc, err := h.service.OpenArchive(r.Context(), project, version)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storyhost.ArchiveFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (h *Handler) handleDeleteArchive(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	version := chi.URLParam(r, "version")

	if err := h.service.DeleteArchive(r.Context(), project, version); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	version := chi.URLParam(r, "version")

	if !storyhost.IsValidProject(project) {
		WriteError(w, http.StatusBadRequest, "invalid_identifier", "Invalid project name")
		return
	}

	h.service.InvalidateArchive(r.Context(), storyhost.ArchiveKey(project, version))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	versions, err := h.service.Versions(r.Context(), project)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// contentTypeFor derives the response Content-Type from the served entry's
// extension, not from archive metadata; ZIP entries carry none.
func contentTypeFor(servedPath string) string {
	if ct := mime.TypeByExtension(path.Ext(servedPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// cacheControlFor keeps alias-addressed responses short-lived, since what
// "latest" points at changes on every publish. Concrete versions are
// immutable by convention and can be held longer.
func cacheControlFor(res storyhost.Resolution) string {
	if res.Version == "" || res.Version == storyhost.DefaultAliasToken {
		return "public, max-age=60"
	}
	return "public, max-age=3600"
}
