// Package http provides the HTTP surface for serving sites out of remote
// ZIP archives.
//
// Two route groups share one router:
//
// Public serving: GET /{project}[/{version}]/{path...} resolves the
// identifier, extracts the entry from the archive's central directory, and
// serves it with a Content-Type derived from the file extension and an
// ETag derived from the entry's CRC32. Extensionless misses fall back to
// index.html so client-side routers keep working. Browser requests that
// still miss get an HTML 404 page; API clients get JSON errors.
//
// Operational API under /api, guarded by bearer-token auth:
//
//   - PUT    /api/archives/{project}[/{version}]   upload an archive
//   - DELETE /api/archives/{project}[/{version}]   remove an archive
//   - POST   /api/invalidate/{project}[/{version}] drop cached state
//   - GET    /api/versions/{project}               list uploaded versions
//
// # Authentication
//
// The operational routes use the RequestVerifier interface. Pass a verifier
// to AuthMiddleware, or nil for public access:
//
//	store := tokens.NewMapStore(map[string]struct{}{"tok-deploy": {}})
//	verifier := http.NewBearerVerifier(store)
//
//	handlerCfg := http.HandlerConfig{Verifier: verifier}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// Public reads can additionally be guarded per project with the Authorizer
// interface; the default allows everything.
package http
