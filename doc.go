// Package storyhost serves static-site files directly out of ZIP archives
// held in a remote object store, without materializing the archive or its
// extracted contents on disk.
//
// The core is a three-stage pipeline:
//
//   - ResolvePath turns an inbound request path into a project, an optional
//     version, an archive key, and an in-archive file path.
//   - Service.ResolveVersion maps version aliases such as "latest" onto a
//     concrete uploaded version by listing the project's archives.
//   - Service.ServeEntry looks up the file in a cached archive index and
//     extracts exactly that entry with two range reads against the store.
//
// Archive indexes are built from the ZIP central directory using partial
// reads only (see the zipindex package) and cached in an injected key/value
// store. Cache failures never fail a request; the pipeline falls back to
// rebuilding the index from the object store.
//
// # Key Components
//
//   - Service: pipeline combining an ObjectStore and a Cache
//   - ObjectStore: interface over remote blob storage with range reads
//     (filesystem and HTTP-bucket implementations in objectstore/...)
//   - Cache: interface over a TTL'd key/value store (memory, sqlite and
//     postgres implementations in kvcache/...)
//   - zipindex: central-directory parsing and single-entry extraction
//
// See the http package for the serving surface and the operational API,
// and cmd/storyhost for the server binary.
package storyhost
