// Package stremerd is the serving engine of a LAN media/file server: a
// path-addressed virtual filesystem over interchangeable storage backends,
// an HTTP protocol layer with bearer authentication, range streaming,
// search, and thumbnailing, and a camera capture state machine feeding a
// bounded frame queue.
//
// The root package holds the domain types, the storage contract, and the
// storage router. Subpackages:
//
//   - filesystem: direct-path backend over a sandboxed base directory
//   - scoped: permission-tree backend over granted subtrees
//   - database: persisted storage roots and the provider metadata index
//   - camera: capture engine, frame queue, and the MJPEG pipe device
//   - probe: best-effort media introspection and thumbnails
//   - http: the protocol server
//   - config, credentials, metrics: ambient wiring
package stremerd
