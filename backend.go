package stremerd

import (
	"context"
	"io"
	"iter"
)

// WriteChunkSize is the fixed chunk size used for streaming reads and
// writes. Uploads and range copies move through buffers of this size so a
// large transfer never materializes in memory.
const WriteChunkSize = 64 * 1024

// Backend is the capability set shared by both storage variants. Exactly one
// backend is selected for the process lifetime.
//
// All operations address entries by cleaned virtual paths (slash-separated,
// root-relative; empty path is the configured root). Failures surface as the
// sentinel errors ErrNotFound, ErrInvalidPath, ErrExists, and ErrIO —
// implementations never panic across this boundary.
type Backend interface {
	// List produces the entries of the directory at path, lazily, skipping
	// offset entries and stopping after limit (limit <= 0 means unbounded).
	// The returned sequence is finite and single-use. A missing intermediate
	// segment yields an empty sequence; a missing or non-directory final
	// segment yields ErrNotFound.
	List(ctx context.Context, path string, offset, limit int) (iter.Seq[FileItem], error)

	// Stat resolves a single entry. Returns ErrNotFound if path does not
	// exist.
	Stat(ctx context.Context, path string) (FileItem, error)

	// OpenRead opens the file at path for sequential reading.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteAll replaces the file at path with the given bytes, creating it
	// if absent.
	WriteAll(ctx context.Context, path string, data []byte, mime string) error

	// WriteStream replaces the file at path from an incoming byte source,
	// copying in WriteChunkSize chunks. Creates the target if absent,
	// truncates if present.
	WriteStream(ctx context.Context, path string, src io.Reader, mime string) error

	// Delete removes the entry at path. Directories are removed recursively.
	Delete(ctx context.Context, path string) error

	// Copy duplicates src at dst, creating missing destination directories.
	// Directories are copied as whole trees.
	Copy(ctx context.Context, src, dst string) error

	// Rename changes the final segment of path to newName in place.
	Rename(ctx context.Context, path, newName string) error

	// Mkdir creates a directory called name under parent. Fails with
	// ErrExists if the name is taken.
	Mkdir(ctx context.Context, parent, name string) error

	// CreateFile creates a zero-length file called name under parent, with
	// an optional MIME type hint. Fails with ErrExists if the name is taken.
	CreateFile(ctx context.Context, parent, name, mime string) error
}
