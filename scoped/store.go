// Package scoped implements the permission-tree storage backend. Each store
// wraps one user-granted directory subtree held as an os.Root capability
// handle; raw paths never leave the grant. Because the metadata provider
// behind a grant can under-report file lengths, stat and listing results are
// corrected against the media index when the quick accessor returns an
// unreliable value.
package scoped

import (
	"context"
	"io"
	"iter"
	"os"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/filesystem"
)

// Index is the provider-level metadata source consulted for size correction
// and kept current on writes. All methods are best-effort from the store's
// point of view: any failure falls back to the quick accessor.
type Index interface {
	// SizeOf returns the recorded size column for a virtual path.
	SizeOf(ctx context.Context, vpath string) (int64, error)
	// Record upserts provider metadata after a successful write.
	Record(ctx context.Context, vpath string, size, modifiedMs int64, mime string) error
	// Forget drops recorded metadata for a path and everything below it.
	Forget(ctx context.Context, vpath string) error
}

// Store provides storage operations over a single granted subtree.
type Store struct {
	fs  *filesystem.Store
	idx Index
}

// NewStore creates a Store over the granted root. idx may be nil, in which
// case sizes are reported as observed.
func NewStore(root *os.Root, idx Index) *Store {
	return &Store{fs: filesystem.NewStore(root), idx: idx}
}

var _ stremerd.Backend = (*Store)(nil)

// correct replaces an unreliable quick-accessor size with the index's size
// column. Zero and negative lengths are the unreliable cases; any index
// failure keeps the quick value.
func (s *Store) correct(ctx context.Context, item stremerd.FileItem) stremerd.FileItem {
	if s.idx == nil || item.Kind != stremerd.KindFile {
		return item
	}
	if item.Size != nil && *item.Size > 0 {
		return item
	}

	size, err := s.idx.SizeOf(ctx, item.VirtualPath)
	if err != nil || size <= 0 {
		return item
	}

	item.Size = &size
	return item
}

func (s *Store) List(ctx context.Context, path string, offset, limit int) (iter.Seq[stremerd.FileItem], error) {
	seq, err := s.fs.List(ctx, path, offset, limit)
	if err != nil {
		return nil, err
	}

	return func(yield func(stremerd.FileItem) bool) {
		for item := range seq {
			if !yield(s.correct(ctx, item)) {
				return
			}
		}
	}, nil
}

func (s *Store) Stat(ctx context.Context, path string) (stremerd.FileItem, error) {
	item, err := s.fs.Stat(ctx, path)
	if err != nil {
		return stremerd.FileItem{}, err
	}
	return s.correct(ctx, item), nil
}

func (s *Store) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.fs.OpenRead(ctx, path)
}

func (s *Store) WriteAll(ctx context.Context, path string, data []byte, mime string) error {
	if err := s.fs.WriteAll(ctx, path, data, mime); err != nil {
		return err
	}
	s.record(ctx, path, int64(len(data)), mime)
	return nil
}

func (s *Store) WriteStream(ctx context.Context, path string, src io.Reader, mime string) error {
	counted := &countingReader{r: src}
	if err := s.fs.WriteStream(ctx, path, counted, mime); err != nil {
		return err
	}
	s.record(ctx, path, counted.n, mime)
	return nil
}

func (s *Store) record(ctx context.Context, path string, size int64, mime string) {
	if s.idx == nil {
		return
	}

	vpath := stremerd.CleanPath(path)
	var modifiedMs int64
	if item, err := s.fs.Stat(ctx, vpath); err == nil && item.LastModified != nil {
		modifiedMs = *item.LastModified
	}
	_ = s.idx.Record(ctx, vpath, size, modifiedMs, mime)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.fs.Delete(ctx, path); err != nil {
		return err
	}
	if s.idx != nil {
		_ = s.idx.Forget(ctx, stremerd.CleanPath(path))
	}
	return nil
}

func (s *Store) Copy(ctx context.Context, src, dst string) error {
	return s.fs.Copy(ctx, src, dst)
}

func (s *Store) Rename(ctx context.Context, path, newName string) error {
	if err := s.fs.Rename(ctx, path, newName); err != nil {
		return err
	}
	if s.idx != nil {
		_ = s.idx.Forget(ctx, stremerd.CleanPath(path))
	}
	return nil
}

func (s *Store) Mkdir(ctx context.Context, parent, name string) error {
	return s.fs.Mkdir(ctx, parent, name)
}

func (s *Store) CreateFile(ctx context.Context, parent, name, mime string) error {
	if err := s.fs.CreateFile(ctx, parent, name, mime); err != nil {
		return err
	}
	s.record(ctx, stremerd.JoinPath(stremerd.CleanPath(parent), name), 0, mime)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
