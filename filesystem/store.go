// Package filesystem implements the direct-path storage backend. It operates
// on ordinary file paths under a single base directory, available when the
// process has broad access to device storage. All operations are sandboxed
// through os.Root so a resolved path can never escape the base directory;
// writes are atomic via temp file and rename.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/stremer/stremerd"
)

const listBatchSize = 256

// Store provides direct filesystem storage operations rooted at a single
// base directory.
type Store struct {
	root *os.Root
}

// NewStore creates a Store over the given sandboxed root directory.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

var _ stremerd.Backend = (*Store)(nil)

// resolve cleans and validates a virtual path, mapping the empty path to
// ".". Paths that are malformed or attempt traversal are rejected with
// ErrInvalidPath before they ever reach the filesystem.
func resolve(p string) (string, error) {
	p = stremerd.CleanPath(p)
	if !stremerd.IsValidPath(p) {
		return "", stremerd.ErrInvalidPath
	}
	if p == "" {
		return ".", nil
	}
	return p, nil
}

func mapFSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return stremerd.ErrNotFound
	case errors.Is(err, os.ErrExist):
		return stremerd.ErrExists
	default:
		return fmt.Errorf("%w: %v", stremerd.ErrIO, err)
	}
}

// List produces directory entries lazily in fixed-size batches. A missing
// intermediate segment yields an empty sequence; a missing or non-directory
// final segment yields ErrNotFound.
func (s *Store) List(ctx context.Context, vpath string, offset, limit int) (iter.Seq[stremerd.FileItem], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := resolve(vpath)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.parentExists(p) {
				return nil, stremerd.ErrNotFound
			}
			return emptySeq(), nil
		}
		return nil, mapFSError(err)
	}

	info, err := f.Stat()
	if err != nil || !info.IsDir() {
		_ = f.Close()
		if err != nil {
			return nil, mapFSError(err)
		}
		return nil, stremerd.ErrNotFound
	}

	virtualDir := stremerd.CleanPath(vpath)

	return func(yield func(stremerd.FileItem) bool) {
		defer func() { _ = f.Close() }()

		skipped, produced := 0, 0
		for {
			if ctx.Err() != nil {
				return
			}

			batch, readErr := f.ReadDir(listBatchSize)
			for _, entry := range batch {
				if skipped < offset {
					skipped++
					continue
				}
				if limit > 0 && produced >= limit {
					return
				}
				if !yield(entryItem(entry, virtualDir)) {
					return
				}
				produced++
			}

			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					slog.Warn("directory read aborted", "path", virtualDir, "err", readErr)
				}
				return
			}
		}
	}, nil
}

func entryItem(entry fs.DirEntry, virtualDir string) stremerd.FileItem {
	vp := stremerd.JoinPath(virtualDir, entry.Name())

	info, err := entry.Info()
	if err != nil {
		// Entry vanished between readdir and stat; report name and kind only.
		kind := stremerd.KindFile
		if entry.IsDir() {
			kind = stremerd.KindDir
		}
		return stremerd.FileItem{Name: entry.Name(), Kind: kind, VirtualPath: vp}
	}

	if info.IsDir() {
		return stremerd.NewDirItem(entry.Name(), info.ModTime(), vp)
	}
	return stremerd.NewFileItem(entry.Name(), info.Size(), info.ModTime(), vp)
}

func (s *Store) parentExists(p string) bool {
	parent := path.Dir(p)
	if parent == "." || parent == "/" {
		return true
	}
	info, err := s.root.Stat(parent)
	return err == nil && info.IsDir()
}

func emptySeq() iter.Seq[stremerd.FileItem] {
	return func(func(stremerd.FileItem) bool) {}
}

// Stat resolves a single entry.
func (s *Store) Stat(ctx context.Context, vpath string) (stremerd.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return stremerd.FileItem{}, err
	}

	p, err := resolve(vpath)
	if err != nil {
		return stremerd.FileItem{}, err
	}

	info, err := s.root.Stat(p)
	if err != nil {
		return stremerd.FileItem{}, mapFSError(err)
	}

	name := info.Name()
	if p == "." {
		name = ""
	}

	vp := stremerd.CleanPath(vpath)
	if info.IsDir() {
		return stremerd.NewDirItem(name, info.ModTime(), vp), nil
	}
	return stremerd.NewFileItem(name, info.Size(), info.ModTime(), vp), nil
}

// OpenRead opens a file for sequential reading.
func (s *Store) OpenRead(ctx context.Context, vpath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := resolve(vpath)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(p)
	if err != nil {
		return nil, mapFSError(err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, mapFSError(err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, stremerd.ErrNotFound
	}

	return f, nil
}

// WriteAll replaces the file at path with the given bytes.
func (s *Store) WriteAll(ctx context.Context, vpath string, data []byte, mime string) error {
	return s.WriteStream(ctx, vpath, bytes.NewReader(data), mime)
}

// WriteStream replaces the file at path from src, streaming through a
// fixed-size buffer into a temp file that is renamed into place on success.
// A mid-transfer failure leaves the previous content untouched.
func (s *Store) WriteStream(ctx context.Context, vpath string, src io.Reader, mime string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := resolve(vpath)
	if err != nil {
		return err
	}
	if p == "." {
		return stremerd.ErrInvalidPath
	}

	destDir := path.Dir(p)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return mapFSError(err)
		}
	}

	tmp := tmpFileName()
	t, err := s.root.Create(tmp)
	if err != nil {
		return mapFSError(err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmp); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	buf := make([]byte, stremerd.WriteChunkSize)
	if _, err := io.CopyBuffer(t, &ctxReader{ctx: ctx, r: src}, buf); err != nil {
		return fmt.Errorf("%w: copy contents: %v", stremerd.ErrIO, err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", stremerd.ErrIO, err)
	}

	if err := s.root.Rename(tmp, p); err != nil {
		return mapFSError(err)
	}

	success = true
	return nil
}

// Delete removes a file or directory tree.
func (s *Store) Delete(ctx context.Context, vpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := resolve(vpath)
	if err != nil {
		return err
	}
	if p == "." {
		return stremerd.ErrInvalidPath
	}

	if _, err := s.root.Stat(p); err != nil {
		return mapFSError(err)
	}

	return mapFSError(s.root.RemoveAll(p))
}

// Copy duplicates src at dst, creating missing destination directories.
// Directories are copied as whole trees.
func (s *Store) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sp, err := resolve(src)
	if err != nil {
		return err
	}
	dp, err := resolve(dst)
	if err != nil {
		return err
	}
	if sp == "." || dp == "." {
		return stremerd.ErrInvalidPath
	}

	info, err := s.root.Stat(sp)
	if err != nil {
		return mapFSError(err)
	}

	if !info.IsDir() {
		return s.copyFile(ctx, sp, dp)
	}
	return s.copyTree(ctx, sp, dp)
}

func (s *Store) copyFile(ctx context.Context, src, dst string) error {
	f, err := s.root.Open(src)
	if err != nil {
		return mapFSError(err)
	}
	defer func() { _ = f.Close() }()

	return s.WriteStream(ctx, dst, f, "")
}

func (s *Store) copyTree(ctx context.Context, src, dst string) error {
	if err := s.root.MkdirAll(dst, 0o755); err != nil {
		return mapFSError(err)
	}

	entries, err := fs.ReadDir(s.root.FS(), src)
	if err != nil {
		return mapFSError(err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		childSrc := path.Join(src, entry.Name())
		childDst := path.Join(dst, entry.Name())

		if entry.IsDir() {
			err = s.copyTree(ctx, childSrc, childDst)
		} else {
			err = s.copyFile(ctx, childSrc, childDst)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Rename changes the final segment of path to newName in place. Fails with
// ErrExists if an entry called newName already exists alongside path.
func (s *Store) Rename(ctx context.Context, vpath, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := resolve(vpath)
	if err != nil {
		return err
	}
	if p == "." || newName == "" || strings.ContainsAny(newName, "/\\") {
		return stremerd.ErrInvalidPath
	}

	if _, err := s.root.Stat(p); err != nil {
		return mapFSError(err)
	}

	target := path.Join(path.Dir(p), newName)
	if _, err := s.root.Stat(target); err == nil {
		return stremerd.ErrExists
	}

	return mapFSError(s.root.Rename(p, target))
}

// Mkdir creates a directory called name under parent.
func (s *Store) Mkdir(ctx context.Context, parent, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := resolve(parent)
	if err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, "/\\") {
		return stremerd.ErrInvalidPath
	}

	target := path.Join(p, name)
	if _, err := s.root.Stat(target); err == nil {
		return stremerd.ErrExists
	}

	return mapFSError(s.root.Mkdir(target, 0o755))
}

// CreateFile creates a zero-length file called name under parent. The MIME
// hint is accepted for contract parity but carries no meaning on a plain
// filesystem, where type follows from the extension.
func (s *Store) CreateFile(ctx context.Context, parent, name, mime string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := resolve(parent)
	if err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, "/\\") {
		return stremerd.ErrInvalidPath
	}

	target := path.Join(p, name)
	if _, err := s.root.Stat(target); err == nil {
		return stremerd.ErrExists
	}

	f, err := s.root.Create(target)
	if err != nil {
		return mapFSError(err)
	}
	return mapFSError(f.Close())
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
