package stremerd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
)

type mount struct {
	name    string
	backend Backend
}

// Router selects exactly one storage variant for the process lifetime and
// multiplexes a named-root address space when more than one granted subtree
// is registered. With a single root (or the direct-path backend) the whole
// virtual path is root-relative; with several, the first path segment
// selects the root by name.
//
// Router itself satisfies Backend so the protocol layer addresses storage
// uniformly. Every operation fails with ErrNotConfigured until at least one
// backend is attached.
type Router struct {
	mu     sync.RWMutex
	direct Backend
	mounts []mount
}

// NewDirectRouter builds a router over the direct-path backend. The backend
// choice is fixed for the process lifetime.
func NewDirectRouter(b Backend) *Router {
	return &Router{direct: b}
}

// NewScopedRouter builds a router over the permission-tree backend with no
// roots attached yet.
func NewScopedRouter() *Router {
	return &Router{}
}

var _ Backend = (*Router)(nil)

// IsConfigured reports whether any file-serving backend is attached. When
// false, listing endpoints return a structured "no storage configured"
// response rather than an error.
func (r *Router) IsConfigured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.direct != nil || len(r.mounts) > 0
}

// AddRoot attaches a granted subtree under name and returns the name
// actually used. A colliding name is disambiguated deterministically: first
// by appending the parent-segment hint, then by a numeric suffix.
func (r *Router) AddRoot(name, parentHint string, b Backend) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	final := name
	if r.taken(final) && parentHint != "" {
		final = fmt.Sprintf("%s (%s)", name, parentHint)
	}
	for n := 2; r.taken(final); n++ {
		final = fmt.Sprintf("%s %d", name, n)
	}

	r.mounts = append(r.mounts, mount{name: final, backend: b})
	return final
}

func (r *Router) taken(name string) bool {
	for _, m := range r.mounts {
		if m.name == name {
			return true
		}
	}
	return false
}

// RemoveRoot detaches a root by name.
func (r *Router) RemoveRoot(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.mounts {
		if m.name == name {
			r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
			return true
		}
	}
	return false
}

// RootNames returns the attached root names in registration order.
func (r *Router) RootNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.mounts))
	for i, m := range r.mounts {
		names[i] = m.name
	}
	return names
}

// resolve maps a cleaned virtual path to (backend, backend-relative path).
func (r *Router) resolve(vpath string) (Backend, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.direct != nil {
		return r.direct, vpath, nil
	}

	switch len(r.mounts) {
	case 0:
		return nil, "", ErrNotConfigured
	case 1:
		return r.mounts[0].backend, vpath, nil
	}

	rootName, rest := SplitRoot(vpath)
	for _, m := range r.mounts {
		if m.name == rootName {
			return m.backend, rest, nil
		}
	}
	return nil, "", ErrNotFound
}

// multiRoot reports whether the top level is the synthetic root directory.
func (r *Router) multiRoot() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.direct == nil && len(r.mounts) > 1
}

// List lists a directory. At the synthetic top level of a multi-root setup
// it enumerates the root names themselves as directories.
func (r *Router) List(ctx context.Context, path string, offset, limit int) (iter.Seq[FileItem], error) {
	path = CleanPath(path)

	if path == "" && r.multiRoot() {
		names := r.RootNames()
		return func(yield func(FileItem) bool) {
			produced := 0
			for i, name := range names {
				if i < offset {
					continue
				}
				if limit > 0 && produced >= limit {
					return
				}
				if !yield(FileItem{Name: name, Kind: KindDir, VirtualPath: name}) {
					return
				}
				produced++
			}
		}, nil
	}

	b, rel, err := r.resolve(path)
	if err != nil {
		return nil, err
	}

	seq, err := b.List(ctx, rel, offset, limit)
	if err != nil {
		return nil, err
	}
	if !r.multiRoot() || rel == path {
		return seq, nil
	}

	// Re-prefix backend-relative virtual paths with the selected root name.
	rootName, _ := SplitRoot(path)
	return func(yield func(FileItem) bool) {
		for item := range seq {
			item.VirtualPath = JoinPath(rootName, item.VirtualPath)
			if !yield(item) {
				return
			}
		}
	}, nil
}

func (r *Router) Stat(ctx context.Context, path string) (FileItem, error) {
	path = CleanPath(path)

	if r.multiRoot() {
		if path == "" {
			return FileItem{Name: "", Kind: KindDir}, nil
		}
		if rootName, rest := SplitRoot(path); rest == "" && r.hasRoot(rootName) {
			return FileItem{Name: rootName, Kind: KindDir, VirtualPath: rootName}, nil
		}
	}

	b, rel, err := r.resolve(path)
	if err != nil {
		return FileItem{}, err
	}

	item, err := b.Stat(ctx, rel)
	if err != nil {
		return FileItem{}, err
	}
	if rel != path {
		rootName, _ := SplitRoot(path)
		item.VirtualPath = JoinPath(rootName, item.VirtualPath)
	}
	return item, nil
}

func (r *Router) hasRoot(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taken(name)
}

func (r *Router) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	b, rel, err := r.resolve(CleanPath(path))
	if err != nil {
		return nil, err
	}
	return b.OpenRead(ctx, rel)
}

func (r *Router) WriteAll(ctx context.Context, path string, data []byte, mime string) error {
	b, rel, err := r.resolve(CleanPath(path))
	if err != nil {
		return err
	}
	return b.WriteAll(ctx, rel, data, mime)
}

func (r *Router) WriteStream(ctx context.Context, path string, src io.Reader, mime string) error {
	b, rel, err := r.resolve(CleanPath(path))
	if err != nil {
		return err
	}
	return b.WriteStream(ctx, rel, src, mime)
}

func (r *Router) Delete(ctx context.Context, path string) error {
	b, rel, err := r.resolve(CleanPath(path))
	if err != nil {
		return err
	}
	if rel == "" {
		return ErrInvalidPath
	}
	return b.Delete(ctx, rel)
}

// Copy duplicates src at dst. Cross-root copies stream through OpenRead and
// WriteStream since the two grants may not share a filesystem view.
func (r *Router) Copy(ctx context.Context, src, dst string) error {
	srcBackend, srcRel, err := r.resolve(CleanPath(src))
	if err != nil {
		return err
	}
	dstBackend, dstRel, err := r.resolve(CleanPath(dst))
	if err != nil {
		return err
	}

	if srcBackend == dstBackend {
		return srcBackend.Copy(ctx, srcRel, dstRel)
	}

	item, err := srcBackend.Stat(ctx, srcRel)
	if err != nil {
		return err
	}
	if item.Kind == KindDir {
		return r.copyTreeAcross(ctx, srcBackend, dstBackend, srcRel, dstRel)
	}
	return copyFileAcross(ctx, srcBackend, dstBackend, srcRel, dstRel)
}

func copyFileAcross(ctx context.Context, from, to Backend, src, dst string) error {
	f, err := from.OpenRead(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return to.WriteStream(ctx, dst, f, "")
}

func (r *Router) copyTreeAcross(ctx context.Context, from, to Backend, src, dst string) error {
	if err := to.Mkdir(ctx, ParentPath(dst), BaseName(dst)); err != nil && !errors.Is(err, ErrExists) {
		return err
	}

	seq, err := from.List(ctx, src, 0, 0)
	if err != nil {
		return err
	}

	for item := range seq {
		childSrc := JoinPath(src, item.Name)
		childDst := JoinPath(dst, item.Name)

		if item.Kind == KindDir {
			err = r.copyTreeAcross(ctx, from, to, childSrc, childDst)
		} else {
			err = copyFileAcross(ctx, from, to, childSrc, childDst)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Rename(ctx context.Context, path, newName string) error {
	b, rel, err := r.resolve(CleanPath(path))
	if err != nil {
		return err
	}
	if rel == "" {
		return ErrInvalidPath
	}
	return b.Rename(ctx, rel, newName)
}

func (r *Router) Mkdir(ctx context.Context, parent, name string) error {
	b, rel, err := r.resolve(CleanPath(parent))
	if err != nil {
		return err
	}
	return b.Mkdir(ctx, rel, name)
}

func (r *Router) CreateFile(ctx context.Context, parent, name, mime string) error {
	b, rel, err := r.resolve(CleanPath(parent))
	if err != nil {
		return err
	}
	return b.CreateFile(ctx, rel, name, mime)
}
