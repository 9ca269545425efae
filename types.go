package stremerd

import (
	"fmt"
	"time"
)

// Kind classifies a directory entry.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
)

func (k Kind) IsValid() bool {
	return k == KindFile || k == KindDir
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid kind: %s (valid kinds: file, dir)", s)
	}
	return k, nil
}

// FileItem describes one entry produced by a listing or stat operation.
// Size and LastModified are nil when the backend cannot determine them
// (directories have no size, some providers report no mtime).
type FileItem struct {
	Name         string `json:"name"`
	Kind         Kind   `json:"type"`
	Size         *int64 `json:"size,omitempty"`
	LastModified *int64 `json:"lastModified,omitempty"`
	VirtualPath  string `json:"path,omitempty"`
}

// NewFileItem builds a FileItem for a regular file.
func NewFileItem(name string, size int64, modified time.Time, virtualPath string) FileItem {
	ms := modified.UnixMilli()
	return FileItem{
		Name:         name,
		Kind:         KindFile,
		Size:         &size,
		LastModified: &ms,
		VirtualPath:  virtualPath,
	}
}

// NewDirItem builds a FileItem for a directory.
func NewDirItem(name string, modified time.Time, virtualPath string) FileItem {
	ms := modified.UnixMilli()
	return FileItem{
		Name:         name,
		Kind:         KindDir,
		LastModified: &ms,
		VirtualPath:  virtualPath,
	}
}

// SearchLimitMax caps the number of matches a single search may collect.
const SearchLimitMax = 500

// SearchFilters is the per-request query value evaluated against each
// candidate item during a recursive search. Zero/nil fields match anything;
// an item missing an attribute fails the corresponding bound check.
type SearchFilters struct {
	NamePattern    string
	Kind           Kind
	SizeMin        *int64
	SizeMax        *int64
	ModifiedAfter  *int64
	ModifiedBefore *int64
	Limit          int
}

// Matches reports whether item passes every set filter.
func (f SearchFilters) Matches(item FileItem) bool {
	if f.NamePattern != "" && !containsFold(item.Name, f.NamePattern) {
		return false
	}
	if f.Kind != "" && item.Kind != f.Kind {
		return false
	}
	if f.SizeMin != nil && (item.Size == nil || *item.Size < *f.SizeMin) {
		return false
	}
	if f.SizeMax != nil && (item.Size == nil || *item.Size > *f.SizeMax) {
		return false
	}
	if f.ModifiedAfter != nil && (item.LastModified == nil || *item.LastModified < *f.ModifiedAfter) {
		return false
	}
	if f.ModifiedBefore != nil && (item.LastModified == nil || *item.LastModified > *f.ModifiedBefore) {
		return false
	}
	return true
}

// StorageRoot names one granted directory subtree. Roots are persisted in
// registration order and restored at startup; names are unique within the
// active set.
type StorageRoot struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ClientRecord tracks the most recent login seen from one client. Kept only
// in memory; upserted keyed by remote address or display name.
type ClientRecord struct {
	DisplayName string `json:"displayName"`
	RemoteAddr  string `json:"remoteAddr"`
	LastSeenMs  int64  `json:"lastSeenMs"`
}
