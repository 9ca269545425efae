package http

import (
	"net/http"
	"strconv"

	"github.com/stremer/stremerd"
)

func queryInt64Ptr(r *http.Request, key string) *int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseFilters(r *http.Request) (stremerd.SearchFilters, error) {
	f := stremerd.SearchFilters{
		NamePattern:    r.URL.Query().Get("q"),
		SizeMin:        queryInt64Ptr(r, "sizeMin"),
		SizeMax:        queryInt64Ptr(r, "sizeMax"),
		ModifiedAfter:  queryInt64Ptr(r, "modifiedAfter"),
		ModifiedBefore: queryInt64Ptr(r, "modifiedBefore"),
	}

	if t := r.URL.Query().Get("type"); t != "" {
		kind, err := stremerd.ParseKind(t)
		if err != nil {
			return stremerd.SearchFilters{}, err
		}
		f.Kind = kind
	}

	f.Limit = queryInt(r, "limit", 200)
	if f.Limit <= 0 || f.Limit > stremerd.SearchLimitMax {
		f.Limit = stremerd.SearchLimitMax
	}

	return f, nil
}

// handleSearch walks the tree breadth-first from the start path, matching
// every directory's children against the filters. Matching directories are
// both reported and traversed further. Traversal stops once limit matches
// are collected or the queue is exhausted.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.router.IsConfigured() {
		_ = WriteJSON(w, http.StatusOK, map[string]any{
			"items": []stremerd.FileItem{},
			"error": "No storage configured",
		})
		return
	}

	filters, err := parseFilters(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	start := stremerd.CleanPath(r.URL.Query().Get("path"))

	items := []stremerd.FileItem{}
	queue := []string{start}

	for len(queue) > 0 && len(items) < filters.Limit {
		dir := queue[0]
		queue = queue[1:]

		seq, err := h.router.List(r.Context(), dir, 0, 0)
		if err != nil {
			// A queued directory may have vanished mid-walk; skip it.
			continue
		}

		for item := range seq {
			if r.Context().Err() != nil {
				return
			}

			childPath := item.VirtualPath
			if childPath == "" {
				childPath = stremerd.JoinPath(dir, item.Name)
			}

			if filters.Matches(item) {
				items = append(items, item)
				if len(items) >= filters.Limit {
					break
				}
			}
			if item.Kind == stremerd.KindDir {
				queue = append(queue, childPath)
			}
		}
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
