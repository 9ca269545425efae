package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/stremer/stremerd"
	"github.com/stremer/stremerd/metrics"
	"github.com/stremer/stremerd/probe"
)

// byteRange is a parsed, clamped Range request.
type byteRange struct {
	start int64
	end   int64 // inclusive
}

func (br byteRange) length() int64 {
	return br.end - br.start + 1
}

// parseRange parses a "bytes=start-end" or suffix "bytes=-n" header against
// the file size. The end is optional and defaults to the file end. Both
// bounds are clamped into [0, size-1]; an inverted range after clamping
// degenerates to a single byte at start.
func parseRange(header string, size int64) (byteRange, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return byteRange{}, false
	}

	spec := strings.TrimPrefix(header, prefix)
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return byteRange{}, false
	}

	var start, end int64
	if head := strings.TrimSpace(spec[:dash]); head == "" {
		// Suffix form: the last n bytes.
		n, err := strconv.ParseInt(strings.TrimSpace(spec[dash+1:]), 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false
		}
		start = size - n
		end = size - 1
	} else {
		var err error
		start, err = strconv.ParseInt(head, 10, 64)
		if err != nil {
			return byteRange{}, false
		}
		end = size - 1
		if tail := strings.TrimSpace(spec[dash+1:]); tail != "" {
			end, err = strconv.ParseInt(tail, 10, 64)
			if err != nil {
				return byteRange{}, false
			}
		}
	}

	if last := size - 1; last >= 0 {
		if start > last {
			start = last
		}
		if end > last {
			end = last
		}
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}

	return byteRange{start: start, end: end}, true
}

// handleStream serves file content with HTTP Range support. GET and HEAD
// share the header logic; HEAD never opens the underlying file.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing path")
		return
	}

	item, err := h.router.Stat(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	if item.Kind != stremerd.KindFile {
		WriteError(w, http.StatusNotFound, "not_found", "Not a file")
		return
	}

	var size int64
	if item.Size != nil {
		size = *item.Size
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", probe.MimeByName(item.Name))

	br, ranged := parseRange(r.Header.Get("Range"), size)
	if !ranged {
		br = byteRange{start: 0, end: size - 1}
	}

	length := br.length()
	if size == 0 {
		length = 0
	}

	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	status := http.StatusOK
	if ranged {
		status = http.StatusPartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.start, br.end, size))
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	src, err := h.router.OpenRead(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = src.Close() }()

	if err := skipBytes(src, br.start); err != nil {
		HandleError(w, fmt.Errorf("%w: skip to range start: %v", stremerd.ErrIO, err))
		return
	}

	w.WriteHeader(status)
	n := copyChunks(w, src, length)
	metrics.AddStreamedBytes(n)
}

// skipBytes discards exactly n leading bytes of src. A single discard may
// be partial, so it retries until done or the stream errors out.
func skipBytes(src io.Reader, n int64) error {
	for n > 0 {
		skipped, err := io.CopyN(io.Discard, src, n)
		n -= skipped
		if err != nil {
			return err
		}
		if skipped == 0 {
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}

// copyChunks copies exactly length bytes downstream in fixed-size chunks,
// flushing as it goes. A write failure means the client disconnected and
// the copy stops; there is nothing to report to a peer that is gone.
func copyChunks(w http.ResponseWriter, src io.Reader, length int64) int64 {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, stremerd.WriteChunkSize)

	var written int64
	for written < length {
		want := int64(len(buf))
		if remaining := length - written; remaining < want {
			want = remaining
		}

		n, readErr := src.Read(buf[:want])
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			return written
		}
	}
	return written
}
