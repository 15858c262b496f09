// ABOUTME: Response helpers for the sandbox handlers
// ABOUTME: JSON bodies, plain-text errors, store error mapping and NDJSON row streaming

package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2389/agclient/internal/store"
)

const (
	mimeJSON   = "application/json"
	mimeNDJSON = "application/x-ndjson"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", mimeJSON)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// sendError writes a plain-text error body, the form clients surface to users.
func sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// storeError maps store sentinel errors onto HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		sendError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotWriteable):
		sendError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrInvalid):
		sendError(w, http.StatusBadRequest, err.Error())
	case r.Context().Err() != nil:
		// Client went away; nobody is listening for the answer.
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		sendError(w, http.StatusInternalServerError, "internal error")
	}
}

func wantsNDJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), mimeNDJSON)
}

// rowWriter emits result rows either as one JSON array or, when the client
// asked for NDJSON, as one flushed line per row.
type rowWriter struct {
	w       http.ResponseWriter
	stream  bool
	enc     *json.Encoder
	flusher http.Flusher
	started bool
	rows    []any
}

func newRowWriter(w http.ResponseWriter, r *http.Request) *rowWriter {
	rw := &rowWriter{w: w, stream: wantsNDJSON(r), rows: []any{}}
	if rw.stream {
		rw.enc = json.NewEncoder(w)
		rw.enc.SetEscapeHTML(false)
		rw.flusher, _ = w.(http.Flusher)
	}
	return rw
}

func (rw *rowWriter) start() {
	if rw.started {
		return
	}
	rw.started = true
	rw.w.Header().Set("Content-Type", mimeNDJSON)
	rw.w.WriteHeader(http.StatusOK)
}

func (rw *rowWriter) write(row any) error {
	if !rw.stream {
		rw.rows = append(rw.rows, row)
		return nil
	}
	rw.start()
	if err := rw.enc.Encode(row); err != nil {
		return err
	}
	if rw.flusher != nil {
		rw.flusher.Flush()
	}
	return nil
}

// finish completes a successful response.
func (rw *rowWriter) finish() {
	if rw.stream {
		rw.start()
		return
	}
	writeJSON(rw.w, rw.rows)
}

// fail reports err if no row has been sent yet. Once streaming has begun the
// status line is gone and the truncated stream is all the client gets.
func (rw *rowWriter) fail(s *Server, r *http.Request, err error) {
	if rw.started {
		s.logger.Warn("stream aborted", "path", r.URL.Path, "error", err)
		return
	}
	s.storeError(rw.w, r, err)
}

// quadRow renders a statement as [s, p, o, g] with null for the default graph.
func quadRow(st store.Statement) []any {
	var graph any
	if st.Context != "" {
		graph = st.Context
	}
	return []any{st.Subject, st.Predicate, st.Object, graph}
}

// contextParam decodes one context parameter; "null" is the default graph.
func contextParam(v string) string {
	if v == "null" {
		return ""
	}
	return v
}

// contextParams decodes repeated context parameters. Absent means all graphs.
func contextParams(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = contextParam(v)
	}
	return out
}
