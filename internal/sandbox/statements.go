// ABOUTME: Statement handlers: retrieval, insertion, deletion, document loading
// ABOUTME: Accepts JSON quads, N-Triples/N-Quads and RDF/XML uploads or server-side files

package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/agclient/internal/store"
)

// maxUpload bounds request bodies carrying statements.
const maxUpload = 64 << 20

func statementPattern(r *http.Request) store.Pattern {
	q := r.URL.Query()
	return store.Pattern{
		Subject:      q.Get("subj"),
		SubjectEnd:   q.Get("subjEnd"),
		Predicate:    q.Get("pred"),
		PredicateEnd: q.Get("predEnd"),
		Object:       q.Get("obj"),
		ObjectEnd:    q.Get("objEnd"),
		Contexts:     contextParams(q["context"]),
	}
}

func (s *Server) handleGetStatements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("bad limit %q", v))
			return
		}
		limit = n
	}

	rw := newRowWriter(w, r)
	count := 0
	err := s.store.EachStatement(r.Context(), r.PathValue("repo"), statementPattern(r), func(st store.Statement) error {
		if err := rw.write(quadRow(st)); err != nil {
			return err
		}
		count++
		if limit > 0 && count >= limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		rw.fail(s, r, err)
		return
	}
	rw.finish()
}

// decodeQuads reads a JSON array of [s, p, o] or [s, p, o, g] rows. A null
// graph is the default graph.
func decodeQuads(r io.Reader) ([]store.Statement, error) {
	var rows [][]*string
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding statements: %w", err)
	}
	out := make([]store.Statement, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 && len(row) != 4 {
			return nil, fmt.Errorf("statement %d has %d terms, want 3 or 4", i, len(row))
		}
		if row[0] == nil || row[1] == nil || row[2] == nil {
			return nil, fmt.Errorf("statement %d has a null term", i)
		}
		st := store.Statement{Subject: *row[0], Predicate: *row[1], Object: *row[2]}
		if len(row) == 4 && row[3] != nil {
			st.Context = contextParam(*row[3])
		}
		out = append(out, st)
	}
	return out, nil
}

// openServerFile opens name for a server-side load. Only files below the
// configured root are reachable.
func (s *Server) openServerFile(name string) (*os.File, error) {
	if s.opts.FileRoot == "" {
		return nil, errServerLoadDisabled
	}
	root, err := os.OpenRoot(s.opts.FileRoot)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	if filepath.IsAbs(name) {
		abs, err := filepath.Abs(s.opts.FileRoot)
		if err != nil {
			return nil, err
		}
		if name, err = filepath.Rel(abs, name); err != nil {
			return nil, err
		}
	}
	return root.Open(name)
}

var errServerLoadDisabled = errors.New("server-side loading is disabled")

func (s *Server) handleAddStatements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	graph := contextParam(q.Get("context"))
	base := q.Get("baseURI")

	var body io.Reader = http.MaxBytesReader(w, r.Body, maxUpload)
	if file := q.Get("file"); file != "" {
		f, err := s.openServerFile(file)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errServerLoadDisabled) {
				status = http.StatusForbidden
			}
			sendError(w, status, fmt.Sprintf("cannot load %s: %v", file, err))
			return
		}
		defer f.Close()
		body = f
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		statements []store.Statement
		err        error
	)
	switch mediaType {
	case mimeJSON:
		statements, err = decodeQuads(body)
		if err == nil && graph != "" {
			for i := range statements {
				statements[i].Context = graph
			}
		}
	case "text/plain", "application/n-triples", "application/n-quads", "text/x-nquads":
		var data []byte
		if data, err = io.ReadAll(body); err == nil {
			statements, err = parseNTriples(string(data), graph, base)
		}
	case "application/rdf+xml":
		statements, err = parseRDFXML(body, graph, base)
	default:
		sendError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %q", mediaType))
		return
	}
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := s.store.AddStatements(r.Context(), r.PathValue("repo"), statements)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Debug("statements added", "repo", r.PathValue("repo"), "count", n)
	writeJSON(w, n)
}

func (s *Server) handleDeleteMatching(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteMatching(r.Context(), r.PathValue("repo"), statementPattern(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, n)
}

func (s *Server) handleDeleteStatements(w http.ResponseWriter, r *http.Request) {
	statements, err := decodeQuads(http.MaxBytesReader(w, r.Body, maxUpload))
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.store.DeleteStatements(r.Context(), r.PathValue("repo"), statements)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, n)
}

// maxBlankNodes caps a single blank node allocation.
const maxBlankNodes = 10000

func (s *Server) handleBlankNodes(w http.ResponseWriter, r *http.Request) {
	amount := 1
	if v := r.URL.Query().Get("amount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxBlankNodes {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("amount must be between 1 and %d", maxBlankNodes))
			return
		}
		amount = n
	}
	if _, err := s.store.IsWriteable(r.Context(), r.PathValue("repo")); err != nil {
		s.storeError(w, r, err)
		return
	}

	ids := make([]string, amount)
	for i := range ids {
		ids[i] = "_:b" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	writeJSON(w, ids)
}
