// ABOUTME: Repository settings handlers: indices, indexing, free-text, environments
// ABOUTME: Also namespaces, Prolog functor definitions and type/predicate mappings

package sandbox

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/agclient/internal/store"
)

// maxSettingBody bounds plain-text setting bodies such as namespace URIs.
const maxSettingBody = 1 << 20

func readText(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingBody))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Server) handleListIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := s.store.ListIndices(r.Context(), r.PathValue("repo"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, indices)
}

func (s *Server) handleAddIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.store.AddIndex(r.Context(), r.PathValue("repo"), r.PathValue("kind")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteIndex(r.Context(), r.PathValue("repo"), r.PathValue("kind")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIndexCoverage reports full coverage; the store indexes on insert.
func (s *Server) handleIndexCoverage(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.store.Thresholds(r.Context(), r.PathValue("repo")); err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, 1.0)
}

func (s *Server) handleIndexStatements(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.store.Thresholds(r.Context(), r.PathValue("repo")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var which store.Threshold
	switch r.PathValue("threshold") {
	case "tripleTreshold":
		which = store.TripleThreshold
	case "chunkTreshold":
		which = store.ChunkThreshold
	default:
		sendError(w, http.StatusNotFound, "unknown indexing threshold "+r.PathValue("threshold"))
		return
	}

	text, err := readText(w, r)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil || value < 0 {
		sendError(w, http.StatusBadRequest, fmt.Sprintf("threshold %q is not a non-negative integer", text))
		return
	}
	if err := s.store.SetThreshold(r.Context(), r.PathValue("repo"), which, value); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFreeText(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		sendError(w, http.StatusBadRequest, "missing pattern parameter")
		return
	}
	rw := newRowWriter(w, r)
	err := s.store.EachFreeTextMatch(r.Context(), r.PathValue("repo"), pattern, func(st store.Statement) error {
		return rw.write(quadRow(st))
	})
	if err != nil {
		rw.fail(s, r, err)
		return
	}
	rw.finish()
}

func (s *Server) handleListFreeTextPredicates(w http.ResponseWriter, r *http.Request) {
	preds, err := s.store.ListFreeTextPredicates(r.Context(), r.PathValue("repo"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, preds)
}

func (s *Server) handleAddFreeTextPredicate(w http.ResponseWriter, r *http.Request) {
	pred := r.URL.Query().Get("predicate")
	if pred == "" {
		sendError(w, http.StatusBadRequest, "missing predicate parameter")
		return
	}
	if err := s.store.AddFreeTextPredicate(r.Context(), r.PathValue("repo"), pred); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	envs, err := s.store.ListEnvironments(r.Context(), r.PathValue("repo"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, envs)
}

// handleCreateEnvironment creates an environment and answers with its name,
// generating one when the request has none.
func (s *Server) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "env-" + uuid.NewString()[:8]
	}
	if err := s.store.CreateEnvironment(r.Context(), r.PathValue("repo"), name); err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, name)
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		sendError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	if err := s.store.DeleteEnvironment(r.Context(), r.PathValue("repo"), name); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type namespaceJSON struct {
	Prefix    string `json:"prefix"`
	Namespace string `json:"namespace"`
}

func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	nss, err := s.store.ListNamespaces(r.Context(), r.PathValue("repo"), r.URL.Query().Get("environment"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	out := make([]namespaceJSON, len(nss))
	for i, ns := range nss {
		out[i] = namespaceJSON{Prefix: ns.Prefix, Namespace: ns.URI}
	}
	writeJSON(w, out)
}

func (s *Server) handleClearNamespaces(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearNamespaces(r.Context(), r.PathValue("repo"), r.URL.Query().Get("environment")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddNamespace(w http.ResponseWriter, r *http.Request) {
	uri, err := readText(w, r)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if uri == "" {
		sendError(w, http.StatusBadRequest, "namespace URI is empty")
		return
	}
	env := r.URL.Query().Get("environment")
	if err := s.store.AddNamespace(r.Context(), r.PathValue("repo"), env, r.PathValue("prefix"), uri); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNamespace(w http.ResponseWriter, r *http.Request) {
	env := r.URL.Query().Get("environment")
	if err := s.store.DeleteNamespace(r.Context(), r.PathValue("repo"), env, r.PathValue("prefix")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFunctors(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListFunctors(r.Context(), r.PathValue("repo"), r.URL.Query().Get("environment"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, defs)
}

// handleDefineFunctor stores a rule definition. The sandbox cannot run Prolog
// but keeps definitions so environments round-trip.
func (s *Server) handleDefineFunctor(w http.ResponseWriter, r *http.Request) {
	def, err := readText(w, r)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if def == "" {
		sendError(w, http.StatusBadRequest, "functor definition is empty")
		return
	}
	env := r.URL.Query().Get("environment")
	if err := s.store.DefineFunctor(r.Context(), r.PathValue("repo"), env, def); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mappingKey is the query parameter naming the mapped item.
func mappingKey(kind store.MappingKind) string {
	if kind == store.TypeMapping {
		return "type"
	}
	return "predicate"
}

func (s *Server) mappingLister(kind store.MappingKind) http.HandlerFunc {
	key := mappingKey(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		mappings, err := s.store.ListMappings(r.Context(), r.PathValue("repo"), kind)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		out := make([]map[string]string, len(mappings))
		for i, m := range mappings {
			out[i] = map[string]string{key: m.Key, "primitiveType": m.Primitive}
		}
		writeJSON(w, out)
	}
}

func (s *Server) mappingAdder(kind store.MappingKind) http.HandlerFunc {
	key := mappingKey(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		item, primitive := q.Get(key), q.Get("primitiveType")
		if item == "" || primitive == "" {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("both %s and primitiveType are required", key))
			return
		}
		if err := s.store.AddMapping(r.Context(), r.PathValue("repo"), kind, item, primitive); err != nil {
			s.storeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) mappingDeleter(kind store.MappingKind) http.HandlerFunc {
	key := mappingKey(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		item := r.URL.Query().Get(key)
		if item == "" {
			sendError(w, http.StatusBadRequest, "missing "+key+" parameter")
			return
		}
		if err := s.store.DeleteMapping(r.Context(), r.PathValue("repo"), kind, item); err != nil {
			s.storeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
