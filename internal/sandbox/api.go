// ABOUTME: Route table plus catalog, repository and query handlers
// ABOUTME: Answers SPARQL queries as JSON documents or NDJSON row streams

package sandbox

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/2389/agclient/internal/store"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /catalogs", s.handleListCatalogs)
	mux.HandleFunc("GET /repositories", s.handleListRepositories)

	const repo = "/repositories/{repo}"
	mux.HandleFunc("PUT "+repo, s.handleCreateRepository)
	mux.HandleFunc("DELETE "+repo, s.handleDeleteRepository)
	mux.HandleFunc("GET "+repo, s.handleQuery)
	mux.HandleFunc("POST "+repo, s.handleQuery)
	mux.HandleFunc("GET "+repo+"/size", s.handleSize)
	mux.HandleFunc("GET "+repo+"/contexts", s.handleContexts)
	mux.HandleFunc("GET "+repo+"/writeable", s.handleWriteable)

	mux.HandleFunc("GET "+repo+"/statements", s.handleGetStatements)
	mux.HandleFunc("POST "+repo+"/statements", s.handleAddStatements)
	mux.HandleFunc("DELETE "+repo+"/statements", s.handleDeleteMatching)
	mux.HandleFunc("POST "+repo+"/statements/delete", s.handleDeleteStatements)
	mux.HandleFunc("POST "+repo+"/blankNodes", s.handleBlankNodes)

	mux.HandleFunc("GET "+repo+"/indices", s.handleListIndices)
	mux.HandleFunc("PUT "+repo+"/indices/{kind}", s.handleAddIndex)
	mux.HandleFunc("DELETE "+repo+"/indices/{kind}", s.handleDeleteIndex)
	mux.HandleFunc("GET "+repo+"/indexing", s.handleIndexCoverage)
	mux.HandleFunc("POST "+repo+"/indexing", s.handleIndexStatements)
	mux.HandleFunc("PUT "+repo+"/indexing/{threshold}", s.handleSetThreshold)

	mux.HandleFunc("GET "+repo+"/freetext", s.handleFreeText)
	mux.HandleFunc("GET "+repo+"/freetextPredicates", s.handleListFreeTextPredicates)
	mux.HandleFunc("POST "+repo+"/freetextPredicates", s.handleAddFreeTextPredicate)

	mux.HandleFunc("GET "+repo+"/environments", s.handleListEnvironments)
	mux.HandleFunc("POST "+repo+"/environments", s.handleCreateEnvironment)
	mux.HandleFunc("DELETE "+repo+"/environments", s.handleDeleteEnvironment)
	mux.HandleFunc("GET "+repo+"/namespaces", s.handleListNamespaces)
	mux.HandleFunc("DELETE "+repo+"/namespaces", s.handleClearNamespaces)
	mux.HandleFunc("PUT "+repo+"/namespaces/{prefix}", s.handleAddNamespace)
	mux.HandleFunc("DELETE "+repo+"/namespaces/{prefix}", s.handleDeleteNamespace)
	mux.HandleFunc("GET "+repo+"/functor", s.handleListFunctors)
	mux.HandleFunc("PUT "+repo+"/functor", s.handleDefineFunctor)

	mux.HandleFunc("GET "+repo+"/typeMapping", s.mappingLister(store.TypeMapping))
	mux.HandleFunc("POST "+repo+"/typeMapping", s.mappingAdder(store.TypeMapping))
	mux.HandleFunc("DELETE "+repo+"/typeMapping", s.mappingDeleter(store.TypeMapping))
	mux.HandleFunc("GET "+repo+"/predicateMapping", s.mappingLister(store.PredicateMapping))
	mux.HandleFunc("POST "+repo+"/predicateMapping", s.mappingAdder(store.PredicateMapping))
	mux.HandleFunc("DELETE "+repo+"/predicateMapping", s.mappingDeleter(store.PredicateMapping))
}

type listEntry struct {
	ID        string `json:"id"`
	URI       string `json:"uri"`
	Title     string `json:"title,omitempty"`
	Readable  bool   `json:"readable"`
	Writeable bool   `json:"writeable"`
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// handleListCatalogs lists the single root catalog.
func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []listEntry{{ID: "/", URI: baseURL(r), Readable: true, Writeable: true}})
}

// handleListRepositories lists repositories. Ids are quoted, as the
// protocol's listing format requires.
func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.store.ListRepositories(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	out := make([]listEntry, 0, len(repos))
	for _, repo := range repos {
		out = append(out, listEntry{
			ID:        quoteID(repo.Name),
			URI:       baseURL(r) + "/repositories/" + url.PathEscape(repo.Name),
			Title:     repo.Name,
			Readable:  true,
			Writeable: !repo.Federated,
		})
	}
	writeJSON(w, out)
}

var idEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteID wraps a repository name in double quotes, escaping only backslash
// and double quote. Every other character is passed through unchanged.
func quoteID(name string) string {
	return `"` + idEscaper.Replace(name) + `"`
}

func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("repo")
	members := r.URL.Query()["federate"]

	err := s.store.CreateRepository(r.Context(), name, members)
	if errors.Is(err, store.ErrExists) {
		sendError(w, http.StatusConflict, fmt.Sprintf("There is already a repository named %s.", name))
		return
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("repository created", "name", name, "members", len(members))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("repo")
	if err := s.store.DeleteRepository(r.Context(), name); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("repository deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Size(r.Context(), r.PathValue("repo"), contextParams(r.URL.Query()["context"]))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, n)
}

func (s *Server) handleContexts(w http.ResponseWriter, r *http.Request) {
	contexts, err := s.store.ListContexts(r.Context(), r.PathValue("repo"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	type entry struct {
		ContextID string `json:"contextID"`
	}
	out := make([]entry, len(contexts))
	for i, c := range contexts {
		out[i] = entry{ContextID: c}
	}
	writeJSON(w, out)
}

func (s *Server) handleWriteable(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.IsWriteable(r.Context(), r.PathValue("repo"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, ok)
}

// errLimitReached stops statement iteration once a query limit is met.
var errLimitReached = errors.New("limit reached")

type selectResult struct {
	Names  []string `json:"names"`
	Values []any    `json:"values"`
}

// handleQuery evaluates a SPARQL query from the query string or a form body.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	form := r.Form
	repo := r.PathValue("repo")

	if lang := form.Get("queryLn"); lang != "" && !strings.EqualFold(lang, "sparql") {
		sendError(w, http.StatusBadRequest, lang+" not supported by sandbox")
		return
	}
	text := form.Get("query")
	if text == "" {
		sendError(w, http.StatusBadRequest, "missing query parameter")
		return
	}
	if env := form.Get("environment"); env != "" {
		if err := s.store.RequireEnvironment(r.Context(), repo, env); err != nil {
			s.storeError(w, r, err)
			return
		}
	}

	q, err := s.parseQuery(text)
	if err != nil {
		sendError(w, http.StatusBadRequest, "MALFORMED QUERY: "+err.Error())
		return
	}
	for _, b := range form["bind"] {
		name, value, ok := strings.Cut(b, " ")
		if !ok || name == "" || value == "" {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("bad binding %q, want \"var term\"", b))
			return
		}
		q.bind(name, value)
	}

	pattern := q.where.storePattern()
	pattern.Contexts = contextParams(form["context"])

	switch q.form {
	case formAsk:
		found := false
		err := s.store.EachStatement(r.Context(), repo, pattern, func(st store.Statement) error {
			if _, ok := q.where.match(st); ok {
				found = true
				return errLimitReached
			}
			return nil
		})
		if err != nil && !errors.Is(err, errLimitReached) {
			s.storeError(w, r, err)
			return
		}
		writeJSON(w, found)

	case formSelect:
		s.answerSelect(w, r, repo, q, pattern)

	default:
		s.answerGraph(w, r, repo, q, pattern)
	}
}

// parseQuery returns a private copy of the parsed query, so bindings can be
// applied without touching the cached form.
func (s *Server) parseQuery(text string) (*sparqlQuery, error) {
	if cached, ok := s.queries.Get(text); ok {
		return &cached, nil
	}
	q, err := parseQuery(text)
	if err != nil {
		return nil, err
	}
	s.queries.Put(text, *q)
	cp := *q
	return &cp, nil
}

func (s *Server) answerSelect(w http.ResponseWriter, r *http.Request, repo string, q *sparqlQuery, pattern store.Pattern) {
	names := q.names()
	rw := newRowWriter(w, r)
	seen := map[string]bool{}
	count := 0

	err := s.store.EachStatement(r.Context(), repo, pattern, func(st store.Statement) error {
		binding, ok := q.where.match(st)
		if !ok {
			return nil
		}
		row := make([]any, len(names))
		for i, name := range names {
			if v, ok := q.value(binding, name); ok {
				row[i] = v
			}
		}
		if q.distinct {
			key := fmt.Sprint(row...)
			if seen[key] {
				return nil
			}
			seen[key] = true
		}
		if err := rw.write(row); err != nil {
			return err
		}
		count++
		if q.limit > 0 && count >= q.limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		rw.fail(s, r, err)
		return
	}

	if rw.stream {
		rw.finish()
		return
	}
	writeJSON(w, selectResult{Names: names, Values: rw.rows})
}

// answerGraph serves construct and describe queries as statement rows.
func (s *Server) answerGraph(w http.ResponseWriter, r *http.Request, repo string, q *sparqlQuery, pattern store.Pattern) {
	rw := newRowWriter(w, r)
	seen := map[store.Statement]bool{}
	count := 0

	err := s.store.EachStatement(r.Context(), repo, pattern, func(st store.Statement) error {
		binding, ok := q.where.match(st)
		if !ok {
			return nil
		}
		var out store.Statement
		if q.form == formDescribe {
			out = st
		} else if out, ok = q.template.instantiate(binding); !ok {
			return nil
		}
		if seen[out] {
			return nil
		}
		seen[out] = true

		row := quadRow(out)
		if q.form == formConstruct {
			row = row[:3]
		}
		if err := rw.write(row); err != nil {
			return err
		}
		count++
		if q.limit > 0 && count >= q.limit {
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
