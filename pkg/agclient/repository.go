// ABOUTME: Repository facade: size, contexts, SPARQL and Prolog queries
// ABOUTME: Carries the current environment applied to query and namespace calls

package agclient

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// Repository is an access facade for one triple store. The current
// environment, once set, applies to every later query, Prolog and namespace
// operation issued through this value.
type Repository struct {
	conn        *Conn
	url         string
	environment string
}

// URL returns the repository base URL.
func (r *Repository) URL() string { return r.url }

// SetEnvironment selects the environment used by later calls. An empty name
// returns to the server's default environment.
func (r *Repository) SetEnvironment(name string) { r.environment = name }

// Environment returns the current environment name, "" for the default.
func (r *Repository) Environment() string { return r.environment }

// Size returns the number of statements, optionally restricted to contexts.
func (r *Repository) Size(ctx context.Context, contexts Contexts) (int64, error) {
	p := new(Params).Contexts("context", contexts)
	var n int64
	if err := r.conn.doJSON(ctx, http.MethodGet, withQuery(r.url+"/size", p), nil, "", &n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListContexts returns the named graphs present in the repository.
func (r *Repository) ListContexts(ctx context.Context) ([]string, error) {
	data, err := r.conn.doRaw(ctx, http.MethodGet, r.url+"/contexts", nil, "")
	if err != nil {
		return nil, err
	}
	return listNames(data, "contextID")
}

// IsWriteable reports whether the repository accepts modifications.
func (r *Repository) IsWriteable(ctx context.Context) (bool, error) {
	var ok bool
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/writeable", nil, "", &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// QueryOptions are the optional parameters of a SPARQL query.
type QueryOptions struct {
	// Infer enables server-side reasoning. Always sent.
	Infer bool
	// Contexts restricts the default graph of the dataset ("context").
	Contexts Contexts
	// NamedContexts lists the named graphs of the dataset ("namedContext").
	NamedContexts Contexts
	// Bindings pre-binds variables to terms, sent as "bind=var term" and
	// ordered by variable name. Keys may carry a leading "?" or "$".
	Bindings map[string]string
}

func (o *QueryOptions) params(query, environment string) *Params {
	if o == nil {
		o = &QueryOptions{}
	}
	p := new(Params).
		Set("query", query).
		Bool("infer", o.Infer).
		Contexts("context", o.Contexts).
		Contexts("namedContext", o.NamedContexts).
		Set("environment", environment)
	if len(o.Bindings) > 0 {
		p.List("bind", bindValues(o.Bindings))
	}
	return p
}

// bindValues renders bindings as "var term" pairs sorted by bare variable
// name. "?x", "$x" and "x" name one variable; the bare key wins a collision.
func bindValues(bindings map[string]string) []string {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	// Raw order puts "$x" and "?x" before "x", so the bare key is applied last.
	sort.Strings(keys)

	terms := make(map[string]string, len(keys))
	for _, k := range keys {
		terms[strings.TrimLeft(k, "?$")] = bindings[k]
	}
	vars := make([]string, 0, len(terms))
	for v := range terms {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v + " " + terms[v]
	}
	return out
}

// EvalSparqlQuery runs a SPARQL query and returns the complete answer: a
// boolean for ASK, names/values for SELECT, statements for CONSTRUCT and
// DESCRIBE.
func (r *Repository) EvalSparqlQuery(ctx context.Context, query string, opts *QueryOptions) (*QueryResult, error) {
	u := withQuery(r.url, opts.params(query, r.environment))
	data, err := r.conn.doRaw(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(data)
}

// StreamSparqlQuery runs a SELECT, CONSTRUCT or DESCRIBE query and returns its
// rows as they arrive. ASK queries have no rows; use EvalSparqlQuery.
func (r *Repository) StreamSparqlQuery(ctx context.Context, query string, opts *QueryOptions) (*Rows, error) {
	u := withQuery(r.url, opts.params(query, r.environment))
	return r.conn.doStream(ctx, http.MethodGet, u, nil, "")
}

// PrologOptions are the optional parameters of a Prolog query.
type PrologOptions struct {
	Infer bool
	// Limit caps the number of results; zero means no limit.
	Limit int
}

func (o *PrologOptions) params(query, environment string) *Params {
	if o == nil {
		o = &PrologOptions{}
	}
	p := new(Params).
		Set("query", query).
		Bool("infer", o.Infer).
		Set("queryLn", "prolog").
		Set("environment", environment)
	if o.Limit > 0 {
		p.Int("limit", int64(o.Limit))
	}
	return p
}

// EvalPrologQuery runs a Prolog select query and returns names/values.
func (r *Repository) EvalPrologQuery(ctx context.Context, query string, opts *PrologOptions) (*QueryResult, error) {
	u := withQuery(r.url, opts.params(query, r.environment))
	data, err := r.conn.doRaw(ctx, http.MethodPost, u, nil, "")
	if err != nil {
		return nil, err
	}
	return decodeQueryResult(data)
}

// StreamPrologQuery runs a Prolog query and returns its rows as they arrive.
func (r *Repository) StreamPrologQuery(ctx context.Context, query string, opts *PrologOptions) (*Rows, error) {
	u := withQuery(r.url, opts.params(query, r.environment))
	return r.conn.doStream(ctx, http.MethodPost, u, nil, "")
}

// DefinePrologFunctor stores a Prolog rule definition in the current
// environment.
func (r *Repository) DefinePrologFunctor(ctx context.Context, definition string) error {
	p := new(Params).Set("environment", r.environment)
	return r.conn.doNull(ctx, http.MethodPut, withQuery(r.url+"/functor", p),
		strings.NewReader(definition), mimeText)
}
