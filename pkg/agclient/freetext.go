// ABOUTME: Free-text index search and predicate registration
// ABOUTME: Searches return statements whose indexed objects match a pattern

package agclient

import (
	"context"
	"net/http"
)

// FreeTextOptions are the optional parameters of a free-text search.
type FreeTextOptions struct {
	Infer bool
}

func freeTextParams(pattern string, o *FreeTextOptions) *Params {
	if o == nil {
		o = &FreeTextOptions{}
	}
	return new(Params).Set("pattern", pattern).Bool("infer", o.Infer)
}

// EvalFreeTextSearch returns the statements whose free-text indexed objects
// match pattern.
func (r *Repository) EvalFreeTextSearch(ctx context.Context, pattern string, opts *FreeTextOptions) ([]Quad, error) {
	var quads []Quad
	u := withQuery(r.url+"/freetext", freeTextParams(pattern, opts))
	if err := r.conn.doJSON(ctx, http.MethodGet, u, nil, "", &quads); err != nil {
		return nil, err
	}
	return quads, nil
}

// StreamFreeTextSearch is EvalFreeTextSearch delivered as a row stream.
func (r *Repository) StreamFreeTextSearch(ctx context.Context, pattern string, opts *FreeTextOptions) (*Rows, error) {
	u := withQuery(r.url+"/freetext", freeTextParams(pattern, opts))
	return r.conn.doStream(ctx, http.MethodGet, u, nil, "")
}

// ListFreeTextPredicates returns the predicates whose objects are indexed.
func (r *Repository) ListFreeTextPredicates(ctx context.Context) ([]string, error) {
	var preds []string
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/freetextPredicates", nil, "", &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// RegisterFreeTextPredicate adds a predicate to free-text indexing.
func (r *Repository) RegisterFreeTextPredicate(ctx context.Context, predicate string) error {
	p := new(Params).Set("predicate", predicate)
	return r.conn.doNull(ctx, http.MethodPost, withQuery(r.url+"/freetextPredicates", p), nil, "")
}
