// ABOUTME: SPOGI index management and indexing control for a repository
// ABOUTME: Lists, registers and drops indices; reports and triggers indexing

package agclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListIndices returns the active index orderings, e.g. "spogi".
func (r *Repository) ListIndices(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/indices", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddIndex registers an index ordering.
func (r *Repository) AddIndex(ctx context.Context, kind string) error {
	return r.conn.doNull(ctx, http.MethodPut, r.url+"/indices/"+url.PathEscape(kind), nil, "")
}

// DeleteIndex drops an index ordering.
func (r *Repository) DeleteIndex(ctx context.Context, kind string) error {
	return r.conn.doNull(ctx, http.MethodDelete, r.url+"/indices/"+url.PathEscape(kind), nil, "")
}

// IndexCoverage returns the indexed proportion of the repository, 0 to 1.
func (r *Repository) IndexCoverage(ctx context.Context) (float64, error) {
	var f float64
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/indexing", nil, "", &f); err != nil {
		return 0, err
	}
	return f, nil
}

// IndexStatements indexes unindexed statements, or the whole repository when
// all is true.
func (r *Repository) IndexStatements(ctx context.Context, all bool) error {
	p := new(Params).Bool("all", all)
	return r.conn.doNull(ctx, http.MethodPost, withQuery(r.url+"/indexing", p), nil, "")
}

// SetIndexingTripleThreshold sets the unindexed-triple count that triggers
// background indexing. Zero disables the trigger.
func (r *Repository) SetIndexingTripleThreshold(ctx context.Context, size int) error {
	return r.setThreshold(ctx, "tripleTreshold", size)
}

// SetIndexingChunkThreshold sets the unindexed-chunk count that triggers
// background indexing. Zero disables the trigger.
func (r *Repository) SetIndexingChunkThreshold(ctx context.Context, size int) error {
	return r.setThreshold(ctx, "chunkTreshold", size)
}

// setThreshold writes one of the indexing thresholds. The path spelling
// ("Treshold") is the server's.
func (r *Repository) setThreshold(ctx context.Context, name string, size int) error {
	if size < 0 {
		size = 0
	}
	return r.conn.doNull(ctx, http.MethodPut, r.url+"/indexing/"+name,
		strings.NewReader(strconv.Itoa(size)), mimeText)
}
