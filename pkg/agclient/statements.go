// ABOUTME: Statement retrieval, insertion, deletion and document loading
// ABOUTME: Quads go out as JSON arrays; RDF documents go out as raw bodies

package agclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// StatementFilter constrains GetStatements. Empty terms match anything. A
// non-empty *End field turns the matching term into an inclusive range.
type StatementFilter struct {
	Subject      string
	SubjectEnd   string
	Predicate    string
	PredicateEnd string
	Object       string
	ObjectEnd    string
	Contexts     Contexts
	Infer        bool
}

func (f *StatementFilter) params() *Params {
	if f == nil {
		f = &StatementFilter{}
	}
	return new(Params).
		Set("subj", f.Subject).
		Set("subjEnd", f.SubjectEnd).
		Set("pred", f.Predicate).
		Set("predEnd", f.PredicateEnd).
		Set("obj", f.Object).
		Set("objEnd", f.ObjectEnd).
		Contexts("context", f.Contexts).
		Bool("infer", f.Infer)
}

// GetStatements returns every statement matching f. A nil filter matches all.
func (r *Repository) GetStatements(ctx context.Context, f *StatementFilter) ([]Quad, error) {
	var quads []Quad
	u := withQuery(r.url+"/statements", f.params())
	if err := r.conn.doJSON(ctx, http.MethodGet, u, nil, "", &quads); err != nil {
		return nil, err
	}
	return quads, nil
}

// StreamStatements returns the statements matching f as a row stream. Use
// Row.Quad to convert rows.
func (r *Repository) StreamStatements(ctx context.Context, f *StatementFilter) (*Rows, error) {
	u := withQuery(r.url+"/statements", f.params())
	return r.conn.doStream(ctx, http.MethodGet, u, nil, "")
}

// AddStatement adds a single statement.
func (r *Repository) AddStatement(ctx context.Context, q Quad) error {
	return r.AddStatements(ctx, []Quad{q})
}

// AddStatements adds a batch of statements in one request.
func (r *Repository) AddStatements(ctx context.Context, quads []Quad) error {
	body, err := jsonBody(quads)
	if err != nil {
		return err
	}
	return r.conn.doNull(ctx, http.MethodPost, r.url+"/statements", body, mimeJSON)
}

// StatementPattern selects statements for DeleteMatchingStatements. Empty
// terms match anything.
type StatementPattern struct {
	Subject   string
	Predicate string
	Object    string
	Contexts  Contexts
}

func (sp *StatementPattern) params() *Params {
	if sp == nil {
		sp = &StatementPattern{}
	}
	return new(Params).
		Set("subj", sp.Subject).
		Set("pred", sp.Predicate).
		Set("obj", sp.Object).
		Contexts("context", sp.Contexts)
}

// DeleteMatchingStatements deletes every statement matching sp. A nil
// pattern deletes everything.
func (r *Repository) DeleteMatchingStatements(ctx context.Context, sp *StatementPattern) error {
	return r.conn.doNull(ctx, http.MethodDelete, withQuery(r.url+"/statements", sp.params()), nil, "")
}

// DeleteStatements deletes exactly the given statements.
func (r *Repository) DeleteStatements(ctx context.Context, quads []Quad) error {
	body, err := jsonBody(quads)
	if err != nil {
		return err
	}
	return r.conn.doNull(ctx, http.MethodPost, r.url+"/statements/delete", body, mimeJSON)
}

// LoadOptions are the optional parameters of LoadData.
type LoadOptions struct {
	// BaseURI resolves relative IRIs in the document.
	BaseURI string
	// Context places every loaded statement in this graph.
	Context string
}

func (o *LoadOptions) params() *Params {
	if o == nil {
		o = &LoadOptions{}
	}
	return new(Params).
		Set("context", o.Context).
		Set("baseURI", o.BaseURI)
}

// LoadData uploads an RDF document held in memory. format must be
// FormatNTriples or FormatRDFXML; anything else fails before any request.
func (r *Repository) LoadData(ctx context.Context, data, format string, opts *LoadOptions) error {
	mime, err := CheckFormat(format)
	if err != nil {
		return err
	}
	u := withQuery(r.url+"/statements", opts.params())
	return r.conn.doNull(ctx, http.MethodPost, u, strings.NewReader(data), mime)
}

// LoadFileOptions are the optional parameters of LoadFile.
type LoadFileOptions struct {
	LoadOptions
	// ServerSide makes the server read path from its own file system instead
	// of uploading the local file.
	ServerSide bool
}

// LoadFile loads an RDF document from a file. The format is checked before
// the file is opened.
func (r *Repository) LoadFile(ctx context.Context, path, format string, opts *LoadFileOptions) error {
	mime, err := CheckFormat(format)
	if err != nil {
		return err
	}
	if opts == nil {
		opts = &LoadFileOptions{}
	}

	p := new(Params)
	var body io.Reader
	if opts.ServerSide {
		p.Set("file", path)
		body = strings.NewReader("")
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		body = f
	}
	p.Set("context", opts.Context).Set("baseURI", opts.BaseURI)

	return r.conn.doNull(ctx, http.MethodPost, withQuery(r.url+"/statements", p), body, mime)
}

// GetBlankNodes asks the server to allocate amount fresh blank node ids.
func (r *Repository) GetBlankNodes(ctx context.Context, amount int) ([]string, error) {
	if amount < 1 {
		amount = 1
	}
	p := new(Params).Int("amount", int64(amount))
	var ids []string
	if err := r.conn.doJSON(ctx, http.MethodPost, withQuery(r.url+"/blankNodes", p), nil, "", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
