// ABOUTME: Tests that facade operations issue the expected HTTP requests
// ABOUTME: Checks method, path, query, body and the repository-exists policy

package agclient

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, status int, body string) (*recordingServer, *Repository) {
	t.Helper()
	rs := newRecordingServer(t, status, body)
	repo := NewServer(NewConn(), rs.URL).OpenCatalog("").Repository("test")
	return rs, repo
}

func TestRepository_RequestShapes(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		call        func(ctx context.Context, r *Repository) error
		method      string
		path        string
		query       string
		body        string
		contentType string
	}{
		{
			name:     "size",
			response: "3",
			call: func(ctx context.Context, r *Repository) error {
				n, err := r.Size(ctx, NoContext())
				if err == nil && n != 3 {
					return errors.New("wrong size")
				}
				return err
			},
			method: http.MethodGet,
			path:   "/repositories/test/size",
		},
		{
			name:     "size of default graph",
			response: "0",
			call: func(ctx context.Context, r *Repository) error {
				_, err := r.Size(ctx, SingleContext("null"))
				return err
			},
			method: http.MethodGet,
			path:   "/repositories/test/size",
			query:  "context=null",
		},
		{
			name:     "add statement",
			response: "",
			call: func(ctx context.Context, r *Repository) error {
				return r.AddStatement(ctx, NewQuad("<s>", "<p>", `"55"^^<http://www.w3.org/2001/XMLSchema#int>`, "<http://foo.com>"))
			},
			method:      http.MethodPost,
			path:        "/repositories/test/statements",
			body:        `[["<s>","<p>","\"55\"^^<http://www.w3.org/2001/XMLSchema#int>","<http://foo.com>"]]`,
			contentType: mimeJSON,
		},
		{
			name: "delete matching",
			call: func(ctx context.Context, r *Repository) error {
				return r.DeleteMatchingStatements(ctx, &StatementPattern{Subject: "<s>"})
			},
			method: http.MethodDelete,
			path:   "/repositories/test/statements",
			query:  "subj=%3Cs%3E",
		},
		{
			name: "delete exact",
			call: func(ctx context.Context, r *Repository) error {
				return r.DeleteStatements(ctx, []Quad{NewQuad("<s>", "<p>", "<o>", "")})
			},
			method:      http.MethodPost,
			path:        "/repositories/test/statements/delete",
			body:        `[["<s>","<p>","<o>",null]]`,
			contentType: mimeJSON,
		},
		{
			name: "load ntriples into context",
			call: func(ctx context.Context, r *Repository) error {
				return r.LoadData(ctx, "<a> <b> <c> .\n", FormatNTriples, &LoadOptions{Context: "<g>"})
			},
			method:      http.MethodPost,
			path:        "/repositories/test/statements",
			query:       "context=%3Cg%3E",
			body:        "<a> <b> <c> .\n",
			contentType: "text/plain",
		},
		{
			name: "server side load",
			call: func(ctx context.Context, r *Repository) error {
				return r.LoadFile(ctx, "/data/kennedy.rdf", FormatRDFXML, &LoadFileOptions{ServerSide: true})
			},
			method:      http.MethodPost,
			path:        "/repositories/test/statements",
			query:       "file=%2Fdata%2Fkennedy.rdf",
			contentType: "application/rdf+xml",
		},
		{
			name:     "blank nodes",
			response: `["_:b1","_:b2"]`,
			call: func(ctx context.Context, r *Repository) error {
				ids, err := r.GetBlankNodes(ctx, 2)
				if err == nil && len(ids) != 2 {
					return errors.New("wrong blank node count")
				}
				return err
			},
			method: http.MethodPost,
			path:   "/repositories/test/blankNodes",
			query:  "amount=2",
		},
		{
			name:     "sparql",
			response: "true",
			call: func(ctx context.Context, r *Repository) error {
				_, err := r.EvalSparqlQuery(ctx, "ask {?s ?p ?o}", nil)
				return err
			},
			method: http.MethodGet,
			path:   "/repositories/test",
			query:  "query=ask+%7B%3Fs+%3Fp+%3Fo%7D&infer=false",
		},
		{
			name:     "prolog",
			response: `{"names":["x"],"values":[]}`,
			call: func(ctx context.Context, r *Repository) error {
				_, err := r.EvalPrologQuery(ctx, "(select (?x) (q ?x ?p ?o))", &PrologOptions{Infer: true})
				return err
			},
			method: http.MethodPost,
			path:   "/repositories/test",
			query:  "query=%28select+%28%3Fx%29+%28q+%3Fx+%3Fp+%3Fo%29%29&infer=true&queryLn=prolog",
		},
		{
			name: "functor",
			call: func(ctx context.Context, r *Repository) error {
				return r.DefinePrologFunctor(ctx, "(<-- (female ?x) (q ?x !ex:sex !ex:female))")
			},
			method:      http.MethodPut,
			path:        "/repositories/test/functor",
			body:        "(<-- (female ?x) (q ?x !ex:sex !ex:female))",
			contentType: mimeText,
		},
		{
			name: "add namespace",
			call: func(ctx context.Context, r *Repository) error {
				return r.AddNamespace(ctx, "ex", "http://example.org/")
			},
			method:      http.MethodPut,
			path:        "/repositories/test/namespaces/ex",
			body:        "http://example.org/",
			contentType: mimeText,
		},
		{
			name:     "list contexts",
			response: `[{"contextID":"<http://foo.com>"}]`,
			call: func(ctx context.Context, r *Repository) error {
				got, err := r.ListContexts(ctx)
				if err == nil && (len(got) != 1 || got[0] != "<http://foo.com>") {
					return errors.New("wrong contexts")
				}
				return err
			},
			method: http.MethodGet,
			path:   "/repositories/test/contexts",
		},
		{
			name: "add index",
			call: func(ctx context.Context, r *Repository) error {
				return r.AddIndex(ctx, "gospi")
			},
			method: http.MethodPut,
			path:   "/repositories/test/indices/gospi",
		},
		{
			name: "triple threshold",
			call: func(ctx context.Context, r *Repository) error {
				return r.SetIndexingTripleThreshold(ctx, 1000)
			},
			method:      http.MethodPut,
			path:        "/repositories/test/indexing/tripleTreshold",
			body:        "1000",
			contentType: mimeText,
		},
		{
			name:     "free text search",
			response: `[["<s>","<p>","\"foo bar\"",null]]`,
			call: func(ctx context.Context, r *Repository) error {
				_, err := r.EvalFreeTextSearch(ctx, "foo*", nil)
				return err
			},
			method: http.MethodGet,
			path:   "/repositories/test/freetext",
			query:  "pattern=foo%2A&infer=false",
		},
		{
			name: "map type",
			call: func(ctx context.Context, r *Repository) error {
				return r.AddMappedType(ctx, "<"+XSDInt+">", "int")
			},
			method: http.MethodPost,
			path:   "/repositories/test/typeMapping",
			query:  "type=%3Chttp%3A%2F%2Fwww.w3.org%2F2001%2FXMLSchema%23int%3E&primitiveType=int",
		},
		{
			name:     "create environment",
			response: `"e1"`,
			call: func(ctx context.Context, r *Repository) error {
				name, err := r.CreateEnvironment(ctx, "e1")
				if err == nil && name != "e1" {
					return errors.New("wrong environment")
				}
				return err
			},
			method: http.MethodPost,
			path:   "/repositories/test/environments",
			query:  "name=e1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, repo := newTestRepository(t, http.StatusOK, tt.response)
			require.NoError(t, tt.call(context.Background(), repo))

			got := rs.last(t)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.query, got.RawQuery)
			assert.Equal(t, tt.body, got.Body)
			assert.Equal(t, tt.contentType, got.ContentType)
		})
	}
}

func TestRepository_EnvironmentAppliesToLaterCalls(t *testing.T) {
	rs, repo := newTestRepository(t, http.StatusOK, `[]`)
	ctx := context.Background()

	repo.SetEnvironment("env1")
	assert.Equal(t, "env1", repo.Environment())

	_, err := repo.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, "environment=env1", rs.last(t).RawQuery)

	rs.respond(http.StatusOK, `{"names":[],"values":[]}`)
	_, err = repo.EvalSparqlQuery(ctx, "select ?x {?x ?y ?z}", nil)
	require.NoError(t, err)
	assert.Equal(t, "query=select+%3Fx+%7B%3Fx+%3Fy+%3Fz%7D&infer=false&environment=env1", rs.last(t).RawQuery)

	rs.respond(http.StatusOK, "")
	require.NoError(t, repo.DeleteEnvironment(ctx, "env1"))
	assert.Equal(t, "", repo.Environment())

	rs.respond(http.StatusOK, `[]`)
	_, err = repo.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", rs.last(t).RawQuery)
}

func TestRepository_ListNamespaces(t *testing.T) {
	_, repo := newTestRepository(t, http.StatusOK,
		`[{"prefix":"ex","namespace":"http://example.org/"},{"namespace":"http://orphan/"},{"prefix":"rdf","namespace":"http://www.w3.org/1999/02/22-rdf-syntax-ns#"}]`)

	nss, err := repo.ListNamespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Namespace{
		{Prefix: "ex", URI: "http://example.org/"},
		{Prefix: "rdf", URI: "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	}, nss)
}

func TestParseNamespaces_Rejects(t *testing.T) {
	_, err := parseNamespaces([]byte(`{"prefix":"ex"}`))
	assert.ErrorContains(t, err, "expected array")

	_, err = parseNamespaces([]byte(`[{`))
	assert.ErrorContains(t, err, "invalid JSON")

	nss, err := parseNamespaces([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, nss)
}

func TestRepository_LoadLocalFileUploadsContents(t *testing.T) {
	rs, repo := newTestRepository(t, http.StatusOK, "")
	path := filepath.Join(t.TempDir(), "data.nt")
	require.NoError(t, os.WriteFile(path, []byte("<a> <b> <c> .\n"), 0o644))

	require.NoError(t, repo.LoadFile(context.Background(), path, FormatNTriples, &LoadFileOptions{
		LoadOptions: LoadOptions{BaseURI: "http://base/"},
	}))
	got := rs.last(t)
	assert.Equal(t, "<a> <b> <c> .\n", got.Body)
	assert.Equal(t, "baseURI=http%3A%2F%2Fbase%2F", got.RawQuery)
}

func TestRepository_StreamStatements(t *testing.T) {
	rs, repo := newTestRepository(t, http.StatusOK, "[\"<a>\",\"<b>\",\"<c>\",null]\n[\"<d>\",\"<e>\",\"<f>\",\"<g>\"]\n")

	rows, err := repo.StreamStatements(context.Background(), &StatementFilter{Predicate: "<b>"})
	require.NoError(t, err)

	var quads []Quad
	require.NoError(t, rows.Each(func(row Row) error {
		q, err := row.Quad()
		quads = append(quads, q)
		return err
	}))
	assert.Equal(t, []Quad{
		NewQuad("<a>", "<b>", "<c>", ""),
		NewQuad("<d>", "<e>", "<f>", "<g>"),
	}, quads)
	assert.Equal(t, "pred=%3Cb%3E&infer=false", rs.last(t).RawQuery)
}

func TestCatalog_ListTripleStoresUnquotesIDs(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `[{"id":"\"test\"","uri":"http://x/repositories/test"},{"id":"\"other\""}]`)
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("/")

	got, err := cat.ListTripleStores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "other"}, got)
	assert.Equal(t, "/repositories", rs.last(t).Path)
}

func TestServer_ListCatalogs(t *testing.T) {
	for _, body := range []string{`["/","/people"]`, `[{"id":"/"},{"id":"/people"}]`} {
		rs := newRecordingServer(t, http.StatusOK, body)
		got, err := NewServer(NewConn(), rs.URL+"/").ListCatalogs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/", "/people"}, got)
		assert.Equal(t, "/catalogs", rs.last(t).Path)
	}

	rs := newRecordingServer(t, http.StatusOK, `{"not":"a list"}`)
	_, err := NewServer(NewConn(), rs.URL).ListCatalogs(context.Background())
	assert.Error(t, err)
}

func TestServer_OpenCatalogURLs(t *testing.T) {
	s := NewServer(NewConn(), "http://localhost:10035/")
	assert.Equal(t, "http://localhost:10035", s.URL())
	assert.Equal(t, "http://localhost:10035", s.OpenCatalog("").URL())
	assert.Equal(t, "http://localhost:10035", s.OpenCatalog("/").URL())
	assert.Equal(t, "http://localhost:10035/catalogs/people", s.OpenCatalog("/catalogs/people/").URL())
	assert.Equal(t, "http://localhost:10035/catalogs/people", s.OpenCatalog("people").URL())
	assert.Equal(t, "http://localhost:10035/catalogs/a%20b", s.OpenCatalog("a b").URL())
	assert.Equal(t, "http://localhost:10035/repositories/test", s.OpenCatalog("").Repository("test").URL())
}

func TestCatalog_CreateExistingIsConsistent(t *testing.T) {
	rs := newRecordingServer(t, http.StatusConflict, "repository test already exists")
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cat.CreateTripleStore(ctx, "test")
		require.ErrorIs(t, err, ErrRepositoryExists, "attempt %d", i)

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusConflict, reqErr.StatusCode)
	}
	assert.Equal(t, http.MethodPut, rs.last(t).Method)
	assert.Equal(t, "/repositories/test", rs.last(t).Path)
}

func TestCatalog_CreateExistingReportedAsBadRequest(t *testing.T) {
	rs := newRecordingServer(t, http.StatusBadRequest, "There is already a store named test.")
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("")

	err := cat.CreateTripleStore(context.Background(), "test")
	assert.ErrorIs(t, err, ErrRepositoryExists)
}

func TestCatalog_CreateOtherFailureIsNotExists(t *testing.T) {
	rs := newRecordingServer(t, http.StatusForbidden, "not allowed")
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("")

	err := cat.CreateTripleStore(context.Background(), "test")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRepositoryExists))

	created, err := cat.EnsureTripleStore(context.Background(), "test")
	assert.False(t, created)
	assert.Error(t, err)
}

func TestCatalog_EnsureTripleStore(t *testing.T) {
	rs := newRecordingServer(t, http.StatusNoContent, "")
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("")
	ctx := context.Background()

	created, err := cat.EnsureTripleStore(ctx, "test")
	require.NoError(t, err)
	assert.True(t, created)

	rs.respond(http.StatusConflict, "already exists")
	created, err = cat.EnsureTripleStore(ctx, "test")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCatalog_FederateAndDelete(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, "")
	cat := NewServer(NewConn(), rs.URL).OpenCatalog("")
	ctx := context.Background()

	require.NoError(t, cat.FederateTripleStores(ctx, "fed", []string{"a", "b"}))
	got := rs.last(t)
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/repositories/fed", got.Path)
	assert.Equal(t, "federate=a&federate=b", got.RawQuery)

	require.NoError(t, cat.DeleteTripleStore(ctx, "fed"))
	assert.Equal(t, http.MethodDelete, rs.last(t).Method)
}
