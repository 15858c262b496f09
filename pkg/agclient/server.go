// ABOUTME: Server and Catalog facades: catalog listing and repository lifecycle
// ABOUTME: Builds catalog and repository URLs over a shared Conn

package agclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Server is the root facade for one server base URL.
type Server struct {
	conn *Conn
	url  string
}

// NewServer returns a facade for the server at serverURL.
func NewServer(conn *Conn, serverURL string) *Server {
	return &Server{conn: conn, url: strings.TrimRight(serverURL, "/")}
}

// URL returns the server base URL.
func (s *Server) URL() string { return s.url }

// ListCatalogs returns the catalog names known to the server. The root
// catalog is "/".
func (s *Server) ListCatalogs(ctx context.Context) ([]string, error) {
	data, err := s.conn.doRaw(ctx, http.MethodGet, s.url+"/catalogs", nil, "")
	if err != nil {
		return nil, err
	}
	return listNames(data, "id")
}

// OpenCatalog returns a facade for the named catalog. Names starting with "/"
// (as returned by ListCatalogs) are appended to the server URL as-is; bare
// names are placed under /catalogs/.
func (s *Server) OpenCatalog(name string) *Catalog {
	var u string
	switch {
	case name == "" || name == "/":
		u = s.url
	case strings.HasPrefix(name, "/"):
		u = s.url + strings.TrimRight(name, "/")
	default:
		u = s.url + "/catalogs/" + url.PathEscape(name)
	}
	return &Catalog{conn: s.conn, url: u}
}

// Catalog is a named collection of repositories on a server.
type Catalog struct {
	conn *Conn
	url  string
}

// URL returns the catalog base URL.
func (c *Catalog) URL() string { return c.url }

func (c *Catalog) repoURL(name string) string {
	return c.url + "/repositories/" + url.PathEscape(name)
}

// ListTripleStores returns the names of the repositories in the catalog.
func (c *Catalog) ListTripleStores(ctx context.Context) ([]string, error) {
	data, err := c.conn.doRaw(ctx, http.MethodGet, c.url+"/repositories", nil, "")
	if err != nil {
		return nil, err
	}
	ids, err := listNames(data, "id")
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		ids[i] = unquoteID(id)
	}
	return ids, nil
}

// CreateTripleStore asks the server to create a repository. Creating a name
// that already exists fails with an error matching ErrRepositoryExists, no
// matter how often it is repeated.
func (c *Catalog) CreateTripleStore(ctx context.Context, name string) error {
	err := c.conn.doNull(ctx, http.MethodPut, c.repoURL(name), nil, "")
	return classifyCreate(err)
}

// EnsureTripleStore creates the repository unless it already exists. It
// reports whether a new repository was created.
func (c *Catalog) EnsureTripleStore(ctx context.Context, name string) (bool, error) {
	err := c.CreateTripleStore(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRepositoryExists):
		return false, nil
	default:
		return false, err
	}
}

// FederateTripleStores creates a federated repository over existing ones.
func (c *Catalog) FederateTripleStores(ctx context.Context, name string, stores []string) error {
	p := new(Params).List("federate", stores)
	err := c.conn.doNull(ctx, http.MethodPut, withQuery(c.repoURL(name), p), nil, "")
	return classifyCreate(err)
}

// DeleteTripleStore deletes a repository on the server.
func (c *Catalog) DeleteTripleStore(ctx context.Context, name string) error {
	return c.conn.doNull(ctx, http.MethodDelete, c.repoURL(name), nil, "")
}

// Repository returns an access facade for a repository. No request is made;
// the repository need not exist yet.
func (c *Catalog) Repository(name string) *Repository {
	return &Repository{conn: c.conn, url: c.repoURL(name)}
}

// classifyCreate maps the server's "name taken" answer onto
// ErrRepositoryExists, keeping the RequestError reachable.
func classifyCreate(err error) error {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return err
	}
	if reqErr.StatusCode == http.StatusConflict ||
		strings.Contains(strings.ToLower(reqErr.Body), "already") {
		return fmt.Errorf("%w: %w", ErrRepositoryExists, reqErr)
	}
	return err
}

// listNames reads a JSON array whose entries are either strings or objects
// carrying the name under field.
func listNames(data []byte, field string) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decoding listing: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, fmt.Errorf("decoding listing: expected array, got %s", res.Type)
	}
	items := res.Array()
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			names = append(names, item.Get(field).String())
			continue
		}
		names = append(names, item.String())
	}
	return names, nil
}
