// ABOUTME: Environment and namespace management for a repository
// ABOUTME: Namespace calls are scoped to the repository's current environment

package agclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ListEnvironments returns the environment names of the repository.
func (r *Repository) ListEnvironments(ctx context.Context) ([]string, error) {
	var envs []string
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/environments", nil, "", &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// CreateEnvironment creates an environment and returns its name. With an
// empty name the server picks one.
func (r *Repository) CreateEnvironment(ctx context.Context, name string) (string, error) {
	p := new(Params).Set("name", name)
	var created string
	if err := r.conn.doJSON(ctx, http.MethodPost, withQuery(r.url+"/environments", p), nil, "", &created); err != nil {
		return "", err
	}
	return created, nil
}

// DeleteEnvironment deletes an environment. If it is the current environment
// the repository falls back to the default.
func (r *Repository) DeleteEnvironment(ctx context.Context, name string) error {
	p := new(Params).Set("name", name)
	if err := r.conn.doNull(ctx, http.MethodDelete, withQuery(r.url+"/environments", p), nil, ""); err != nil {
		return err
	}
	if r.environment == name {
		r.environment = ""
	}
	return nil
}

// Namespace is a prefix declaration.
type Namespace struct {
	Prefix string `json:"prefix"`
	URI    string `json:"namespace"`
}

func (r *Repository) envParams() *Params {
	return new(Params).Set("environment", r.environment)
}

// ListNamespaces returns the prefixes declared in the current environment.
func (r *Repository) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	data, err := r.conn.doRaw(ctx, http.MethodGet, withQuery(r.url+"/namespaces", r.envParams()), nil, "")
	if err != nil {
		return nil, err
	}
	return parseNamespaces(data)
}

// parseNamespaces reads a listing of {prefix, namespace} objects. Entries
// without a prefix are skipped.
func parseNamespaces(data []byte) ([]Namespace, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decoding namespaces: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, fmt.Errorf("decoding namespaces: expected array, got %s", res.Type)
	}
	out := []Namespace{}
	res.ForEach(func(_, item gjson.Result) bool {
		prefix := item.Get("prefix")
		if prefix.Exists() {
			out = append(out, Namespace{Prefix: prefix.String(), URI: item.Get("namespace").String()})
		}
		return true
	})
	return out, nil
}

// ClearNamespaces removes every prefix from the current environment.
func (r *Repository) ClearNamespaces(ctx context.Context) error {
	return r.conn.doNull(ctx, http.MethodDelete, withQuery(r.url+"/namespaces", r.envParams()), nil, "")
}

// AddNamespace declares prefix for uri in the current environment.
func (r *Repository) AddNamespace(ctx context.Context, prefix, uri string) error {
	u := withQuery(r.url+"/namespaces/"+url.PathEscape(prefix), r.envParams())
	return r.conn.doNull(ctx, http.MethodPut, u, strings.NewReader(uri), mimeText)
}

// DeleteNamespace removes prefix from the current environment.
func (r *Repository) DeleteNamespace(ctx context.Context, prefix string) error {
	u := withQuery(r.url+"/namespaces/"+url.PathEscape(prefix), r.envParams())
	return r.conn.doNull(ctx, http.MethodDelete, u, nil, "")
}
