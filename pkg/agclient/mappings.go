// ABOUTME: Datatype and predicate mappings onto server primitive types
// ABOUTME: Lists, adds and removes typeMapping and predicateMapping entries

package agclient

import (
	"context"
	"net/http"
)

// TypeMapping maps a datatype IRI onto a primitive type such as "int".
type TypeMapping struct {
	Type          string `json:"type"`
	PrimitiveType string `json:"primitiveType"`
}

// PredicateMapping maps every object of a predicate onto a primitive type.
type PredicateMapping struct {
	Predicate     string `json:"predicate"`
	PrimitiveType string `json:"primitiveType"`
}

// ListMappedTypes returns the datatype mappings.
func (r *Repository) ListMappedTypes(ctx context.Context) ([]TypeMapping, error) {
	var out []TypeMapping
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/typeMapping", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMappedType maps datatype onto primitiveType.
func (r *Repository) AddMappedType(ctx context.Context, datatype, primitiveType string) error {
	p := new(Params).Set("type", datatype).Set("primitiveType", primitiveType)
	return r.conn.doNull(ctx, http.MethodPost, withQuery(r.url+"/typeMapping", p), nil, "")
}

// DeleteMappedType removes the mapping for datatype.
func (r *Repository) DeleteMappedType(ctx context.Context, datatype string) error {
	p := new(Params).Set("type", datatype)
	return r.conn.doNull(ctx, http.MethodDelete, withQuery(r.url+"/typeMapping", p), nil, "")
}

// ListMappedPredicates returns the predicate mappings.
func (r *Repository) ListMappedPredicates(ctx context.Context) ([]PredicateMapping, error) {
	var out []PredicateMapping
	if err := r.conn.doJSON(ctx, http.MethodGet, r.url+"/predicateMapping", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMappedPredicate maps the objects of predicate onto primitiveType.
func (r *Repository) AddMappedPredicate(ctx context.Context, predicate, primitiveType string) error {
	p := new(Params).Set("predicate", predicate).Set("primitiveType", primitiveType)
	return r.conn.doNull(ctx, http.MethodPost, withQuery(r.url+"/predicateMapping", p), nil, "")
}

// DeleteMappedPredicate removes the mapping for predicate.
func (r *Repository) DeleteMappedPredicate(ctx context.Context, predicate string) error {
	p := new(Params).Set("predicate", predicate)
	return r.conn.doNull(ctx, http.MethodDelete, withQuery(r.url+"/predicateMapping", p), nil, "")
}
