// ABOUTME: Query result shapes: boolean, names/values bindings, statement lists
// ABOUTME: Decodes a raw JSON response by inspecting its leading token

package agclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one decoded result row. Bound terms are strings; unbound or null
// entries are nil.
type Row []any

// Term returns the i-th entry as a string, or "" when it is missing, null or
// not a string.
func (r Row) Term(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	s, _ := r[i].(string)
	return s
}

// Strings returns every entry via Term.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i := range r {
		out[i] = r.Term(i)
	}
	return out
}

// Quad interprets r as a statement row [s, p, o] or [s, p, o, g].
func (r Row) Quad() (Quad, error) {
	if len(r) != 3 && len(r) != 4 {
		return Quad{}, fmt.Errorf("statement row has %d terms, want 3 or 4", len(r))
	}
	return Quad{Subject: r.Term(0), Predicate: r.Term(1), Object: r.Term(2), Context: r.Term(3)}, nil
}

// ResultKind tells which fields of a QueryResult are populated.
type ResultKind uint8

const (
	// ResultBoolean is the answer to an ASK query.
	ResultBoolean ResultKind = iota
	// ResultBindings is a SELECT result: Names plus Values.
	ResultBindings
	// ResultStatements is a CONSTRUCT or DESCRIBE result.
	ResultStatements
)

func (k ResultKind) String() string {
	switch k {
	case ResultBoolean:
		return "boolean"
	case ResultBindings:
		return "bindings"
	case ResultStatements:
		return "statements"
	default:
		return "unknown"
	}
}

// QueryResult is a materialized query answer.
type QueryResult struct {
	Kind       ResultKind
	Boolean    bool
	Names      []string
	Values     []Row
	Statements []Quad
}

type bindingsJSON struct {
	Names  []string `json:"names"`
	Values []Row    `json:"values"`
}

// decodeQueryResult picks the result shape from the first JSON token.
func decodeQueryResult(data []byte) (*QueryResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decoding query result: empty response")
	}

	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return nil, fmt.Errorf("decoding boolean result: %w", err)
		}
		return &QueryResult{Kind: ResultBoolean, Boolean: b}, nil
	case '{':
		var bj bindingsJSON
		if err := json.Unmarshal(trimmed, &bj); err != nil {
			return nil, fmt.Errorf("decoding bindings result: %w", err)
		}
		return &QueryResult{Kind: ResultBindings, Names: bj.Names, Values: bj.Values}, nil
	case '[':
		var quads []Quad
		if err := json.Unmarshal(trimmed, &quads); err != nil {
			return nil, fmt.Errorf("decoding statement result: %w", err)
		}
		return &QueryResult{Kind: ResultStatements, Statements: quads}, nil
	default:
		return nil, fmt.Errorf("decoding query result: unexpected leading %q", trimmed[0])
	}
}
