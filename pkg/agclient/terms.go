// ABOUTME: Statement (quad) type and N-Triples term construction helpers
// ABOUTME: Quads travel as 4-element JSON arrays with a null default-graph context

package agclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quad is one statement. Terms use N-Triples syntax: "<http://ex/a>",
// "\"text\"", "\"55\"^^<http://www.w3.org/2001/XMLSchema#int>", "_:b1".
// An empty Context is the default graph.
type Quad struct {
	Subject   string
	Predicate string
	Object    string
	Context   string
}

// NewQuad builds a quad from already-encoded terms.
func NewQuad(subject, predicate, object, context string) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object, Context: context}
}

// MarshalJSON encodes q as [s, p, o, g] with g null for the default graph.
func (q Quad) MarshalJSON() ([]byte, error) {
	var ctx *string
	if q.Context != "" {
		ctx = &q.Context
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]*string{&q.Subject, &q.Predicate, &q.Object, ctx}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts [s, p, o] or [s, p, o, g|null].
func (q *Quad) UnmarshalJSON(data []byte) error {
	var parts []*string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("decoding statement: %w", err)
	}
	if len(parts) != 3 && len(parts) != 4 {
		return fmt.Errorf("decoding statement: want 3 or 4 terms, got %d", len(parts))
	}
	get := func(i int) string {
		if i >= len(parts) || parts[i] == nil {
			return ""
		}
		return *parts[i]
	}
	*q = Quad{Subject: get(0), Predicate: get(1), Object: get(2), Context: get(3)}
	return nil
}

// String renders q as an N-Quads line without the trailing newline.
func (q Quad) String() string {
	if q.Context == "" {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Context)
}

// URI encodes an IRI term. An empty iri yields "", which in a Quad context
// means the default graph.
func URI(iri string) string {
	if iri == "" {
		return ""
	}
	return "<" + iri + ">"
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// Literal encodes a plain literal, escaping quotes and backslashes.
func Literal(lexical string) string {
	return `"` + literalEscaper.Replace(lexical) + `"`
}

// TypedLiteral encodes a literal with a datatype IRI.
func TypedLiteral(lexical, datatype string) string {
	return Literal(lexical) + "^^" + URI(datatype)
}

// LangLiteral encodes a language-tagged literal.
func LangLiteral(lexical, lang string) string {
	return Literal(lexical) + "@" + lang
}

// XSD datatype IRIs used by the tutorials.
const (
	XSDInt     = "http://www.w3.org/2001/XMLSchema#int"
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

var idUnescaper = strings.NewReplacer(`\"`, `"`, `\\`, `\`)

// unquoteID turns a repository id as listed by the server ("\"name\"") into
// the bare name. Go-style escapes such as \n or \u00e9 are decoded when the
// whole id parses as a Go string literal; otherwise only \" and \\ are.
func unquoteID(id string) string {
	if len(id) < 2 || id[0] != '"' || id[len(id)-1] != '"' {
		return idUnescaper.Replace(id)
	}
	if s, err := strconv.Unquote(id); err == nil {
		return s
	}
	return idUnescaper.Replace(id[1 : len(id)-1])
}
