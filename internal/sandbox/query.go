// ABOUTME: Tokenizer and parser for the SPARQL subset and N-Triples documents the sandbox accepts
// ABOUTME: Evaluates single-triple-pattern select, ask, construct and describe queries

package sandbox

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/2389/agclient/internal/store"
)

const rdfType = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>"

type tokenKind uint8

const (
	tokWord tokenKind = iota
	tokVar
	tokIRI
	tokLiteral
	tokBlank
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func isNameChar(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// tokenize splits SPARQL or N-Triples text into tokens. Comments run from '#'
// to the end of the line.
func tokenize(src string) ([]token, error) {
	var toks []token
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '{' || c == '}' || c == '.' || c == '*':
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line})
			i++
		case c == '?' || c == '$':
			j := i + 1
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("line %d: empty variable name", line)
			}
			toks = append(toks, token{kind: tokVar, text: src[i+1 : j], line: line})
			i = j
		case c == '<':
			j := strings.IndexByte(src[i:], '>')
			if j < 0 {
				return nil, fmt.Errorf("line %d: unterminated IRI", line)
			}
			iri := src[i : i+j+1]
			if strings.ContainsAny(iri, " \t\n") {
				return nil, fmt.Errorf("line %d: whitespace in IRI %s", line, iri)
			}
			toks = append(toks, token{kind: tokIRI, text: iri, line: line})
			i += j + 1
		case c == '"':
			end, err := scanLiteral(src, i)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			toks = append(toks, token{kind: tokLiteral, text: src[i:end], line: line})
			i = end
		case c == '_' && i+1 < len(src) && src[i+1] == ':':
			j := i + 2
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			if j == i+2 {
				return nil, fmt.Errorf("line %d: empty blank node label", line)
			}
			toks = append(toks, token{kind: tokBlank, text: src[i:j], line: line})
			i = j
		case isNameChar(c):
			j := i
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: src[i:j], line: line})
			i = j
		default:
			return nil, fmt.Errorf("line %d: unexpected character %q", line, c)
		}
	}
	return toks, nil
}

// scanLiteral returns the end offset of the literal starting at src[start],
// including any datatype or language suffix.
func scanLiteral(src string, start int) (int, error) {
	i := start + 1
	for {
		if i >= len(src) || src[i] == '\n' {
			return 0, fmt.Errorf("unterminated literal")
		}
		if src[i] == '\\' {
			i += 2
			continue
		}
		if src[i] == '"' {
			i++
			break
		}
		i++
	}

	switch {
	case strings.HasPrefix(src[i:], "^^<"):
		j := strings.IndexByte(src[i:], '>')
		if j < 0 {
			return 0, fmt.Errorf("unterminated datatype IRI")
		}
		i += j + 1
	case i < len(src) && src[i] == '@':
		j := i + 1
		for j < len(src) && (isNameChar(src[j])) {
			j++
		}
		if j == i+1 {
			return 0, fmt.Errorf("empty language tag")
		}
		i = j
	}
	return i, nil
}

// term is one position of a triple pattern: a variable name or a constant.
type term struct {
	variable string
	value    string
}

func (t term) isVar() bool { return t.variable != "" }

func (t term) String() string {
	if t.isVar() {
		return "?" + t.variable
	}
	return t.value
}

type triplePattern [3]term

// variables lists the distinct variable names in pattern order.
func (tp triplePattern) variables() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tp {
		if t.isVar() && !seen[t.variable] {
			seen[t.variable] = true
			out = append(out, t.variable)
		}
	}
	return out
}

// storePattern turns the constant positions into a store lookup.
func (tp triplePattern) storePattern() store.Pattern {
	var p store.Pattern
	if !tp[0].isVar() {
		p.Subject = tp[0].value
	}
	if !tp[1].isVar() {
		p.Predicate = tp[1].value
	}
	if !tp[2].isVar() {
		p.Object = tp[2].value
	}
	return p
}

// match binds the pattern's variables against st. A variable used twice must
// bind the same value both times.
func (tp triplePattern) match(st store.Statement) (map[string]string, bool) {
	values := [3]string{st.Subject, st.Predicate, st.Object}
	binding := make(map[string]string, 3)
	for i, t := range tp {
		if !t.isVar() {
			if t.value != values[i] {
				return nil, false
			}
			continue
		}
		if prev, ok := binding[t.variable]; ok && prev != values[i] {
			return nil, false
		}
		binding[t.variable] = values[i]
	}
	return binding, true
}

// instantiate fills the pattern from binding. It fails when a variable is
// unbound.
func (tp triplePattern) instantiate(binding map[string]string) (store.Statement, bool) {
	var out [3]string
	for i, t := range tp {
		if !t.isVar() {
			out[i] = t.value
			continue
		}
		v, ok := binding[t.variable]
		if !ok {
			return store.Statement{}, false
		}
		out[i] = v
	}
	return store.Statement{Subject: out[0], Predicate: out[1], Object: out[2]}, true
}

func (tp *triplePattern) bind(variable, value string) {
	for i := range tp {
		if tp[i].variable == variable {
			tp[i] = term{value: value}
		}
	}
}

type queryForm uint8

const (
	formSelect queryForm = iota
	formAsk
	formConstruct
	formDescribe
)

// sparqlQuery is a parsed query over a single triple pattern.
type sparqlQuery struct {
	form     queryForm
	vars     []string // nil selects every pattern variable
	where    triplePattern
	template triplePattern
	limit    int
	distinct bool
	bound    map[string]string // pre-bound variables and their terms
}

// names returns the column names of a select result.
func (q *sparqlQuery) names() []string {
	if q.vars != nil {
		return q.vars
	}
	return q.where.variables()
}

// bind pre-binds a variable to a constant term. The variable keeps its
// select column, which reports the bound term.
func (q *sparqlQuery) bind(variable, value string) {
	variable = strings.TrimLeft(variable, "?$")
	if q.form == formSelect && q.vars == nil {
		q.vars = q.where.variables()
	}
	if q.bound == nil {
		q.bound = make(map[string]string)
	}
	q.bound[variable] = value
	q.where.bind(variable, value)
	q.template.bind(variable, value)
}

// value returns the term for column name, taking pre-bound variables first.
func (q *sparqlQuery) value(binding map[string]string, name string) (string, bool) {
	if v, ok := q.bound[name]; ok {
		return v, true
	}
	v, ok := binding[name]
	return v, ok
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, error) {
	t, ok := p.peek()
	if !ok {
		return token{}, fmt.Errorf("unexpected end of input")
	}
	p.pos++
	return t, nil
}

func (p *parser) peekWord(word string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokWord && strings.EqualFold(t.text, word)
}

func (p *parser) peekPunct(punct string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokPunct && t.text == punct
}

func (p *parser) expectPunct(punct string) error {
	t, err := p.next()
	if err != nil {
		return fmt.Errorf("expected %q: %w", punct, err)
	}
	if t.kind != tokPunct || t.text != punct {
		return fmt.Errorf("expected %q, found %q", punct, t.text)
	}
	return nil
}

func (p *parser) optionalWord(word string) {
	if p.peekWord(word) {
		p.pos++
	}
}

// parseTerm reads one pattern position. Position 1 accepts the "a"
// shorthand for rdf:type.
func (p *parser) parseTerm(position int) (term, error) {
	t, err := p.next()
	if err != nil {
		return term{}, err
	}
	switch t.kind {
	case tokVar:
		return term{variable: t.text}, nil
	case tokIRI, tokBlank:
		return term{value: t.text}, nil
	case tokLiteral:
		if position != 2 {
			return term{}, fmt.Errorf("literal %s is only allowed as object", t.text)
		}
		return term{value: t.text}, nil
	case tokWord:
		if position == 1 && t.text == "a" {
			return term{value: rdfType}, nil
		}
	}
	return term{}, fmt.Errorf("unexpected %q in triple pattern", t.text)
}

// parseGroup reads "{ s p o [.] }".
func (p *parser) parseGroup() (triplePattern, error) {
	var tp triplePattern
	if err := p.expectPunct("{"); err != nil {
		return tp, err
	}
	for i := range tp {
		t, err := p.parseTerm(i)
		if err != nil {
			return tp, err
		}
		tp[i] = t
	}
	if p.peekPunct(".") {
		p.pos++
	}
	if err := p.expectPunct("}"); err != nil {
		return tp, fmt.Errorf("only one triple pattern is supported: %w", err)
	}
	return tp, nil
}

func (p *parser) parseLimit() (int, error) {
	if !p.peekWord("limit") {
		return 0, nil
	}
	p.pos++
	t, err := p.next()
	if err != nil {
		return 0, fmt.Errorf("limit: %w", err)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit %q is not a non-negative integer", t.text)
	}
	return n, nil
}

// parseQuery parses the supported SPARQL forms:
//
//	select [distinct] (* | ?v...) [where] { s p o } [limit n]
//	ask [where] { s p o }
//	construct { s p o } where { s p o } [limit n]
//	construct where { s p o } [limit n]
//	describe <iri> [limit n]
func parseQuery(text string) (*sparqlQuery, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	head, err := p.next()
	if err != nil {
		return nil, err
	}
	if head.kind != tokWord {
		return nil, fmt.Errorf("expected query form, found %q", head.text)
	}

	q := &sparqlQuery{}
	switch strings.ToLower(head.text) {
	case "select":
		q.form = formSelect
		if p.peekWord("distinct") {
			p.pos++
			q.distinct = true
		}
		if p.peekPunct("*") {
			p.pos++
		} else {
			q.vars = []string{}
			for {
				t, ok := p.peek()
				if !ok || t.kind != tokVar {
					break
				}
				q.vars = append(q.vars, t.text)
				p.pos++
			}
			if len(q.vars) == 0 {
				return nil, fmt.Errorf("select needs * or at least one variable")
			}
		}
		p.optionalWord("where")
		if q.where, err = p.parseGroup(); err != nil {
			return nil, err
		}

	case "ask":
		q.form = formAsk
		p.optionalWord("where")
		if q.where, err = p.parseGroup(); err != nil {
			return nil, err
		}

	case "construct":
		q.form = formConstruct
		if p.peekWord("where") {
			p.pos++
			if q.where, err = p.parseGroup(); err != nil {
				return nil, err
			}
			q.template = q.where
			break
		}
		if q.template, err = p.parseGroup(); err != nil {
			return nil, err
		}
		if !p.peekWord("where") {
			return nil, fmt.Errorf("construct template must be followed by where")
		}
		p.pos++
		if q.where, err = p.parseGroup(); err != nil {
			return nil, err
		}

	case "describe":
		q.form = formDescribe
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if t.kind != tokIRI && t.kind != tokBlank {
			return nil, fmt.Errorf("describe needs an IRI, found %q", t.text)
		}
		q.where = triplePattern{{value: t.text}, {variable: "p"}, {variable: "o"}}
		q.template = q.where

	default:
		return nil, fmt.Errorf("unsupported query form %q", head.text)
	}

	if q.limit, err = p.parseLimit(); err != nil {
		return nil, err
	}
	if t, ok := p.peek(); ok {
		return nil, fmt.Errorf("unexpected %q after query", t.text)
	}
	return q, nil
}

// parseNTriples reads an N-Triples or N-Quads document. A non-empty
// graph overrides every statement's context; relative IRIs resolve against
// base.
func parseNTriples(doc, graph, base string) ([]store.Statement, error) {
	toks, err := tokenize(doc)
	if err != nil {
		return nil, err
	}

	var baseURL *url.URL
	if base != "" {
		if baseURL, err = url.Parse(base); err != nil {
			return nil, fmt.Errorf("base URI: %w", err)
		}
	}
	resolve := func(t token) string {
		if t.kind != tokIRI || baseURL == nil {
			return t.text
		}
		iri := t.text[1 : len(t.text)-1]
		if strings.Contains(iri, ":") {
			return t.text
		}
		ref, err := url.Parse(iri)
		if err != nil {
			return t.text
		}
		return "<" + baseURL.ResolveReference(ref).String() + ">"
	}

	var out []store.Statement
	for i := 0; i < len(toks); {
		if i+3 > len(toks) {
			return nil, fmt.Errorf("line %d: incomplete statement", toks[i].line)
		}
		s, pr, o := toks[i], toks[i+1], toks[i+2]
		if s.kind != tokIRI && s.kind != tokBlank {
			return nil, fmt.Errorf("line %d: subject must be an IRI or blank node, found %q", s.line, s.text)
		}
		if pr.kind != tokIRI {
			return nil, fmt.Errorf("line %d: predicate must be an IRI, found %q", pr.line, pr.text)
		}
		if o.kind != tokIRI && o.kind != tokBlank && o.kind != tokLiteral {
			return nil, fmt.Errorf("line %d: bad object %q", o.line, o.text)
		}
		i += 3

		st := store.Statement{Subject: resolve(s), Predicate: resolve(pr), Object: resolve(o)}
		if i < len(toks) && (toks[i].kind == tokIRI || toks[i].kind == tokBlank) {
			st.Context = resolve(toks[i])
			i++
		}
		if i >= len(toks) || toks[i].kind != tokPunct || toks[i].text != "." {
			return nil, fmt.Errorf("line %d: statement must end with '.'", o.line)
		}
		i++

		if graph != "" {
			st.Context = graph
		}
		out = append(out, st)
	}
	return out, nil
}
