// ABOUTME: Streaming reader for the striped RDF/XML syntax
// ABOUTME: Handles node elements, property elements, typed nodes and nested descriptions

package sandbox

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/2389/agclient/internal/store"
)

const (
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS = "http://www.w3.org/XML/1998/namespace"
)

type rdfXMLReader struct {
	dec   *xml.Decoder
	base  *url.URL
	graph string
	blank int
	out   []store.Statement
}

// parseRDFXML reads an RDF/XML document. Collections, reification and
// parseType are not supported.
func parseRDFXML(r io.Reader, graph, base string) ([]store.Statement, error) {
	p := &rdfXMLReader{dec: xml.NewDecoder(r), graph: graph}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("base URI: %w", err)
		}
		p.base = u
	}

	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return p.out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rdf/xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space == rdfNS && start.Name.Local == "RDF" {
			err = p.nodeList()
		} else {
			_, err = p.node(start)
		}
		if err != nil {
			return nil, fmt.Errorf("rdf/xml: %w", err)
		}
	}
}

func (p *rdfXMLReader) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (p *rdfXMLReader) nodeList() error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.node(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// node reads a node element and returns its subject term.
func (p *rdfXMLReader) node(start xml.StartElement) (string, error) {
	subject := p.subject(start)
	if start.Name.Space != rdfNS || start.Name.Local != "Description" {
		p.emit(subject, rdfType, iriOf(start.Name))
	}
	for _, a := range start.Attr {
		if isSyntaxAttr(a.Name) {
			continue
		}
		p.emit(subject, iriOf(a.Name), quoteLiteral(a.Value, "", ""))
	}

	for {
		tok, err := p.token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.property(subject, t); err != nil {
				return "", err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

func (p *rdfXMLReader) property(subject string, start xml.StartElement) error {
	var object, datatype, lang string
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == rdfNS && a.Name.Local == "resource":
			object = p.resolve(a.Value)
		case a.Name.Space == rdfNS && a.Name.Local == "nodeID":
			object = "_:" + a.Value
		case a.Name.Space == rdfNS && a.Name.Local == "datatype":
			datatype = p.resolve(a.Value)
		case a.Name.Space == xmlNS && a.Name.Local == "lang":
			lang = a.Value
		}
	}

	var text strings.Builder
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			nested, err := p.node(t)
			if err != nil {
				return err
			}
			object = nested
		case xml.EndElement:
			if object == "" {
				object = quoteLiteral(text.String(), datatype, lang)
			}
			p.emit(subject, iriOf(start.Name), object)
			return nil
		}
	}
}

func (p *rdfXMLReader) subject(start xml.StartElement) string {
	for _, a := range start.Attr {
		if a.Name.Space != rdfNS {
			continue
		}
		switch a.Name.Local {
		case "about":
			return p.resolve(a.Value)
		case "nodeID":
			return "_:" + a.Value
		case "ID":
			return p.resolve("#" + a.Value)
		}
	}
	p.blank++
	return "_:genid" + strconv.Itoa(p.blank)
}

func (p *rdfXMLReader) resolve(ref string) string {
	if p.base == nil {
		return "<" + ref + ">"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "<" + ref + ">"
	}
	return "<" + p.base.ResolveReference(u).String() + ">"
}

func (p *rdfXMLReader) emit(s, pred, o string) {
	p.out = append(p.out, store.Statement{Subject: s, Predicate: pred, Object: o, Context: p.graph})
}

func iriOf(name xml.Name) string {
	return "<" + name.Space + name.Local + ">"
}

func isSyntaxAttr(name xml.Name) bool {
	return name.Space == "xmlns" || (name.Space == "" && name.Local == "xmlns") ||
		name.Space == rdfNS || name.Space == xmlNS
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// quoteLiteral encodes text as an N-Triples literal.
func quoteLiteral(text, datatype, lang string) string {
	lit := `"` + literalEscaper.Replace(text) + `"`
	switch {
	case datatype != "":
		return lit + "^^" + datatype
	case lang != "":
		return lit + "@" + lang
	}
	return lit
}
