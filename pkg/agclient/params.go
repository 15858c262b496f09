// ABOUTME: Query-string encoding for optional, typed request parameters
// ABOUTME: Omits absent values, repeats keys for lists, keeps insertion order

package agclient

import (
	"net/url"
	"strconv"
	"strings"
)

// Params is an ordered set of query-string parameters. The zero value is
// ready to use. Keys are encoded in the order they were first added.
type Params struct {
	keys   []string
	values map[string][]string
}

func (p *Params) add(key string, vals ...string) {
	if len(vals) == 0 {
		return
	}
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], vals...)
}

// Set adds key=value unless value is empty.
func (p *Params) Set(key, value string) *Params {
	if value != "" {
		p.add(key, value)
	}
	return p
}

// Bool adds key=true or key=false. False is still encoded.
func (p *Params) Bool(key string, value bool) *Params {
	p.add(key, strconv.FormatBool(value))
	return p
}

// Int adds key=value.
func (p *Params) Int(key string, value int64) *Params {
	p.add(key, strconv.FormatInt(value, 10))
	return p
}

// List adds one key=value pair per element, in order. Empty elements are kept
// because they are positionally meaningful to the server.
func (p *Params) List(key string, values []string) *Params {
	p.add(key, values...)
	return p
}

// Contexts adds the repeated context parameter for c under key.
func (p *Params) Contexts(key string, c Contexts) *Params {
	return p.List(key, c.values())
}

// Len reports the number of encoded pairs.
func (p *Params) Len() int {
	n := 0
	for _, k := range p.keys {
		n += len(p.values[k])
	}
	return n
}

// Encode renders the parameters as "k=v&k=v". An empty set encodes to "".
func (p *Params) Encode() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, k := range p.keys {
		ek := url.QueryEscape(k)
		for _, v := range p.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// withQuery appends the encoded parameters to rawURL.
func withQuery(rawURL string, p *Params) string {
	q := p.Encode()
	if q == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + q
	}
	return rawURL + "?" + q
}

type contextKind uint8

const (
	noContext contextKind = iota
	singleContext
	multiContext
)

// Contexts selects the named graphs an operation applies to. The zero value
// is NoContext, which leaves the choice to the server.
type Contexts struct {
	kind  contextKind
	names []string
}

// NoContext applies an operation to every graph.
func NoContext() Contexts { return Contexts{} }

// SingleContext restricts an operation to one graph. The literal "null"
// names the default graph.
func SingleContext(name string) Contexts {
	return Contexts{kind: singleContext, names: []string{name}}
}

// MultiContext restricts an operation to the given graphs, in order.
// With no names it behaves like NoContext.
func MultiContext(names ...string) Contexts {
	if len(names) == 0 {
		return Contexts{}
	}
	return Contexts{kind: multiContext, names: append([]string(nil), names...)}
}

// IsZero reports whether c is NoContext.
func (c Contexts) IsZero() bool { return c.kind == noContext }

func (c Contexts) values() []string {
	if c.kind == noContext {
		return nil
	}
	return c.names
}
