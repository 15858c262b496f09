// ABOUTME: Tests for quad JSON encoding and N-Triples term helpers
// ABOUTME: Covers the null default-graph context and literal escaping

package agclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuad_MarshalDefaultGraphAsNull(t *testing.T) {
	q := NewQuad(URI("http://ex/ted"), URI("http://ex/age"), TypedLiteral("55", XSDInt), "")

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t,
		`["<http://ex/ted>", "<http://ex/age>", "\"55\"^^<http://www.w3.org/2001/XMLSchema#int>", null]`,
		string(data))
}

func TestQuad_MarshalNamedGraph(t *testing.T) {
	q := NewQuad("<s>", "<p>", "<o>", URI("http://foo.com"))

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `["<s>", "<p>", "<o>", "<http://foo.com>"]`, string(data))
}

func TestQuad_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Quad
		wantErr bool
	}{
		{"triple", `["<s>","<p>","<o>"]`, NewQuad("<s>", "<p>", "<o>", ""), false},
		{"null context", `["<s>","<p>","<o>",null]`, NewQuad("<s>", "<p>", "<o>", ""), false},
		{"named context", `["<s>","<p>","<o>","<g>"]`, NewQuad("<s>", "<p>", "<o>", "<g>"), false},
		{"too short", `["<s>","<p>"]`, Quad{}, true},
		{"too long", `["<s>","<p>","<o>","<g>","<x>"]`, Quad{}, true},
		{"not an array", `{"s":"<s>"}`, Quad{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quad
			err := json.Unmarshal([]byte(tt.input), &q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuad_RoundTripList(t *testing.T) {
	in := []Quad{
		NewQuad("<a>", "<b>", Literal("x"), ""),
		NewQuad("<a>", "<b>", LangLiteral("hallo", "de"), "<g>"),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out []Quad
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestQuad_String(t *testing.T) {
	assert.Equal(t, `<s> <p> "o" .`, NewQuad("<s>", "<p>", `"o"`, "").String())
	assert.Equal(t, `<s> <p> "o" <g> .`, NewQuad("<s>", "<p>", `"o"`, "<g>").String())
}

func TestTermHelpers(t *testing.T) {
	assert.Equal(t, "<http://ex/a>", URI("http://ex/a"))
	assert.Equal(t, "", URI(""))
	assert.Equal(t, `"plain"`, Literal("plain"))
	assert.Equal(t, `"a\"b\\c\nd\re"`, Literal("a\"b\\c\nd\re"))
	assert.Equal(t, `"1.5"^^<http://www.w3.org/2001/XMLSchema#double>`, TypedLiteral("1.5", XSDDouble))
	assert.Equal(t, `"chat"@fr`, LangLiteral("chat", "fr"))
}

func TestUnquoteID(t *testing.T) {
	assert.Equal(t, "test", unquoteID(`"test"`))
	assert.Equal(t, "plain", unquoteID("plain"))
	assert.Equal(t, `say "hi"`, unquoteID(`"say \"hi\""`))
	assert.Equal(t, `"`, unquoteID(`"`))
}

func TestUnquoteID_Escapes(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{`"back\\slash"`, `back\slash`},
		{`"tab\there"`, "tab\there"},
		{`"caf\u00e9"`, "café"},
		{`"café"`, "café"},
		{"\"line\nbreak\"", "line\nbreak"},
		{`"trailing\\"`, `trailing\`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, unquoteID(tt.id))
		})
	}
}
