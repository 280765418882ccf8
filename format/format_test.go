// Copyright 2026 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package format

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	knakk "github.com/knakk/rdf"
	"github.com/stretchr/testify/require"
)

const (
	dc = "http://purl.org/dc/terms/"
	ex = "http://example.com/"
)

func namespaces() *voc.Namespaces {
	ns := &voc.Namespaces{}
	ns.Register(voc.Namespace{Prefix: "dc:", Full: dc})
	ns.Register(voc.Namespace{Prefix: "ex:", Full: ex})
	return ns
}

func TestList(t *testing.T) {
	r := Default(nil)
	var names []string
	byName := make(map[string]Info)
	for _, f := range r.List() {
		names = append(names, f.ID)
		byName[f.ID] = f
	}
	require.Equal(t, []string{JSONLD, JSONLDCompact, NQuads, NTriples, Turtle}, names)
	require.True(t, byName[NTriples].Read)
	require.True(t, byName[Turtle].Write)
	require.False(t, byName[Turtle].Read)
	require.Equal(t, []string{"text/turtle", "application/x-turtle"}, byName[Turtle].Mime)

	require.True(t, r.Supports(Turtle))
	require.False(t, r.Supports("rdfxml"))

	f, ok := r.ByExt("ttl")
	require.True(t, ok)
	require.Equal(t, Turtle, f.Name)
	f, ok = r.ByExt(".nt")
	require.True(t, ok)
	require.Equal(t, NTriples, f.Name)
}

func TestNewRegistryErrors(t *testing.T) {
	w := Builtin(nil)[0]
	_, err := NewRegistry(w, w)
	require.Error(t, err)
	_, err = NewRegistry(Format{Name: "none"})
	require.Error(t, err)
	_, err = NewRegistry(Format{Writer: w.Writer})
	require.Error(t, err)
}

func TestParseAccept(t *testing.T) {
	h := http.Header{}
	h.Add("Accept", "text/html;q=0.5, application/n-triples")
	h.Add("Accept", `application/ld+json; profile="x"; q=0.8`)
	specs := ParseAccept(h, "Accept")
	require.Len(t, specs, 3)
	require.Equal(t, "application/n-triples", specs[0].Value)
	require.Equal(t, "application/ld+json", specs[1].Value)
	require.Equal(t, 0.8, specs[1].Q)
	require.Equal(t, map[string]string{"profile": "x"}, specs[1].Params)
	require.Equal(t, "text/html", specs[2].Value)
}

func TestNegotiate(t *testing.T) {
	r := Default(nil)
	for _, c := range []struct {
		accept string
		exp    string
	}{
		{"", NTriples},
		{"*/*", NTriples},
		{"text/turtle", Turtle},
		{"TEXT/Turtle", Turtle},
		{"text/*", Turtle},
		{"application/ld+json", JSONLD},
		{`application/ld+json; profile="` + ProfileCompacted + `"`, JSONLDCompact},
		{`application/ld+json; profile="http://example.com/unknown"`, JSONLD},
		{"text/html;q=0.9, text/turtle", Turtle},
		{"application/n-triples;q=0.5, text/turtle;q=0.8", Turtle},
		{"text/turtle;q=0, application/n-triples", NTriples},
		{"text/html", ""},
	} {
		t.Run(c.accept, func(t *testing.T) {
			f, ok := r.Negotiate(c.accept, NTriples)
			if c.exp == "" {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, c.exp, f.Name)
		})
	}
}

func TestMiddleware(t *testing.T) {
	r := Default(nil)
	var got string
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = ""
		if f, ok := FromContext(req.Context()); ok {
			got = f.Name
		}
	}))
	for _, c := range []struct {
		url, accept, exp string
	}{
		{"/", "", ""},
		{"/", "text/turtle", Turtle},
		{"/", "application/json", ""},
		{"/?format=nquads", "text/turtle", NQuads},
		{"/?format=bogus", "text/turtle", ""},
	} {
		req := httptest.NewRequest("GET", c.url, nil)
		if c.accept != "" {
			req.Header.Set("Accept", c.accept)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.Equal(t, c.exp, got, "%s %s", c.url, c.accept)
	}
}

func TestTurtle(t *testing.T) {
	r := Default(namespaces())
	quads := []quad.Quad{
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(dc + "title"), Object: quad.String("Hello")},
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(ex + "tag"), Object: quad.String("a")},
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(ex + "tag"), Object: quad.String("b")},
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(rdf.NS + "type"), Object: quad.IRI(ex + "Item")},
		{Subject: quad.IRI(ex + "a/b%20c"), Predicate: quad.IRI(dc + "title"), Object: quad.LangString{Value: "Hallo", Lang: "de"}},
		{Subject: quad.IRI(ex + "a/b%20c"), Predicate: quad.IRI(ex + "weight"), Object: quad.Int(5)},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, Turtle, quads))
	out := buf.String()
	require.Contains(t, out, "@prefix")
	require.Contains(t, out, "dc:title")
	require.Contains(t, out, "<http://example.com/a/b%20c>")
	// one statement per subject
	require.Equal(t, 2, strings.Count(out, "<http://example.com/a/b%20c>")+strings.Count(out, "ex:item1"))

	triples, err := knakk.NewTripleDecoder(strings.NewReader(out), knakk.Turtle).DecodeAll()
	require.NoError(t, err)
	var got [][3]string
	for _, tr := range triples {
		got = append(got, [3]string{tr.Subj.String(), tr.Pred.String(), tr.Obj.String()})
	}
	require.ElementsMatch(t, [][3]string{
		{ex + "item1", dc + "title", "Hello"},
		{ex + "item1", ex + "tag", "a"},
		{ex + "item1", ex + "tag", "b"},
		{ex + "item1", rdf.NS + "type", ex + "Item"},
		{ex + "a/b%20c", dc + "title", "Hallo"},
		{ex + "a/b%20c", ex + "weight", "5"},
	}, got)
	require.Contains(t, out, `"Hallo"@de`)

	err = r.Write(&buf, Turtle, []quad.Quad{{
		Subject: quad.String("x"), Predicate: quad.IRI(dc + "title"), Object: quad.String("y"),
	}})
	require.Error(t, err)
}

func TestTurtleEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default(namespaces()).Write(&buf, Turtle, nil))
	require.Equal(t, "", buf.String())
}

func TestNTriples(t *testing.T) {
	r := Default(nil)
	in := []quad.Quad{{
		Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(dc + "title"),
		Object: quad.String("Hello"), Label: quad.IRI(ex + "graph"),
	}}
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, NTriples, in))
	require.Equal(t, "<http://example.com/item1> <http://purl.org/dc/terms/title> \"Hello\" .\n", buf.String())

	out, err := r.Read(strings.NewReader(buf.String()), NTriples)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, quad.String("Hello"), out[0].Object)

	err = r.Write(&buf, "rdfxml", in)
	require.Error(t, err)
	_, err = r.Read(&buf, Turtle)
	require.Error(t, err)
}

func TestCompactJSONLD(t *testing.T) {
	r := Default(namespaces())
	in := []quad.Quad{
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(dc + "title"), Object: quad.String("Hello")},
	}
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, JSONLDCompact, in))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Contains(t, []interface{}{ex + "item1", "ex:item1"}, doc["@id"])
	require.Equal(t, "Hello", doc["dc:title"])
	ctx, ok := doc["@context"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, dc, ctx["dc"])
}
