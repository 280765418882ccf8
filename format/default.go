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
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/cayleygraph/quad/voc"
)

// Default names of built-in formats.
const (
	NQuads        = "nquads"
	NTriples      = "ntriples"
	Turtle        = "turtle"
	JSONLD        = "jsonld"
	JSONLDCompact = "jsonld-compact"
)

// tripleWriter drops graph labels.
type tripleWriter struct {
	quad.WriteCloser
}

func (w tripleWriter) WriteQuad(q quad.Quad) error {
	q.Label = nil
	return w.WriteCloser.WriteQuad(q)
}

func (w tripleWriter) WriteQuads(buf []quad.Quad) (int, error) {
	for i, q := range buf {
		if err := w.WriteQuad(q); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Builtin returns the built-in formats. Namespaces are used for prefixes
// in Turtle and for the context of compacted JSON-LD.
func Builtin(ns *voc.Namespaces) []Format {
	out := []Format{
		{
			Name: NTriples,
			Ext:  []string{".nt"},
			Mime: []string{"application/n-triples"},
			Reader: func(r io.Reader) quad.ReadCloser {
				return nquads.NewReader(r, false)
			},
			Writer: func(w io.Writer) quad.WriteCloser {
				return tripleWriter{nquads.NewWriter(w)}
			},
		},
		{
			Name: Turtle,
			Ext:  []string{".ttl"},
			Mime: []string{"text/turtle", "application/x-turtle"},
			Writer: func(w io.Writer) quad.WriteCloser {
				return NewTurtleWriter(w, ns)
			},
		},
		{
			Name: JSONLDCompact,
			Mime: []string{`application/ld+json; profile="` + ProfileCompacted + `"`},
			Writer: func(w io.Writer) quad.WriteCloser {
				return NewCompactWriter(w, ns)
			},
		},
	}
	for _, name := range []string{NQuads, JSONLD} {
		if f := quad.FormatByName(name); f != nil {
			out = append(out, FromQuad(f))
		}
	}
	return out
}

// Default builds a registry of the built-in formats.
func Default(ns *voc.Namespaces) *Registry {
	r, err := NewRegistry(Builtin(ns)...)
	if err != nil {
		panic(err)
	}
	return r
}
