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
	"encoding/json"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/voc"
	"github.com/piprate/json-gold/ld"
)

// ProfileCompacted is the JSON-LD profile of compacted documents.
const ProfileCompacted = "http://www.w3.org/ns/json-ld#compacted"

// NewCompactWriter returns a writer that emits a single compacted JSON-LD
// document on Close. Namespaces become terms of the document context.
func NewCompactWriter(w io.Writer, ns *voc.Namespaces) quad.WriteCloser {
	cw := &compactWriter{w: w, ctx: make(map[string]interface{})}
	if ns != nil {
		for _, n := range ns.List() {
			cw.ctx[strings.TrimSuffix(n.Prefix, ":")] = n.Full
		}
	}
	return cw
}

type compactWriter struct {
	w      io.Writer
	ctx    map[string]interface{}
	quads  []quad.Quad
	closed bool
}

func (w *compactWriter) WriteQuad(q quad.Quad) error {
	if w.closed {
		return io.ErrClosedPipe
	}
	if q.Subject == nil || q.Predicate == nil || q.Object == nil {
		return errIncomplete
	}
	w.quads = append(w.quads, q)
	return nil
}

func (w *compactWriter) WriteQuads(buf []quad.Quad) (int, error) {
	for i, q := range buf {
		if err := w.WriteQuad(q); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

func (w *compactWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	d, err := toDataset(w.quads)
	if err != nil {
		return err
	}
	doc, err := compact(d, w.ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toDataset(quads []quad.Quad) (*ld.RDFDataset, error) {
	d := ld.NewRDFDataset()
	for _, q := range quads {
		s, err := jsonld.ToNode(q.Subject)
		if err != nil {
			return nil, err
		}
		p, err := jsonld.ToNode(q.Predicate)
		if err != nil {
			return nil, err
		}
		o, err := jsonld.ToNode(q.Object)
		if err != nil {
			return nil, err
		}
		d.Graphs["@default"] = append(d.Graphs["@default"], ld.NewQuad(s, p, o, "@default"))
	}
	return d, nil
}

func compact(d *ld.RDFDataset, context map[string]interface{}) (map[string]interface{}, error) {
	api := ld.NewJsonLdApi()
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	doc, err := api.FromRDF(d, opts)
	if err != nil {
		return nil, err
	}
	return proc.Compact(doc, map[string]interface{}{"@context": context}, opts)
}
