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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/knakk/rdf"
)

// NewTurtleWriter returns a writer that groups triples by subject and
// abbreviates IRIs with the given namespaces. Output is produced on Close.
// Graph labels are dropped.
func NewTurtleWriter(w io.Writer, ns *voc.Namespaces) quad.WriteCloser {
	tw := &turtleWriter{w: w, bySubject: make(map[string]*turtleSubject)}
	if ns != nil {
		tw.ns = make(map[string]string)
		for _, n := range ns.List() {
			tw.ns[n.Full] = strings.TrimSuffix(n.Prefix, ":")
		}
	}
	return tw
}

var errIncomplete = errors.New("incomplete triple")

type turtleSubject struct {
	node  quad.Value
	preds []quad.Value
	objs  map[string][]quad.Value
}

type turtleWriter struct {
	w         io.Writer
	ns        map[string]string // namespace IRI -> prefix
	subjects  []*turtleSubject
	bySubject map[string]*turtleSubject
	closed    bool
}

func (w *turtleWriter) WriteQuad(q quad.Quad) error {
	if w.closed {
		return io.ErrClosedPipe
	}
	if q.Subject == nil || q.Predicate == nil || q.Object == nil {
		return errIncomplete
	}
	sk := q.Subject.String()
	s := w.bySubject[sk]
	if s == nil {
		s = &turtleSubject{node: q.Subject, objs: make(map[string][]quad.Value)}
		w.bySubject[sk] = s
		w.subjects = append(w.subjects, s)
	}
	pk := q.Predicate.String()
	if _, ok := s.objs[pk]; !ok {
		s.preds = append(s.preds, q.Predicate)
	}
	s.objs[pk] = append(s.objs[pk], q.Object)
	return nil
}

func (w *turtleWriter) WriteQuads(buf []quad.Quad) (int, error) {
	for i, q := range buf {
		if err := w.WriteQuad(q); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Close encodes buffered triples, one statement per subject.
func (w *turtleWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.subjects) == 0 {
		return nil
	}
	enc := rdf.NewTripleEncoder(w.w, rdf.Turtle)
	enc.Namespaces = w.ns
	for _, s := range w.subjects {
		subj, err := rdfNode(s.node)
		if err != nil {
			return err
		}
		for _, p := range s.preds {
			pred, err := rdfNode(p)
			if err != nil {
				return err
			}
			if _, ok := pred.(rdf.IRI); !ok {
				return fmt.Errorf("turtle: predicate %v is not an IRI", p)
			}
			for _, o := range s.objs[p.String()] {
				obj, err := rdfTerm(o)
				if err != nil {
					return err
				}
				if err = enc.Encode(rdf.Triple{Subj: subj.(rdf.Subject), Pred: pred.(rdf.Predicate), Obj: obj.(rdf.Object)}); err != nil {
					return err
				}
			}
		}
	}
	return enc.Close()
}

// rdfNode converts an IRI or a blank node.
func rdfNode(v quad.Value) (rdf.Term, error) {
	switch v := v.(type) {
	case quad.IRI:
		iri, err := rdf.NewIRI(string(v.Full()))
		if err != nil {
			return nil, err
		}
		return iri, nil
	case quad.BNode:
		b, err := rdf.NewBlank(string(v))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("turtle: %v is not a node", v)
}

func rdfTerm(v quad.Value) (rdf.Term, error) {
	if ts, ok := v.(quad.TypedStringer); ok {
		v = ts.TypedString()
	}
	switch v := v.(type) {
	case quad.IRI, quad.BNode:
		return rdfNode(v)
	case quad.String:
		l, err := rdf.NewLiteral(string(v))
		if err != nil {
			return nil, err
		}
		return l, nil
	case quad.LangString:
		l, err := rdf.NewLangLiteral(string(v.Value), v.Lang)
		if err != nil {
			return nil, err
		}
		return l, nil
	case quad.TypedString:
		dt, err := rdf.NewIRI(string(v.Type.Full()))
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(string(v.Value), dt), nil
	}
	return nil, fmt.Errorf("turtle: unsupported value %T", v)
}
