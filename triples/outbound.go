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

package triples

import (
	"context"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

// Outbound is the result of converting an entity to triples.
type Outbound struct {
	Subject quad.IRI
	Quads   []quad.Quad
	// Errors lists fields that were skipped.
	Errors []error
}

// Err returns skipped fields as an *errs.FieldErrors, or nil.
func (o *Outbound) Err() error {
	return errs.Fields(string(o.Subject), o.Errors)
}

// Outbound converts an entity to triples.
//
// An entity without ID gets one from the ID generator; the ID is stored in e.
// A field that cannot be mapped or encoded is skipped as a whole and reported
// in Outbound.Errors; other fields are still converted.
func (c *Converter) Outbound(ctx context.Context, e *entity.Entity) (*Outbound, error) {
	b, ok := c.table.Bundle(e.Type, e.Bundle)
	if !ok {
		return nil, &errs.Error{
			Kind: errs.UnmappedField, Op: "outbound", Entity: e.Type + ":" + e.Bundle,
			Err: fmt.Errorf("bundle is not mapped"),
		}
	}
	if e.ID == "" {
		id, err := c.newID(b)
		if err != nil {
			return nil, err
		}
		e.ID = id
	}
	s, err := Subject(e.ID)
	if err != nil {
		return nil, err
	}
	out := &Outbound{Subject: s}
	if b.RDFType != "" {
		out.Quads = append(out.Quads, quad.Quad{Subject: s, Predicate: mapping.RDFType, Object: b.RDFType})
	}
	for _, f := range e.Fields() {
		if f.IsEmpty() {
			continue
		}
		quads, err := c.outboundField(ctx, e, s, f)
		if err != nil {
			clog.For(e.ID).Warningf("skipping field: %v", err)
			out.Errors = append(out.Errors, err)
			continue
		}
		out.Quads = append(out.Quads, quads...)
	}
	return out, nil
}

// itemValues returns the values of a property with the positions of their items.
func itemValues(f *entity.Field, prop string) ([]interface{}, []int) {
	var (
		values []interface{}
		pos    []int
	)
	for i, it := range f.Items {
		if v := it[prop]; v != nil {
			values = append(values, v)
			pos = append(pos, i)
		}
	}
	return values, pos
}

// isSparse reports whether some item of a field lacks one of the properties.
func isSparse(f *entity.Field, props []string) bool {
	if len(props) < 2 {
		return false
	}
	for _, it := range f.Items {
		for _, p := range props {
			if it[p] == nil {
				return true
			}
		}
	}
	return false
}

func (c *Converter) outboundField(ctx context.Context, e *entity.Entity, s quad.IRI, f *entity.Field) ([]quad.Quad, error) {
	props := f.Properties()
	sparse := isSparse(f, props)
	var quads []quad.Quad
	for _, prop := range props {
		m, err := c.table.Resolve(e.Type, e.Bundle, f.Name, prop)
		if err != nil {
			return nil, err
		}
		values, pos := itemValues(f, prop)
		if len(values) == 0 {
			continue
		}
		ev := &hook.ValueEvent{
			Direction: hook.Outbound,
			Entity:    e,
			Field:     f.Name,
			Property:  prop,
			Mapping:   m,
			Langcode:  e.Langcode,
			Values:    values,
		}
		c.hooks.Dispatch(ctx, ev)

		// slots keep values aligned with items when some items lack the property
		var slots []quad.Value
		if sparse && m.Multiple {
			if len(ev.Values) == len(pos) {
				slots = make([]quad.Value, len(f.Items))
			} else {
				clog.For(e.ID).Warningf("hooks changed the number of values of %s.%s, item positions are lost", f.Name, prop)
			}
		}
		terms := make([]quad.Value, 0, len(ev.Values))
		for i, v := range ev.Values {
			if v == nil {
				continue
			}
			t, err := codec.Encode(v, m, e.Langcode)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
			if slots != nil {
				slots[pos[i]] = t
			}
		}
		if !m.Multiple && len(terms) > 1 {
			return nil, &errs.Error{
				Kind: errs.Encoding, Op: "outbound", Entity: e.ID, Field: f.Name, Property: prop,
				Err: fmt.Errorf("single-valued field has %d values", len(terms)),
			}
		}
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			k := t.String()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			quads = append(quads, quad.Quad{Subject: s, Predicate: m.Predicate, Object: t})
		}
		switch {
		case slots != nil && len(terms) > 0:
			quads = append(quads, codec.OrderQuad(s, m.Predicate, slots))
		case codec.NeedsOrder(terms):
			quads = append(quads, codec.OrderQuad(s, m.Predicate, terms))
		}
	}
	return quads, nil
}
