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
	"sort"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

// Inbound is the result of converting triples to an entity.
type Inbound struct {
	Entity *entity.Entity
	// Errors lists fields that were left empty.
	Errors []error
}

// Err returns skipped fields as an *errs.FieldErrors, or nil.
func (in *Inbound) Err() error {
	return errs.Fields(in.Entity.ID, in.Errors)
}

// Inbound rebuilds an entity from the triples of a subject. The bundle is
// found by rdf:type, or is the default bundle of the entity type.
func (c *Converter) Inbound(ctx context.Context, entityType, subject string, quads []quad.Quad) (*Inbound, error) {
	return c.InboundBundle(ctx, entityType, "", subject, quads)
}

type predValues struct {
	pred   quad.IRI
	m      mapping.Mapping
	values []quad.Value
}

// InboundBundle is like Inbound, but uses the given bundle when it is not empty.
//
// Triples of other subjects are ignored and so are predicates without a
// mapping. A field whose values cannot be decoded is left empty and reported
// in Inbound.Errors. It fails with errs.NotFound if there are no triples for
// the subject.
func (c *Converter) InboundBundle(ctx context.Context, entityType, bundle, subject string, quads []quad.Quad) (*Inbound, error) {
	s, err := Subject(subject)
	if err != nil {
		return nil, err
	}
	var (
		types  []quad.IRI
		byPred = make(map[quad.IRI]*predValues)
		preds  []*predValues
		index  = make(map[quad.IRI][]string)
		out    = &Inbound{}
	)
	n := 0
	for _, q := range quads {
		if q.Subject == nil || q.Subject.String() != s.String() {
			continue
		}
		n++
		p, ok := q.Predicate.(quad.IRI)
		if !ok {
			continue
		}
		switch p {
		case mapping.RDFType:
			if t, ok := q.Object.(quad.IRI); ok {
				types = append(types, t)
			}
			continue
		case mapping.OrderPredicate:
			pred, terms, err := codec.ParseOrder(q.Object)
			if err != nil {
				clog.For(subject).Warningf("ignoring order index: %v", err)
				continue
			}
			index[pred] = terms
			continue
		}
		pv := byPred[p]
		if pv == nil {
			pv = &predValues{pred: p}
			byPred[p] = pv
			preds = append(preds, pv)
		}
		pv.values = append(pv.values, q.Object)
	}
	if n == 0 {
		return nil, &errs.Error{Kind: errs.NotFound, Op: "inbound", Entity: subject}
	}
	b, err := c.findBundle(entityType, bundle, types)
	if err != nil {
		return nil, err
	}
	e := entity.New(b.EntityType, b.Bundle)
	e.ID = subject
	out.Entity = e

	// field -> property -> stored values
	fields := make(map[string]map[string]*predValues)
	for _, pv := range preds {
		m, ok := c.table.Reverse(b.EntityType, b.Bundle, pv.pred)
		if !ok {
			clog.For(subject).Debugf("no mapping for predicate %s", pv.pred)
			continue
		}
		pv.m = m
		if fields[m.Field] == nil {
			fields[m.Field] = make(map[string]*predValues)
		}
		fields[m.Field][m.Property] = pv
		if m.Format == mapping.TLiteral && e.Langcode == "" {
			e.Langcode = langOf(pv.values)
		}
	}
	for _, name := range c.table.Fields(b.EntityType, b.Bundle) {
		props, ok := fields[name]
		if !ok {
			continue
		}
		items, err := c.inboundField(ctx, e, name, props, index)
		if err != nil {
			clog.For(subject).Warningf("skipping field: %v", err)
			out.Errors = append(out.Errors, err)
			continue
		}
		if len(items) > 0 {
			e.Set(name, items...)
		}
	}
	return out, nil
}

func (c *Converter) findBundle(entityType, bundle string, types []quad.IRI) (mapping.Bundle, error) {
	if bundle != "" {
		b, ok := c.table.Bundle(entityType, bundle)
		if !ok {
			return mapping.Bundle{}, &errs.Error{
				Kind: errs.UnmappedField, Op: "inbound", Entity: entityType + ":" + bundle,
				Err: fmt.Errorf("bundle is not mapped"),
			}
		}
		return b, nil
	}
	for _, t := range types {
		if b, ok := c.table.BundleByType(entityType, t); ok {
			return b, nil
		}
	}
	if b, ok := c.table.DefaultBundle(entityType); ok {
		return b, nil
	}
	return mapping.Bundle{}, &errs.Error{
		Kind: errs.UnmappedField, Op: "inbound", Entity: entityType,
		Err: fmt.Errorf("no bundle matches types %v", types),
	}
}

func langOf(values []quad.Value) string {
	for _, v := range values {
		if ls, ok := v.(quad.LangString); ok {
			return ls.Lang
		}
	}
	return ""
}

func (c *Converter) inboundField(ctx context.Context, e *entity.Entity, name string, props map[string]*predValues, index map[quad.IRI][]string) ([]entity.Item, error) {
	names := make([]string, 0, len(props))
	for p := range props {
		names = append(names, p)
	}
	sort.Strings(names)

	decoded := make(map[string][]interface{}, len(props))
	size := 0
	for _, prop := range names {
		pv := props[prop]
		m := pv.m
		idx := index[pv.pred]
		positional := m.Multiple && codec.HasSlots(idx)
		var terms []quad.Value
		if positional {
			terms = codec.Slots(pv.values, idx)
		} else {
			terms = codec.Order(pv.values, idx)
		}
		if !m.Multiple && len(terms) > 1 {
			clog.For(e.ID).Warningf("single-valued field %s.%s has %d values, keeping the first", name, prop, len(terms))
			terms = terms[:1]
		}
		values := make([]interface{}, 0, len(terms))
		pos := make([]int, 0, len(terms))
		for i, t := range terms {
			if t == nil {
				continue
			}
			v, err := codec.Decode(t, m)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			pos = append(pos, i)
		}
		ev := &hook.ValueEvent{
			Direction: hook.Inbound,
			Entity:    e,
			Field:     name,
			Property:  prop,
			Mapping:   m,
			Langcode:  e.Langcode,
			Values:    values,
		}
		c.hooks.Dispatch(ctx, ev)
		vals := ev.Values
		if positional && len(vals) == len(pos) {
			vals = make([]interface{}, len(terms))
			for i, v := range ev.Values {
				vals[pos[i]] = v
			}
		}
		decoded[prop] = vals
		if len(vals) > size {
			size = len(vals)
		}
	}
	items := make([]entity.Item, 0, size)
	for i := 0; i < size; i++ {
		it := make(entity.Item, len(names))
		for _, prop := range names {
			if vals := decoded[prop]; i < len(vals) && vals[i] != nil {
				it[prop] = vals[i]
			}
		}
		if len(it) > 0 {
			items = append(items, it)
		}
	}
	return items, nil
}
