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

package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"

	"github.com/cayleygraph/sparqlstorage/mapping"
)

// rdfJSON is the datatype of order index literals.
const rdfJSON = quad.IRI(rdf.NS + "JSON")

// A triple store keeps a set of triples per subject, so the order of values of
// a multi-valued predicate (and repeated values) is lost on write. The order
// is kept in one index triple per subject and predicate:
//
//	<s> <urn:sparqlstorage:order> "[\"<p>\", \"\\\"b\\\"\", \"\\\"a\\\"\"]"^^rdf:JSON
//
// The first element is the predicate IRI, the rest are the N-Triples forms of
// the values in their original order. In fields with several properties an
// item may lack a value of this predicate; its slot is null, so values stay
// aligned with their items.

// NeedsOrder reports whether values of one predicate need an order index.
func NeedsOrder(values []quad.Value) bool {
	return len(values) > 1
}

// OrderQuad builds the order index triple for values of a predicate.
// A nil value is written as an empty slot.
func OrderQuad(subject quad.Value, pred quad.IRI, values []quad.Value) quad.Quad {
	list := make([]*string, 0, len(values)+1)
	p := string(pred)
	list = append(list, &p)
	for _, v := range values {
		if v == nil {
			list = append(list, nil)
			continue
		}
		term := v.String()
		list = append(list, &term)
	}
	data, _ := json.Marshal(list)
	return quad.Quad{
		Subject:   subject,
		Predicate: mapping.OrderPredicate,
		Object:    quad.TypedString{Value: quad.String(data), Type: rdfJSON},
	}
}

// ParseOrder decodes the object of an order index triple.
// Empty slots are returned as empty strings.
func ParseOrder(o quad.Value) (quad.IRI, []string, error) {
	var lex string
	switch o := o.(type) {
	case quad.TypedString:
		if o.Type != rdfJSON {
			return "", nil, fmt.Errorf("order index: unexpected datatype %s", o.Type)
		}
		lex = string(o.Value)
	case quad.String:
		lex = string(o)
	default:
		return "", nil, fmt.Errorf("order index: unexpected term %v", o)
	}
	var list []*string
	if err := json.Unmarshal([]byte(lex), &list); err != nil {
		return "", nil, fmt.Errorf("order index: %v", err)
	}
	if len(list) == 0 || list[0] == nil || *list[0] == "" {
		return "", nil, fmt.Errorf("order index: no predicate")
	}
	terms := make([]string, 0, len(list)-1)
	for _, t := range list[1:] {
		if t == nil {
			terms = append(terms, "")
			continue
		}
		terms = append(terms, *t)
	}
	return quad.IRI(*list[0]), terms, nil
}

// HasSlots reports whether an index has empty slots, that is whether its
// positions are item positions.
func HasSlots(index []string) bool {
	for _, t := range index {
		if t == "" {
			return true
		}
	}
	return false
}

// Slots arranges values by item position. The result has one element per
// index entry, nil for empty slots and for entries without a matching value.
// Values missing from the index are appended in the given order.
func Slots(values []quad.Value, index []string) []quad.Value {
	byTerm := make(map[string]quad.Value, len(values))
	for _, v := range values {
		byTerm[termKey(v)] = v
	}
	out := make([]quad.Value, len(index), len(index)+len(values))
	used := make(map[string]bool, len(index))
	for i, term := range index {
		if term == "" {
			continue
		}
		k := indexKey(term)
		if v, ok := byTerm[k]; ok {
			out[i] = v
			used[k] = true
		}
	}
	for _, v := range values {
		if !used[termKey(v)] {
			out = append(out, v)
		}
	}
	return out
}

// Order arranges values of one predicate by an order index.
//
// Index entries without a matching value are dropped, an entry listed several
// times repeats the value, and values missing from the index are appended in
// the given order. A nil index leaves the order as is.
func Order(values []quad.Value, index []string) []quad.Value {
	if len(index) == 0 {
		return values
	}
	byTerm := make(map[string]quad.Value, len(values))
	for _, v := range values {
		byTerm[termKey(v)] = v
	}
	out := make([]quad.Value, 0, len(index))
	used := make(map[string]bool, len(index))
	for _, term := range index {
		k := indexKey(term)
		v, ok := byTerm[k]
		if !ok {
			continue
		}
		out = append(out, v)
		used[k] = true
	}
	for _, v := range values {
		if !used[termKey(v)] {
			out = append(out, v)
		}
	}
	return out
}

// Canonical replaces native values, which the N-Quads reader produces for
// some datatypes, with the equivalent typed literals.
func Canonical(v quad.Value) quad.Value {
	switch v := v.(type) {
	case quad.Int:
		return quad.TypedString{Value: quad.String(strconv.FormatInt(int64(v), 10)), Type: xsd.NS + "integer"}
	case quad.Float:
		s, err := formatFloat(float64(v), mapping.XSDDouble)
		if err != nil {
			return v
		}
		return quad.TypedString{Value: quad.String(s), Type: xsd.NS + "double"}
	case quad.Bool:
		return quad.TypedString{Value: quad.String(strconv.FormatBool(bool(v))), Type: xsd.NS + "boolean"}
	case quad.Time:
		return quad.TypedString{Value: quad.String(time.Time(v).UTC().Format(time.RFC3339Nano)), Type: xsd.NS + "dateTime"}
	}
	return v
}

func termKey(v quad.Value) string {
	return Canonical(v).String()
}

// indexKey parses an index entry the same way stored values are parsed,
// so that both sides get the same native conversions.
func indexKey(term string) string {
	q, err := nquads.Parse("<urn:s> <urn:p> " + term + " .")
	if err != nil || q.Object == nil {
		return term
	}
	return termKey(q.Object)
}
