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

package sparql

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/sparqlstorage/codec"
)

// Media types of the SPARQL 1.1 protocol.
const (
	ContentTypeResultsJSON = "application/sparql-results+json"
	ContentTypeNTriples    = "application/n-triples"
	ContentTypeQuery       = "application/sparql-query"
	ContentTypeUpdate      = "application/sparql-update"
)

// Results is the SPARQL 1.1 query results JSON document.
type Results struct {
	Head struct {
		Vars []string `json:"vars,omitempty"`
	} `json:"head"`
	Boolean *bool `json:"boolean,omitempty"`
	Results *struct {
		Bindings []map[string]Value `json:"bindings"`
	} `json:"results,omitempty"`
}

// Value is an RDF term in the results JSON format.
type Value struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Quad converts the term to a quad value.
func (v Value) Quad() (quad.Value, error) {
	switch v.Type {
	case "uri":
		return quad.IRI(v.Value), nil
	case "bnode":
		return quad.BNode(v.Value), nil
	case "literal", "typed-literal":
		switch {
		case v.Lang != "":
			return quad.LangString{Value: quad.String(v.Value), Lang: v.Lang}, nil
		case v.Datatype != "":
			return quad.TypedString{Value: quad.String(v.Value), Type: quad.IRI(v.Datatype)}, nil
		}
		return quad.String(v.Value), nil
	}
	return nil, fmt.Errorf("unknown term type %q", v.Type)
}

// ValueOf converts a quad value to a results JSON term.
func ValueOf(v quad.Value) Value {
	switch v := v.(type) {
	case quad.IRI:
		return Value{Type: "uri", Value: string(v)}
	case quad.BNode:
		return Value{Type: "bnode", Value: string(v)}
	case quad.String:
		return Value{Type: "literal", Value: string(v)}
	case quad.LangString:
		return Value{Type: "literal", Value: string(v.Value), Lang: v.Lang}
	case quad.TypedString:
		return Value{Type: "literal", Value: string(v.Value), Datatype: string(v.Type)}
	}
	if c := codec.Canonical(v); c != v {
		return ValueOf(c)
	}
	return Value{Type: "literal", Value: quad.StringOf(v)}
}

// ReadResults decodes a results JSON document.
func ReadResults(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Bindings converts the solutions of a SELECT result.
func (res *Results) Bindings() ([]Binding, error) {
	if res.Results == nil {
		return nil, fmt.Errorf("not a SELECT result")
	}
	out := make([]Binding, 0, len(res.Results.Bindings))
	for _, row := range res.Results.Bindings {
		b := make(Binding, len(row))
		for name, v := range row {
			qv, err := v.Quad()
			if err != nil {
				return nil, err
			}
			b[name] = qv
		}
		out = append(out, b)
	}
	return out, nil
}

// WriteBoolean writes the result of an ASK query.
func WriteBoolean(w io.Writer, ok bool) error {
	res := Results{Boolean: &ok}
	return json.NewEncoder(w).Encode(res)
}

// WriteBindings writes the result of a SELECT query.
func WriteBindings(w io.Writer, vars []string, rows []Binding) error {
	res := Results{}
	res.Head.Vars = vars
	res.Results = &struct {
		Bindings []map[string]Value `json:"bindings"`
	}{Bindings: make([]map[string]Value, 0, len(rows))}
	for _, row := range rows {
		m := make(map[string]Value, len(row))
		for name, v := range row {
			m[name] = ValueOf(v)
		}
		res.Results.Bindings = append(res.Results.Bindings, m)
	}
	return json.NewEncoder(w).Encode(res)
}
