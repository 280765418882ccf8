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

// Package sparql builds the SPARQL 1.1 queries and updates used to store
// entities and executes them against a triple store.
package sparql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"
)

// Binding is one solution of a SELECT query.
type Binding map[string]quad.Value

// Executor runs SPARQL queries and updates.
//
// Failures are returned as *errs.Error of kind errs.Query, with a Cause
// telling transport problems, rejected requests and timeouts apart.
type Executor interface {
	Ask(ctx context.Context, query string) (bool, error)
	Select(ctx context.Context, query string) ([]Binding, error)
	Construct(ctx context.Context, query string) ([]quad.Quad, error)
	Update(ctx context.Context, update string) error
}

// Term formats a value as a SPARQL term.
func Term(v quad.Value) string {
	return v.String()
}

func triple(q quad.Quad) string {
	return Term(q.Subject) + " " + Term(q.Predicate) + " " + Term(q.Object) + " ."
}

// AskSubject checks whether a subject has any triples.
func AskSubject(s quad.IRI) string {
	return fmt.Sprintf("ASK { %s ?p ?o }", Term(s))
}

// AskAny is a cheap query that succeeds on any reachable store.
const AskAny = "ASK { ?s ?p ?o }"

// ConstructSubject returns all triples of a subject.
func ConstructSubject(s quad.IRI) string {
	t := Term(s)
	return fmt.Sprintf("CONSTRUCT { %s ?p ?o } WHERE { %s ?p ?o }", t, t)
}

// SelectByType lists subjects with a given rdf:type, sorted.
// Limit and offset are ignored when not positive.
func SelectByType(rdfType quad.IRI, limit, offset int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT DISTINCT ?s WHERE { ?s %s %s } ORDER BY ?s",
		Term(quad.IRI(rdfTypeIRI)), Term(rdfType))
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

const rdfTypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// InsertData writes triples.
func InsertData(quads []quad.Quad) string {
	return dataBlock("INSERT DATA", quads)
}

// DeleteData removes the given triples.
func DeleteData(quads []quad.Quad) string {
	return dataBlock("DELETE DATA", quads)
}

func dataBlock(op string, quads []quad.Quad) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteString(" {\n")
	for _, q := range quads {
		b.WriteString("  ")
		b.WriteString(triple(q))
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// DeleteSubject removes all triples of a subject.
func DeleteSubject(s quad.IRI) string {
	return fmt.Sprintf("DELETE WHERE { %s ?p ?o }", Term(s))
}

// ReplaceSubject removes all triples of a subject and writes new ones
// in a single request.
func ReplaceSubject(s quad.IRI, quads []quad.Quad) string {
	return Join(DeleteSubject(s), InsertData(quads))
}

// Join combines update operations into one request.
func Join(ops ...string) string {
	return strings.Join(ops, " ;\n")
}
