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

// Package sparqltest provides an in-memory triple store that understands the
// SPARQL subset built by package sparql. It can be used as a sparql.Executor
// directly or served over HTTP with the SPARQL 1.1 protocol.
package sparqltest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/sparql"
)

var (
	reIRI       = `(<[^<>\s]*>)`
	reAskAny    = regexp.MustCompile(`^ASK\s*\{\s*\?s\s+\?p\s+\?o\s*\}$`)
	reAsk       = regexp.MustCompile(`^ASK\s*\{\s*` + reIRI + `\s+\?p\s+\?o\s*\}$`)
	reConstruct = regexp.MustCompile(`^CONSTRUCT\s*\{\s*` + reIRI + `\s+\?p\s+\?o\s*\}\s*WHERE\s*\{\s*` + reIRI + `\s+\?p\s+\?o\s*\}$`)
	reSelect    = regexp.MustCompile(`^SELECT\s+DISTINCT\s+\?s\s+WHERE\s*\{\s*\?s\s+` + reIRI + `\s+` + reIRI +
		`\s*\}\s*ORDER\s+BY\s+\?s(?:\s+LIMIT\s+(\d+))?(?:\s+OFFSET\s+(\d+))?$`)
	reDeleteWhere = regexp.MustCompile(`^DELETE\s+WHERE\s*\{\s*` + reIRI + `\s+\?p\s+\?o\s*\}$`)
	reData        = regexp.MustCompile(`(?s)^(INSERT|DELETE)\s+DATA\s*\{(.*)\}$`)
)

// Store is an in-memory triple store. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	quads map[string]quad.Quad
	reqs  []string
	delay time.Duration
	fail  error
}

var _ sparql.Executor = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{quads: make(map[string]quad.Quad)}
}

// SetDelay delays every request.
func (s *Store) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// FailWith makes every request fail with err. A nil error restores the store.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Requests returns all queries and updates received so far.
func (s *Store) Requests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.reqs...)
}

func key(q quad.Quad) string {
	return q.Subject.String() + " " + q.Predicate.String() + " " + q.Object.String()
}

// Add writes triples to the store.
func (s *Store) Add(quads ...quad.Quad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(quads)
}

func (s *Store) add(quads []quad.Quad) {
	for _, q := range quads {
		q.Label = nil
		q.Object = codec.Canonical(q.Object)
		s.quads[key(q)] = q
	}
}

// Quads returns all triples, sorted by subject, predicate and object.
func (s *Store) Quads() []quad.Quad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match(nil)
}

// Len returns the number of triples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quads)
}

// match returns sorted triples of a subject, or all triples for nil.
func (s *Store) match(sub quad.Value) []quad.Quad {
	keys := make([]string, 0, len(s.quads))
	for k, q := range s.quads {
		if sub == nil || q.Subject.String() == sub.String() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]quad.Quad, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.quads[k])
	}
	return out
}

// begin records a request and applies the configured delay and failure.
func (s *Store) begin(ctx context.Context, op, req string) error {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	delay, fail := s.delay, s.fail
	s.mu.Unlock()
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		cause := errs.Transport
		if errors.Is(err, context.DeadlineExceeded) {
			cause = errs.Timeout
		}
		return errs.QueryError(op, cause, err)
	}
	if fail != nil {
		return errs.QueryError(op, errs.Transport, fail)
	}
	return nil
}

func malformed(op, req string) error {
	return errs.QueryError(op, errs.Malformed, fmt.Errorf("unsupported request: %q", req))
}

func parseIRI(s string) quad.IRI {
	return quad.IRI(strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">"))
}

// Ask implements sparql.Executor.
func (s *Store) Ask(ctx context.Context, query string) (bool, error) {
	query = strings.TrimSpace(query)
	if err := s.begin(ctx, "ask", query); err != nil {
		return false, err
	}
	if reAskAny.MatchString(query) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.quads) != 0, nil
	}
	m := reAsk.FindStringSubmatch(query)
	if m == nil {
		return false, malformed("ask", query)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(parseIRI(m[1]))) != 0, nil
}

// Construct implements sparql.Executor.
func (s *Store) Construct(ctx context.Context, query string) ([]quad.Quad, error) {
	query = strings.TrimSpace(query)
	if err := s.begin(ctx, "construct", query); err != nil {
		return nil, err
	}
	m := reConstruct.FindStringSubmatch(query)
	if m == nil || m[1] != m[2] {
		return nil, malformed("construct", query)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match(parseIRI(m[1])), nil
}

// Select implements sparql.Executor.
func (s *Store) Select(ctx context.Context, query string) ([]sparql.Binding, error) {
	query = strings.TrimSpace(query)
	if err := s.begin(ctx, "select", query); err != nil {
		return nil, err
	}
	m := reSelect.FindStringSubmatch(query)
	if m == nil {
		return nil, malformed("select", query)
	}
	pred, obj := parseIRI(m[1]), parseIRI(m[2])
	limit, _ := strconv.Atoi(m[3])
	offset, _ := strconv.Atoi(m[4])

	s.mu.RLock()
	seen := make(map[string]bool)
	var subs []string
	for _, q := range s.quads {
		if q.Predicate.String() != pred.String() || q.Object.String() != obj.String() {
			continue
		}
		if iri, ok := q.Subject.(quad.IRI); ok && !seen[string(iri)] {
			seen[string(iri)] = true
			subs = append(subs, string(iri))
		}
	}
	s.mu.RUnlock()
	sort.Strings(subs)
	if offset > len(subs) {
		offset = len(subs)
	}
	subs = subs[offset:]
	if limit > 0 && limit < len(subs) {
		subs = subs[:limit]
	}
	out := make([]sparql.Binding, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sparql.Binding{"s": quad.IRI(sub)})
	}
	return out, nil
}

// Update implements sparql.Executor. Operations of one request are applied
// atomically.
func (s *Store) Update(ctx context.Context, update string) error {
	update = strings.TrimSpace(update)
	if err := s.begin(ctx, "update", update); err != nil {
		return err
	}
	type op struct {
		del  bool
		sub  quad.IRI
		data []quad.Quad
	}
	var ops []op
	for _, part := range strings.Split(update, " ;\n") {
		part = strings.TrimSpace(part)
		if m := reDeleteWhere.FindStringSubmatch(part); m != nil {
			ops = append(ops, op{del: true, sub: parseIRI(m[1])})
			continue
		}
		m := reData.FindStringSubmatch(part)
		if m == nil {
			return malformed("update", part)
		}
		quads, err := parseData(m[2])
		if err != nil {
			return errs.QueryError("update", errs.Malformed, err)
		}
		ops = append(ops, op{del: m[1] == "DELETE", data: quads})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range ops {
		switch {
		case o.sub != "":
			for _, q := range s.match(o.sub) {
				delete(s.quads, key(q))
			}
		case o.del:
			for _, q := range o.data {
				q.Object = codec.Canonical(q.Object)
				delete(s.quads, key(q))
			}
		default:
			s.add(o.data)
		}
	}
	return nil
}

func parseData(body string) ([]quad.Quad, error) {
	var out []quad.Quad
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		q, err := nquads.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%v: %q", err, line)
		}
		if q.Label != nil {
			return nil, fmt.Errorf("named graphs are not supported: %q", line)
		}
		out = append(out, q)
	}
	return out, nil
}
