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

// Package storage stores entities in a SPARQL triple store.
//
// Insert checks that the subject is new with an ASK query before writing.
// The check and the write are separate requests, so two clients inserting
// the same subject at the same time may both succeed; the second write then
// merges its triples into the first entity. Callers that need strict
// uniqueness must serialize inserts of the same ID.
//
// No operation is retried. Every operation is bounded by the client timeout
// and a timeout is reported as an errs.Query error with cause errs.Timeout.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
	"github.com/cayleygraph/sparqlstorage/sparql"
	"github.com/cayleygraph/sparqlstorage/triples"
)

// DefaultTimeout bounds every operation unless WithTimeout is used.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout of a single operation. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHooks sets the value hooks.
func WithHooks(d *hook.Dispatcher) Option {
	return func(c *Client) { c.convOpts = append(c.convOpts, triples.WithHooks(d)) }
}

// WithIDGenerator sets the function generating IDs of new entities.
func WithIDGenerator(fn triples.IDFunc) Option {
	return func(c *Client) { c.convOpts = append(c.convOpts, triples.WithIDGenerator(fn)) }
}

// Client stores entities through a SPARQL executor.
type Client struct {
	exec     sparql.Executor
	conv     *triples.Converter
	timeout  time.Duration
	convOpts []triples.Option
}

// New creates a storage client.
func New(exec sparql.Executor, table *mapping.Table, opts ...Option) *Client {
	c := &Client{exec: exec, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	c.conv = triples.New(table, c.convOpts...)
	c.convOpts = nil
	return c
}

// Converter returns the entity converter used by the client.
func (c *Client) Converter() *triples.Converter { return c.conv }

// Executor returns the underlying SPARQL executor.
func (c *Client) Executor() sparql.Executor { return c.exec }

func (c *Client) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// check rejects entities that cannot be converted at all.
func check(op string, e *entity.Entity) error {
	if e == nil {
		return errs.New(errs.Encoding, op, "no entity")
	}
	if e.Type == "" || e.Bundle == "" {
		return &errs.Error{Kind: errs.Encoding, Op: op, Entity: e.ID, Err: fmt.Errorf("entity type and bundle are required")}
	}
	return nil
}

func (c *Client) outbound(ctx context.Context, op string, e *entity.Entity) (*triples.Outbound, error) {
	out, err := c.conv.Outbound(ctx, e)
	if err != nil {
		return nil, err
	}
	if len(out.Quads) == 0 {
		return nil, &errs.Error{
			Kind: errs.Encoding, Op: op, Entity: e.ID,
			Err: fmt.Errorf("entity has no values to store"),
		}
	}
	mEntityTriples.Observe(float64(len(out.Quads)))
	return out, nil
}

// Insert writes a new entity. An entity without ID gets a generated one,
// which is stored in e.ID. If nothing was written, e.ID is restored.
//
// It fails with errs.DuplicatedID if the subject already has triples.
// If some fields were skipped, the entity is still written and an
// *errs.FieldErrors is returned.
func (c *Client) Insert(ctx context.Context, e *entity.Entity) (err error) {
	start := time.Now()
	defer func() { observe("insert", start, err) }()
	if err = check("insert", e); err != nil {
		return err
	}
	id := e.ID
	defer func() {
		if err != nil && !errs.Partial(err) {
			e.ID = id
		}
	}()
	ctx, cancel := c.context(ctx)
	defer cancel()

	out, err := c.outbound(ctx, "insert", e)
	if err != nil {
		return err
	}
	exists, err := c.exec.Ask(ctx, sparql.AskSubject(out.Subject))
	if err != nil {
		return err
	}
	if exists {
		return &errs.Error{Kind: errs.DuplicatedID, Op: "insert", Entity: e.ID}
	}
	if err = c.exec.Update(ctx, sparql.InsertData(out.Quads)); err != nil {
		return err
	}
	if clog.V(1) {
		clog.For(e.ID).Infof("inserted %d triples", len(out.Quads))
	}
	return out.Err()
}

// Update replaces all triples of an existing entity in a single request.
// The entity must have an ID.
func (c *Client) Update(ctx context.Context, e *entity.Entity) (err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()
	if err = check("update", e); err != nil {
		return err
	}
	if e.ID == "" {
		return &errs.Error{Kind: errs.Encoding, Op: "update", Entity: e.Type + ":" + e.Bundle, Err: fmt.Errorf("entity has no id")}
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	out, err := c.outbound(ctx, "update", e)
	if err != nil {
		return err
	}
	if err = c.exec.Update(ctx, sparql.ReplaceSubject(out.Subject, out.Quads)); err != nil {
		return err
	}
	if clog.V(1) {
		clog.For(e.ID).Infof("replaced with %d triples", len(out.Quads))
	}
	return out.Err()
}

// Query returns all triples of a subject.
func (c *Client) Query(ctx context.Context, subject string) (_ []quad.Quad, err error) {
	start := time.Now()
	defer func() { observe("query", start, err) }()
	s, err := triples.Subject(subject)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	return c.exec.Construct(ctx, sparql.ConstructSubject(s))
}

// Load reads an entity of a given type.
//
// It fails with errs.NotFound if the subject has no triples. If some fields
// could not be decoded, the entity is returned along with an *errs.FieldErrors.
func (c *Client) Load(ctx context.Context, entityType, subject string) (_ *entity.Entity, err error) {
	start := time.Now()
	defer func() { observe("load", start, err) }()
	s, err := triples.Subject(subject)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	quads, err := c.exec.Construct(ctx, sparql.ConstructSubject(s))
	if err != nil {
		return nil, err
	}
	in, err := c.conv.Inbound(ctx, entityType, subject, quads)
	if err != nil {
		return nil, err
	}
	return in.Entity, in.Err()
}

// Exists reports whether a subject has any triples.
func (c *Client) Exists(ctx context.Context, subject string) (_ bool, err error) {
	start := time.Now()
	defer func() { observe("exists", start, err) }()
	s, err := triples.Subject(subject)
	if err != nil {
		return false, err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	return c.exec.Ask(ctx, sparql.AskSubject(s))
}

// Ping checks that the store answers queries.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observe("ping", start, err) }()
	ctx, cancel := c.context(ctx)
	defer cancel()
	_, err = c.exec.Ask(ctx, sparql.AskAny)
	return err
}

// LoadBundle reads an entity of a known bundle. Unlike Load, the bundle is
// not derived from rdf:type, so it works for any number of untyped bundles.
func (c *Client) LoadBundle(ctx context.Context, entityType, bundle, subject string) (_ *entity.Entity, err error) {
	start := time.Now()
	defer func() { observe("load", start, err) }()
	s, err := triples.Subject(subject)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	quads, err := c.exec.Construct(ctx, sparql.ConstructSubject(s))
	if err != nil {
		return nil, err
	}
	in, err := c.conv.InboundBundle(ctx, entityType, bundle, subject, quads)
	if err != nil {
		return nil, err
	}
	return in.Entity, in.Err()
}

// Delete removes all triples of a subject. Deleting a subject without
// triples is not an error.
func (c *Client) Delete(ctx context.Context, subject string) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()
	s, err := triples.Subject(subject)
	if err != nil {
		return err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	if err = c.exec.Update(ctx, sparql.DeleteSubject(s)); err != nil {
		return err
	}
	if clog.V(1) {
		clog.For(subject).Infof("deleted")
	}
	return nil
}

// List returns IDs of entities of a bundle, sorted. The bundle must have
// an rdf:type. Limit and offset are ignored when not positive.
func (c *Client) List(ctx context.Context, entityType, bundle string, limit, offset int) (_ []string, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()
	b, ok := c.conv.Table().Bundle(entityType, bundle)
	if !ok {
		return nil, &errs.Error{
			Kind: errs.UnmappedField, Op: "list", Entity: entityType + ":" + bundle,
			Err: fmt.Errorf("bundle is not mapped"),
		}
	}
	if b.RDFType == "" {
		return nil, errs.New(errs.Config, "list", "bundle %s:%s has no rdf_type", entityType, bundle)
	}
	ctx, cancel := c.context(ctx)
	defer cancel()
	rows, err := c.exec.Select(ctx, sparql.SelectByType(b.RDFType, limit, offset))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if iri, ok := row["s"].(quad.IRI); ok {
			out = append(out, string(iri))
		}
	}
	return out, nil
}

// InsertBatch inserts entities one by one and returns how many were written.
//
// The list is checked before anything is written: a nil entity or one
// without type or bundle fails the batch with errs.Encoding. After that it
// stops at the first failure; entities written before it stay in the
// store. Skipped fields of written entities are returned together as an
// *errs.FieldErrors when nothing else failed.
func (c *Client) InsertBatch(ctx context.Context, list []*entity.Entity) (int, error) {
	for i, e := range list {
		if err := check("insert batch", e); err != nil {
			return 0, &errs.Error{Kind: errs.Encoding, Op: "insert batch", Err: fmt.Errorf("entity %d: %w", i, err)}
		}
	}
	var skipped []error
	for i, e := range list {
		err := c.Insert(ctx, e)
		if errs.Partial(err) {
			skipped = append(skipped, err)
		} else if err != nil {
			return i, err
		}
	}
	return len(list), errs.Fields("batch", skipped)
}
