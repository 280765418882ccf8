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

// Package triples converts entities to sets of triples and back.
package triples

import (
	"github.com/cayleygraph/quad"
	"github.com/google/uuid"

	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

// IDFunc generates a subject IRI for a new entity of a bundle.
type IDFunc func(b mapping.Bundle) (string, error)

// NewID appends a random UUID to the bundle base URI.
func NewID(b mapping.Bundle) (string, error) {
	if b.BaseURI == "" {
		return "", errs.New(errs.Config, "generate id", "bundle %s:%s has no base_uri", b.EntityType, b.Bundle)
	}
	return b.BaseURI + uuid.NewString(), nil
}

// Option configures a Converter.
type Option func(*Converter)

// WithHooks sets the hooks run on every field property.
func WithHooks(d *hook.Dispatcher) Option {
	return func(c *Converter) { c.hooks = d }
}

// WithIDGenerator replaces NewID.
func WithIDGenerator(fn IDFunc) Option {
	return func(c *Converter) { c.newID = fn }
}

// Converter assembles and disassembles entity triples using a mapping table.
type Converter struct {
	table *mapping.Table
	hooks *hook.Dispatcher
	newID IDFunc
}

// New creates a converter.
func New(t *mapping.Table, opts ...Option) *Converter {
	c := &Converter{table: t, newID: NewID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the mapping table of the converter.
func (c *Converter) Table() *mapping.Table { return c.table }

// Hooks returns the hook dispatcher, which may be nil.
func (c *Converter) Hooks() *hook.Dispatcher { return c.hooks }

// Subject validates an entity ID and returns it as an IRI.
func Subject(id string) (quad.IRI, error) {
	if !codec.IsIRI(id) {
		return "", errs.New(errs.Encoding, "subject", "not an absolute IRI: %q", id)
	}
	return quad.IRI(id), nil
}
