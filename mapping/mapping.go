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

// Package mapping implements the field mapping table: a read-only index from
// entity fields and properties to RDF predicates and value formats.
//
// A Table is built once from configuration (see Load) and never modified.
// Reloading the configuration means building a new Table.
package mapping

import (
	"sort"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"

	"github.com/cayleygraph/sparqlstorage/errs"
)

// Key identifies a mapped property.
type Key struct {
	EntityType string
	Bundle     string
	Field      string
	Property   string
}

// Mapping describes how one field property is stored.
type Mapping struct {
	Key
	FieldType string
	Predicate quad.IRI
	Format    Format
	Multiple  bool
}

// IsReference reports whether values are stored as resource references.
func (m Mapping) IsReference() bool { return m.Format == Resource }

// Bundle describes how a bundle is stored.
type Bundle struct {
	EntityType string
	Bundle     string
	// RDFType is written as rdf:type of every entity of the bundle.
	// It is optional; see Table.DefaultBundle.
	RDFType quad.IRI
	// BaseURI is used to generate IDs for new entities.
	BaseURI string
}

// Field is the mapping of a single field.
type Field struct {
	Name       string
	Type       string
	Multiple   bool
	Properties []Mapping
}

type bundleKey struct {
	typ, bundle string
}

type fieldInfo struct {
	typ      string
	multiple bool
	props    map[string]Mapping
}

type bundleInfo struct {
	Bundle
	fields map[string]*fieldInfo
	byPred map[quad.IRI]Mapping
}

// Table is the field mapping table. It is safe for concurrent use.
type Table struct {
	bundles map[bundleKey]*bundleInfo
	byType  map[string]map[quad.IRI]*bundleInfo
	untyped map[string][]*bundleInfo
	types   FieldTypes
	ns      *voc.Namespaces
}

// Namespaces returns the prefixes known to the table.
func (t *Table) Namespaces() *voc.Namespaces { return t.ns }

// FieldTypes returns the field type catalog used by the table.
func (t *Table) FieldTypes() FieldTypes { return t.types }

func (t *Table) bundle(typ, bundle string) *bundleInfo {
	return t.bundles[bundleKey{typ: typ, bundle: bundle}]
}

// Resolve returns the mapping of a field property.
//
// It fails with errs.UnmappedField if there is no mapping for the field or
// for the property, and with errs.NonExistingProperty if the field type does
// not define the property.
func (t *Table) Resolve(entityType, bundle, field, property string) (Mapping, error) {
	unmapped := func() (Mapping, error) {
		return Mapping{}, &errs.Error{
			Kind: errs.UnmappedField, Op: "resolve",
			Entity: entityType + ":" + bundle, Field: field, Property: property,
		}
	}
	b := t.bundle(entityType, bundle)
	if b == nil {
		return unmapped()
	}
	f, ok := b.fields[field]
	if !ok {
		return unmapped()
	}
	if !t.types.Has(f.typ, property) {
		return Mapping{}, &errs.Error{
			Kind: errs.NonExistingProperty, Op: "resolve",
			Entity: entityType + ":" + bundle, Field: field, Property: property,
		}
	}
	m, ok := f.props[property]
	if !ok {
		return unmapped()
	}
	return m, nil
}

// Reverse finds the mapping that uses a given predicate within a bundle.
func (t *Table) Reverse(entityType, bundle string, pred quad.IRI) (Mapping, bool) {
	b := t.bundle(entityType, bundle)
	if b == nil {
		return Mapping{}, false
	}
	m, ok := b.byPred[pred]
	return m, ok
}

// Bundle returns a bundle mapping.
func (t *Table) Bundle(entityType, bundle string) (Bundle, bool) {
	b := t.bundle(entityType, bundle)
	if b == nil {
		return Bundle{}, false
	}
	return b.Bundle, true
}

// BundleByType returns the bundle of an entity type that is stored with a given rdf:type.
func (t *Table) BundleByType(entityType string, rdfType quad.IRI) (Bundle, bool) {
	b, ok := t.byType[entityType][rdfType]
	if !ok {
		return Bundle{}, false
	}
	return b.Bundle, true
}

// DefaultBundle returns the only bundle of an entity type that has no rdf:type.
// Entities of such a bundle can be loaded without type triples.
func (t *Table) DefaultBundle(entityType string) (Bundle, bool) {
	list := t.untyped[entityType]
	if len(list) != 1 {
		return Bundle{}, false
	}
	return list[0].Bundle, true
}

// Bundles lists all bundle mappings, sorted by entity type and bundle.
func (t *Table) Bundles() []Bundle {
	out := make([]Bundle, 0, len(t.bundles))
	for _, b := range t.bundles {
		out = append(out, b.Bundle)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].Bundle < out[j].Bundle
	})
	return out
}

// Field returns the mapping of a field, with properties sorted by name.
func (t *Table) Field(entityType, bundle, field string) (Field, bool) {
	b := t.bundle(entityType, bundle)
	if b == nil {
		return Field{}, false
	}
	f, ok := b.fields[field]
	if !ok {
		return Field{}, false
	}
	out := Field{Name: field, Type: f.typ, Multiple: f.multiple}
	for _, m := range f.props {
		out.Properties = append(out.Properties, m)
	}
	sort.Slice(out.Properties, func(i, j int) bool {
		return out.Properties[i].Property < out.Properties[j].Property
	})
	return out, true
}

// Fields lists names of mapped fields of a bundle, sorted.
func (t *Table) Fields(entityType, bundle string) []string {
	b := t.bundle(entityType, bundle)
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.fields))
	for name := range b.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
