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

// Package entity contains the in-memory representation of a content entity
// as seen by the storage layer: an identified, typed bag of ordered fields.
package entity

import (
	"sort"
)

// Item is a single field item: a map from property name to value.
type Item map[string]interface{}

// Field is a named, ordered list of items.
type Field struct {
	Name  string
	Items []Item
}

// Values returns the values of one property in item order.
// Items without the property are skipped.
func (f *Field) Values(property string) []interface{} {
	if f == nil {
		return nil
	}
	out := make([]interface{}, 0, len(f.Items))
	for _, it := range f.Items {
		if v, ok := it[property]; ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Properties returns a sorted list of properties used by any item.
func (f *Field) Properties() []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, it := range f.Items {
		for p := range it {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether the field has no values at all.
func (f *Field) IsEmpty() bool {
	if f == nil {
		return true
	}
	for _, it := range f.Items {
		for _, v := range it {
			if v != nil {
				return false
			}
		}
	}
	return true
}

// Entity is a content entity. ID is the subject IRI in the triple store;
// it may be empty for entities that were not saved yet.
type Entity struct {
	ID       string
	Type     string
	Bundle   string
	Langcode string

	fields []*Field
}

// New creates an empty entity of a given type and bundle.
func New(typ, bundle string) *Entity {
	return &Entity{Type: typ, Bundle: bundle}
}

// Field returns a field by name, or nil.
func (e *Entity) Field(name string) *Field {
	for _, f := range e.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Fields returns all fields in insertion order.
// The returned slice may be modified by the caller, the fields may not.
func (e *Entity) Fields() []*Field {
	out := make([]*Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// FieldNames returns field names in insertion order.
func (e *Entity) FieldNames() []string {
	out := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		out = append(out, f.Name)
	}
	return out
}

// Set replaces the items of a field. A new field is appended at the end,
// an existing one keeps its position.
func (e *Entity) Set(name string, items ...Item) *Field {
	if f := e.Field(name); f != nil {
		f.Items = items
		return f
	}
	f := &Field{Name: name, Items: items}
	e.fields = append(e.fields, f)
	return f
}

// SetValues is a shorthand for fields with a single property:
// each value becomes one item.
func (e *Entity) SetValues(name, property string, values ...interface{}) *Field {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		items = append(items, Item{property: v})
	}
	return e.Set(name, items...)
}

// Values returns values of a field property, or nil if the field is not set.
func (e *Entity) Values(name, property string) []interface{} {
	return e.Field(name).Values(property)
}

// Remove deletes a field.
func (e *Entity) Remove(name string) {
	for i, f := range e.fields {
		if f.Name == name {
			e.fields = append(e.fields[:i], e.fields[i+1:]...)
			return
		}
	}
}

// Clone makes a copy of the entity, its fields and items.
// Values themselves are not copied.
func (e *Entity) Clone() *Entity {
	c := *e
	c.fields = make([]*Field, 0, len(e.fields))
	for _, f := range e.fields {
		nf := &Field{Name: f.Name, Items: make([]Item, 0, len(f.Items))}
		for _, it := range f.Items {
			ni := make(Item, len(it))
			for k, v := range it {
				ni[k] = v
			}
			nf.Items = append(nf.Items, ni)
		}
		c.fields = append(c.fields, nf)
	}
	return &c
}
