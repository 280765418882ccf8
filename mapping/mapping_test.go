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

package mapping_test

import (
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/mapping"
	"github.com/cayleygraph/sparqlstorage/mapping/mappingtest"
)

const (
	dc = mappingtest.DC
	ex = mappingtest.EX
)

func TestResolve(t *testing.T) {
	tbl := mappingtest.Table(t)

	m, err := tbl.Resolve("node", "article", "title", "value")
	require.NoError(t, err)
	require.Equal(t, quad.IRI(dc+"title"), m.Predicate)
	require.Equal(t, mapping.XSDString, m.Format)
	require.False(t, m.Multiple)

	m, err = tbl.Resolve("node", "article", "author", "target_id")
	require.NoError(t, err)
	require.True(t, m.IsReference())

	m, err = tbl.Resolve("node", "article", "tags", "value")
	require.NoError(t, err)
	require.True(t, m.Multiple)
	require.Equal(t, quad.IRI(ex+"tag"), m.Predicate)

	var cases = []struct {
		name   string
		bundle string
		field  string
		prop   string
		kind   errs.Kind
	}{
		{"unknown bundle", "blog", "title", "value", errs.UnmappedField},
		{"unknown field", "article", "subtitle", "value", errs.UnmappedField},
		{"property not mapped", "article", "body", "summary", errs.UnmappedField},
		{"property not defined", "article", "title", "summary", errs.NonExistingProperty},
		{"reference property", "article", "author", "value", errs.NonExistingProperty},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := tbl.Resolve("node", c.bundle, c.field, c.prop)
			require.Error(t, err)
			require.True(t, errs.Is(err, c.kind), "got %v", err)
		})
	}
}

func TestReverse(t *testing.T) {
	tbl := mappingtest.Table(t)

	// dc:title is shared by two bundles with different formats.
	m, ok := tbl.Reverse("node", "article", quad.IRI(dc+"title"))
	require.True(t, ok)
	require.Equal(t, "title", m.Field)
	require.Equal(t, mapping.XSDString, m.Format)

	m, ok = tbl.Reverse("node", "page", quad.IRI(dc+"title"))
	require.True(t, ok)
	require.Equal(t, mapping.Literal, m.Format)

	m, ok = tbl.Reverse("node", "article", quad.IRI(ex+"bodyFormat"))
	require.True(t, ok)
	require.Equal(t, mapping.Key{EntityType: "node", Bundle: "article", Field: "body", Property: "format"}, m.Key)

	_, ok = tbl.Reverse("node", "page", quad.IRI(ex+"tag"))
	require.False(t, ok)
}

func TestBundles(t *testing.T) {
	tbl := mappingtest.Table(t)

	b, ok := tbl.BundleByType("node", quad.IRI(ex+"Page"))
	require.True(t, ok)
	require.Equal(t, "page", b.Bundle)
	_, ok = tbl.BundleByType("item", quad.IRI(ex+"Page"))
	require.False(t, ok)

	_, ok = tbl.DefaultBundle("node")
	require.False(t, ok)
	b, ok = tbl.DefaultBundle("item")
	require.True(t, ok)
	require.Equal(t, "item", b.Bundle)
	require.Equal(t, quad.IRI(""), b.RDFType)

	var names []string
	for _, b := range tbl.Bundles() {
		names = append(names, b.EntityType+":"+b.Bundle)
	}
	require.Equal(t, []string{"item:item", "node:article", "node:page"}, names)

	require.Equal(t, []string{"tags", "title"}, tbl.Fields("item", "item"))
	f, ok := tbl.Field("node", "article", "body")
	require.True(t, ok)
	require.Equal(t, "text_with_summary", f.Type)
	require.Len(t, f.Properties, 2)
	require.Equal(t, "format", f.Properties[0].Property)

	require.Equal(t, dc+"title", tbl.Namespaces().FullIRI("dc:title"))
}

const bundleHead = `
namespaces:
  ex: http://example.com/
bundles:
  - entity_type: node
    bundle: a
    fields:
`

var loadErrors = []struct {
	name   string
	fields string
	kind   errs.Kind
	msg    string
}{
	{
		name: "unexpanded prefix",
		fields: `
      title:
        type: string
        properties:
          value: {predicate: "foo:title", format: literal}`,
		kind: errs.Config, msg: "not an absolute IRI",
	},
	{
		name: "shared predicate",
		fields: `
      title:
        type: string
        properties:
          value: {predicate: "ex:name", format: literal}
      label:
        type: string
        properties:
          value: {predicate: "ex:name", format: literal}`,
		kind: errs.Config, msg: "is used by both",
	},
	{
		name: "reserved predicate",
		fields: `
      kind:
        type: uri
        properties:
          value: {predicate: "rdf:type", format: resource}`,
		kind: errs.Config, msg: "reserved",
	},
	{
		name: "unknown format",
		fields: `
      title:
        type: string
        properties:
          value: {predicate: "ex:title", format: "xsd:duration"}`,
		kind: errs.Config, msg: "unknown value format",
	},
	{
		name: "unknown field type",
		fields: `
      title:
        type: paragraph
        properties:
          value: {predicate: "ex:title", format: literal}`,
		kind: errs.Config, msg: "unknown field type",
	},
	{
		name: "undefined property",
		fields: `
      title:
        type: string
        properties:
          summary: {predicate: "ex:summary", format: literal}`,
		kind: errs.NonExistingProperty,
	},
	{
		name: "missing predicate",
		fields: `
      title:
        type: string
        properties:
          value: {format: literal}`,
		kind: errs.Config, msg: "Predicate",
	},
	{
		name: "unknown key",
		fields: `
      title:
        type: string
        weight: 3
        properties:
          value: {predicate: "ex:title", format: literal}`,
		kind: errs.Config, msg: "weight",
	},
}

func TestLoadErrors(t *testing.T) {
	for _, c := range loadErrors {
		t.Run(c.name, func(t *testing.T) {
			_, err := mapping.Load(strings.NewReader(bundleHead + c.fields))
			require.Error(t, err)
			require.True(t, errs.Is(err, c.kind), "got %v", err)
			if c.msg != "" {
				require.Contains(t, err.Error(), c.msg)
			}
		})
	}
}

func TestLoadBundleErrors(t *testing.T) {
	_, err := mapping.Load(strings.NewReader(`
bundles:
  - entity_type: node
    bundle: a
    rdf_type: http://example.com/T
  - entity_type: node
    bundle: b
    rdf_type: http://example.com/T
`))
	require.True(t, errs.Is(err, errs.Config), "got %v", err)
	require.Contains(t, err.Error(), "share rdf_type")

	_, err = mapping.Load(strings.NewReader(`
bundles:
  - entity_type: node
    bundle: a
    base_uri: /relative/
`))
	require.True(t, errs.Is(err, errs.Config), "got %v", err)

	_, err = mapping.Load(strings.NewReader(`
namespaces:
  ex: example
bundles:
  - entity_type: node
    bundle: a
`))
	require.True(t, errs.Is(err, errs.Config), "got %v", err)

	_, err = mapping.Load(strings.NewReader(`bundles: []`))
	require.True(t, errs.Is(err, errs.Config), "got %v", err)
}

func TestCustomFieldType(t *testing.T) {
	tbl, err := mapping.Load(strings.NewReader(`
field_types:
  geo: [lat, lon]
bundles:
  - entity_type: place
    bundle: city
    rdf_type: <http://schema.org/City>
    fields:
      location:
        type: geo
        properties:
          lat: {predicate: "http://www.w3.org/2003/01/geo/wgs84_pos#lat", format: "xsd:double"}
          lon: {predicate: "http://www.w3.org/2003/01/geo/wgs84_pos#long", format: "xsd:double"}
`))
	require.NoError(t, err)
	b, ok := tbl.Bundle("place", "city")
	require.True(t, ok)
	require.Equal(t, quad.IRI("http://schema.org/City"), b.RDFType)
	require.True(t, tbl.FieldTypes().Has("geo", "lon"))
	require.True(t, tbl.FieldTypes().Has("string", "value"))
}

func TestFormat(t *testing.T) {
	f, err := mapping.ParseFormat(" xsd:dateTime ")
	require.NoError(t, err)
	require.Equal(t, mapping.XSDDateTime, f)
	require.True(t, f.IsTyped())
	require.Equal(t, quad.IRI("http://www.w3.org/2001/XMLSchema#dateTime"), f.Datatype())
	require.Equal(t, quad.IRI(""), mapping.Literal.Datatype())

	got, ok := mapping.FormatForDatatype("http://www.w3.org/2001/XMLSchema#integer")
	require.True(t, ok)
	require.Equal(t, mapping.XSDInteger, got)
	_, ok = mapping.FormatForDatatype("http://www.w3.org/2001/XMLSchema#gYear")
	require.False(t, ok)

	_, err = mapping.ParseFormat("html")
	require.Error(t, err)
}
