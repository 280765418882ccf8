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

// Package mappingtest provides a mapping table shared by tests of packages
// that build on top of mapping.
package mappingtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/sparqlstorage/mapping"
)

// Namespaces used by Config.
const (
	DC = "http://purl.org/dc/terms/"
	EX = "http://example.com/"
)

// Config describes three bundles:
//
//   - item:item has no rdf:type and maps title and multi-valued tags;
//   - node:article covers every value format;
//   - node:page shares dc:title with node:article and has a multi-valued
//     link field with two properties.
const Config = `
namespaces:
  dc: http://purl.org/dc/terms/
  ex: http://example.com/
bundles:
  - entity_type: item
    bundle: item
    base_uri: http://example.com/
    fields:
      title:
        type: string
        properties:
          value: {predicate: "dc:title", format: literal}
      tags:
        type: string
        multiple: true
        properties:
          value: {predicate: "ex:tag", format: literal}
  - entity_type: node
    bundle: article
    rdf_type: ex:Article
    base_uri: http://example.com/article/
    fields:
      title:
        type: string
        properties:
          value: {predicate: "dc:title", format: "xsd:string"}
      body:
        type: text_with_summary
        properties:
          value: {predicate: "ex:body", format: t_literal}
          format: {predicate: "ex:bodyFormat", format: literal}
      tags:
        type: string
        multiple: true
        properties:
          value: {predicate: "ex:tag", format: literal}
      weight:
        type: integer
        properties:
          value: {predicate: "ex:weight", format: "xsd:integer"}
      rating:
        type: decimal
        properties:
          value: {predicate: "ex:rating", format: "xsd:decimal"}
      score:
        type: float
        properties:
          value: {predicate: "ex:score", format: "xsd:double"}
      sticky:
        type: boolean
        properties:
          value: {predicate: "ex:sticky", format: "xsd:boolean"}
      published:
        type: datetime
        properties:
          value: {predicate: "dc:issued", format: "xsd:date"}
      created:
        type: created
        properties:
          value: {predicate: "dc:created", format: "xsd:dateTime"}
      author:
        type: entity_reference
        properties:
          target_id: {predicate: "dc:creator", format: resource}
      related:
        type: entity_reference
        multiple: true
        properties:
          target_id: {predicate: "dc:relation", format: resource}
  - entity_type: node
    bundle: page
    rdf_type: ex:Page
    base_uri: http://example.com/page/
    fields:
      title:
        type: string
        properties:
          value: {predicate: "dc:title", format: literal}
      links:
        type: link
        multiple: true
        properties:
          uri: {predicate: "ex:link", format: resource}
          title: {predicate: "ex:linkTitle", format: literal}
`

// Table loads Config.
func Table(t testing.TB) *mapping.Table {
	tbl, err := mapping.Load(strings.NewReader(Config))
	require.NoError(t, err)
	return tbl
}
