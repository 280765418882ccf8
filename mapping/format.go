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

package mapping

import (
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Format is a value encoding strategy for a mapped property.
type Format string

const (
	// Resource stores the value as an IRI reference.
	Resource = Format("resource")
	// Literal stores the value as a plain literal.
	Literal = Format("literal")
	// TLiteral stores the value as a literal tagged with the entity language.
	TLiteral = Format("t_literal")

	XSDString   = Format("xsd:string")
	XSDInteger  = Format("xsd:integer")
	XSDInt      = Format("xsd:int")
	XSDLong     = Format("xsd:long")
	XSDDecimal  = Format("xsd:decimal")
	XSDDouble   = Format("xsd:double")
	XSDFloat    = Format("xsd:float")
	XSDBoolean  = Format("xsd:boolean")
	XSDDate     = Format("xsd:date")
	XSDDateTime = Format("xsd:dateTime")
)

var typedFormats = []Format{
	XSDString, XSDInteger, XSDInt, XSDLong,
	XSDDecimal, XSDDouble, XSDFloat,
	XSDBoolean, XSDDate, XSDDateTime,
}

// RDFType is the full rdf:type predicate.
const RDFType = quad.IRI(rdf.NS + "type")

// OrderPredicate links a subject to the value order of one of its
// multi-valued predicates. It is reserved and cannot be mapped to a field.
const OrderPredicate = quad.IRI("urn:sparqlstorage:order")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimSpace(s))
	switch f {
	case Resource, Literal, TLiteral:
		return f, nil
	}
	for _, t := range typedFormats {
		if f == t {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown value format %q", s)
}

// IsTyped reports whether the format produces typed literals.
func (f Format) IsTyped() bool {
	return strings.HasPrefix(string(f), "xsd:")
}

// Datatype returns the full datatype IRI of a typed format, or an empty IRI.
func (f Format) Datatype() quad.IRI {
	if !f.IsTyped() {
		return ""
	}
	return quad.IRI(xsd.NS + strings.TrimPrefix(string(f), "xsd:"))
}

// FormatForDatatype returns the typed format for a full datatype IRI.
func FormatForDatatype(dt quad.IRI) (Format, bool) {
	s := string(dt)
	if !strings.HasPrefix(s, xsd.NS) {
		return "", false
	}
	f := Format("xsd:" + strings.TrimPrefix(s, xsd.NS))
	for _, t := range typedFormats {
		if f == t {
			return f, true
		}
	}
	return "", false
}
