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

// Package codec converts single field property values to and from RDF terms.
//
// Decoded values use a small set of Go types: string, int64, float64, bool
// and time.Time (UTC). Encode accepts those plus the other integer and float
// types, json.Number and lexical forms given as strings.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"

	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

const (
	dateLayout = "2006-01-02"
	// dateTime without a zone is read as UTC
	localDateTime = "2006-01-02T15:04:05"
)

var (
	langString = quad.IRI(rdf.NS + "langString")
	xsdString  = quad.IRI(xsd.NS + "string")
)

func encodingErr(m mapping.Mapping, format string, args ...interface{}) error {
	return &errs.Error{
		Kind: errs.Encoding, Op: "encode",
		Entity: m.EntityType + ":" + m.Bundle, Field: m.Field, Property: m.Property,
		Err: fmt.Errorf(format, args...),
	}
}

func decodingErr(m mapping.Mapping, format string, args ...interface{}) error {
	e := encodingErr(m, format, args...).(*errs.Error)
	e.Op = "decode"
	return e
}

// Encode converts a value to an RDF term according to the mapping format.
// Lang is used by the t_literal format; an empty lang produces a plain literal.
func Encode(v interface{}, m mapping.Mapping, lang string) (quad.Value, error) {
	if v == nil {
		return nil, encodingErr(m, "empty value")
	}
	switch m.Format {
	case mapping.Resource:
		s, ok := stringOf(v)
		if !ok {
			return nil, encodingErr(m, "expected an IRI, got %T", v)
		}
		if !IsIRI(s) {
			return nil, encodingErr(m, "not an absolute IRI: %q", s)
		}
		return quad.IRI(s), nil
	case mapping.Literal:
		s, err := lexical(v)
		if err != nil {
			return nil, encodingErr(m, "%v", err)
		}
		return quad.String(s), nil
	case mapping.TLiteral:
		s, ok := stringOf(v)
		if !ok {
			return nil, encodingErr(m, "expected a string, got %T", v)
		}
		if lang == "" || lang == "und" {
			return quad.String(s), nil
		}
		return quad.LangString{Value: quad.String(s), Lang: lang}, nil
	}
	if !m.Format.IsTyped() {
		return nil, encodingErr(m, "unknown format %q", m.Format)
	}
	s, err := typedLexical(v, m.Format)
	if err != nil {
		return nil, encodingErr(m, "%s: %v", m.Format, err)
	}
	return quad.TypedString{Value: quad.String(s), Type: m.Format.Datatype()}, nil
}

// Decode converts an RDF term back to a value according to the mapping format.
//
// Typed literals are decoded by their own datatype, so a value stored as
// xsd:int is still read by an xsd:integer mapping. Literals with an unknown
// datatype fail with an errs.Encoding error.
func Decode(t quad.Value, m mapping.Mapping) (interface{}, error) {
	if t == nil {
		return nil, decodingErr(m, "empty term")
	}
	switch m.Format {
	case mapping.Resource:
		switch t := t.(type) {
		case quad.IRI:
			return string(t), nil
		case quad.BNode:
			return nil, decodingErr(m, "blank node %v cannot be referenced", t)
		}
		return nil, decodingErr(m, "expected an IRI, got %v", t)
	case mapping.Literal, mapping.TLiteral:
		switch t := t.(type) {
		case quad.String:
			return string(t), nil
		case quad.LangString:
			return string(t.Value), nil
		case quad.TypedString:
			if t.Type == xsdString || t.Type == langString {
				return string(t.Value), nil
			}
			return nil, decodingErr(m, "unexpected datatype %s", t.Type)
		}
		return nil, decodingErr(m, "expected a literal, got %v", t)
	}
	if !m.Format.IsTyped() {
		return nil, decodingErr(m, "unknown format %q", m.Format)
	}
	switch t := t.(type) {
	case quad.TypedString:
		f, ok := mapping.FormatForDatatype(t.Type)
		if !ok {
			return nil, decodingErr(m, "unrecognized datatype %s", t.Type)
		}
		v, err := parseLexical(string(t.Value), f)
		if err != nil {
			return nil, decodingErr(m, "%v", err)
		}
		return v, nil
	case quad.String:
		v, err := parseLexical(string(t), m.Format)
		if err != nil {
			return nil, decodingErr(m, "%v", err)
		}
		return v, nil
	case quad.LangString:
		if m.Format == mapping.XSDString {
			return string(t.Value), nil
		}
	case quad.Int:
		return int64(t), nil
	case quad.Float:
		return float64(t), nil
	case quad.Bool:
		return bool(t), nil
	case quad.Time:
		return time.Time(t).UTC(), nil
	}
	return nil, decodingErr(m, "cannot decode %v as %s", t, m.Format)
}

// IsIRI reports whether s can be written as an absolute IRI reference.
func IsIRI(s string) bool {
	if strings.ContainsAny(s, "<>\" {}|\\^`") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func stringOf(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case quad.IRI:
		return string(v), true
	case quad.String:
		return string(v), true
	case json.Number:
		return string(v), true
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

// lexical returns a plain string form of scalar values.
func lexical(v interface{}) (string, error) {
	if s, ok := stringOf(v); ok {
		return s, nil
	}
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	if n, ok := toInt(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

func toInt(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func typedLexical(v interface{}, f mapping.Format) (string, error) {
	switch f {
	case mapping.XSDString:
		return lexical(v)
	case mapping.XSDInteger, mapping.XSDInt, mapping.XSDLong:
		n, ok := toInt(v)
		if !ok {
			if x, isFloat := toFloat(v); isFloat {
				if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
					return "", fmt.Errorf("%v is not an integer", x)
				}
				n = int64(x)
			} else if s, isStr := stringOf(v); isStr {
				p, err := parseLexical(s, f)
				if err != nil {
					return "", err
				}
				n = p.(int64)
			} else {
				return "", fmt.Errorf("expected an integer, got %T", v)
			}
		}
		if f == mapping.XSDInt && (n < math.MinInt32 || n > math.MaxInt32) {
			return "", fmt.Errorf("%d is out of range", n)
		}
		return strconv.FormatInt(n, 10), nil
	case mapping.XSDDecimal, mapping.XSDDouble, mapping.XSDFloat:
		x, ok := toFloat(v)
		if !ok {
			s, isStr := stringOf(v)
			if !isStr {
				return "", fmt.Errorf("expected a number, got %T", v)
			}
			p, err := parseLexical(s, f)
			if err != nil {
				return "", err
			}
			x = p.(float64)
		}
		return formatFloat(x, f)
	case mapping.XSDBoolean:
		switch v := v.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := parseLexical(v, f)
			if err != nil {
				return "", err
			}
			return strconv.FormatBool(b.(bool)), nil
		}
		if n, ok := toInt(v); ok && (n == 0 || n == 1) {
			return strconv.FormatBool(n == 1), nil
		}
		return "", fmt.Errorf("expected a boolean, got %T", v)
	case mapping.XSDDate, mapping.XSDDateTime:
		var t time.Time
		switch v := v.(type) {
		case time.Time:
			t = v
		case string:
			p, err := parseTime(v)
			if err != nil {
				return "", err
			}
			t = p
		default:
			return "", fmt.Errorf("expected a time, got %T", v)
		}
		if f == mapping.XSDDate {
			return t.Format(dateLayout), nil
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return "", fmt.Errorf("unsupported format")
}

func formatFloat(x float64, f mapping.Format) (string, error) {
	switch {
	case math.IsNaN(x):
		if f == mapping.XSDDecimal {
			return "", fmt.Errorf("NaN is not a decimal")
		}
		return "NaN", nil
	case math.IsInf(x, 0):
		if f == mapping.XSDDecimal {
			return "", fmt.Errorf("infinity is not a decimal")
		}
		if x > 0 {
			return "INF", nil
		}
		return "-INF", nil
	}
	if f == mapping.XSDDecimal {
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	bits := 64
	if f == mapping.XSDFloat {
		bits = 32
	}
	return strings.ToUpper(strconv.FormatFloat(x, 'g', -1, bits)), nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(localDateTime, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

// parseLexical parses the lexical form of a typed literal.
// Strings are kept as is, other forms may be padded with whitespace.
func parseLexical(s string, f mapping.Format) (interface{}, error) {
	if f == mapping.XSDString {
		return s, nil
	}
	s = strings.TrimSpace(s)
	switch f {
	case mapping.XSDInteger, mapping.XSDInt, mapping.XSDLong:
		n, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", f, s)
		}
		return n, nil
	case mapping.XSDDecimal, mapping.XSDDouble, mapping.XSDFloat:
		switch s {
		case "INF", "+INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		}
		if strings.ContainsAny(s, "nNiI") {
			return nil, fmt.Errorf("invalid %s %q", f, s)
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", f, s)
		}
		return x, nil
	case mapping.XSDBoolean:
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid %s %q", f, s)
	case mapping.XSDDate:
		// a date may carry a zone suffix
		if len(s) >= len(dateLayout) {
			if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("invalid %s %q", f, s)
	case mapping.XSDDateTime:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err == nil {
			return t.UTC(), nil
		}
		if t, err = time.Parse(localDateTime, s); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("invalid %s %q", f, s)
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}
