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

import "sort"

// FieldTypes lists the properties defined by each field type.
type FieldTypes map[string][]string

// DefaultFieldTypes are the field types of the host content framework.
func DefaultFieldTypes() FieldTypes {
	return FieldTypes{
		"string":            {"value"},
		"string_long":       {"value"},
		"text":              {"value", "format"},
		"text_long":         {"value", "format"},
		"text_with_summary": {"value", "summary", "format"},
		"integer":           {"value"},
		"decimal":           {"value"},
		"float":             {"value"},
		"boolean":           {"value"},
		"datetime":          {"value"},
		"timestamp":         {"value"},
		"created":           {"value"},
		"changed":           {"value"},
		"entity_reference":  {"target_id"},
		"link":              {"uri", "title"},
		"email":             {"value"},
		"uri":               {"value"},
		"language":          {"value"},
	}
}

// Has reports whether a field type defines a property.
func (t FieldTypes) Has(typ, property string) bool {
	for _, p := range t[typ] {
		if p == property {
			return true
		}
	}
	return false
}

// Names returns sorted field type names.
func (t FieldTypes) Names() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsTimestamp reports whether the field type stores unix timestamps.
func IsTimestamp(typ string) bool {
	switch typ {
	case "timestamp", "created", "changed":
		return true
	}
	return false
}
