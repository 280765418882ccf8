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

package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type jsonEntity struct {
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type"`
	Bundle   string          `json:"bundle"`
	Langcode string          `json:"langcode,omitempty"`
	Fields   json.RawMessage `json:"fields,omitempty"`
}

// MarshalJSON encodes fields as a JSON object, keeping field order.
func (e *Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		items := f.Items
		if items == nil {
			items = []Item{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("field %q: %v", f.Name, err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return json.Marshal(jsonEntity{
		ID: e.ID, Type: e.Type, Bundle: e.Bundle, Langcode: e.Langcode,
		Fields: buf.Bytes(),
	})
}

// UnmarshalJSON decodes an entity, keeping field order from the document.
// Numbers are decoded as json.Number.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var je jsonEntity
	if err := json.Unmarshal(data, &je); err != nil {
		return err
	}
	*e = Entity{ID: je.ID, Type: je.Type, Bundle: je.Bundle, Langcode: je.Langcode}
	if len(je.Fields) == 0 || string(je.Fields) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(je.Fields))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: unexpected token %v", tok)
		}
		var items []Item
		if err = dec.Decode(&items); err != nil {
			return fmt.Errorf("field %q: %v", name, err)
		}
		e.Set(name, items...)
	}
	_, err = dec.Token()
	return err
}
