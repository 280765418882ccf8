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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldOrder(t *testing.T) {
	e := New("node", "article")
	e.SetValues("title", "value", "Hello")
	e.SetValues("tags", "value", "a", "b", "c")
	e.Set("link", Item{"uri": "http://example.com", "title": "Example"})
	require.Equal(t, []string{"title", "tags", "link"}, e.FieldNames())

	e.SetValues("title", "value", "Bye")
	require.Equal(t, []string{"title", "tags", "link"}, e.FieldNames())
	require.Equal(t, []interface{}{"Bye"}, e.Values("title", "value"))
	require.Equal(t, []interface{}{"a", "b", "c"}, e.Values("tags", "value"))
	require.Equal(t, []string{"title", "uri"}, e.Field("link").Properties())

	e.Remove("tags")
	require.Equal(t, []string{"title", "link"}, e.FieldNames())
	require.Nil(t, e.Values("tags", "value"))
}

func TestIsEmpty(t *testing.T) {
	var f *Field
	require.True(t, f.IsEmpty())
	f = &Field{Name: "x", Items: []Item{{"value": nil}}}
	require.True(t, f.IsEmpty())
	f.Items = append(f.Items, Item{"value": 0})
	require.False(t, f.IsEmpty())
}

func TestClone(t *testing.T) {
	e := New("node", "article")
	e.ID = "http://example.com/1"
	e.SetValues("tags", "value", "a", "b")

	c := e.Clone()
	c.Field("tags").Items[0]["value"] = "z"
	c.SetValues("title", "value", "new")

	require.Equal(t, []interface{}{"a", "b"}, e.Values("tags", "value"))
	require.Nil(t, e.Field("title"))
	require.Equal(t, e.ID, c.ID)
}

func TestJSON(t *testing.T) {
	const doc = `{"id":"http://example.com/1","type":"node","bundle":"article","langcode":"en",` +
		`"fields":{"zeta":[{"value":"last"}],"alpha":[{"value":1},{"value":2}],"body":[{"value":"x","format":"html"}]}}`

	var e Entity
	require.NoError(t, json.Unmarshal([]byte(doc), &e))
	require.Equal(t, "http://example.com/1", e.ID)
	require.Equal(t, "en", e.Langcode)
	require.Equal(t, []string{"zeta", "alpha", "body"}, e.FieldNames())
	require.Equal(t, []interface{}{json.Number("1"), json.Number("2")}, e.Values("alpha", "value"))

	data, err := json.Marshal(&e)
	require.NoError(t, err)
	require.JSONEq(t, doc, string(data))

	var back Entity
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, e.FieldNames(), back.FieldNames())
}

func TestJSONBadFields(t *testing.T) {
	var e Entity
	err := json.Unmarshal([]byte(`{"type":"node","bundle":"a","fields":[1,2]}`), &e)
	require.Error(t, err)
}
