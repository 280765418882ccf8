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

// Package hook implements extension points that let outside code rewrite
// field values while entities are converted to or from triples.
//
// Hooks are plain functions kept in an explicit, ordered list. They run
// synchronously and only transform values; there is no way for a hook to
// cancel a save or a load.
package hook

import (
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

// Direction tells whether values are being written or read.
type Direction int

const (
	// Outbound values are about to be encoded and written to the store.
	Outbound = Direction(iota)
	// Inbound values were decoded from the store.
	Inbound
)

func (d Direction) String() string {
	switch d {
	case Outbound:
		return "outbound"
	case Inbound:
		return "inbound"
	}
	return "unknown"
}

// ValueEvent carries the values of one field property.
type ValueEvent struct {
	Direction Direction
	// Entity must not be modified by hooks. On inbound events it is the
	// entity being populated, so fields processed later are still missing.
	Entity   *entity.Entity
	Field    string
	Property string
	// Mapping describes how the values are stored.
	Mapping  mapping.Mapping
	Langcode string
	// Values may be modified, replaced or truncated by hooks.
	// Outbound values are raw field values, inbound ones are decoded values.
	Values []interface{}
}

// EntityType returns the type of the event entity.
func (ev *ValueEvent) EntityType() string {
	if ev.Entity == nil {
		return ev.Mapping.EntityType
	}
	return ev.Entity.Type
}
