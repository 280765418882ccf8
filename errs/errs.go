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

// Package errs defines the error type shared by all sparqlstorage packages.
//
// Instead of a type per failure, every failure is an *Error tagged with a
// Kind. Callers dispatch on the kind with Is or errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	Unknown = Kind(iota)
	// UnmappedField is returned when a field or property has no mapping.
	UnmappedField
	// NonExistingProperty is returned when a property is not defined by the field type.
	NonExistingProperty
	// DuplicatedID is returned when a new entity uses an ID that already exists.
	DuplicatedID
	// Query is returned when a SPARQL query or update fails to execute.
	Query
	// Encoding is returned when a value cannot be converted to or from an RDF term.
	Encoding
	// Config is returned for malformed mapping configuration.
	Config
	// NotFound is returned when no triples exist for a subject.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case UnmappedField:
		return "unmapped field"
	case NonExistingProperty:
		return "non-existing field property"
	case DuplicatedID:
		return "duplicated id"
	case Query:
		return "sparql query"
	case Encoding:
		return "encoding"
	case Config:
		return "config"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Cause narrows down a Query error for diagnostics.
type Cause int

const (
	NoCause = Cause(iota)
	// Transport is a network level failure or a 5xx response.
	Transport
	// Malformed means the store rejected the request.
	Malformed
	// Timeout means the call exceeded its deadline.
	Timeout
	// Store is an unexpected response from the store.
	Store
)

func (c Cause) String() string {
	switch c {
	case Transport:
		return "transport"
	case Malformed:
		return "malformed query"
	case Timeout:
		return "timeout"
	case Store:
		return "store"
	default:
		return ""
	}
}

// Error is the tagged error value.
type Error struct {
	Kind  Kind
	Cause Cause

	Op       string // operation, ex: "insert", "resolve"
	Entity   string // entity type or subject IRI
	Field    string
	Property string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Cause != NoCause {
		b.WriteString(" (")
		b.WriteString(e.Cause.String())
		b.WriteString(")")
	}
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
		if e.Property != "" {
			b.WriteString(".")
			b.WriteString(e.Property)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of a given kind.
func New(kind Kind, op string, format string, args ...interface{}) *Error {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// QueryError wraps a store failure.
func QueryError(op string, cause Cause, err error) *Error {
	return &Error{Kind: Query, Cause: cause, Op: op, Err: err}
}

// Is reports whether any error in err's tree is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == kind {
			return true
		}
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			if Is(sub, kind) {
				return true
			}
		}
		return false
	}
	return Is(errors.Unwrap(err), kind)
}

// CauseOf returns the Cause of the first Query error in err's chain.
func CauseOf(err error) Cause {
	var e *Error
	if errors.As(err, &e) {
		return e.Cause
	}
	return NoCause
}

// FieldErrors collects failures of individual fields. The entity itself was
// processed; only the listed fields were skipped.
type FieldErrors struct {
	Entity string
	Errs   []error
}

func (e *FieldErrors) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %d fields skipped: %s", e.Entity, len(e.Errs), strings.Join(msgs, "; "))
}

func (e *FieldErrors) Unwrap() []error { return e.Errs }

// Fields returns a *FieldErrors for a non-empty list, or nil.
func Fields(entity string, list []error) error {
	if len(list) == 0 {
		return nil
	}
	return &FieldErrors{Entity: entity, Errs: list}
}

// Partial reports whether err only lists skipped fields of an operation that
// otherwise succeeded.
func Partial(err error) bool {
	_, ok := err.(*FieldErrors)
	return ok
}
