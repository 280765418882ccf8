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

// Package format is an explicit registry of triple serialization formats.
//
// Unlike the global registry of the quad package, a Registry is built once
// by the caller and never modified afterwards, so it can be shared by
// concurrent requests without locking.
package format

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
)

// Format is a named serialization of triples.
type Format struct {
	Name string
	Ext  []string
	// Mime lists media types, most specific first. A type may carry a
	// profile parameter, e.g. `application/ld+json; profile="..."`.
	Mime   []string
	Binary bool
	// Reader is nil if the format cannot be parsed.
	Reader func(io.Reader) quad.ReadCloser
	// Writer is nil if the format cannot be written.
	Writer func(io.Writer) quad.WriteCloser
}

// Info describes a registered format.
type Info struct {
	ID     string   `json:"id"`
	Read   bool     `json:"read,omitempty"`
	Write  bool     `json:"write,omitempty"`
	Ext    []string `json:"ext,omitempty"`
	Mime   []string `json:"mime,omitempty"`
	Binary bool     `json:"binary,omitempty"`
}

// FromQuad adapts a format registered in the quad package.
func FromQuad(f *quad.Format) Format {
	return Format{
		Name:   f.Name,
		Ext:    f.Ext,
		Mime:   f.Mime,
		Binary: f.Binary,
		Reader: f.Reader,
		Writer: f.Writer,
	}
}

// Registry holds a fixed set of formats.
type Registry struct {
	list   []*Format
	byName map[string]*Format
	byExt  map[string]*Format
}

// NewRegistry builds a registry. Names must be unique; the first format
// that declares an extension owns it.
func NewRegistry(formats ...Format) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Format, len(formats)),
		byExt:  make(map[string]*Format),
	}
	for i := range formats {
		f := formats[i]
		if f.Name == "" {
			return nil, fmt.Errorf("format without a name")
		}
		if _, ok := r.byName[f.Name]; ok {
			return nil, fmt.Errorf("format %q is registered twice", f.Name)
		}
		if f.Reader == nil && f.Writer == nil {
			return nil, fmt.Errorf("format %q can neither be read nor written", f.Name)
		}
		p := &f
		r.list = append(r.list, p)
		r.byName[f.Name] = p
		for _, ext := range f.Ext {
			ext = strings.ToLower(ext)
			if _, ok := r.byExt[ext]; !ok {
				r.byExt[ext] = p
			}
		}
	}
	return r, nil
}

// List returns all formats, sorted by name.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.list))
	for _, f := range r.list {
		out = append(out, Info{
			ID:     f.Name,
			Read:   f.Reader != nil,
			Write:  f.Writer != nil,
			Ext:    f.Ext,
			Mime:   f.Mime,
			Binary: f.Binary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Supports reports whether a format with the given name can be written.
func (r *Registry) Supports(name string) bool {
	f, ok := r.byName[name]
	return ok && f.Writer != nil
}

// ByName finds a format by its name.
func (r *Registry) ByName(name string) (*Format, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// ByExt finds a format by file extension, with or without the leading dot.
func (r *Registry) ByExt(ext string) (*Format, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := r.byExt[ext]
	return f, ok
}

// ByMime finds a format by media type. Parameters other than profile
// are ignored.
func (r *Registry) ByMime(mime string) (*Format, bool) {
	spec := parseSpec(mime)
	return r.match(spec, true)
}

// Write serializes quads using a named format.
func (r *Registry) Write(w io.Writer, name string, quads []quad.Quad) error {
	f, ok := r.byName[name]
	if !ok || f.Writer == nil {
		return fmt.Errorf("unsupported format: %q", name)
	}
	qw := f.Writer(w)
	if _, err := qw.WriteQuads(quads); err != nil {
		qw.Close()
		return err
	}
	return qw.Close()
}

// Read parses all quads from r using a named format.
func (r *Registry) Read(rd io.Reader, name string) ([]quad.Quad, error) {
	f, ok := r.byName[name]
	if !ok || f.Reader == nil {
		return nil, fmt.Errorf("unsupported format: %q", name)
	}
	qr := f.Reader(rd)
	defer qr.Close()
	return quad.ReadAll(qr)
}
