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

package format

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// AcceptSpec is one entry of an Accept-like header.
type AcceptSpec struct {
	Value  string
	Q      float64
	Params map[string]string
}

func parseSpec(s string) AcceptSpec {
	parts := strings.Split(s, ";")
	spec := AcceptSpec{Value: strings.ToLower(strings.TrimSpace(parts[0])), Q: 1}
	for _, p := range parts[1:] {
		kv := strings.SplitN(strings.TrimSpace(p), "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		if k == "q" {
			if q, err := strconv.ParseFloat(v, 64); err == nil {
				spec.Q = q
			}
			continue
		}
		if spec.Params == nil {
			spec.Params = make(map[string]string)
		}
		spec.Params[k] = v
	}
	return spec
}

// ParseAccept parses all values of an Accept-like header and sorts them by
// quality. Entries with equal quality keep the order of the header.
func ParseAccept(h http.Header, name string) []AcceptSpec {
	var out []AcceptSpec
	for _, line := range h.Values(name) {
		for _, s := range strings.Split(line, ",") {
			if strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, parseSpec(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Q > out[j].Q })
	return out
}

func (r *Registry) match(spec AcceptSpec, exact bool) (*Format, bool) {
	if !exact {
		if spec.Value == "*/*" {
			return nil, false
		}
		if strings.HasSuffix(spec.Value, "/*") {
			pref := strings.TrimSuffix(spec.Value, "*")
			for _, f := range r.list {
				for _, m := range f.Mime {
					if strings.HasPrefix(parseSpec(m).Value, pref) && f.Writer != nil {
						return f, true
					}
				}
			}
			return nil, false
		}
	}
	profile := spec.Params["profile"]
	var fallback *Format
	for _, f := range r.list {
		if !exact && f.Writer == nil {
			continue
		}
		for _, m := range f.Mime {
			ms := parseSpec(m)
			if ms.Value != spec.Value {
				continue
			}
			mp := ms.Params["profile"]
			if mp == profile {
				return f, true
			}
			if mp == "" && fallback == nil {
				fallback = f
			}
		}
	}
	return fallback, fallback != nil
}

// Negotiate picks a writable format for an Accept header value.
// An empty header or a */* entry selects the named default.
func (r *Registry) Negotiate(accept, def string) (*Format, bool) {
	if strings.TrimSpace(accept) == "" {
		return r.ByName(def)
	}
	h := http.Header{}
	h.Set("Accept", accept)
	for _, spec := range ParseAccept(h, "Accept") {
		if spec.Q <= 0 {
			continue
		}
		if spec.Value == "*/*" {
			return r.ByName(def)
		}
		if f, ok := r.match(spec, false); ok {
			return f, true
		}
	}
	return nil, false
}

type ctxKey struct{}

// NewContext stores a negotiated format in the context.
func NewContext(ctx context.Context, f *Format) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// FromContext returns the format negotiated by Middleware.
func FromContext(ctx context.Context) (*Format, bool) {
	f, ok := ctx.Value(ctxKey{}).(*Format)
	return f, ok && f != nil
}

// Middleware negotiates a format for every request and stores it in the
// request context. An explicit "format" query parameter wins over the
// Accept header. Requests matching no writable format pass through
// unchanged, so handlers can fall back to their own representation.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var (
			f  *Format
			ok bool
		)
		if name := req.URL.Query().Get("format"); name != "" {
			f, ok = r.ByName(name)
			ok = ok && f.Writer != nil
		} else if accept := req.Header.Get("Accept"); accept != "" {
			f, ok = r.Negotiate(accept, "")
		}
		if ok {
			req = req.WithContext(NewContext(req.Context(), f))
		}
		next.ServeHTTP(w, req)
	})
}
