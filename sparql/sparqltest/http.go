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

package sparqltest

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/cayleygraph/quad/nquads"

	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/sparql"
)

// Handler serves a store with the SPARQL 1.1 protocol.
type Handler struct {
	Store *Store
	// User and Password enable basic authentication when User is set.
	User     string
	Password string
}

// NewHandler creates a handler without authentication.
func NewHandler(s *Store) *Handler {
	return &Handler{Store: s}
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	data, _ := json.Marshal(err.Error())
	w.Write([]byte(`{"error": `))
	w.Write(data)
	w.Write([]byte(`}`))
}

func statusOf(err error) int {
	switch errs.CauseOf(err) {
	case errs.Malformed:
		return http.StatusBadRequest
	case errs.Timeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.User != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != h.User || pass != h.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="sparql"`)
			httpError(w, http.StatusUnauthorized, errs.New(errs.Query, "auth", "unauthorized"))
			return
		}
	}
	var query, update string
	switch ct := r.Header.Get("Content-Type"); {
	case r.Method == "POST" && strings.HasPrefix(ct, sparql.ContentTypeQuery):
		data, _ := ioutil.ReadAll(r.Body)
		query = string(data)
	case r.Method == "POST" && strings.HasPrefix(ct, sparql.ContentTypeUpdate):
		data, _ := ioutil.ReadAll(r.Body)
		update = string(data)
	default:
		query, update = r.FormValue("query"), r.FormValue("update")
	}
	ctx := r.Context()
	switch {
	case update != "":
		if r.Method != "POST" {
			httpError(w, http.StatusMethodNotAllowed, errs.New(errs.Query, "update", "updates must be POSTed"))
			return
		}
		if err := h.Store.Update(ctx, update); err != nil {
			httpError(w, statusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case query != "":
		h.serveQuery(ctx, w, strings.TrimSpace(query))
	default:
		httpError(w, http.StatusBadRequest, errs.New(errs.Query, "request", "no query or update"))
	}
}

func (h *Handler) serveQuery(ctx context.Context, w http.ResponseWriter, query string) {
	switch kw := strings.ToUpper(strings.SplitN(query, " ", 2)[0]); kw {
	case "ASK":
		ok, err := h.Store.Ask(ctx, query)
		if err != nil {
			httpError(w, statusOf(err), err)
			return
		}
		w.Header().Set("Content-Type", sparql.ContentTypeResultsJSON)
		sparql.WriteBoolean(w, ok)
	case "SELECT":
		rows, err := h.Store.Select(ctx, query)
		if err != nil {
			httpError(w, statusOf(err), err)
			return
		}
		w.Header().Set("Content-Type", sparql.ContentTypeResultsJSON)
		sparql.WriteBindings(w, []string{"s"}, rows)
	case "CONSTRUCT":
		quads, err := h.Store.Construct(ctx, query)
		if err != nil {
			httpError(w, statusOf(err), err)
			return
		}
		w.Header().Set("Content-Type", sparql.ContentTypeNTriples)
		qw := nquads.NewWriter(w)
		defer qw.Close()
		for _, q := range quads {
			if err := qw.WriteQuad(q); err != nil {
				return
			}
		}
	default:
		httpError(w, http.StatusBadRequest, errs.New(errs.Query, "query", "unsupported query form %q", kw))
	}
}
