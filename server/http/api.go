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

// Package storagehttp exposes entity storage over a REST API.
package storagehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/format"
	"github.com/cayleygraph/sparqlstorage/storage"
)

const (
	prefix       = "/api/v1"
	defaultLimit = 100
)

// HandlerWrapper wraps the whole API handler.
type HandlerWrapper func(http.Handler) http.Handler

// RouteWrapper wraps a single route.
type RouteWrapper func(httprouter.Handle) httprouter.Handle

// API serves entities of a storage client.
type API struct {
	st      *storage.Client
	formats *format.Registry
	ro      bool
	handler http.Handler

	timeout time.Duration
	limit   int
}

// NewAPI creates an API with its own router.
func NewAPI(st *storage.Client, formats *format.Registry, wrappers ...HandlerWrapper) *API {
	api := &API{st: st, formats: formats, limit: defaultLimit}
	r := httprouter.New()
	api.RegisterOn(r)
	var handler http.Handler = formats.Middleware(r)
	for _, wrapper := range wrappers {
		handler = wrapper(handler)
	}
	api.handler = handler
	return api
}

// SetReadOnly rejects all writes with 403 when ro is set.
func (api *API) SetReadOnly(ro bool) {
	api.ro = ro
}

// SetQueryTimeout bounds every request. Zero leaves only the storage timeout.
func (api *API) SetQueryTimeout(dt time.Duration) {
	api.timeout = dt
}

// SetListLimit sets the maximal number of IDs returned by a list request.
func (api *API) SetListLimit(n int) {
	api.limit = n
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.handler.ServeHTTP(w, r)
}

// RegisterOn adds API routes to a router. Wrappers are applied to every route,
// the first one outermost.
func (api *API) RegisterOn(r *httprouter.Router, wrappers ...RouteWrapper) {
	wrap := func(h http.HandlerFunc) httprouter.Handle {
		handle := toHandle(h)
		for i := len(wrappers) - 1; i >= 0; i-- {
			handle = wrappers[i](handle)
		}
		return handle
	}
	r.GET(prefix+"/formats", wrap(api.ServeFormats))
	r.GET(prefix+"/entity", wrap(api.ServeEntity))
	r.GET(prefix+"/entities", wrap(api.ServeList))
	r.POST(prefix+"/entity", wrap(api.rwOnly(api.ServeInsert)))
	r.PUT(prefix+"/entity", wrap(api.rwOnly(api.ServeUpdate)))
	r.DELETE(prefix+"/entity", wrap(api.rwOnly(api.ServeDelete)))
	r.POST(prefix+"/entities", wrap(api.rwOnly(api.ServeBatch)))
	r.GET("/health", wrap(api.ServeHealth))
}

// Routes returns a router with the API, health, metrics and CORS preflight routes.
func Routes(api *API, wrappers ...RouteWrapper) http.Handler {
	r := httprouter.New()
	r.OPTIONS("/*path", CORSFunc)
	api.RegisterOn(r, wrappers...)
	metrics := promhttp.Handler()
	r.GET("/metrics", func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		metrics.ServeHTTP(w, req)
	})
	return api.formats.Middleware(r)
}

func toHandle(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		handler(w, r)
	}
}

func (api *API) rwOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api.ro {
			jsonResponse(w, http.StatusForbidden, "storage is read-only")
			return
		}
		h(w, r)
	}
}

func (api *API) queryContext(r *http.Request) (ctx context.Context, cancel func()) {
	ctx = r.Context()
	if api.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, api.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	return ctx, cancel
}

// negotiate returns a triple format requested by the client, if any.
func (api *API) negotiate(r *http.Request) (*format.Format, bool, error) {
	if f, ok := format.FromContext(r.Context()); ok {
		return f, true, nil
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		return nil, false, nil
	}
	if !api.formats.Supports(name) {
		return nil, false, errs.New(errs.Config, "read", "unsupported format: %q", name)
	}
	f, _ := api.formats.ByName(name)
	return f, true, nil
}

// ServeFormats lists formats that entities can be serialized to.
func (api *API) ServeFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	json.NewEncoder(w).Encode(api.formats.List())
}

// ServeEntity returns an entity as JSON, or its triples in a negotiated format.
func (api *API) ServeEntity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	vals := r.URL.Query()
	id := vals.Get("id")
	if id == "" {
		jsonResponse(w, http.StatusBadRequest, "entity id is not specified")
		return
	}
	f, ok, err := api.negotiate(r)
	if err != nil {
		errorResponse(w, err)
		return
	} else if ok {
		api.serveTriples(ctx, w, f, id)
		return
	}
	typ := vals.Get("type")
	if typ == "" {
		jsonResponse(w, http.StatusBadRequest, "entity type is not specified")
		return
	}
	var e *entity.Entity
	if bundle := vals.Get("bundle"); bundle != "" {
		e, err = api.st.LoadBundle(ctx, typ, bundle, id)
	} else {
		e, err = api.st.Load(ctx, typ, id)
	}
	if err != nil && !errs.Partial(err) {
		errorResponse(w, err)
		return
	}
	writeResponse(w, http.StatusOK, response{Result: e, ID: e.ID, Warnings: warnings(err)})
}

func (api *API) serveTriples(ctx context.Context, w http.ResponseWriter, f *format.Format, id string) {
	quads, err := api.st.Query(ctx, id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	if len(quads) == 0 {
		errorResponse(w, &errs.Error{Kind: errs.NotFound, Op: "read", Entity: id})
		return
	}
	if len(f.Mime) != 0 {
		w.Header().Set(hdrContentType, f.Mime[0])
	}
	qw := f.Writer(w)
	if _, err = qw.WriteQuads(quads); err == nil {
		err = qw.Close()
	}
	if err != nil {
		// headers are already sent
		clog.Errorf("write %s as %s: %v", id, f.Name, err)
	}
}

func (api *API) readEntity(r *http.Request) (*entity.Entity, error) {
	data, err := readLimit(r.Body)
	if err != nil {
		return nil, &errs.Error{Kind: errs.Encoding, Op: "read request", Err: err}
	}
	var e entity.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, &errs.Error{Kind: errs.Encoding, Op: "read request", Err: err}
	}
	if e.Type == "" || e.Bundle == "" {
		return nil, errs.New(errs.Encoding, "read request", "entity type and bundle are required")
	}
	return &e, nil
}

// ServeInsert stores a new entity.
func (api *API) ServeInsert(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	e, err := api.readEntity(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	err = api.st.Insert(ctx, e)
	if err != nil && !errs.Partial(err) {
		errorResponse(w, err)
		return
	}
	writeResponse(w, http.StatusCreated, response{Result: "inserted", ID: e.ID, Warnings: warnings(err)})
}

// ServeUpdate replaces an existing entity.
func (api *API) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	e, err := api.readEntity(r)
	if err != nil {
		errorResponse(w, err)
		return
	}
	err = api.st.Update(ctx, e)
	if err != nil && !errs.Partial(err) {
		errorResponse(w, err)
		return
	}
	writeResponse(w, http.StatusOK, response{Result: "updated", ID: e.ID, Warnings: warnings(err)})
}

// ServeDelete removes an entity. Deleting a missing entity succeeds.
func (api *API) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	id := r.URL.Query().Get("id")
	if id == "" {
		jsonResponse(w, http.StatusBadRequest, "entity id is not specified")
		return
	}
	if err := api.st.Delete(ctx, id); err != nil {
		errorResponse(w, err)
		return
	}
	writeResponse(w, http.StatusOK, response{Result: "deleted", ID: id})
}

func intParam(vals map[string][]string, name string) (int, error) {
	v := ""
	if s := vals[name]; len(s) != 0 {
		v = s[0]
	}
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errs.New(errs.Encoding, "list", "invalid %s: %q", name, v)
	}
	return n, nil
}

// ServeList returns IDs of entities of a bundle.
func (api *API) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	vals := r.URL.Query()
	typ, bundle := vals.Get("type"), vals.Get("bundle")
	if typ == "" || bundle == "" {
		jsonResponse(w, http.StatusBadRequest, "entity type and bundle are required")
		return
	}
	limit, err := intParam(vals, "limit")
	if err != nil {
		errorResponse(w, err)
		return
	}
	offset, err := intParam(vals, "offset")
	if err != nil {
		errorResponse(w, err)
		return
	}
	if limit == 0 || (api.limit > 0 && limit > api.limit) {
		limit = api.limit
	}
	ids, err := api.st.List(ctx, typ, bundle, limit, offset)
	if err != nil {
		errorResponse(w, err)
		return
	}
	n := len(ids)
	writeResponse(w, http.StatusOK, response{Result: ids, Count: &n})
}

// ServeBatch inserts a JSON array of entities. The array is rejected with
// 400 if any entry is null or lacks type or bundle. Entities are then
// written one by one; on failure the X-Inserted-Count header tells how many
// were stored.
func (api *API) ServeBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	data, err := readLimit(r.Body)
	if err != nil {
		errorResponse(w, &errs.Error{Kind: errs.Encoding, Op: "read request", Err: err})
		return
	}
	var list []*entity.Entity
	if err := json.Unmarshal(data, &list); err != nil {
		errorResponse(w, &errs.Error{Kind: errs.Encoding, Op: "read request", Err: err})
		return
	}
	n, err := api.st.InsertBatch(ctx, list)
	if err != nil && !errs.Partial(err) {
		w.Header().Set("X-Inserted-Count", strconv.Itoa(n))
		errorResponse(w, err)
		return
	}
	writeResponse(w, http.StatusCreated, response{Result: "inserted", Count: &n, Warnings: warnings(err)})
}

// ServeHealth responds with 204 if the triple store answers queries.
func (api *API) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.queryContext(r)
	defer cancel()
	if err := api.st.Ping(ctx); err != nil {
		clog.Warningf("health check: %v", err)
		jsonResponse(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
