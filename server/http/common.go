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

package storagehttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/errs"
)

const (
	hdrContentType  = "Content-Type"
	contentTypeJSON = "application/json"
)

func jsonResponse(w http.ResponseWriter, code int, err interface{}) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	w.WriteHeader(code)
	w.Write([]byte(`{"error": `))
	var s string
	switch err := err.(type) {
	case string:
		s = err
	case error:
		s = err.Error()
	default:
		s = fmt.Sprint(err)
	}
	data, _ := json.Marshal(s)
	w.Write(data)
	w.Write([]byte(`}`))
}

// StatusOf maps an error to an HTTP status code.
func StatusOf(err error) int {
	var e *errs.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case errs.UnmappedField, errs.NonExistingProperty, errs.Encoding, errs.Config:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.DuplicatedID:
		return http.StatusConflict
	case errs.Query:
		if e.Cause == errs.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorResponse(w http.ResponseWriter, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		clog.Errorf("request failed: %v", err)
	}
	jsonResponse(w, code, err)
}

// response is the envelope of successful responses.
type response struct {
	Result   interface{} `json:"result"`
	ID       string      `json:"id,omitempty"`
	Count    *int        `json:"count,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

func warnings(err error) []string {
	var fe *errs.FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	out := make([]string, 0, len(fe.Errs))
	for _, e := range fe.Errs {
		out = append(out, e.Error())
	}
	return out
}

func writeResponse(w http.ResponseWriter, code int, r response) {
	w.Header().Set(hdrContentType, contentTypeJSON)
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(r)
}

const maxBodySize = 16 * 1024 * 1024

func readLimit(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxBodySize).(*io.LimitedReader)
	data, err := io.ReadAll(lr)
	if err == nil && lr.N <= 0 {
		err = errors.New("request is too large")
	}
	return data, err
}

type statusWriter struct {
	http.ResponseWriter
	code *int
}

func (w *statusWriter) WriteHeader(code int) {
	*(w.code) = code
	w.ResponseWriter.WriteHeader(code)
}

// LogRequest logs start and completion of every request.
func LogRequest(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		start := time.Now()
		addr := req.Header.Get("X-Real-IP")
		if addr == "" {
			addr = req.Header.Get("X-Forwarded-For")
			if addr == "" {
				addr = req.RemoteAddr
			}
		}
		code := http.StatusOK
		rw := &statusWriter{ResponseWriter: w, code: &code}
		if clog.V(1) {
			clog.Infof("started %s %s for %s", req.Method, req.URL.Path, addr)
		}
		handler(rw, req, params)
		clog.Infof("completed %v %s %s %s in %v", code, http.StatusText(code), req.Method, req.URL.Path, time.Since(start))
	}
}

// CORSFunc sets CORS headers for requests with an Origin.
func CORSFunc(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
	if origin := req.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers",
			"Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
	}
}

// CORS wraps a handler with CORSFunc.
func CORS(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		CORSFunc(w, req, params)
		h(w, req, params)
	}
}
