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

// Package client talks to the sparqlstorage REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/format"
)

const prefix = "/api/v1"

// New creates a client for a server address like "http://localhost:64210".
func New(addr string) *Client {
	return &Client{addr: addr, cli: http.DefaultClient}
}

// Client is a REST API client. Errors returned by the server are converted
// back to *errs.Error values of the matching kind.
type Client struct {
	addr string
	cli  *http.Client
}

func (c *Client) SetHTTPClient(cli *http.Client) {
	c.cli = cli
}

func (c *Client) url(s string, q map[string]string) string {
	addr := c.addr + s
	if len(q) != 0 {
		p := make(url.Values, len(q))
		for k, v := range q {
			if v != "" {
				p.Set(k, v)
			}
		}
		addr += "?" + p.Encode()
	}
	return addr
}

type errRequestFailed struct {
	Status     string
	StatusCode int
	Message    string
}

func (e errRequestFailed) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: %d %v: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("request failed: %d %v", e.StatusCode, e.Status)
}

func kindOf(code int) errs.Kind {
	switch code {
	case http.StatusBadRequest:
		return errs.Encoding
	case http.StatusNotFound:
		return errs.NotFound
	case http.StatusConflict:
		return errs.DuplicatedID
	case http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusServiceUnavailable:
		return errs.Query
	}
	return errs.Unknown
}

func responseError(op string, resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(data, &body) != nil {
		body.Error = string(bytes.TrimSpace(data))
	}
	e := &errs.Error{
		Kind: kindOf(resp.StatusCode), Op: op,
		Err: errRequestFailed{StatusCode: resp.StatusCode, Status: resp.Status, Message: body.Error},
	}
	switch resp.StatusCode {
	case http.StatusGatewayTimeout:
		e.Cause = errs.Timeout
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		e.Cause = errs.Store
	}
	return e
}

// Result is the response to a write.
type Result struct {
	Result   string   `json:"result"`
	ID       string   `json:"id,omitempty"`
	Count    int      `json:"count,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (c *Client) do(ctx context.Context, op, method, addr string, body interface{}, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &errs.Error{Kind: errs.Encoding, Op: op, Err: err}
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, addr, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return errs.QueryError(op, errs.Transport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return responseError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.QueryError(op, errs.Store, err)
	}
	return nil
}

// Formats lists formats supported by the server.
func (c *Client) Formats(ctx context.Context) ([]format.Info, error) {
	var out []format.Info
	err := c.do(ctx, "formats", "GET", c.url(prefix+"/formats", nil), nil, &out)
	return out, err
}

// Get loads an entity. Bundle may be empty.
func (c *Client) Get(ctx context.Context, entityType, bundle, id string) (*entity.Entity, []string, error) {
	var out struct {
		Result   *entity.Entity `json:"result"`
		Warnings []string       `json:"warnings"`
	}
	err := c.do(ctx, "get", "GET", c.url(prefix+"/entity", map[string]string{
		"type": entityType, "bundle": bundle, "id": id,
	}), nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return out.Result, out.Warnings, nil
}

// Triples reads triples of an entity in a given format.
func (c *Client) Triples(ctx context.Context, id, formatName string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url(prefix+"/entity", map[string]string{
		"id": id, "format": formatName,
	}), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, errs.QueryError("triples", errs.Transport, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, responseError("triples", resp)
	}
	return resp.Body, nil
}

// Quads reads triples of an entity.
func (c *Client) Quads(ctx context.Context, id string) ([]quad.Quad, error) {
	rc, err := c.Triples(ctx, id, format.NQuads)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	f := quad.FormatByName(format.NQuads)
	qr := f.Reader(rc)
	defer qr.Close()
	return quad.ReadAll(qr)
}

// Insert stores a new entity and sets its ID if it was generated.
func (c *Client) Insert(ctx context.Context, e *entity.Entity) (*Result, error) {
	var out Result
	if err := c.do(ctx, "insert", "POST", c.url(prefix+"/entity", nil), e, &out); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = out.ID
	}
	return &out, nil
}

// Update replaces an entity.
func (c *Client) Update(ctx context.Context, e *entity.Entity) (*Result, error) {
	var out Result
	if err := c.do(ctx, "update", "PUT", c.url(prefix+"/entity", nil), e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", "DELETE", c.url(prefix+"/entity", map[string]string{"id": id}), nil, nil)
}

// List returns IDs of entities of a bundle.
func (c *Client) List(ctx context.Context, entityType, bundle string, limit, offset int) ([]string, error) {
	q := map[string]string{"type": entityType, "bundle": bundle}
	if limit > 0 {
		q["limit"] = strconv.Itoa(limit)
	}
	if offset > 0 {
		q["offset"] = strconv.Itoa(offset)
	}
	var out struct {
		Result []string `json:"result"`
	}
	err := c.do(ctx, "list", "GET", c.url(prefix+"/entities", q), nil, &out)
	return out.Result, err
}

// InsertBatch stores a list of entities.
func (c *Client) InsertBatch(ctx context.Context, list []*entity.Entity) (*Result, error) {
	var out Result
	if err := c.do(ctx, "batch", "POST", c.url(prefix+"/entities", nil), list, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the server and its triple store.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", "GET", c.url("/health", nil), nil, nil)
}
