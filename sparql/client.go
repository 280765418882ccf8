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

package sparql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/errs"
)

// maxErrorBody limits how much of an error response is kept in the error.
const maxErrorBody = 512

// NewClient creates an executor for a SPARQL 1.1 protocol endpoint.
// Updates are sent to the same endpoint unless SetUpdateEndpoint is called.
func NewClient(endpoint string) *Client {
	return &Client{query: endpoint, update: endpoint, cli: http.DefaultClient}
}

// Client is an Executor talking to a store over HTTP.
type Client struct {
	query  string
	update string
	user   string
	pass   string
	cli    *http.Client
}

var _ Executor = (*Client)(nil)

// SetHTTPClient replaces the HTTP client used for requests.
func (c *Client) SetHTTPClient(cli *http.Client) {
	c.cli = cli
}

// SetUpdateEndpoint sets a separate endpoint for updates.
func (c *Client) SetUpdateEndpoint(endpoint string) {
	if endpoint != "" {
		c.update = endpoint
	}
}

// SetBasicAuth enables HTTP basic authentication.
func (c *Client) SetBasicAuth(user, pass string) {
	c.user, c.pass = user, pass
}

// Endpoint returns the query endpoint.
func (c *Client) Endpoint() string { return c.query }

type errRequestFailed struct {
	StatusCode int
	Status     string
	Body       string
}

func (e errRequestFailed) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed: %v", e.Status)
	}
	return fmt.Sprintf("request failed: %v: %s", e.Status, e.Body)
}

// classify converts a request failure to a query error.
func classify(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	cause := errs.Transport
	var nerr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		cause = errs.Timeout
	case errors.As(err, &nerr) && nerr.Timeout():
		cause = errs.Timeout
	}
	var rerr errRequestFailed
	if errors.As(err, &rerr) && rerr.StatusCode >= 400 && rerr.StatusCode < 500 {
		cause = errs.Malformed
	}
	return errs.QueryError(op, cause, err)
}

func (c *Client) do(ctx context.Context, endpoint, key, body, accept string) (io.ReadCloser, error) {
	form := url.Values{key: {body}}
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}
	if clog.V(2) {
		clog.Infof("sparql %s: %s", key, body)
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		data, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errRequestFailed{
			StatusCode: resp.StatusCode, Status: resp.Status,
			Body: strings.TrimSpace(string(data)),
		}
	}
	return resp.Body, nil
}

func (c *Client) results(ctx context.Context, op, query string) (*Results, error) {
	body, err := c.do(ctx, c.query, "query", query, ContentTypeResultsJSON)
	if err != nil {
		return nil, classify(op, err)
	}
	defer body.Close()
	res, err := ReadResults(body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify(op, ctx.Err())
		}
		return nil, errs.QueryError(op, errs.Store, err)
	}
	return res, nil
}

// Ask runs an ASK query.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	res, err := c.results(ctx, "ask", query)
	if err != nil {
		return false, err
	}
	if res.Boolean == nil {
		return false, errs.QueryError("ask", errs.Store, fmt.Errorf("response has no boolean"))
	}
	return *res.Boolean, nil
}

// Select runs a SELECT query.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	res, err := c.results(ctx, "select", query)
	if err != nil {
		return nil, err
	}
	rows, err := res.Bindings()
	if err != nil {
		return nil, errs.QueryError("select", errs.Store, err)
	}
	return rows, nil
}

// Construct runs a CONSTRUCT query. The store must be able to answer with
// N-Triples.
func (c *Client) Construct(ctx context.Context, query string) ([]quad.Quad, error) {
	body, err := c.do(ctx, c.query, "query", query, ContentTypeNTriples)
	if err != nil {
		return nil, classify("construct", err)
	}
	defer body.Close()
	qr := nquads.NewReader(body, false)
	defer qr.Close()
	quads, err := quad.ReadAll(qr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify("construct", ctx.Err())
		}
		return nil, errs.QueryError("construct", errs.Store, err)
	}
	for i := range quads {
		quads[i].Object = codec.Canonical(quads[i].Object)
	}
	return quads, nil
}

// Update runs a SPARQL update.
func (c *Client) Update(ctx context.Context, update string) error {
	body, err := c.do(ctx, c.update, "update", update, "")
	if err != nil {
		return classify("update", err)
	}
	body.Close()
	return nil
}
