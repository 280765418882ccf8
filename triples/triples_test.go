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

package triples

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/sparqlstorage/codec"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
	"github.com/cayleygraph/sparqlstorage/mapping/mappingtest"
)

const (
	dc = mappingtest.DC
	ex = mappingtest.EX
)

func reversed(in []quad.Quad) []quad.Quad {
	out := make([]quad.Quad, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		out = append(out, in[i])
	}
	return out
}

func TestOutboundSingleTitle(t *testing.T) {
	c := New(mappingtest.Table(t))
	e := entity.New("item", "item")
	e.ID = ex + "item1"
	e.SetValues("title", "value", "Hello")

	out, err := c.Outbound(context.Background(), e)
	require.NoError(t, err)
	require.Empty(t, out.Errors)
	require.NoError(t, out.Err())
	require.Equal(t, []quad.Quad{
		{Subject: quad.IRI(ex + "item1"), Predicate: quad.IRI(dc + "title"), Object: quad.String("Hello")},
	}, out.Quads)

	in, err := c.Inbound(context.Background(), "item", ex+"item1", out.Quads)
	require.NoError(t, err)
	require.Equal(t, "item", in.Entity.Bundle)
	require.Equal(t, []interface{}{"Hello"}, in.Entity.Values("title", "value"))
}

func TestMultiValueOrder(t *testing.T) {
	c := New(mappingtest.Table(t))
	ctx := context.Background()
	for _, tags := range [][]interface{}{
		{"a", "b", "c"},
		{"c", "a", "b"},
		{"b", "a", "b"},
	} {
		e := entity.New("item", "item")
		e.ID = ex + "item2"
		e.SetValues("tags", "value", tags...)

		out, err := c.Outbound(ctx, e)
		require.NoError(t, err)

		in, err := c.Inbound(ctx, "item", e.ID, reversed(out.Quads))
		require.NoError(t, err)
		require.Equal(t, tags, in.Entity.Values("tags", "value"))
	}
}

func TestOrderFallback(t *testing.T) {
	c := New(mappingtest.Table(t))
	s := quad.IRI(ex + "item3")
	tag := quad.IRI(ex + "tag")
	quads := []quad.Quad{
		{Subject: s, Predicate: tag, Object: quad.String("z")},
		{Subject: s, Predicate: tag, Object: quad.String("y")},
		{Subject: quad.IRI(ex + "other"), Predicate: tag, Object: quad.String("x")},
	}
	in, err := c.Inbound(context.Background(), "item", string(s), quads)
	require.NoError(t, err)
	require.Equal(t, []interface{}{"z", "y"}, in.Entity.Values("tags", "value"))
}

func TestSparseItems(t *testing.T) {
	c := New(mappingtest.Table(t))
	ctx := context.Background()
	e := entity.New("node", "page")
	e.ID = ex + "page/links"
	links := []entity.Item{
		{"uri": ex + "a"},
		{"uri": ex + "b", "title": "B"},
	}
	e.Set("links", links...)

	out, err := c.Outbound(ctx, e)
	require.NoError(t, err)
	require.Empty(t, out.Errors)

	var index []string
	for _, q := range out.Quads {
		if q.Predicate != mapping.OrderPredicate {
			continue
		}
		pred, terms, err := codec.ParseOrder(q.Object)
		require.NoError(t, err)
		if pred == quad.IRI(ex+"linkTitle") {
			index = terms
		}
	}
	require.Equal(t, []string{"", `"B"`}, index)

	in, err := c.Inbound(ctx, "node", e.ID, reversed(out.Quads))
	require.NoError(t, err)
	require.Equal(t, links, in.Entity.Field("links").Items)

	// without the index, values of a sparse field are packed to the front
	var plain []quad.Quad
	for _, q := range out.Quads {
		if q.Predicate != mapping.OrderPredicate {
			plain = append(plain, q)
		}
	}
	in, err = c.Inbound(ctx, "node", e.ID, plain)
	require.NoError(t, err)
	require.Len(t, in.Entity.Field("links").Items, 2)
	require.Equal(t, []interface{}{"B"}, in.Entity.Values("links", "title"))
}

func TestUnmappedFieldSkipped(t *testing.T) {
	c := New(mappingtest.Table(t))
	e := entity.New("node", "article")
	e.ID = ex + "article/1"
	e.SetValues("subtitle", "value", "nope")
	e.Set("body", entity.Item{"value": "text", "summary": "short"})
	e.SetValues("weight", "value", "heavy")
	e.SetValues("title", "value", "Kept")

	out, err := c.Outbound(context.Background(), e)
	require.NoError(t, err)
	require.Len(t, out.Errors, 3)
	require.True(t, errs.Is(out.Errors[0], errs.UnmappedField))
	require.True(t, errs.Is(out.Errors[1], errs.UnmappedField))
	require.True(t, errs.Is(out.Errors[2], errs.Encoding))

	var fe *errs.FieldErrors
	require.ErrorAs(t, out.Err(), &fe)
	require.Len(t, fe.Errs, 3)

	require.Equal(t, []quad.Quad{
		{Subject: quad.IRI(ex + "article/1"), Predicate: mapping.RDFType, Object: quad.IRI(ex + "Article")},
		{
			Subject: quad.IRI(ex + "article/1"), Predicate: quad.IRI(dc + "title"),
			Object: quad.TypedString{Value: "Kept", Type: "http://www.w3.org/2001/XMLSchema#string"},
		},
	}, out.Quads)
}

func TestOutboundErrors(t *testing.T) {
	c := New(mappingtest.Table(t))
	ctx := context.Background()

	_, err := c.Outbound(ctx, entity.New("node", "blog"))
	require.True(t, errs.Is(err, errs.UnmappedField))

	e := entity.New("item", "item")
	e.ID = "item1"
	_, err = c.Outbound(ctx, e)
	require.True(t, errs.Is(err, errs.Encoding))

	e = entity.New("node", "article")
	e.ID = ex + "article/2"
	e.SetValues("title", "value", "a", "b")
	out, err := c.Outbound(ctx, e)
	require.NoError(t, err)
	require.Len(t, out.Errors, 1)
	require.Contains(t, out.Errors[0].Error(), "single-valued")
}

func TestIDGeneration(t *testing.T) {
	ctx := context.Background()
	c := New(mappingtest.Table(t))
	e := entity.New("node", "page")
	e.SetValues("title", "value", "About")
	out, err := c.Outbound(ctx, e)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(e.ID, ex+"page/"), e.ID)
	require.Equal(t, quad.IRI(e.ID), out.Subject)

	c = New(mappingtest.Table(t), WithIDGenerator(func(b mapping.Bundle) (string, error) {
		return b.BaseURI + "fixed", nil
	}))
	e = entity.New("node", "page")
	_, err = c.Outbound(ctx, e)
	require.NoError(t, err)
	require.Equal(t, ex+"page/fixed", e.ID)

	_, err = NewID(mapping.Bundle{EntityType: "node", Bundle: "x"})
	require.True(t, errs.Is(err, errs.Config))
}

func TestUppercaseHook(t *testing.T) {
	d := hook.NewDispatcher()
	d.OnOutbound(0, "upper", hook.Values(func(_, field string, values []interface{}) []interface{} {
		if field != "title" {
			return values
		}
		for i, v := range values {
			values[i] = strings.ToUpper(v.(string))
		}
		return values
	}))
	c := New(mappingtest.Table(t), WithHooks(d))

	e := entity.New("item", "item")
	e.ID = ex + "item4"
	e.SetValues("title", "value", "hello")
	out, err := c.Outbound(context.Background(), e)
	require.NoError(t, err)
	require.Len(t, out.Quads, 1)
	require.Equal(t, quad.String("HELLO"), out.Quads[0].Object)
	// the entity itself is not changed
	require.Equal(t, []interface{}{"hello"}, e.Values("title", "value"))
}

func TestArticleRoundTrip(t *testing.T) {
	d := hook.NewDispatcher()
	hook.RegisterTimestamps(d)
	c := New(mappingtest.Table(t), WithHooks(d))
	ctx := context.Background()

	published := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	e := entity.New("node", "article")
	e.ID = ex + "article/3"
	e.Langcode = "en"
	e.SetValues("title", "value", "Hello")
	e.Set("body", entity.Item{"value": "<p>Hi</p>", "format": "basic_html"})
	e.SetValues("tags", "value", "x", "y")
	e.SetValues("weight", "value", int64(3))
	e.SetValues("rating", "value", 4.5)
	e.SetValues("score", "value", 0.25)
	e.SetValues("sticky", "value", true)
	e.SetValues("published", "value", published)
	e.SetValues("created", "value", int64(1700000000))
	e.SetValues("author", "target_id", ex+"user/1")
	e.SetValues("related", "target_id", ex+"article/9", ex+"article/8")

	out, err := c.Outbound(ctx, e)
	require.NoError(t, err)
	require.Empty(t, out.Errors)
	require.Contains(t, out.Quads, quad.Quad{
		Subject: quad.IRI(e.ID), Predicate: quad.IRI(dc + "created"),
		Object: quad.TypedString{Value: "2023-11-14T22:13:20Z", Type: "http://www.w3.org/2001/XMLSchema#dateTime"},
	})
	require.Contains(t, out.Quads, quad.Quad{
		Subject: quad.IRI(e.ID), Predicate: quad.IRI(ex + "body"),
		Object: quad.LangString{Value: "<p>Hi</p>", Lang: "en"},
	})

	in, err := c.Inbound(ctx, "node", e.ID, reversed(out.Quads))
	require.NoError(t, err)
	require.NoError(t, in.Err())
	got := in.Entity
	require.Equal(t, "article", got.Bundle)
	require.Equal(t, "en", got.Langcode)
	for _, name := range e.FieldNames() {
		f := e.Field(name)
		for _, prop := range f.Properties() {
			require.Equal(t, f.Values(prop), got.Values(name, prop), "%s.%s", name, prop)
		}
	}
	require.Equal(t, mappingtest.Table(t).Fields("node", "article"), got.FieldNames())
}

func TestInbound(t *testing.T) {
	c := New(mappingtest.Table(t))
	ctx := context.Background()
	s := quad.IRI(ex + "page/1")

	_, err := c.Inbound(ctx, "node", string(s), nil)
	require.True(t, errs.Is(err, errs.NotFound))

	_, err = c.Inbound(ctx, "node", "page/1", nil)
	require.True(t, errs.Is(err, errs.Encoding))

	// dc:title is resolved within the page bundle
	quads := []quad.Quad{
		{Subject: s, Predicate: mapping.RDFType, Object: quad.IRI(ex + "Page")},
		{Subject: s, Predicate: quad.IRI(dc + "title"), Object: quad.String("About")},
		{Subject: s, Predicate: quad.IRI(ex + "unknown"), Object: quad.String("ignored")},
	}
	in, err := c.Inbound(ctx, "node", string(s), quads)
	require.NoError(t, err)
	require.Equal(t, "page", in.Entity.Bundle)
	require.Equal(t, []string{"title"}, in.Entity.FieldNames())
	require.Equal(t, []interface{}{"About"}, in.Entity.Values("title", "value"))

	// no known rdf:type and no default bundle
	_, err = c.Inbound(ctx, "node", string(s), quads[1:])
	require.True(t, errs.Is(err, errs.UnmappedField))

	// an explicit bundle wins
	in, err = c.InboundBundle(ctx, "node", "page", string(s), quads[1:])
	require.NoError(t, err)
	require.Equal(t, "page", in.Entity.Bundle)
	_, err = c.InboundBundle(ctx, "node", "blog", string(s), quads)
	require.True(t, errs.Is(err, errs.UnmappedField))
}

func TestInboundSoftFailures(t *testing.T) {
	c := New(mappingtest.Table(t))
	s := quad.IRI(ex + "article/4")
	quads := []quad.Quad{
		{Subject: s, Predicate: mapping.RDFType, Object: quad.IRI(ex + "Article")},
		{Subject: s, Predicate: quad.IRI(ex + "weight"), Object: quad.TypedString{Value: "1", Type: "http://example.com/weird"}},
		{Subject: s, Predicate: quad.IRI(dc + "title"), Object: quad.String("first")},
		{Subject: s, Predicate: quad.IRI(dc + "title"), Object: quad.String("second")},
		{Subject: s, Predicate: mapping.OrderPredicate, Object: quad.String("not json")},
	}
	in, err := c.Inbound(context.Background(), "node", string(s), quads)
	require.NoError(t, err)
	require.Len(t, in.Errors, 1)
	require.True(t, errs.Is(in.Err(), errs.Encoding))
	require.Nil(t, in.Entity.Field("weight"))
	require.Equal(t, []interface{}{"first"}, in.Entity.Values("title", "value"))
}
