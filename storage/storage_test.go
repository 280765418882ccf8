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

package storage

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
	"github.com/cayleygraph/sparqlstorage/mapping/mappingtest"
	"github.com/cayleygraph/sparqlstorage/sparql"
	"github.com/cayleygraph/sparqlstorage/sparql/sparqltest"
)

const (
	dc = mappingtest.DC
	ex = mappingtest.EX
)

// executors runs a test against the store directly and over HTTP.
func executors(t *testing.T, fn func(t *testing.T, st *sparqltest.Store, exec sparql.Executor)) {
	t.Run("direct", func(t *testing.T) {
		st := sparqltest.New()
		fn(t, st, st)
	})
	t.Run("http", func(t *testing.T) {
		st := sparqltest.New()
		srv := httptest.NewServer(sparqltest.NewHandler(st))
		defer srv.Close()
		fn(t, st, sparql.NewClient(srv.URL))
	})
}

func item(id string) *entity.Entity {
	e := entity.New("item", "item")
	e.ID = id
	return e
}

func TestInsertAndQuery(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		e := item(ex + "item1")
		e.SetValues("title", "value", "Hello")
		require.NoError(t, c.Insert(ctx, e))

		quads, err := c.Query(ctx, ex+"item1")
		require.NoError(t, err)
		require.Equal(t, []quad.Quad{{
			Subject:   quad.IRI(ex + "item1"),
			Predicate: quad.IRI(dc + "title"),
			Object:    quad.String("Hello"),
		}}, quads)

		got, err := c.Load(ctx, "item", ex+"item1")
		require.NoError(t, err)
		require.Equal(t, []interface{}{"Hello"}, got.Values("title", "value"))

		ok, err := c.Exists(ctx, ex+"item1")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestDuplicatedID(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		e := item(ex + "item1")
		e.SetValues("title", "value", "first")
		require.NoError(t, c.Insert(ctx, e))

		e = item(ex + "item1")
		e.SetValues("title", "value", "second")
		err := c.Insert(ctx, e)
		require.True(t, errs.Is(err, errs.DuplicatedID), "got %v", err)

		got, err := c.Load(ctx, "item", ex+"item1")
		require.NoError(t, err)
		require.Equal(t, []interface{}{"first"}, got.Values("title", "value"))
	})
}

func TestTagsOrder(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		e := item(ex + "item2")
		e.SetValues("tags", "value", "c", "a", "b")
		require.NoError(t, c.Insert(ctx, e))

		got, err := c.Load(ctx, "item", ex+"item2")
		require.NoError(t, err)
		require.Equal(t, []interface{}{"c", "a", "b"}, got.Values("tags", "value"))

		e = item(ex + "item3")
		e.SetValues("tags", "value", "a", "b", "c")
		require.NoError(t, c.Insert(ctx, e))
		got, err = c.Load(ctx, "item", ex+"item3")
		require.NoError(t, err)
		require.Equal(t, []interface{}{"a", "b", "c"}, got.Values("tags", "value"))
	})
}

func TestUppercaseHook(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		d := hook.NewDispatcher()
		d.OnOutbound(0, "upper", func(_ context.Context, ev *hook.ValueEvent) {
			if ev.Field != "title" {
				return
			}
			for i, v := range ev.Values {
				if s, ok := v.(string); ok {
					ev.Values[i] = strings.ToUpper(s)
				}
			}
		})
		c := New(exec, mappingtest.Table(t), WithHooks(d))
		ctx := context.Background()

		e := item(ex + "item4")
		e.SetValues("title", "value", "hello")
		require.NoError(t, c.Insert(ctx, e))
		require.Equal(t, []quad.Quad{{
			Subject:   quad.IRI(ex + "item4"),
			Predicate: quad.IRI(dc + "title"),
			Object:    quad.String("HELLO"),
		}}, st.Quads())
	})
}

func TestStringWhitespace(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		for i, title := range []string{"  Hello\n", "line 1\nline 2", "\ttab\r\n"} {
			e := entity.New("node", "article")
			e.ID = fmt.Sprintf("%sarticle/ws%d", ex, i)
			e.SetValues("title", "value", title)
			require.NoError(t, c.Insert(ctx, e))

			got, err := c.Load(ctx, "node", e.ID)
			require.NoError(t, err)
			require.Equal(t, []interface{}{title}, got.Values("title", "value"))
		}
	})
}

func TestSparseLinks(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		var cases = [][]entity.Item{
			{{"uri": ex + "a"}, {"uri": ex + "b", "title": "B"}},
			{{"uri": ex + "a", "title": "A"}, {"uri": ex + "b"}, {"uri": ex + "c", "title": "C"}},
			{{"title": "only title"}, {"uri": ex + "b"}},
			{{"uri": ex + "a"}, {"uri": ex + "a", "title": "again"}},
		}
		for i, links := range cases {
			e := entity.New("node", "page")
			e.ID = fmt.Sprintf("%spage/links%d", ex, i)
			e.Set("links", links...)
			require.NoError(t, c.Insert(ctx, e))

			got, err := c.Load(ctx, "node", e.ID)
			require.NoError(t, err)
			require.Equal(t, links, got.Field("links").Items, "case %d", i)
		}
	})
}

func TestUpdateAndDelete(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		e := entity.New("node", "article")
		e.SetValues("title", "value", "Draft")
		e.SetValues("tags", "value", "x", "y")
		require.NoError(t, c.Insert(ctx, e))
		require.True(t, strings.HasPrefix(e.ID, ex+"article/"))

		e.SetValues("title", "value", "Final")
		e.Remove("tags")
		require.NoError(t, c.Update(ctx, e))

		got, err := c.Load(ctx, "node", e.ID)
		require.NoError(t, err)
		require.Equal(t, "article", got.Bundle)
		require.Equal(t, []string{"title"}, got.FieldNames())
		require.Equal(t, []interface{}{"Final"}, got.Values("title", "value"))
		require.Equal(t, 2, st.Len())

		ids, err := c.List(ctx, "node", "article", 0, 0)
		require.NoError(t, err)
		require.Equal(t, []string{e.ID}, ids)

		require.NoError(t, c.Delete(ctx, e.ID))
		require.Equal(t, 0, st.Len())
		// deleting again is fine
		require.NoError(t, c.Delete(ctx, e.ID))
		require.NoError(t, c.Delete(ctx, ex+"never-existed"))

		_, err = c.Load(ctx, "node", e.ID)
		require.True(t, errs.Is(err, errs.NotFound))

		err = c.Update(ctx, entity.New("node", "article"))
		require.True(t, errs.Is(err, errs.Encoding))
	})
}

func TestPartialFailure(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()

		e := item(ex + "item5")
		e.SetValues("title", "value", "Kept")
		e.SetValues("color", "value", "red")
		err := c.Insert(ctx, e)
		require.Error(t, err)
		require.True(t, errs.Partial(err))
		require.True(t, errs.Is(err, errs.UnmappedField))

		got, err := c.Load(ctx, "item", ex+"item5")
		require.NoError(t, err)
		require.Equal(t, []interface{}{"Kept"}, got.Values("title", "value"))

		// nothing left to store
		e = item(ex + "item6")
		e.SetValues("color", "value", "red")
		err = c.Insert(ctx, e)
		require.True(t, errs.Is(err, errs.Encoding))
		require.False(t, errs.Partial(err))
	})
}

func TestInsertBatch(t *testing.T) {
	st := sparqltest.New()
	c := New(st, mappingtest.Table(t))
	ctx := context.Background()

	var list []*entity.Entity
	for i := 0; i < 3; i++ {
		e := item(fmt.Sprintf("%sbatch%d", ex, i))
		e.SetValues("title", "value", fmt.Sprint(i))
		list = append(list, e)
	}
	list = append(list, list[0])

	n, err := c.InsertBatch(ctx, list)
	require.Equal(t, 3, n)
	require.True(t, errs.Is(err, errs.DuplicatedID))
	// earlier entities stay committed
	require.Equal(t, 3, st.Len())

	e := item(ex + "batch9")
	e.SetValues("title", "value", "9")
	e.SetValues("color", "value", "red")
	n, err = c.InsertBatch(ctx, []*entity.Entity{e})
	require.Equal(t, 1, n)
	require.True(t, errs.Partial(err))
}

func TestInsertBatchInvalid(t *testing.T) {
	st := sparqltest.New()
	c := New(st, mappingtest.Table(t))
	ctx := context.Background()

	valid := item(ex + "batch0")
	valid.SetValues("title", "value", "0")
	for name, bad := range map[string]*entity.Entity{
		"nil":       nil,
		"no type":   {ID: ex + "batch1", Bundle: "item"},
		"no bundle": {ID: ex + "batch2", Type: "item"},
	} {
		t.Run(name, func(t *testing.T) {
			n, err := c.InsertBatch(ctx, []*entity.Entity{valid, bad})
			require.Equal(t, 0, n)
			require.True(t, errs.Is(err, errs.Encoding), "%v", err)
			require.Contains(t, err.Error(), "entity 1")
			require.Equal(t, 0, st.Len())
			require.Empty(t, st.Requests())
		})
	}

	require.True(t, errs.Is(c.Insert(ctx, nil), errs.Encoding))
	require.True(t, errs.Is(c.Update(ctx, &entity.Entity{ID: ex + "item1"}), errs.Encoding))
}

func TestInsertKeepsID(t *testing.T) {
	st := sparqltest.New()
	c := New(st, mappingtest.Table(t), WithIDGenerator(func(b mapping.Bundle) (string, error) {
		return b.BaseURI + "fixed", nil
	}))
	ctx := context.Background()

	first := entity.New("node", "page")
	first.SetValues("title", "value", "first")
	require.NoError(t, c.Insert(ctx, first))
	require.Equal(t, ex+"page/fixed", first.ID)

	second := entity.New("node", "page")
	second.SetValues("title", "value", "second")
	err := c.Insert(ctx, second)
	require.True(t, errs.Is(err, errs.DuplicatedID), "%v", err)
	require.Equal(t, "", second.ID)

	st.FailWith(fmt.Errorf("down"))
	third := item("")
	third.SetValues("title", "value", "third")
	require.Error(t, c.Insert(ctx, third))
	require.Equal(t, "", third.ID)
}

func TestTimeout(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t), WithTimeout(20*time.Millisecond))
		st.SetDelay(time.Second)

		_, err := c.Query(context.Background(), ex+"item1")
		require.True(t, errs.Is(err, errs.Query))
		require.Equal(t, errs.Timeout, errs.CauseOf(err))
	})
}

func TestStoreFailure(t *testing.T) {
	st := sparqltest.New()
	c := New(st, mappingtest.Table(t))
	st.FailWith(fmt.Errorf("connection reset"))

	e := item(ex + "item7")
	e.SetValues("title", "value", "x")
	err := c.Insert(context.Background(), e)
	require.True(t, errs.Is(err, errs.Query))
	require.Equal(t, errs.Transport, errs.CauseOf(err))
	// no retries
	require.Len(t, st.Requests(), 1)
}

func TestList(t *testing.T) {
	st := sparqltest.New()
	c := New(st, mappingtest.Table(t), WithIDGenerator(func(b mapping.Bundle) (string, error) {
		return b.BaseURI + fmt.Sprint(st.Len()), nil
	}))
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		e := entity.New("node", "page")
		e.SetValues("title", "value", title)
		require.NoError(t, c.Insert(ctx, e))
	}
	ids, err := c.List(ctx, "node", "page", 2, 1)
	require.NoError(t, err)
	require.Equal(t, []string{ex + "page/2", ex + "page/4"}, ids)

	_, err = c.List(ctx, "item", "item", 0, 0)
	require.True(t, errs.Is(err, errs.Config))
	_, err = c.List(ctx, "node", "blog", 0, 0)
	require.True(t, errs.Is(err, errs.UnmappedField))
}

func TestPingAndLoadBundle(t *testing.T) {
	executors(t, func(t *testing.T, st *sparqltest.Store, exec sparql.Executor) {
		c := New(exec, mappingtest.Table(t))
		ctx := context.Background()
		require.NoError(t, c.Ping(ctx))

		e := item(ex + "item2")
		e.SetValues("title", "value", "Bundle")
		require.NoError(t, c.Insert(ctx, e))

		got, err := c.LoadBundle(ctx, "item", "item", ex+"item2")
		require.NoError(t, err)
		require.Equal(t, "item", got.Bundle)
		require.Equal(t, []interface{}{"Bundle"}, got.Values("title", "value"))

		_, err = c.LoadBundle(ctx, "item", "item", ex+"missing")
		require.True(t, errs.Is(err, errs.NotFound))

		st.FailWith(fmt.Errorf("down"))
		require.Error(t, c.Ping(ctx))
	})
}
