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

package hook

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cayleygraph/sparqlstorage/clog"
)

// Func is a hook. It may change ev.Values in place.
type Func func(ctx context.Context, ev *ValueEvent)

// ValuesFunc is the simple form of a hook: it receives values of one field
// and returns the values to use instead.
type ValuesFunc func(entityType, field string, values []interface{}) []interface{}

// Values adapts a ValuesFunc to a Func.
func Values(fn ValuesFunc) Func {
	return func(_ context.Context, ev *ValueEvent) {
		ev.Values = fn(ev.EntityType(), ev.Field, ev.Values)
	}
}

// Info describes a registered hook.
type Info struct {
	Name      string
	Direction Direction
	Priority  int
}

type registration struct {
	Info
	seq int
	fn  Func
}

// Dispatcher keeps hooks ordered by priority. Hooks with higher priority run
// first; hooks with the same priority run in registration order.
//
// A nil *Dispatcher is valid and has no hooks.
type Dispatcher struct {
	mu    sync.RWMutex
	seq   int
	hooks map[Direction][]registration
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{hooks: make(map[Direction][]registration)}
}

// Register adds a hook for one direction. It may be called while hooks run;
// a dispatch in progress keeps the list it started with.
func (d *Dispatcher) Register(dir Direction, priority int, name string, fn Func) {
	if fn == nil {
		panic("hook: nil func")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hooks == nil {
		d.hooks = make(map[Direction][]registration)
	}
	d.seq++
	old := d.hooks[dir]
	list := make([]registration, len(old), len(old)+1)
	copy(list, old)
	list = append(list, registration{
		Info: Info{Name: name, Direction: dir, Priority: priority},
		seq:  d.seq, fn: fn,
	})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].seq < list[j].seq
	})
	d.hooks[dir] = list
}

// OnOutbound registers a hook for values that are about to be written.
func (d *Dispatcher) OnOutbound(priority int, name string, fn Func) {
	d.Register(Outbound, priority, name, fn)
}

// OnInbound registers a hook for values that were read.
func (d *Dispatcher) OnInbound(priority int, name string, fn Func) {
	d.Register(Inbound, priority, name, fn)
}

// Hooks lists hooks of one direction in the order they run.
func (d *Dispatcher) Hooks(dir Direction) []Info {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Info, 0, len(d.hooks[dir]))
	for _, r := range d.hooks[dir] {
		out = append(out, r.Info)
	}
	return out
}

// Dispatch runs all hooks of the event direction.
//
// A panicking hook is logged and skipped; the remaining hooks still run and
// see the values as the failed hook left them.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *ValueEvent) {
	if d == nil {
		return
	}
	d.mu.RLock()
	list := d.hooks[ev.Direction]
	d.mu.RUnlock()
	for _, r := range list {
		if err := call(ctx, r, ev); err != nil {
			clog.Errorf("%s hook %q failed on %s.%s: %v", ev.Direction, r.Name, ev.Field, ev.Property, err)
		}
	}
}

func call(ctx context.Context, r registration, ev *ValueEvent) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("panic: %v", e)
		}
	}()
	if clog.V(3) {
		clog.Infof("%s hook %q on %s.%s", ev.Direction, r.Name, ev.Field, ev.Property)
	}
	r.fn(ctx, ev)
	return nil
}
