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

package clog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines []string
	level int
}

func (r *recorder) Infof(format string, args ...interface{}) {
	r.lines = append(r.lines, "I "+fmt.Sprintf(format, args...))
}
func (r *recorder) Warningf(format string, args ...interface{}) {
	r.lines = append(r.lines, "W "+fmt.Sprintf(format, args...))
}
func (r *recorder) Errorf(format string, args ...interface{}) {
	r.lines = append(r.lines, "E "+fmt.Sprintf(format, args...))
}
func (r *recorder) Fatalf(format string, args ...interface{}) {}

func (r *recorder) V(level int) bool { return r.level >= level }
func (r *recorder) SetV(level int)   { r.level = level }

func TestVerbosityDelegation(t *testing.T) {
	prev := logger
	defer SetLogger(prev)

	r := &recorder{}
	SetLogger(r)

	Debugf("hidden %d", 1)
	SetV(2)
	require.True(t, V(2))
	Debugf("shown %d", 2)
	Warningf("careful")
	Errorf("broken")

	require.Equal(t, []string{"I shown 2", "W careful", "E broken"}, r.lines)
}

func TestEntry(t *testing.T) {
	prev := logger
	defer SetLogger(prev)

	r := &recorder{}
	SetLogger(r)

	For("http://example.com/100%").Warningf("skipping field: %s", "title")
	For("").Infof("plain")
	For("x").Debugf("hidden")
	SetV(2)
	For("x").Debugf("shown")

	require.Equal(t, []string{
		"W http://example.com/100%: skipping field: title",
		"I plain",
		"I x: shown",
	}, r.lines)
}
