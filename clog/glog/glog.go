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

// Package glog installs github.com/golang/glog as the clog backend.
package glog

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/cayleygraph/sparqlstorage/clog"
)

func init() {
	clog.SetLogger(Logger{})
}

// Logger forwards clog calls to glog, keeping the caller's file:line.
type Logger struct{}

func (Logger) Infof(format string, args ...interface{}) {
	glog.InfoDepth(3, fmt.Sprintf(format, args...))
}
func (Logger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(3, fmt.Sprintf(format, args...))
}
func (Logger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(3, fmt.Sprintf(format, args...))
}
func (Logger) Fatalf(format string, args ...interface{}) {
	glog.FatalDepth(3, fmt.Sprintf(format, args...))
}

func (Logger) V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}

// SetV changes the -v flag registered by glog.
func (Logger) SetV(v int) {
	f := flag.Lookup("v")
	if f == nil {
		glog.Warningf("cannot change log level; run command with '-v %d' flag", v)
		return
	}
	if err := f.Value.Set(strconv.Itoa(v)); err != nil {
		glog.Warningf("cannot change log level: %v", err)
	}
}
