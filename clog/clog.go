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

// Package clog provides the logging interface used by sparqlstorage packages.
//
// Libraries only log through clog. Binaries pick a backend with SetLogger,
// usually by importing clog/glog.
package clog

import (
	"log"
	"strings"
)

// Logger is the clog logging interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// Verbosity is implemented by loggers that manage their own verbosity level.
type Verbosity interface {
	V(level int) bool
	SetV(level int)
}

var logger Logger = stdlog{}

// SetLogger set the clog logging implementation.
func SetLogger(l Logger) { logger = l }

var verbosity int

// V returns whether the current clog verbosity is above the specified level.
func V(level int) bool {
	if v, ok := logger.(Verbosity); ok {
		return v.V(level)
	}
	return verbosity >= level
}

// SetV sets the clog verbosity level.
func SetV(level int) {
	if v, ok := logger.(Verbosity); ok {
		v.SetV(level)
		return
	}
	verbosity = level
}

// Infof logs information level messages.
func Infof(format string, args ...interface{}) {
	if logger != nil {
		logger.Infof(format, args...)
	}
}

// Debugf logs information level messages when verbosity is at least 2.
func Debugf(format string, args ...interface{}) {
	if logger != nil && V(2) {
		logger.Infof(format, args...)
	}
}

// Warningf logs warning level messages.
func Warningf(format string, args ...interface{}) {
	if logger != nil {
		logger.Warningf(format, args...)
	}
}

// Errorf logs error level messages.
func Errorf(format string, args ...interface{}) {
	if logger != nil {
		logger.Errorf(format, args...)
	}
}

// Entry logs messages about a single subject, usually an entity ID.
type Entry struct {
	subject string
}

// For returns an Entry that prefixes messages with the subject.
func For(subject string) Entry { return Entry{subject: subject} }

func (e Entry) format(format string) string {
	if e.subject == "" {
		return format
	}
	return strings.ReplaceAll(e.subject, "%", "%%") + ": " + format
}

// Infof logs an information level message about the subject.
func (e Entry) Infof(format string, args ...interface{}) { Infof(e.format(format), args...) }

// Debugf logs an information level message about the subject when
// verbosity is at least 2.
func (e Entry) Debugf(format string, args ...interface{}) { Debugf(e.format(format), args...) }

// Warningf logs a warning about the subject.
func (e Entry) Warningf(format string, args ...interface{}) { Warningf(e.format(format), args...) }

// Errorf logs an error about the subject.
func (e Entry) Errorf(format string, args ...interface{}) { Errorf(e.format(format), args...) }

// Fatalf logs fatal messages and terminates the program.
func Fatalf(format string, args ...interface{}) {
	if logger != nil {
		logger.Fatalf(format, args...)
	}
}

// stdlog wraps the standard library logger.
type stdlog struct{}

func (stdlog) Infof(format string, args ...interface{})    { log.Printf(format, args...) }
func (stdlog) Warningf(format string, args ...interface{}) { log.Printf("WARN: "+format, args...) }
func (stdlog) Errorf(format string, args ...interface{})   { log.Printf("ERROR: "+format, args...) }
func (stdlog) Fatalf(format string, args ...interface{})   { log.Fatalf("FATAL: "+format, args...) }
