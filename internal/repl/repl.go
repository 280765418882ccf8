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

// Package repl is an interactive shell for SPARQL queries and stored entities.
package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/peterh/liner"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/format"
	"github.com/cayleygraph/sparqlstorage/sparql"
	"github.com/cayleygraph/sparqlstorage/storage"
)

const (
	ps1 = "sparql> "
	ps2 = "...     "

	history = ".sparqlstorage_history"
)

// Session executes shell input against a storage client.
type Session struct {
	st       *storage.Client
	formats  *format.Registry
	out      io.Writer
	ReadOnly bool
}

// NewSession creates a session writing results to out.
func NewSession(st *storage.Client, formats *format.Registry, out io.Writer) *Session {
	return &Session{st: st, formats: formats, out: out}
}

// ErrParseMore is returned by Execute when the query is not complete yet.
var ErrParseMore = fmt.Errorf("query is incomplete")

var queryForms = []string{"ASK", "SELECT", "CONSTRUCT", "DESCRIBE"}

// queryKind returns the first keyword after prologue declarations.
func queryKind(code string) string {
	for _, f := range strings.Fields(code) {
		u := strings.ToUpper(f)
		switch u {
		case "PREFIX", "BASE":
			continue
		}
		if strings.HasSuffix(f, ":") || strings.HasPrefix(f, "<") {
			continue
		}
		return u
	}
	return ""
}

func complete(code string) bool {
	open := strings.Count(code, "{")
	return open > 0 && open == strings.Count(code, "}")
}

// Execute runs a SPARQL query or update. Queries are complete once all
// braces are closed; otherwise ErrParseMore is returned.
func (s *Session) Execute(ctx context.Context, code string) error {
	if !complete(code) {
		return ErrParseMore
	}
	exec := s.st.Executor()
	kind := queryKind(code)
	isQuery := false
	for _, f := range queryForms {
		if kind == f {
			isQuery = true
		}
	}
	if !isQuery {
		if s.ReadOnly {
			return fmt.Errorf("session is read-only")
		}
		if err := exec.Update(ctx, code); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "OK")
		return nil
	}
	start := time.Now()
	n := 0
	switch kind {
	case "ASK":
		ok, err := exec.Ask(ctx, code)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ok)
		return nil
	case "SELECT":
		rows, err := exec.Select(ctx, code)
		if err != nil {
			return err
		}
		for _, row := range rows {
			printBinding(s.out, row)
		}
		n = len(rows)
	default:
		quads, err := exec.Construct(ctx, code)
		if err != nil {
			return err
		}
		w := nquads.NewWriter(s.out)
		if _, err := w.WriteQuads(quads); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		n = len(quads)
	}
	printCount(s.out, n, time.Since(start))
	return nil
}

func printBinding(w io.Writer, row sparql.Binding) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, "?"+name+" = "+row[name].String())
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

func printCount(w io.Writer, n int, dt time.Duration) {
	if n == 0 {
		return
	}
	results := "Result"
	if n > 1 {
		results += "s"
	}
	fmt.Fprintf(w, "-----------\n%d %s\nElapsed time: %g ms\n\n", n, results, float64(dt.Microseconds())/1000)
}

const help = `Commands:
	help                      this help
	exit                      exit the shell
	:debug [t|f]              verbose logging
	:formats                  list output formats
	:get <type> <id>          load an entity and print it as JSON
	:triples <id> [format]    print triples of a subject
	:delete <id>              delete all triples of a subject
	:a <triple>               add a triple
	:d <triple>               delete a triple
Any other input is sent to the store as a SPARQL query or update.
`

// Command runs a shell command. It returns false if the line is not a command.
func (s *Session) Command(ctx context.Context, cmd, args string) (bool, error) {
	args = strings.TrimSpace(args)
	switch cmd {
	case "help":
		fmt.Fprint(s.out, help)
	case ":debug":
		var debug bool
		switch args {
		case "t":
			debug = true
		case "f":
		default:
			var err error
			debug, err = strconv.ParseBool(args)
			if err != nil {
				return true, fmt.Errorf("cannot parse %q as a valid boolean - acceptable values: 't'|'true' or 'f'|'false'", args)
			}
		}
		if debug {
			clog.SetV(2)
		} else {
			clog.SetV(0)
		}
		fmt.Fprintf(s.out, "Debug set to %t\n", debug)
	case ":formats":
		for _, f := range s.formats.List() {
			if f.Write {
				fmt.Fprintf(s.out, "%s\t%s\n", f.ID, strings.Join(f.Mime, ", "))
			}
		}
	case ":get":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return true, fmt.Errorf("usage: :get <type> <id>")
		}
		e, err := s.st.Load(ctx, fields[0], fields[1])
		if e == nil {
			return true, err
		}
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(e); err != nil {
			return true, err
		}
		return true, err
	case ":triples":
		fields := strings.Fields(args)
		if len(fields) < 1 || len(fields) > 2 {
			return true, fmt.Errorf("usage: :triples <id> [format]")
		}
		name := format.NTriples
		if len(fields) == 2 {
			name = fields[1]
		}
		quads, err := s.st.Query(ctx, fields[0])
		if err != nil {
			return true, err
		}
		return true, s.formats.Write(s.out, name, quads)
	case ":delete":
		if s.ReadOnly {
			return true, fmt.Errorf("session is read-only")
		}
		if args == "" {
			return true, fmt.Errorf("usage: :delete <id>")
		}
		return true, s.st.Delete(ctx, args)
	case ":a", ":d":
		if s.ReadOnly {
			return true, fmt.Errorf("session is read-only")
		}
		q, err := nquads.Parse(args)
		if err != nil {
			return true, fmt.Errorf("not a valid triple: %v", err)
		}
		q.Label = nil
		update := sparql.InsertData([]quad.Quad{q})
		if cmd == ":d" {
			update = sparql.DeleteData([]quad.Quad{q})
		}
		return true, s.st.Executor().Update(ctx, update)
	default:
		if strings.HasPrefix(cmd, ":") {
			return true, fmt.Errorf("unknown command: %q", cmd)
		}
		return false, nil
	}
	return true, nil
}

// Repl runs an interactive shell on the terminal.
func Repl(ctx context.Context, ses *Session, timeout time.Duration) error {
	term, err := terminal(history)
	if os.IsNotExist(err) {
		fmt.Printf("creating new history file: %q\n", history)
	}
	defer persist(term, history)

	var (
		prompt = ps1

		code string
	)

	newCtx := func() (context.Context, func()) { return ctx, func() {} }
	if timeout > 0 {
		newCtx = func() (context.Context, func()) { return context.WithTimeout(ctx, timeout) }
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if len(code) == 0 {
			prompt = ps1
		} else {
			prompt = ps2
		}
		line, err := term.Prompt(prompt)
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}

		term.AppendHistory(line)

		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if code == "" {
			cmd, args := splitLine(line)
			if cmd == "exit" {
				return nil
			}
			nctx, cancel := newCtx()
			handled, err := ses.Command(nctx, cmd, args)
			cancel()
			if err != nil {
				fmt.Println("Error:", err)
			}
			if handled {
				continue
			}
		}

		code += line + "\n"

		nctx, cancel := newCtx()
		err = ses.Execute(nctx, code)
		cancel()
		if err == ErrParseMore {
			// collect more input
		} else if err != nil {
			fmt.Println("Error:", err)
			code = ""
		} else {
			code = ""
		}
	}
}

// Splits a line into a command and its arguments
// e.g. ":a b c d ." will be split into ":a" and " b c d ."
func splitLine(line string) (string, string) {
	var command, arguments string

	line = strings.TrimSpace(line)

	// An empty line/a line consisting of whitespace contains neither command nor arguments
	if len(line) > 0 {
		command = strings.Fields(line)[0]

		// A line containing only a command has no arguments
		if len(line) > len(command) {
			arguments = line[len(command):]
		}
	}

	return command, arguments
}

func terminal(path string) (*liner.State, error) {
	term := liner.NewLiner()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c

		err := persist(term, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to properly clean up terminal: %v\n", err)
			os.Exit(1)
		}

		os.Exit(0)
	}()

	f, err := os.Open(path)
	if err != nil {
		return term, err
	}
	defer f.Close()
	_, err = term.ReadHistory(f)
	return term, err
}

func persist(term *liner.State, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("could not open %q to append history: %v", path, err)
	}
	defer f.Close()
	_, err = term.WriteHistory(f)
	if err != nil {
		return fmt.Errorf("could not write history to %q: %v", path, err)
	}
	return term.Close()
}
