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

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cayleygraph/sparqlstorage/client"
	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/entity"
	"github.com/cayleygraph/sparqlstorage/errs"
	"github.com/cayleygraph/sparqlstorage/format"
	"github.com/cayleygraph/sparqlstorage/internal/decompress"
	"github.com/cayleygraph/sparqlstorage/storage"
)

// entityStore is implemented over a local storage client and over the REST API.
type entityStore interface {
	get(ctx context.Context, typ, bundle, id string) (*entity.Entity, []string, error)
	triples(ctx context.Context, w io.Writer, id, format string) error
	insert(ctx context.Context, list []*entity.Entity) ([]string, error)
	update(ctx context.Context, e *entity.Entity) ([]string, error)
	delete(ctx context.Context, id string) error
	list(ctx context.Context, typ, bundle string, limit, offset int) ([]string, error)
}

type directStore struct {
	st      *storage.Client
	formats *format.Registry
}

func warningsOf(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	fe, ok := err.(*errs.FieldErrors)
	if !ok {
		return nil, err
	}
	var out []string
	for _, e := range fe.Errs {
		out = append(out, e.Error())
	}
	return out, nil
}

func (s directStore) get(ctx context.Context, typ, bundle, id string) (*entity.Entity, []string, error) {
	var (
		e   *entity.Entity
		err error
	)
	if bundle != "" {
		e, err = s.st.LoadBundle(ctx, typ, bundle, id)
	} else {
		e, err = s.st.Load(ctx, typ, id)
	}
	warn, err := warningsOf(err)
	return e, warn, err
}

func (s directStore) triples(ctx context.Context, w io.Writer, id, name string) error {
	if !s.formats.Supports(name) {
		return fmt.Errorf("unsupported format: %q", name)
	}
	quads, err := s.st.Query(ctx, id)
	if err != nil {
		return err
	}
	if len(quads) == 0 {
		return &errs.Error{Kind: errs.NotFound, Op: "read", Entity: id}
	}
	return s.formats.Write(w, name, quads)
}

func (s directStore) insert(ctx context.Context, list []*entity.Entity) ([]string, error) {
	if len(list) == 1 {
		return warningsOf(s.st.Insert(ctx, list[0]))
	}
	n, err := s.st.InsertBatch(ctx, list)
	warn, err := warningsOf(err)
	if err != nil {
		return nil, fmt.Errorf("inserted %d of %d entities: %w", n, len(list), err)
	}
	return warn, nil
}

func (s directStore) update(ctx context.Context, e *entity.Entity) ([]string, error) {
	return warningsOf(s.st.Update(ctx, e))
}

func (s directStore) delete(ctx context.Context, id string) error {
	return s.st.Delete(ctx, id)
}

func (s directStore) list(ctx context.Context, typ, bundle string, limit, offset int) ([]string, error) {
	return s.st.List(ctx, typ, bundle, limit, offset)
}

type remoteStore struct {
	cli *client.Client
}

func (s remoteStore) get(ctx context.Context, typ, bundle, id string) (*entity.Entity, []string, error) {
	return s.cli.Get(ctx, typ, bundle, id)
}

func (s remoteStore) triples(ctx context.Context, w io.Writer, id, name string) error {
	rc, err := s.cli.Triples(ctx, id, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

func (s remoteStore) insert(ctx context.Context, list []*entity.Entity) ([]string, error) {
	var (
		res *client.Result
		err error
	)
	if len(list) == 1 {
		res, err = s.cli.Insert(ctx, list[0])
	} else {
		res, err = s.cli.InsertBatch(ctx, list)
	}
	if err != nil {
		return nil, err
	}
	return res.Warnings, nil
}

func (s remoteStore) update(ctx context.Context, e *entity.Entity) ([]string, error) {
	res, err := s.cli.Update(ctx, e)
	if err != nil {
		return nil, err
	}
	return res.Warnings, nil
}

func (s remoteStore) delete(ctx context.Context, id string) error {
	return s.cli.Delete(ctx, id)
}

func (s remoteStore) list(ctx context.Context, typ, bundle string, limit, offset int) ([]string, error) {
	return s.cli.List(ctx, typ, bundle, limit, offset)
}

func registerServerFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("server", "s", "", "address of a sparqlstorage server to use instead of the SPARQL endpoint")
}

func (a *app) openStore(cmd *cobra.Command) (entityStore, error) {
	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		return remoteStore{cli: client.New(strings.TrimSuffix(addr, "/"))}, nil
	}
	if addr := a.v.GetString(KeyServer); addr != "" {
		return remoteStore{cli: client.New(strings.TrimSuffix(addr, "/"))}, nil
	}
	st, tbl, err := a.openStorage()
	if err != nil {
		return nil, err
	}
	return directStore{st: st, formats: formatsFor(tbl)}, nil
}

func printWarnings(warn []string) {
	for _, w := range warn {
		clog.Warningf("skipped field: %s", w)
	}
}

func (a *app) newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <entity type> <id>",
		Short: "Load an entity and print it as JSON, or print its triples.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := getContext(cmd.Context())
			defer cancel()
			out := cmd.OutOrStdout()
			if name, _ := cmd.Flags().GetString("format"); name != "" {
				return s.triples(ctx, out, args[1], name)
			}
			bundle, _ := cmd.Flags().GetString("bundle")
			e, warn, err := s.get(ctx, args[0], bundle, args[1])
			if err != nil {
				return err
			}
			printWarnings(warn)
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		},
	}
	cmd.Flags().StringP("bundle", "b", "", "bundle of the entity, if it cannot be found from rdf:type")
	cmd.Flags().StringP("format", "f", "", "print triples in this format instead of the entity")
	registerServerFlag(cmd)
	return cmd
}

func readEntities(r io.Reader) ([]*entity.Entity, error) {
	r, err := decompress.Reader(r)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var list []*entity.Entity
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &list)
	} else {
		var e entity.Entity
		err = json.Unmarshal(data, &e)
		list = append(list, &e)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (a *app) newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [file]",
		Short: "Store entities from a JSON file, optionally gzip or bzip2 compressed (\"-\" or no file for stdin).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			list, err := readEntities(r)
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := getContext(cmd.Context())
			defer cancel()
			var warn []string
			if update, _ := cmd.Flags().GetBool("update"); update {
				for _, e := range list {
					w, err := s.update(ctx, e)
					if err != nil {
						return err
					}
					warn = append(warn, w...)
				}
			} else if warn, err = s.insert(ctx, list); err != nil {
				return err
			}
			printWarnings(warn)
			for _, e := range list {
				fmt.Fprintln(cmd.OutOrStdout(), e.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("update", "u", false, "replace existing entities instead of inserting new ones")
	registerServerFlag(cmd)
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete all triples of the given subjects.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := getContext(cmd.Context())
			defer cancel()
			for _, id := range args {
				if err := s.delete(ctx, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
	registerServerFlag(cmd)
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <entity type> <bundle>",
		Short: "List IDs of entities of a bundle.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			ctx, cancel := getContext(cmd.Context())
			defer cancel()
			ids, err := s.list(ctx, args[0], args[1], limit, offset)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 100, "maximal number of IDs")
	cmd.Flags().Int("offset", 0, "number of IDs to skip")
	registerServerFlag(cmd)
	return cmd
}
