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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cayleygraph/sparqlstorage/client"
	"github.com/cayleygraph/sparqlstorage/mapping"
)

func (a *app) newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List supported triple formats.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tbl *mapping.Table
			if a.v.GetString(KeyMapping) != "" {
				var err error
				if tbl, err = a.table(); err != nil {
					return err
				}
			}
			list := formatsFor(tbl).List()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREAD\tWRITE\tMIME")
			for _, f := range list {
				fmt.Fprintf(tw, "%s\t%v\t%v\t%s\n", f.ID, f.Read, f.Write, strings.Join(f.Mime, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print formats as JSON")
	return cmd
}

func (a *app) newMappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect the field mapping.",
	}
	check := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a mapping file and print its bundles and fields.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tbl *mapping.Table
				err error
			)
			if len(args) == 1 {
				tbl, err = mapping.LoadFile(args[0])
			} else {
				tbl, err = a.table()
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range tbl.Bundles() {
				fmt.Fprintf(out, "%s:%s", b.EntityType, b.Bundle)
				if b.RDFType != "" {
					fmt.Fprintf(out, " a <%s>", string(b.RDFType))
				}
				fmt.Fprintln(out)
				for _, name := range tbl.Fields(b.EntityType, b.Bundle) {
					f, _ := tbl.Field(b.EntityType, b.Bundle, name)
					for _, m := range f.Properties {
						mult := ""
						if m.Multiple {
							mult = " (multiple)"
						}
						fmt.Fprintf(out, "  %s.%s -> <%s> %s%s\n", name, m.Property, string(m.Predicate), string(m.Format), mult)
					}
				}
			}
			return nil
		},
	}
	cmd.AddCommand(check)
	return cmd
}

func (a *app) newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Run an interactive SPARQL shell.",
		Args:  cobra.NoArgs,
		RunE:  a.runRepl,
	}
	cmd.Flags().Bool("read_only", false, "reject updates")
	return cmd
}

const defaultAddress = "http://localhost:64210"

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health [address]",
		Short: "Check a sparqlstorage server and its triple store.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := defaultAddress
			if len(args) == 1 {
				address = strings.TrimSuffix(args[0], "/")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := client.New(address).Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if BuildDate != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "sparqlstorage %s built %s\n", Version, BuildDate)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "sparqlstorage %s\n", Version)
			}
			return nil
		},
	}
}
