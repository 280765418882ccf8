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
	"github.com/spf13/cobra"

	"github.com/cayleygraph/sparqlstorage/internal/repl"
)

func (a *app) runRepl(cmd *cobra.Command, args []string) error {
	st, tbl, err := a.openStorage()
	if err != nil {
		return err
	}
	ses := repl.NewSession(st, formatsFor(tbl), cmd.OutOrStdout())
	ses.ReadOnly, _ = cmd.Flags().GetBool("read_only")
	ses.ReadOnly = ses.ReadOnly || a.v.GetBool(KeyReadOnly)

	ctx, cancel := getContext(cmd.Context())
	defer cancel()
	return repl.Repl(ctx, ses, a.v.GetDuration(KeyTimeout))
}
