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
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/cayleygraph/sparqlstorage/clog"
	storagehttp "github.com/cayleygraph/sparqlstorage/server/http"
)

const shutdownTimeout = 5 * time.Second

func (a *app) newHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the REST API on the given host and port.",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, tbl, err := a.openStorage()
			if err != nil {
				return err
			}
			api := storagehttp.NewAPI(st, formatsFor(tbl))
			api.SetReadOnly(a.v.GetBool(KeyReadOnly))
			if limit, _ := cmd.Flags().GetInt("list_limit"); limit > 0 {
				api.SetListLimit(limit)
			}

			host := a.v.GetString(KeyHost)
			lis, err := net.Listen("tcp", host)
			if err != nil {
				return err
			}
			if n := a.v.GetInt(KeyMaxConns); n > 0 {
				lis = netutil.LimitListener(lis, n)
			}
			srv := &http.Server{
				Handler: storagehttp.Routes(api, storagehttp.CORS, storagehttp.LogRequest),
			}
			ctx, cancel := getContext(cmd.Context())
			defer cancel()
			errc := make(chan error, 1)
			go func() {
				errc <- srv.Serve(lis)
			}()
			clog.Infof("listening on %s", lis.Addr())
			select {
			case err = <-errc:
			case <-ctx.Done():
				sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer scancel()
				err = srv.Shutdown(sctx)
			}
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			return err
		},
	}
	cmd.Flags().String("host", "127.0.0.1:64210", "host:port to listen on")
	cmd.Flags().Bool("read_only", false, "reject writes")
	cmd.Flags().Int("max_conns", 0, "maximal number of concurrent connections (0 means no limit)")
	cmd.Flags().Int("list_limit", 0, "maximal number of IDs returned by a list request")
	a.v.BindPFlag(KeyHost, cmd.Flags().Lookup("host"))
	a.v.BindPFlag(KeyReadOnly, cmd.Flags().Lookup("read_only"))
	a.v.BindPFlag(KeyMaxConns, cmd.Flags().Lookup("max_conns"))
	return cmd
}
