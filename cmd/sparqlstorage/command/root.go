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

// Package command implements the sparqlstorage command line interface.
package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/sparqlstorage/clog"
	"github.com/cayleygraph/sparqlstorage/format"
	"github.com/cayleygraph/sparqlstorage/hook"
	"github.com/cayleygraph/sparqlstorage/mapping"
	"github.com/cayleygraph/sparqlstorage/sparql"
	"github.com/cayleygraph/sparqlstorage/storage"
)

const (
	KeyEndpoint       = "sparql.endpoint"
	KeyUpdateEndpoint = "sparql.update_endpoint"
	KeyTimeout        = "sparql.timeout"
	KeyUser           = "sparql.user"
	KeyPassword       = "sparql.password"

	KeyMapping = "mapping.path"

	KeyReadOnly = "http.read_only"
	KeyMaxConns = "http.max_conns"
	KeyHost     = "http.host"

	KeyServer = "client.server"
)

const envPrefix = "SPARQLSTORAGE"

// Filled in by `go build ldflags="-X github.com/cayleygraph/sparqlstorage/cmd/sparqlstorage/command.Version=ver"`.
var (
	Version   = "snapshot"
	BuildDate string
)

var errNoEndpoint = errors.New("SPARQL endpoint is not set (use --endpoint or " + envPrefix + "_SPARQL_ENDPOINT)")

// app holds the configuration shared by all commands of one root command.
type app struct {
	v *viper.Viper
}

func getContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		select {
		case <-ch:
		case <-ctx.Done():
		}
		signal.Stop(ch)
		cancel()
	}()
	return ctx, cancel
}

// NewRootCmd creates the sparqlstorage command with all subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "sparqlstorage",
		Short:         "Entity storage over a SPARQL triple store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to an explicit configuration file")
	pf.String("env", ".env", "dotenv file to load into the environment, if it exists")
	pf.StringP("endpoint", "e", "", "SPARQL query endpoint")
	pf.String("update_endpoint", "", "SPARQL update endpoint, if it differs from the query endpoint")
	pf.String("user", "", "user name for basic auth on the SPARQL endpoint")
	pf.String("password", "", "password for basic auth on the SPARQL endpoint")
	pf.Duration("timeout", storage.DefaultTimeout, "timeout of a single store operation")
	pf.StringP("mapping", "m", "", "path to the field mapping file")
	pf.AddGoFlagSet(flag.CommandLine)

	for key, name := range map[string]string{
		KeyEndpoint:       "endpoint",
		KeyUpdateEndpoint: "update_endpoint",
		KeyUser:           "user",
		KeyPassword:       "password",
		KeyTimeout:        "timeout",
		KeyMapping:        "mapping",
	} {
		a.v.BindPFlag(key, pf.Lookup(name))
	}

	root.AddCommand(
		a.newHTTPCmd(),
		a.newReplCmd(),
		a.newGetCmd(),
		a.newPutCmd(),
		a.newDeleteCmd(),
		a.newListCmd(),
		a.newFormatsCmd(),
		a.newMappingCmd(),
		newHealthCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("env"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		a.v.SetConfigFile(file)
		if err := a.v.ReadInConfig(); err != nil {
			return err
		}
	} else {
		a.v.SetConfigName("sparqlstorage")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.sparqlstorage")
		a.v.AddConfigPath("/etc/sparqlstorage")
		if err := a.v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return err
			}
		}
	}
	if used := a.v.ConfigFileUsed(); used != "" {
		clog.Infof("using config file: %s", used)
	}
	return nil
}

func (a *app) table() (*mapping.Table, error) {
	path := a.v.GetString(KeyMapping)
	if path == "" {
		return nil, errors.New("mapping file is not set (use --mapping or " + envPrefix + "_MAPPING_PATH)")
	}
	return mapping.LoadFile(path)
}

func (a *app) executor() (*sparql.Client, error) {
	endpoint := a.v.GetString(KeyEndpoint)
	if endpoint == "" {
		return nil, errNoEndpoint
	}
	cli := sparql.NewClient(endpoint)
	if u := a.v.GetString(KeyUpdateEndpoint); u != "" {
		cli.SetUpdateEndpoint(u)
	}
	if user := a.v.GetString(KeyUser); user != "" {
		cli.SetBasicAuth(user, a.v.GetString(KeyPassword))
	}
	return cli, nil
}

// openStorage builds a storage client from the configuration. Timestamp
// conversion hooks are always registered.
func (a *app) openStorage() (*storage.Client, *mapping.Table, error) {
	tbl, err := a.table()
	if err != nil {
		return nil, nil, err
	}
	exec, err := a.executor()
	if err != nil {
		return nil, nil, err
	}
	hooks := hook.NewDispatcher()
	hook.RegisterTimestamps(hooks)
	clog.Infof("using SPARQL endpoint %s", exec.Endpoint())
	st := storage.New(exec, tbl,
		storage.WithTimeout(a.v.GetDuration(KeyTimeout)),
		storage.WithHooks(hooks),
	)
	return st, tbl, nil
}

func formatsFor(tbl *mapping.Table) *format.Registry {
	if tbl == nil {
		return format.Default(nil)
	}
	return format.Default(tbl.Namespaces())
}
