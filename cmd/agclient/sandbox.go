// ABOUTME: The sandbox command runs a local triple-store server over SQLite
// ABOUTME: Listens until interrupted, using the profile's credentials for basic auth

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/agclient/internal/sandbox"
	"github.com/2389/agclient/internal/store"
)

func newSandboxCmd(a *app) *cobra.Command {
	var (
		addr     string
		database string
		files    string
		noAuth   bool
	)
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local development server",
		Long: `sandbox serves the triple-store REST protocol from a SQLite database.
It supports repositories, statements, namespaces, environments and a SPARQL
subset (select, ask, construct and describe over basic graph patterns).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Sandbox.Addr
			}
			if !cmd.Flags().Changed("db") {
				database = a.cfg.Sandbox.Database
			}

			st, err := store.NewSQLiteStore(database)
			if err != nil {
				return fmt.Errorf("opening sandbox database: %w", err)
			}

			opts := sandbox.Options{
				FileRoot: files,
				Logger:   a.logger.With("component", "sandbox"),
			}
			if !noAuth {
				opts.User = a.cfg.Auth.User
				opts.Password = a.cfg.Auth.Password
			}
			a.logger.Info("starting sandbox", "addr", addr, "database", database, "auth", opts.User != "")
			return sandbox.New(st, opts).Run(cmd.Context(), addr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "listen address (default from [sandbox] addr)")
	f.StringVar(&database, "db", "", "SQLite database path, :memory: for a throwaway store")
	f.StringVar(&files, "files", "", "directory server-side loads may read from; empty disables them")
	f.BoolVar(&noAuth, "no-auth", false, "serve without basic auth even when the profile has a user")
	return cmd
}
