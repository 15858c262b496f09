// ABOUTME: Catalog and repository commands: listing, lifecycle, size and contexts
// ABOUTME: Repository creation is idempotent with --if-missing

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/agclient/pkg/agclient"
)

func newCatalogsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the server's catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, srv := a.server()
			defer conn.Close()
			cats, err := srv.ListCatalogs(cmd.Context())
			if err != nil {
				return err
			}
			renderList(a.out, cats, "No catalogs.")
			return nil
		},
	}
}

func newReposCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Manage repositories in the catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, cat := a.catalog()
			defer conn.Close()
			names, err := cat.ListTripleStores(cmd.Context())
			if err != nil {
				return err
			}
			renderList(a.out, names, "No repositories.")
			return nil
		},
	}

	var ifMissing bool
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, cat := a.catalog()
			defer conn.Close()
			if ifMissing {
				created, err := cat.EnsureTripleStore(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !created {
					a.printf("Repository %s already exists\n", args[0])
					return nil
				}
			} else if err := cat.CreateTripleStore(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Created repository %s\n", args[0])
			return nil
		},
	}
	create.Flags().BoolVar(&ifMissing, "if-missing", false, "succeed when the repository already exists")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, cat := a.catalog()
			defer conn.Close()
			if err := cat.DeleteTripleStore(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Deleted repository %s\n", args[0])
			return nil
		},
	}

	federate := &cobra.Command{
		Use:   "federate NAME MEMBER...",
		Short: "Create a federated repository over existing ones",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, cat := a.catalog()
			defer conn.Close()
			if err := cat.FederateTripleStores(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			a.printf("Created federation %s over %v\n", args[0], args[1:])
			return nil
		},
	}

	cmd.AddCommand(list, create, del, federate)
	return cmd
}

func newSizeCmd(a *app) *cobra.Command {
	var contexts []string
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Count statements, optionally in some contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepository(func(repo *agclient.Repository) error {
				n, err := repo.Size(cmd.Context(), contextValues(contexts))
				if err != nil {
					return err
				}
				a.printf("%d\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&contexts, "context", nil, "restrict to a context (repeatable, null for the default graph)")
	return cmd
}

func newContextsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List the named graphs of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepository(func(repo *agclient.Repository) error {
				contexts, err := repo.ListContexts(cmd.Context())
				if err != nil {
					return err
				}
				renderList(a.out, contexts, "No contexts.")
				return nil
			})
		},
	}
}

// checkWriteable fails early with a readable message for federations.
func checkWriteable(cmd *cobra.Command, repo *agclient.Repository) error {
	ok, err := repo.IsWriteable(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("repository %s is not writeable", repo.URL())
	}
	return nil
}
