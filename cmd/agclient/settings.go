// ABOUTME: Repository settings commands: indices, namespaces, environments
// ABOUTME: Also free-text search and datatype/predicate mappings

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/agclient/pkg/agclient"
)

// repoCmd builds a leaf command that runs fn against the profile's repository.
func repoCmd(a *app, use, short string, args cobra.PositionalArgs,
	fn func(ctx context.Context, repo *agclient.Repository, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			return a.withRepository(func(repo *agclient.Repository) error {
				return fn(cmd.Context(), repo, argv)
			})
		},
	}
}

func newIndicesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "indices", Short: "Manage SPOGI indices and indexing"}

	var all bool
	reindex := repoCmd(a, "reindex", "Index unindexed statements", cobra.NoArgs,
		func(ctx context.Context, repo *agclient.Repository, _ []string) error {
			if err := repo.IndexStatements(ctx, all); err != nil {
				return err
			}
			a.printf("Indexing requested\n")
			return nil
		})
	reindex.Flags().BoolVar(&all, "all", false, "reindex the whole repository")

	cmd.AddCommand(
		repoCmd(a, "list", "List active index orderings", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				indices, err := repo.ListIndices(ctx)
				if err != nil {
					return err
				}
				renderList(a.out, indices, "No indices.")
				return nil
			}),
		repoCmd(a, "add KIND", "Register an index ordering such as gposi", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.AddIndex(ctx, args[0])
			}),
		repoCmd(a, "delete KIND", "Drop an index ordering", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DeleteIndex(ctx, args[0])
			}),
		repoCmd(a, "coverage", "Show the indexed proportion of the repository", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				f, err := repo.IndexCoverage(ctx)
				if err != nil {
					return err
				}
				a.printf("%.1f%%\n", f*100)
				return nil
			}),
		reindex,
		newThresholdCmd(a),
	)
	return cmd
}

func newThresholdCmd(a *app) *cobra.Command {
	var triples, chunks int
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Set the background indexing triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("triples") && !cmd.Flags().Changed("chunks") {
				return fmt.Errorf("set --triples, --chunks or both")
			}
			return a.withRepository(func(repo *agclient.Repository) error {
				if cmd.Flags().Changed("triples") {
					if err := repo.SetIndexingTripleThreshold(cmd.Context(), triples); err != nil {
						return err
					}
				}
				if cmd.Flags().Changed("chunks") {
					if err := repo.SetIndexingChunkThreshold(cmd.Context(), chunks); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&triples, "triples", 0, "unindexed triple count that triggers indexing, 0 disables")
	cmd.Flags().IntVar(&chunks, "chunks", 0, "unindexed chunk count that triggers indexing, 0 disables")
	return cmd
}

func newNamespacesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "namespaces",
		Aliases: []string{"ns"},
		Short:   "Manage namespace prefixes in the current environment",
	}
	cmd.AddCommand(
		repoCmd(a, "list", "List declared prefixes", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				nss, err := repo.ListNamespaces(ctx)
				if err != nil {
					return err
				}
				if len(nss) == 0 {
					a.printf("No namespaces.\n")
					return nil
				}
				rows := make([][]string, len(nss))
				for i, ns := range nss {
					rows[i] = []string{ns.Prefix, ns.URI}
				}
				return renderTable(a.out, []string{"Prefix", "Namespace"}, rows)
			}),
		repoCmd(a, "add PREFIX URI", "Declare a prefix", cobra.ExactArgs(2),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.AddNamespace(ctx, args[0], args[1])
			}),
		repoCmd(a, "delete PREFIX", "Remove a prefix", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DeleteNamespace(ctx, args[0])
			}),
		repoCmd(a, "clear", "Remove every prefix", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				return repo.ClearNamespaces(ctx)
			}),
	)
	return cmd
}

func newEnvsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "envs", Short: "Manage query environments"}
	cmd.AddCommand(
		repoCmd(a, "list", "List environments", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				envs, err := repo.ListEnvironments(ctx)
				if err != nil {
					return err
				}
				renderList(a.out, envs, "No environments.")
				return nil
			}),
		repoCmd(a, "create [NAME]", "Create an environment; the server names it when NAME is omitted", cobra.MaximumNArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				created, err := repo.CreateEnvironment(ctx, name)
				if err != nil {
					return err
				}
				a.printf("%s\n", created)
				return nil
			}),
		repoCmd(a, "delete NAME", "Delete an environment", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DeleteEnvironment(ctx, args[0])
			}),
		repoCmd(a, "functor DEFINITION", "Define a Prolog functor in the current environment", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DefinePrologFunctor(ctx, args[0])
			}),
	)
	return cmd
}

func newFreeTextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "freetext", Short: "Free-text search and indexed predicates"}

	var stream bool
	search := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Find statements whose indexed objects match PATTERN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *agclient.Repository) error {
				if stream {
					rows, err := repo.StreamFreeTextSearch(cmd.Context(), args[0], nil)
					if err != nil {
						return err
					}
					return a.printRows(rows)
				}
				quads, err := repo.EvalFreeTextSearch(cmd.Context(), args[0], nil)
				if err != nil {
					return err
				}
				return renderQuads(a.out, quads)
			})
		},
	}
	search.Flags().BoolVar(&stream, "stream", false, "print rows as they arrive")

	cmd.AddCommand(
		search,
		repoCmd(a, "predicates", "List predicates whose objects are indexed", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				preds, err := repo.ListFreeTextPredicates(ctx)
				if err != nil {
					return err
				}
				renderList(a.out, preds, "No free-text predicates.")
				return nil
			}),
		repoCmd(a, "register PREDICATE", "Index the objects of PREDICATE", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.RegisterFreeTextPredicate(ctx, parseTerm(args[0]))
			}),
	)
	return cmd
}

func newMappingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "mappings", Short: "Map datatypes and predicates onto primitive types"}

	types := &cobra.Command{Use: "types", Short: "Datatype mappings"}
	types.AddCommand(
		repoCmd(a, "list", "List datatype mappings", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				ms, err := repo.ListMappedTypes(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, len(ms))
				for i, m := range ms {
					rows[i] = []string{m.Type, m.PrimitiveType}
				}
				return renderTable(a.out, []string{"Type", "Primitive"}, rows)
			}),
		repoCmd(a, "add TYPE PRIMITIVE", "Map a datatype", cobra.ExactArgs(2),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.AddMappedType(ctx, parseTerm(args[0]), args[1])
			}),
		repoCmd(a, "delete TYPE", "Remove a datatype mapping", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DeleteMappedType(ctx, parseTerm(args[0]))
			}),
	)

	preds := &cobra.Command{Use: "predicates", Short: "Predicate mappings"}
	preds.AddCommand(
		repoCmd(a, "list", "List predicate mappings", cobra.NoArgs,
			func(ctx context.Context, repo *agclient.Repository, _ []string) error {
				ms, err := repo.ListMappedPredicates(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, len(ms))
				for i, m := range ms {
					rows[i] = []string{m.Predicate, m.PrimitiveType}
				}
				return renderTable(a.out, []string{"Predicate", "Primitive"}, rows)
			}),
		repoCmd(a, "add PREDICATE PRIMITIVE", "Map the objects of a predicate", cobra.ExactArgs(2),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.AddMappedPredicate(ctx, parseTerm(args[0]), args[1])
			}),
		repoCmd(a, "delete PREDICATE", "Remove a predicate mapping", cobra.ExactArgs(1),
			func(ctx context.Context, repo *agclient.Repository, args []string) error {
				return repo.DeleteMappedPredicate(ctx, parseTerm(args[0]))
			}),
	)

	cmd.AddCommand(types, preds)
	return cmd
}
