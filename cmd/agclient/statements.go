// ABOUTME: Statement commands: get, add, delete, document loading and blank nodes
// ABOUTME: Terms are N-Triples; bare IRIs are accepted and wrapped in angle brackets

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/2389/agclient/pkg/agclient"
)

func newStatementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "statements",
		Aliases: []string{"st"},
		Short:   "Get, add and delete statements",
	}
	cmd.AddCommand(newStatementsGetCmd(a), newStatementsAddCmd(a), newStatementsDeleteCmd(a))
	return cmd
}

func newStatementsGetCmd(a *app) *cobra.Command {
	var (
		f        agclient.StatementFilter
		contexts []string
		stream   bool
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "List statements matching a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := f
			for _, t := range []*string{
				&filter.Subject, &filter.SubjectEnd,
				&filter.Predicate, &filter.PredicateEnd,
				&filter.Object, &filter.ObjectEnd,
			} {
				*t = parseTerm(*t)
			}
			filter.Contexts = contextValues(contexts)

			return a.withRepository(func(repo *agclient.Repository) error {
				if stream {
					rows, err := repo.StreamStatements(cmd.Context(), &filter)
					if err != nil {
						return err
					}
					return a.printRows(rows)
				}
				quads, err := repo.GetStatements(cmd.Context(), &filter)
				if err != nil {
					return err
				}
				return renderQuads(a.out, quads)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Subject, "subj", "", "subject, or range start with --subj-end")
	fl.StringVar(&f.SubjectEnd, "subj-end", "", "subject range end")
	fl.StringVar(&f.Predicate, "pred", "", "predicate, or range start with --pred-end")
	fl.StringVar(&f.PredicateEnd, "pred-end", "", "predicate range end")
	fl.StringVar(&f.Object, "obj", "", "object, or range start with --obj-end")
	fl.StringVar(&f.ObjectEnd, "obj-end", "", "object range end")
	fl.StringArrayVar(&contexts, "context", nil, "restrict to a context (repeatable, null for the default graph)")
	fl.BoolVar(&f.Infer, "infer", false, "include inferred statements")
	fl.BoolVar(&stream, "stream", false, "print rows as they arrive")
	return cmd
}

// quadFromArgs builds a statement from S P O [CONTEXT] arguments.
func quadFromArgs(args []string) agclient.Quad {
	q := agclient.NewQuad(parseTerm(args[0]), parseTerm(args[1]), parseTerm(args[2]), "")
	if len(args) == 4 {
		q.Context = parseTerm(args[3])
	}
	return q
}

func newStatementsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add SUBJECT PREDICATE OBJECT [CONTEXT]",
		Short: "Add one statement",
		Example: `  agclient statements add http://ex/ted http://ex/age '"55"^^<http://www.w3.org/2001/XMLSchema#int>' http://foo.com`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := quadFromArgs(args)
			return a.withRepository(func(repo *agclient.Repository) error {
				if err := checkWriteable(cmd, repo); err != nil {
					return err
				}
				if err := repo.AddStatement(cmd.Context(), q); err != nil {
					return err
				}
				a.printf("Added %s\n", q)
				return nil
			})
		},
	}
}

func newStatementsDeleteCmd(a *app) *cobra.Command {
	var (
		p        agclient.StatementPattern
		contexts []string
		exact    bool
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "delete [SUBJECT PREDICATE OBJECT [CONTEXT]]",
		Short: "Delete matching statements, or one exact statement with --exact",
		Args:  cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepository(func(repo *agclient.Repository) error {
				if exact {
					if len(args) < 3 {
						return fmt.Errorf("--exact needs SUBJECT PREDICATE OBJECT [CONTEXT]")
					}
					q := quadFromArgs(args)
					if err := repo.DeleteStatements(cmd.Context(), []agclient.Quad{q}); err != nil {
						return err
					}
					a.printf("Deleted %s\n", q)
					return nil
				}

				if len(args) > 0 {
					return fmt.Errorf("positional terms need --exact; use --subj/--pred/--obj for patterns")
				}
				pattern := agclient.StatementPattern{
					Subject:   parseTerm(p.Subject),
					Predicate: parseTerm(p.Predicate),
					Object:    parseTerm(p.Object),
					Contexts:  contextValues(contexts),
				}
				if pattern.Subject == "" && pattern.Predicate == "" && pattern.Object == "" &&
					pattern.Contexts.IsZero() && !all {
					return fmt.Errorf("refusing to delete every statement without --all")
				}
				if err := repo.DeleteMatchingStatements(cmd.Context(), &pattern); err != nil {
					return err
				}
				a.printf("Deleted matching statements\n")
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&p.Subject, "subj", "", "subject to match")
	fl.StringVar(&p.Predicate, "pred", "", "predicate to match")
	fl.StringVar(&p.Object, "obj", "", "object to match")
	fl.StringArrayVar(&contexts, "context", nil, "context to match (repeatable, null for the default graph)")
	fl.BoolVar(&exact, "exact", false, "delete exactly the statement given as arguments")
	fl.BoolVar(&all, "all", false, "allow deleting every statement")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		format     string
		context    string
		base       string
		serverSide bool
	)
	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load an RDF document into the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &agclient.LoadFileOptions{
				LoadOptions: agclient.LoadOptions{BaseURI: base, Context: parseTerm(context)},
				ServerSide:  serverSide,
			}
			return a.withRepository(func(repo *agclient.Repository) error {
				if err := repo.LoadFile(cmd.Context(), args[0], format, opts); err != nil {
					return err
				}
				a.printf("Loaded %s\n", args[0])
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&format, "format", "f", agclient.FormatNTriples, "document format: ntriples or rdf/xml")
	fl.StringVar(&context, "context", "", "put every statement in this context")
	fl.StringVar(&base, "base", "", "base URI for relative IRIs")
	fl.BoolVar(&serverSide, "server-side", false, "have the server read FILE from its own file system")
	return cmd
}

func newBlankNodesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blank-nodes [N]",
		Short: "Allocate fresh blank node ids",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("amount %q must be a positive integer", args[0])
				}
				amount = n
			}
			return a.withRepository(func(repo *agclient.Repository) error {
				ids, err := repo.GetBlankNodes(cmd.Context(), amount)
				if err != nil {
					return err
				}
				renderList(a.out, ids, "No blank nodes.")
				return nil
			})
		},
	}
}
