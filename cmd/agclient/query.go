// ABOUTME: SPARQL and Prolog query commands
// ABOUTME: Prints a table, or streams rows as NDJSON lines with --stream

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/agclient/pkg/agclient"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		stream   bool
		infer    bool
		contexts []string
		named    []string
		binds    []string
	)
	cmd := &cobra.Command{
		Use:   "query SPARQL",
		Short: "Run a SPARQL query",
		Example: `  agclient query 'select ?x ?y ?z {?x ?y ?z} limit 5'
  agclient query --stream --context '<http://foo.com>' 'select * {?s ?p ?o}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := parseBindings(binds)
			if err != nil {
				return err
			}
			opts := &agclient.QueryOptions{
				Infer:         infer,
				Contexts:      contextValues(contexts),
				NamedContexts: contextValues(named),
				Bindings:      bindings,
			}
			return a.withRepository(func(repo *agclient.Repository) error {
				if stream {
					rows, err := repo.StreamSparqlQuery(cmd.Context(), args[0], opts)
					if err != nil {
						return err
					}
					return a.printRows(rows)
				}
				res, err := repo.EvalSparqlQuery(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return renderResult(a.out, res)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&stream, "stream", false, "print rows as they arrive, one JSON array per line")
	f.BoolVar(&infer, "infer", false, "enable reasoning")
	f.StringArrayVar(&contexts, "context", nil, "default-graph context (repeatable, null for the default graph)")
	f.StringArrayVar(&named, "named-context", nil, "named graph (repeatable)")
	f.StringArrayVar(&binds, "bind", nil, "pre-bind a variable, as var=term (repeatable)")
	return cmd
}

func newPrologCmd(a *app) *cobra.Command {
	var (
		stream bool
		infer  bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "prolog QUERY",
		Short: "Run a Prolog select query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &agclient.PrologOptions{Infer: infer, Limit: limit}
			return a.withRepository(func(repo *agclient.Repository) error {
				if stream {
					rows, err := repo.StreamPrologQuery(cmd.Context(), args[0], opts)
					if err != nil {
						return err
					}
					return a.printRows(rows)
				}
				res, err := repo.EvalPrologQuery(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return renderResult(a.out, res)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&stream, "stream", false, "print rows as they arrive")
	f.BoolVar(&infer, "infer", false, "enable reasoning")
	f.IntVar(&limit, "limit", 0, "maximum number of results, 0 for no limit")
	return cmd
}

// printRows writes each streamed row as one JSON line.
func (a *app) printRows(rows *agclient.Rows) error {
	defer rows.Close()
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	return rows.Each(func(row agclient.Row) error {
		return enc.Encode(row)
	})
}

func parseBindings(binds []string) (map[string]string, error) {
	if len(binds) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(binds))
	for _, b := range binds {
		name, value, ok := strings.Cut(b, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("binding %q must look like var=term", b)
		}
		out[strings.TrimPrefix(name, "?")] = parseTerm(value)
	}
	return out, nil
}
