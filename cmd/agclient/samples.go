// ABOUTME: The samples command lists, extracts and loads the bundled RDF documents
// ABOUTME: Handy for trying a fresh sandbox without hunting for data

package main

import (
	"github.com/spf13/cobra"

	"github.com/2389/agclient/internal/assets"
	"github.com/2389/agclient/pkg/agclient"
)

func newSamplesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "samples", Short: "Bundled sample documents"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the bundled documents",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			renderList(a.out, assets.Names(), "No samples.")
			return nil
		},
	}

	extract := &cobra.Command{
		Use:   "extract DIR",
		Short: "Write the bundled documents into DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			paths, err := assets.Extract(args[0])
			if err != nil {
				return err
			}
			renderList(a.out, paths, "No samples.")
			return nil
		},
	}

	var context, base string
	load := &cobra.Command{
		Use:   "load NAME",
		Short: "Load a bundled document into the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := assets.FormatFor(args[0])
			if err != nil {
				return err
			}
			text, err := assets.Read(args[0])
			if err != nil {
				return err
			}
			opts := &agclient.LoadOptions{BaseURI: base, Context: parseTerm(context)}
			return a.withRepository(func(repo *agclient.Repository) error {
				if err := repo.LoadData(cmd.Context(), text, format, opts); err != nil {
					return err
				}
				a.printf("Loaded %s\n", args[0])
				return nil
			})
		},
	}
	load.Flags().StringVar(&context, "context", "", "put every statement in this context")
	load.Flags().StringVar(&base, "base", "", "base URI for relative IRIs")

	cmd.AddCommand(list, extract, load)
	return cmd
}
