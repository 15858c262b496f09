// ABOUTME: Table and list rendering for command output
// ABOUTME: Uses tablewriter for bindings, statements and listings

package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/2389/agclient/pkg/agclient"
)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func quadRows(quads []agclient.Quad) [][]string {
	rows := make([][]string, len(quads))
	for i, q := range quads {
		rows[i] = []string{q.Subject, q.Predicate, q.Object, q.Context}
	}
	return rows
}

var quadHeaders = []string{"Subject", "Predicate", "Object", "Context"}

func renderQuads(w io.Writer, quads []agclient.Quad) error {
	if len(quads) == 0 {
		fmt.Fprintln(w, "No statements.")
		return nil
	}
	return renderTable(w, quadHeaders, quadRows(quads))
}

func renderList(w io.Writer, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
}

// renderResult prints a query answer in the shape of its kind.
func renderResult(w io.Writer, res *agclient.QueryResult) error {
	switch res.Kind {
	case agclient.ResultBoolean:
		fmt.Fprintln(w, res.Boolean)
		return nil
	case agclient.ResultStatements:
		return renderQuads(w, res.Statements)
	default:
		rows := make([][]string, len(res.Values))
		for i, v := range res.Values {
			rows[i] = v.Strings()
		}
		if err := renderTable(w, res.Names, rows); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d rows\n", len(rows))
		return nil
	}
}
