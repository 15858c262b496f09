// ABOUTME: Concurrent query throughput walkthrough
// ABOUTME: Runs select workers in an errgroup, each on its own connection

package tutorial

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/agclient/pkg/agclient"
)

// BenchOptions sizes a Bench run. Zero fields take defaults.
type BenchOptions struct {
	Workers int
	Queries int // per worker
	Rows    int
}

func (o BenchOptions) withDefaults() BenchOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Queries <= 0 {
		o.Queries = 250
	}
	if o.Rows <= 0 {
		o.Rows = 5
	}
	return o
}

// Bench runs Workers x Queries selects of Rows rows and reports throughput.
// A Conn is not shared between workers.
func Bench(ctx context.Context, env Env, opts BenchOptions) error {
	opts = opts.withDefaults()

	setup, repo, err := env.openRepository(ctx)
	if err != nil {
		return err
	}
	size, err := repo.Size(ctx, agclient.NoContext())
	setup.Close()
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	env.printf("Benchmarking %d workers x %d queries against %d statements\n", opts.Workers, opts.Queries, size)

	query := fmt.Sprintf("select ?x ?y ?z {?x ?y ?z} limit %d", opts.Rows)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.Workers {
		g.Go(func() error {
			conn, catalog := env.open()
			defer conn.Close()
			repo := catalog.Repository(env.repositoryName())

			for range opts.Queries {
				res, err := repo.EvalSparqlQuery(gctx, query, nil)
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
				if len(res.Values) > opts.Rows {
					return fmt.Errorf("worker %d: got %d rows, limit was %d", w, len(res.Values), opts.Rows)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := opts.Workers * opts.Queries
	env.printf("Did %d %d-row queries in %s (%.1f queries/s)\n",
		total, opts.Rows, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
	return nil
}
