// ABOUTME: Scenario registry and shared environment for the guided client walkthroughs
// ABOUTME: Each scenario exercises one area of the agclient API against a live server

package tutorial

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/2389/agclient/pkg/agclient"
)

// Env is the connection profile a scenario runs with.
type Env struct {
	Server     string
	Catalog    string
	Repository string
	Out        io.Writer
	Opts       []agclient.Option
}

// Scenario is one runnable walkthrough.
type Scenario struct {
	Name    string
	Summary string
	Run     func(ctx context.Context, env Env) error
}

var scenarios = map[string]Scenario{}

func register(s Scenario) {
	scenarios[s.Name] = s
}

func init() {
	register(Scenario{Name: "basics", Summary: "catalogs, repository setup, one statement, a select", Run: Basics})
	register(Scenario{Name: "bulk", Summary: "batch insert with literals and a type mapping", Run: Bulk})
	register(Scenario{Name: "namespaces", Summary: "environments and namespace declarations", Run: Namespaces})
	register(Scenario{Name: "stream", Summary: "stream statements row by row", Run: Stream})
	register(Scenario{Name: "load", Summary: "load an N-Triples document into a context", Run: Load})
	register(Scenario{Name: "bench", Summary: "concurrent select throughput, one connection per worker", Run: func(ctx context.Context, env Env) error {
		return Bench(ctx, env, BenchOptions{})
	}})
}

// Scenarios returns every scenario sorted by name.
func Scenarios() []Scenario {
	out := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	return s, ok
}

func (e Env) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

func (e Env) printf(format string, args ...any) {
	fmt.Fprintf(e.out(), format, args...)
}

func (e Env) repositoryName() string {
	if e.Repository == "" {
		return "test"
	}
	return e.Repository
}

// open connects and returns the catalog facade. The caller closes the Conn.
func (e Env) open() (*agclient.Conn, *agclient.Catalog) {
	conn := agclient.NewConn(e.Opts...)
	return conn, agclient.NewServer(conn, e.Server).OpenCatalog(e.Catalog)
}

// openRepository opens the catalog and makes sure the repository exists.
func (e Env) openRepository(ctx context.Context) (*agclient.Conn, *agclient.Repository, error) {
	conn, catalog := e.open()
	created, err := catalog.EnsureTripleStore(ctx, e.repositoryName())
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("opening repository %s: %w", e.repositoryName(), err)
	}
	if created {
		e.printf("Created repository %q\n", e.repositoryName())
	}
	return conn, catalog.Repository(e.repositoryName()), nil
}
