// ABOUTME: Walkthrough scenarios covering repositories, statements, namespaces and loading
// ABOUTME: Output is plain text meant for a terminal

package tutorial

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/2389/agclient/internal/assets"
	"github.com/2389/agclient/pkg/agclient"
)

const (
	exampleNS   = "http://www.franz.com/example#"
	peopleNS    = "http://example.org/people#"
	fooContext  = "<http://foo.com>"
	sampleQuery = "select ?x ?y ?z {?x ?y ?z} limit 5"
)

// Basics lists catalogs, ensures the repository, seeds one statement when
// empty and runs a select restricted to the seeded context.
func Basics(ctx context.Context, env Env) error {
	conn := agclient.NewConn(env.Opts...)
	defer conn.Close()
	server := agclient.NewServer(conn, env.Server)

	cats, err := server.ListCatalogs(ctx)
	if err != nil {
		return fmt.Errorf("listing catalogs: %w", err)
	}
	env.printf("List of catalogs: %v\n", cats)

	name := env.Catalog
	if name == "" && len(cats) > 0 {
		name = cats[0]
	}
	catalog := server.OpenCatalog(name)
	env.printf("Found catalog %s\n", catalog.URL())

	repos, err := catalog.ListTripleStores(ctx)
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}
	repoName := env.repositoryName()
	env.printf("Is %q there? %v %v\n", repoName, repos, slices.Contains(repos, repoName))

	created, err := catalog.EnsureTripleStore(ctx, repoName)
	if err != nil {
		return fmt.Errorf("creating repository: %w", err)
	}
	if created {
		env.printf("Created repository %q\n", repoName)
	}

	repo := catalog.Repository(repoName)
	size, err := repo.Size(ctx, agclient.NoContext())
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	env.printf("Size of %q repository: %d\n", repoName, size)

	if size == 0 {
		ted := agclient.NewQuad(
			agclient.URI(exampleNS+"ted"),
			agclient.URI(exampleNS+"age"),
			agclient.TypedLiteral("55", agclient.XSDInt),
			fooContext,
		)
		if err := repo.AddStatement(ctx, ted); err != nil {
			return fmt.Errorf("adding statement: %w", err)
		}
		env.printf("Added %s\n", ted)
	}

	res, err := repo.EvalSparqlQuery(ctx, sampleQuery, &agclient.QueryOptions{
		Contexts: agclient.SingleContext(fooContext),
	})
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	env.printf("%v\n", res.Names)
	for _, row := range res.Values {
		env.printf("%v\n", row.Strings())
	}
	return nil
}

// Bulk adds two name statements in one request and registers a type mapping.
func Bulk(ctx context.Context, env Env) error {
	conn, repo, err := env.openRepository(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	env.printf("Adding statements ...\n")
	name := agclient.URI(peopleNS + "name")
	if err := repo.AddStatements(ctx, []agclient.Quad{
		agclient.NewQuad(agclient.URI(peopleNS+"alice"), name, agclient.Literal("alice"), ""),
		agclient.NewQuad(agclient.URI(peopleNS+"bob"), name, agclient.Literal("bob"), ""),
	}); err != nil {
		return fmt.Errorf("adding statements: %w", err)
	}

	types, err := repo.ListMappedTypes(ctx)
	if err != nil {
		return fmt.Errorf("listing type mappings: %w", err)
	}
	env.printf("Mapped types: %v\n", types)

	if err := repo.AddMappedType(ctx, "<http://foo.com/type>", "int"); err != nil {
		return fmt.Errorf("adding type mapping: %w", err)
	}
	if types, err = repo.ListMappedTypes(ctx); err != nil {
		return fmt.Errorf("listing type mappings: %w", err)
	}
	env.printf("Mapped types: %v\n", types)

	size, err := repo.Size(ctx, agclient.NoContext())
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	env.printf("Repository size = %d\n", size)
	return nil
}

// Namespaces creates a scratch environment, declares and removes a prefix in
// it, then deletes the environment.
func Namespaces(ctx context.Context, env Env) error {
	conn, repo, err := env.openRepository(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	envName, err := repo.CreateEnvironment(ctx, "")
	if err != nil {
		return fmt.Errorf("creating environment: %w", err)
	}
	env.printf("Created environment %q\n", envName)
	repo.SetEnvironment(envName)

	if err := repo.AddNamespace(ctx, "ex", peopleNS); err != nil {
		return fmt.Errorf("adding namespace: %w", err)
	}
	nss, err := repo.ListNamespaces(ctx)
	if err != nil {
		return fmt.Errorf("listing namespaces: %w", err)
	}
	for _, ns := range nss {
		env.printf("  %s: %s\n", ns.Prefix, ns.URI)
	}

	if err := repo.DeleteNamespace(ctx, "ex"); err != nil {
		return fmt.Errorf("deleting namespace: %w", err)
	}
	if err := repo.DeleteEnvironment(ctx, envName); err != nil {
		return fmt.Errorf("deleting environment: %w", err)
	}
	env.printf("Deleted environment %q, back to %q\n", envName, repo.Environment())
	return nil
}

// Stream prints every statement as its row arrives.
func Stream(ctx context.Context, env Env) error {
	conn, repo, err := env.openRepository(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := repo.StreamStatements(ctx, nil)
	if err != nil {
		return fmt.Errorf("streaming statements: %w", err)
	}
	defer rows.Close()

	count := 0
	err = rows.Each(func(row agclient.Row) error {
		q, err := row.Quad()
		if err != nil {
			return err
		}
		count++
		env.printf("%4d  %s\n", count, q)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	env.printf("Streamed %d statements\n", count)
	return nil
}

// Load loads the sample N-Triples document into a context of a scratch
// repository and the RDF/XML one into its default graph, lists its contexts
// and shows that unsupported formats fail locally.
func Load(ctx context.Context, env Env) error {
	conn, catalog := env.open()
	defer conn.Close()

	scratch := "scratch-" + uuid.NewString()[:8]
	if err := catalog.CreateTripleStore(ctx, scratch); err != nil {
		return fmt.Errorf("creating scratch repository: %w", err)
	}
	defer func() {
		if err := catalog.DeleteTripleStore(context.WithoutCancel(ctx), scratch); err != nil {
			env.printf("Could not delete %s: %v\n", scratch, err)
		}
	}()
	repo := catalog.Repository(scratch)

	kennedy, err := assets.Read("kennedy.nt")
	if err != nil {
		return err
	}
	const graph = "<http://example.org#kennedy>"
	err = repo.LoadData(ctx, kennedy, agclient.FormatNTriples, &agclient.LoadOptions{
		BaseURI: "http://example.org/kennedy/",
		Context: graph,
	})
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	size, err := repo.Size(ctx, agclient.SingleContext(graph))
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	env.printf("Loaded %d statements into %s of %s\n", size, graph, scratch)

	people, err := assets.Read("people.rdf")
	if err != nil {
		return err
	}
	if err := repo.LoadData(ctx, people, agclient.FormatRDFXML, nil); err != nil {
		return fmt.Errorf("loading rdf/xml document: %w", err)
	}
	size, err = repo.Size(ctx, agclient.SingleContext("null"))
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	env.printf("Loaded %d RDF/XML statements into the default graph\n", size)

	contexts, err := repo.ListContexts(ctx)
	if err != nil {
		return fmt.Errorf("listing contexts: %w", err)
	}
	env.printf("Contexts: %v\n", contexts)

	err = repo.LoadData(ctx, "a,b,c\n", "csv", nil)
	var unsupported *agclient.UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		return fmt.Errorf("csv load: want unsupported format error, got %v", err)
	}
	env.printf("CSV refused before sending: %v\n", unsupported)
	return nil
}
