// Package agclient is a thin client for the REST API of an RDF triple-store
// server.
//
// # Overview
//
// Every operation maps one method call onto one HTTP request: it builds a URL,
// encodes parameters into a query string or a JSON body, and decodes the JSON
// response. Query execution, indexing and inference happen on the server.
//
// # Facades
//
// The facades form a chain that shares one connection handle:
//
//	conn := agclient.NewConn(agclient.WithBasicAuth("user", "secret"))
//	defer conn.Close()
//
//	server := agclient.NewServer(conn, "http://localhost:10035")
//	catalogs, err := server.ListCatalogs(ctx)
//	cat := server.OpenCatalog(catalogs[0])
//	repo := cat.Repository("test")
//
// Server, Catalog and Repository hold no server-side state. Dropping the
// reference is all the teardown they need.
//
// # Queries
//
// Buffered calls return a materialized result:
//
//	res, err := repo.EvalSparqlQuery(ctx, "select ?x ?y ?z {?x ?y ?z} limit 5", nil)
//	for _, row := range res.Values {
//	    fmt.Println(row.Term(0), row.Term(1), row.Term(2))
//	}
//
// Streaming calls return a Rows cursor that decodes rows as they arrive:
//
//	rows, err := repo.StreamStatements(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    fmt.Println(rows.Row())
//	}
//	return rows.Err()
//
// # Errors
//
//   - *TransportError: dial, DNS, TLS, timeout or cancellation failures
//   - *RequestError: the server answered with a non-2xx status
//   - *MalformedRowError: a streamed row was not a JSON array
//   - *UnsupportedFormatError: unknown document format, raised before any I/O
//
// Nothing is retried. Resilience policy belongs to the caller.
//
// # Concurrency
//
// A Conn may be reused sequentially by many facades. It is not meant to be
// shared by concurrent callers while its credentials change; give each
// concurrent caller its own Conn.
package agclient
