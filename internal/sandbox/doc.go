// Package sandbox implements a small local triple-store server speaking the
// same REST protocol the agclient package talks to.
//
// # Architecture
//
// Server wraps a store.Store in an http.ServeMux using method-qualified
// patterns. There is one catalog, the root "/", holding every repository.
//
//	GET    /catalogs
//	GET    /repositories
//	PUT    /repositories/{repo}[?federate=a&federate=b]
//	DELETE /repositories/{repo}
//	GET    /repositories/{repo}?query=...          SPARQL
//	GET    /repositories/{repo}/statements         and the other sub-resources
//
// # Queries
//
// The SPARQL subset covers select, ask, construct and describe over a
// single triple pattern, with limit, distinct and bind parameters. Prolog
// queries are refused with 400. Functor definitions are still stored.
//
// # Responses
//
// Results are JSON. When the request's Accept header names
// application/x-ndjson, row-shaped results stream as one JSON array per line
// with a flush after each row. Errors are plain text:
//
//   - 404: unknown repository, environment or entry
//   - 409: name already taken
//   - 403: modification of a federated repository, or disabled server-side load
//   - 400: malformed query, document or parameter
//
// # Documents
//
// Statement uploads accept JSON quads, N-Triples/N-Quads (text/plain) and
// the striped RDF/XML syntax. Server-side loads read files below
// Options.FileRoot only.
package sandbox
