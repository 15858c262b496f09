// Package store provides persistent storage for the sandbox server using SQLite.
//
// # Architecture
//
// Store is the interface the sandbox HTTP handlers depend on. SQLiteStore
// implements it on modernc.org/sqlite, so no cgo toolchain is required.
//
// Everything is scoped by repository name:
//
//   - repositories: plain stores, or read-only federations over plain stores
//   - statements: quads with N-Triples encoded terms, unique per repository
//   - environments, namespaces, functors: per-environment query state
//   - indices, thresholds: SPOGI index orderings and indexing triggers
//   - mappings, freetext_predicates: datatype mappings and text indexing
//
// Deleting a repository cascades to everything stored under it.
//
// # Statements
//
// Terms are stored exactly as the client encodes them ("<http://ex/a>",
// "\"55\"^^<...#int>", "_:b1"). The default graph is the empty context.
// Reads through a federation merge the members and drop duplicates.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;   (file databases only)
//	PRAGMA foreign_keys=ON;
//
// The pool is limited to one connection, which keeps pragmas and in-memory
// databases stable. An iteration callback must not call back into the store.
//
// # Error Handling
//
//   - ErrNotFound: repository, environment or entry does not exist
//   - ErrExists: repository or environment name is taken
//   - ErrNotWriteable: modification of a federated repository
//   - ErrInvalid: malformed argument
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore(":memory:") for tests.
package store
