// Package tutorial holds guided walkthroughs of the agclient API.
//
// Each Scenario connects with an Env and prints what it does to Env.Out:
//
//   - basics: catalogs, repository setup, one typed statement, a select
//   - bulk: batch insert and type mappings
//   - namespaces: environments and prefixes
//   - stream: row-by-row statement streaming
//   - load: N-Triples loading into a context, and the format guard
//   - bench: concurrent select throughput, one Conn per worker
//
// The scenarios run against any compatible server, including the sandbox.
package tutorial
