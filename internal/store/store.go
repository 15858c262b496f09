// ABOUTME: Store interface and data types for sandbox triple persistence
// ABOUTME: Defines Statement, Pattern and the repository-scoped Store operations

package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrExists is returned when creating an entity whose name is taken
var ErrExists = errors.New("already exists")

// ErrNotWriteable is returned when modifying a federated repository
var ErrNotWriteable = errors.New("repository is not writeable")

// ErrInvalid is returned for arguments the store cannot act on
var ErrInvalid = errors.New("invalid argument")

// Statement is one stored quad. Terms are N-Triples encoded; an empty Context
// is the default graph.
type Statement struct {
	Subject   string
	Predicate string
	Object    string
	Context   string
}

// Pattern selects statements. Empty terms match anything; a non-empty *End
// turns the term into an inclusive lexical range. Contexts restricts the
// graphs searched, with "" meaning the default graph; nil searches all.
type Pattern struct {
	Subject      string
	SubjectEnd   string
	Predicate    string
	PredicateEnd string
	Object       string
	ObjectEnd    string
	Contexts     []string
}

// RepositoryInfo describes a repository listing entry.
type RepositoryInfo struct {
	Name      string
	Federated bool
}

// Namespace is a prefix declaration within an environment.
type Namespace struct {
	Prefix string
	URI    string
}

// MappingKind selects the type or predicate mapping table.
type MappingKind string

const (
	TypeMapping      MappingKind = "type"
	PredicateMapping MappingKind = "predicate"
)

// Mapping maps a datatype or predicate onto a primitive type.
type Mapping struct {
	Key       string
	Primitive string
}

// Threshold names the indexing trigger being configured.
type Threshold string

const (
	TripleThreshold Threshold = "triple"
	ChunkThreshold  Threshold = "chunk"
)

// DefaultIndices are registered on every new plain repository.
var DefaultIndices = []string{"spogi", "posgi", "ospgi", "gspoi", "gposi", "gospi", "i"}

// ValidIndex reports whether kind is a SPOGI ordering name.
func ValidIndex(kind string) bool {
	if kind == "" {
		return false
	}
	return strings.Trim(kind, "spogi") == ""
}

// Store is the persistence interface used by the sandbox server
type Store interface {
	// Repositories
	CreateRepository(ctx context.Context, name string, members []string) error
	DeleteRepository(ctx context.Context, name string) error
	ListRepositories(ctx context.Context) ([]RepositoryInfo, error)
	IsWriteable(ctx context.Context, name string) (bool, error)

	// Statements
	Size(ctx context.Context, repo string, contexts []string) (int64, error)
	ListContexts(ctx context.Context, repo string) ([]string, error)
	AddStatements(ctx context.Context, repo string, statements []Statement) (int64, error)
	DeleteStatements(ctx context.Context, repo string, statements []Statement) (int64, error)
	DeleteMatching(ctx context.Context, repo string, p Pattern) (int64, error)
	EachStatement(ctx context.Context, repo string, p Pattern, fn func(Statement) error) error
	Statements(ctx context.Context, repo string, p Pattern, limit int) ([]Statement, error)

	// Environments and namespaces
	ListEnvironments(ctx context.Context, repo string) ([]string, error)
	CreateEnvironment(ctx context.Context, repo, name string) error
	DeleteEnvironment(ctx context.Context, repo, name string) error
	RequireEnvironment(ctx context.Context, repo, env string) error
	ListNamespaces(ctx context.Context, repo, env string) ([]Namespace, error)
	AddNamespace(ctx context.Context, repo, env, prefix, uri string) error
	DeleteNamespace(ctx context.Context, repo, env, prefix string) error
	ClearNamespaces(ctx context.Context, repo, env string) error
	DefineFunctor(ctx context.Context, repo, env, definition string) error
	ListFunctors(ctx context.Context, repo, env string) ([]string, error)

	// Indexing
	ListIndices(ctx context.Context, repo string) ([]string, error)
	AddIndex(ctx context.Context, repo, kind string) error
	DeleteIndex(ctx context.Context, repo, kind string) error
	SetThreshold(ctx context.Context, repo string, which Threshold, value int64) error
	Thresholds(ctx context.Context, repo string) (triple, chunk int64, err error)

	// Mappings
	ListMappings(ctx context.Context, repo string, kind MappingKind) ([]Mapping, error)
	AddMapping(ctx context.Context, repo string, kind MappingKind, key, primitive string) error
	DeleteMapping(ctx context.Context, repo string, kind MappingKind, key string) error

	// Free-text
	ListFreeTextPredicates(ctx context.Context, repo string) ([]string, error)
	AddFreeTextPredicate(ctx context.Context, repo, predicate string) error
	EachFreeTextMatch(ctx context.Context, repo, pattern string, fn func(Statement) error) error

	Close() error
}
