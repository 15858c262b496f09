// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers repository lifecycle, statement matching, federation and per-environment state

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func newTestRepo(t *testing.T, s *SQLiteStore, name string) {
	t.Helper()
	require.NoError(t, s.CreateRepository(context.Background(), name, nil))
}

var (
	ted   = Statement{Subject: "<http://ex/ted>", Predicate: "<http://ex/age>", Object: `"55"^^<http://www.w3.org/2001/XMLSchema#int>`, Context: "<http://foo.com>"}
	alice = Statement{Subject: "<http://ex/alice>", Predicate: "<http://ex/name>", Object: `"Alice Smith"`}
	bob   = Statement{Subject: "<http://ex/bob>", Predicate: "<http://ex/name>", Object: `"Bob"`}
)

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created in nested directory")
}

func TestNewSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.CreateRepository(ctx, "test", nil))
	_, err = s1.AddStatements(ctx, "test", []Statement{ted})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Size(ctx, "test", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRepositoryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRepository(ctx, "test", nil))
	assert.ErrorIs(t, s.CreateRepository(ctx, "test", nil), ErrExists)
	assert.ErrorIs(t, s.CreateRepository(ctx, "test", nil), ErrExists, "repeated creates fail the same way")
	assert.ErrorIs(t, s.CreateRepository(ctx, "", nil), ErrInvalid)

	repos, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RepositoryInfo{{Name: "test"}}, repos)

	indices, err := s.ListIndices(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, DefaultIndices, indices)

	require.NoError(t, s.DeleteRepository(ctx, "test"))
	assert.ErrorIs(t, s.DeleteRepository(ctx, "test"), ErrNotFound)

	_, err = s.Size(ctx, "test", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRepository_CascadesStatements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRepository(ctx, "test"))

	newTestRepo(t, s, "test")
	n, err := s.Size(ctx, "test", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestAddStatements_IgnoresDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")

	added, err := s.AddStatements(ctx, "test", []Statement{ted, alice, ted})
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	n, err := s.Size(ctx, "test", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.AddStatements(ctx, "test", []Statement{{Subject: "<s>"}})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSize_ByContext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice, bob})
	require.NoError(t, err)

	n, err := s.Size(ctx, "test", []string{"<http://foo.com>"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Size(ctx, "test", []string{""})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	contexts, err := s.ListContexts(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"<http://foo.com>"}, contexts)
}

func TestStatements_Matching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice, bob})
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern Pattern
		limit   int
		want    []Statement
	}{
		{"all in insertion order", Pattern{}, 0, []Statement{ted, alice, bob}},
		{"limit", Pattern{}, 2, []Statement{ted, alice}},
		{"by predicate", Pattern{Predicate: "<http://ex/name>"}, 0, []Statement{alice, bob}},
		{"by subject and predicate", Pattern{Subject: "<http://ex/bob>", Predicate: "<http://ex/name>"}, 0, []Statement{bob}},
		{"subject range", Pattern{Subject: "<http://ex/a>", SubjectEnd: "<http://ex/c>"}, 0, []Statement{alice, bob}},
		{"default graph", Pattern{Contexts: []string{""}}, 0, []Statement{alice, bob}},
		{"no match", Pattern{Object: `"nobody"`}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Statements(ctx, "test", tt.pattern, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEachStatement_StopsOnCallbackError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice, bob})
	require.NoError(t, err)

	boom := errors.New("boom")
	seen := 0
	err = s.EachStatement(ctx, "test", Pattern{}, func(Statement) error {
		seen++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, seen)
}

func TestDeleteStatementsAndMatching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice, bob})
	require.NoError(t, err)

	n, err := s.DeleteStatements(ctx, "test", []Statement{ted, ted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteMatching(ctx, "test", Pattern{Predicate: "<http://ex/name>"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	size, err := s.Size(ctx, "test", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestFederation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "a")
	newTestRepo(t, s, "b")
	_, err := s.AddStatements(ctx, "a", []Statement{ted, alice})
	require.NoError(t, err)
	_, err = s.AddStatements(ctx, "b", []Statement{alice, bob})
	require.NoError(t, err)

	require.NoError(t, s.CreateRepository(ctx, "fed", []string{"a", "b"}))

	n, err := s.Size(ctx, "fed", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "duplicates across members count once")

	writeable, err := s.IsWriteable(ctx, "fed")
	require.NoError(t, err)
	assert.False(t, writeable)

	_, err = s.AddStatements(ctx, "fed", []Statement{bob})
	assert.ErrorIs(t, err, ErrNotWriteable)

	repos, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Contains(t, repos, RepositoryInfo{Name: "fed", Federated: true})

	assert.ErrorIs(t, s.CreateRepository(ctx, "bad", []string{"missing"}), ErrNotFound)
	assert.ErrorIs(t, s.CreateRepository(ctx, "nested", []string{"fed"}), ErrInvalid)
}

func TestEnvironmentsAndNamespaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")

	require.NoError(t, s.CreateEnvironment(ctx, "test", "env1"))
	assert.ErrorIs(t, s.CreateEnvironment(ctx, "test", "env1"), ErrExists)

	envs, err := s.ListEnvironments(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"env1"}, envs)

	require.NoError(t, s.AddNamespace(ctx, "test", "env1", "ex", "http://example.org/"))
	require.NoError(t, s.AddNamespace(ctx, "test", "env1", "ex", "http://example.com/"))
	require.NoError(t, s.AddNamespace(ctx, "test", "", "rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"))

	nss, err := s.ListNamespaces(ctx, "test", "env1")
	require.NoError(t, err)
	assert.Equal(t, []Namespace{{Prefix: "ex", URI: "http://example.com/"}}, nss)

	nss, err = s.ListNamespaces(ctx, "test", "")
	require.NoError(t, err)
	assert.Len(t, nss, 1)

	_, err = s.ListNamespaces(ctx, "test", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DefineFunctor(ctx, "test", "env1", "(<-- (female ?x) (q ?x !ex:sex !ex:female))"))
	functors, err := s.ListFunctors(ctx, "test", "env1")
	require.NoError(t, err)
	assert.Len(t, functors, 1)

	require.NoError(t, s.DeleteNamespace(ctx, "test", "env1", "ex"))
	assert.ErrorIs(t, s.DeleteNamespace(ctx, "test", "env1", "ex"), ErrNotFound)

	require.NoError(t, s.DeleteEnvironment(ctx, "test", "env1"))
	assert.ErrorIs(t, s.DeleteEnvironment(ctx, "test", "env1"), ErrNotFound)

	require.NoError(t, s.ClearNamespaces(ctx, "test", ""))
	nss, err = s.ListNamespaces(ctx, "test", "")
	require.NoError(t, err)
	assert.Empty(t, nss)
}

func TestIndicesAndThresholds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")

	require.NoError(t, s.DeleteIndex(ctx, "test", "i"))
	assert.ErrorIs(t, s.DeleteIndex(ctx, "test", "i"), ErrNotFound)
	assert.ErrorIs(t, s.AddIndex(ctx, "test", "xyz"), ErrInvalid)
	require.NoError(t, s.AddIndex(ctx, "test", "i"))

	require.NoError(t, s.SetThreshold(ctx, "test", TripleThreshold, 1000))
	require.NoError(t, s.SetThreshold(ctx, "test", ChunkThreshold, 7))
	triple, chunk, err := s.Thresholds(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), triple)
	assert.Equal(t, int64(7), chunk)

	assert.ErrorIs(t, s.SetThreshold(ctx, "missing", TripleThreshold, 1), ErrNotFound)
	assert.ErrorIs(t, s.SetThreshold(ctx, "test", Threshold("other"), 1), ErrInvalid)
}

func TestValidIndex(t *testing.T) {
	assert.True(t, ValidIndex("spogi"))
	assert.True(t, ValidIndex("i"))
	assert.False(t, ValidIndex(""))
	assert.False(t, ValidIndex("spox"))
}

func TestMappings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")

	xsdInt := "<http://www.w3.org/2001/XMLSchema#int>"
	require.NoError(t, s.AddMapping(ctx, "test", TypeMapping, xsdInt, "int"))
	require.NoError(t, s.AddMapping(ctx, "test", PredicateMapping, "<http://ex/age>", "int"))

	types, err := s.ListMappings(ctx, "test", TypeMapping)
	require.NoError(t, err)
	assert.Equal(t, []Mapping{{Key: xsdInt, Primitive: "int"}}, types)

	require.NoError(t, s.DeleteMapping(ctx, "test", TypeMapping, xsdInt))
	assert.ErrorIs(t, s.DeleteMapping(ctx, "test", TypeMapping, xsdInt), ErrNotFound)

	preds, err := s.ListMappings(ctx, "test", PredicateMapping)
	require.NoError(t, err)
	assert.Len(t, preds, 1)
}

func TestFreeText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestRepo(t, s, "test")
	_, err := s.AddStatements(ctx, "test", []Statement{ted, alice, bob})
	require.NoError(t, err)

	collect := func(pattern string) []Statement {
		var out []Statement
		require.NoError(t, s.EachFreeTextMatch(ctx, "test", pattern, func(st Statement) error {
			out = append(out, st)
			return nil
		}))
		return out
	}

	assert.Empty(t, collect("alice"), "no predicate registered yet")

	require.NoError(t, s.AddFreeTextPredicate(ctx, "test", "<http://ex/name>"))
	preds, err := s.ListFreeTextPredicates(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"<http://ex/name>"}, preds)

	assert.Equal(t, []Statement{alice}, collect("alice"))
	assert.Equal(t, []Statement{alice}, collect("Ali*Smith"))
	assert.Equal(t, []Statement{alice, bob}, collect("*"))
	assert.Empty(t, collect("100%"))
}
