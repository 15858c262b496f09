// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists repositories, quads, environments and index settings with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// errStop ends an iteration early without reporting an error.
var errStop = errors.New("stop iteration")

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed. An empty path or ":memory:"
// gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	inMemory := path == "" || path == ":memory:"
	if inMemory {
		path = ":memory:"
	} else {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: pragmas are per connection and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS repositories (
			name             TEXT PRIMARY KEY,
			created_at       TEXT NOT NULL,
			triple_threshold INTEGER NOT NULL DEFAULT 0,
			chunk_threshold  INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS federation_members (
			repo     TEXT NOT NULL,
			member   TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (repo, member),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE,
			FOREIGN KEY (member) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS statements (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			repo TEXT NOT NULL,
			subj TEXT NOT NULL,
			pred TEXT NOT NULL,
			obj  TEXT NOT NULL,
			ctx  TEXT NOT NULL DEFAULT '',
			UNIQUE (repo, subj, pred, obj, ctx),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_statements_pred ON statements(repo, pred);
		CREATE INDEX IF NOT EXISTS idx_statements_obj ON statements(repo, obj);
		CREATE INDEX IF NOT EXISTS idx_statements_ctx ON statements(repo, ctx);

		CREATE TABLE IF NOT EXISTS environments (
			repo TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (repo, name),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS namespaces (
			repo   TEXT NOT NULL,
			env    TEXT NOT NULL,
			prefix TEXT NOT NULL,
			uri    TEXT NOT NULL,
			PRIMARY KEY (repo, env, prefix),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS functors (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			repo       TEXT NOT NULL,
			env        TEXT NOT NULL,
			definition TEXT NOT NULL,
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS indices (
			repo TEXT NOT NULL,
			kind TEXT NOT NULL,
			PRIMARY KEY (repo, kind),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS mappings (
			repo      TEXT NOT NULL,
			kind      TEXT NOT NULL,
			key       TEXT NOT NULL,
			primitive TEXT NOT NULL,
			PRIMARY KEY (repo, kind, key),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE,
			CHECK (kind IN ('type', 'predicate'))
		);

		CREATE TABLE IF NOT EXISTS freetext_predicates (
			repo      TEXT NOT NULL,
			predicate TEXT NOT NULL,
			PRIMARY KEY (repo, predicate),
			FOREIGN KEY (repo) REFERENCES repositories(name) ON DELETE CASCADE
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// CreateRepository creates a repository. With members it is a read-only
// federation over those plain repositories. Returns ErrExists if the name is
// taken.
func (s *SQLiteStore) CreateRepository(ctx context.Context, name string, members []string) error {
	if name == "" {
		return fmt.Errorf("repository name is empty: %w", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO repositories (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting repository: %w", err)
	}

	for i, member := range members {
		var exists, nested int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM repositories WHERE name = ?),
				(SELECT COUNT(*) FROM federation_members WHERE repo = ?)
		`, member, member).Scan(&exists, &nested)
		if err != nil {
			return fmt.Errorf("checking federation member: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("federation member %q: %w", member, ErrNotFound)
		}
		if nested > 0 || member == name {
			return fmt.Errorf("federation member %q is itself federated: %w", member, ErrInvalid)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO federation_members (repo, member, position) VALUES (?, ?, ?)`,
			name, member, i,
		); err != nil {
			return fmt.Errorf("inserting federation member: %w", err)
		}
	}

	if len(members) == 0 {
		for _, kind := range DefaultIndices {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO indices (repo, kind) VALUES (?, ?)`, name, kind,
			); err != nil {
				return fmt.Errorf("inserting default index: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing repository: %w", err)
	}

	s.logger.Debug("created repository", "name", name, "members", len(members))
	return nil
}

// DeleteRepository removes a repository and everything stored in it.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) DeleteRepository(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted repository", "name", name)
	return nil
}

// ListRepositories returns every repository ordered by name.
func (s *SQLiteStore) ListRepositories(ctx context.Context) ([]RepositoryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, EXISTS (SELECT 1 FROM federation_members f WHERE f.repo = r.name)
		FROM repositories r
		ORDER BY r.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}
	defer rows.Close()

	var repos []RepositoryInfo
	for rows.Next() {
		var info RepositoryInfo
		if err := rows.Scan(&info.Name, &info.Federated); err != nil {
			return nil, fmt.Errorf("scanning repository row: %w", err)
		}
		repos = append(repos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repository rows: %w", err)
	}

	return repos, nil
}

// resolve returns the physical repositories behind name: the members of a
// federation, or name itself.
func (s *SQLiteStore) resolve(ctx context.Context, name string) ([]string, bool, error) {
	if err := s.requireRepository(ctx, name); err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT member FROM federation_members WHERE repo = ? ORDER BY position`, name)
	if err != nil {
		return nil, false, fmt.Errorf("querying federation members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, false, fmt.Errorf("scanning federation member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating federation members: %w", err)
	}

	if len(members) > 0 {
		return members, true, nil
	}
	return []string{name}, false, nil
}

func (s *SQLiteStore) requireRepository(ctx context.Context, name string) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM repositories WHERE name = ?`, name,
	).Scan(&n); err != nil {
		return fmt.Errorf("querying repository: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) requireWriteable(ctx context.Context, name string) error {
	_, federated, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	if federated {
		return ErrNotWriteable
	}
	return nil
}

// IsWriteable reports whether the repository accepts modifications.
func (s *SQLiteStore) IsWriteable(ctx context.Context, name string) (bool, error) {
	_, federated, err := s.resolve(ctx, name)
	if err != nil {
		return false, err
	}
	return !federated, nil
}

// where renders p as a SQL condition over the given physical repositories.
func (p Pattern) where(repos []string) (string, []any) {
	clauses := []string{"repo IN (" + placeholders(len(repos)) + ")"}
	args := make([]any, 0, len(repos)+7)
	for _, r := range repos {
		args = append(args, r)
	}

	term := func(col, val, end string) {
		switch {
		case val != "" && end != "":
			clauses = append(clauses, col+" >= ? AND "+col+" <= ?")
			args = append(args, val, end)
		case val != "":
			clauses = append(clauses, col+" = ?")
			args = append(args, val)
		}
	}
	term("subj", p.Subject, p.SubjectEnd)
	term("pred", p.Predicate, p.PredicateEnd)
	term("obj", p.Object, p.ObjectEnd)

	if len(p.Contexts) > 0 {
		clauses = append(clauses, "ctx IN ("+placeholders(len(p.Contexts))+")")
		for _, c := range p.Contexts {
			args = append(args, c)
		}
	}

	return strings.Join(clauses, " AND "), args
}

// Size counts the distinct statements in repo, optionally limited to
// contexts.
func (s *SQLiteStore) Size(ctx context.Context, repo string, contexts []string) (int64, error) {
	repos, _, err := s.resolve(ctx, repo)
	if err != nil {
		return 0, err
	}

	where, args := Pattern{Contexts: contexts}.where(repos)
	var n int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT 1 FROM statements WHERE `+where+` GROUP BY subj, pred, obj, ctx)`,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting statements: %w", err)
	}
	return n, nil
}

// ListContexts returns the named graphs holding at least one statement.
func (s *SQLiteStore) ListContexts(ctx context.Context, repo string) ([]string, error) {
	repos, _, err := s.resolve(ctx, repo)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(repos))
	for i, r := range repos {
		args[i] = r
	}
	return s.queryStrings(ctx,
		`SELECT DISTINCT ctx FROM statements WHERE repo IN (`+placeholders(len(repos))+`) AND ctx != '' ORDER BY ctx`,
		args...,
	)
}

// AddStatements inserts statements, ignoring exact duplicates. It returns the
// number of statements actually added.
func (s *SQLiteStore) AddStatements(ctx context.Context, repo string, statements []Statement) (int64, error) {
	if err := s.requireWriteable(ctx, repo); err != nil {
		return 0, err
	}
	return s.execEach(ctx, statements,
		`INSERT OR IGNORE INTO statements (repo, subj, pred, obj, ctx) VALUES (?, ?, ?, ?, ?)`,
		func(st Statement) []any {
			return []any{repo, st.Subject, st.Predicate, st.Object, st.Context}
		})
}

// DeleteStatements removes exactly the given statements and returns how
// many existed.
func (s *SQLiteStore) DeleteStatements(ctx context.Context, repo string, statements []Statement) (int64, error) {
	if err := s.requireWriteable(ctx, repo); err != nil {
		return 0, err
	}
	return s.execEach(ctx, statements,
		`DELETE FROM statements WHERE repo = ? AND subj = ? AND pred = ? AND obj = ? AND ctx = ?`,
		func(st Statement) []any {
			return []any{repo, st.Subject, st.Predicate, st.Object, st.Context}
		})
}

// execEach runs query once per statement inside a transaction and sums the
// affected rows.
func (s *SQLiteStore) execEach(ctx context.Context, statements []Statement, query string, args func(Statement) []any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	var total int64
	for _, st := range statements {
		if st.Subject == "" || st.Predicate == "" || st.Object == "" {
			return 0, fmt.Errorf("statement has an empty term: %w", ErrInvalid)
		}
		result, err := stmt.ExecContext(ctx, args(st)...)
		if err != nil {
			return 0, fmt.Errorf("writing statement: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing statements: %w", err)
	}
	return total, nil
}

// DeleteMatching removes every statement matching p and returns the count.
func (s *SQLiteStore) DeleteMatching(ctx context.Context, repo string, p Pattern) (int64, error) {
	if err := s.requireWriteable(ctx, repo); err != nil {
		return 0, err
	}

	where, args := p.where([]string{repo})
	result, err := s.db.ExecContext(ctx, `DELETE FROM statements WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting statements: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	s.logger.Debug("deleted matching statements", "repo", repo, "count", n)
	return n, nil
}

// EachStatement calls fn for every distinct statement matching p in
// insertion order. Iteration stops at the first error from fn, which is
// returned.
func (s *SQLiteStore) EachStatement(ctx context.Context, repo string, p Pattern, fn func(Statement) error) error {
	repos, _, err := s.resolve(ctx, repo)
	if err != nil {
		return err
	}

	where, args := p.where(repos)
	return s.eachStatementQuery(ctx,
		`SELECT subj, pred, obj, ctx FROM statements WHERE `+where+
			` GROUP BY subj, pred, obj, ctx ORDER BY MIN(id)`,
		args, fn)
}

func (s *SQLiteStore) eachStatementQuery(ctx context.Context, query string, args []any, fn func(Statement) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying statements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st Statement
		if err := rows.Scan(&st.Subject, &st.Predicate, &st.Object, &st.Context); err != nil {
			return fmt.Errorf("scanning statement row: %w", err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating statement rows: %w", err)
	}
	return nil
}

// Statements collects the statements matching p. A limit of 0 or less means
// no limit.
func (s *SQLiteStore) Statements(ctx context.Context, repo string, p Pattern, limit int) ([]Statement, error) {
	var out []Statement
	err := s.EachStatement(ctx, repo, p, func(st Statement) error {
		out = append(out, st)
		if limit > 0 && len(out) >= limit {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

// ListEnvironments returns the named environments of repo. The default
// environment is implicit and not listed.
func (s *SQLiteStore) ListEnvironments(ctx context.Context, repo string) ([]string, error) {
	if err := s.requireRepository(ctx, repo); err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, `SELECT name FROM environments WHERE repo = ? ORDER BY name`, repo)
}

// CreateEnvironment adds a named environment. Returns ErrExists if taken.
func (s *SQLiteStore) CreateEnvironment(ctx context.Context, repo, name string) error {
	if name == "" {
		return fmt.Errorf("environment name is empty: %w", ErrInvalid)
	}
	if err := s.requireRepository(ctx, repo); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO environments (repo, name) VALUES (?, ?)`, repo, name)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting environment: %w", err)
	}
	return nil
}

// DeleteEnvironment removes a named environment with its namespaces and
// functors. Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) DeleteEnvironment(ctx context.Context, repo, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM environments WHERE repo = ? AND name = ?`, repo, name)
	if err != nil {
		return fmt.Errorf("deleting environment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM namespaces WHERE repo = ? AND env = ?`, repo, name); err != nil {
		return fmt.Errorf("deleting environment namespaces: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM functors WHERE repo = ? AND env = ?`, repo, name); err != nil {
		return fmt.Errorf("deleting environment functors: %w", err)
	}

	return tx.Commit()
}

// RequireEnvironment returns ErrNotFound unless repo exists and env is the
// default environment or a named one.
func (s *SQLiteStore) RequireEnvironment(ctx context.Context, repo, env string) error {
	if err := s.requireRepository(ctx, repo); err != nil {
		return err
	}
	if env == "" {
		return nil
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM environments WHERE repo = ? AND name = ?`, repo, env,
	).Scan(&n); err != nil {
		return fmt.Errorf("querying environment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("environment %q: %w", env, ErrNotFound)
	}
	return nil
}

// ListNamespaces returns the prefixes of an environment ordered by prefix.
func (s *SQLiteStore) ListNamespaces(ctx context.Context, repo, env string) ([]Namespace, error) {
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT prefix, uri FROM namespaces WHERE repo = ? AND env = ? ORDER BY prefix`, repo, env)
	if err != nil {
		return nil, fmt.Errorf("querying namespaces: %w", err)
	}
	defer rows.Close()

	var out []Namespace
	for rows.Next() {
		var ns Namespace
		if err := rows.Scan(&ns.Prefix, &ns.URI); err != nil {
			return nil, fmt.Errorf("scanning namespace row: %w", err)
		}
		out = append(out, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating namespace rows: %w", err)
	}
	return out, nil
}

// AddNamespace declares or replaces prefix in an environment.
func (s *SQLiteStore) AddNamespace(ctx context.Context, repo, env, prefix, uri string) error {
	if prefix == "" || uri == "" {
		return fmt.Errorf("namespace prefix and uri are required: %w", ErrInvalid)
	}
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO namespaces (repo, env, prefix, uri) VALUES (?, ?, ?, ?)
		ON CONFLICT (repo, env, prefix) DO UPDATE SET uri = excluded.uri
	`, repo, env, prefix, uri)
	if err != nil {
		return fmt.Errorf("upserting namespace: %w", err)
	}
	return nil
}

// DeleteNamespace removes prefix from an environment. Returns ErrNotFound if
// it was not declared.
func (s *SQLiteStore) DeleteNamespace(ctx context.Context, repo, env, prefix string) error {
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return err
	}
	return s.deleteOne(ctx,
		`DELETE FROM namespaces WHERE repo = ? AND env = ? AND prefix = ?`, repo, env, prefix)
}

// ClearNamespaces removes every prefix from an environment.
func (s *SQLiteStore) ClearNamespaces(ctx context.Context, repo, env string) error {
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM namespaces WHERE repo = ? AND env = ?`, repo, env,
	); err != nil {
		return fmt.Errorf("clearing namespaces: %w", err)
	}
	return nil
}

// DefineFunctor stores a Prolog rule definition in an environment.
func (s *SQLiteStore) DefineFunctor(ctx context.Context, repo, env, definition string) error {
	if strings.TrimSpace(definition) == "" {
		return fmt.Errorf("functor definition is empty: %w", ErrInvalid)
	}
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO functors (repo, env, definition) VALUES (?, ?, ?)`, repo, env, definition,
	); err != nil {
		return fmt.Errorf("inserting functor: %w", err)
	}
	return nil
}

// ListFunctors returns the stored definitions of an environment in
// definition order.
func (s *SQLiteStore) ListFunctors(ctx context.Context, repo, env string) ([]string, error) {
	if err := s.RequireEnvironment(ctx, repo, env); err != nil {
		return nil, err
	}
	return s.queryStrings(ctx,
		`SELECT definition FROM functors WHERE repo = ? AND env = ? ORDER BY id`, repo, env)
}

// ListIndices returns the index orderings of repo.
func (s *SQLiteStore) ListIndices(ctx context.Context, repo string) ([]string, error) {
	if err := s.requireRepository(ctx, repo); err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, `SELECT kind FROM indices WHERE repo = ? ORDER BY rowid`, repo)
}

// AddIndex registers an index ordering. Adding an existing one is a no-op.
func (s *SQLiteStore) AddIndex(ctx context.Context, repo, kind string) error {
	if !ValidIndex(kind) {
		return fmt.Errorf("index %q: %w", kind, ErrInvalid)
	}
	if err := s.requireWriteable(ctx, repo); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO indices (repo, kind) VALUES (?, ?)`, repo, kind,
	); err != nil {
		return fmt.Errorf("inserting index: %w", err)
	}
	return nil
}

// DeleteIndex drops an index ordering. Returns ErrNotFound if absent.
func (s *SQLiteStore) DeleteIndex(ctx context.Context, repo, kind string) error {
	if err := s.requireWriteable(ctx, repo); err != nil {
		return err
	}
	return s.deleteOne(ctx, `DELETE FROM indices WHERE repo = ? AND kind = ?`, repo, kind)
}

// SetThreshold stores an indexing trigger value.
func (s *SQLiteStore) SetThreshold(ctx context.Context, repo string, which Threshold, value int64) error {
	var column string
	switch which {
	case TripleThreshold:
		column = "triple_threshold"
	case ChunkThreshold:
		column = "chunk_threshold"
	default:
		return fmt.Errorf("threshold %q: %w", which, ErrInvalid)
	}
	if value < 0 {
		return fmt.Errorf("threshold must not be negative: %w", ErrInvalid)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET `+column+` = ? WHERE name = ?`, value, repo)
	if err != nil {
		return fmt.Errorf("updating threshold: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Thresholds returns the stored indexing trigger values.
func (s *SQLiteStore) Thresholds(ctx context.Context, repo string) (int64, int64, error) {
	var triple, chunk int64
	err := s.db.QueryRowContext(ctx,
		`SELECT triple_threshold, chunk_threshold FROM repositories WHERE name = ?`, repo,
	).Scan(&triple, &chunk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("querying thresholds: %w", err)
	}
	return triple, chunk, nil
}

// ListMappings returns the mappings of one kind ordered by key.
func (s *SQLiteStore) ListMappings(ctx context.Context, repo string, kind MappingKind) ([]Mapping, error) {
	if err := s.requireRepository(ctx, repo); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, primitive FROM mappings WHERE repo = ? AND kind = ? ORDER BY key`, repo, string(kind))
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.Key, &m.Primitive); err != nil {
			return nil, fmt.Errorf("scanning mapping row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mapping rows: %w", err)
	}
	return out, nil
}

// AddMapping creates or replaces a mapping.
func (s *SQLiteStore) AddMapping(ctx context.Context, repo string, kind MappingKind, key, primitive string) error {
	if key == "" || primitive == "" {
		return fmt.Errorf("mapping key and primitive type are required: %w", ErrInvalid)
	}
	if err := s.requireRepository(ctx, repo); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mappings (repo, kind, key, primitive) VALUES (?, ?, ?, ?)
		ON CONFLICT (repo, kind, key) DO UPDATE SET primitive = excluded.primitive
	`, repo, string(kind), key, primitive)
	if err != nil {
		return fmt.Errorf("upserting mapping: %w", err)
	}
	return nil
}

// DeleteMapping removes a mapping. Returns ErrNotFound if absent.
func (s *SQLiteStore) DeleteMapping(ctx context.Context, repo string, kind MappingKind, key string) error {
	if err := s.requireRepository(ctx, repo); err != nil {
		return err
	}
	return s.deleteOne(ctx,
		`DELETE FROM mappings WHERE repo = ? AND kind = ? AND key = ?`, repo, string(kind), key)
}

// ListFreeTextPredicates returns the predicates whose objects are indexed.
func (s *SQLiteStore) ListFreeTextPredicates(ctx context.Context, repo string) ([]string, error) {
	if err := s.requireRepository(ctx, repo); err != nil {
		return nil, err
	}
	return s.queryStrings(ctx,
		`SELECT predicate FROM freetext_predicates WHERE repo = ? ORDER BY predicate`, repo)
}

// AddFreeTextPredicate registers a predicate for free-text indexing.
func (s *SQLiteStore) AddFreeTextPredicate(ctx context.Context, repo, predicate string) error {
	if predicate == "" {
		return fmt.Errorf("predicate is empty: %w", ErrInvalid)
	}
	if err := s.requireRepository(ctx, repo); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO freetext_predicates (repo, predicate) VALUES (?, ?)`, repo, predicate,
	); err != nil {
		return fmt.Errorf("inserting free-text predicate: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EachFreeTextMatch calls fn for every literal-valued statement of a
// registered predicate whose object contains pattern. "*" in pattern matches
// any run of characters; matching ignores ASCII case.
func (s *SQLiteStore) EachFreeTextMatch(ctx context.Context, repo, pattern string, fn func(Statement) error) error {
	repos, _, err := s.resolve(ctx, repo)
	if err != nil {
		return err
	}

	pattern = strings.Trim(strings.TrimSpace(pattern), `"`)
	if pattern == "" {
		return fmt.Errorf("free-text pattern is empty: %w", ErrInvalid)
	}
	like := "%" + strings.ReplaceAll(likeEscaper.Replace(pattern), "*", "%") + "%"

	args := make([]any, 0, len(repos)+2)
	for _, r := range repos {
		args = append(args, r)
	}
	args = append(args, repo, like)

	return s.eachStatementQuery(ctx, `
		SELECT subj, pred, obj, ctx FROM statements
		WHERE repo IN (`+placeholders(len(repos))+`)
			AND pred IN (SELECT predicate FROM freetext_predicates WHERE repo = ?)
			AND substr(obj, 1, 1) = '"'
			AND obj LIKE ? ESCAPE '\'
		GROUP BY subj, pred, obj, ctx
		ORDER BY MIN(id)
	`, args, fn)
}

// queryStrings runs a single-column query.
func (s *SQLiteStore) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// deleteOne executes a delete and maps zero affected rows to ErrNotFound.
func (s *SQLiteStore) deleteOne(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
