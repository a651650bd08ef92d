package lexicon

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the lexicon_words table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS lexicon_words (
    word       TEXT PRIMARY KEY CHECK (word <> ''),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Source] backed by a PostgreSQL database. Words are
// returned in alphabetical order so that index rebuilds from the same table
// state are deterministic.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Source = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// lexicon_words table if it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("lexicon: migrate: %w", err)
	}
	return nil
}

// Load returns all dictionary words in alphabetical order.
func (s *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	const query = `SELECT word FROM lexicon_words ORDER BY word`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lexicon: load: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Word); err != nil {
			return nil, fmt.Errorf("lexicon: load scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: load: %w", err)
	}
	return records, nil
}

// Add inserts words into the dictionary. Blank words are skipped and
// re-adding an existing word is not an error.
func (s *PostgresStore) Add(ctx context.Context, words ...string) error {
	const query = `INSERT INTO lexicon_words (word) VALUES ($1) ON CONFLICT (word) DO NOTHING`

	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			continue
		}
		if _, err := s.db.Exec(ctx, query, w); err != nil {
			return fmt.Errorf("lexicon: add %q: %w", w, err)
		}
	}
	return nil
}

// Remove deletes a word from the dictionary. Removing a non-existent word is
// not an error.
func (s *PostgresStore) Remove(ctx context.Context, word string) error {
	const query = `DELETE FROM lexicon_words WHERE word = $1`
	if _, err := s.db.Exec(ctx, query, word); err != nil {
		return fmt.Errorf("lexicon: remove %q: %w", word, err)
	}
	return nil
}

// Count returns the number of words in the dictionary.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	const query = `SELECT count(*) FROM lexicon_words`

	var n int
	if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("lexicon: count: %w", err)
	}
	return n, nil
}
