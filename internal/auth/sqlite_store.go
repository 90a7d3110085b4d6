package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS auth_tokens (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore persists tokens in a local SQLite file so a CLI session
// survives restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the token database at path.
// Use ":memory:" for a throwaway store.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases
	// shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating token table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (Tokens, error) {
	return loadTokens(ctx, s.db)
}

func (s *SQLiteStore) Save(ctx context.Context, tokens Tokens) error {
	return s.Update(ctx, func(Tokens) (Tokens, bool) { return tokens, true })
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens`); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(Tokens) (Tokens, bool)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning token transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadTokens(ctx, tx)
	if err != nil {
		return err
	}
	next, ok := fn(current)
	if !ok {
		return nil
	}

	for key, value := range map[string]string{AccessTokenKey: next.Access, RefreshTokenKey: next.Refresh} {
		if value == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE key = ?`, key); err != nil {
				return fmt.Errorf("deleting %s: %w", key, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO auth_tokens (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tokens: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadTokens(ctx context.Context, q queryer) (Tokens, error) {
	var tokens Tokens
	for key, dst := range map[string]*string{AccessTokenKey: &tokens.Access, RefreshTokenKey: &tokens.Refresh} {
		err := q.QueryRowContext(ctx, `SELECT value FROM auth_tokens WHERE key = ?`, key).Scan(dst)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Tokens{}, fmt.Errorf("reading %s: %w", key, err)
		}
	}
	return tokens, nil
}
