package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/logger"
)

const memoryPath = ":memory:"

// SQLiteStore persists cached seasons in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	settings
}

// OpenSQLite opens or creates the database at path and applies the schema.
// ":memory:" keeps everything in process.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path, settings: newSettings(opts)}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS corpus_seasons (
		role       TEXT    NOT NULL,
		season     INTEGER NOT NULL,
		payload    BLOB    NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (role, season)
	)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, role model.Role, season int) ([]model.Candidate, bool, error) {
	var (
		payload   []byte
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM corpus_seasons WHERE role = ? AND season = ?`,
		role.String(), season,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s %d: %w", role, season, err)
	}
	if s.expired(time.Unix(0, fetchedAt)) {
		return nil, false, nil
	}

	candidates, err := decode(payload)
	if err != nil {
		return nil, false, fmt.Errorf("load %s %d: %w", role, season, err)
	}
	return candidates, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, role model.Role, season int, candidates []model.Candidate) error {
	payload, err := encode(candidates)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO corpus_seasons (role, season, payload, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(role, season) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		role.String(), season, payload, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save %s %d: %w", role, season, err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus_seasons`).Scan(&n); err != nil {
		s.log.Warn(ctx, "count cached seasons", logger.Error(err))
		return 0
	}
	return n
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
