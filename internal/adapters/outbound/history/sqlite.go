// Package history stores analysis results in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bambumate/bambumate/internal/domain"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultPath is the history database location relative to the project.
const DefaultPath = ".bambumate/history.db"

// timeLayout sorts lexically in chronological order for UTC times.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements domain.HistoryStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs pending migrations.
// Pass ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and avoids lock errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// AppliedMigrations returns applied schema versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Save inserts entry. The entry must carry an ID.
func (s *Store) Save(ctx context.Context, entry domain.AnalysisEntry) error {
	if entry.ID == "" {
		return errors.New("analysis entry has no id")
	}
	defects, err := json.Marshal(entry.Defects)
	if err != nil {
		return fmt.Errorf("encoding defects: %w", err)
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, created_at, profile_name, material, defects, result)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, createdAt.UTC().Format(timeLayout), entry.ProfileName, entry.Material,
		string(defects), string(result),
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", entry.ID, err)
	}
	return nil
}

// List returns the most recent entries first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]domain.AnalysisEntry, error) {
	query := `SELECT id, created_at, profile_name, material, defects, result
		FROM analyses ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalysisEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with id or domain.ErrAnalysisNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.AnalysisEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, profile_name, material, defects, result
		FROM analyses WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnalysisEntry{}, domain.ErrAnalysisNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (domain.AnalysisEntry, error) {
	var (
		e                 domain.AnalysisEntry
		createdAt         string
		defects, resultJS string
	)
	if err := sc.Scan(&e.ID, &createdAt, &e.ProfileName, &e.Material, &defects, &resultJS); err != nil {
		return domain.AnalysisEntry{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.AnalysisEntry{}, fmt.Errorf("parsing created_at for %s: %w", e.ID, err)
	}
	e.CreatedAt = t
	if err := json.Unmarshal([]byte(defects), &e.Defects); err != nil {
		return domain.AnalysisEntry{}, fmt.Errorf("decoding defects for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJS), &e.Result); err != nil {
		return domain.AnalysisEntry{}, fmt.Errorf("decoding result for %s: %w", e.ID, err)
	}
	return e, nil
}
