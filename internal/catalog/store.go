package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cineref/internal/services"
	"cineref/internal/textutil"
)

// Film is one locally catalogued title.
type Film struct {
	ID          int64
	Title       string
	Year        int
	Description string
	IMDbID      string
	AddedAt     time.Time
}

// Match pairs a catalogued film with its similarity to a query.
type Match struct {
	Film  Film
	Score float64
}

// Store persists the local film catalog in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("catalog db path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path reports the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS films (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    year INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    imdb_id TEXT NOT NULL DEFAULT '',
    added_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_films_title ON films(title);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply catalog schema: %w", err)
	}
	return nil
}

// Add inserts a film and returns the stored row.
func (s *Store) Add(ctx context.Context, film Film) (*Film, error) {
	title := strings.TrimSpace(film.Title)
	if title == "" {
		return nil, fmt.Errorf("film title required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO films (title, year, description, imdb_id, added_at)
         VALUES (?, ?, ?, ?, ?)`,
		title,
		film.Year,
		strings.TrimSpace(film.Description),
		strings.TrimSpace(film.IMDbID),
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert film: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a film by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Film, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, title, year, description, imdb_id, added_at FROM films WHERE id = ?`,
		id,
	)
	film, err := scanFilm(row)
	if err == sql.ErrNoRows {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get", "film "+strconv.FormatInt(id, 10), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("scan film: %w", err)
	}
	return film, nil
}

// List returns every catalogued film ordered by title.
func (s *Store) List(ctx context.Context) ([]Film, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, title, year, description, imdb_id, added_at FROM films ORDER BY title COLLATE NOCASE, year`,
	)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	defer rows.Close()

	var films []Film
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		films = append(films, *film)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate films: %w", err)
	}
	return films, nil
}

// Search returns the best fuzzy title match at or above threshold, or
// ErrNotFound when nothing in the catalog is close enough. A query year, if
// nonzero, must agree with the stored year when the stored year is known.
func (s *Store) Search(ctx context.Context, query string, year int, threshold float64) (*Match, error) {
	queryFP := textutil.NewFingerprint(query)
	if queryFP == nil {
		return nil, services.Wrap(services.ErrInvalidReference, "catalog", "search", "unsearchable query "+strconv.Quote(query), nil)
	}

	films, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var best *Match
	for i := range films {
		film := films[i]
		if year > 0 && film.Year > 0 && film.Year != year {
			continue
		}
		score := textutil.CosineSimilarity(queryFP, textutil.NewFingerprint(film.Title))
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Film: film, Score: score}
		}
	}
	if best == nil {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "search", "no match for "+strconv.Quote(query), nil)
	}
	return best, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFilm(row rowScanner) (*Film, error) {
	var film Film
	var addedAt string
	if err := row.Scan(&film.ID, &film.Title, &film.Year, &film.Description, &film.IMDbID, &addedAt); err != nil {
		return nil, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
		film.AddedAt = parsed
	}
	return &film, nil
}
