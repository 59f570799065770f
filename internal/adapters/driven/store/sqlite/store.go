// Package sqlite implements driven.ReviewIndexer and driving.ReviewReader
// over modernc.org/sqlite, grounded on the teacher's
// storage/sqlite.Store: same WAL-mode connection setup, same
// os.MkdirAll-then-open-then-migrate shape. The catalog here is a single
// table, so schema setup is inlined rather than pulled from an embedded
// migrations directory like the teacher's multi-entity schema uses.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
	"github.com/pageconv/pageconv/internal/core/ports/driving"
)

var (
	_ driven.ReviewIndexer = (*Store)(nil)
	_ driving.ReviewReader = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS page_results (
	document_name  TEXT NOT NULL,
	page_index     INTEGER NOT NULL,
	id             TEXT NOT NULL,
	success        INTEGER NOT NULL,
	final_score    INTEGER NOT NULL,
	iterations_run INTEGER NOT NULL,
	final_html_path TEXT NOT NULL,
	iterations_json TEXT NOT NULL,
	PRIMARY KEY (document_name, page_index)
);
`

// Store is a SQLite-backed catalog of committed pages, supplementing the
// on-disk JSON/HTML layout driven.PageStore writes with something a
// review viewer can query by document name without re-walking directories.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (and migrates) a catalog database at dataDir/review.db,
// creating dataDir if necessary.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "review.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// IndexPage upserts documentName's catalog row for result.
func (s *Store) IndexPage(documentName string, result domain.PageResult) error {
	iterationsJSON, err := json.Marshal(result.Iterations)
	if err != nil {
		return fmt.Errorf("marshalling iterations: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO page_results (document_name, page_index, id, success, final_score, iterations_run, final_html_path, iterations_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_name, page_index) DO UPDATE SET
			id = excluded.id,
			success = excluded.success,
			final_score = excluded.final_score,
			iterations_run = excluded.iterations_run,
			final_html_path = excluded.final_html_path,
			iterations_json = excluded.iterations_json
	`, documentName, result.PageIndex, result.ID, boolToInt(result.Success), result.FinalScore,
		result.IterationsRun, result.FinalHTMLPath, string(iterationsJSON))
	if err != nil {
		return fmt.Errorf("indexing page %d: %w", result.PageIndex, err)
	}
	return nil
}

// ListPages returns the PageResult for every page processed so far for
// documentName, ordered by page index.
func (s *Store) ListPages(ctx context.Context, documentName string) ([]domain.PageResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_index, id, success, final_score, iterations_run, final_html_path, iterations_json
		FROM page_results WHERE document_name = ? ORDER BY page_index
	`, documentName)
	if err != nil {
		return nil, fmt.Errorf("querying pages for %s: %w", documentName, err)
	}
	defer rows.Close()

	var results []domain.PageResult
	for rows.Next() {
		result, err := scanPageResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetIteration returns one page's Nth iteration record.
func (s *Store) GetIteration(ctx context.Context, documentName string, pageIndex, iterationNumber int) (domain.IterationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT iterations_json FROM page_results WHERE document_name = ? AND page_index = ?
	`, documentName, pageIndex)

	var iterationsJSON string
	if err := row.Scan(&iterationsJSON); err != nil {
		return domain.IterationRecord{}, fmt.Errorf("loading page %d of %s: %w", pageIndex, documentName, err)
	}

	var iterations []domain.IterationRecord
	if err := json.Unmarshal([]byte(iterationsJSON), &iterations); err != nil {
		return domain.IterationRecord{}, fmt.Errorf("decoding iterations for page %d: %w", pageIndex, err)
	}

	for _, rec := range iterations {
		if rec.IterationNumber == iterationNumber {
			return rec, nil
		}
	}
	return domain.IterationRecord{}, fmt.Errorf("iteration %d not found for page %d of %s", iterationNumber, pageIndex, documentName)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPageResult(row scanner) (domain.PageResult, error) {
	var (
		result         domain.PageResult
		successInt     int
		iterationsJSON string
	)
	if err := row.Scan(&result.PageIndex, &result.ID, &successInt, &result.FinalScore,
		&result.IterationsRun, &result.FinalHTMLPath, &iterationsJSON); err != nil {
		return domain.PageResult{}, fmt.Errorf("scanning page result: %w", err)
	}
	result.Success = successInt != 0

	if err := json.Unmarshal([]byte(iterationsJSON), &result.Iterations); err != nil {
		return domain.PageResult{}, fmt.Errorf("decoding iterations: %w", err)
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
