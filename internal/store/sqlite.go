package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pairloop/pairloop/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent runs.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string. ulid.Make uses a locked monotonic
// entropy source, so IDs minted in the same millisecond stay unique.
func newULID() string {
	return ulid.Make().String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Pair results ---

// SavePairResult persists a completed run and its iteration records in one
// transaction. The result is assigned an ID and creation time if it lacks
// them.
func (s *SQLiteStore) SavePairResult(ctx context.Context, res *models.PairResult) error {
	if res.ID == "" {
		res.ID = newULID()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pair_results (id, task_id, success, final_output, total_duration_ms, failure_reason, max_iterations_reached, final_quality, disaster_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.TaskID, boolToInt(res.Success), res.FinalOutput,
		res.TotalDuration.Milliseconds(), res.FailureReason,
		boolToInt(res.MaxIterationsReached), res.FinalQuality, res.DisasterScore, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pair result: %w", err)
	}

	for _, rec := range res.Iterations {
		outcomeJSON, err := json.Marshal(rec.Outcome)
		if err != nil {
			return fmt.Errorf("marshal outcome for iteration %d: %w", rec.Iteration, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO iteration_records (id, result_id, iteration, output, outcome, duration_ms, success, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			newULID(), res.ID, rec.Iteration, rec.Output, string(outcomeJSON),
			rec.Duration.Milliseconds(), boolToInt(rec.Success), rec.Error,
		)
		if err != nil {
			return fmt.Errorf("insert iteration %d: %w", rec.Iteration, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetPairResult loads a run with its full iteration history.
func (s *SQLiteStore) GetPairResult(ctx context.Context, id string) (*models.PairResult, error) {
	res := &models.PairResult{}
	var success, maxReached int
	var durationMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, success, final_output, total_duration_ms, failure_reason, max_iterations_reached, final_quality, disaster_score, created_at
		FROM pair_results WHERE id = ?`, id,
	).Scan(&res.ID, &res.TaskID, &success, &res.FinalOutput, &durationMs,
		&res.FailureReason, &maxReached, &res.FinalQuality, &res.DisasterScore, &res.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("result not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get pair result: %w", err)
	}
	res.Success = success == 1
	res.MaxIterationsReached = maxReached == 1
	res.TotalDuration = time.Duration(durationMs) * time.Millisecond

	iterations, err := s.loadIterations(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	res.Iterations = iterations
	return res, nil
}

func (s *SQLiteStore) loadIterations(ctx context.Context, resultID string) ([]models.IterationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT iteration, output, outcome, duration_ms, success, error
		FROM iteration_records WHERE result_id = ? ORDER BY iteration`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	var out []models.IterationRecord
	for rows.Next() {
		var rec models.IterationRecord
		var outcomeJSON string
		var durationMs int64
		var success int
		if err := rows.Scan(&rec.Iteration, &rec.Output, &outcomeJSON, &durationMs, &success, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		if err := json.Unmarshal([]byte(outcomeJSON), &rec.Outcome); err != nil {
			return nil, fmt.Errorf("unmarshal outcome for iteration %d: %w", rec.Iteration, err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.Success = success == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListPairResults returns runs newest first, without iteration histories.
// Use GetPairResult for the full record.
func (s *SQLiteStore) ListPairResults(ctx context.Context, filter ResultListFilter) ([]*models.PairResult, error) {
	query := `SELECT id, task_id, success, final_output, total_duration_ms, failure_reason, max_iterations_reached, final_quality, disaster_score, created_at
		FROM pair_results WHERE 1=1`
	var args []any
	if filter.TaskID != "" {
		query += " AND task_id = ?"
		args = append(args, filter.TaskID)
	}
	if filter.OnlySuccess {
		query += " AND success = 1"
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pair results: %w", err)
	}
	defer rows.Close()

	var out []*models.PairResult
	for rows.Next() {
		res := &models.PairResult{}
		var success, maxReached int
		var durationMs int64
		if err := rows.Scan(&res.ID, &res.TaskID, &success, &res.FinalOutput, &durationMs,
			&res.FailureReason, &maxReached, &res.FinalQuality, &res.DisasterScore, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pair result: %w", err)
		}
		res.Success = success == 1
		res.MaxIterationsReached = maxReached == 1
		res.TotalDuration = time.Duration(durationMs) * time.Millisecond
		out = append(out, res)
	}
	return out, rows.Err()
}
