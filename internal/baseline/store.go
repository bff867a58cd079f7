// Package baseline persists accepted findings in a SQLite database under
// the implint workspace directory. A baseline run records the current
// violations; later check runs filter out any violation whose
// fingerprint is already recorded, so existing debt does not drown out
// new findings.
package baseline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"implint/internal/logging"
	"implint/internal/rule"
)

// Store provides persistence for accepted findings.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Entry is one accepted finding.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Rule        string    `json:"rule"`
	Path        string    `json:"path"`
	Module      string    `json:"module,omitempty"`
	Message     string    `json:"message"`
	RecordedAt  time.Time `json:"recordedAt"`
	RunID       string    `json:"runId"`
}

// Run describes one baseline update.
type Run struct {
	ID           string    `json:"id"`
	RecordedAt   time.Time `json:"recordedAt"`
	FindingCount int       `json:"findingCount"`
}

// OpenStore opens or creates the baseline database at dbPath.
func OpenStore(dbPath string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create baseline directory: %w", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating baseline database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize baseline schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS findings (
			fingerprint TEXT PRIMARY KEY,
			rule TEXT NOT NULL,
			path TEXT NOT NULL,
			module TEXT,
			message TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			run_id TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_findings_path ON findings(path);

		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			finding_count INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Update replaces the recorded findings with the given set, all stamped
// with the run ID. The replacement is atomic: a failed update leaves the
// previous baseline intact.
func (s *Store) Update(runID string, violations []rule.Violation) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin baseline update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM findings"); err != nil {
		return fmt.Errorf("failed to clear baseline: %w", err)
	}

	now := time.Now().UTC()
	insert := `
		INSERT OR REPLACE INTO findings (fingerprint, rule, path, module, message, recorded_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, v := range violations {
		_, err := tx.Exec(insert,
			Fingerprint(v),
			v.Rule,
			v.Location.Path,
			nullString(v.Module),
			v.Message,
			now.Format(time.RFC3339),
			runID,
		)
		if err != nil {
			return fmt.Errorf("failed to record finding: %w", err)
		}
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO runs (id, recorded_at, finding_count) VALUES (?, ?, ?)",
		runID, now.Format(time.RFC3339), len(violations),
	)
	if err != nil {
		return fmt.Errorf("failed to record baseline run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit baseline update: %w", err)
	}

	s.logger.Info("Updated baseline", map[string]interface{}{
		"runId":    runID,
		"findings": len(violations),
		"path":     s.dbPath,
	})
	return nil
}

// Fingerprints returns the set of recorded fingerprints.
func (s *Store) Fingerprints() (map[string]bool, error) {
	rows, err := s.conn.Query("SELECT fingerprint FROM findings")
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accepted := make(map[string]bool)
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		accepted[fp] = true
	}
	return accepted, rows.Err()
}

// Entries returns all recorded findings ordered by path, rule, and
// module.
func (s *Store) Entries() ([]Entry, error) {
	rows, err := s.conn.Query(`
		SELECT fingerprint, rule, path, module, message, recorded_at, run_id
		FROM findings
		ORDER BY path, rule, module
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var module sql.NullString
		var recordedAt string
		if err := rows.Scan(&e.Fingerprint, &e.Rule, &e.Path, &module, &e.Message, &recordedAt, &e.RunID); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		e.Module = module.String
		if ts, err := time.Parse(time.RFC3339, recordedAt); err == nil {
			e.RecordedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastRun returns the most recent baseline update, or nil when the
// baseline has never been recorded.
func (s *Store) LastRun() (*Run, error) {
	row := s.conn.QueryRow(`
		SELECT id, recorded_at, finding_count
		FROM runs
		ORDER BY recorded_at DESC
		LIMIT 1
	`)

	var r Run
	var recordedAt string
	if err := row.Scan(&r.ID, &recordedAt, &r.FindingCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline runs: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, recordedAt); err == nil {
		r.RecordedAt = ts
	}
	return &r, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
