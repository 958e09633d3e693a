package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nuref/internal/domain"
	"nuref/internal/ports"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = "1"

// Catalog implements ports.Catalog using SQLite
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Ensure Catalog implements ports.Catalog
var _ ports.Catalog = (*Catalog)(nil)

// NewCatalog creates a closed catalog; call Open before use
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Open opens or creates the database at path. An empty path selects the
// per-user default for the current directory.
func (c *Catalog) Open(path string) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		path = DefaultPath(wd)
	}
	c.dbPath = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db

	if c.needsRebuild() {
		if _, err := db.Exec(`
			DROP TABLE IF EXISTS projects;
			DROP TABLE IF EXISTS conversions;
			DROP TABLE IF EXISTS runs;
		`); err != nil {
			db.Close()
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS projects (
			root TEXT NOT NULL,
			name_key TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (root, name_key)
		);
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			dry_run INTEGER NOT NULL,
			projects_processed INTEGER NOT NULL,
			packages_converted INTEGER NOT NULL,
			packages_unresolved INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS conversions (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			project_path TEXT NOT NULL,
			package_id TEXT NOT NULL,
			target_path TEXT NOT NULL,
			source TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root, started_at);
		CREATE INDEX IF NOT EXISTS idx_conversions_run ON conversions(run_id);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file backing the catalog
func (c *Catalog) Path() string { return c.dbPath }

// needsRebuild reports whether an existing database was written by another
// schema version. A fresh database has no meta table and needs nothing.
func (c *Catalog) needsRebuild() bool {
	var version string
	err := c.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil {
		return false
	}
	return version != schemaVersion
}

// DefaultPath returns the per-user database location for a workspace root
func DefaultPath(root string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "nuref", hashRoot(root)+".db")
}

// hashRoot returns a short hash of the workspace root
func hashRoot(root string) string {
	h := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(h[:8])
}

// ReplaceProjects swaps the stored snapshot for root with records.
// Duplicate names keep the first record.
func (c *Catalog) ReplaceProjects(root string, records []domain.ProjectRecord) error {
	tx, err := c.beginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.deleteProjects(root); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	for _, rec := range records {
		if err := tx.insertProject(root, rec); err != nil {
			return fmt.Errorf("failed to store project %s: %w", rec.Path, err)
		}
	}
	return tx.commit()
}

// FindProject looks up a project by name under root
func (c *Catalog) FindProject(root, name string) (string, bool, error) {
	var path string
	err := c.db.QueryRow(`
		SELECT path FROM projects WHERE root = ? AND name_key = ?
	`, filepath.Clean(root), domain.NameKey(name)).Scan(&path)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// CountProjects returns the size of the stored snapshot for root
func (c *Catalog) CountProjects(root string) (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM projects WHERE root = ?`, filepath.Clean(root)).Scan(&n)
	return n, err
}

// RecordRun stores the run summary and every conversion it applied
func (c *Catalog) RecordRun(report *domain.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("%w: run report without id", domain.ErrInvalidArgument)
	}

	tx, err := c.beginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.insertRun(report.Summary()); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	for _, change := range report.Changes {
		for _, conv := range change.Conversions {
			if err := tx.insertConversion(report.RunID, change.Path, conv); err != nil {
				return fmt.Errorf("failed to store conversion: %w", err)
			}
		}
	}
	return tx.commit()
}

// ListRuns returns the most recent runs for root, newest first.
// A non-positive limit returns every run.
func (c *Catalog) ListRuns(root string, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.Query(`
		SELECT run_id, root, started_at, duration, dry_run,
		       projects_processed, packages_converted, packages_unresolved
		FROM runs WHERE root = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, filepath.Clean(root), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			s         domain.RunSummary
			startedAt int64
			duration  int64
		)
		if err := rows.Scan(&s.RunID, &s.Root, &startedAt, &duration, &s.DryRun,
			&s.ProjectsProcessed, &s.PackagesConverted, &s.PackagesUnresolved); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, startedAt)
		s.Duration = time.Duration(duration)
		runs = append(runs, s)
	}

	return runs, rows.Err()
}

// RunConversions returns the conversions recorded for a run
func (c *Catalog) RunConversions(runID string) ([]domain.ProjectChange, error) {
	rows, err := c.db.Query(`
		SELECT project_path, package_id, target_path, source
		FROM conversions WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []domain.ProjectChange
	for rows.Next() {
		var (
			project string
			conv    domain.Conversion
			source  string
		)
		if err := rows.Scan(&project, &conv.PackageID, &conv.ProjectPath, &source); err != nil {
			return nil, err
		}
		conv.Source = domain.ParseResolutionSource(source)
		if n := len(changes); n > 0 && changes[n-1].Path == project {
			changes[n-1].Conversions = append(changes[n-1].Conversions, conv)
			continue
		}
		changes = append(changes, domain.ProjectChange{Path: project, Conversions: []domain.Conversion{conv}})
	}

	return changes, rows.Err()
}

func (c *Catalog) beginTx() (*catalogTx, error) {
	if c.db == nil {
		return nil, fmt.Errorf("catalog is not open")
	}
	tx, err := c.db.Begin()
	if err != nil {
		return nil, err
	}
	return &catalogTx{tx: tx}, nil
}
