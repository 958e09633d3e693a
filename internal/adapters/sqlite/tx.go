package sqlite

import (
	"database/sql"
	"path/filepath"

	"nuref/internal/domain"
)

// catalogTx groups the writes of one catalog update
type catalogTx struct {
	tx   *sql.Tx
	done bool
}

func (t *catalogTx) deleteProjects(root string) error {
	_, err := t.tx.Exec(`DELETE FROM projects WHERE root = ?`, filepath.Clean(root))
	return err
}

func (t *catalogTx) insertProject(root string, rec domain.ProjectRecord) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO projects (root, name_key, name, path)
		VALUES (?, ?, ?, ?)
	`, filepath.Clean(root), domain.NameKey(rec.Name), rec.Name, rec.Path)
	return err
}

func (t *catalogTx) insertRun(s domain.RunSummary) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO runs (run_id, root, started_at, duration, dry_run,
			projects_processed, packages_converted, packages_unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RunID, filepath.Clean(s.Root), s.StartedAt.UnixNano(), int64(s.Duration), s.DryRun,
		s.ProjectsProcessed, s.PackagesConverted, s.PackagesUnresolved)
	return err
}

func (t *catalogTx) insertConversion(runID, projectPath string, conv domain.Conversion) error {
	_, err := t.tx.Exec(`
		INSERT INTO conversions (run_id, project_path, package_id, target_path, source)
		VALUES (?, ?, ?, ?, ?)
	`, runID, projectPath, conv.PackageID, conv.ProjectPath, conv.Source.String())
	return err
}

// commit commits the transaction
func (t *catalogTx) commit() error {
	t.done = true
	return t.tx.Commit()
}

// Rollback aborts the transaction unless it was committed
func (t *catalogTx) Rollback() error {
	if t.done {
		return nil
	}
	return t.tx.Rollback()
}
