package ports

import "nuref/internal/domain"

// Catalog persists project snapshots and conversion history across runs
type Catalog interface {
	Open(path string) error
	Close() error

	// ReplaceProjects stores the full set of projects found under root
	ReplaceProjects(root string, records []domain.ProjectRecord) error

	// FindProject looks up a project by case-insensitive name under root
	FindProject(root, name string) (string, bool, error)
	CountProjects(root string) (int, error)

	RecordRun(report *domain.RunReport) error

	// ListRuns returns the most recent runs for root, newest first
	ListRuns(root string, limit int) ([]domain.RunSummary, error)

	// RunConversions returns the conversions a run applied, grouped by project
	RunConversions(runID string) ([]domain.ProjectChange, error)
}
