package domain

import "time"

// IndexStats holds statistics from a project index build
type IndexStats struct {
	TotalProjects      int
	Duplicates         int
	IndexedDirectories int
	BuildDuration      time.Duration
	RootDir            string
}

// LocatorStats counts fallback filesystem search activity
type LocatorStats struct {
	CacheHits      int
	CacheEvictions int
	Searches       int // Directory trees actually walked
	Found          int
	Missed         int
}

// Conversion is one package reference replaced by a project reference
type Conversion struct {
	PackageID   string
	ProjectPath string // Absolute path of the referenced project
	Include     string // Path written into the consuming project
	Source      ResolutionSource
}

// ProjectChange lists the conversions applied to one project file
type ProjectChange struct {
	Path        string
	Conversions []Conversion
	Diff        string // Unified diff, only rendered in dry-run mode
}

// RunReport summarises one conversion run
type RunReport struct {
	RunID              string
	Root               string
	StartedAt          time.Time
	Duration           time.Duration
	DryRun             bool
	ProjectsProcessed  int
	ProjectsSkipped    int
	ProjectsSaved      int
	ProjectsRegistered int
	PackagesSeen       int
	PackagesConverted  int
	PackagesUnresolved int
	Changes            []ProjectChange
	Unresolved         []string // Sorted, unique package ids left as packages
}

// RunSummary is the persisted form of a run, as listed by history
type RunSummary struct {
	RunID              string
	Root               string
	StartedAt          time.Time
	Duration           time.Duration
	DryRun             bool
	ProjectsProcessed  int
	PackagesConverted  int
	PackagesUnresolved int
}

// Summary strips the per-project detail from a report
func (r *RunReport) Summary() RunSummary {
	return RunSummary{
		RunID:              r.RunID,
		Root:               r.Root,
		StartedAt:          r.StartedAt,
		Duration:           r.Duration,
		DryRun:             r.DryRun,
		ProjectsProcessed:  r.ProjectsProcessed,
		PackagesConverted:  r.PackagesConverted,
		PackagesUnresolved: r.PackagesUnresolved,
	}
}
