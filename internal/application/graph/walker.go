// Package graph converts package references into project references
// across a workspace, following newly referenced projects transitively.
package graph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/logging"
	"nuref/internal/ports"
)

// Options controls one conversion run
type Options struct {
	Root   string
	DryRun bool
}

// Deps are the collaborators a Walker drives
type Deps struct {
	Model      ports.ProjectModel
	Enumerator ports.ProjectEnumerator
	Organizer  ports.FolderOrganizer
	Mappings   ports.MappingStore
	Paths      ports.PathResolver
	Resolver   *Resolver
	Logger     *logging.Logger
}

// Walker rewrites every project the enumerator reports. Each project is
// processed at most once per run.
type Walker struct {
	deps   Deps
	opts   Options
	logger *logging.Logger

	visited    map[string]bool
	unresolved map[string]bool
	report     *domain.RunReport
}

func NewWalker(deps Deps, opts Options) *Walker {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Walker{deps: deps, opts: opts, logger: logger.Named("walker")}
}

// Run converts the workspace. On a registration failure the run stops with
// a ConversionError; the failing project's registrations are discarded and
// the report covers the work done up to that point.
func (w *Walker) Run(ctx context.Context) (*domain.RunReport, error) {
	w.visited = make(map[string]bool)
	w.unresolved = make(map[string]bool)
	w.report = &domain.RunReport{
		RunID:     uuid.NewString(),
		Root:      w.opts.Root,
		StartedAt: time.Now(),
		DryRun:    w.opts.DryRun,
	}
	ctx = logging.WithRunID(ctx, w.report.RunID)

	projects, err := w.deps.Enumerator.Enumerate()
	if err != nil {
		return w.finish(), fmt.Errorf("failed to enumerate projects: %w", err)
	}
	w.deps.Resolver.SetWorkspace(projects)
	w.logger.Info(ctx, "conversion started",
		zap.String("root", w.opts.Root),
		zap.Int("projects", len(projects)),
		zap.Bool("dry_run", w.opts.DryRun))

	stack := make([]string, 0, len(projects))
	for i := len(projects) - 1; i >= 0; i-- {
		stack = append(stack, projects[i].Path)
	}

	var runErr error
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		checkpoint := w.deps.Organizer.Checkpoint()
		next, err := w.process(ctx, path)
		if err != nil {
			w.deps.Organizer.Rollback(checkpoint)
			runErr = err
			break
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}

	if err := w.flush(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	report := w.finish()
	if runErr != nil {
		w.logger.Error(ctx, "conversion aborted", zap.Error(runErr))
		return report, runErr
	}
	w.logger.Info(ctx, "conversion finished",
		zap.Int("processed", report.ProjectsProcessed),
		zap.Int("converted", report.PackagesConverted),
		zap.Int("unresolved", len(report.Unresolved)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// process rewrites one project and returns the projects to visit next
func (w *Walker) process(ctx context.Context, path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		w.report.ProjectsSkipped++
		return nil, nil
	}
	key := canonical(path)
	if w.visited[key] {
		w.report.ProjectsSkipped++
		return nil, nil
	}
	w.visited[key] = true

	handle, err := w.deps.Model.Load(path)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			w.logger.Warn(ctx, "project listed but missing on disk", zap.String("project", path))
			w.report.ProjectsSkipped++
			return nil, nil
		}
		return nil, &application.ConversionError{Project: path, Err: err}
	}
	w.report.ProjectsProcessed++

	projectDir := filepath.Dir(path)
	existing := make(map[string]bool)
	for _, ref := range handle.Items(domain.ProjectReference) {
		if abs, err := w.deps.Paths.ToAbsolute(projectDir, ref.Include); err == nil {
			existing[canonical(abs)] = true
		}
	}

	change := domain.ProjectChange{Path: path}
	var next []string

	for _, pkg := range handle.Items(domain.PackageReference) {
		w.report.PackagesSeen++
		res := w.deps.Resolver.ResolvePackage(ctx, pkg.Include, projectDir)
		w.record(ctx, pkg.Include, res)

		if !res.Found {
			w.report.PackagesUnresolved++
			w.unresolved[pkg.Include] = true
			w.logger.Debug(ctx, "package left unresolved",
				zap.String("project", path),
				zap.String("package", pkg.Include),
				zap.Stringer("source", res.Source))
			continue
		}
		target := canonical(res.Path)
		if target == key {
			w.logger.Warn(ctx, "package resolves to the referencing project, skipped",
				zap.String("project", path), zap.String("package", pkg.Include))
			continue
		}

		include, err := w.deps.Paths.ToRelative(projectDir, res.Path)
		if err != nil {
			return nil, &application.ConversionError{Project: path, PackageID: pkg.Include, Err: err}
		}
		if err := handle.Remove(pkg); err != nil {
			return nil, &application.ConversionError{Project: path, PackageID: pkg.Include, Err: err}
		}
		if !existing[target] {
			if _, err := handle.Add(domain.ProjectReference, include); err != nil {
				return nil, &application.ConversionError{Project: path, PackageID: pkg.Include, Err: err}
			}
			existing[target] = true
		}

		registered, err := w.register(ctx, res.Path)
		if err != nil {
			return nil, &application.ConversionError{Project: path, PackageID: pkg.Include, Err: err}
		}

		change.Conversions = append(change.Conversions, domain.Conversion{
			PackageID:   pkg.Include,
			ProjectPath: res.Path,
			Include:     include,
			Source:      res.Source,
		})
		w.report.PackagesConverted++
		w.logger.Debug(ctx, "package converted",
			zap.String("project", path),
			zap.String("package", pkg.Include),
			zap.String("include", include),
			zap.Stringer("source", res.Source))

		next = append(next, res.Path)
		next = append(next, registered...)
	}

	if handle.Modified() {
		if w.opts.DryRun {
			if differ, ok := handle.(ports.Differ); ok {
				diff, err := differ.Diff()
				if err != nil {
					return nil, fmt.Errorf("failed to diff %s: %w", path, err)
				}
				change.Diff = diff
			}
		} else {
			if err := handle.Save(); err != nil {
				return nil, &application.ConversionError{Project: path, Err: err}
			}
			w.report.ProjectsSaved++
		}
	}
	if len(change.Conversions) > 0 {
		w.report.Changes = append(w.report.Changes, change)
	}

	return next, nil
}

// register adds path to the folder organizer. A newly registered project
// has its own project references registered too; the paths registered
// for the first time are returned.
func (w *Walker) register(ctx context.Context, path string) ([]string, error) {
	var added []string
	seen := make(map[string]bool)
	stack := []string{path}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		key := canonical(current)
		if seen[key] {
			continue
		}
		seen[key] = true

		ok, err := w.deps.Organizer.Register(current)
		if err != nil {
			return added, fmt.Errorf("failed to register %s: %w", current, err)
		}
		if !ok {
			continue
		}
		added = append(added, current)
		w.report.ProjectsRegistered++
		w.logger.Debug(ctx, "project registered", zap.String("project", current))

		handle, err := w.deps.Model.Load(current)
		if err != nil {
			return added, err
		}
		dir := filepath.Dir(current)
		refs := handle.Items(domain.ProjectReference)
		for i := len(refs) - 1; i >= 0; i-- {
			res := w.deps.Resolver.ResolveInclude(ctx, refs[i].Include, dir)
			if !res.Found {
				w.logger.Warn(ctx, "project reference not found",
					zap.String("project", current), zap.String("include", refs[i].Include))
			}
			stack = append(stack, res.Path)
		}
	}
	return added, nil
}

// record writes resolution outcomes back to the mapping store. A miss
// never overwrites a mapped path, even one whose file is gone.
func (w *Walker) record(ctx context.Context, packageID string, res domain.Resolution) {
	switch {
	case res.Source == domain.SourceIndex || res.Source == domain.SourceFileSystem:
		w.deps.Mappings.Put(packageID, res.Path)
	case !res.Found && res.Source != domain.SourceNegativeCache:
		if prev, ok := w.deps.Mappings.Get(packageID); ok && prev != "" {
			w.logger.Warn(ctx, "keeping mapping to missing project",
				zap.String("package", packageID), zap.String("path", prev))
			return
		}
		w.deps.Mappings.Put(packageID, "")
	}
}

// flush persists the mapping store and organizer. Dry runs write nothing.
func (w *Walker) flush() error {
	if w.opts.DryRun {
		return nil
	}
	var errs []error
	if err := w.deps.Mappings.Save(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save mappings: %w", err))
	}
	if err := w.deps.Organizer.Save(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save workspace folder: %w", err))
	}
	return errors.Join(errs...)
}

func (w *Walker) finish() *domain.RunReport {
	w.report.Duration = time.Since(w.report.StartedAt)
	w.report.Unresolved = make([]string, 0, len(w.unresolved))
	for id := range w.unresolved {
		w.report.Unresolved = append(w.report.Unresolved, id)
	}
	sort.Strings(w.report.Unresolved)
	return w.report
}
