package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"nuref/internal/domain"
	"nuref/internal/logging"
)

func TestBuildIndex(t *testing.T) {
	root := t.TempDir()
	paths := writeProjects(t, root,
		"App/App.csproj",
		"Libs/Core/Core.csproj",
		"Libs/Data/Data.fsproj",
		"Libs/Core/readme.txt",
	)

	idx := NewProjectIndex(IndexOptions{}, nil)
	if idx.IsBuilt() {
		t.Fatal("new index should not be built")
	}
	if _, ok := idx.FindProject("Core"); ok {
		t.Error("unbuilt index should find nothing")
	}

	if err := idx.BuildIndex(context.Background(), root); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if !idx.IsBuilt() {
		t.Error("index should be built")
	}

	got, ok := idx.FindProject("core")
	if !ok || got != paths[1] {
		t.Errorf("FindProject(core) = %q, %v; want %q", got, ok, paths[1])
	}
	if _, ok := idx.FindProject("DATA"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := idx.FindProject("readme"); ok {
		t.Error("non-project files should not be indexed")
	}

	stats := idx.GetStats()
	if stats.TotalProjects != 3 {
		t.Errorf("TotalProjects = %d, want 3", stats.TotalProjects)
	}
	if stats.IndexedDirectories != 3 {
		t.Errorf("IndexedDirectories = %d, want 3", stats.IndexedDirectories)
	}
	if stats.RootDir != root {
		t.Errorf("RootDir = %q, want %q", stats.RootDir, root)
	}
	if len(idx.Projects()) != 3 {
		t.Errorf("Projects() returned %d records", len(idx.Projects()))
	}
}

func TestBuildIndex_DuplicateNames(t *testing.T) {
	root := t.TempDir()
	paths := writeProjects(t, root, "a/Shared/Shared.csproj", "b/Shared/Shared.csproj")
	logger := logging.NewTestLogger()

	idx := NewProjectIndex(IndexOptions{}, logger.Logger)
	if err := idx.BuildIndex(context.Background(), root); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	got, _ := idx.FindProject("Shared")
	if got != paths[0] {
		t.Errorf("first encountered project should win, got %q", got)
	}
	if idx.GetStats().Duplicates < 1 {
		t.Error("duplicate should be counted")
	}
	logger.AssertLogged(t, zapcore.WarnLevel, "duplicate project name")
}

func TestBuildIndex_SkipDirs(t *testing.T) {
	root := t.TempDir()
	writeProjects(t, root, "src/App/App.csproj", "src/App/obj/Generated.csproj", "node_modules/x/X.csproj")

	idx := NewProjectIndex(IndexOptions{SkipDirs: []string{"obj", "node_modules"}}, nil)
	if err := idx.BuildIndex(context.Background(), root); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	if _, ok := idx.FindProject("Generated"); ok {
		t.Error("projects under skipped dirs should not be indexed")
	}
	if _, ok := idx.FindProject("X"); ok {
		t.Error("projects under skipped dirs should not be indexed")
	}
	if _, ok := idx.FindProject("App"); !ok {
		t.Error("App should be indexed")
	}
}

func TestBuildIndex_InvalidRoot(t *testing.T) {
	idx := NewProjectIndex(IndexOptions{}, nil)

	if err := idx.BuildIndex(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("blank root: expected ErrInvalidArgument, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "nope")
	if err := idx.BuildIndex(context.Background(), missing); !errors.Is(err, domain.ErrDirectoryNotFound) {
		t.Errorf("missing root: expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestBuildIndex_FailureClearsIndex(t *testing.T) {
	root := t.TempDir()
	writeProjects(t, root, "App/App.csproj")

	idx := NewProjectIndex(IndexOptions{}, nil)
	if err := idx.BuildIndex(context.Background(), root); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := idx.BuildIndex(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if idx.IsBuilt() {
		t.Error("failed build should leave the index unbuilt")
	}
	if _, ok := idx.FindProject("App"); ok {
		t.Error("failed build should leave the index empty")
	}
}

func TestClearIndex(t *testing.T) {
	root := t.TempDir()
	writeProjects(t, root, "App/App.csproj")

	idx := NewProjectIndex(IndexOptions{}, nil)
	if err := idx.BuildIndex(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	idx.ClearIndex()

	if idx.IsBuilt() || idx.GetStats().TotalProjects != 0 {
		t.Error("ClearIndex should reset state")
	}
	if _, ok := idx.FindProject("App"); ok {
		t.Error("cleared index should find nothing")
	}
}

func TestBuildIndex_RootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	idx := NewProjectIndex(IndexOptions{}, nil)
	if err := idx.BuildIndex(context.Background(), file); !errors.Is(err, domain.ErrDirectoryNotFound) {
		t.Errorf("expected ErrDirectoryNotFound, got %v", err)
	}
}
