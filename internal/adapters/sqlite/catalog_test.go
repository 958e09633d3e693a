package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuref/internal/domain"
)

func openCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	require.NoError(t, c.Open(filepath.Join(t.TempDir(), "catalog.db")))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_ReplaceAndFindProjects(t *testing.T) {
	c := openCatalog(t)
	root := "/w"

	require.NoError(t, c.ReplaceProjects(root, []domain.ProjectRecord{
		domain.NewProjectRecord("/w/Libs/Core/Core.csproj"),
		domain.NewProjectRecord("/w/App/App.csproj"),
		domain.NewProjectRecord("/w/Other/Core.csproj"),
	}))

	path, ok, err := c.FindProject(root, "core")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/w/Libs/Core/Core.csproj", path, "first record wins for duplicate names")

	n, err := c.CountProjects(root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err = c.FindProject("/elsewhere", "Core")
	require.NoError(t, err)
	assert.False(t, ok, "snapshots are scoped by root")

	require.NoError(t, c.ReplaceProjects(root, []domain.ProjectRecord{
		domain.NewProjectRecord("/w/App/App.csproj"),
	}))
	_, ok, err = c.FindProject(root, "Core")
	require.NoError(t, err)
	assert.False(t, ok, "replace drops projects missing from the new snapshot")
}

func TestCatalog_RecordAndListRuns(t *testing.T) {
	c := openCatalog(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i := range 3 {
		report := &domain.RunReport{
			RunID:             fmt.Sprintf("run-%d", i),
			Root:              "/w",
			StartedAt:         base.Add(time.Duration(i) * time.Minute),
			Duration:          1500 * time.Millisecond,
			ProjectsProcessed: i + 1,
			PackagesConverted: i,
			DryRun:            i == 2,
		}
		if i == 1 {
			report.Changes = []domain.ProjectChange{{
				Path: "/w/App/App.csproj",
				Conversions: []domain.Conversion{
					{PackageID: "Core", ProjectPath: "/w/Libs/Core/Core.csproj", Source: domain.SourceIndex},
					{PackageID: "Util", ProjectPath: "/w/Libs/Util/Util.csproj", Source: domain.SourceMapping},
				},
			}}
		}
		require.NoError(t, c.RecordRun(report))
	}

	runs, err := c.ListRuns("/w", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.True(t, runs[0].DryRun)
	assert.Equal(t, "run-1", runs[1].RunID)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.True(t, runs[1].StartedAt.Equal(base.Add(time.Minute)))

	all, err := c.ListRuns("/w", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	changes, err := c.RunConversions("run-1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Len(t, changes[0].Conversions, 2)
	assert.Equal(t, domain.SourceMapping, changes[0].Conversions[1].Source)
}

func TestCatalog_RecordRunRequiresID(t *testing.T) {
	c := openCatalog(t)
	err := c.RecordRun(&domain.RunReport{Root: "/w"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c := NewCatalog()
	require.NoError(t, c.Open(path))
	require.NoError(t, c.ReplaceProjects("/w", []domain.ProjectRecord{domain.NewProjectRecord("/w/App/App.csproj")}))
	require.NoError(t, c.Close())

	c = NewCatalog()
	require.NoError(t, c.Open(path))
	defer c.Close()

	_, ok, err := c.FindProject("/w", "App")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	a := DefaultPath("/w/one")
	assert.Equal(t, filepath.Join("/data", "nuref"), filepath.Dir(a))
	assert.Equal(t, ".db", filepath.Ext(a))
	assert.Equal(t, a, DefaultPath("/w/one/"), "trailing separators do not change the hash")
	assert.NotEqual(t, a, DefaultPath("/w/two"))
}

func BenchmarkReplaceProjects(b *testing.B) {
	c := NewCatalog()
	if err := c.Open(filepath.Join(b.TempDir(), "bench.db")); err != nil {
		b.Fatalf("failed to open catalog: %v", err)
	}
	defer c.Close()

	records := make([]domain.ProjectRecord, 2000)
	for i := range records {
		records[i] = domain.NewProjectRecord(fmt.Sprintf("/w/p%d/P%d.csproj", i, i))
	}

	b.ResetTimer()
	for b.Loop() {
		if err := c.ReplaceProjects("/w", records); err != nil {
			b.Fatalf("replace failed: %v", err)
		}
	}
}
