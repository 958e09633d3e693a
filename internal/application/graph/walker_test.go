package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuref/internal/adapters/filesystem"
	"nuref/internal/adapters/msbuild"
	"nuref/internal/application"
	"nuref/internal/domain"
	"nuref/internal/logging"
	"nuref/internal/ports"
)

const mapFileName = "NuGetToProjectReferenceMap.json"

// project renders a minimal SDK project with the given package and
// project references
func project(packages []string, refs ...string) string {
	var b strings.Builder
	b.WriteString("<Project Sdk=\"Microsoft.NET.Sdk\">\n")
	if len(packages) > 0 {
		b.WriteString("  <ItemGroup>\n")
		for _, p := range packages {
			fmt.Fprintf(&b, "    <PackageReference Include=\"%s\" Version=\"1.0.0\" />\n", p)
		}
		b.WriteString("  </ItemGroup>\n")
	}
	if len(refs) > 0 {
		b.WriteString("  <ItemGroup>\n")
		for _, r := range refs {
			fmt.Fprintf(&b, "    <ProjectReference Include=\"%s\" />\n", r)
		}
		b.WriteString("  </ItemGroup>\n")
	}
	b.WriteString("</Project>\n")
	return b.String()
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func read(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

type harness struct {
	root     string
	paths    *filesystem.PathResolver
	index    *filesystem.ProjectIndex
	locator  *filesystem.ProjectLocator
	registry *filesystem.Registry
	mappings *filesystem.MapFile
	logger   *logging.TestLogger
}

func newHarness(t *testing.T, root string) *harness {
	t.Helper()
	h := &harness{
		root:     root,
		paths:    filesystem.NewPathResolver(false),
		registry: filesystem.NewRegistry(),
		logger:   logging.NewTestLogger(),
	}
	h.index = filesystem.NewProjectIndex(filesystem.IndexOptions{}, h.logger.Logger)
	require.NoError(t, h.index.BuildIndex(context.Background(), root))
	h.locator = filesystem.NewProjectLocator(root, filesystem.LocatorOptions{MaxParentLevels: 1}, h.logger.Logger)
	return h
}

type walkerOpts struct {
	dryRun    bool
	retry     bool
	noIndex   bool
	organizer ports.FolderOrganizer
}

// walker builds a fresh run, reloading the mapping file from disk
func (h *harness) walker(t *testing.T, o walkerOpts) *Walker {
	t.Helper()
	h.mappings = filesystem.NewMapFile(filepath.Join(h.root, mapFileName), h.root, h.paths)
	require.NoError(t, h.mappings.LoadOrCreate())

	var index ports.ProjectFinder = h.index
	if o.noIndex {
		index = nil
	}
	organizer := o.organizer
	if organizer == nil {
		organizer = h.registry
	}

	resolver := NewResolver(ResolverConfig{
		Root:            h.root,
		Paths:           h.paths,
		Mappings:        h.mappings,
		Index:           index,
		Locator:         h.locator,
		Logger:          h.logger.Logger,
		RetryUnresolved: o.retry,
	})
	return NewWalker(Deps{
		Model:      msbuild.NewModel(),
		Enumerator: h.index,
		Organizer:  organizer,
		Mappings:   h.mappings,
		Paths:      h.paths,
		Resolver:   resolver,
		Logger:     h.logger.Logger,
	}, Options{Root: h.root, DryRun: o.dryRun})
}

func TestRun_ConvertsPackageToProjectReference(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":        project([]string{"Core"}),
		"Libs/Core/Core.csproj": project(nil),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	app := read(t, root, "App/App.csproj")
	want := filepath.FromSlash("../Libs/Core/Core.csproj")
	assert.Contains(t, app, fmt.Sprintf(`<ProjectReference Include="%s" />`, want))
	assert.NotContains(t, app, "PackageReference")

	assert.JSONEq(t, `{"Core": "Libs/Core/Core.csproj"}`, read(t, root, mapFileName))
	assert.Equal(t, []string{filepath.Join(root, "Libs", "Core", "Core.csproj")}, h.registry.Registered())

	assert.Equal(t, 1, report.PackagesConverted)
	assert.Equal(t, 1, report.ProjectsSaved)
	assert.Equal(t, 1, report.ProjectsRegistered)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, domain.SourceIndex, report.Changes[0].Conversions[0].Source)
}

func TestRun_Idempotent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":        project([]string{"Core", "Newtonsoft.Json"}),
		"Libs/Core/Core.csproj": project([]string{"Serilog"}),
	})
	h := newHarness(t, root)

	_, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)
	app := read(t, root, "App/App.csproj")
	core := read(t, root, "Libs/Core/Core.csproj")
	mapping := read(t, root, mapFileName)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, app, read(t, root, "App/App.csproj"))
	assert.Equal(t, core, read(t, root, "Libs/Core/Core.csproj"))
	assert.Equal(t, mapping, read(t, root, mapFileName))
	assert.Equal(t, 0, report.PackagesConverted)
	assert.Equal(t, 0, report.ProjectsSaved)
	assert.Empty(t, report.Changes)
}

func TestRun_CycleTerminates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"A/A.csproj": project([]string{"B"}),
		"B/B.csproj": project([]string{"A"}),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.ProjectsProcessed)
	assert.Equal(t, 2, report.PackagesConverted)
	assert.Contains(t, read(t, root, "A/A.csproj"), filepath.FromSlash("../B/B.csproj"))
	assert.Contains(t, read(t, root, "B/B.csproj"), filepath.FromSlash("../A/A.csproj"))
}

func TestRun_DiamondProcessedOnce(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":     project([]string{"Left", "Right"}),
		"Left/Left.csproj":   project([]string{"Core"}),
		"Right/Right.csproj": project([]string{"Core"}),
		"Core/Core.csproj":   project(nil),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.ProjectsProcessed)
	assert.Positive(t, report.ProjectsSkipped)
	assert.Equal(t, 4, report.PackagesConverted)
	assert.Equal(t, 3, report.ProjectsRegistered)
}

func TestRun_NegativeCaching(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj": project([]string{"Newtonsoft.Json"}),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Newtonsoft.Json"}, report.Unresolved)
	assert.JSONEq(t, `{"Newtonsoft.Json": null}`, read(t, root, mapFileName))
	assert.Contains(t, read(t, root, "App/App.csproj"), `<PackageReference Include="Newtonsoft.Json"`)

	searches := h.locator.Stats().Searches
	require.Positive(t, searches)

	report, err = h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, searches, h.locator.Stats().Searches, "negative entry should skip the filesystem search")
	assert.Equal(t, []string{"Newtonsoft.Json"}, report.Unresolved)

	_, err = h.walker(t, walkerOpts{retry: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, h.locator.Stats().Searches, searches, "retry should search again")
}

func TestRun_FilesystemFallback(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "repo")
	writeFile := func(rel, content string) {
		path := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	writeFile("repo/App/App.csproj", project([]string{"Shared"}))
	writeFile("shared/Shared/Shared.csproj", project(nil))

	h := newHarness(t, root)
	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Changes, 1)
	assert.Equal(t, domain.SourceFileSystem, report.Changes[0].Conversions[0].Source)
	assert.JSONEq(t, `{"Shared": "../shared/Shared/Shared.csproj"}`, read(t, root, mapFileName))
}

func TestRun_StaleMappingFallsThrough(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":        project([]string{"Core"}),
		"Libs/Core/Core.csproj": project(nil),
		mapFileName:             `{"Core": "Old/Core/Core.csproj"}`,
	})
	h := newHarness(t, root)

	_, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Core": "Libs/Core/Core.csproj"}`, read(t, root, mapFileName))
}

func TestRun_StaleMappingKeptOnMiss(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj": project([]string{"Core"}),
		mapFileName:      `{"Core": "Libs/Core/Core.csproj"}`,
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Core"}, report.Unresolved)
	assert.JSONEq(t, `{"Core": "Libs/Core/Core.csproj"}`, read(t, root, mapFileName))
	assert.Contains(t, read(t, root, "App/App.csproj"), `<PackageReference Include="Core"`)
}

func TestRun_SkipsDuplicateProjectReference(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":        project([]string{"Core"}, `..\Libs\Core\Core.csproj`),
		"Libs/Core/Core.csproj": project(nil),
	})
	h := newHarness(t, root)

	_, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	app := read(t, root, "App/App.csproj")
	assert.Equal(t, 1, strings.Count(app, "<ProjectReference"))
	assert.NotContains(t, app, "PackageReference")
}

func TestRun_TransitiveRegistration(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":        project([]string{"Core"}),
		"Libs/Core/Core.csproj": project(nil, `..\Util\Util.csproj`),
		"Libs/Util/Util.csproj": project([]string{"Json"}),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "Libs", "Core", "Core.csproj"),
		filepath.Join(root, "Libs", "Util", "Util.csproj"),
	}, h.registry.Registered())
	assert.Equal(t, 2, report.ProjectsRegistered)
	assert.Equal(t, []string{"Json"}, report.Unresolved)
}

type failingOrganizer struct {
	fail string
}

func (f *failingOrganizer) Register(path string) (bool, error) {
	if domain.ProjectName(path) == f.fail {
		return false, &domain.FileNotFoundError{Path: path}
	}
	return true, nil
}

func (f *failingOrganizer) Checkpoint() int { return 0 }
func (f *failingOrganizer) Rollback(int) {}
func (f *failingOrganizer) Save() error { return nil }

func TestRun_RegistrationFailureAbortsWithoutSaving(t *testing.T) {
	original := project([]string{"Core"})
	root := writeTree(t, map[string]string{
		"App/App.csproj":        original,
		"Libs/Core/Core.csproj": project(nil),
	})
	h := newHarness(t, root)

	_, err := h.walker(t, walkerOpts{organizer: &failingOrganizer{fail: "Core"}}).Run(context.Background())
	require.Error(t, err)

	var convErr *application.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "Core", convErr.PackageID)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.Equal(t, original, read(t, root, "App/App.csproj"), "project must not be saved half-converted")
}

func TestRun_UnresolvableSubProjectReferenceIsFatal(t *testing.T) {
	original := project([]string{"Core"})
	root := writeTree(t, map[string]string{
		"App/App.csproj":        original,
		"Libs/Core/Core.csproj": project(nil, `..\Missing\Missing.csproj`),
	})
	h := newHarness(t, root)

	_, err := h.walker(t, walkerOpts{}).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	assert.ErrorIs(t, err, application.ErrConversionFailed)
	assert.Equal(t, original, read(t, root, "App/App.csproj"))
	assert.Empty(t, h.registry.Registered(), "registrations of the failing project must be discarded")
}

func TestRun_DryRun(t *testing.T) {
	original := project([]string{"Core"})
	root := writeTree(t, map[string]string{
		"App/App.csproj":        original,
		"Libs/Core/Core.csproj": project(nil),
	})
	h := newHarness(t, root)

	report, err := h.walker(t, walkerOpts{dryRun: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, original, read(t, root, "App/App.csproj"))
	assert.JSONEq(t, `{}`, read(t, root, mapFileName))
	assert.Equal(t, 0, report.ProjectsSaved)
	require.Len(t, report.Changes, 1)
	assert.Contains(t, report.Changes[0].Diff, "+    <ProjectReference")
	assert.Contains(t, report.Changes[0].Diff, `-    <PackageReference Include="Core"`)
}

func TestRun_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj": project([]string{"Core"}),
	})
	h := newHarness(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := h.walker(t, walkerOpts{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.ProjectsProcessed)
}

func TestResolveInclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj":           project(nil),
		"Libs/Core/Core.csproj":    project(nil),
		"Other/Moved/Moved.csproj": project(nil),
	})
	h := newHarness(t, root)
	h.walker(t, walkerOpts{})
	resolver := NewResolver(ResolverConfig{Root: root, Paths: h.paths, Mappings: h.mappings, Index: h.index, Locator: h.locator})
	ctx := context.Background()
	appDir := filepath.Join(root, "App")
	core := filepath.Join(root, "Libs", "Core", "Core.csproj")

	tests := []struct {
		name    string
		include string
		want    string
		source  domain.ResolutionSource
		found   bool
	}{
		{"absolute", core, core, domain.SourceAbsolute, true},
		{"project relative", `..\Libs\Core\Core.csproj`, core, domain.SourceProjectRelative, true},
		{"root relative", "Libs/Core/Core.csproj", core, domain.SourceRootRelative, true},
		{"by name through index", `..\Gone\Moved.csproj`, filepath.Join(root, "Other", "Moved", "Moved.csproj"), domain.SourceIndex, true},
		{"miss returns guess", `..\Nope\Nope.csproj`, filepath.Join(root, "Nope", "Nope.csproj"), domain.SourceNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.ResolveInclude(ctx, tt.include, appDir)
			assert.Equal(t, tt.want, res.Path)
			assert.Equal(t, tt.source, res.Source)
			assert.Equal(t, tt.found, res.Found)
		})
	}
}

func TestResolveInclude_WorkspaceProjects(t *testing.T) {
	root := writeTree(t, map[string]string{
		"App/App.csproj": project(nil),
	})
	elsewhere := writeTree(t, map[string]string{"Ext/Ext.csproj": project(nil)})
	ext := filepath.Join(elsewhere, "Ext", "Ext.csproj")

	h := newHarness(t, root)
	h.walker(t, walkerOpts{})
	resolver := NewResolver(ResolverConfig{Root: root, Paths: h.paths, Mappings: h.mappings, Index: h.index})
	resolver.SetWorkspace([]domain.ProjectRecord{domain.NewProjectRecord(ext)})

	res := resolver.ResolveInclude(context.Background(), `..\..\Ext\Ext.csproj`, filepath.Join(root, "App"))
	assert.Equal(t, ext, res.Path)
	assert.Equal(t, domain.SourceWorkspace, res.Source)
}
