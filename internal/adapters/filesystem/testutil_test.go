package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

const emptyProject = `<Project Sdk="Microsoft.NET.Sdk">
</Project>
`

// writeProjects creates an empty project file at each slash-separated path
// under root and returns the absolute paths
func writeProjects(t *testing.T, root string, rels ...string) []string {
	t.Helper()

	var paths []string
	for _, rel := range rels {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(emptyProject), 0644); err != nil {
			t.Fatalf("failed to write project: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}
