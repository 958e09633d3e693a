package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nuref/internal/domain"
)

// PathResolver implements ports.PathResolver with lexical path arithmetic
type PathResolver struct {
	verifyBase bool
}

// NewPathResolver creates a resolver. With verifyBase set, every call
// fails with a PathNotFoundError when the base directory does not exist.
func NewPathResolver(verifyBase bool) *PathResolver {
	return &PathResolver{verifyBase: verifyBase}
}

// ToAbsolute resolves relative against base. An empty relative yields the
// normalized base; a rooted relative is returned normalized.
func (r *PathResolver) ToAbsolute(base, relative string) (string, error) {
	if relative == "" {
		return Normalize(base), nil
	}
	if err := r.checkBase(base); err != nil {
		return "", err
	}

	rel := Normalize(relative)
	if filepath.IsAbs(rel) {
		return rel, nil
	}
	if strings.TrimSpace(base) == "" {
		return "", domain.InvalidArgument("base", "is required for a relative path")
	}
	return filepath.Join(Normalize(base), rel), nil
}

// ToRelative returns the shortest path from base to target, ascending with
// ".." where needed. Equal paths yield "".
func (r *PathResolver) ToRelative(base, target string) (string, error) {
	if target == "" {
		return "", nil
	}
	if strings.TrimSpace(base) == "" {
		return "", domain.InvalidArgument("base", "is required")
	}
	if err := r.checkBase(base); err != nil {
		return "", err
	}

	b, t := Normalize(base), Normalize(target)
	rel, err := filepath.Rel(b, t)
	if err != nil {
		// No relative form exists (different volumes, or mixed absolute and relative)
		return t, nil
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// Bind returns a resolver fixed to one base directory
func (r *PathResolver) Bind(base string) BoundResolver {
	return BoundResolver{resolver: r, base: base}
}

func (r *PathResolver) checkBase(base string) error {
	if !r.verifyBase {
		return nil
	}
	info, err := os.Stat(Normalize(base))
	if err != nil || !info.IsDir() {
		return &domain.PathNotFoundError{Path: base}
	}
	return nil
}

// BoundResolver applies a PathResolver against a fixed base
type BoundResolver struct {
	resolver *PathResolver
	base     string
}

func (b BoundResolver) Base() string { return b.base }

func (b BoundResolver) ToAbsolute(relative string) (string, error) {
	return b.resolver.ToAbsolute(b.base, relative)
}

func (b BoundResolver) ToRelative(target string) (string, error) {
	return b.resolver.ToRelative(b.base, target)
}

// Normalize converts both separator styles to the platform separator and
// cleans the result. The empty path stays empty.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(path, "\\", "/")))
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path names an existing directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrDirectoryNotFound, path)
	}
	return nil
}
