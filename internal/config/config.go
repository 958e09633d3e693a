package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nuref/internal/domain"
	"nuref/internal/logging"
)

const (
	// DefaultMapFile is the mapping file name, kept for compatibility with
	// existing workspaces
	DefaultMapFile = "NuGetToProjectReferenceMap.json"

	// DefaultFolderName is the solution folder converted projects are added to
	DefaultFolderName = "!ReplacedProjects"

	// FileName is the per-workspace configuration file
	FileName = ".nuref.yaml"

	DefaultMaxParentLevels = 2
)

// DefaultSkipDirs are never descended into while indexing
var DefaultSkipDirs = []string{".git", "bin", "obj", "node_modules"}

// WorkspacePath returns the workspace root from the NUREF_WORKSPACE env var,
// falling back to the current directory.
func WorkspacePath() string {
	if env := os.Getenv("NUREF_WORKSPACE"); env != "" {
		return env
	}
	return "."
}

// Config holds all nuref settings.
type Config struct {
	Workspace WorkspaceConfig `koanf:"workspace"`
	Index     IndexConfig     `koanf:"index"`
	Paths     PathsConfig     `koanf:"paths"`
	Convert   ConvertConfig   `koanf:"convert"`
	Log       LogConfig       `koanf:"log"`
	Catalog   CatalogConfig   `koanf:"catalog"`
}

// WorkspaceConfig locates the tree being converted.
type WorkspaceConfig struct {
	Root       string `koanf:"root"`
	Solution   string `koanf:"solution"` // Empty means the single .sln in Root, if any
	MapFile    string `koanf:"map_file"`
	FolderName string `koanf:"folder_name"`
}

// IndexConfig controls project discovery.
type IndexConfig struct {
	Extensions      []string `koanf:"extensions"`
	SkipDirs        []string `koanf:"skip_dirs"`
	MaxParentLevels int      `koanf:"max_parent_levels"`
}

type PathsConfig struct {
	VerifyBase bool `koanf:"verify_base"`
}

type ConvertConfig struct {
	// RetryUnresolved ignores negative mapping entries and searches again
	RetryUnresolved bool `koanf:"retry_unresolved"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CatalogConfig controls the sqlite project catalog and run history.
type CatalogConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"` // Empty means the per-user data directory
}

// Logging returns the logger configuration
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// MapFilePath returns the absolute path of the mapping file
func (c *Config) MapFilePath() string {
	if filepath.IsAbs(c.Workspace.MapFile) {
		return c.Workspace.MapFile
	}
	return filepath.Join(c.Workspace.Root, c.Workspace.MapFile)
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return fmt.Errorf("workspace.root is required")
	}
	if c.Index.MaxParentLevels < 0 {
		return fmt.Errorf("index.max_parent_levels must be >= 0, got %d", c.Index.MaxParentLevels)
	}
	if len(c.Index.Extensions) == 0 {
		return fmt.Errorf("index.extensions must not be empty")
	}
	for _, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("index.extensions: %q must start with a dot", ext)
		}
	}
	if err := c.Logging().Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config, root string) {
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = root
	}
	if cfg.Workspace.MapFile == "" {
		cfg.Workspace.MapFile = DefaultMapFile
	}
	if cfg.Workspace.FolderName == "" {
		cfg.Workspace.FolderName = DefaultFolderName
	}
	if cfg.Index.Extensions == nil {
		cfg.Index.Extensions = append([]string(nil), domain.DefaultProjectExtensions...)
	}
	if cfg.Index.SkipDirs == nil {
		cfg.Index.SkipDirs = append([]string(nil), DefaultSkipDirs...)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
