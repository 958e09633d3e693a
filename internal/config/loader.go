package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "NUREF_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load reads configuration for the workspace at root.
//
// Precedence (highest to lowest):
//  1. Environment variables (NUREF_INDEX_MAX_PARENT_LEVELS, NUREF_LOG_LEVEL, ...)
//  2. YAML file: configPath, or <root>/.nuref.yaml when configPath is empty
//  3. Defaults
//
// An explicit configPath must exist; the per-workspace file is optional.
func Load(root, configPath string) (*Config, error) {
	if root == "" {
		root = WorkspacePath()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(absRoot, FileName)
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg, absRoot)
	if !k.Exists("index.max_parent_levels") {
		cfg.Index.MaxParentLevels = DefaultMaxParentLevels
	}
	if !k.Exists("catalog.enabled") {
		cfg.Catalog.Enabled = true
	}
	if !filepath.IsAbs(cfg.Workspace.Root) {
		cfg.Workspace.Root = filepath.Join(absRoot, cfg.Workspace.Root)
	}
	cfg.Workspace.Root = filepath.Clean(cfg.Workspace.Root)
	if cfg.Workspace.Solution != "" && !filepath.IsAbs(cfg.Workspace.Solution) {
		cfg.Workspace.Solution = filepath.Join(cfg.Workspace.Root, cfg.Workspace.Solution)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps NUREF_SECTION_FIELD_NAME to section.field_name.
// NUREF_WORKSPACE on its own names the workspace root.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if lower == "workspace" {
		return "workspace.root"
	}

	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config file %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
