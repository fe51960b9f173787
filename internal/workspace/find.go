// Package workspace locates and creates the .secretary directory that holds
// the pipeline configuration and prompt template.
package workspace

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotInWorkspace is returned when no workspace is found above the current directory.
var ErrNotInWorkspace = errors.New("not in a secretary workspace")

// MarkerDir is the directory that marks a workspace root.
const MarkerDir = ".secretary"

// ConfigFile is the configuration file within the marker directory.
const ConfigFile = "config.yaml"

// PromptFile is the default note template within the marker directory.
const PromptFile = "prompt.md"

// EnvRoot is the environment variable for overriding workspace root detection.
const EnvRoot = "SECRETARY_ROOT"

// IsWorkspace checks if the given path is a workspace root.
// A valid workspace has a .secretary directory containing a parseable config.yaml.
func IsWorkspace(path string) bool {
	markerDir := filepath.Join(path, MarkerDir)

	info, err := os.Stat(markerDir)
	if err != nil || !info.IsDir() {
		return false
	}

	data, err := os.ReadFile(filepath.Join(markerDir, ConfigFile))
	if err != nil {
		return false
	}

	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return false
	}

	return true
}

// FindRoot finds the root of the workspace containing the current working directory.
// If SECRETARY_ROOT is set it takes precedence and must point at a valid workspace.
func FindRoot() (string, error) {
	if envRoot := os.Getenv(EnvRoot); envRoot != "" {
		absPath, err := filepath.Abs(envRoot)
		if err != nil {
			return "", ErrNotInWorkspace
		}
		if IsWorkspace(absPath) {
			return absPath, nil
		}
		return "", ErrNotInWorkspace
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return FindRootFrom(cwd)
}

// FindRootFrom walks up from startPath looking for a .secretary/config.yaml file.
// Returns ErrNotInWorkspace if none is found.
func FindRootFrom(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	current := absPath
	for {
		if IsWorkspace(current) {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNotInWorkspace
		}
		current = parent
	}
}

// ConfigPath returns the config file path for a workspace root.
func ConfigPath(root string) string {
	return filepath.Join(root, MarkerDir, ConfigFile)
}
