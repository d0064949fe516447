package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// HomeEnv overrides the configuration directory
	HomeEnv = "LOADBENCH_HOME"
)

var (
	// ConfigDir is the global configuration directory (~/.loadbench)
	ConfigDir string

	// DatabasePath is the SQLite database file for saved analyses
	DatabasePath string

	// CatalogFile is the optional user catalog replacing the embedded one
	CatalogFile string
)

// Initialize sets up the configuration directory and paths
// It creates ~/.loadbench/ (or $LOADBENCH_HOME) if it doesn't exist
func Initialize() error {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".loadbench")
	}

	// Set global paths
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "loadbench.db")
	CatalogFile = filepath.Join(ConfigDir, "catalog.yaml")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	return nil
}
