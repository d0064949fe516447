package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize_HomeOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bench")
	t.Setenv(HomeEnv, dir)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if ConfigDir != dir {
		t.Errorf("Expected config dir %s, got %s", dir, ConfigDir)
	}
	if DatabasePath != filepath.Join(dir, "loadbench.db") {
		t.Errorf("Unexpected database path: %s", DatabasePath)
	}
	if CatalogFile != filepath.Join(dir, "catalog.yaml") {
		t.Errorf("Unexpected catalog path: %s", CatalogFile)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected directory %s to be created", dir)
	}
}
