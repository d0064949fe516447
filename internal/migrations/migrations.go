package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add lookup indices for analyses",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_analysis_metrics_analysis_id ON analysis_metrics(analysis_id);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_analyses_created_at;
			DROP INDEX IF EXISTS idx_analysis_metrics_analysis_id;
		`,
	},
	{
		Version: 2,
		Name:    "Add composite index for phase/api/scenario filtering",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_analyses_run_key ON analyses(scenario, api, phase);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_analyses_run_key;
		`,
	},
}

// InitSchema creates all tables required across all modules
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- One persisted aggregator run
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL DEFAULT '',
		source_file TEXT NOT NULL,
		phase TEXT NOT NULL DEFAULT '',
		api TEXT NOT NULL DEFAULT '',
		scenario TEXT NOT NULL DEFAULT '',
		lines_read INTEGER NOT NULL DEFAULT 0,
		lines_skipped INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Per-metric statistics of an analysis
	CREATE TABLE IF NOT EXISTS analysis_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id INTEGER NOT NULL,
		metric TEXT NOT NULL,
		sample_count INTEGER NOT NULL,
		mean_ms REAL NOT NULL,
		stddev_ms REAL NOT NULL,
		min_ms REAL NOT NULL DEFAULT 0,
		max_ms REAL NOT NULL DEFAULT 0,
		p95_ms REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Create migrations tracking table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	// Apply pending migrations
	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		_, err := db.Exec(migration.Up)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		_, err = db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
