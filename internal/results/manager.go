// Package results persists aggregator runs in SQLite so runs taken before
// and after an optimization can be compared.
package results

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/loadbench/internal/analyzer"
	"github.com/studiowebux/loadbench/internal/migrations"
)

// ErrNotFound is returned when an analysis id does not exist
var ErrNotFound = errors.New("analysis not found")

// Manager handles analysis persistence
type Manager struct {
	db *sql.DB
}

// NewManager opens the database at dbPath and brings its schema up to date
func NewManager(dbPath string) (*Manager, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases and PRAGMAs consistent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run database migrations (includes schema initialization)
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Manager{db: db}, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

// SaveAnalysis stores an analysis and its metric rows in a single transaction
func (m *Manager) SaveAnalysis(a *Analysis) error {
	if a.SourceFile == "" {
		return fmt.Errorf("analysis source file is required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO analyses
		(label, source_file, phase, api, scenario, lines_read, lines_skipped, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Label, a.SourceFile, a.Phase, a.API, a.Scenario, a.LinesRead, a.LinesSkipped, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO analysis_metrics
		(analysis_id, metric, sample_count, mean_ms, stddev_ms, min_ms, max_ms, p95_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range a.Metrics {
		res, err := stmt.Exec(id, row.Metric, row.SampleCount, row.MeanMs, row.StdDevMs, row.MinMs, row.MaxMs, row.P95Ms)
		if err != nil {
			return fmt.Errorf("failed to insert metric %s: %w", row.Metric, err)
		}
		if rowID, err := res.LastInsertId(); err == nil {
			row.ID = rowID
		}
		row.AnalysisID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}
	a.ID = id
	return nil
}

// GetAnalysis retrieves an analysis with its metric rows
func (m *Manager) GetAnalysis(id int64) (*Analysis, error) {
	a := &Analysis{}
	err := m.db.QueryRow(`
		SELECT id, label, source_file, phase, api, scenario, lines_read, lines_skipped, created_at
		FROM analyses WHERE id = ?
	`, id).Scan(&a.ID, &a.Label, &a.SourceFile, &a.Phase, &a.API, &a.Scenario,
		&a.LinesRead, &a.LinesSkipped, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	rows, err := m.db.Query(`
		SELECT id, analysis_id, metric, sample_count, mean_ms, stddev_ms, min_ms, max_ms, p95_ms
		FROM analysis_metrics
		WHERE analysis_id = ?
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row := &MetricRow{}
		if err := rows.Scan(&row.ID, &row.AnalysisID, &row.Metric, &row.SampleCount,
			&row.MeanMs, &row.StdDevMs, &row.MinMs, &row.MaxMs, &row.P95Ms); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		a.Metrics = append(a.Metrics, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	a.MetricCount = len(a.Metrics)

	return a, nil
}

// ListAnalyses returns the most recent analyses first, without metric rows.
// A limit of zero or less returns all of them.
func (m *Manager) ListAnalyses(limit int) ([]*Analysis, error) {
	query := `
		SELECT a.id, a.label, a.source_file, a.phase, a.api, a.scenario,
		       a.lines_read, a.lines_skipped, a.created_at,
		       (SELECT COUNT(*) FROM analysis_metrics am WHERE am.analysis_id = a.id)
		FROM analyses a
		ORDER BY a.created_at DESC, a.id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a := &Analysis{}
		if err := rows.Scan(&a.ID, &a.Label, &a.SourceFile, &a.Phase, &a.API, &a.Scenario,
			&a.LinesRead, &a.LinesSkipped, &a.CreatedAt, &a.MetricCount); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// DeleteAnalysis deletes an analysis and its metric rows
func (m *Manager) DeleteAnalysis(id int64) error {
	result, err := m.db.Exec("DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Compare loads two analyses and computes per-metric deltas, in report
// order, for every metric present in either of them
func (m *Manager) Compare(beforeID, afterID int64) (*Comparison, error) {
	before, err := m.GetAnalysis(beforeID)
	if err != nil {
		return nil, err
	}
	after, err := m.GetAnalysis(afterID)
	if err != nil {
		return nil, err
	}

	return Compare(before, after), nil
}

// Compare computes per-metric deltas between two loaded analyses
func Compare(before, after *Analysis) *Comparison {
	c := &Comparison{Before: before, After: after}

	for _, name := range analyzer.Metrics {
		b := before.Metric(name)
		a := after.Metric(name)
		if b == nil && a == nil {
			continue
		}

		d := MetricDelta{
			Metric:        name,
			Before:        b,
			After:         a,
			MeanDelta:     math.NaN(),
			MeanPercent:   math.NaN(),
			StdDevDelta:   math.NaN(),
			StdDevPercent: math.NaN(),
			P95Delta:      math.NaN(),
			P95Percent:    math.NaN(),
		}
		if b != nil && a != nil {
			d.MeanDelta, d.MeanPercent = delta(b.MeanMs, a.MeanMs)
			d.StdDevDelta, d.StdDevPercent = delta(b.StdDevMs, a.StdDevMs)
			d.P95Delta, d.P95Percent = delta(b.P95Ms, a.P95Ms)
		}
		c.Deltas = append(c.Deltas, d)
	}

	return c
}
