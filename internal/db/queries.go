package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/logger"
	"github.com/j-veylop/blockrun-report/internal/models"
)

// InsertRecords archives the records of one day. Records already present
// are skipped, so importing the same file twice is a no-op. Identical lines
// within a day are distinguished by their occurrence order. It returns the
// number of newly stored records.
func (db *DB) InsertRecords(day string, records []models.UsageRecord) (int, error) {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(context.Background(), `
		INSERT OR IGNORE INTO usage_records (
			day, fingerprint, timestamp, model, tier, cost, baseline_cost,
			latency_ms, input_tokens, output_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	seen := make(map[string]int)
	inserted := 0
	for _, r := range records {
		base := Fingerprint(r)
		seen[base]++
		fp := base + "#" + strconv.Itoa(seen[base])

		result, err := stmt.ExecContext(context.Background(),
			day, fp, r.Timestamp, r.Model, r.Tier, r.Cost, r.BaselineCost,
			r.LatencyMs, r.InputTokens, r.OutputTokens,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert usage record: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records for %s: %w", day, err)
	}
	return inserted, nil
}

// Fingerprint hashes every field of a record.
func Fingerprint(r models.UsageRecord) string {
	parts := []string{
		r.Timestamp,
		r.Model,
		r.Tier,
		strconv.FormatFloat(r.Cost, 'g', -1, 64),
		strconv.FormatFloat(r.BaselineCost, 'g', -1, 64),
		strconv.FormatInt(r.LatencyMs, 10),
		strconv.FormatInt(r.InputTokens, 10),
		strconv.FormatInt(r.OutputTokens, 10),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// DayNames returns the archived days in ascending order.
func (db *DB) DayNames() ([]string, error) {
	rows, err := db.QueryContext(context.Background(),
		"SELECT DISTINCT day FROM usage_records ORDER BY day ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// RecordsForDay returns the records of one day in insertion order.
func (db *DB) RecordsForDay(day string) ([]models.UsageRecord, error) {
	query := `
		SELECT timestamp, model, tier, cost, baseline_cost, latency_ms,
			   input_tokens, output_tokens
		FROM usage_records
		WHERE day = ?
		ORDER BY id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for %s: %w", day, err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.UsageRecord
	for rows.Next() {
		var r models.UsageRecord
		err := rows.Scan(
			&r.Timestamp,
			&r.Model,
			&r.Tier,
			&r.Cost,
			&r.BaselineCost,
			&r.LatencyMs,
			&r.InputTokens,
			&r.OutputTokens,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountRecords returns the number of archived records.
func (db *DB) CountRecords() (int, error) {
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM usage_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Days implements loader.Source over the archive.
func (db *DB) Days() ([]loader.DaySet, error) {
	names, err := db.DayNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", db.path, loader.ErrNoUsageFiles)
	}

	sets := make([]loader.DaySet, 0, len(names))
	for _, day := range names {
		records, err := db.RecordsForDay(day)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded archived day", "day", day, "entries", len(records))
		sets = append(sets, loader.DaySet{Day: day, Records: records})
	}
	return sets, nil
}

// Describe identifies the archive in logs and reports.
func (db *DB) Describe() string {
	return "sqlite:" + db.path
}

// Import archives every day of src and logs the run.
func (db *DB) Import(src loader.Source, runID string) (*models.ImportRun, error) {
	sets, err := src.Days()
	if err != nil {
		return nil, err
	}

	run := &models.ImportRun{RunID: runID, Source: src.Describe(), Days: len(sets)}
	for _, set := range sets {
		n, err := db.InsertRecords(set.Day, set.Records)
		if err != nil {
			return nil, err
		}
		run.Inserted += n
		run.Skipped += len(set.Records) - n
	}

	if err := db.InsertImportRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

// InsertImportRun logs an import to the database.
func (db *DB) InsertImportRun(run *models.ImportRun) error {
	result, err := db.ExecContext(context.Background(), `
		INSERT INTO import_runs (run_id, source, days, inserted, skipped)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.Source, run.Days, run.Inserted, run.Skipped)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	}
	return nil
}

// GetRecentImports returns the most recent import runs.
func (db *DB) GetRecentImports(limit int) ([]models.ImportRun, error) {
	query := `
		SELECT id, run_id, source, days, inserted, skipped, timestamp
		FROM import_runs
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.ImportRun
	for rows.Next() {
		var run models.ImportRun
		err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.Source,
			&run.Days,
			&run.Inserted,
			&run.Skipped,
			&run.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
