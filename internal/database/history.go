package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/peermark/internal/model"
)

// RunRecord summarizes one stored annotation run without its full report.
type RunRecord struct {
	// ID is the row id of the run.
	ID int64

	// RunID is the report id assigned when the page was processed.
	RunID string

	// URL is the page URL.
	URL string

	// Host is the normalized host of URL.
	Host string

	// State is the lifecycle state the page ended in.
	State string

	// Markers is the number of markers inserted.
	Markers int

	// Publications is the number of titled publications in the banner.
	Publications int

	// Failed reports whether the run recorded an error.
	Failed bool

	// Timestamp is when the run was stored.
	Timestamp time.Time
}

// SaveRun stores report as JSON together with its summary columns.
func (s *SettingsDB) SaveRun(ctx context.Context, report *model.PageReport) (int64, error) {
	if report == nil {
		return 0, errors.New("nil report")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	unlock, err := s.lockWrites(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	query := `
	INSERT INTO runs (run_id, url, host, state, markers, publications, failed, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		report.Host,
		report.State,
		report.Markers,
		len(report.Publications),
		report.Failed(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// History returns stored runs, newest first. An empty host returns runs
// for every host; limit <= 0 returns all of them.
func (s *SettingsDB) History(ctx context.Context, host string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, run_id, url, host, state, markers, publications, failed, timestamp
	FROM runs
	WHERE (? = '' OR host = ?)
	ORDER BY timestamp DESC, id DESC
	`
	args := []any{host, host}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var rec RunRecord
		var timestamp string

		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.URL, &rec.Host, &rec.State,
			&rec.Markers, &rec.Publications, &rec.Failed, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Timestamp = parseTimestamp(timestamp)

		results = append(results, rec)
	}

	return results, rows.Err()
}

// RunReport returns the full report stored for row id, or nil when no
// such run exists.
func (s *SettingsDB) RunReport(ctx context.Context, id int64) (*model.PageReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.PageReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// RunHosts returns every host with at least one stored run.
func (s *SettingsDB) RunHosts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT host FROM runs ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// PruneRuns deletes runs stored before cutoff and returns how many were removed.
func (s *SettingsDB) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	unlock, err := s.lockWrites(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}
