package repository

import (
	"database/sql"
	"fmt"
	"time"

	"pricer/database"
	"pricer/models"
)

type RunRepository struct{}

func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

// StartRun inserts a new running scrape run and returns it
func (r *RunRepository) StartRun(trigger string, total int) (*models.ScrapeRun, error) {
	query := `
		INSERT INTO scrape_runs (trigger, status, started_at, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, trigger, status, started_at, finished_at, total, succeeded, failed, skipped
	`

	var run models.ScrapeRun
	err := database.DB.QueryRow(query, trigger, models.RunStatusRunning, time.Now(), total).Scan(
		&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.Total, &run.Succeeded, &run.Failed, &run.Skipped,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to start run: %v", err)
	}

	return &run, nil
}

// FinishRun records the final counters and status for a run
func (r *RunRepository) FinishRun(runID int, status string, succeeded, failed, skipped int) error {
	query := `
		UPDATE scrape_runs
		SET status = $1, finished_at = $2, succeeded = $3, failed = $4, skipped = $5
		WHERE id = $6
	`

	_, err := database.DB.Exec(query, status, time.Now(), succeeded, failed, skipped, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %v", err)
	}

	return nil
}

// GetRunByID returns one scrape run
func (r *RunRepository) GetRunByID(id int) (*models.ScrapeRun, error) {
	query := `
		SELECT id, trigger, status, started_at, finished_at, total, succeeded, failed, skipped
		FROM scrape_runs
		WHERE id = $1
	`

	var run models.ScrapeRun
	err := database.DB.QueryRow(query, id).Scan(
		&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.Total, &run.Succeeded, &run.Failed, &run.Skipped,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("failed to get run: %v", err)
	}

	return &run, nil
}

// GetRecentRuns returns the latest runs, newest first
func (r *RunRepository) GetRecentRuns(limit int) ([]models.ScrapeRun, error) {
	query := `
		SELECT id, trigger, status, started_at, finished_at, total, succeeded, failed, skipped
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := database.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %v", err)
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		err := rows.Scan(
			&run.ID, &run.Trigger, &run.Status, &run.StartedAt, &run.FinishedAt,
			&run.Total, &run.Succeeded, &run.Failed, &run.Skipped,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %v", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
