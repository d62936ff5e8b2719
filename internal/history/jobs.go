package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = "id, kind, source, output, status, succeeded, failed, message, started_at, finished_at"

// Start records a new running job. StartedAt defaults to now.
func (s *Store) Start(ctx context.Context, job Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("history start: empty job id")
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO jobs (id, kind, source, output, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Kind,
		job.Source,
		nullableString(job.Output),
		StatusRunning,
		job.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Finish applies the terminal outcome to a running job.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if outcome.Status == "" || outcome.Status == StatusRunning {
		return fmt.Errorf("history finish: invalid terminal status %q", outcome.Status)
	}
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, output = COALESCE(?, output), succeeded = ?, failed = ?, message = ?, finished_at = ?
         WHERE id = ?`,
		outcome.Status,
		nullableString(outcome.Output),
		outcome.Succeeded,
		outcome.Failed,
		nullableString(outcome.Message),
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get returns a single job.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// List returns up to limit jobs, newest first. A non-positive limit lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var (
		job        Job
		status     string
		output     sql.NullString
		message    sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&job.ID, &job.Kind, &job.Source, &output, &status, &job.Succeeded, &job.Failed, &message, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.Output = output.String
	job.Message = message.String
	job.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		job.FinishedAt = parseTime(finishedAt.String)
	}
	return &job, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
