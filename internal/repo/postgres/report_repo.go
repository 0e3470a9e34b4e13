package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepo struct {
	pool *pgxpool.Pool
}

type ReportRecord struct {
	ID           int64
	UserID       int64
	TrackingID   string
	Title        string
	Location     string
	Description  string
	Status       string
	AppealStatus string
	IssueDate    time.Time
	UpdatedAt    time.Time
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

const reportColumns = `id, user_id, tracking_id, issue_title, location, issue_description, status, appeal_status, issue_date, updated_at`

func (r *ReportRepo) Create(ctx context.Context, userID int64, trackingID, title, location, description string) (ReportRecord, error) {
	if r.pool == nil {
		return ReportRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(trackingID) == "" {
		return ReportRecord{}, fmt.Errorf("invalid report payload")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO reports (
	user_id,
	tracking_id,
	issue_title,
	location,
	issue_description,
	status,
	appeal_status,
	issue_date,
	updated_at
) VALUES ($1, $2, $3, $4, $5, 'pending', 'not_appealed', NOW(), NOW())
RETURNING `+reportColumns+`
`, userID, trackingID, strings.TrimSpace(title), strings.TrimSpace(location), strings.TrimSpace(description))

	return scanReportRecord(row)
}

func (r *ReportRepo) GetByID(ctx context.Context, reportID int64) (ReportRecord, error) {
	if r.pool == nil {
		return ReportRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if reportID <= 0 {
		return ReportRecord{}, fmt.Errorf("invalid report id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE id = $1
`, reportID)

	return scanReportRecord(row)
}

func (r *ReportRepo) UpdateStatus(ctx context.Context, reportID int64, status string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE reports
SET status = $2, updated_at = NOW()
WHERE id = $1
`, reportID, status)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

func (r *ReportRepo) UpdateAppealStatus(ctx context.Context, reportID int64, appealStatus string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE reports
SET appeal_status = $2, updated_at = NOW()
WHERE id = $1
`, reportID, appealStatus)
	if err != nil {
		return fmt.Errorf("update report appeal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

// LatestStatuses returns the statuses of the user's most recent reports,
// newest first. It runs on the caller's transaction so the incentive
// evaluator reads the window under its user row lock.
func (r *ReportRepo) LatestStatuses(ctx context.Context, tx pgx.Tx, userID int64, limit int) ([]string, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if userID <= 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid report window query")
	}

	rows, err := tx.Query(ctx, `
SELECT status
FROM reports
WHERE user_id = $1
ORDER BY issue_date DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest report statuses: %w", err)
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan report status: %w", err)
		}
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report statuses: %w", err)
	}

	return statuses, nil
}

func scanReportRecord(row pgx.Row) (ReportRecord, error) {
	var rec ReportRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TrackingID,
		&rec.Title,
		&rec.Location,
		&rec.Description,
		&rec.Status,
		&rec.AppealStatus,
		&rec.IssueDate,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReportRecord{}, ErrReportNotFound
		}
		return ReportRecord{}, fmt.Errorf("scan report row: %w", err)
	}
	return rec, nil
}
