package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrustLogRepo appends to the immutable audit ledger of applied score
// changes. Rows are only ever inserted; there is no update or delete path.
type TrustLogRepo struct {
	pool *pgxpool.Pool
}

type TrustLogEntry struct {
	UserID       int64
	Delta        int
	Reason       string
	ReportID     *int64
	AppealStatus string
	AdminID      *int64
}

type TrustLogRecord struct {
	ID           int64
	UserID       int64
	Delta        int
	Reason       string
	ReportID     *int64
	AppealStatus string
	AdminID      *int64
	CreatedAt    time.Time
}

func NewTrustLogRepo(pool *pgxpool.Pool) *TrustLogRepo {
	return &TrustLogRepo{pool: pool}
}

func (r *TrustLogRepo) Append(ctx context.Context, tx pgx.Tx, entry TrustLogEntry) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if entry.UserID <= 0 || entry.Reason == "" {
		return fmt.Errorf("invalid trust log payload")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO trust_score_log (
	user_id,
	delta,
	reason,
	report_id,
	appeal_status,
	admin_id,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW())
`, entry.UserID, entry.Delta, entry.Reason, entry.ReportID, entry.AppealStatus, entry.AdminID); err != nil {
		return fmt.Errorf("append trust log entry: %w", err)
	}

	return nil
}

func (r *TrustLogRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]TrustLogRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, delta, reason, report_id, appeal_status, admin_id, created_at
FROM trust_score_log
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trust log entries: %w", err)
	}
	defer rows.Close()

	var records []TrustLogRecord
	for rows.Next() {
		var rec TrustLogRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Delta, &rec.Reason, &rec.ReportID, &rec.AppealStatus, &rec.AdminID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trust log row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust log rows: %w", err)
	}

	return records, nil
}

// LastPenaltyAt returns when the user last received a negative applied delta,
// or nil when the ledger holds no penalty for them. The decay policy seeds
// its gap from this timestamp.
func (r *TrustLogRepo) LastPenaltyAt(ctx context.Context, userID int64) (*time.Time, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	var at time.Time
	err := r.pool.QueryRow(ctx, `
SELECT created_at
FROM trust_score_log
WHERE user_id = $1 AND delta < 0
ORDER BY created_at DESC, id DESC
LIMIT 1
`, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find last penalty: %w", err)
	}

	return &at, nil
}
