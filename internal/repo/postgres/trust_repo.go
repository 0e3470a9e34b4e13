package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// TrustRepo owns the per-user trust row: the bounded score, the deactivation
// expiry and the one-time incentive reward fields. No other repo writes these
// columns.
type TrustRepo struct {
	pool *pgxpool.Pool
}

type TrustRecord struct {
	UserID           int64
	Score            int
	DeactivatedUntil *time.Time
	RewardGranted    bool
	RewardAmount     int
}

func NewTrustRepo(pool *pgxpool.Pool) *TrustRepo {
	return &TrustRepo{pool: pool}
}

const trustColumns = `user_id, trust_score, deactivated_until, incentive_reward_granted, incentive_reward_amount`

func (r *TrustRepo) Get(ctx context.Context, userID int64) (TrustRecord, error) {
	if r.pool == nil {
		return TrustRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return TrustRecord{}, fmt.Errorf("invalid user id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+trustColumns+`
FROM user_trust
WHERE user_id = $1
`, userID)

	return scanTrustRecord(row)
}

func (r *TrustRepo) GetTx(ctx context.Context, tx pgx.Tx, userID int64) (TrustRecord, error) {
	if tx == nil {
		return TrustRecord{}, fmt.Errorf("transaction is required")
	}
	if userID <= 0 {
		return TrustRecord{}, fmt.Errorf("invalid user id")
	}

	row := tx.QueryRow(ctx, `
SELECT `+trustColumns+`
FROM user_trust
WHERE user_id = $1
`, userID)

	return scanTrustRecord(row)
}

// GetForUpdate takes an exclusive row lock for the rest of the transaction.
// The incentive evaluator depends on this to keep its check-then-grant
// sequence atomic across concurrent callers.
func (r *TrustRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (TrustRecord, error) {
	if tx == nil {
		return TrustRecord{}, fmt.Errorf("transaction is required")
	}
	if userID <= 0 {
		return TrustRecord{}, fmt.Errorf("invalid user id")
	}

	row := tx.QueryRow(ctx, `
SELECT `+trustColumns+`
FROM user_trust
WHERE user_id = $1
FOR UPDATE
`, userID)

	return scanTrustRecord(row)
}

func (r *TrustRepo) UpdateScore(ctx context.Context, tx pgx.Tx, userID int64, score int) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	tag, err := tx.Exec(ctx, `
UPDATE user_trust
SET trust_score = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, score)
	if err != nil {
		return fmt.Errorf("update trust score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *TrustRepo) SetDeactivatedUntil(ctx context.Context, userID int64, until time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE user_trust
SET deactivated_until = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, until.UTC())
	if err != nil {
		return fmt.Errorf("set deactivated_until: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GrantReward flips the one-time grant flag and adds one reward unit to the
// accumulator. Callers must hold the row lock from GetForUpdate.
func (r *TrustRepo) GrantReward(ctx context.Context, tx pgx.Tx, userID int64, unit int) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if unit < 0 {
		return fmt.Errorf("invalid reward unit")
	}

	tag, err := tx.Exec(ctx, `
UPDATE user_trust
SET incentive_reward_granted = TRUE,
	incentive_reward_amount = incentive_reward_amount + $2,
	updated_at = NOW()
WHERE user_id = $1
`, userID, unit)
	if err != nil {
		return fmt.Errorf("grant incentive reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanTrustRecord(row pgx.Row) (TrustRecord, error) {
	var rec TrustRecord
	err := row.Scan(&rec.UserID, &rec.Score, &rec.DeactivatedUntil, &rec.RewardGranted, &rec.RewardAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TrustRecord{}, ErrUserNotFound
		}
		return TrustRecord{}, fmt.Errorf("scan user trust row: %w", err)
	}
	return rec, nil
}
