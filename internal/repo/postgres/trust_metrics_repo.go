package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TrustMetricsRepo maintains daily rollups of the trust ledger for the admin
// dashboard. The rollup reads trust_score_log only; the ledger itself is
// never touched.
type TrustMetricsRepo struct {
	pool *pgxpool.Pool
}

type TrustDailyMetricRow struct {
	DayKey    time.Time
	Changes   int
	Penalties int
	Rewards   int
	NetDelta  int
}

func NewTrustMetricsRepo(pool *pgxpool.Pool) *TrustMetricsRepo {
	return &TrustMetricsRepo{pool: pool}
}

// RollupSince recomputes the daily aggregates for every day touched since
// the cutoff. Re-running over the same window is idempotent.
func (r *TrustMetricsRepo) RollupSince(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO trust_daily_metrics (day_key, changes, penalties, rewards, net_delta, updated_at)
SELECT
	created_at::date,
	COUNT(*)::int,
	COUNT(*) FILTER (WHERE delta < 0)::int,
	COUNT(*) FILTER (WHERE delta > 0)::int,
	COALESCE(SUM(delta), 0)::int,
	NOW()
FROM trust_score_log
WHERE created_at >= $1
GROUP BY created_at::date
ON CONFLICT (day_key) DO UPDATE SET
	changes = EXCLUDED.changes,
	penalties = EXCLUDED.penalties,
	rewards = EXCLUDED.rewards,
	net_delta = EXCLUDED.net_delta,
	updated_at = NOW()
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("rollup trust daily metrics: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *TrustMetricsRepo) ListRange(ctx context.Context, from, to time.Time) ([]TrustDailyMetricRow, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid metrics range")
	}

	rows, err := r.pool.Query(ctx, `
SELECT day_key, changes, penalties, rewards, net_delta
FROM trust_daily_metrics
WHERE day_key >= $1::date AND day_key < $2::date
ORDER BY day_key
`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list trust daily metrics: %w", err)
	}
	defer rows.Close()

	var result []TrustDailyMetricRow
	for rows.Next() {
		var row TrustDailyMetricRow
		if err := rows.Scan(&row.DayKey, &row.Changes, &row.Penalties, &row.Rewards, &row.NetDelta); err != nil {
			return nil, fmt.Errorf("scan trust daily metric: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust daily metrics: %w", err)
	}

	return result, nil
}
