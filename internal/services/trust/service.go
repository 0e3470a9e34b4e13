package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/domain/rules"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
)

// Policy constants. The 110 ceiling is load-bearing: the incentive threshold
// requires the score to sit exactly at the ceiling, so it must not be
// "normalized" to 100.
const (
	ScoreMin      = 0
	ScoreMax      = 110
	BaselineScore = 100

	RewardUnit          = 50
	IncentiveWindowSize = 6
)

const activationTimeLayout = "15:04, 02 January 2006"

var ErrValidation = errors.New("validation error")

// DeactivatedError is returned by CheckDeactivated so the transport layer can
// shape its own response; the ledger itself never renders HTTP payloads.
type DeactivatedError struct {
	Until          time.Time
	ActivationTime string
}

func (e *DeactivatedError) Error() string {
	return fmt.Sprintf("account is temporarily deactivated until %s", e.ActivationTime)
}

type TrustStore interface {
	Get(ctx context.Context, userID int64) (pgrepo.TrustRecord, error)
	GetTx(ctx context.Context, tx pgx.Tx, userID int64) (pgrepo.TrustRecord, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (pgrepo.TrustRecord, error)
	UpdateScore(ctx context.Context, tx pgx.Tx, userID int64, score int) error
	SetDeactivatedUntil(ctx context.Context, userID int64, until time.Time) error
	GrantReward(ctx context.Context, tx pgx.Tx, userID int64, unit int) error
}

type LogStore interface {
	Append(ctx context.Context, tx pgx.Tx, entry pgrepo.TrustLogEntry) error
}

type ReportView interface {
	LatestStatuses(ctx context.Context, tx pgx.Tx, userID int64, limit int) ([]string, error)
}

type ChangeInput struct {
	Delta        int
	Reason       string
	ReportID     *int64
	AppealStatus string
	AdminID      *int64
}

type Summary struct {
	Score            int
	Deactivated      bool
	DeactivatedUntil *time.Time
	RewardGranted    bool
	RewardAmount     int
}

type IncentiveStatus struct {
	Granted             bool
	Amount              int
	RewardUnit          int
	WindowSize          int
	WindowFound         int
	WindowResolvedCount int
	AllWindowResolved   bool
	ScoreThresholdMet   bool
	EligibleNow         bool
	JustGranted         bool
}

type Dependencies struct {
	Pool       *pgxpool.Pool
	TrustStore TrustStore
	LogStore   LogStore
	Reports    ReportView
}

// Service is the single write path for trust scores, deactivation expiries
// and the one-time resolution incentive. Nothing else mutates those fields.
type Service struct {
	trustStore TrustStore
	logStore   LogStore
	reports    ReportView
	now        func() time.Time
	runTx      func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

func NewService(deps Dependencies) *Service {
	pool := deps.Pool
	return &Service{
		trustStore: deps.TrustStore,
		logStore:   deps.LogStore,
		reports:    deps.Reports,
		now:        time.Now,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
	}
}

// ApplyScoreChange clamps the delta into the score bounds, persists the new
// score and appends the audit entry in one transaction. Saturation at a bound
// is not an error; the result may simply equal the current score. Negative
// deltas are suppressed entirely while the user is serving a deactivation, so
// penalties never stack on top of an active ban.
func (s *Service) ApplyScoreChange(ctx context.Context, userID int64, in ChangeInput) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if in.Reason == "" {
		return 0, fmt.Errorf("change reason is required: %w", ErrValidation)
	}
	if s.trustStore == nil || s.logStore == nil {
		return 0, fmt.Errorf("trust service dependencies are not configured")
	}

	appealStatus := in.AppealStatus
	if appealStatus == "" {
		appealStatus = "not_appealed"
	}

	result := 0
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		rec, err := s.trustStore.GetTx(txCtx, tx, userID)
		if err != nil {
			return err
		}

		if in.Delta < 0 && deactivatedAt(rec, s.now()) {
			result = rec.Score
			return nil
		}

		next := clampScore(rec.Score + in.Delta)
		applied := next - rec.Score
		if applied == 0 {
			// at a bound already, or a zero-effect delta: no audit noise
			result = rec.Score
			return nil
		}

		if err := s.trustStore.UpdateScore(txCtx, tx, userID, next); err != nil {
			return err
		}
		if err := s.logStore.Append(txCtx, tx, pgrepo.TrustLogEntry{
			UserID:       userID,
			Delta:        applied,
			Reason:       in.Reason,
			ReportID:     in.ReportID,
			AppealStatus: appealStatus,
			AdminID:      in.AdminID,
		}); err != nil {
			return err
		}

		result = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	return result, nil
}

// IsDeactivated reports whether the user is currently serving a deactivation.
// Expiry is lazy: a timestamp in the past means active again, no reset write.
func (s *Service) IsDeactivated(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.trustStore == nil {
		return false, fmt.Errorf("trust store is nil")
	}

	rec, err := s.trustStore.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	return deactivatedAt(rec, s.now()), nil
}

func (s *Service) CheckDeactivated(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.trustStore == nil {
		return fmt.Errorf("trust store is nil")
	}

	rec, err := s.trustStore.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !deactivatedAt(rec, s.now()) {
		return nil
	}

	until := rec.DeactivatedUntil.UTC()
	return &DeactivatedError{
		Until:          until,
		ActivationTime: FormatActivationTime(until),
	}
}

// Deactivate sets the expiry to now+days, unconditionally replacing any prior
// value. Bans supersede, they do not stack.
func (s *Service) Deactivate(ctx context.Context, userID int64, days int) (time.Time, error) {
	if userID <= 0 || days < 0 {
		return time.Time{}, fmt.Errorf("invalid deactivation payload: %w", ErrValidation)
	}
	if s.trustStore == nil {
		return time.Time{}, fmt.Errorf("trust store is nil")
	}

	until := s.now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.trustStore.SetDeactivatedUntil(ctx, userID, until); err != nil {
		return time.Time{}, err
	}

	return until, nil
}

// DeactivateForViolation runs the decay policy over the gap since the last
// violation and applies the resulting ban length.
func (s *Service) DeactivateForViolation(ctx context.Context, userID int64, daysSinceLastViolation int) (time.Time, int, error) {
	days := rules.DeactivationDays(daysSinceLastViolation)
	until, err := s.Deactivate(ctx, userID, days)
	if err != nil {
		return time.Time{}, 0, err
	}
	return until, days, nil
}

func (s *Service) Summary(ctx context.Context, userID int64) (Summary, error) {
	if userID <= 0 {
		return Summary{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.trustStore == nil {
		return Summary{}, fmt.Errorf("trust store is nil")
	}

	rec, err := s.trustStore.Get(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Score:            rec.Score,
		Deactivated:      deactivatedAt(rec, s.now()),
		DeactivatedUntil: rec.DeactivatedUntil,
		RewardGranted:    rec.RewardGranted,
		RewardAmount:     rec.RewardAmount,
	}, nil
}

// EvaluateResolutionIncentive grants the one-time reward when the user sits
// at the score ceiling with their six most recent reports all resolved. The
// whole check-then-grant sequence runs under an exclusive row lock so two
// concurrent evaluations cannot both pay out; the loser just observes the
// grant flag already set.
func (s *Service) EvaluateResolutionIncentive(ctx context.Context, userID int64) (IncentiveStatus, error) {
	if userID <= 0 {
		return IncentiveStatus{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	if s.trustStore == nil || s.reports == nil {
		return IncentiveStatus{}, fmt.Errorf("trust service dependencies are not configured")
	}

	var status IncentiveStatus
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		rec, err := s.trustStore.GetForUpdate(txCtx, tx, userID)
		if err != nil {
			return err
		}

		statuses, err := s.reports.LatestStatuses(txCtx, tx, userID, IncentiveWindowSize)
		if err != nil {
			return err
		}

		resolvedCount := 0
		for _, st := range statuses {
			if st == "resolved" {
				resolvedCount++
			}
		}

		hasFullWindow := len(statuses) == IncentiveWindowSize
		allResolved := hasFullWindow && resolvedCount == len(statuses)
		scoreMet := rec.Score == ScoreMax
		eligible := scoreMet && allResolved && !rec.RewardGranted

		status = IncentiveStatus{
			Granted:             rec.RewardGranted,
			Amount:              rec.RewardAmount,
			RewardUnit:          RewardUnit,
			WindowSize:          IncentiveWindowSize,
			WindowFound:         len(statuses),
			WindowResolvedCount: resolvedCount,
			AllWindowResolved:   allResolved,
			ScoreThresholdMet:   scoreMet,
			EligibleNow:         eligible,
		}

		if !eligible {
			return nil
		}

		if err := s.trustStore.GrantReward(txCtx, tx, userID, RewardUnit); err != nil {
			return err
		}

		status.Granted = true
		status.Amount = rec.RewardAmount + RewardUnit
		status.JustGranted = true
		return nil
	})
	if err != nil {
		return IncentiveStatus{}, err
	}

	return status, nil
}

func FormatActivationTime(t time.Time) string {
	return t.Format(activationTimeLayout)
}

func clampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

func deactivatedAt(rec pgrepo.TrustRecord, now time.Time) bool {
	return rec.DeactivatedUntil != nil && rec.DeactivatedUntil.After(now)
}
