package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/domain/enums"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/pkg/validate"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
)

const (
	maxTitleLen       = 200
	maxLocationLen    = 255
	maxDescriptionLen = 4000

	trackingIDLen = 8
)

var (
	ErrValidation       = errors.New("validation error")
	ErrForbidden        = errors.New("report belongs to another user")
	ErrAppealNotAllowed = errors.New("report is not appealable")
	ErrInvalidStatus    = errors.New("unsupported report status")
)

// RateLimitedError reports how long the caller must wait before the next
// submission is accepted.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("report rate limit exceeded, retry after %ds", e.RetryAfterSec)
}

type ReportStore interface {
	Create(ctx context.Context, userID int64, trackingID, title, location, description string) (pgrepo.ReportRecord, error)
	GetByID(ctx context.Context, reportID int64) (pgrepo.ReportRecord, error)
	UpdateStatus(ctx context.Context, reportID int64, status string) error
	UpdateAppealStatus(ctx context.Context, reportID int64, appealStatus string) error
}

type TrustLedger interface {
	ApplyScoreChange(ctx context.Context, userID int64, in trustsvc.ChangeInput) (int, error)
	CheckDeactivated(ctx context.Context, userID int64) error
	Deactivate(ctx context.Context, userID int64, days int) (time.Time, error)
	DeactivateForViolation(ctx context.Context, userID int64, daysSinceLastViolation int) (time.Time, int, error)
	Summary(ctx context.Context, userID int64) (trustsvc.Summary, error)
}

type PenaltyView interface {
	LastPenaltyAt(ctx context.Context, userID int64) (*time.Time, error)
}

type RateLimiter interface {
	AllowReport(ctx context.Context, userID int64) (int64, bool, error)
}

type Config struct {
	ResolvedDelta       int
	RejectedDelta       int
	AppealAcceptedDelta int
	AppealRejectedDelta int
}

type CreateInput struct {
	Title       string
	Location    string
	Description string
}

type DecisionResult struct {
	Report           pgrepo.ReportRecord
	Score            int
	DeactivatedUntil *time.Time
	DeactivatedDays  int
}

type Service struct {
	reportStore   ReportStore
	ledger        TrustLedger
	penalties     PenaltyView
	rateLimiter   RateLimiter
	cfg           Config
	now           func() time.Time
	newTrackingID func() string
}

type Dependencies struct {
	ReportStore ReportStore
	Ledger      TrustLedger
	Penalties   PenaltyView
	RateLimiter RateLimiter
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.ResolvedDelta == 0 {
		cfg.ResolvedDelta = 5
	}
	if cfg.RejectedDelta == 0 {
		cfg.RejectedDelta = -10
	}
	if cfg.AppealAcceptedDelta == 0 {
		cfg.AppealAcceptedDelta = 10
	}
	if cfg.AppealRejectedDelta == 0 {
		cfg.AppealRejectedDelta = -5
	}

	return &Service{
		reportStore:   deps.ReportStore,
		ledger:        deps.Ledger,
		penalties:     deps.Penalties,
		rateLimiter:   deps.RateLimiter,
		cfg:           cfg,
		now:           time.Now,
		newTrackingID: defaultTrackingID,
	}
}

// Create files a new report for the user. Deactivated users are turned away
// before the rate limiter runs, so a ban never burns submission quota.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (pgrepo.ReportRecord, error) {
	if userID <= 0 {
		return pgrepo.ReportRecord{}, ErrValidation
	}
	if !validate.Required(in.Title) || !validate.Required(in.Location) || !validate.Required(in.Description) {
		return pgrepo.ReportRecord{}, ErrValidation
	}
	if !validate.MaxLen(in.Title, maxTitleLen) || !validate.MaxLen(in.Location, maxLocationLen) || !validate.MaxLen(in.Description, maxDescriptionLen) {
		return pgrepo.ReportRecord{}, ErrValidation
	}
	if s.reportStore == nil || s.ledger == nil {
		return pgrepo.ReportRecord{}, fmt.Errorf("report dependencies are not configured")
	}

	if err := s.ledger.CheckDeactivated(ctx, userID); err != nil {
		return pgrepo.ReportRecord{}, err
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowReport(ctx, userID)
		if err != nil {
			return pgrepo.ReportRecord{}, fmt.Errorf("apply report rate limiter: %w", err)
		}
		if !allowed {
			return pgrepo.ReportRecord{}, RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	rec, err := s.reportStore.Create(ctx, userID, s.newTrackingID(), in.Title, in.Location, in.Description)
	if err != nil {
		return pgrepo.ReportRecord{}, fmt.Errorf("create report: %w", err)
	}

	return rec, nil
}

func (s *Service) Get(ctx context.Context, reportID int64) (pgrepo.ReportRecord, error) {
	if reportID <= 0 {
		return pgrepo.ReportRecord{}, ErrValidation
	}
	if s.reportStore == nil {
		return pgrepo.ReportRecord{}, fmt.Errorf("report dependencies are not configured")
	}
	return s.reportStore.GetByID(ctx, reportID)
}

// ApplyDecision records a moderation decision on a report and settles its
// trust consequences: a resolved report earns the reporter a positive delta,
// a rejected one costs a penalty plus a deactivation whose length decays with
// the time since the user's previous penalty.
func (s *Service) ApplyDecision(ctx context.Context, reportID int64, status string, adminID int64) (DecisionResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if !enums.IsValidReportStatus(normalized) {
		return DecisionResult{}, ErrInvalidStatus
	}
	if reportID <= 0 {
		return DecisionResult{}, ErrValidation
	}
	if s.reportStore == nil || s.ledger == nil {
		return DecisionResult{}, fmt.Errorf("report dependencies are not configured")
	}

	rec, err := s.reportStore.GetByID(ctx, reportID)
	if err != nil {
		return DecisionResult{}, err
	}

	// The previous penalty timestamp must be read before the new penalty
	// lands, or the decay gap would always come out as zero.
	var lastPenalty *time.Time
	if normalized == string(enums.ReportStatusRejected) && s.penalties != nil {
		lastPenalty, err = s.penalties.LastPenaltyAt(ctx, rec.UserID)
		if err != nil {
			return DecisionResult{}, fmt.Errorf("read last penalty: %w", err)
		}
	}

	if err := s.reportStore.UpdateStatus(ctx, reportID, normalized); err != nil {
		return DecisionResult{}, err
	}
	rec.Status = normalized

	result := DecisionResult{Report: rec}

	switch normalized {
	case string(enums.ReportStatusResolved):
		score, err := s.ledger.ApplyScoreChange(ctx, rec.UserID, trustsvc.ChangeInput{
			Delta:        s.cfg.ResolvedDelta,
			Reason:       string(enums.TrustReasonReportAccepted),
			ReportID:     &rec.ID,
			AppealStatus: rec.AppealStatus,
			AdminID:      optionalID(adminID),
		})
		if err != nil {
			return DecisionResult{}, err
		}
		result.Score = score
	case string(enums.ReportStatusRejected):
		score, err := s.ledger.ApplyScoreChange(ctx, rec.UserID, trustsvc.ChangeInput{
			Delta:        s.cfg.RejectedDelta,
			Reason:       string(enums.TrustReasonReportRejected),
			ReportID:     &rec.ID,
			AppealStatus: rec.AppealStatus,
			AdminID:      optionalID(adminID),
		})
		if err != nil {
			return DecisionResult{}, err
		}
		result.Score = score

		until, days, err := s.ledger.DeactivateForViolation(ctx, rec.UserID, s.daysSince(lastPenalty))
		if err != nil {
			return DecisionResult{}, err
		}
		result.DeactivatedUntil = &until
		result.DeactivatedDays = days
	default:
		summary, err := s.ledger.Summary(ctx, rec.UserID)
		if err != nil {
			return DecisionResult{}, err
		}
		result.Score = summary.Score
	}

	return result, nil
}

// SubmitAppeal flips a rejected report into a pending appeal. Deactivated
// users may appeal: the ban under appeal is usually the reason they are here.
func (s *Service) SubmitAppeal(ctx context.Context, userID, reportID int64) (pgrepo.ReportRecord, error) {
	if userID <= 0 || reportID <= 0 {
		return pgrepo.ReportRecord{}, ErrValidation
	}
	if s.reportStore == nil {
		return pgrepo.ReportRecord{}, fmt.Errorf("report dependencies are not configured")
	}

	rec, err := s.reportStore.GetByID(ctx, reportID)
	if err != nil {
		return pgrepo.ReportRecord{}, err
	}
	if rec.UserID != userID {
		return pgrepo.ReportRecord{}, ErrForbidden
	}
	if rec.Status != string(enums.ReportStatusRejected) || rec.AppealStatus != string(enums.AppealStatusNotAppealed) {
		return pgrepo.ReportRecord{}, ErrAppealNotAllowed
	}

	if err := s.reportStore.UpdateAppealStatus(ctx, reportID, string(enums.AppealStatusPending)); err != nil {
		return pgrepo.ReportRecord{}, err
	}
	rec.AppealStatus = string(enums.AppealStatusPending)

	return rec, nil
}

// DecideAppeal settles a pending appeal. Acceptance restores the score and
// reactivates the user on the spot; rejection costs a further penalty, which
// the ledger suppresses while the user is still serving the deactivation.
func (s *Service) DecideAppeal(ctx context.Context, reportID int64, accepted bool, adminID int64) (DecisionResult, error) {
	if reportID <= 0 {
		return DecisionResult{}, ErrValidation
	}
	if s.reportStore == nil || s.ledger == nil {
		return DecisionResult{}, fmt.Errorf("report dependencies are not configured")
	}

	rec, err := s.reportStore.GetByID(ctx, reportID)
	if err != nil {
		return DecisionResult{}, err
	}
	if rec.AppealStatus != string(enums.AppealStatusPending) {
		return DecisionResult{}, ErrAppealNotAllowed
	}

	result := DecisionResult{}

	if accepted {
		if err := s.reportStore.UpdateAppealStatus(ctx, reportID, string(enums.AppealStatusAccepted)); err != nil {
			return DecisionResult{}, err
		}
		rec.AppealStatus = string(enums.AppealStatusAccepted)

		if err := s.reportStore.UpdateStatus(ctx, reportID, string(enums.ReportStatusInProgress)); err != nil {
			return DecisionResult{}, err
		}
		rec.Status = string(enums.ReportStatusInProgress)

		score, err := s.ledger.ApplyScoreChange(ctx, rec.UserID, trustsvc.ChangeInput{
			Delta:        s.cfg.AppealAcceptedDelta,
			Reason:       string(enums.TrustReasonAppealAccepted),
			ReportID:     &rec.ID,
			AppealStatus: rec.AppealStatus,
			AdminID:      optionalID(adminID),
		})
		if err != nil {
			return DecisionResult{}, err
		}
		result.Score = score

		until, err := s.ledger.Deactivate(ctx, rec.UserID, 0)
		if err != nil {
			return DecisionResult{}, err
		}
		result.DeactivatedUntil = &until
	} else {
		if err := s.reportStore.UpdateAppealStatus(ctx, reportID, string(enums.AppealStatusRejected)); err != nil {
			return DecisionResult{}, err
		}
		rec.AppealStatus = string(enums.AppealStatusRejected)

		score, err := s.ledger.ApplyScoreChange(ctx, rec.UserID, trustsvc.ChangeInput{
			Delta:        s.cfg.AppealRejectedDelta,
			Reason:       string(enums.TrustReasonAppealRejected),
			ReportID:     &rec.ID,
			AppealStatus: rec.AppealStatus,
			AdminID:      optionalID(adminID),
		})
		if err != nil {
			return DecisionResult{}, err
		}
		result.Score = score
	}

	result.Report = rec
	return result, nil
}

func (s *Service) daysSince(at *time.Time) int {
	if at == nil {
		return 0
	}
	gap := s.now().UTC().Sub(at.UTC())
	if gap < 0 {
		return 0
	}
	return int(gap / (24 * time.Hour))
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func defaultTrackingID() string {
	id := uuid.NewString()
	id = strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	return id[:trackingIDLen]
}
