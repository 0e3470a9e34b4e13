package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
)

type fakeReportStore struct {
	nextID  int64
	records map[int64]pgrepo.ReportRecord
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{nextID: 1, records: make(map[int64]pgrepo.ReportRecord)}
}

func (f *fakeReportStore) Create(_ context.Context, userID int64, trackingID, title, location, description string) (pgrepo.ReportRecord, error) {
	rec := pgrepo.ReportRecord{
		ID:           f.nextID,
		UserID:       userID,
		TrackingID:   trackingID,
		Title:        title,
		Location:     location,
		Description:  description,
		Status:       "pending",
		AppealStatus: "not_appealed",
		IssueDate:    time.Now().UTC(),
	}
	f.records[rec.ID] = rec
	f.nextID++
	return rec, nil
}

func (f *fakeReportStore) GetByID(_ context.Context, reportID int64) (pgrepo.ReportRecord, error) {
	rec, ok := f.records[reportID]
	if !ok {
		return pgrepo.ReportRecord{}, pgrepo.ErrReportNotFound
	}
	return rec, nil
}

func (f *fakeReportStore) UpdateStatus(_ context.Context, reportID int64, status string) error {
	rec, ok := f.records[reportID]
	if !ok {
		return pgrepo.ErrReportNotFound
	}
	rec.Status = status
	f.records[reportID] = rec
	return nil
}

func (f *fakeReportStore) UpdateAppealStatus(_ context.Context, reportID int64, appealStatus string) error {
	rec, ok := f.records[reportID]
	if !ok {
		return pgrepo.ErrReportNotFound
	}
	rec.AppealStatus = appealStatus
	f.records[reportID] = rec
	return nil
}

type ledgerCall struct {
	userID int64
	input  trustsvc.ChangeInput
}

type fakeLedger struct {
	score            int
	deactivatedErr   error
	changes          []ledgerCall
	deactivations    []int
	violationGaps    []int
	violationDays    int
	reactivatedUsers []int64
}

func (f *fakeLedger) ApplyScoreChange(_ context.Context, userID int64, in trustsvc.ChangeInput) (int, error) {
	f.changes = append(f.changes, ledgerCall{userID: userID, input: in})
	f.score += in.Delta
	return f.score, nil
}

func (f *fakeLedger) CheckDeactivated(_ context.Context, _ int64) error {
	return f.deactivatedErr
}

func (f *fakeLedger) Deactivate(_ context.Context, userID int64, days int) (time.Time, error) {
	f.deactivations = append(f.deactivations, days)
	if days == 0 {
		f.reactivatedUsers = append(f.reactivatedUsers, userID)
	}
	return time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour), nil
}

func (f *fakeLedger) DeactivateForViolation(_ context.Context, _ int64, daysSinceLastViolation int) (time.Time, int, error) {
	f.violationGaps = append(f.violationGaps, daysSinceLastViolation)
	return time.Now().UTC().Add(time.Duration(f.violationDays) * 24 * time.Hour), f.violationDays, nil
}

func (f *fakeLedger) Summary(_ context.Context, _ int64) (trustsvc.Summary, error) {
	return trustsvc.Summary{Score: f.score}, nil
}

type fakePenalties struct {
	at *time.Time
}

func (f *fakePenalties) LastPenaltyAt(_ context.Context, _ int64) (*time.Time, error) {
	return f.at, nil
}

type fakeLimiter struct {
	allowed    bool
	retryAfter int64
}

func (f *fakeLimiter) AllowReport(_ context.Context, _ int64) (int64, bool, error) {
	if f.allowed {
		return 0, true, nil
	}
	return f.retryAfter, false, nil
}

func newTestService(store *fakeReportStore, ledger *fakeLedger, penalties *fakePenalties, limiter *fakeLimiter) *Service {
	svc := NewService(Dependencies{
		ReportStore: store,
		Ledger:      ledger,
		Penalties:   penalties,
		RateLimiter: limiter,
	}, Config{})
	svc.newTrackingID = func() string { return "AB12CD34" }
	return svc
}

func TestCreateAssignsTrackingIDAndDefaults(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 100}, nil, &fakeLimiter{allowed: true})

	rec, err := svc.Create(context.Background(), 7, CreateInput{
		Title:       "Broken streetlight",
		Location:    "5th Avenue",
		Description: "The light has been out for a week.",
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if rec.TrackingID != "AB12CD34" {
		t.Fatalf("unexpected tracking id: %s", rec.TrackingID)
	}
	if rec.Status != "pending" || rec.AppealStatus != "not_appealed" {
		t.Fatalf("unexpected defaults: status=%s appeal=%s", rec.Status, rec.AppealStatus)
	}
}

func TestCreateRejectsBlankFields(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 100}, nil, &fakeLimiter{allowed: true})

	_, err := svc.Create(context.Background(), 7, CreateInput{Title: "  ", Location: "x", Description: "y"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("nothing must be stored on validation failure")
	}
}

func TestCreateBlockedWhileDeactivated(t *testing.T) {
	store := newFakeReportStore()
	until := time.Now().UTC().Add(24 * time.Hour)
	ledger := &fakeLedger{
		score: 90,
		deactivatedErr: &trustsvc.DeactivatedError{
			Until:          until,
			ActivationTime: trustsvc.FormatActivationTime(until),
		},
	}
	svc := newTestService(store, ledger, nil, &fakeLimiter{allowed: true})

	_, err := svc.Create(context.Background(), 7, CreateInput{
		Title:       "Pothole",
		Location:    "Main Street",
		Description: "Deep pothole near the crossing.",
	})
	var deactivatedErr *trustsvc.DeactivatedError
	if !errors.As(err, &deactivatedErr) {
		t.Fatalf("expected DeactivatedError, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("deactivated users must not create reports")
	}
}

func TestCreateRateLimited(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 100}, nil, &fakeLimiter{allowed: false, retryAfter: 1800})

	_, err := svc.Create(context.Background(), 7, CreateInput{
		Title:       "Pothole",
		Location:    "Main Street",
		Description: "Deep pothole near the crossing.",
	})
	var limitErr RateLimitedError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limitErr.RetryAfterSec != 1800 {
		t.Fatalf("unexpected retry_after: %d", limitErr.RetryAfterSec)
	}
}

func TestApplyDecisionResolvedRewardsReporter(t *testing.T) {
	store := newFakeReportStore()
	ledger := &fakeLedger{score: 100}
	svc := newTestService(store, ledger, &fakePenalties{}, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")

	result, err := svc.ApplyDecision(context.Background(), rec.ID, "resolved", 99)
	if err != nil {
		t.Fatalf("apply decision: %v", err)
	}
	if result.Report.Status != "resolved" {
		t.Fatalf("unexpected status: %s", result.Report.Status)
	}
	if result.Score != 105 {
		t.Fatalf("unexpected score: %d", result.Score)
	}
	if len(ledger.changes) != 1 {
		t.Fatalf("expected one ledger change, got %d", len(ledger.changes))
	}
	change := ledger.changes[0]
	if change.input.Delta != 5 || change.input.Reason != "report_accepted" {
		t.Fatalf("unexpected change: %+v", change.input)
	}
	if change.input.ReportID == nil || *change.input.ReportID != rec.ID {
		t.Fatalf("change must reference the report")
	}
	if change.input.AdminID == nil || *change.input.AdminID != 99 {
		t.Fatalf("change must reference the deciding admin")
	}
	if len(ledger.violationGaps) != 0 {
		t.Fatalf("resolved decisions must not deactivate")
	}
}

func TestApplyDecisionRejectedPenalizesAndDeactivates(t *testing.T) {
	store := newFakeReportStore()
	lastPenalty := time.Now().UTC().Add(-45 * 24 * time.Hour)
	ledger := &fakeLedger{score: 100, violationDays: 7}
	svc := newTestService(store, ledger, &fakePenalties{at: &lastPenalty}, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")

	result, err := svc.ApplyDecision(context.Background(), rec.ID, "rejected", 99)
	if err != nil {
		t.Fatalf("apply decision: %v", err)
	}
	if result.Score != 90 {
		t.Fatalf("unexpected score: %d", result.Score)
	}
	if ledger.changes[0].input.Delta != -10 || ledger.changes[0].input.Reason != "report_rejected" {
		t.Fatalf("unexpected change: %+v", ledger.changes[0].input)
	}
	if len(ledger.violationGaps) != 1 || ledger.violationGaps[0] != 45 {
		t.Fatalf("decay gap must come from the previous penalty, got %v", ledger.violationGaps)
	}
	if result.DeactivatedUntil == nil || result.DeactivatedDays != 7 {
		t.Fatalf("rejection must deactivate: %+v", result)
	}
}

func TestApplyDecisionRejectedFirstOffense(t *testing.T) {
	store := newFakeReportStore()
	ledger := &fakeLedger{score: 100, violationDays: 30}
	svc := newTestService(store, ledger, &fakePenalties{at: nil}, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")

	result, err := svc.ApplyDecision(context.Background(), rec.ID, "rejected", 99)
	if err != nil {
		t.Fatalf("apply decision: %v", err)
	}
	if len(ledger.violationGaps) != 1 || ledger.violationGaps[0] != 0 {
		t.Fatalf("no prior penalty must read as a zero-day gap, got %v", ledger.violationGaps)
	}
	if result.DeactivatedDays != 30 {
		t.Fatalf("unexpected deactivation length: %d", result.DeactivatedDays)
	}
}

func TestApplyDecisionRejectsUnknownStatus(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 100}, nil, nil)

	if _, err := svc.ApplyDecision(context.Background(), 1, "escalated", 99); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSubmitAppealTransitions(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 90}, nil, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")

	// only rejected reports are appealable
	if _, err := svc.SubmitAppeal(context.Background(), 7, rec.ID); !errors.Is(err, ErrAppealNotAllowed) {
		t.Fatalf("expected ErrAppealNotAllowed for pending report, got %v", err)
	}

	if err := store.UpdateStatus(context.Background(), rec.ID, "rejected"); err != nil {
		t.Fatalf("seed rejected status: %v", err)
	}

	if _, err := svc.SubmitAppeal(context.Background(), 8, rec.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	updated, err := svc.SubmitAppeal(context.Background(), 7, rec.ID)
	if err != nil {
		t.Fatalf("submit appeal: %v", err)
	}
	if updated.AppealStatus != "pending" {
		t.Fatalf("unexpected appeal status: %s", updated.AppealStatus)
	}

	// an appeal can only be filed once
	if _, err := svc.SubmitAppeal(context.Background(), 7, rec.ID); !errors.Is(err, ErrAppealNotAllowed) {
		t.Fatalf("expected ErrAppealNotAllowed on repeat appeal, got %v", err)
	}
}

func TestDecideAppealAcceptedRestoresUser(t *testing.T) {
	store := newFakeReportStore()
	ledger := &fakeLedger{score: 90}
	svc := newTestService(store, ledger, nil, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")
	_ = store.UpdateStatus(context.Background(), rec.ID, "rejected")
	_ = store.UpdateAppealStatus(context.Background(), rec.ID, "pending")

	result, err := svc.DecideAppeal(context.Background(), rec.ID, true, 99)
	if err != nil {
		t.Fatalf("decide appeal: %v", err)
	}
	if result.Report.AppealStatus != "accepted" {
		t.Fatalf("unexpected appeal status: %s", result.Report.AppealStatus)
	}
	if result.Report.Status != "in_progress" {
		t.Fatalf("accepted appeal must reopen the report, got %s", result.Report.Status)
	}
	if result.Score != 100 {
		t.Fatalf("unexpected score: %d", result.Score)
	}
	if ledger.changes[0].input.Reason != "appeal_accepted" || ledger.changes[0].input.Delta != 10 {
		t.Fatalf("unexpected change: %+v", ledger.changes[0].input)
	}
	if len(ledger.reactivatedUsers) != 1 || ledger.reactivatedUsers[0] != 7 {
		t.Fatalf("accepted appeal must reactivate the user immediately")
	}
}

func TestDecideAppealRejectedPenalizes(t *testing.T) {
	store := newFakeReportStore()
	ledger := &fakeLedger{score: 90}
	svc := newTestService(store, ledger, nil, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")
	_ = store.UpdateStatus(context.Background(), rec.ID, "rejected")
	_ = store.UpdateAppealStatus(context.Background(), rec.ID, "pending")

	result, err := svc.DecideAppeal(context.Background(), rec.ID, false, 99)
	if err != nil {
		t.Fatalf("decide appeal: %v", err)
	}
	if result.Report.AppealStatus != "rejected" {
		t.Fatalf("unexpected appeal status: %s", result.Report.AppealStatus)
	}
	if result.Report.Status != "rejected" {
		t.Fatalf("report status must stay rejected, got %s", result.Report.Status)
	}
	if ledger.changes[0].input.Reason != "appeal_rejected" || ledger.changes[0].input.Delta != -5 {
		t.Fatalf("unexpected change: %+v", ledger.changes[0].input)
	}
	if len(ledger.deactivations) != 0 {
		t.Fatalf("rejected appeal must not touch the deactivation")
	}
}

func TestDecideAppealRequiresPendingAppeal(t *testing.T) {
	store := newFakeReportStore()
	svc := newTestService(store, &fakeLedger{score: 90}, nil, nil)

	rec, _ := store.Create(context.Background(), 7, "AB12CD34", "t", "l", "d")

	if _, err := svc.DecideAppeal(context.Background(), rec.ID, true, 99); !errors.Is(err, ErrAppealNotAllowed) {
		t.Fatalf("expected ErrAppealNotAllowed, got %v", err)
	}
}

func TestDefaultTrackingIDShape(t *testing.T) {
	id := defaultTrackingID()
	if len(id) != trackingIDLen {
		t.Fatalf("unexpected tracking id length: %d", len(id))
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			t.Fatalf("unexpected tracking id rune: %q in %s", r, id)
		}
	}
}
