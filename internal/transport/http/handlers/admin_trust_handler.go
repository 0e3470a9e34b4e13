package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/domain/enums"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/dto"
	httperrors "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/errors"
)

const defaultMetricsRangeDays = 14

type trustLogLister interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]pgrepo.TrustLogRecord, error)
}

type trustMetricsLister interface {
	ListRange(ctx context.Context, from, to time.Time) ([]pgrepo.TrustDailyMetricRow, error)
}

type AdminTrustHandler struct {
	trust   *trustsvc.Service
	log     trustLogLister
	metrics trustMetricsLister
}

func NewAdminTrustHandler(trust *trustsvc.Service) *AdminTrustHandler {
	return &AdminTrustHandler{trust: trust}
}

func (h *AdminTrustHandler) AttachLog(log trustLogLister) {
	h.log = log
}

func (h *AdminTrustHandler) AttachMetrics(metrics trustMetricsLister) {
	h.metrics = metrics
}

func (h *AdminTrustHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.trust == nil {
		writeInternal(w, "TRUST_SERVICE_UNAVAILABLE", "trust service is unavailable")
		return
	}

	userID, ok := userIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	var req dto.AdjustTrustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Delta == 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "delta must be non-zero")
		return
	}

	adminID := identity.UserID
	score, err := h.trust.ApplyScoreChange(r.Context(), userID, trustsvc.ChangeInput{
		Delta:   req.Delta,
		Reason:  string(enums.TrustReasonAdminAdjustment),
		AdminID: &adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, trustsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid adjustment request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to adjust trust score")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdjustTrustResponse{UserID: userID, TrustScore: score})
}

func (h *AdminTrustHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.trust == nil {
		writeInternal(w, "TRUST_SERVICE_UNAVAILABLE", "trust service is unavailable")
		return
	}

	userID, ok := userIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	var req dto.DeactivateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Days < 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "days must not be negative")
		return
	}

	until, err := h.trust.Deactivate(r.Context(), userID, req.Days)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, trustsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid deactivation request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to deactivate user")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeactivateUserResponse{
		UserID:           userID,
		DeactivatedUntil: until,
		ActivationTime:   trustsvc.FormatActivationTime(until),
	})
}

func (h *AdminTrustHandler) Log(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.log == nil {
		writeInternal(w, "TRUST_LOG_UNAVAILABLE", "trust log is unavailable")
		return
	}

	userID, ok := userIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.log.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load trust log")
		return
	}

	entries := make([]dto.TrustLogEntryPayload, 0, len(records))
	for _, rec := range records {
		entries = append(entries, dto.TrustLogEntryPayload{
			ID:           rec.ID,
			Delta:        rec.Delta,
			Reason:       rec.Reason,
			ReportID:     rec.ReportID,
			AppealStatus: rec.AppealStatus,
			AdminID:      rec.AdminID,
			CreatedAt:    rec.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.TrustLogResponse{UserID: userID, Entries: entries})
}

func (h *AdminTrustHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.metrics == nil {
		writeInternal(w, "TRUST_METRICS_UNAVAILABLE", "trust metrics are unavailable")
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.Add(-defaultMetricsRangeDays * 24 * time.Hour)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		writeBadRequest(w, "VALIDATION_ERROR", "from must precede to")
		return
	}

	rows, err := h.metrics.ListRange(r.Context(), from, to)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load trust metrics")
		return
	}

	days := make([]dto.TrustDailyMetricPayload, 0, len(rows))
	for _, row := range rows {
		days = append(days, dto.TrustDailyMetricPayload{
			Day:       row.DayKey.Format("2006-01-02"),
			Changes:   row.Changes,
			Penalties: row.Penalties,
			Rewards:   row.Rewards,
			NetDelta:  row.NetDelta,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.TrustMetricsResponse{From: from, To: to, Days: days})
}

func userIDFromRequest(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
