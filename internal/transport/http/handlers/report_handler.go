package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	reportsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/reports"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/dto"
	httperrors "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/errors"
)

type ReportHandler struct {
	service *reportsvc.Service
}

func NewReportHandler(service *reportsvc.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	var req dto.CreateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	rec, err := h.service.Create(r.Context(), identity.UserID, reportsvc.CreateInput{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		var deactivatedErr *trustsvc.DeactivatedError
		var limitErr reportsvc.RateLimitedError
		switch {
		case errors.Is(err, reportsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "title, location and description are required")
		case errors.As(err, &deactivatedErr):
			writeDeactivated(w, deactivatedErr)
		case errors.As(err, &limitErr):
			writeRateLimited(w, limitErr.RetryAfterSec)
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create report")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, mapReport(rec))
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	reportID, ok := reportIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid report id")
		return
	}

	rec, err := h.service.Get(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrReportNotFound) {
			writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load report")
		return
	}
	if rec.UserID != identity.UserID {
		writeForbidden(w, "FORBIDDEN", "report belongs to another user")
		return
	}

	httperrors.Write(w, http.StatusOK, mapReport(rec))
}

func (h *ReportHandler) SubmitAppeal(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	reportID, ok := reportIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid report id")
		return
	}

	rec, err := h.service.SubmitAppeal(r.Context(), identity.UserID, reportID)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrReportNotFound):
			writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
		case errors.Is(err, reportsvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "report belongs to another user")
		case errors.Is(err, reportsvc.ErrAppealNotAllowed):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "APPEAL_NOT_ALLOWED",
				Message: "only rejected reports without a prior appeal can be appealed",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to submit appeal")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapReport(rec))
}

func reportIDFromRequest(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func mapReport(rec pgrepo.ReportRecord) dto.ReportResponse {
	return dto.ReportResponse{
		ID:           rec.ID,
		TrackingID:   rec.TrackingID,
		Title:        rec.Title,
		Location:     rec.Location,
		Description:  rec.Description,
		Status:       rec.Status,
		AppealStatus: rec.AppealStatus,
		IssueDate:    rec.IssueDate,
	}
}
