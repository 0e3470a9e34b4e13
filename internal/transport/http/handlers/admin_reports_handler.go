package handlers

import (
	"errors"
	"net/http"
	"strings"

	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	reportsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/reports"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/dto"
	httperrors "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/errors"
)

type AdminReportsHandler struct {
	service *reportsvc.Service
}

func NewAdminReportsHandler(service *reportsvc.Service) *AdminReportsHandler {
	return &AdminReportsHandler{service: service}
}

func (h *AdminReportsHandler) Decide(w http.ResponseWriter, r *http.Request) {
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

	var req dto.ReportDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	result, err := h.service.ApplyDecision(r.Context(), reportID, req.Status, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrReportNotFound):
			writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
		case errors.Is(err, reportsvc.ErrInvalidStatus):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported report status")
		case errors.Is(err, reportsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid decision request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to apply decision")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapDecision(result))
}

func (h *AdminReportsHandler) DecideAppeal(w http.ResponseWriter, r *http.Request) {
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

	var req dto.AppealDecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	var accepted bool
	switch strings.ToLower(strings.TrimSpace(req.Decision)) {
	case "accepted":
		accepted = true
	case "rejected":
		accepted = false
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "decision must be accepted or rejected")
		return
	}

	result, err := h.service.DecideAppeal(r.Context(), reportID, accepted, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrReportNotFound):
			writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
		case errors.Is(err, reportsvc.ErrAppealNotAllowed):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "APPEAL_NOT_PENDING",
				Message: "report has no pending appeal",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to decide appeal")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, mapDecision(result))
}

func mapDecision(result reportsvc.DecisionResult) dto.DecisionResponse {
	return dto.DecisionResponse{
		Report:           mapReport(result.Report),
		TrustScore:       result.Score,
		DeactivatedUntil: result.DeactivatedUntil,
		DeactivatedDays:  result.DeactivatedDays,
	}
}
