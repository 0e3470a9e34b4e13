package handlers

import (
	"net/http"

	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/dto"
	httperrors "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	trust *trustsvc.Service
}

func NewProfileHandler(trust *trustsvc.Service) *ProfileHandler {
	return &ProfileHandler{trust: trust}
}

// Handle returns the trust summary and runs the lazy incentive evaluation.
// The evaluation is idempotent, so every profile fetch may safely trigger it.
func (h *ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.trust == nil {
		writeInternal(w, "TRUST_SERVICE_UNAVAILABLE", "trust service is unavailable")
		return
	}

	incentive, err := h.trust.EvaluateResolutionIncentive(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to evaluate resolution incentive")
		return
	}

	summary, err := h.trust.Summary(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load trust summary")
		return
	}

	resp := dto.ProfileResponse{
		UserID:           identity.UserID,
		TrustScore:       summary.Score,
		Deactivated:      summary.Deactivated,
		DeactivatedUntil: summary.DeactivatedUntil,
		Incentive: dto.IncentiveStatusPayload{
			Granted:             incentive.Granted,
			Amount:              incentive.Amount,
			RewardUnit:          incentive.RewardUnit,
			WindowSize:          incentive.WindowSize,
			WindowResolvedCount: incentive.WindowResolvedCount,
			EligibleNow:         incentive.EligibleNow,
			JustGranted:         incentive.JustGranted,
		},
	}
	if summary.Deactivated && summary.DeactivatedUntil != nil {
		resp.ActivationTime = trustsvc.FormatActivationTime(summary.DeactivatedUntil.UTC())
	}

	httperrors.Write(w, http.StatusOK, resp)
}
