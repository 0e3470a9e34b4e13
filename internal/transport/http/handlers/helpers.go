package handlers

import (
	"encoding/json"
	"net/http"

	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
	httperrors "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeDeactivated(w http.ResponseWriter, err *trustsvc.DeactivatedError) {
	httperrors.Write(w, http.StatusForbidden, httperrors.DeactivatedError{
		Code:             "ACCOUNT_DEACTIVATED",
		Message:          "account is deactivated until " + err.ActivationTime,
		DeactivatedUntil: err.Until,
		ActivationTime:   err.ActivationTime,
	})
}

func writeRateLimited(w http.ResponseWriter, retryAfterSec int64) {
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          "REPORT_LIMIT_REACHED",
		Message:       "report submission limit reached, try again later",
		RetryAfterSec: retryAfterSec,
	})
}
