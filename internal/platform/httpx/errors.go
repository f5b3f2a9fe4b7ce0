package httpx

import (
	"errors"
	"net/http"

	"github.com/mitracetak/mitra-erp/internal/platform/db"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrBusinessRule):
		Problem(w, http.StatusUnprocessableEntity, "Rejected", err.Error())
	case db.IsCommitError(err):
		Problem(w, http.StatusServiceUnavailable, "Commit Failed", "the request was accepted but could not be durably recorded; retry is safe")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
