package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/lucavoss/adeptly-backend/internal/pkg/errors"
	"github.com/lucavoss/adeptly-backend/internal/platform/apierr"
)

// RespondDomainError maps the engine's sentinel errors onto HTTP statuses.
// Anything unrecognized is a 500 with a generic code.
func RespondDomainError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
		return
	}

	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		RespondError(c, http.StatusBadRequest, "VALIDATION", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, pkgerrors.ErrInvalidState):
		RespondError(c, http.StatusConflict, "INVALID_STATE", err)
	case errors.Is(err, pkgerrors.ErrOutOfSequence):
		RespondError(c, http.StatusConflict, "OUT_OF_SEQUENCE", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusConflict, "CONFLICT", err)
	case errors.Is(err, pkgerrors.ErrUpstreamTimeout):
		RespondError(c, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", err)
	default:
		RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
	}
}
