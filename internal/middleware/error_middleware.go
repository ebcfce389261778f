package middleware

import (
	"errors"
	"net/http"

	"flexchat/internal/transport/httpdto"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached to the gin context into one
// JSON error response. Handlers call c.Error(err) and return; the
// status mapping lives here only.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError && l != nil {
			l.Errorf("request error: %s", err.Error())
		}
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, flexerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, flexerrors.ErrForbidden), errors.Is(err, flexerrors.ErrGeenToestemming):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, flexerrors.ErrNotFound), errors.Is(err, flexerrors.ErrBestandNietGevonden):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, flexerrors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, flexerrors.ErrBewerkingstijdVerlopen), errors.Is(err, flexerrors.ErrGesprekGearchiveerd):
		return http.StatusUnprocessableEntity, "RULE_VIOLATION"
	case errors.Is(err, flexerrors.ErrTooLarge), errors.Is(err, flexerrors.ErrBestandTeGroot):
		return http.StatusRequestEntityTooLarge, "TOO_LARGE"
	case errors.Is(err, flexerrors.ErrInvalidInput), errors.Is(err, flexerrors.ErrBestandstypeOngeldig):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, flexerrors.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, flexerrors.ErrQueuedOffline):
		return http.StatusAccepted, "QUEUED_OFFLINE"
	case errors.Is(err, flexerrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
