package middleware

import (
	"errors"
	"net/http"
	"testing"

	flexerrors "flexchat/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestStatusForMapsTypedErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{flexerrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{flexerrors.ErrGeenToestemming, http.StatusForbidden, "FORBIDDEN"},
		{flexerrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{flexerrors.ErrBewerkingstijdVerlopen, http.StatusUnprocessableEntity, "RULE_VIOLATION"},
		{flexerrors.ErrGesprekGearchiveerd, http.StatusUnprocessableEntity, "RULE_VIOLATION"},
		{flexerrors.ErrBestandTeGroot, http.StatusRequestEntityTooLarge, "TOO_LARGE"},
		{flexerrors.ErrBestandstypeOngeldig, http.StatusBadRequest, "INVALID_INPUT"},
		{flexerrors.ErrQueuedOffline, http.StatusAccepted, "QUEUED_OFFLINE"},
		{flexerrors.ErrStoreUnavailable, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{errors.New("iets anders"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
