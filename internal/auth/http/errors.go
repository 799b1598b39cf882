package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/pkg/authsdk"
	"github.com/aussiebroadwan/sessionauth/pkg/errutil"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
)

// apiError maps a service error onto its wire form.
func apiError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return authsdk.ErrInvalidRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrDuplicateUser):
		return authsdk.ErrDuplicateUser
	case errors.Is(err, service.ErrTokenNotFound):
		return authsdk.ErrTokenNotFound
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, store.ErrTimeout):
		return authsdk.ErrServiceUnavailable
	default:
		return authsdk.ErrServerError
	}
}

// writeServiceError writes err to w. Server side failures are logged with
// their oops context; client errors are not.
func writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	apiErr := apiError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		errutil.LogError(slogx.FromContext(r.Context()), msg, err)
	}
	apiErr.WriteError(w)
}
