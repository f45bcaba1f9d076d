package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/util"
)

// httpStatusFor maps the service error taxonomy to status codes in one
// place. Unknown errors are internal failures and must not leak detail.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrResetCodeExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrResetCodeInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	status := httpStatusFor(err)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(status, util.Error("internal server error"))
	}
	return c.JSON(status, util.Error(err.Error()))
}
