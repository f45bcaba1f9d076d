package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/service"
	"github.com/pmarinho/accounts-api/internal/util"
)

// resetRequestedMessage is returned for every reset request, registered or
// not, so responses don't reveal which emails exist.
const resetRequestedMessage = "if the email is registered, a reset code has been sent"

func RegisterAuth(e *echo.Echo, auth *service.AuthService, resets *service.PasswordResetService) {
	e.POST("/api/v1/auth/login", func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		user, token, expiresAt, err := auth.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, util.Envelope{
			"token":      token,
			"expires_at": expiresAt,
			"user":       user,
		})
	})

	e.POST("/api/v1/auth/password/forgot", func(c echo.Context) error {
		var req forgotPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		err := resets.RequestReset(c.Request().Context(), req.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusAccepted, util.Message(resetRequestedMessage))
	})

	e.POST("/api/v1/auth/password/reset", func(c echo.Context) error {
		var req resetPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := resets.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
			return errorJSON(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})
}
