package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pmarinho/accounts-api/internal/media"
	"github.com/pmarinho/accounts-api/internal/service"
	"github.com/pmarinho/accounts-api/internal/util"
)

func RegisterUsers(e *echo.Echo, accounts *service.AccountService, auth *service.AuthService) {
	e.POST("/api/v1/users", func(c echo.Context) error {
		var req registerRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		user, err := accounts.Register(c.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusCreated, util.Envelope{
			"message": "account created successfully",
			"user":    user,
		})
	})

	g := e.Group("/api/v1/users", RequireAuth(auth))

	g.GET("/me", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		return c.JSON(http.StatusOK, user)
	})

	g.GET("", func(c echo.Context) error {
		limit := intQuery(c, "limit", 20)
		offset := intQuery(c, "offset", 0)
		users, err := accounts.List(c.Request().Context(), limit, offset)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, util.Data("users", users))
	})

	g.GET("/:id", func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid account id"))
		}
		user, err := accounts.GetByID(c.Request().Context(), id)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, user)
	})

	g.PUT("/:id", func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid account id"))
		}
		var req updateProfileRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		user, err := accounts.UpdateProfile(c.Request().Context(), id, req.Name, req.Email)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, util.Envelope{
			"message": "account updated successfully",
			"user":    user,
		})
	})

	g.DELETE("/:id", func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid account id"))
		}
		if err := accounts.Delete(c.Request().Context(), id); err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, util.Message("account deleted successfully"))
	})

	g.PUT("/me/password", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		var req changePasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := accounts.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
			return errorJSON(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	})

	g.PUT("/me/avatar", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("avatar file is required"))
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("unable to read avatar file"))
		}
		defer file.Close()

		updated, err := accounts.UploadAvatar(c.Request().Context(), user.ID, media.Upload{
			Reader:      file,
			Size:        fileHeader.Size,
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		})
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, updated)
	})
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
