package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/repository"
)

// SettingHandler exposes the registration gate. GET is public so the frontend
// can decide whether to show a register link; PUT requires a bearer token.
type SettingHandler struct {
	Settings SettingStore
}

func NewSettingHandler(s SettingStore) *SettingHandler { return &SettingHandler{Settings: s} }

type registrationReq struct {
	RegistrationEnabled bool `json:"registration_enabled"`
}

// GetRegistration reports whether self-registration is currently open. A
// missing settings row counts as closed.
func (h *SettingHandler) GetRegistration(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Settings.Get(ctx, model.RegistrationEnabledKey)
	if err != nil && !errors.Is(err, repository.ErrSettingNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"registration_enabled": v == "1"})
}

// PutRegistration opens or closes the registration gate.
func (h *SettingHandler) PutRegistration(c echo.Context) error {
	var req registrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v := "0"
	if req.RegistrationEnabled {
		v = "1"
	}
	if err := h.Settings.Set(ctx, model.RegistrationEnabledKey, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update setting failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Registration setting updated"})
}
