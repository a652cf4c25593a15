package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/config"
	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/repository"
	"github.com/jorisdh/appdepot/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Settings SettingStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, s SettingStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Settings: s}
}

// ----- DTOs -----

type registerReq struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	IsEnabled    *bool  `json:"isEnabled"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userInfoResp struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a user through the self-service endpoint. It is only open
// while the registration_enabled setting is on; with the gate closed the
// request is rejected before touching the users table.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.EmailAddress = strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if req.Username == "" || req.Password == "" || req.EmailAddress == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, password and email_address are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	gate, err := h.Settings.Get(ctx, model.RegistrationEnabledKey)
	if err != nil && !errors.Is(err, repository.ErrSettingNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if gate != "1" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "registration is disabled"})
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}
	id, err := h.Users.Create(ctx, model.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmailAddress: req.EmailAddress,
		IsEnabled:    enabled,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"field": "username", "message": "Username already exists"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"field": "email_address", "message": "Email address already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "id": id})
}

// Login verifies credentials and returns a fresh access token. A wrong
// password, an unknown username and a disabled account all produce the same
// 401 body so callers cannot probe which accounts exist or are blocked.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || !u.IsEnabled {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid username or password"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Username, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	// Track the token so it can be denylisted if the account is later
	// disabled or deleted.
	if err := h.Tokens.StoreIssued(ctx, u.ID, access.Token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": access.Token, "user_id": u.ID})
}

// UserInfo returns the authenticated caller's profile. The identity comes
// from the validated token; the row is re-read so a user deleted after
// issuance yields 404 instead of stale claims.
func (h *AuthHandler) UserInfo(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, userInfoResp{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}
