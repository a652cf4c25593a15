package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/config"
	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/queue"
	"github.com/jorisdh/appdepot/internal/repository"
	queue_publisher "github.com/jorisdh/appdepot/internal/service"
)

// UserHandler implements the admin user-management endpoints. Disable and
// delete operations feed the revocation ledger inside the repository
// transaction; the handler only publishes the audit event once the commit has
// succeeded. Publish is a field so tests can intercept events.
type UserHandler struct {
	Cfg     config.Config
	Users   UserStore
	Publish func(ctx context.Context, ev queue.UserRevokedEvent) error
}

func NewUserHandler(cfg config.Config, u UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Publish: queue_publisher.PublishUserRevoked}
}

type userReq struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	IsEnabled    *bool  `json:"isEnabled"`
}

type userResp struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	EmailAddress string    `json:"email_address"`
	IsEnabled    bool      `json:"isEnabled"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		EmailAddress: u.EmailAddress,
		IsEnabled:    u.IsEnabled,
		CreatedAt:    u.CreatedAt,
	}
}

// List returns all users without password hashes.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a user from the admin backend. Unlike self-registration it is
// not gated by the registration setting.
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.EmailAddress = strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if req.Username == "" || req.Password == "" || req.EmailAddress == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, password and email_address are required"})
	}
	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, model.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmailAddress: req.EmailAddress,
		IsEnabled:    enabled,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if resp, ok := duplicateResponse(err); ok {
			return c.JSON(http.StatusBadRequest, resp)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully", "id": id})
}

// Update rewrites a user's profile. When the update disables a previously
// enabled account, the repository blacklists every outstanding token in the
// same transaction; the returned token list drives the audit event.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.EmailAddress = strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if req.Username == "" || req.EmailAddress == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and email_address are required"})
	}
	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	revoked, err := h.Users.Update(ctx, id, model.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmailAddress: req.EmailAddress,
		IsEnabled:    enabled,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		if resp, ok := duplicateResponse(err); ok {
			return c.JSON(http.StatusBadRequest, resp)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}

	if len(revoked) > 0 {
		h.publishRevoked(c, id, req.Username, "disabled", len(revoked))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully"})
}

// Delete removes a user and denylists their outstanding tokens.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	// Read the username first; the row is gone once Delete commits.
	username := ""
	if u, err := h.Users.GetByID(ctx, id); err == nil {
		username = u.Username
	}

	revoked, err := h.Users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}

	if len(revoked) > 0 {
		h.publishRevoked(c, id, username, "deleted", len(revoked))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted and tokens blacklisted successfully"})
}

// Count returns the total number of users.
func (h *UserHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Users.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// CountEnabled returns the number of users allowed to log in.
func (h *UserHandler) CountEnabled(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Users.CountEnabled(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

func (h *UserHandler) publishRevoked(c echo.Context, id uint64, username, reason string, count int) {
	if h.Publish == nil {
		return
	}
	ev := queue.UserRevokedEvent{
		UserID:     id,
		Username:   username,
		Reason:     reason,
		TokenCount: count,
		RevokedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	// Revocation is already durable in SQL; a lost audit event is logged by
	// the publisher and otherwise ignored.
	_ = h.Publish(c.Request().Context(), ev)
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// duplicateResponse maps the repository duplicate sentinels onto the
// field-naming error bodies the admin frontend expects.
func duplicateResponse(err error) (echo.Map, bool) {
	switch {
	case errors.Is(err, repository.ErrUsernameExists):
		return echo.Map{"field": "username", "message": "Username already exists"}, true
	case errors.Is(err, repository.ErrEmailExists):
		return echo.Map{"field": "email_address", "message": "Email address already exists"}, true
	}
	return nil, false
}
