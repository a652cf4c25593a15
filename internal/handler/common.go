package handler // handler defines http handlers

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/model"
)

// dbTimeout bounds every database round-trip made from a handler.
const dbTimeout = 5 * time.Second

// The store interfaces below are implemented by the repository structs and
// injected at startup. Handlers depend on the interfaces rather than on
// *sql.DB so tests can substitute in-memory fakes.

// UserStore is the data access surface for user records.
type UserStore interface {
	Create(ctx context.Context, u model.User, plainPassword string, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	CountEnabled(ctx context.Context) (int, error)
	Update(ctx context.Context, id uint64, u model.User, plainPassword string, cost int) ([]string, error)
	Delete(ctx context.Context, id uint64) ([]string, error)
}

// TokenStore records issued access tokens.
type TokenStore interface {
	StoreIssued(ctx context.Context, userID uint64, token string) error
}

// SettingStore reads and writes the key/value settings table.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// AppStore is the data access surface for catalog entries.
type AppStore interface {
	List(ctx context.Context) ([]model.WindowsApp, error)
	Create(ctx context.Context, a model.WindowsApp) (uint64, error)
	Update(ctx context.Context, id uint64, a model.WindowsApp) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
}

// getUserID extracts the authenticated user's id placed in the context by the
// JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// reqCtx derives a bounded context for database calls from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
