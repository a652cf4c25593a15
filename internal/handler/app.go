package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/repository"
)

// AppHandler implements the windows-apps catalog endpoints. Listing is
// public; mutations require a bearer token.
type AppHandler struct {
	Apps AppStore
}

func NewAppHandler(apps AppStore) *AppHandler { return &AppHandler{Apps: apps} }

type appReq struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	DownloadURL    string  `json:"download_url"`
	ImageURL       string  `json:"image_url"`
	CreatedBy      *uint64 `json:"created_by"`
	LastModifiedBy *uint64 `json:"last_modified_by"`
}

type appResp struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	DownloadURL       string    `json:"download_url"`
	ImageURL          string    `json:"image_url"`
	CreatedBy         *uint64   `json:"created_by"`
	LastModifiedBy    *uint64   `json:"last_modified_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedByUsername string    `json:"created_by_username"`
}

// List returns the public catalog with each entry's creator username.
func (h *AppHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	apps, err := h.Apps.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]appResp, 0, len(apps))
	for _, a := range apps {
		out = append(out, appResp{
			ID:                a.ID,
			Name:              a.Name,
			Description:       a.Description,
			DownloadURL:       a.DownloadURL,
			ImageURL:          a.ImageURL,
			CreatedBy:         a.CreatedBy,
			LastModifiedBy:    a.LastModifiedBy,
			CreatedAt:         a.CreatedAt,
			UpdatedAt:         a.UpdatedAt,
			CreatedByUsername: a.CreatedByUsername,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a catalog entry.
func (h *AppHandler) Create(c echo.Context) error {
	var req appReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.CreatedBy == nil || req.LastModifiedBy == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, created_by and last_modified_by are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Apps.Create(ctx, model.WindowsApp{
		Name:           req.Name,
		Description:    req.Description,
		DownloadURL:    req.DownloadURL,
		ImageURL:       req.ImageURL,
		CreatedBy:      req.CreatedBy,
		LastModifiedBy: req.LastModifiedBy,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create app failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "App created successfully", "id": id})
}

// Update rewrites a catalog entry.
func (h *AppHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req appReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.LastModifiedBy == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and last_modified_by are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err = h.Apps.Update(ctx, id, model.WindowsApp{
		Name:           req.Name,
		Description:    req.Description,
		DownloadURL:    req.DownloadURL,
		ImageURL:       req.ImageURL,
		LastModifiedBy: req.LastModifiedBy,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update app failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "App updated successfully"})
}

// Delete removes a catalog entry.
func (h *AppHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Apps.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAppNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "app not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete app failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "App deleted successfully"})
}

// Count returns the number of catalog entries.
func (h *AppHandler) Count(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Apps.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}
