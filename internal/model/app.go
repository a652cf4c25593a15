package model

import "time"

// WindowsApp represents a catalog entry in the `windows_apps` table. Apps are
// site-owned content: CreatedBy and LastModifiedBy are nullable references to
// the users who touched the record and are set to NULL when that user is
// deleted, so the catalog entry survives its author.
type WindowsApp struct {
	ID             uint64    // windows_apps.id
	Name           string    // windows_apps.name
	Description    string    // windows_apps.description
	DownloadURL    string    // windows_apps.download_url
	ImageURL       string    // windows_apps.image_url
	CreatedBy      *uint64   // windows_apps.created_by (nullable FK -> users.id)
	LastModifiedBy *uint64   // windows_apps.last_modified_by (nullable FK -> users.id)
	CreatedAt      time.Time // windows_apps.created_at
	UpdatedAt      time.Time // windows_apps.updated_at

	// CreatedByUsername is populated by list queries that join users; it is
	// not a column of windows_apps itself.
	CreatedByUsername string
}
