// This file defines the WindowsApp repository: CRUD and count queries over
// the windows_apps catalog table. List queries join users so public responses
// can show who published an app without a second round-trip.
package repository

import (
	"context"
	"database/sql"

	"github.com/jorisdh/appdepot/internal/model"
)

// AppRepo encapsulates all database queries related to catalog entries.
type AppRepo struct{ DB *sql.DB }

// NewAppRepo constructs an AppRepo with the provided DB handle, allowing
// dependency injection of the database in tests and at startup.
func NewAppRepo(db *sql.DB) *AppRepo { return &AppRepo{DB: db} }

// List returns every catalog entry with the creator's username joined in.
// A LEFT JOIN keeps apps whose creator was deleted (created_by is NULL).
func (r *AppRepo) List(ctx context.Context) ([]model.WindowsApp, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.name, COALESCE(a.description,''), COALESCE(a.download_url,''),
		        COALESCE(a.image_url,''), a.created_by, a.last_modified_by,
		        a.created_at, a.updated_at, COALESCE(u.username,'')
		 FROM windows_apps a
		 LEFT JOIN users u ON a.created_by = u.id
		 ORDER BY a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WindowsApp
	for rows.Next() {
		var (
			a                  model.WindowsApp
			createdBy, modifBy sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.DownloadURL,
			&a.ImageURL, &createdBy, &modifBy, &a.CreatedAt, &a.UpdatedAt,
			&a.CreatedByUsername); err != nil {
			return nil, err
		}
		if createdBy.Valid {
			v := uint64(createdBy.Int64)
			a.CreatedBy = &v
		}
		if modifBy.Valid {
			v := uint64(modifBy.Int64)
			a.LastModifiedBy = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a catalog entry and returns its ID.
func (r *AppRepo) Create(ctx context.Context, a model.WindowsApp) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO windows_apps (name, description, download_url, image_url, created_by, last_modified_by)
		 VALUES (?,?,?,?,?,?)`,
		a.Name, a.Description, a.DownloadURL, a.ImageURL, a.CreatedBy, a.LastModifiedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a catalog entry and bumps updated_at. ErrAppNotFound is
// returned when the id matches no row.
func (r *AppRepo) Update(ctx context.Context, id uint64, a model.WindowsApp) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE windows_apps
		 SET name = ?, description = ?, download_url = ?, image_url = ?, last_modified_by = ?, updated_at = NOW()
		 WHERE id = ?`,
		a.Name, a.Description, a.DownloadURL, a.ImageURL, a.LastModifiedBy, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a catalog entry.
func (r *AppRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM windows_apps WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Count returns the number of catalog entries.
func (r *AppRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM windows_apps").Scan(&n)
	return n, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppNotFound
	}
	return nil
}
