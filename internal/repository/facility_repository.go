package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/comuna/facility-events/internal/model"
)

// FacilityRepo manages persistence for facilities.
type FacilityRepo struct {
	db *sql.DB
}

// NewFacilityRepo constructs a FacilityRepo with the given DB handle.
func NewFacilityRepo(db *sql.DB) *FacilityRepo {
	return &FacilityRepo{db: db}
}

// Create inserts a new facility and populates the generated ID and
// DB-default fields on the given struct.
func (r *FacilityRepo) Create(ctx context.Context, f *model.Facility) error {
	const q = `INSERT INTO facilities (owner_id, name, description, address, capacity) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.OwnerID, f.Name, f.Description, f.Address, f.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	const sel = `SELECT id, owner_id, name, description, address, capacity, is_active, created_at, updated_at
                 FROM facilities WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, f.ID).Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.Description, &f.Address, &f.Capacity, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	)
}

// GetByID retrieves a facility, returning ErrFacilityNotFound when no
// row matches.
func (r *FacilityRepo) GetByID(ctx context.Context, id uint64) (*model.Facility, error) {
	const q = `SELECT id, owner_id, name, description, address, capacity, is_active, created_at, updated_at
               FROM facilities WHERE id = ?`
	var f model.Facility
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.Description, &f.Address, &f.Capacity, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListAll returns every facility ordered by name.  When activeOnly is
// true, inactive facilities are filtered out (the guest view).
func (r *FacilityRepo) ListAll(ctx context.Context, activeOnly bool) ([]model.Facility, error) {
	q := `SELECT id, owner_id, name, description, address, capacity, is_active, created_at, updated_at
          FROM facilities`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Facility
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.Name, &f.Description, &f.Address, &f.Capacity, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the mutable columns of a facility.  It returns
// ErrFacilityNotFound when the row does not exist.
func (r *FacilityRepo) Update(ctx context.Context, f *model.Facility) error {
	const q = `UPDATE facilities
               SET name = ?, description = ?, address = ?, capacity = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Name, f.Description, f.Address, f.Capacity, f.IsActive, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "missing" from "no change".
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM facilities WHERE id = ?`, f.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrFacilityNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a facility.  Deletion is refused with ErrConflict
// while scheduled events still reference it, so bookings are never
// silently orphaned.
func (r *FacilityRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var one int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM facilities WHERE id = ?`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFacilityNotFound
		}
		return err
	}
	var evCount int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE facility_id = ? AND status = ?`, id, model.StatusScheduled,
	).Scan(&evCount); err != nil {
		return err
	}
	if evCount > 0 {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM facilities WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
