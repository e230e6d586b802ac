package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/recurrence"
)

const eventColumns = `id, user_id, facility_id, title, description, starts_at, ends_at,
    recurrence_type, recurrence_days, recurrence_end_date, status, is_active, created_at, updated_at`

// EventRepo manages persistence for events.  Recurrence rules are
// flattened into three columns (type, weekday CSV, end date) and
// reassembled into a recurrence.Rule on the way out.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventFilter narrows List results.  Nil/zero fields are ignored.
type EventFilter struct {
	FacilityID *uint64
	Status     string
	IsActive   *bool
	StartFrom  *time.Time
	StartTo    *time.Time
	Search     string
}

// Create inserts a new event and populates the generated ID and
// DB-default fields on the given struct.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events
               (user_id, facility_id, title, description, starts_at, ends_at,
                recurrence_type, recurrence_days, recurrence_end_date)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.UserID, nullID(ev.FacilityID), ev.Title, ev.Description,
		ev.StartsAt.UTC(), nullTime(ev.EndsAt),
		string(ev.Recurrence.Kind), recurrence.FormatWeekdays(ev.Recurrence.Weekdays), nullTime(ev.Recurrence.EndDate),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	fresh, err := r.GetByID(ctx, ev.ID)
	if err != nil {
		return err
	}
	*ev = *fresh
	return nil
}

// GetByID retrieves an event, returning ErrEventNotFound when no row
// matches.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	ev, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return ev, nil
}

// List returns events matching the filter, ordered by start time.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []any
	if f.FacilityID != nil {
		q += ` AND facility_id = ?`
		args = append(args, *f.FacilityID)
	}
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.IsActive != nil {
		q += ` AND is_active = ?`
		args = append(args, *f.IsActive)
	}
	if f.StartFrom != nil {
		q += ` AND starts_at >= ?`
		args = append(args, f.StartFrom.UTC())
	}
	if f.StartTo != nil {
		q += ` AND starts_at <= ?`
		args = append(args, f.StartTo.UTC())
	}
	if f.Search != "" {
		q += ` AND (title LIKE ? OR description LIKE ?)`
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	q += ` ORDER BY starts_at ASC`
	return r.queryEvents(ctx, q, args...)
}

// ActiveByFacility returns all active SCHEDULED events booked at the
// facility, excluding the event with excludeID (0 = exclude none).
// This is the snapshot the conflict detector compares against.
func (r *EventRepo) ActiveByFacility(ctx context.Context, facilityID, excludeID uint64) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events
          WHERE facility_id = ? AND is_active = 1 AND status = ? AND id <> ?
          ORDER BY starts_at ASC`
	return r.queryEvents(ctx, q, facilityID, model.StatusScheduled, excludeID)
}

// Update rewrites the mutable columns of an event and returns the
// fresh row.  ErrEventNotFound is returned when the row is missing.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	const q = `UPDATE events
               SET facility_id = ?, title = ?, description = ?, starts_at = ?, ends_at = ?,
                   recurrence_type = ?, recurrence_days = ?, recurrence_end_date = ?,
                   status = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		nullID(ev.FacilityID), ev.Title, ev.Description, ev.StartsAt.UTC(), nullTime(ev.EndsAt),
		string(ev.Recurrence.Kind), recurrence.FormatWeekdays(ev.Recurrence.Weekdays), nullTime(ev.Recurrence.EndDate),
		ev.Status, ev.IsActive, ev.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, ev.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}
	}
	fresh, err := r.GetByID(ctx, ev.ID)
	if err != nil {
		return err
	}
	*ev = *fresh
	return nil
}

// SetStatus transitions an event to the given status (cancel or
// complete actions).
func (r *EventRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE events SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes an event.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepo) queryEvents(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent maps one row onto a model.Event, reassembling the
// recurrence rule from its flattened columns.
func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		ev         model.Event
		facilityID sql.NullInt64
		endsAt     sql.NullTime
		recKind    string
		recDays    string
		recEnd     sql.NullTime
	)
	err := s.Scan(
		&ev.ID, &ev.UserID, &facilityID, &ev.Title, &ev.Description, &ev.StartsAt, &endsAt,
		&recKind, &recDays, &recEnd, &ev.Status, &ev.IsActive, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if facilityID.Valid {
		id := uint64(facilityID.Int64)
		ev.FacilityID = &id
	}
	if endsAt.Valid {
		t := endsAt.Time.UTC()
		ev.EndsAt = &t
	}
	kind, err := recurrence.ParseKind(recKind)
	if err != nil {
		return nil, err
	}
	days, err := recurrence.ParseWeekdays(recDays)
	if err != nil {
		return nil, err
	}
	ev.Recurrence = recurrence.Rule{Kind: kind, Weekdays: days}
	if recEnd.Valid {
		t := recEnd.Time.UTC()
		ev.Recurrence.EndDate = &t
	}
	ev.StartsAt = ev.StartsAt.UTC()
	return &ev, nil
}

func nullID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
