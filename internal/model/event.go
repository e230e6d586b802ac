package model

import (
	"time"

	"github.com/comuna/facility-events/internal/recurrence"
)

// Event statuses.  Only SCHEDULED events take part in conflict
// detection; cancelled and completed events release their facility.
const (
	StatusScheduled = "SCHEDULED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Event is a (possibly recurring) booking of a facility by a user.
// All instants are stored in UTC.  EndsAt is optional: an open-ended
// event occupies its start calendar day for overlap purposes.
// FacilityID is optional as well; events without a facility never
// contend with anything.
//
// Invariant: EndsAt, when present, is strictly after StartsAt.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – author of the event.
//  FacilityID  – facility being booked (nullable).
//  Title       – event title.
//  Description – free-form description.
//  StartsAt    – first (base) start instant, UTC.
//  EndsAt      – base end instant, UTC (nullable = open-ended).
//  Recurrence  – recurrence rule expanded on demand into occurrences.
//  Status      – SCHEDULED, CANCELLED or COMPLETED.
//  IsActive    – inactive events never conflict and are hidden from guests.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64          // events.id
	UserID      uint64          // events.user_id
	FacilityID  *uint64         // events.facility_id (nullable)
	Title       string          // events.title
	Description string          // events.description
	StartsAt    time.Time       // events.starts_at
	EndsAt      *time.Time      // events.ends_at (nullable)
	Recurrence  recurrence.Rule // events.recurrence_* columns
	Status      string          // events.status
	IsActive    bool            // events.is_active
	CreatedAt   time.Time       // events.created_at
	UpdatedAt   time.Time       // events.updated_at
}
