package model

import "time"

// Facility is a shared physical resource (a room, hall or field) that
// can host at most one event at any instant.  Events reference a
// facility to claim it for their occurrences; the conflict detector
// enforces that claims never overlap.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – admin user managing the facility.
//  Name        – human-readable facility name.
//  Description – free-form description.
//  Address     – physical address.
//  Capacity    – maximum number of attendees.
//  IsActive    – inactive facilities accept no new events.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Facility struct {
	ID          uint64    // facilities.id
	OwnerID     uint64    // facilities.owner_id
	Name        string    // facilities.name
	Description string    // facilities.description
	Address     string    // facilities.address
	Capacity    uint32    // facilities.capacity
	IsActive    bool      // facilities.is_active
	CreatedAt   time.Time // facilities.created_at
	UpdatedAt   time.Time // facilities.updated_at
}
