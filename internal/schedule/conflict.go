// Package schedule implements facility conflict detection: deciding
// whether a candidate event's occurrences overlap any active event
// already booked at the same facility.  The check is advisory — it is
// a pre-save gate, not a replacement for a storage-level constraint
// against two concurrent creations racing each other.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/recurrence"
)

// ErrInvalidInterval reports an event whose end instant is not
// strictly after its start.  Creation rejects such events already;
// the detector re-checks defensively.
var ErrInvalidInterval = errors.New("event end must be after start")

// EventSource supplies the stored events the detector compares
// against.  The repository implements it; tests use an in-memory fake.
type EventSource interface {
	// ActiveByFacility returns all active SCHEDULED events booked at the
	// facility, excluding the event with excludeID (0 = exclude none).
	ActiveByFacility(ctx context.Context, facilityID, excludeID uint64) ([]model.Event, error)
}

// Conflict pairs a stored event with the first of its occurrences
// found to overlap the candidate.
type Conflict struct {
	Event      model.Event
	Occurrence recurrence.Occurrence
}

// Detector performs conflict detection against an EventSource.
// HorizonDays bounds expansion of rules without an end date; zero
// falls back to recurrence.DefaultHorizonDays.
type Detector struct {
	Events      EventSource
	HorizonDays int
}

// NewDetector constructs a Detector.
func NewDetector(src EventSource, horizonDays int) *Detector {
	return &Detector{Events: src, HorizonDays: horizonDays}
}

// FindConflicts returns every active event at the candidate's facility
// (other than excludeID) that has at least one occurrence overlapping
// an occurrence of the candidate.  Each conflicting event appears at
// most once.  A candidate without a facility yields no conflicts.
// The operation is a pure read: it never writes and is deterministic
// for a given snapshot and horizon.
func (d *Detector) FindConflicts(ctx context.Context, candidate model.Event, excludeID uint64) ([]Conflict, error) {
	if candidate.FacilityID == nil {
		return nil, nil
	}
	if err := checkInterval(candidate); err != nil {
		return nil, err
	}
	if err := candidate.Recurrence.Validate(candidate.StartsAt); err != nil {
		return nil, err
	}

	winStart, winEnd := d.window(candidate)
	candOccs, err := recurrence.Expand(candidate.StartsAt, occurrenceEnd(candidate), candidate.Recurrence, winStart, winEnd)
	if err != nil {
		return nil, err
	}

	existing, err := d.Events.ActiveByFacility(ctx, *candidate.FacilityID, excludeID)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, ev := range existing {
		if err := checkInterval(ev); err != nil {
			return nil, err
		}
		occs, err := recurrence.Expand(ev.StartsAt, occurrenceEnd(ev), ev.Recurrence, winStart, winEnd)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.ID, err)
		}
		if occ, ok := firstOverlap(occs, candOccs); ok {
			conflicts = append(conflicts, Conflict{Event: ev, Occurrence: occ})
		}
	}
	return conflicts, nil
}

// window derives the comparison window for an availability check.  It
// opens at the candidate's base start and closes at the candidate's
// recurrence end date when one is set, or at the booking horizon
// otherwise.  The close is then pushed out by the candidate's base
// occurrence duration: the candidate's final occurrence may run past
// the bound, and a stored occurrence starting inside that tail must
// still be expanded.  Stored events are expanded within the same
// window, so the whole check stays bounded even for open-ended
// recurrences.
func (d *Detector) window(candidate model.Event) (time.Time, time.Time) {
	start := candidate.StartsAt
	horizon := d.HorizonDays
	if horizon <= 0 {
		horizon = recurrence.DefaultHorizonDays
	}
	end := start.AddDate(0, 0, horizon)
	if candidate.Recurrence.Recurring() && candidate.Recurrence.EndDate != nil {
		d := candidate.Recurrence.EndDate
		end = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	}
	end = end.Add(occurrenceEnd(candidate).Sub(candidate.StartsAt))
	return start, end
}

// firstOverlap returns the first stored occurrence overlapping any
// candidate occurrence.  Scanning stops at the first hit so a stored
// event is reported once no matter how many of its occurrences clash.
func firstOverlap(stored, cand []recurrence.Occurrence) (recurrence.Occurrence, bool) {
	for _, so := range stored {
		for _, co := range cand {
			if so.Overlaps(co) {
				return so, true
			}
		}
	}
	return recurrence.Occurrence{}, false
}

// occurrenceEnd resolves the end of an event's base occurrence.  An
// open-ended event (no end instant) occupies its start calendar day:
// the occurrence closes at midnight after the start.
func occurrenceEnd(ev model.Event) time.Time {
	if ev.EndsAt != nil {
		return *ev.EndsAt
	}
	s := ev.StartsAt
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location()).AddDate(0, 0, 1)
}

func checkInterval(ev model.Event) error {
	if ev.EndsAt != nil && !ev.EndsAt.After(ev.StartsAt) {
		return fmt.Errorf("%w (event %d)", ErrInvalidInterval, ev.ID)
	}
	return nil
}
