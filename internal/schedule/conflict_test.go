package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/recurrence"
)

// fakeSource mimics the repository query: active SCHEDULED events of
// one facility, minus the excluded ID.
type fakeSource struct {
	events []model.Event
	err    error
}

func (f *fakeSource) ActiveByFacility(ctx context.Context, facilityID, excludeID uint64) ([]model.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Event
	for _, ev := range f.events {
		if ev.FacilityID == nil || *ev.FacilityID != facilityID {
			continue
		}
		if !ev.IsActive || ev.Status != model.StatusScheduled {
			continue
		}
		if excludeID != 0 && ev.ID == excludeID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func uintp(v uint64) *uint64 { return &v }

func timep(t time.Time) *time.Time { return &t }

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func single(id, facility uint64, start, end time.Time) model.Event {
	return model.Event{
		ID:         id,
		FacilityID: uintp(facility),
		Title:      "event",
		StartsAt:   start,
		EndsAt:     timep(end),
		Recurrence: recurrence.Rule{Kind: recurrence.None},
		Status:     model.StatusScheduled,
		IsActive:   true,
	}
}

// weeklyTueThu is the fixture from the booking scenario: Tue/Thu
// 17:00–19:00 from 2025-06-10 through 2025-07-30 at facility 1.
func weeklyTueThu(id uint64) model.Event {
	until := time.Date(2025, time.July, 30, 0, 0, 0, 0, time.UTC)
	ev := single(id, 1, at(2025, time.June, 10, 17, 0), at(2025, time.June, 10, 19, 0))
	ev.Recurrence = recurrence.Rule{
		Kind:     recurrence.Weekly,
		Weekdays: []time.Weekday{time.Tuesday, time.Thursday},
		EndDate:  &until,
	}
	return ev
}

func TestFindConflictsDisjointSingles(t *testing.T) {
	src := &fakeSource{events: []model.Event{
		single(1, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0)),
	}}
	d := NewDetector(src, 0)

	// Back-to-back: candidate starts exactly when the stored event ends.
	cand := single(0, 1, at(2025, time.June, 10, 16, 0), at(2025, time.June, 10, 18, 0))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Fully before.
	cand = single(0, 1, at(2025, time.June, 10, 10, 0), at(2025, time.June, 10, 12, 0))
	conflicts, err = d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsOverlappingSingles(t *testing.T) {
	stored := single(7, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 10, 15, 0), at(2025, time.June, 10, 17, 0))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(7), conflicts[0].Event.ID)
	assert.Equal(t, stored.StartsAt, conflicts[0].Occurrence.Start)
}

func TestFindConflictsDifferentFacilities(t *testing.T) {
	src := &fakeSource{events: []model.Event{
		single(1, 2, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0)),
	}}
	d := NewDetector(src, 0)

	// Identical times, different facility.
	cand := single(0, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsIgnoresInactiveAndNonScheduled(t *testing.T) {
	inactive := single(1, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	inactive.IsActive = false
	cancelled := single(2, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	cancelled.Status = model.StatusCancelled
	src := &fakeSource{events: []model.Event{inactive, cancelled}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsNoFacility(t *testing.T) {
	src := &fakeSource{events: []model.Event{
		single(1, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0)),
	}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	cand.FacilityID = nil
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Nil(t, conflicts)
}

func TestFindConflictsWeeklyAgainstSingle(t *testing.T) {
	// Stored: weekly Tue/Thu 17:00–19:00. Candidate: Thu 2025-06-12
	// 18:00–18:30 falls inside a Thursday occurrence.
	src := &fakeSource{events: []model.Event{weeklyTueThu(3)}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 12, 18, 0), at(2025, time.June, 12, 18, 30))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(3), conflicts[0].Event.ID)
	assert.Equal(t, at(2025, time.June, 12, 17, 0), conflicts[0].Occurrence.Start)
	assert.Equal(t, at(2025, time.June, 12, 19, 0), conflicts[0].Occurrence.End)
}

func TestFindConflictsWeeklySkipsOffDays(t *testing.T) {
	// Wednesday is not in {Tue, Thu}: no conflict.
	src := &fakeSource{events: []model.Event{weeklyTueThu(3)}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 11, 18, 0), at(2025, time.June, 11, 18, 30))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsRecurringCandidate(t *testing.T) {
	// Reversed roles: the candidate recurs, a stored single event sits
	// on one of its Thursday occurrences.
	src := &fakeSource{events: []model.Event{
		single(9, 1, at(2025, time.July, 3, 18, 30), at(2025, time.July, 3, 19, 30)),
	}}
	d := NewDetector(src, 0)

	conflicts, err := d.FindConflicts(context.Background(), weeklyTueThu(0), 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(9), conflicts[0].Event.ID)
}

func TestFindConflictsDeduplicatesPerEvent(t *testing.T) {
	// Two weekly events clash on every Tuesday and Thursday for weeks,
	// yet the stored event is reported exactly once.
	src := &fakeSource{events: []model.Event{weeklyTueThu(3)}}
	d := NewDetector(src, 0)

	cand := weeklyTueThu(0)
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(3), conflicts[0].Event.ID)
}

func TestFindConflictsExcludeSelfOnEdit(t *testing.T) {
	// Editing an event with an unchanged window must not report a
	// conflict with its own stored state.
	stored := weeklyTueThu(3)
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 0)

	conflicts, err := d.FindConflicts(context.Background(), stored, stored.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsOpenEndedOccupiesStartDay(t *testing.T) {
	// Stored event with no end instant occupies 20:00 through midnight.
	stored := single(5, 1, at(2025, time.June, 10, 20, 0), at(2025, time.June, 10, 21, 0))
	stored.EndsAt = nil
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 10, 22, 0), at(2025, time.June, 10, 23, 0))
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	// The next day is free again.
	cand = single(0, 1, at(2025, time.June, 11, 0, 0), at(2025, time.June, 11, 1, 0))
	conflicts, err = d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFindConflictsInvalidCandidate(t *testing.T) {
	d := NewDetector(&fakeSource{}, 0)

	t.Run("end before start", func(t *testing.T) {
		cand := single(0, 1, at(2025, time.June, 10, 16, 0), at(2025, time.June, 10, 14, 0))
		_, err := d.FindConflicts(context.Background(), cand, 0)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("end equal to start", func(t *testing.T) {
		cand := single(0, 1, at(2025, time.June, 10, 16, 0), at(2025, time.June, 10, 16, 0))
		_, err := d.FindConflicts(context.Background(), cand, 0)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})

	t.Run("weekly without weekdays", func(t *testing.T) {
		cand := single(0, 1, at(2025, time.June, 10, 16, 0), at(2025, time.June, 10, 17, 0))
		cand.Recurrence = recurrence.Rule{Kind: recurrence.Weekly}
		_, err := d.FindConflicts(context.Background(), cand, 0)
		assert.ErrorIs(t, err, recurrence.ErrInvalidRecurrence)
	})

	t.Run("end date before start", func(t *testing.T) {
		cand := single(0, 1, at(2025, time.June, 10, 16, 0), at(2025, time.June, 10, 17, 0))
		until := at(2025, time.June, 1, 0, 0)
		cand.Recurrence = recurrence.Rule{Kind: recurrence.Weekly, Weekdays: []time.Weekday{time.Tuesday}, EndDate: &until}
		_, err := d.FindConflicts(context.Background(), cand, 0)
		assert.ErrorIs(t, err, recurrence.ErrInvalidRecurrence)
	})
}

func TestFindConflictsStoredEventWithoutRecurrenceSet(t *testing.T) {
	// Events built without touching Recurrence carry the zero-value
	// rule; the detector must treat it as non-repeating, not reject it.
	stored := model.Event{
		ID:         7,
		FacilityID: uintp(1),
		Title:      "event",
		StartsAt:   at(2025, time.June, 10, 14, 0),
		EndsAt:     timep(at(2025, time.June, 10, 16, 0)),
		Status:     model.StatusScheduled,
		IsActive:   true,
	}
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 0)

	cand := model.Event{
		FacilityID: uintp(1),
		StartsAt:   at(2025, time.June, 10, 15, 0),
		EndsAt:     timep(at(2025, time.June, 10, 17, 0)),
		Status:     model.StatusScheduled,
		IsActive:   true,
	}
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(7), conflicts[0].Event.ID)
}

func TestFindConflictsCatchesOverlapPastWindowEnd(t *testing.T) {
	// The candidate's last occurrence runs past its recurrence end
	// date: weekly Tuesday 23:00–01:00 ending 2025-06-10 reaches into
	// June 11.  A stored occurrence starting in that tail (Wednesday
	// 00:30–01:30) must still be found even though its start lies
	// beyond the candidate's end-date bound.
	stored := single(4, 1, at(2025, time.June, 4, 0, 30), at(2025, time.June, 4, 1, 30))
	storedUntil := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	stored.Recurrence = recurrence.Rule{
		Kind:     recurrence.Weekly,
		Weekdays: []time.Weekday{time.Wednesday},
		EndDate:  &storedUntil,
	}
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 0)

	cand := single(0, 1, at(2025, time.June, 10, 23, 0), at(2025, time.June, 11, 1, 0))
	candUntil := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	cand.Recurrence = recurrence.Rule{
		Kind:     recurrence.Weekly,
		Weekdays: []time.Weekday{time.Tuesday},
		EndDate:  &candUntil,
	}

	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, uint64(4), conflicts[0].Event.ID)
	assert.Equal(t, at(2025, time.June, 11, 0, 30), conflicts[0].Occurrence.Start)
}

func TestFindConflictsSourceError(t *testing.T) {
	boom := errors.New("db down")
	d := NewDetector(&fakeSource{err: boom}, 0)

	cand := single(0, 1, at(2025, time.June, 10, 14, 0), at(2025, time.June, 10, 16, 0))
	_, err := d.FindConflicts(context.Background(), cand, 0)
	assert.ErrorIs(t, err, boom)
}

func TestFindConflictsHorizonBoundsOpenEndedRecurrence(t *testing.T) {
	// Both events recur weekly without an end date but on disjoint
	// weekdays; the check terminates thanks to the horizon.
	stored := single(4, 1, at(2025, time.June, 9, 17, 0), at(2025, time.June, 9, 19, 0))
	stored.Recurrence = recurrence.Rule{Kind: recurrence.Weekly, Weekdays: []time.Weekday{time.Monday}}
	src := &fakeSource{events: []model.Event{stored}}
	d := NewDetector(src, 30)

	cand := single(0, 1, at(2025, time.June, 10, 17, 0), at(2025, time.June, 10, 19, 0))
	cand.Recurrence = recurrence.Rule{Kind: recurrence.Weekly, Weekdays: []time.Weekday{time.Tuesday}}
	conflicts, err := d.FindConflicts(context.Background(), cand, 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
