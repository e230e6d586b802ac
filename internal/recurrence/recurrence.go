// Package recurrence models the repetition schedule of an event and
// expands it into concrete occurrences.  Rules are a tagged variant
// (none, weekly with a weekday set, monthly, yearly) so that invalid
// combinations are caught by Validate instead of leaking into storage.
// Expansion is always bounded: by the rule's end date, by the caller's
// window, and by a hard per-event occurrence cap.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrencesPerEvent is a safety cap so that a single event can
// never produce an unbounded expansion, whatever the window is.
const maxOccurrencesPerEvent = 1000

// DefaultHorizonDays bounds expansion of rules that have no end date.
const DefaultHorizonDays = 365

// ErrInvalidRecurrence reports a malformed recurrence descriptor.  It
// is a validation failure and is never retried.
var ErrInvalidRecurrence = errors.New("invalid recurrence")

// Kind enumerates the supported repetition cadences.
type Kind string

const (
	None    Kind = "none"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

// ParseKind converts a wire/DB string into a Kind.  The empty string
// means no recurrence.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", None:
		return None, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	}
	return None, fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrence, s)
}

// Rule describes how an event repeats.  Weekdays is only meaningful
// for Weekly.  EndDate, when set, is the last calendar day (inclusive,
// UTC) on which an occurrence may start; when nil, expansion is bounded
// by the caller's window instead.  The zero value is a valid
// non-repeating rule, same as Kind None.
type Rule struct {
	Kind     Kind
	Weekdays []time.Weekday
	EndDate  *time.Time
}

// kind resolves the empty Kind of a zero-value Rule to None, matching
// ParseKind.
func (r Rule) kind() Kind {
	if r.Kind == "" {
		return None
	}
	return r.Kind
}

// Recurring reports whether the rule repeats at all.
func (r Rule) Recurring() bool {
	return r.kind() != None
}

// Validate checks the rule against the event's base start instant.
// It returns an error wrapping ErrInvalidRecurrence when the rule is
// weekly without any weekday, when the kind is unknown, or when the
// end date precedes the start date.
func (r Rule) Validate(start time.Time) error {
	switch r.kind() {
	case None, Monthly, Yearly:
	case Weekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly requires at least one weekday", ErrInvalidRecurrence)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRecurrence, r.Kind)
	}
	if r.kind() != None && r.EndDate != nil {
		startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		if r.EndDate.Before(startDay) {
			return fmt.Errorf("%w: end date %s precedes start date", ErrInvalidRecurrence, r.EndDate.Format("2006-01-02"))
		}
	}
	return nil
}

// Occurrence is one concrete interval generated from an event's
// schedule.  Occurrences are ephemeral and never persisted.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect:
// startA < endB AND startB < endA.  Touching endpoints do not overlap.
func (o Occurrence) Overlaps(other Occurrence) bool {
	return o.Start.Before(other.End) && other.Start.Before(o.End)
}

// Expand generates the occurrences of an event whose base interval is
// [start, end) under rule r, limited to occurrences that may intersect
// [windowStart, windowEnd].  The base interval duration is preserved on
// every occurrence.  For Kind None exactly one occurrence is returned.
//
// The window keeps unbounded rules finite; callers derive windowEnd
// from the rule's end date or from the booking horizon.  Expansion is
// additionally capped at maxOccurrencesPerEvent.
func Expand(start, end time.Time, r Rule, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	if err := r.Validate(start); err != nil {
		return nil, err
	}
	if r.kind() == None {
		return []Occurrence{{Start: start, End: end}}, nil
	}

	dur := end.Sub(start)

	opt := rrule.ROption{Dtstart: start}
	switch r.kind() {
	case Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleWeekdays(r.Weekdays)
	case Monthly:
		opt.Freq = rrule.MONTHLY
	case Yearly:
		opt.Freq = rrule.YEARLY
	}
	if r.EndDate != nil {
		// Inclusive end date: occurrences may start any time on that day.
		d := r.EndDate.In(start.Location())
		opt.Until = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, start.Location())
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}

	// Widen the lower bound by one duration so an occurrence straddling
	// the window start is not missed; rrule filters on start instants.
	lo := windowStart.Add(-dur)
	if lo.Before(start) {
		lo = start
	}
	starts := rule.Between(lo, windowEnd, true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	occs := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		occs = append(occs, Occurrence{Start: s, End: s.Add(dur)})
	}
	return occs, nil
}

// ParseWeekdays converts a comma-separated list of weekday numbers
// (0 = Sunday … 6 = Saturday, the convention used on the wire and in
// the DB) into a sorted, de-duplicated weekday set.
func ParseWeekdays(csv string) ([]time.Weekday, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}
	seen := map[time.Weekday]bool{}
	var days []time.Weekday
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("%w: bad weekday %q", ErrInvalidRecurrence, part)
		}
		d := time.Weekday(n)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

// FormatWeekdays is the inverse of ParseWeekdays.
func FormatWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func toRRuleWeekdays(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		switch d {
		case time.Monday:
			out = append(out, rrule.MO)
		case time.Tuesday:
			out = append(out, rrule.TU)
		case time.Wednesday:
			out = append(out, rrule.WE)
		case time.Thursday:
			out = append(out, rrule.TH)
		case time.Friday:
			out = append(out, rrule.FR)
		case time.Saturday:
			out = append(out, rrule.SA)
		case time.Sunday:
			out = append(out, rrule.SU)
		}
	}
	return out
}
