package handler // handler defines HTTP handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/recurrence"
	"github.com/comuna/facility-events/internal/schedule"
)

// getUserID extracts the user_id set by the JWT middleware and
// converts it to uint64.  JWT numeric claims round-trip as float64,
// so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim set by the JWT middleware.
func getRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// canModify reports whether the caller may mutate the event: the
// author always can, admins can mutate anything.
func canModify(c echo.Context, ev *model.Event) bool {
	uid, err := getUserID(c)
	if err != nil {
		return false
	}
	return ev.UserID == uid || getRole(c) == model.RoleAdmin
}

// eventBody is the JSON payload for creating, updating and
// availability-checking events.  Datetimes are RFC3339; the
// recurrence end date is a plain YYYY-MM-DD.
type eventBody struct {
	FacilityID           *uint64 `json:"facility_id"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	StartDatetime        string  `json:"start_datetime"`
	EndDatetime          string  `json:"end_datetime"`
	RecurrenceType       string  `json:"recurrence_type"`
	RecurrenceDaysOfWeek []int   `json:"recurrence_days_of_week"`
	RecurrenceEndDate    string  `json:"recurrence_end_date"`
}

// toEvent converts the payload into a model.Event, validating formats
// as it goes.  The returned error messages are safe to surface as 400
// responses.
func (b eventBody) toEvent() (model.Event, error) {
	var ev model.Event

	start := strings.TrimSpace(b.StartDatetime)
	if start == "" {
		return ev, errors.New("start_datetime is required")
	}
	startT, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return ev, errors.New("invalid start_datetime format")
	}
	ev.StartsAt = startT.UTC()

	if end := strings.TrimSpace(b.EndDatetime); end != "" {
		endT, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return ev, errors.New("invalid end_datetime format")
		}
		u := endT.UTC()
		ev.EndsAt = &u
	}

	kind, err := recurrence.ParseKind(b.RecurrenceType)
	if err != nil {
		return ev, errors.New("invalid recurrence_type")
	}
	rule := recurrence.Rule{Kind: kind}
	for _, n := range b.RecurrenceDaysOfWeek {
		if n < 0 || n > 6 {
			return ev, errors.New("recurrence_days_of_week values must be 0 (Sunday) through 6 (Saturday)")
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(n))
	}
	if d := strings.TrimSpace(b.RecurrenceEndDate); d != "" {
		endDate, err := time.Parse("2006-01-02", d)
		if err != nil {
			return ev, errors.New("invalid recurrence_end_date format (want YYYY-MM-DD)")
		}
		u := endDate.UTC()
		rule.EndDate = &u
	}
	ev.Recurrence = rule

	ev.FacilityID = b.FacilityID
	ev.Title = strings.TrimSpace(b.Title)
	ev.Description = strings.TrimSpace(b.Description)
	return ev, nil
}

// eventResp is the JSON view of an event.
type eventResp struct {
	ID                   uint64  `json:"id"`
	UserID               uint64  `json:"user_id"`
	FacilityID           *uint64 `json:"facility_id,omitempty"`
	Title                string  `json:"title"`
	Description          string  `json:"description,omitempty"`
	StartDatetime        string  `json:"start_datetime"`
	EndDatetime          string  `json:"end_datetime,omitempty"`
	RecurrenceType       string  `json:"recurrence_type"`
	RecurrenceDaysOfWeek []int   `json:"recurrence_days_of_week,omitempty"`
	RecurrenceEndDate    string  `json:"recurrence_end_date,omitempty"`
	Status               string  `json:"status"`
	IsActive             bool    `json:"is_active"`
}

func toEventResp(ev model.Event) eventResp {
	resp := eventResp{
		ID:             ev.ID,
		UserID:         ev.UserID,
		FacilityID:     ev.FacilityID,
		Title:          ev.Title,
		Description:    ev.Description,
		StartDatetime:  ev.StartsAt.Format(time.RFC3339),
		RecurrenceType: string(ev.Recurrence.Kind),
		Status:         ev.Status,
		IsActive:       ev.IsActive,
	}
	if ev.EndsAt != nil {
		resp.EndDatetime = ev.EndsAt.Format(time.RFC3339)
	}
	for _, d := range ev.Recurrence.Weekdays {
		resp.RecurrenceDaysOfWeek = append(resp.RecurrenceDaysOfWeek, int(d))
	}
	if ev.Recurrence.EndDate != nil {
		resp.RecurrenceEndDate = ev.Recurrence.EndDate.Format("2006-01-02")
	}
	return resp
}

// conflictResp describes one conflicting event in 409 and
// availability responses.  The datetimes are those of the overlapping
// occurrence, not the event's base interval.
type conflictResp struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	StartDatetime string `json:"start_datetime"`
	EndDatetime   string `json:"end_datetime"`
}

func toConflictResps(conflicts []schedule.Conflict) []conflictResp {
	out := make([]conflictResp, 0, len(conflicts))
	for _, cf := range conflicts {
		out = append(out, conflictResp{
			ID:            cf.Event.ID,
			Title:         cf.Event.Title,
			StartDatetime: cf.Occurrence.Start.Format(time.RFC3339),
			EndDatetime:   cf.Occurrence.End.Format(time.RFC3339),
		})
	}
	return out
}

// conflictJSON is the 409 payload contract: detail plus a stable
// machine-readable error code.
func conflictJSON(c echo.Context, conflicts []schedule.Conflict) error {
	return c.JSON(http.StatusConflict, echo.Map{
		"detail":             "event overlaps existing bookings at this facility",
		"error_code":         "CONFLICT_DETECTED",
		"conflicting_events": toConflictResps(conflicts),
	})
}

// validationError maps detector validation failures onto 400
// responses; any other error is reported as a 500 by the caller.
func validationError(c echo.Context, err error) (error, bool) {
	if errors.Is(err, recurrence.ErrInvalidRecurrence) || errors.Is(err, schedule.ErrInvalidInterval) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()}), true
	}
	return nil, false
}
