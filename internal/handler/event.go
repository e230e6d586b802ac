package handler // handler package contains event handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/comuna/facility-events/internal/config"
	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/queue"
	"github.com/comuna/facility-events/internal/repository"
	"github.com/comuna/facility-events/internal/schedule"
	queue_publisher "github.com/comuna/facility-events/internal/service"
)

// EventHandler bundles the dependencies of the event endpoints: the
// event and facility repositories, plus the conflict detector that
// gates every create and update.
type EventHandler struct {
	Cfg        config.Config
	Events     *repository.EventRepo
	Facilities *repository.FacilityRepo
	Detector   *schedule.Detector
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(cfg config.Config, events *repository.EventRepo, facilities *repository.FacilityRepo, det *schedule.Detector) *EventHandler {
	if events == nil || facilities == nil || det == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Cfg: cfg, Events: events, Facilities: facilities, Detector: det}
}

// CreateEvent handles POST /v1/events.  The candidate runs through
// the conflict detector before anything is persisted; a conflict
// yields 409 with the CONFLICT_DETECTED error code and is not a
// server fault.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body eventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, err := body.toEvent()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if ev.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	ev.UserID = userID

	ctx := c.Request().Context()
	if ev.FacilityID != nil {
		fac, err := h.Facilities.GetByID(ctx, *ev.FacilityID)
		if err != nil {
			if errors.Is(err, repository.ErrFacilityNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load facility"})
		}
		if !fac.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "facility is not active"})
		}
	}

	conflicts, err := h.Detector.FindConflicts(ctx, ev, 0)
	if err != nil {
		if resp, ok := validationError(c, err); ok {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if len(conflicts) > 0 {
		return conflictJSON(c, conflicts)
	}

	if err := h.Events.Create(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create event"})
	}

	h.publishScheduled(ctx, ev)
	return c.JSON(http.StatusCreated, toEventResp(ev))
}

// ListEvents handles GET /v1/events with optional filters: facility,
// status, is_active, start_from, start_to, search.  Without an
// explicit is_active filter only active events are listed, matching
// the guest view.
func (h *EventHandler) ListEvents(c echo.Context) error {
	var f repository.EventFilter

	if v := c.QueryParam("facility"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid facility"})
		}
		f.FacilityID = &id
	}
	f.Status = c.QueryParam("status")
	switch c.QueryParam("is_active") {
	case "true":
		t := true
		f.IsActive = &t
	case "false":
		t := false
		f.IsActive = &t
	case "":
		t := true
		f.IsActive = &t
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid is_active"})
	}
	for param, dst := range map[string]**time.Time{"start_from": &f.StartFrom, "start_to": &f.StartTo} {
		if v := c.QueryParam(param); v != "" {
			t, err := parseDateOrDatetime(v)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + param})
			}
			*dst = &t
		}
	}
	f.Search = c.QueryParam("search")

	events, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
	}
	items := make([]eventResp, 0, len(events))
	for _, ev := range events {
		items = append(items, toEventResp(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, toEventResp(*ev))
}

// UpdateEvent handles PUT /v1/events/:id.  Only the author or an
// admin may update; the new window is re-checked for conflicts with
// the event itself excluded, so an unchanged window never collides
// with its own stored state.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	cur, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if !canModify(c, cur) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var body eventBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ev, err := body.toEvent()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if ev.Title == "" {
		ev.Title = cur.Title
	}
	ev.ID = cur.ID
	ev.UserID = cur.UserID
	ev.Status = cur.Status
	ev.IsActive = cur.IsActive

	if ev.FacilityID != nil {
		if _, err := h.Facilities.GetByID(ctx, *ev.FacilityID); err != nil {
			if errors.Is(err, repository.ErrFacilityNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load facility"})
		}
	}

	conflicts, err := h.Detector.FindConflicts(ctx, ev, ev.ID)
	if err != nil {
		if resp, ok := validationError(c, err); ok {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if len(conflicts) > 0 {
		return conflictJSON(c, conflicts)
	}

	if err := h.Events.Update(ctx, &ev); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update event"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// DeleteEvent handles DELETE /v1/events/:id.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	cur, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if !canModify(c, cur) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Events.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelEvent handles PATCH /v1/events/:id/cancel.  Cancelling frees
// the facility: cancelled events no longer take part in conflict
// detection.
func (h *EventHandler) CancelEvent(c echo.Context) error {
	return h.setStatus(c, model.StatusCancelled)
}

// CompleteEvent handles PATCH /v1/events/:id/complete.
func (h *EventHandler) CompleteEvent(c echo.Context) error {
	return h.setStatus(c, model.StatusCompleted)
}

func (h *EventHandler) setStatus(c echo.Context, status string) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	cur, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	if !canModify(c, cur) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Events.SetStatus(ctx, id, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update status"})
	}
	fresh, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, toEventResp(*fresh))
}

// publishScheduled emits the event.scheduled message.  Failures are
// logged inside the publisher and deliberately ignored here: the
// booking is already durable and messaging must not fail the request.
func (h *EventHandler) publishScheduled(ctx context.Context, ev model.Event) {
	msg := queue.EventScheduledMessage{
		EventID:     ev.ID,
		UserID:      ev.UserID,
		FacilityID:  ev.FacilityID,
		Title:       ev.Title,
		StartsAt:    ev.StartsAt.Format(time.RFC3339),
		Recurrence:  string(ev.Recurrence.Kind),
		ScheduledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if ev.EndsAt != nil {
		msg.EndsAt = ev.EndsAt.Format(time.RFC3339)
	}
	if ev.Recurrence.EndDate != nil {
		msg.RecurrenceEnd = ev.Recurrence.EndDate.Format("2006-01-02")
	}
	if ev.FacilityID != nil {
		if fac, err := h.Facilities.GetByID(ctx, *ev.FacilityID); err == nil {
			msg.FacilityName = fac.Name
		}
	}
	_ = queue_publisher.PublishEventScheduled(ctx, h.Cfg.AMQPURL, msg)
}

// parseDateOrDatetime accepts either a bare date (YYYY-MM-DD) or a
// full RFC3339 datetime, matching the filter formats of the API.
func parseDateOrDatetime(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
