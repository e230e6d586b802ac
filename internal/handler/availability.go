package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// availabilityBody extends the event payload with the optional
// exclude_event_id used for edit-in-place checks.
type availabilityBody struct {
	eventBody
	ExcludeEventID uint64 `json:"exclude_event_id"`
}

// CheckAvailability handles POST /v1/check-availability.  It runs the
// conflict detector without persisting anything, so clients can probe
// a time window before submitting a booking.  The response always has
// HTTP 200; the outcome lives in has_conflict.
func (h *EventHandler) CheckAvailability(c echo.Context) error {
	var body availabilityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FacilityID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "facility_id is required"})
	}
	cand, err := body.toEvent()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	conflicts, err := h.Detector.FindConflicts(c.Request().Context(), cand, body.ExcludeEventID)
	if err != nil {
		if resp, ok := validationError(c, err); ok {
			return resp
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"has_conflict":       len(conflicts) > 0,
		"conflicting_events": toConflictResps(conflicts),
	})
}
