package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comuna/facility-events/internal/model"
	"github.com/comuna/facility-events/internal/schedule"
)

// stubSource returns a fixed set of events for any facility.
type stubSource struct {
	events []model.Event
}

func (s *stubSource) ActiveByFacility(_ context.Context, facilityID, excludeID uint64) ([]model.Event, error) {
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.FacilityID == nil || *ev.FacilityID != facilityID || ev.ID == excludeID {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func availabilityRequest(t *testing.T, h *EventHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/check-availability", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CheckAvailability(e.NewContext(req, rec)))
	return rec
}

func storedEvent(id, facilityID uint64, start, end string) model.Event {
	st, _ := time.Parse(time.RFC3339, start)
	en, _ := time.Parse(time.RFC3339, end)
	return model.Event{
		ID:         id,
		FacilityID: &facilityID,
		Title:      "standing booking",
		StartsAt:   st,
		EndsAt:     &en,
		Status:     model.StatusScheduled,
		IsActive:   true,
	}
}

func TestCheckAvailabilityConflict(t *testing.T) {
	src := &stubSource{events: []model.Event{
		storedEvent(7, 1, "2025-06-10T10:00:00Z", "2025-06-10T12:00:00Z"),
	}}
	h := &EventHandler{Detector: schedule.NewDetector(src, 0)}

	rec := availabilityRequest(t, h, `{
		"facility_id": 1,
		"title": "probe",
		"start_datetime": "2025-06-10T11:00:00Z",
		"end_datetime": "2025-06-10T13:00:00Z"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		HasConflict bool `json:"has_conflict"`
		Conflicts   []struct {
			ID            uint64 `json:"id"`
			Title         string `json:"title"`
			StartDatetime string `json:"start_datetime"`
			EndDatetime   string `json:"end_datetime"`
		} `json:"conflicting_events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasConflict)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, uint64(7), resp.Conflicts[0].ID)
	assert.Equal(t, "standing booking", resp.Conflicts[0].Title)
	assert.Equal(t, "2025-06-10T10:00:00Z", resp.Conflicts[0].StartDatetime)
}

func TestCheckAvailabilityFree(t *testing.T) {
	src := &stubSource{events: []model.Event{
		storedEvent(7, 1, "2025-06-10T10:00:00Z", "2025-06-10T12:00:00Z"),
	}}
	h := &EventHandler{Detector: schedule.NewDetector(src, 0)}

	rec := availabilityRequest(t, h, `{
		"facility_id": 1,
		"start_datetime": "2025-06-10T12:00:00Z",
		"end_datetime": "2025-06-10T13:00:00Z"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		HasConflict bool              `json:"has_conflict"`
		Conflicts   []json.RawMessage `json:"conflicting_events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.HasConflict)
	assert.Empty(t, resp.Conflicts)
}

func TestCheckAvailabilityExcludesSelf(t *testing.T) {
	src := &stubSource{events: []model.Event{
		storedEvent(7, 1, "2025-06-10T10:00:00Z", "2025-06-10T12:00:00Z"),
	}}
	h := &EventHandler{Detector: schedule.NewDetector(src, 0)}

	rec := availabilityRequest(t, h, `{
		"facility_id": 1,
		"exclude_event_id": 7,
		"start_datetime": "2025-06-10T10:00:00Z",
		"end_datetime": "2025-06-10T12:00:00Z"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"has_conflict":false`)
}

func TestCheckAvailabilityValidation(t *testing.T) {
	h := &EventHandler{Detector: schedule.NewDetector(&stubSource{}, 0)}

	t.Run("missing facility_id", func(t *testing.T) {
		rec := availabilityRequest(t, h, `{"start_datetime": "2025-06-10T10:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad start_datetime", func(t *testing.T) {
		rec := availabilityRequest(t, h, `{"facility_id": 1, "start_datetime": "not-a-time"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("end before start", func(t *testing.T) {
		rec := availabilityRequest(t, h, `{
			"facility_id": 1,
			"start_datetime": "2025-06-10T12:00:00Z",
			"end_datetime": "2025-06-10T10:00:00Z"
		}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("weekly without days", func(t *testing.T) {
		rec := availabilityRequest(t, h, `{
			"facility_id": 1,
			"start_datetime": "2025-06-10T12:00:00Z",
			"end_datetime": "2025-06-10T13:00:00Z",
			"recurrence_type": "weekly"
		}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
