package executor

import (
	"context"
	"fmt"
	"time"

	"action-dispatch-service/internal/models"
)

const dateTimeLayout = "2006-01-02T15:04"

// executeCalendar creates a calendar event with an attached conference.
// The conference request id is derived from the action id plus a
// high-resolution timestamp, so a retried call cannot mint a second room.
func (e *Executor) executeCalendar(ctx context.Context, actionID string, payload map[string]any) (Result, error) {
	p, err := models.DecodeCalendarPayload(payload)
	if err != nil {
		return Result{}, err
	}

	start, err := time.ParseInLocation(dateTimeLayout, p.Date+"T"+p.StartTime, e.loc)
	if err != nil {
		return Result{}, fmt.Errorf("parse start time: %w", err)
	}
	end, err := time.ParseInLocation(dateTimeLayout, p.Date+"T"+p.EndTime, e.loc)
	if err != nil {
		return Result{}, fmt.Errorf("parse end time: %w", err)
	}

	calendarID := p.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	event, err := e.clients.Calendar.CreateEvent(ctx, CalendarEventRequest{
		CalendarID:          calendarID,
		Summary:             p.EventName,
		Description:         p.Description,
		Start:               start,
		End:                 end,
		TimeZone:            e.loc.String(),
		Attendees:           p.Attendees,
		ConferenceRequestID: fmt.Sprintf("%s-%d", actionID, e.now().UnixNano()),
	})
	if err != nil {
		return Result{}, fmt.Errorf("create calendar event: %w", err)
	}

	return Result{
		Message: fmt.Sprintf("Created calendar event %q on %s (meet: %s)", p.EventName, p.Date, event.MeetLink),
		Metadata: map[string]string{
			"eventId":  event.ID,
			"htmlLink": event.HTMLLink,
			"meetLink": event.MeetLink,
		},
	}, nil
}
