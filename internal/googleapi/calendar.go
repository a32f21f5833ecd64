package googleapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"action-dispatch-service/internal/executor"
)

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventAttendee struct {
	Email string `json:"email"`
}

type conferenceSolutionKey struct {
	Type string `json:"type"`
}

type conferenceCreateRequest struct {
	RequestID             string                `json:"requestId"`
	ConferenceSolutionKey conferenceSolutionKey `json:"conferenceSolutionKey"`
}

type eventBody struct {
	Summary        string          `json:"summary"`
	Description    string          `json:"description,omitempty"`
	Start          eventDateTime   `json:"start"`
	End            eventDateTime   `json:"end"`
	Attendees      []eventAttendee `json:"attendees,omitempty"`
	ConferenceData *struct {
		CreateRequest conferenceCreateRequest `json:"createRequest"`
	} `json:"conferenceData,omitempty"`
}

// CreateEvent inserts a calendar event with an attached meet conference.
func (c *Client) CreateEvent(ctx context.Context, req executor.CalendarEventRequest) (executor.CalendarEvent, error) {
	body := eventBody{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       eventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.TimeZone},
		End:         eventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.TimeZone},
	}
	for _, email := range req.Attendees {
		body.Attendees = append(body.Attendees, eventAttendee{Email: email})
	}
	if req.ConferenceRequestID != "" {
		body.ConferenceData = &struct {
			CreateRequest conferenceCreateRequest `json:"createRequest"`
		}{
			CreateRequest: conferenceCreateRequest{
				RequestID:             req.ConferenceRequestID,
				ConferenceSolutionKey: conferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1",
		c.calendarBase, url.PathEscape(req.CalendarID))

	var resp struct {
		ID          string `json:"id"`
		HTMLLink    string `json:"htmlLink"`
		HangoutLink string `json:"hangoutLink"`
	}
	if err := c.do(ctx, "POST", endpoint, body, &resp); err != nil {
		return executor.CalendarEvent{}, err
	}
	return executor.CalendarEvent{
		ID:       resp.ID,
		HTMLLink: resp.HTMLLink,
		MeetLink: resp.HangoutLink,
	}, nil
}
