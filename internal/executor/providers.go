package executor

import (
	"context"
	"time"
)

// The provider interfaces are the narrow request/response contracts this
// core depends on. The googleapi package implements them over REST; tests
// substitute fakes.

// CalendarEventRequest describes an event to create.
type CalendarEventRequest struct {
	CalendarID          string
	Summary             string
	Description         string
	Start               time.Time
	End                 time.Time
	TimeZone            string
	Attendees           []string
	ConferenceRequestID string
}

// CalendarEvent is the created event's identifiers.
type CalendarEvent struct {
	ID       string
	HTMLLink string
	MeetLink string
}

type CalendarService interface {
	CreateEvent(ctx context.Context, req CalendarEventRequest) (CalendarEvent, error)
}

// MailService submits a raw RFC-822 message and returns the provider's
// message identifier.
type MailService interface {
	Send(ctx context.Context, raw []byte) (string, error)
}

type SheetsService interface {
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	Append(ctx context.Context, spreadsheetID, sheetName string, values [][]any) error
	Update(ctx context.Context, spreadsheetID, valueRange string, values [][]any) error
}

type DocsService interface {
	CreateDocument(ctx context.Context, title string) (string, error)
	InsertText(ctx context.Context, documentID, content string) error
}

// DriveService manages sharing for created spreadsheets and documents.
type DriveService interface {
	ShareWithUser(ctx context.Context, fileID, email, role string, notify bool) error
	ShareAnyone(ctx context.Context, fileID, role string) error
}

// Clients bundles the provider collaborators injected into the executor.
type Clients struct {
	Calendar CalendarService
	Mail     MailService
	Sheets   SheetsService
	Docs     DocsService
	Drive    DriveService
}
