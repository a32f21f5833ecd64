package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Payload field errors returned by the per-type decoders. Validation always
// happens before anything is written to the store.
var (
	ErrUnknownActionType = errors.New("unknown action type")
)

// AddressList accepts either a single address string or a list of addresses.
type AddressList []string

func (a *AddressList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*a = nil
			return nil
		}
		*a = AddressList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("address must be a string or list of strings")
	}
	*a = many
	return nil
}

// Join renders the list as a comma-joined header value.
func (a AddressList) Join() string {
	return strings.Join(a, ", ")
}

// Rows accepts either a table (list of rows) or a bare row, which is wrapped
// into a single-row table.
type Rows [][]any

func (r *Rows) UnmarshalJSON(b []byte) error {
	var table [][]any
	if err := json.Unmarshal(b, &table); err == nil {
		*r = table
		return nil
	}
	var row []any
	if err := json.Unmarshal(b, &row); err != nil {
		return fmt.Errorf("values must be a row or a list of rows")
	}
	*r = Rows{row}
	return nil
}

// CalendarPayload describes a calendar event to create.
type CalendarPayload struct {
	EventName   string   `json:"eventName"`
	Date        string   `json:"date"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
	CalendarID  string   `json:"calendarId"`
}

// EmailPayload describes an outbound plain-text email.
type EmailPayload struct {
	To      AddressList `json:"to"`
	CC      AddressList `json:"cc"`
	Subject string      `json:"subject"`
	Body    string      `json:"body"`
}

// Sheets write modes.
const (
	SheetsModeAppend = "append"
	SheetsModeUpdate = "update"
)

// SheetsPayload describes rows to write into a spreadsheet. When
// SpreadsheetID is empty a new spreadsheet titled SheetName is created.
type SheetsPayload struct {
	SheetName     string `json:"sheetName"`
	SpreadsheetID string `json:"spreadsheetId"`
	Range         string `json:"range"`
	Mode          string `json:"mode"`
	Values        Rows   `json:"values"`
}

// DocsPayload describes a document to create and optionally share.
type DocsPayload struct {
	DocumentName string   `json:"documentName"`
	Content      string   `json:"content"`
	ShareWith    []string `json:"shareWith"`
}

// DecodeCalendarPayload decodes and validates a calendar payload.
func DecodeCalendarPayload(payload map[string]any) (CalendarPayload, error) {
	var p CalendarPayload
	if err := decodeInto(payload, &p); err != nil {
		return p, err
	}
	if p.EventName == "" {
		return p, errors.New("eventName is required")
	}
	if p.Date == "" {
		return p, errors.New("date is required")
	}
	if p.StartTime == "" {
		return p, errors.New("startTime is required")
	}
	if p.EndTime == "" {
		return p, errors.New("endTime is required")
	}
	return p, nil
}

// DecodeEmailPayload decodes and validates an email payload.
func DecodeEmailPayload(payload map[string]any) (EmailPayload, error) {
	var p EmailPayload
	if err := decodeInto(payload, &p); err != nil {
		return p, err
	}
	if len(p.To) == 0 {
		return p, errors.New("to is required")
	}
	if p.Subject == "" {
		return p, errors.New("subject is required")
	}
	if p.Body == "" {
		return p, errors.New("body is required")
	}
	return p, nil
}

// DecodeSheetsPayload decodes and validates a sheets payload, defaulting the
// write mode to append.
func DecodeSheetsPayload(payload map[string]any) (SheetsPayload, error) {
	var p SheetsPayload
	if err := decodeInto(payload, &p); err != nil {
		return p, err
	}
	if p.SheetName == "" {
		return p, errors.New("sheetName is required")
	}
	if p.Mode == "" {
		p.Mode = SheetsModeAppend
	}
	switch p.Mode {
	case SheetsModeAppend:
	case SheetsModeUpdate:
		if p.Range == "" {
			return p, errors.New("range is required for update mode")
		}
	default:
		return p, fmt.Errorf("unsupported sheets mode %q", p.Mode)
	}
	return p, nil
}

// DecodeDocsPayload decodes and validates a docs payload.
func DecodeDocsPayload(payload map[string]any) (DocsPayload, error) {
	var p DocsPayload
	if err := decodeInto(payload, &p); err != nil {
		return p, err
	}
	if p.DocumentName == "" {
		return p, errors.New("documentName is required")
	}
	if p.Content == "" {
		return p, errors.New("content is required")
	}
	return p, nil
}

// ValidatePayload runs the type-specific decoder purely for validation.
func ValidatePayload(actionType string, payload map[string]any) error {
	var err error
	switch actionType {
	case TypeCalendar:
		_, err = DecodeCalendarPayload(payload)
	case TypeEmail:
		_, err = DecodeEmailPayload(payload)
	case TypeSheets:
		_, err = DecodeSheetsPayload(payload)
	case TypeDocs:
		_, err = DecodeDocsPayload(payload)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}
	return err
}

func decodeInto(payload map[string]any, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
