package executor

import (
	"context"
	"fmt"

	"action-dispatch-service/internal/models"
)

// executeSheets appends or updates rows, creating the spreadsheet first
// when the payload does not name an existing one.
func (e *Executor) executeSheets(ctx context.Context, _ string, payload map[string]any) (Result, error) {
	p, err := models.DecodeSheetsPayload(payload)
	if err != nil {
		return Result{}, err
	}

	spreadsheetID := p.SpreadsheetID
	created := false
	if spreadsheetID == "" {
		spreadsheetID, err = e.clients.Sheets.CreateSpreadsheet(ctx, p.SheetName)
		if err != nil {
			return Result{}, fmt.Errorf("create spreadsheet: %w", err)
		}
		// Open write access so the approving team can edit the new sheet.
		if err := e.clients.Drive.ShareAnyone(ctx, spreadsheetID, "writer"); err != nil {
			return Result{}, fmt.Errorf("share spreadsheet: %w", err)
		}
		created = true
	}

	switch p.Mode {
	case models.SheetsModeUpdate:
		if err := e.clients.Sheets.Update(ctx, spreadsheetID, p.Range, p.Values); err != nil {
			return Result{}, fmt.Errorf("update range %s: %w", p.Range, err)
		}
	default:
		if err := e.clients.Sheets.Append(ctx, spreadsheetID, p.SheetName, p.Values); err != nil {
			return Result{}, fmt.Errorf("append rows: %w", err)
		}
	}

	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
	verb := "Appended"
	if p.Mode == models.SheetsModeUpdate {
		verb = "Updated"
	}
	msg := fmt.Sprintf("%s %d row(s) in %q (%s)", verb, len(p.Values), p.SheetName, url)
	if created {
		msg = fmt.Sprintf("Created spreadsheet %q and %s", p.SheetName, lowerFirst(msg))
	}

	return Result{
		Message: msg,
		Metadata: map[string]string{
			"spreadsheetId": spreadsheetID,
			"url":           url,
		},
	}, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}
