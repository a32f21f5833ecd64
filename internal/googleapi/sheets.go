package googleapi

import (
	"context"
	"fmt"
	"net/url"
)

// CreateSpreadsheet creates an empty spreadsheet and returns its id.
func (c *Client) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	body := map[string]any{
		"properties": map[string]string{"title": title},
	}
	var resp struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := c.do(ctx, "POST", c.sheetsBase+"/spreadsheets", body, &resp); err != nil {
		return "", err
	}
	return resp.SpreadsheetID, nil
}

// Append adds rows after the last row of the named sheet.
func (c *Client) Append(ctx context.Context, spreadsheetID, sheetName string, values [][]any) error {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.sheetsBase, url.PathEscape(spreadsheetID), url.PathEscape(sheetName))
	return c.do(ctx, "POST", endpoint, map[string]any{"values": values}, nil)
}

// Update overwrites the given A1-notation range.
func (c *Client) Update(ctx context.Context, spreadsheetID, valueRange string, values [][]any) error {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.sheetsBase, url.PathEscape(spreadsheetID), url.PathEscape(valueRange))
	return c.do(ctx, "PUT", endpoint, map[string]any{"values": values}, nil)
}
