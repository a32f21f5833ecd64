package googleapi

import (
	"context"
	"fmt"
	"net/url"
)

// CreateDocument creates an empty document and returns its id.
func (c *Client) CreateDocument(ctx context.Context, title string) (string, error) {
	var resp struct {
		DocumentID string `json:"documentId"`
	}
	if err := c.do(ctx, "POST", c.docsBase+"/documents", map[string]string{"title": title}, &resp); err != nil {
		return "", err
	}
	return resp.DocumentID, nil
}

// InsertText inserts content at the start of the document body.
func (c *Client) InsertText(ctx context.Context, documentID, content string) error {
	endpoint := fmt.Sprintf("%s/documents/%s:batchUpdate", c.docsBase, url.PathEscape(documentID))
	body := map[string]any{
		"requests": []any{
			map[string]any{
				"insertText": map[string]any{
					"location": map[string]int{"index": 1},
					"text":     content,
				},
			},
		},
	}
	return c.do(ctx, "POST", endpoint, body, nil)
}
