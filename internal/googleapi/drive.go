package googleapi

import (
	"context"
	"fmt"
	"net/url"
)

// ShareWithUser grants a user the given role on a file, optionally sending
// a notification email.
func (c *Client) ShareWithUser(ctx context.Context, fileID, email, role string, notify bool) error {
	endpoint := fmt.Sprintf("%s/files/%s/permissions?sendNotificationEmail=%t",
		c.driveBase, url.PathEscape(fileID), notify)
	body := map[string]string{
		"type":         "user",
		"role":         role,
		"emailAddress": email,
	}
	return c.do(ctx, "POST", endpoint, body, nil)
}

// ShareAnyone grants anyone with the link the given role on a file.
func (c *Client) ShareAnyone(ctx context.Context, fileID, role string) error {
	endpoint := fmt.Sprintf("%s/files/%s/permissions", c.driveBase, url.PathEscape(fileID))
	body := map[string]string{
		"type": "anyone",
		"role": role,
	}
	return c.do(ctx, "POST", endpoint, body, nil)
}
