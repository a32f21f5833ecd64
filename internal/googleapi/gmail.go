package googleapi

import (
	"context"
	"encoding/base64"
)

// Send submits a raw RFC-822 message for delivery and returns the provider's
// message id.
func (c *Client) Send(ctx context.Context, raw []byte) (string, error) {
	body := map[string]string{
		"raw": base64.RawURLEncoding.EncodeToString(raw),
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", c.gmailBase+"/users/me/messages/send", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}
