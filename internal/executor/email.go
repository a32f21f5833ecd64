package executor

import (
	"context"
	"fmt"
	"strings"

	"action-dispatch-service/internal/models"
)

// executeEmail builds a plain-text message and submits it for delivery.
func (e *Executor) executeEmail(ctx context.Context, _ string, payload map[string]any) (Result, error) {
	p, err := models.DecodeEmailPayload(payload)
	if err != nil {
		return Result{}, err
	}

	to := p.To.Join()
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if len(p.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", p.CC.Join())
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", p.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(p.Body)

	messageID, err := e.clients.Mail.Send(ctx, []byte(b.String()))
	if err != nil {
		return Result{}, fmt.Errorf("send email: %w", err)
	}

	return Result{
		Message: fmt.Sprintf("Sent email to %s with subject %q", to, p.Subject),
		Metadata: map[string]string{
			"messageId": messageID,
		},
	}, nil
}
