package executor

import (
	"context"
	"fmt"

	"action-dispatch-service/internal/models"
)

// executeDocs creates a document, inserts the content at the start of the
// body, and applies the sharing policy: explicit recipients get write
// access with a notification, otherwise anyone with the link may read.
func (e *Executor) executeDocs(ctx context.Context, _ string, payload map[string]any) (Result, error) {
	p, err := models.DecodeDocsPayload(payload)
	if err != nil {
		return Result{}, err
	}

	documentID, err := e.clients.Docs.CreateDocument(ctx, p.DocumentName)
	if err != nil {
		return Result{}, fmt.Errorf("create document: %w", err)
	}
	if err := e.clients.Docs.InsertText(ctx, documentID, p.Content); err != nil {
		return Result{}, fmt.Errorf("insert content: %w", err)
	}

	if len(p.ShareWith) > 0 {
		for _, email := range p.ShareWith {
			if err := e.clients.Drive.ShareWithUser(ctx, documentID, email, "writer", true); err != nil {
				return Result{}, fmt.Errorf("share document with %s: %w", email, err)
			}
		}
	} else {
		if err := e.clients.Drive.ShareAnyone(ctx, documentID, "reader"); err != nil {
			return Result{}, fmt.Errorf("share document: %w", err)
		}
	}

	url := fmt.Sprintf("https://docs.google.com/document/d/%s", documentID)
	return Result{
		Message: fmt.Sprintf("Created document %q (%s)", p.DocumentName, url),
		Metadata: map[string]string{
			"documentId": documentID,
			"url":        url,
		},
	}, nil
}
