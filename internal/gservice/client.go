// Package gservice wraps the Gmail API behind the two calls the tools need.
package gservice

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUserID = "me"

// CredentialProvider supplies the OAuth credential the client is built from.
// The credential lifecycle (storage, refresh, interactive flow) lives behind
// this interface.
type CredentialProvider interface {
	Valid() bool
	OAuthToken() (*oauth2.Token, error)
}

// Client is a stateless facade over the Gmail API. The service handle is
// built once at construction and is safe for concurrent use.
type Client struct {
	svc *gmail.Service
}

// New validates the credential and builds the Gmail service handle.
func New(ctx context.Context, cfg *oauth2.Config, creds CredentialProvider, opts ...option.ClientOption) (*Client, error) {
	if creds == nil || !creds.Valid() {
		return nil, ErrInvalidCredentials
	}

	t, err := creds.OAuthToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(cfg.Client(ctx, t))}, opts...)

	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &ServiceInitError{Err: err}
	}

	return &Client{svc: svc}, nil
}

// ListMessageIDs returns refs for messages matching the query and labels.
// Either filter may be empty, and an empty result is not an error. API
// failures come back as *UpstreamError.
func (c *Client) ListMessageIDs(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]MessageRef, error) {
	call := c.svc.Users.Messages.List(gmailUserID).
		MaxResults(maxResults).
		Context(ctx)

	if query != "" {
		call = call.Q(query)
	}
	if len(labelIDs) > 0 {
		call = call.LabelIds(labelIDs...)
	}

	result, err := call.Do()
	if err != nil {
		return nil, upstreamError(err)
	}

	refs := make([]MessageRef, 0, len(result.Messages))
	for _, m := range result.Messages {
		refs = append(refs, MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}

	return refs, nil
}

// GetMessageDetail fetches the metadata subset for one message: the
// Subject/From/Date headers plus the snippet. Missing headers resolve to
// fixed fallbacks. The returned error marks the message as unfetchable;
// callers degrade it to a placeholder instead of propagating.
func (c *Client) GetMessageDetail(ctx context.Context, msgID string) (MessageDetail, error) {
	msg, err := c.svc.Users.Messages.Get(gmailUserID, msgID).
		Format("metadata").
		MetadataHeaders("Subject", "From", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return MessageDetail{}, fmt.Errorf("messages.Get %s failed: %w", msgID, err)
	}

	detail := MessageDetail{
		ID:      msgID,
		Subject: "No Subject",
		From:    "Unknown",
		Date:    "Unknown",
		Snippet: msg.Snippet,
	}

	if msg.Payload == nil {
		return detail, nil
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			detail.Subject = header.Value
		case "From":
			detail.From = header.Value
		case "Date":
			detail.Date = header.Value
		}
	}

	return detail, nil
}
