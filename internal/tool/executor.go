package tool

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mcp-gmail/internal/fanout"
	"mcp-gmail/internal/gservice"
)

// Tool names exposed through the catalog.
const (
	ToolListUnread   = "list_unread"
	ToolSearchEmails = "search_emails"
)

const (
	defaultMaxResults = 10
	fetchParallelism  = 5
)

type mailSvc interface {
	ListMessageIDs(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]gservice.MessageRef, error)
	GetMessageDetail(ctx context.Context, msgID string) (gservice.MessageDetail, error)
}

// Message is one entry of a tool result: either fetched metadata or, when
// Error is set, a placeholder for a message whose detail fetch failed.
type Message struct {
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// Result is the payload of a successful invocation. Messages is empty, not
// null, when nothing matched.
type Result struct {
	Messages []Message `json:"messages"`
}

// ErrorResult is the payload of a failed invocation.
type ErrorResult struct {
	Error string `json:"error"`
}

// UnknownToolError reports an invocation of a tool outside the catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown tool: " + e.Name
}

// MissingArgumentError reports an absent or empty required argument. The
// tool schemas deliberately mark nothing as required, so enforcement
// happens here at execution time.
type MissingArgumentError struct {
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return "Missing or empty required argument: " + e.Argument
}

// NewExecutor creates the tool executor on top of the mail service.
func NewExecutor(svc mailSvc) *Executor {
	return &Executor{
		svc:         svc,
		parallelism: fetchParallelism,
	}
}

// Executor maps tool invocations onto mail service calls. It keeps no state
// across invocations.
type Executor struct {
	svc         mailSvc
	parallelism int
}

// ExecuteTool runs one invocation and always yields a well-formed payload:
// Result on success, ErrorResult for any invocation-level failure. No error
// ever escapes to the transport.
func (e *Executor) ExecuteTool(ctx context.Context, name string, args map[string]any) any {
	result, err := e.execute(ctx, name, args)
	if err == nil {
		return result
	}

	log.Printf("tool %q failed: %v", name, err)

	var upstream *gservice.UpstreamError
	var unknownTool *UnknownToolError
	var missingArg *MissingArgumentError

	switch {
	case errors.As(err, &upstream):
		return ErrorResult{Error: fmt.Sprintf("Gmail API Error: %d %s", upstream.Status, upstream.Reason)}
	case errors.As(err, &unknownTool), errors.As(err, &missingArg):
		return ErrorResult{Error: err.Error()}
	default:
		return ErrorResult{Error: fmt.Sprintf("Internal server error: %v", err)}
	}
}

func (e *Executor) execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	maxResults := intArg(args, "max_results", defaultMaxResults)

	var refs []gservice.MessageRef
	var err error

	switch name {
	case ToolListUnread:
		refs, err = e.svc.ListMessageIDs(ctx, "", []string{"UNREAD"}, maxResults)
	case ToolSearchEmails:
		query, _ := args["query"].(string)
		if query == "" {
			return Result{}, &MissingArgumentError{Argument: "query"}
		}
		refs, err = e.svc.ListMessageIDs(ctx, query, nil, maxResults)
	default:
		return Result{}, &UnknownToolError{Name: name}
	}

	if err != nil {
		return Result{}, err
	}

	messages := make([]Message, 0, len(refs))
	if len(refs) == 0 {
		return Result{Messages: messages}, nil
	}

	outcomes := fanout.Map(ctx, e.parallelism, refs, func(ctx context.Context, ref gservice.MessageRef) fetchOutcome {
		detail, err := e.svc.GetMessageDetail(ctx, ref.ID)
		return fetchOutcome{ref: ref, detail: detail, err: err}
	})

	for _, out := range outcomes {
		if out.err != nil {
			log.Printf("fetching message %s failed: %v", out.ref.ID, out.err)
			messages = append(messages, failureEntry(out.ref))
			continue
		}
		messages = append(messages, Message{
			ID:      out.detail.ID,
			Subject: out.detail.Subject,
			From:    out.detail.From,
			Date:    out.detail.Date,
			Snippet: out.detail.Snippet,
		})
	}

	return Result{Messages: messages}, nil
}

type fetchOutcome struct {
	ref    gservice.MessageRef
	detail gservice.MessageDetail
	err    error
}

// failureEntry keeps the failed slot in the result. The runner preserves
// per-ref identity, so the placeholder carries the original message ID.
func failureEntry(ref gservice.MessageRef) Message {
	id := ref.ID
	if id == "" {
		id = "unknown"
	}

	return Message{
		ID:      id,
		Error:   "Failed to fetch message details",
		Subject: "Error",
		From:    "Error",
		Date:    "Error",
		Snippet: "",
	}
}

// intArg reads an integer argument, tolerating the numeric types JSON
// decoding may produce.
func intArg(args map[string]any, key string, fallback int64) int64 {
	v, ok := args[key]
	if !ok {
		return fallback
	}

	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return fallback
	}
}
