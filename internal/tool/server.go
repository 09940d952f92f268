// Package tool exposes the Gmail tools over MCP and owns their execution.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server exposing the Gmail tool catalog.
//
// The tools are registered with hand-built input schemas instead of inferred
// ones: no property is marked required, even though search_emails needs a
// query. The query check is a runtime concern of the Executor.
func NewServer(svc mailSvc) *mcp.Server {
	exec := NewExecutor(svc)

	server := mcp.NewServer(&mcp.Implementation{Name: "mcp-gmail", Version: "v1.0.0"}, nil)

	maxResultsSchema := &jsonschema.Schema{
		Type:        "integer",
		Description: "Maximum number of messages to return (default: 10)",
	}

	server.AddTool(&mcp.Tool{
		Name:        ToolListUnread,
		Description: "List unread Gmail message snippets.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"max_results": maxResultsSchema,
			},
		},
	}, handler(exec, ToolListUnread))

	server.AddTool(&mcp.Tool{
		Name:        ToolSearchEmails,
		Description: "Search emails with a Gmail query.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Gmail search query (e.g. 'from:someone@example.com')",
				},
				"max_results": maxResultsSchema,
			},
		},
	}, handler(exec, ToolSearchEmails))

	return server
}

// handler adapts one catalog entry to the executor. The result is always a
// single text content block with the rendered payload; invocation-level
// failures are carried inside the payload, never as a protocol error.
func handler(exec *Executor, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var payload any

		args, err := decodeArgs(req.Params.Arguments)
		if err != nil {
			payload = ErrorResult{Error: fmt.Sprintf("Internal server error: %v", err)}
		} else {
			payload = exec.ExecuteTool(ctx, name, args)
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json.MarshalIndent failed: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	}
}

func decodeArgs(v any) (map[string]any, error) {
	args := map[string]any{}

	switch raw := v.(type) {
	case nil:
		return args, nil
	case map[string]any:
		return raw, nil
	case json.RawMessage:
		if len(raw) == 0 {
			return args, nil
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
		}
		return args, nil
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal failed: %w", err)
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
		}
		return args, nil
	}
}
