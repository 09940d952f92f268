package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-gmail/internal/gservice"
	"mcp-gmail/internal/tool"
)

type toolPayload struct {
	Messages []tool.Message `json:"messages"`
	Error    string         `json:"error"`
}

func newTestSession(t *testing.T, svc *mailSvcMock) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(svc)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func callTool(ctx context.Context, t *testing.T, session *mcp.ClientSession, name string, args map[string]any) toolPayload {
	t.Helper()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.IsError, "invocation failures must come back as an error body, not a protocol error")
	require.NotEmpty(t, result.Content)

	var payload toolPayload
	require.NoError(t, json.Unmarshal(
		[]byte(result.Content[0].(*mcp.TextContent).Text),
		&payload,
	))

	return payload
}

func TestServerToolCatalog(t *testing.T) {
	session := newTestSession(t, &mailSvcMock{})
	ctx := context.Background()

	listed, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, listed.Tools, 2)

	byName := map[string]*mcp.Tool{}
	for _, tl := range listed.Tools {
		byName[tl.Name] = tl
	}

	require.Contains(t, byName, tool.ToolListUnread)
	require.Contains(t, byName, tool.ToolSearchEmails)

	// query is enforced at runtime only, so neither schema declares
	// required properties.
	for name, tl := range byName {
		schema, err := json.Marshal(tl.InputSchema)
		require.NoError(t, err)
		assert.NotContains(t, string(schema), `"required"`, "tool %s", name)
	}

	searchSchema, err := json.Marshal(byName[tool.ToolSearchEmails].InputSchema)
	require.NoError(t, err)
	assert.Contains(t, string(searchSchema), `"query"`)
	assert.Contains(t, string(searchSchema), `"max_results"`)
}

func TestServerCallTools(t *testing.T) {
	svc := &mailSvcMock{
		ListMessageIDsFunc: func(_ context.Context, query string, _ []string, _ int64) ([]gservice.MessageRef, error) {
			if query == "from:nobody@nowhere" {
				return nil, &gservice.UpstreamError{Status: 429, Reason: "quota exceeded"}
			}
			return []gservice.MessageRef{
				{ID: "m-001", ThreadID: "t-001"},
				{ID: "m-002", ThreadID: "t-002"},
			}, nil
		},
		GetMessageDetailFunc: func(_ context.Context, msgID string) (gservice.MessageDetail, error) {
			return fakeDetail(msgID), nil
		},
	}

	session := newTestSession(t, svc)
	ctx := context.Background()

	t.Run("list_unread", func(t *testing.T) {
		payload := callTool(ctx, t, session, tool.ToolListUnread, map[string]any{"max_results": 5})

		require.Empty(t, payload.Error)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "m-001", payload.Messages[0].ID)
		assert.Equal(t, "test summary m-002", payload.Messages[1].Snippet)
	})

	t.Run("search_emails", func(t *testing.T) {
		payload := callTool(ctx, t, session, tool.ToolSearchEmails, map[string]any{"query": "is:starred"})

		require.Empty(t, payload.Error)
		require.Len(t, payload.Messages, 2)
	})

	t.Run("search_emails missing query", func(t *testing.T) {
		payload := callTool(ctx, t, session, tool.ToolSearchEmails, map[string]any{})

		assert.Equal(t, "Missing or empty required argument: query", payload.Error)
		assert.Empty(t, payload.Messages)
	})

	t.Run("search_emails upstream failure", func(t *testing.T) {
		payload := callTool(ctx, t, session, tool.ToolSearchEmails, map[string]any{"query": "from:nobody@nowhere"})

		assert.Equal(t, "Gmail API Error: 429 quota exceeded", payload.Error)
	})
}
