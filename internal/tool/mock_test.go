package tool_test

import (
	"context"

	"mcp-gmail/internal/gservice"
)

type mailSvcMock struct {
	ListMessageIDsFunc   func(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]gservice.MessageRef, error)
	GetMessageDetailFunc func(ctx context.Context, msgID string) (gservice.MessageDetail, error)
}

func (m *mailSvcMock) ListMessageIDs(ctx context.Context, query string, labelIDs []string, maxResults int64) ([]gservice.MessageRef, error) {
	if m.ListMessageIDsFunc == nil {
		panic("ListMessageIDsFunc is not defined")
	}
	return m.ListMessageIDsFunc(ctx, query, labelIDs, maxResults)
}

func (m *mailSvcMock) GetMessageDetail(ctx context.Context, msgID string) (gservice.MessageDetail, error) {
	if m.GetMessageDetailFunc == nil {
		panic("GetMessageDetailFunc is not defined")
	}
	return m.GetMessageDetailFunc(ctx, msgID)
}

func fakeDetail(msgID string) gservice.MessageDetail {
	return gservice.MessageDetail{
		ID:      msgID,
		Subject: "Super important email " + msgID,
		From:    "Test User <test+" + msgID + "@test.com>",
		Date:    "2025-09-14 12:12:32",
		Snippet: "test summary " + msgID,
	}
}
