package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/viant/mlkit/model/task"
)

type sentMessage struct {
	chatID  string
	msgType string
	content string
}

type chatPage struct {
	resp *larkim.ListChatResp
	err  error
}

// fakeTransport stands in for the chat-bot SDK.
type fakeTransport struct {
	sent       []sentMessage
	sendErrs   map[string]error
	sendCodes  map[string]int
	pages      []chatPage
	seenTokens []string
	seenSizes  []int
}

func (f *fakeTransport) createMessage(ctx context.Context, chatID, msgType, content string) (*larkim.CreateMessageResp, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, msgType: msgType, content: content})
	if err, ok := f.sendErrs[chatID]; ok {
		return nil, err
	}
	if code, ok := f.sendCodes[chatID]; ok {
		return messageResp(code, "forbidden"), nil
	}
	return messageResp(0, "success"), nil
}

func (f *fakeTransport) listChats(ctx context.Context, pageSize int, pageToken string) (*larkim.ListChatResp, error) {
	f.seenTokens = append(f.seenTokens, pageToken)
	f.seenSizes = append(f.seenSizes, pageSize)
	if len(f.pages) == 0 {
		return listResp(99999, "", nil), nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page.resp, page.err
}

func messageResp(code int, msg string) *larkim.CreateMessageResp {
	return &larkim.CreateMessageResp{
		ApiResp:   &larkcore.ApiResp{StatusCode: http.StatusOK, Header: http.Header{}},
		CodeError: larkcore.CodeError{Code: code, Msg: msg},
	}
}

func listResp(code int, nextToken string, chatIDs []string) *larkim.ListChatResp {
	items := make([]*larkim.ListChat, 0, len(chatIDs))
	for i := range chatIDs {
		items = append(items, &larkim.ListChat{ChatId: &chatIDs[i]})
	}
	hasMore := nextToken != ""
	return &larkim.ListChatResp{
		ApiResp:   &larkcore.ApiResp{StatusCode: http.StatusOK, Header: http.Header{}},
		CodeError: larkcore.CodeError{Code: code},
		Data: &larkim.ListChatRespData{
			Items:     items,
			PageToken: &nextToken,
			HasMore:   &hasMore,
		},
	}
}

func newTestService(transport *fakeTransport) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return newService(transport, &Config{AppID: "cli_test", AppSecret: "secret"}, logger)
}

func TestSendTextContinuesPastFailures(t *testing.T) {
	transport := &fakeTransport{
		sendErrs:  map[string]error{"oc_down": fmt.Errorf("connection reset")},
		sendCodes: map[string]int{"oc_denied": 99991672},
	}
	service := newTestService(transport)

	service.SendText(context.Background(), []string{"oc_down", "oc_denied", "oc_ok"}, "hello")

	// every chat was attempted despite the first two failing
	assert.Equal(t, 3, len(transport.sent))
	last := transport.sent[2]
	assert.EqualValues(t, "oc_ok", last.chatID)
	assert.EqualValues(t, "text", last.msgType)
	assert.EqualValues(t, `{"text":"hello"}`, last.content)
}

func TestListGroupChatsFollowsPageTokens(t *testing.T) {
	transport := &fakeTransport{
		pages: []chatPage{
			{resp: listResp(0, "page-2", []string{"oc_a", "oc_b"})},
			{resp: listResp(0, "", []string{"oc_c"})},
		},
	}
	service := newTestService(transport)

	chatIDs := service.ListGroupChats(context.Background())
	assert.EqualValues(t, []string{"oc_a", "oc_b", "oc_c"}, chatIDs)
	assert.EqualValues(t, []string{"", "page-2"}, transport.seenTokens)
	assert.EqualValues(t, []int{DefaultPageSize, DefaultPageSize}, transport.seenSizes)
}

func TestListGroupChatsKeepsAccumulatedOnFailedPage(t *testing.T) {
	transport := &fakeTransport{
		pages: []chatPage{
			{resp: listResp(0, "page-2", []string{"oc_a", "oc_b"})},
			{err: fmt.Errorf("request timeout")},
		},
	}
	service := newTestService(transport)

	chatIDs := service.ListGroupChats(context.Background())
	assert.EqualValues(t, []string{"oc_a", "oc_b"}, chatIDs)
}

func TestListGroupChatsFirstPageError(t *testing.T) {
	transport := &fakeTransport{
		pages: []chatPage{
			{resp: listResp(99991663, "", nil)},
		},
	}
	service := newTestService(transport)

	chatIDs := service.ListGroupChats(context.Background())
	assert.Empty(t, chatIDs)
	assert.Equal(t, 1, len(transport.seenTokens))
}

func TestListGroupChatsCustomPageSize(t *testing.T) {
	transport := &fakeTransport{
		pages: []chatPage{
			{resp: listResp(0, "", []string{"oc_a"})},
		},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	service := newService(transport, &Config{PageSize: 50}, logger)

	service.ListGroupChats(context.Background())
	assert.EqualValues(t, []int{50}, transport.seenSizes)
}

func TestLifecycleMessages(t *testing.T) {
	var tests = []struct {
		name     string
		notify   func(s *Service, chatIDs []string, status *task.Status)
		status   *task.Status
		expected string
	}{
		{
			name: "creation notice",
			notify: func(s *Service, chatIDs []string, status *task.Status) {
				s.TaskCreated(context.Background(), chatIDs, status)
			},
			status:   &task.Status{ID: "t-20240501", Name: "train-llm", ResourceQueueID: "q-default"},
			expected: `{"text":"Created task t-20240501 (train-llm) in queue q-default"}`,
		},
		{
			name: "termination without exit code",
			notify: func(s *Service, chatIDs []string, status *task.Status) {
				s.TaskTerminated(context.Background(), chatIDs, status)
			},
			status:   &task.Status{ID: "t-20240501", Name: "train-llm", State: task.StateSuccess},
			expected: `{"text":"Task t-20240501 (train-llm) reached state Success"}`,
		},
		{
			name: "termination with exit code",
			notify: func(s *Service, chatIDs []string, status *task.Status) {
				s.TaskTerminated(context.Background(), chatIDs, status)
			},
			status:   &task.Status{ID: "t-20240501", Name: "train-llm", State: task.StateFailed, ExitCode: 137},
			expected: `{"text":"Task t-20240501 (train-llm) reached state Failed with exit code 137"}`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			transport := &fakeTransport{}
			service := newTestService(transport)
			testCase.notify(service, []string{"oc_team"}, testCase.status)
			if assert.Equal(t, 1, len(transport.sent)) {
				assert.EqualValues(t, testCase.expected, transport.sent[0].content)
			}
		})
	}
}

func TestLifecycleMessagesSkipEmptyChatList(t *testing.T) {
	transport := &fakeTransport{}
	service := newTestService(transport)
	service.TaskCreated(context.Background(), nil, &task.Status{ID: "t-1"})
	service.TaskTerminated(context.Background(), nil, &task.Status{ID: "t-1"})
	assert.Empty(t, transport.sent)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, (*Config)(nil).Enabled())
	assert.False(t, (&Config{AppID: "cli_x"}).Enabled())
	assert.True(t, (&Config{AppID: "cli_x", AppSecret: "s"}).Enabled())
}
