// Package notifier posts task lifecycle messages to group chats through the
// chat-bot API.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/model/task"
)

// DefaultPageSize bounds each page of the chat enumeration.
const DefaultPageSize = 20

// Config represents chat-bot configuration.
type Config struct {
	AppID     string `json:"appID,omitempty" yaml:"appID,omitempty"`
	AppSecret string `json:"appSecret,omitempty" yaml:"appSecret,omitempty"`
	PageSize  int    `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`
}

// Enabled reports whether bot credentials are configured.
func (c *Config) Enabled() bool {
	return c != nil && c.AppID != "" && c.AppSecret != ""
}

// transport abstracts the two chat-bot endpoints the notifier uses so tests
// can stub the SDK.
type transport interface {
	createMessage(ctx context.Context, chatID, msgType, content string) (*larkim.CreateMessageResp, error)
	listChats(ctx context.Context, pageSize int, pageToken string) (*larkim.ListChatResp, error)
}

type larkTransport struct {
	client *lark.Client
}

func (t *larkTransport) createMessage(ctx context.Context, chatID, msgType, content string) (*larkim.CreateMessageResp, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()
	return t.client.Im.Message.Create(ctx, req)
}

func (t *larkTransport) listChats(ctx context.Context, pageSize int, pageToken string) (*larkim.ListChatResp, error) {
	builder := larkim.NewListChatReqBuilder().PageSize(pageSize)
	if pageToken != "" {
		builder = builder.PageToken(pageToken)
	}
	return t.client.Im.Chat.List(ctx, builder.Build())
}

// Service sends chat messages on behalf of the configured bot.
type Service struct {
	transport transport
	logger    *logrus.Logger
	pageSize  int
}

// New returns a notifier authenticated with the bot credentials.
func New(config *Config, logger *logrus.Logger) *Service {
	return newService(&larkTransport{client: lark.NewClient(config.AppID, config.AppSecret)}, config, logger)
}

func newService(transport transport, config *Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	pageSize := config.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return &Service{transport: transport, logger: logger, pageSize: pageSize}
}

// SendText posts a text message to every chat. Failures are logged per chat
// and do not abort the remaining sends.
func (s *Service) SendText(ctx context.Context, chatIDs []string, text string) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		s.logger.Errorf("failed to encode message content: %v", err)
		return
	}
	for _, chatID := range chatIDs {
		resp, err := s.transport.createMessage(ctx, chatID, larkim.MsgTypeText, string(content))
		if err != nil {
			s.logger.Errorf("im.message.create failed for chat %v: %v", chatID, err)
			continue
		}
		if !resp.Success() {
			s.logger.Errorf("im.message.create failed, code: %d, msg: %s, log_id: %s",
				resp.Code, resp.Msg, resp.RequestId())
		}
	}
}

// ListGroupChats returns the IDs of all group chats the bot belongs to,
// following page tokens until the last page. A failing page returns
// whatever was accumulated so far.
func (s *Service) ListGroupChats(ctx context.Context) []string {
	var chatIDs []string
	pageToken := ""
	for {
		resp, err := s.transport.listChats(ctx, s.pageSize, pageToken)
		if err != nil {
			s.logger.Errorf("im.chat.list failed: %v", err)
			return chatIDs
		}
		if !resp.Success() {
			s.logger.Errorf("im.chat.list failed, code: %d, msg: %s, log_id: %s",
				resp.Code, resp.Msg, resp.RequestId())
			return chatIDs
		}
		for _, item := range resp.Data.Items {
			if item.ChatId != nil {
				chatIDs = append(chatIDs, *item.ChatId)
			}
		}
		if resp.Data.PageToken == nil || *resp.Data.PageToken == "" {
			return chatIDs
		}
		pageToken = *resp.Data.PageToken
	}
}

// TaskCreated posts a creation notice for the task.
func (s *Service) TaskCreated(ctx context.Context, chatIDs []string, status *task.Status) {
	if len(chatIDs) == 0 {
		return
	}
	s.SendText(ctx, chatIDs, fmt.Sprintf("Created task %s (%s) in queue %s",
		status.ID, status.Name, status.ResourceQueueID))
}

// TaskTerminated posts the final state of the task.
func (s *Service) TaskTerminated(ctx context.Context, chatIDs []string, status *task.Status) {
	if len(chatIDs) == 0 {
		return
	}
	text := fmt.Sprintf("Task %s (%s) reached state %s", status.ID, status.Name, status.State)
	if status.ExitCode != 0 {
		text = fmt.Sprintf("%s with exit code %d", text, status.ExitCode)
	}
	s.SendText(ctx, chatIDs, text)
}
