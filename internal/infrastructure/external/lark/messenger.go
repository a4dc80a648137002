package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
)

// ChannelName identifies the Lark channel in logs
const ChannelName = "lark"

// messageCreator is the part of the IM API the messenger uses
type messageCreator interface {
	Create(ctx context.Context, req *larkIm.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkIm.CreateMessageResp, error)
}

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
}

// Messenger implements port.NotificationChannel over Lark instant messages
type Messenger struct {
	messages messageCreator
	logger   *zap.Logger
}

// NewMessenger creates a Lark messenger backed by the SDK client
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return newMessenger(client.Im.Message, logger)
}

func newMessenger(messages messageCreator, logger *zap.Logger) *Messenger {
	return &Messenger{
		messages: messages,
		logger:   logger,
	}
}

// Name implements port.NotificationChannel
func (m *Messenger) Name() string {
	return ChannelName
}

// Send posts a text message to the recipient's Lark open_id.
// Users without an open_id are skipped.
func (m *Messenger) Send(ctx context.Context, recipient *entity.User, message string) error {
	if recipient == nil || recipient.LarkOpenID == "" {
		return nil
	}
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	body, err := textMessageBody(recipient.LarkOpenID, message)
	if err != nil {
		return err
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("open_id").
		Body(body).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("user_id", recipient.ID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("user_id", recipient.ID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Debug("Message sent",
		zap.String("message_id", messageID),
		zap.String("user_id", recipient.ID))

	return nil
}

// textMessageBody builds a text message addressed to an open_id
func textMessageBody(openID, message string) (*larkIm.CreateMessageReqBody, error) {
	content, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	return larkIm.NewCreateMessageReqBodyBuilder().
		ReceiveId(openID).
		MsgType("text").
		Content(string(content)).
		Build(), nil
}

// Verify interface compliance
var _ port.NotificationChannel = (*Messenger)(nil)
