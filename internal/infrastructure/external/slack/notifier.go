// Package slack delivers notifications as Slack direct messages.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
)

const (
	// ChannelName identifies the Slack channel in logs
	ChannelName = "slack"
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
)

// slackClient abstracts the Slack API method we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier implements port.NotificationChannel over Slack
type Notifier struct {
	client slackClient
	logger *zap.Logger
}

// NotifierOpts holds parameters for creating a Slack Notifier.
type NotifierOpts struct {
	BotToken string // xoxb-... Slack bot token
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Notifier.
func New(opts NotifierOpts, logger *zap.Logger) (*Notifier, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}

	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}

	return &Notifier{
		client: client,
		logger: logger,
	}, nil
}

// Name implements port.NotificationChannel
func (n *Notifier) Name() string {
	return ChannelName
}

// Send posts the message to the recipient's Slack user id, which opens a DM.
// Users without a Slack id are skipped.
func (n *Notifier) Send(ctx context.Context, recipient *entity.User, message string) error {
	if recipient == nil || recipient.SlackUserID == "" {
		return nil
	}

	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := n.client.PostMessageContext(ctx, recipient.SlackUserID, slackapi.MsgOptionText(message, false))
		return postErr
	})
	if err != nil {
		n.logger.Error("Failed to post Slack message",
			zap.String("user_id", recipient.ID),
			zap.Error(err))
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Verify interface compliance
var _ port.NotificationChannel = (*Notifier)(nil)
