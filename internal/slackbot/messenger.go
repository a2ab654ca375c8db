// Package slackbot delivers outbound Slack messages and builds the Block Kit
// payloads for the linking workflow.
package slackbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/arnoldlabs/arnold/internal/store"
)

// Messenger sends messages to a Slack user's DM surface via chat.postMessage.
type Messenger struct {
	api    *slack.Client
	logger *slog.Logger
}

// NewMessenger creates a Messenger with the bot token.
func NewMessenger(log *slog.Logger, botToken string) *Messenger {
	if log == nil {
		log = slog.Default()
	}
	return &Messenger{
		api:    slack.New(botToken),
		logger: log.With(slog.String("client", "slackbot")),
	}
}

// SendText delivers a plain mrkdwn message to the user's DM.
func (m *Messenger) SendText(ctx context.Context, slackUserID, text string) error {
	channelID, err := m.openDM(ctx, slackUserID)
	if err != nil {
		return err
	}
	if _, _, err := m.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	); err != nil {
		return fmt.Errorf("post message to %s: %w", slackUserID, err)
	}
	return nil
}

// SendPropertyMenu delivers the interactive property-selection menu to the
// user's DM, one option per discovered property.
func (m *Messenger) SendPropertyMenu(ctx context.Context, slackUserID string, properties []store.Property) error {
	channelID, err := m.openDM(ctx, slackUserID)
	if err != nil {
		return err
	}
	if _, _, err := m.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText("Choose the Google Analytics property Arnold should use.", false),
		slack.MsgOptionBlocks(PropertyMenuBlocks(properties)...),
	); err != nil {
		return fmt.Errorf("post property menu to %s: %w", slackUserID, err)
	}
	return nil
}

func (m *Messenger) openDM(ctx context.Context, slackUserID string) (string, error) {
	channel, _, _, err := m.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{slackUserID},
		ReturnIM: true,
	})
	if err != nil {
		return "", fmt.Errorf("open dm with %s: %w", slackUserID, err)
	}
	return channel.ID, nil
}
