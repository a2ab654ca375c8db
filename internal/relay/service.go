// Package relay filters inbound chat events and forwards qualifying ones to
// the automation engine webhook. It runs independently of link state; a
// forwarded event for an unlinked user surfaces downstream, not here.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/arnoldlabs/arnold/internal/metrics"
)

// Event kinds the relay understands.
const (
	KindAppMention = "app_mention"
	KindMessage    = "message"
)

var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

// Event is one inbound chat event, already acknowledged to the transport.
type Event struct {
	Kind        string
	UserID      string
	Text        string
	Channel     string
	ChannelType string
	Timestamp   string
	SubType     string
	BotID       string
}

type forwardPayload struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	RawText   string `json:"raw_text"`
	Channel   string `json:"channel"`
	EventTS   string `json:"event_ts"`
	EventType string `json:"event_type"`
}

// Service applies the relay filter and delivers forwarded events.
type Service struct {
	webhookURL string
	botName    string
	metrics    metrics.Recorder
	logger     *slog.Logger
	http       *http.Client
}

// NewService creates the relay. botName gates plain channel messages: only
// messages containing it (case-insensitive) are forwarded outside DMs.
func NewService(log *slog.Logger, webhookURL, botName string, timeout time.Duration, rec metrics.Recorder) *Service {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		webhookURL: webhookURL,
		botName:    strings.ToLower(strings.TrimSpace(botName)),
		metrics:    rec,
		logger:     log.With(slog.String("service", "relay")),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Process filters ev and forwards it when it qualifies. The transport
// response is long gone, so delivery failures are logged and swallowed;
// nothing here retries.
func (s *Service) Process(ctx context.Context, ev Event) {
	forward, reason := s.shouldForward(ev)
	if !forward {
		s.metrics.RecordEventDropped(reason)
		s.logger.Debug("event dropped",
			slog.String("kind", ev.Kind), slog.String("reason", reason))
		return
	}

	payload := forwardPayload{
		UserID:    ev.UserID,
		Message:   StripMentions(ev.Text),
		RawText:   ev.Text,
		Channel:   ev.Channel,
		EventTS:   ev.Timestamp,
		EventType: ev.Kind,
	}
	if err := s.deliver(ctx, payload); err != nil {
		s.metrics.RecordRelayDeliveryFailure()
		s.logger.Error("engine delivery failed",
			slog.String("kind", ev.Kind), slog.String("user", ev.UserID), slog.Any("error", err))
		return
	}

	s.metrics.RecordEventForwarded(ev.Kind)
	s.logger.Info("event forwarded",
		slog.String("kind", ev.Kind), slog.String("user", ev.UserID), slog.String("channel", ev.Channel))
}

// shouldForward applies the filter policy in order: bot authors are dropped
// first (prevents relay loops), direct mentions always pass, plain messages
// pass only when they name the bot or arrive in a DM.
func (s *Service) shouldForward(ev Event) (bool, string) {
	if ev.BotID != "" || ev.SubType == "bot_message" {
		return false, "bot_author"
	}
	switch ev.Kind {
	case KindAppMention:
		return true, ""
	case KindMessage:
		if ev.ChannelType == "im" {
			return true, ""
		}
		if s.botName != "" && strings.Contains(strings.ToLower(ev.Text), s.botName) {
			return true, ""
		}
		return false, "no_mention"
	default:
		return false, "kind"
	}
}

func (s *Service) deliver(ctx context.Context, payload forwardPayload) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn("engine webhook: close response body failed", slog.Any("error", err))
		}
	}()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// StripMentions removes <@U…> mention markup and collapses the leftover
// whitespace.
func StripMentions(text string) string {
	stripped := mentionPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(stripped), " ")
}
