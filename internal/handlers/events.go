package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack/slackevents"

	"github.com/arnoldlabs/arnold/internal/relay"
)

// EventsHandler serves the events API endpoint: the one-time URL
// verification handshake synchronously, everything else acknowledged first
// and relayed afterwards.
type EventsHandler struct {
	relay  *relay.Service
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(log *slog.Logger, relayService *relay.Service) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{
		relay:  relayService,
		logger: log.With(slog.String("handler", "events")),
	}
}

// Register mounts the events route.
func (h *EventsHandler) Register(e *echo.Echo) {
	e.POST("/slack/events", h.Receive)
}

// Receive answers the verification challenge or acknowledges and relays the
// event.
func (h *EventsHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body")
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "parse event")
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "parse challenge")
		}
		return c.JSON(http.StatusOK, map[string]string{"challenge": challenge.Challenge})

	case slackevents.CallbackEvent:
		if ev := toRelayEvent(event.InnerEvent); ev != nil {
			go h.relay.Process(context.Background(), *ev)
		}
		return c.NoContent(http.StatusOK)
	}

	return c.NoContent(http.StatusOK)
}

func toRelayEvent(inner slackevents.EventsAPIInnerEvent) *relay.Event {
	switch data := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		return &relay.Event{
			Kind:      relay.KindAppMention,
			UserID:    data.User,
			Text:      data.Text,
			Channel:   data.Channel,
			Timestamp: data.TimeStamp,
			BotID:     data.BotID,
		}
	case *slackevents.MessageEvent:
		return &relay.Event{
			Kind:        relay.KindMessage,
			UserID:      data.User,
			Text:        data.Text,
			Channel:     data.Channel,
			ChannelType: data.ChannelType,
			Timestamp:   data.TimeStamp,
			SubType:     data.SubType,
			BotID:       data.BotID,
		}
	}
	return nil
}
