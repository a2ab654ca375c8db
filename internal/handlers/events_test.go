package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack/slackevents"

	"github.com/arnoldlabs/arnold/internal/relay"
)

func parseEventsBody(t *testing.T, body string) slackevents.EventsAPIInnerEvent {
	t.Helper()
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		t.Fatal(err)
	}
	return ev.InnerEvent
}

func newEventsHandler() *EventsHandler {
	return NewEventsHandler(nil, relay.NewService(nil, "http://engine.invalid/hook", "arnold", time.Second, nil))
}

func eventsRequest(body string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestReceive_URLVerification(t *testing.T) {
	h := newEventsHandler()

	rec, c := eventsRequest(`{"type":"url_verification","token":"tok","challenge":"chal-123"}`)
	if err := h.Receive(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"challenge":"chal-123"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReceive_CallbackEventAcknowledged(t *testing.T) {
	h := newEventsHandler()

	body := `{"type":"event_callback","event":{"type":"app_mention","user":"U1","text":"<@UB> hi","channel":"C1","ts":"1.2"}}`
	rec, c := eventsRequest(body)
	if err := h.Receive(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReceive_MalformedBody(t *testing.T) {
	h := newEventsHandler()

	_, c := eventsRequest(`{not json`)
	if err := h.Receive(c); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestToRelayEvent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *relay.Event
	}{
		{
			"app mention",
			`{"type":"event_callback","event":{"type":"app_mention","user":"U1","text":"<@UB> hi","channel":"C1","ts":"1.2"}}`,
			&relay.Event{Kind: relay.KindAppMention, UserID: "U1", Text: "<@UB> hi", Channel: "C1", Timestamp: "1.2"},
		},
		{
			"dm message",
			`{"type":"event_callback","event":{"type":"message","user":"U1","text":"hi","channel":"D1","channel_type":"im","ts":"1.2"}}`,
			&relay.Event{Kind: relay.KindMessage, UserID: "U1", Text: "hi", Channel: "D1", ChannelType: "im", Timestamp: "1.2"},
		},
		{
			"bot message carries bot id",
			`{"type":"event_callback","event":{"type":"message","bot_id":"B9","text":"echo","channel":"C1","channel_type":"channel","ts":"1.2"}}`,
			&relay.Event{Kind: relay.KindMessage, Text: "echo", Channel: "C1", ChannelType: "channel", Timestamp: "1.2", BotID: "B9"},
		},
		{
			"unhandled inner event",
			`{"type":"event_callback","event":{"type":"reaction_added","user":"U1"}}`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := parseEventsBody(t, tt.body)
			got := toRelayEvent(parsed)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("toRelayEvent = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("toRelayEvent = nil")
			}
			if *got != *tt.want {
				t.Errorf("toRelayEvent = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}
