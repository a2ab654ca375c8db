package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"

	"github.com/arnoldlabs/arnold/internal/link"
	"github.com/arnoldlabs/arnold/internal/slackbot"
)

// InteractionsHandler serves interactive-action callbacks (the property
// selection menu). The platform expects an immediate acknowledgment, so the
// selection is processed after the response and the result is delivered to
// the user's DM.
type InteractionsHandler struct {
	link   *link.Service
	logger *slog.Logger
}

// NewInteractionsHandler creates an InteractionsHandler.
func NewInteractionsHandler(log *slog.Logger, linkService *link.Service) *InteractionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &InteractionsHandler{
		link:   linkService,
		logger: log.With(slog.String("handler", "interactions")),
	}
}

// Register mounts the interactions route.
func (h *InteractionsHandler) Register(e *echo.Echo) {
	e.POST("/slack/interactions", h.Interact)
}

// Interact acknowledges the interaction and processes property selections
// out of band.
func (h *InteractionsHandler) Interact(c echo.Context) error {
	raw := c.FormValue("payload")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing payload")
	}

	var payload slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "parse interaction payload")
	}

	if payload.Type == slack.InteractionTypeBlockActions {
		for _, action := range payload.ActionCallback.BlockActions {
			if action.ActionID != slackbot.SelectPropertyActionID {
				continue
			}
			userID := payload.User.ID
			value := action.SelectedOption.Value
			h.logger.Info("property selected",
				slog.String("user", userID), slog.String("value", value))
			go h.link.SetPropertyFromSelection(context.Background(), userID, value)
			break
		}
	}

	return c.NoContent(http.StatusOK)
}
