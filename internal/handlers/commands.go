package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/slack-go/slack"

	"github.com/arnoldlabs/arnold/internal/link"
	"github.com/arnoldlabs/arnold/internal/slackbot"
)

const responseTypeEphemeral = "ephemeral"

const propertyUsage = "Usage: `/arnold-property properties/123456789` or `/arnold-property 123456789`"

// CommandsHandler serves the slash commands: connect, status, disconnect,
// and set-property. All responses are ephemeral.
type CommandsHandler struct {
	link   *link.Service
	logger *slog.Logger
}

// NewCommandsHandler creates a CommandsHandler.
func NewCommandsHandler(log *slog.Logger, linkService *link.Service) *CommandsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CommandsHandler{
		link:   linkService,
		logger: log.With(slog.String("handler", "commands")),
	}
}

// Register mounts the slash command routes.
func (h *CommandsHandler) Register(e *echo.Echo) {
	e.POST("/slack/commands/connect", h.Connect)
	e.POST("/slack/commands/status", h.Status)
	e.POST("/slack/commands/disconnect", h.Disconnect)
	e.POST("/slack/commands/property", h.Property)
}

// Connect responds with the authorization prompt for the requesting user.
func (h *CommandsHandler) Connect(c echo.Context) error {
	cmd, err := h.parse(c)
	if err != nil {
		return err
	}
	h.logger.Info("connect requested",
		slog.String("user", cmd.UserID), slog.String("username", cmd.UserName))

	authURL, err := h.link.ConnectURL(cmd.UserID)
	if err != nil {
		h.logger.Error("connect url failed", slog.String("user", cmd.UserID), slog.Any("error", err))
		return ephemeralText(c, "❌ Couldn't start the connection. Please try again.")
	}
	return ephemeralBlocks(c, slackbot.ConnectPromptBlocks(authURL))
}

// Status reports the tri-state link status.
func (h *CommandsHandler) Status(c echo.Context) error {
	cmd, err := h.parse(c)
	if err != nil {
		return err
	}

	info := h.link.Status(c.Request().Context(), cmd.UserID)
	if !info.Linked {
		return ephemeralText(c, "❌ Google Analytics not connected. Use `/arnold-connect` to get started.")
	}
	return ephemeralBlocks(c, slackbot.StatusBlocks(info.Expired, info.PropertyID))
}

// Disconnect tears down the user's link.
func (h *CommandsHandler) Disconnect(c echo.Context) error {
	cmd, err := h.parse(c)
	if err != nil {
		return err
	}

	if err := h.link.Disconnect(c.Request().Context(), cmd.UserID); err != nil {
		h.logger.Error("disconnect failed", slog.String("user", cmd.UserID), slog.Any("error", err))
		return ephemeralText(c, "❌ Error disconnecting. Please try again.")
	}
	return ephemeralText(c, "✅ Google Analytics disconnected successfully.")
}

// Property sets the analytics property from the command argument.
func (h *CommandsHandler) Property(c echo.Context) error {
	cmd, err := h.parse(c)
	if err != nil {
		return err
	}

	arg := strings.TrimSpace(cmd.Text)
	if arg == "" {
		return ephemeralText(c, propertyUsage)
	}

	propertyID, err := h.link.SetPropertyFromCommand(c.Request().Context(), cmd.UserID, arg)
	switch {
	case errors.Is(err, link.ErrInvalidProperty):
		return ephemeralText(c, propertyUsage)
	case errors.Is(err, link.ErrNotLinked):
		return ephemeralText(c, "❌ Google Analytics not connected. Use `/arnold-connect` to get started.")
	case err != nil:
		h.logger.Error("set property failed", slog.String("user", cmd.UserID), slog.Any("error", err))
		return ephemeralText(c, "❌ Error setting property. Please try again.")
	}

	return ephemeralText(c, fmt.Sprintf("✅ Property set to: `%s`\n\nYou're all set! Ask Arnold a question like:\n\"@Arnold show me sessions by country last week\"", propertyID))
}

func (h *CommandsHandler) parse(c echo.Context) (slack.SlashCommand, error) {
	cmd, err := slack.SlashCommandParse(c.Request())
	if err != nil {
		return slack.SlashCommand{}, echo.NewHTTPError(http.StatusBadRequest, "parse slash command")
	}
	if cmd.UserID == "" {
		return slack.SlashCommand{}, echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}
	return cmd, nil
}

func ephemeralText(c echo.Context, text string) error {
	return c.JSON(http.StatusOK, slack.Msg{
		ResponseType: responseTypeEphemeral,
		Text:         text,
	})
}

func ephemeralBlocks(c echo.Context, blocks []slack.Block) error {
	return c.JSON(http.StatusOK, slack.Msg{
		ResponseType: responseTypeEphemeral,
		Blocks:       slack.Blocks{BlockSet: blocks},
	})
}
