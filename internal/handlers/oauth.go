package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arnoldlabs/arnold/internal/link"
)

//go:embed pages/*.html
var pagesFS embed.FS

var pageTemplates = template.Must(template.ParseFS(pagesFS, "pages/*.html"))

type failurePage struct {
	Heading string
	Message string
	Note    string
}

// OAuthHandler serves the Google OAuth redirect. The browser tab is one of
// two presentation surfaces: the chat-side messages are delivered by the
// link service, this handler only picks the page to render.
type OAuthHandler struct {
	link   *link.Service
	logger *slog.Logger
}

// NewOAuthHandler creates an OAuthHandler.
func NewOAuthHandler(log *slog.Logger, linkService *link.Service) *OAuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OAuthHandler{
		link:   linkService,
		logger: log.With(slog.String("handler", "oauth")),
	}
}

// Register mounts the OAuth callback route.
func (h *OAuthHandler) Register(e *echo.Echo) {
	e.GET("/oauth/google/callback", h.Callback)
}

// Callback completes the OAuth flow and renders the outcome page.
func (h *OAuthHandler) Callback(c echo.Context) error {
	result := h.link.CompleteCallback(
		c.Request().Context(),
		c.QueryParam("code"),
		c.QueryParam("state"),
		c.QueryParam("error"),
	)

	switch result.Outcome {
	case link.OutcomeSuccess:
		return h.renderPage(c, http.StatusOK, "success.html", nil)
	case link.OutcomeAuthDenied:
		return h.renderPage(c, http.StatusOK, "failure.html", failurePage{
			Heading: "Connection Failed",
			Message: "There was an error connecting to Google Analytics.",
			Note:    "Error: " + result.ProviderErr,
		})
	case link.OutcomeBadState:
		return h.renderPage(c, http.StatusBadRequest, "failure.html", failurePage{
			Heading: "Connection Failed",
			Message: "We couldn't verify that this request started from Slack.",
		})
	case link.OutcomeStoreFailed:
		return h.renderPage(c, http.StatusOK, "failure.html", failurePage{
			Heading: "Error Storing Credentials",
			Message: "We received your authorization but couldn't save it.",
		})
	default:
		return h.renderPage(c, http.StatusOK, "failure.html", failurePage{
			Heading: "Connection Failed",
			Message: "There was an error connecting to Google Analytics.",
		})
	}
}

func (h *OAuthHandler) renderPage(c echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("render callback page failed", slog.String("page", name), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "render page")
	}
	return c.HTMLBlob(status, buf.Bytes())
}
