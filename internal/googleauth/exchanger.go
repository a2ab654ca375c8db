// Package googleauth wraps the Google OAuth authorization-code flow used to
// link an analytics account.
package googleauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested when linking: read-only analytics plus the account email.
const (
	ScopeAnalyticsReadonly = "https://www.googleapis.com/auth/analytics.readonly"
	ScopeUserinfoEmail     = "https://www.googleapis.com/auth/userinfo.email"
)

// Token is the result of a successful code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Exchanger builds authorization URLs and redeems authorization codes.
type Exchanger struct {
	cfg    *oauth2.Config
	logger *slog.Logger
}

// NewExchanger creates an Exchanger for the given OAuth client.
func NewExchanger(log *slog.Logger, clientID, clientSecret, redirectURL string) *Exchanger {
	if log == nil {
		log = slog.Default()
	}
	return &Exchanger{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{ScopeAnalyticsReadonly, ScopeUserinfoEmail},
			Endpoint:     google.Endpoint,
		},
		logger: log.With(slog.String("client", "googleauth")),
	}
}

// AuthURL returns the authorization URL carrying the given state. Offline
// access and forced consent ensure a refresh token is issued even on re-link.
func (e *Exchanger) AuthURL(state string) string {
	return e.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange redeems an authorization code for tokens. Codes are single-use:
// the call is made exactly once and never retried.
func (e *Exchanger) Exchange(ctx context.Context, code string) (Token, error) {
	tok, err := e.cfg.Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}
