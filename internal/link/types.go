package link

import (
	"context"
	"errors"

	"github.com/arnoldlabs/arnold/internal/googleauth"
	"github.com/arnoldlabs/arnold/internal/store"
)

var (
	// ErrNotLinked is returned when an operation needs a credential that the
	// store does not hold for the identity.
	ErrNotLinked = errors.New("link: not linked")
	// ErrInvalidProperty is returned when a property designation cannot be
	// normalized to the canonical resource form.
	ErrInvalidProperty = errors.New("link: invalid property id")
)

// Store is the credential store surface the workflow needs.
type Store interface {
	GetTokens(ctx context.Context, slackUserID string) (store.Credential, error)
	SaveTokens(ctx context.Context, cred store.Credential) error
	SetProperty(ctx context.Context, slackUserID, propertyID string) error
	DeleteTokens(ctx context.Context, slackUserID string) error
	ListProperties(ctx context.Context, slackUserID string) ([]store.Property, error)
}

// Exchanger builds authorization URLs and redeems authorization codes.
type Exchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (googleauth.Token, error)
}

// StateSigner issues and verifies the correlation token carried through the
// OAuth state parameter.
type StateSigner interface {
	Issue(slackUserID string) (string, error)
	Verify(token string) (string, error)
}

// Messenger delivers out-of-band messages to a Slack user's DM surface.
type Messenger interface {
	SendText(ctx context.Context, slackUserID, text string) error
	SendPropertyMenu(ctx context.Context, slackUserID string, properties []store.Property) error
}

// CallbackOutcome classifies how an OAuth callback ended. The handler maps
// each outcome to a browser page; the chat-side messages are already sent by
// the time the outcome is returned.
type CallbackOutcome int

const (
	// OutcomeSuccess: credential stored; a property menu or manual-setup
	// message was delivered to the DM surface.
	OutcomeSuccess CallbackOutcome = iota
	// OutcomeAuthDenied: the provider reported an authorization error.
	OutcomeAuthDenied
	// OutcomeBadState: the correlation token failed verification.
	OutcomeBadState
	// OutcomeExchangeFailed: the code could not be redeemed. The code is
	// spent either way, so the flow must restart from the connect command.
	OutcomeExchangeFailed
	// OutcomeStoreFailed: tokens were exchanged but could not be persisted.
	OutcomeStoreFailed
)

// CallbackResult is the outcome of one OAuth callback.
type CallbackResult struct {
	Outcome     CallbackOutcome
	SlackUserID string
	ProviderErr string
}

// StatusInfo is the tri-state link status derived from the stored credential.
type StatusInfo struct {
	Linked     bool
	Expired    bool
	PropertyID string
}
