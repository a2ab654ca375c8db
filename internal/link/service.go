// Package link implements the identity-linking and property-binding
// workflow: connect prompts, OAuth callback completion, property resolution,
// and link status/teardown. All durable state lives in the external
// credential store; every read and write is a round trip.
package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arnoldlabs/arnold/internal/metrics"
	"github.com/arnoldlabs/arnold/internal/store"
)

// PropertyPrefix is the canonical analytics property resource prefix.
const PropertyPrefix = "properties/"

// Service drives the linking workflow against the store, the OAuth
// provider, and the Slack DM surface.
type Service struct {
	store     Store
	exchanger Exchanger
	signer    StateSigner
	messenger Messenger
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewService creates the linking service.
func NewService(log *slog.Logger, st Store, ex Exchanger, signer StateSigner, msg Messenger, rec metrics.Recorder) *Service {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Service{
		store:     st,
		exchanger: ex,
		signer:    signer,
		messenger: msg,
		metrics:   rec,
		logger:    log.With(slog.String("service", "link")),
	}
}

// ConnectURL returns the authorization URL for the given Slack identity,
// with a signed correlation token as the OAuth state. No external calls.
func (s *Service) ConnectURL(slackUserID string) (string, error) {
	state, err := s.signer.Issue(slackUserID)
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	s.metrics.RecordLinkStarted()
	return s.exchanger.AuthURL(state), nil
}

// CompleteCallback finishes the OAuth flow for one redirect: verifies the
// correlation token, redeems the code, persists the credential, and drives
// the user to property selection over the DM surface. The returned result
// only decides which browser page to render; DM delivery already happened.
func (s *Service) CompleteCallback(ctx context.Context, code, stateToken, providerErr string) CallbackResult {
	if providerErr != "" {
		s.logger.Warn("oauth callback denied by provider", slog.String("error", providerErr))
		s.metrics.RecordLinkFailed("provider")
		return CallbackResult{Outcome: OutcomeAuthDenied, ProviderErr: providerErr}
	}

	slackUserID, err := s.signer.Verify(stateToken)
	if err != nil {
		s.logger.Warn("oauth callback with unverifiable state", slog.Any("error", err))
		s.metrics.RecordLinkFailed("state")
		return CallbackResult{Outcome: OutcomeBadState}
	}

	// The authorization code is single-use; this call is made exactly once.
	token, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("token exchange failed", slog.String("user", slackUserID), slog.Any("error", err))
		s.metrics.RecordLinkFailed("exchange")
		return CallbackResult{Outcome: OutcomeExchangeFailed, SlackUserID: slackUserID}
	}

	err = s.store.SaveTokens(ctx, store.Credential{
		SlackUserID:  slackUserID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	})
	if err != nil {
		// The code is already consumed; the user has to restart from the
		// connect command.
		s.logger.Error("store tokens failed", slog.String("user", slackUserID), slog.Any("error", err))
		s.metrics.RecordLinkFailed("store")
		return CallbackResult{Outcome: OutcomeStoreFailed, SlackUserID: slackUserID}
	}

	s.metrics.RecordLinkCompleted()
	s.logger.Info("credential stored", slog.String("user", slackUserID))

	s.offerPropertySelection(ctx, slackUserID)
	return CallbackResult{Outcome: OutcomeSuccess, SlackUserID: slackUserID}
}

// offerPropertySelection discovers the user's properties and delivers either
// the selection menu or manual-setup instructions. Best effort: failures
// never change the linking outcome.
func (s *Service) offerPropertySelection(ctx context.Context, slackUserID string) {
	properties, err := s.store.ListProperties(ctx, slackUserID)
	if err != nil || len(properties) == 0 {
		if err != nil {
			s.logger.Warn("property discovery failed", slog.String("user", slackUserID), slog.Any("error", err))
		}
		s.sendManualSetup(ctx, slackUserID, err)
		return
	}

	if err := s.messenger.SendPropertyMenu(ctx, slackUserID, properties); err != nil {
		s.logger.Warn("property menu delivery failed", slog.String("user", slackUserID), slog.Any("error", err))
	}
}

func (s *Service) sendManualSetup(ctx context.Context, slackUserID string, discoveryErr error) {
	text := "✅ *Google Analytics connected!*\n\n" +
		"I couldn't list your properties automatically"
	if discoveryErr != nil {
		text += " (property discovery is unavailable right now)"
	}
	text += ".\nSet one manually with `/arnold-property <property id>`, e.g. `/arnold-property 123456789`."
	if err := s.messenger.SendText(ctx, slackUserID, text); err != nil {
		s.logger.Warn("manual setup message delivery failed", slog.String("user", slackUserID), slog.Any("error", err))
	}
}

// SetPropertyFromCommand resolves a free-text property designation and
// persists it. The caller responds synchronously with the result.
func (s *Service) SetPropertyFromCommand(ctx context.Context, slackUserID, raw string) (string, error) {
	propertyID, err := s.setProperty(ctx, slackUserID, raw)
	if err != nil {
		return "", err
	}
	s.metrics.RecordPropertySet("command")
	return propertyID, nil
}

// SetPropertyFromSelection persists a menu selection and delivers the
// confirmation to the DM surface, decoupled from the already-acknowledged
// interaction request.
func (s *Service) SetPropertyFromSelection(ctx context.Context, slackUserID, value string) {
	propertyID, err := s.setProperty(ctx, slackUserID, value)
	if err != nil {
		s.logger.Error("menu property selection failed",
			slog.String("user", slackUserID), slog.String("value", value), slog.Any("error", err))
		if err := s.messenger.SendText(ctx, slackUserID, "❌ Error setting property. Please try again."); err != nil {
			s.logger.Warn("property failure message delivery failed", slog.String("user", slackUserID), slog.Any("error", err))
		}
		return
	}

	s.metrics.RecordPropertySet("menu")
	text := fmt.Sprintf("✅ Property set to: `%s`\n\nYou can now ask Arnold questions like:\n"+
		"• \"Show me active users by country this month\"\n"+
		"• \"What's my traffic from last week?\"\n"+
		"• \"Top 10 pages by views\"", propertyID)
	if err := s.messenger.SendText(ctx, slackUserID, text); err != nil {
		s.logger.Warn("property confirmation delivery failed", slog.String("user", slackUserID), slog.Any("error", err))
	}
}

func (s *Service) setProperty(ctx context.Context, slackUserID, raw string) (string, error) {
	propertyID, err := NormalizePropertyID(raw)
	if err != nil {
		return "", err
	}
	// No pre-check for an existing credential; the store's 404 is the
	// "not linked" signal.
	if err := s.store.SetProperty(ctx, slackUserID, propertyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotLinked
		}
		return "", fmt.Errorf("set property: %w", err)
	}
	s.logger.Info("property set", slog.String("user", slackUserID), slog.String("property", propertyID))
	return propertyID, nil
}

// Status derives the link status for an identity. Any store read failure is
// reported as not linked; the caller's message does not distinguish
// store-unavailable from never-linked.
func (s *Service) Status(ctx context.Context, slackUserID string) StatusInfo {
	cred, err := s.store.GetTokens(ctx, slackUserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("status read failed", slog.String("user", slackUserID), slog.Any("error", err))
		}
		return StatusInfo{}
	}
	return StatusInfo{
		Linked:     true,
		Expired:    cred.Expired,
		PropertyID: cred.PropertyID,
	}
}

// Disconnect deletes the identity's credential. Deleting an absent
// credential is not an error.
func (s *Service) Disconnect(ctx context.Context, slackUserID string) error {
	s.metrics.RecordDisconnect()
	if err := s.store.DeleteTokens(ctx, slackUserID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete tokens: %w", err)
	}
	s.logger.Info("disconnected", slog.String("user", slackUserID))
	return nil
}

// NormalizePropertyID maps a bare numeric id or an already-prefixed resource
// path to the canonical "properties/<id>" form.
func NormalizePropertyID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, PropertyPrefix)
	if id == "" {
		return "", ErrInvalidProperty
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", ErrInvalidProperty
		}
	}
	return PropertyPrefix + id, nil
}
