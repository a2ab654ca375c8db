// Package store provides the typed client for the external credential store,
// the service of record for OAuth tokens and the selected analytics property.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the credential store REST API. Every call carries the shared
// API key header; there is no local caching.
type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient builds a credential store client.
func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log.With(slog.String("client", "store")),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type tokensResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    string `json:"expiresAt"`
	IsExpired    bool   `json:"isExpired"`
	PropertyID   string `json:"propertyId"`
}

type saveTokensRequest struct {
	SlackUserID  string  `json:"slackUserId"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int64   `json:"expiresIn"`
	PropertyID   *string `json:"propertyId"`
}

type setPropertyRequest struct {
	PropertyID string `json:"propertyId"`
}

type propertiesResponse struct {
	Success    bool       `json:"success"`
	Properties []Property `json:"properties"`
}

// GetTokens reads the credential for the given Slack identity.
func (c *Client) GetTokens(ctx context.Context, slackUserID string) (Credential, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(slackUserID)+"/tokens", nil)
	if err != nil {
		return Credential{}, err
	}

	var parsed tokensResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Credential{}, fmt.Errorf("store tokens decode: %w", err)
	}
	if !parsed.Success {
		return Credential{}, ErrNotFound
	}

	cred := Credential{
		SlackUserID:  slackUserID,
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		Expired:      parsed.IsExpired,
		PropertyID:   parsed.PropertyID,
	}
	if parsed.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, parsed.ExpiresAt); err == nil {
			cred.ExpiresAt = t
		}
	}
	return cred, nil
}

// SaveTokens creates or replaces the credential for cred.SlackUserID. The
// property selection is always written as unset; SetProperty configures it.
func (c *Client) SaveTokens(ctx context.Context, cred Credential) error {
	expiresIn := int64(3600)
	if !cred.ExpiresAt.IsZero() {
		if d := time.Until(cred.ExpiresAt); d > 0 {
			expiresIn = int64(d.Seconds())
		}
	}
	payload := saveTokensRequest{
		SlackUserID:  cred.SlackUserID,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresIn:    expiresIn,
		PropertyID:   nil,
	}
	_, err := c.do(ctx, http.MethodPost, "/users/tokens", payload)
	return err
}

// SetProperty patches the selected analytics property onto an existing
// credential. Returns ErrNotFound when the identity has never linked.
func (c *Client) SetProperty(ctx context.Context, slackUserID, propertyID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(slackUserID)+"/property", setPropertyRequest{
		PropertyID: propertyID,
	})
	return err
}

// DeleteTokens removes the credential for the given identity. Returns
// ErrNotFound when there is nothing to delete.
func (c *Client) DeleteTokens(ctx context.Context, slackUserID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(slackUserID)+"/tokens", nil)
	return err
}

// ListProperties returns the analytics properties discovered for a linked
// identity.
func (c *Client) ListProperties(ctx context.Context, slackUserID string) ([]Property, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(slackUserID)+"/properties", nil)
	if err != nil {
		return nil, err
	}

	var parsed propertiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("store properties decode: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("store properties: unsuccessful response")
	}
	return parsed.Properties, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store %s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("store: close response body failed", slog.Any("error", err))
		}
	}()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("store %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
