package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when the store has no record for the identity.
var ErrNotFound = errors.New("store: not found")

// Credential is the store's record for one Slack identity: the OAuth tokens
// and, once configured, the selected analytics property. The store is the
// only owner of this data; nothing is cached between requests.
type Credential struct {
	SlackUserID  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Expired      bool
	PropertyID   string
}

// Configured reports whether an analytics property has been selected.
func (c Credential) Configured() bool {
	return c.PropertyID != ""
}

// Property is a read-only projection of an analytics property the linked
// account can query. Not persisted here beyond the selection written into
// the credential.
type Property struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AccountName string `json:"accountName"`
}
