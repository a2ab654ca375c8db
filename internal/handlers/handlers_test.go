package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/arnoldlabs/arnold/internal/googleauth"
	"github.com/arnoldlabs/arnold/internal/link"
	"github.com/arnoldlabs/arnold/internal/store"
)

// Test doubles for the link service dependencies.

type fakeStore struct {
	mu          sync.Mutex
	credentials map[string]store.Credential
	properties  []store.Property
}

func newFakeStore() *fakeStore {
	return &fakeStore{credentials: map[string]store.Credential{}}
}

func (f *fakeStore) credential(id string) (store.Credential, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.credentials[id]
	return cred, ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.credentials)
}

func (f *fakeStore) GetTokens(ctx context.Context, id string) (store.Credential, error) {
	cred, ok := f.credential(id)
	if !ok {
		return store.Credential{}, store.ErrNotFound
	}
	return cred, nil
}

func (f *fakeStore) SaveTokens(ctx context.Context, cred store.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials[cred.SlackUserID] = cred
	return nil
}

func (f *fakeStore) SetProperty(ctx context.Context, id, propertyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.credentials[id]
	if !ok {
		return store.ErrNotFound
	}
	cred.PropertyID = propertyID
	f.credentials[id] = cred
	return nil
}

func (f *fakeStore) DeleteTokens(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.credentials[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.credentials, id)
	return nil
}

func (f *fakeStore) ListProperties(ctx context.Context, id string) ([]store.Property, error) {
	return f.properties, nil
}

type fakeExchanger struct {
	err error
}

func (f *fakeExchanger) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (googleauth.Token, error) {
	if f.err != nil {
		return googleauth.Token{}, f.err
	}
	return googleauth.Token{AccessToken: "at", RefreshToken: "rt"}, nil
}

type fakeSigner struct{}

func (fakeSigner) Issue(id string) (string, error) { return "signed:" + id, nil }

func (fakeSigner) Verify(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "signed:")
	if !ok || id == "" {
		return "", errors.New("bad state")
	}
	return id, nil
}

type fakeMessenger struct {
	texts []string
	menus int
}

func (f *fakeMessenger) SendText(ctx context.Context, id, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendPropertyMenu(ctx context.Context, id string, props []store.Property) error {
	f.menus++
	return nil
}

func newTestLinkService(st *fakeStore, msg *fakeMessenger) *link.Service {
	return link.NewService(nil, st, &fakeExchanger{}, fakeSigner{}, msg, nil)
}

func slashRequest(form url.Values) (*http.Request, *httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/slack/commands/test", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return req, rec, e.NewContext(req, rec)
}
