package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arnoldlabs/arnold/internal/store"
)

func interactionRequest(payload string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	form := url.Values{"payload": {payload}}
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestInteract_MissingPayload(t *testing.T) {
	h := NewInteractionsHandler(nil, newTestLinkService(newFakeStore(), &fakeMessenger{}))

	_, c := interactionRequest("")
	if err := h.Interact(c); err == nil {
		t.Fatal("expected error for missing payload")
	}
}

func TestInteract_AcknowledgesUnrelatedActions(t *testing.T) {
	h := NewInteractionsHandler(nil, newTestLinkService(newFakeStore(), &fakeMessenger{}))

	payload := `{"type":"block_actions","user":{"id":"U123"},"actions":[{"action_id":"something_else","selected_option":{"value":"x"}}]}`
	rec, c := interactionRequest(payload)
	if err := h.Interact(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestInteract_PropertySelectionStoredOutOfBand(t *testing.T) {
	st := newFakeStore()
	st.credentials["U123"] = store.Credential{SlackUserID: "U123"}
	msg := &fakeMessenger{}
	h := NewInteractionsHandler(nil, newTestLinkService(st, msg))

	payload := `{"type":"block_actions","user":{"id":"U123"},"actions":[{"action_id":"select_property","selected_option":{"value":"509119162"}}]}`
	rec, c := interactionRequest(payload)
	if err := h.Interact(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, interaction must be acknowledged immediately", rec.Code)
	}

	// The selection is processed after the acknowledgment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cred, _ := st.credential("U123"); cred.PropertyID == "properties/509119162" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cred, _ := st.credential("U123")
	t.Fatalf("property not stored, got %q", cred.PropertyID)
}
