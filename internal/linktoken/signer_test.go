package linktoken

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	s := NewSigner("secret", 15*time.Minute)
	token, err := s.Issue("U12345")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != "U12345" {
		t.Errorf("Verify = %q, want U12345", got)
	}
}

func TestIssue_EmptyIdentity(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	if _, err := s.Issue(""); err == nil {
		t.Fatal("expected error for empty identity")
	}
}

func TestVerify_Tampered(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	token, err := s.Issue("U12345")
	if err != nil {
		t.Fatal(err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := s.Verify(tampered); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a", time.Minute).Issue("U12345")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewSigner("secret-b", time.Minute).Verify(token); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	token, err := s.Issue("U12345")
	if err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidState) {
		t.Errorf("error = %v, want ErrInvalidState", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	for _, token := range []string{"", "not-a-token", strings.Repeat("a.", 10)} {
		if _, err := s.Verify(token); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidState", token, err)
		}
	}
}
