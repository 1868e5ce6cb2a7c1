package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueVerify(t *testing.T) {
	tokens, err := NewSessionTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionTokens: %v", err)
	}
	id := uuid.New()
	tok, exp, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	got, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != id {
		t.Fatalf("got %s want %s", got, id)
	}
}

func TestVerifyRejects(t *testing.T) {
	a, _ := NewSessionTokens("a", time.Hour)
	b, _ := NewSessionTokens("b", time.Hour)
	tok, _, _ := a.Issue(uuid.New())

	if _, err := b.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key: err=%v", err)
	}
	if _, err := a.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty: err=%v", err)
	}
	if _, err := a.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: err=%v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	tokens, _ := NewSessionTokens("secret", time.Minute)
	base := time.Now()
	tokens.now = func() time.Time { return base }
	tok, _, _ := tokens.Issue(uuid.New())

	tokens.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := tokens.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: err=%v", err)
	}
}

func TestRandomSecret(t *testing.T) {
	a, _ := NewSessionTokens("", 0)
	b, _ := NewSessionTokens("", 0)
	tok, _, _ := a.Issue(uuid.New())
	if _, err := a.Verify(tok); err != nil {
		t.Fatalf("own token: %v", err)
	}
	if _, err := b.Verify(tok); err == nil {
		t.Fatal("random secrets must differ between instances")
	}
}
