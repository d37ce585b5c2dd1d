package shell

import (
	"testing"
	"time"
)

func TestSignInNonceIssueAndConsume(t *testing.T) {
	t.Parallel()
	store := newSignInNonceStore(2 * time.Minute)
	store.now = func() time.Time { return time.Unix(1000, 0) }

	token, err := store.Issue()
	if err != nil {
		t.Fatalf("issue nonce: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	if err := store.Consume(token); err != nil {
		t.Fatalf("consume nonce: %v", err)
	}

	if err := store.Consume(token); err != ErrNonceNotFound {
		t.Fatalf("expected ErrNonceNotFound, got %v", err)
	}
}

func TestSignInNonceExpiry(t *testing.T) {
	t.Parallel()
	store := newSignInNonceStore(time.Minute)
	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	token, err := store.Issue()
	if err != nil {
		t.Fatalf("issue nonce: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if err := store.Consume(token); err != ErrNonceExpired {
		t.Fatalf("expected ErrNonceExpired, got %v", err)
	}
}
