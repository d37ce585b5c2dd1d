package shell

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNonceNotFound indicates the sign-in nonce was never issued or already consumed.
	ErrNonceNotFound = errors.New("shell.nonce.not_found")
	// ErrNonceExpired indicates the sign-in nonce expired before the form was posted.
	ErrNonceExpired = errors.New("shell.nonce.expired")
)

// signInNonceStore issues one-time tokens that bind a rendered login form to
// the federated sign-in post that follows it.
type signInNonceStore struct {
	mutex     sync.Mutex
	entries   map[string]time.Time
	ttl       time.Duration
	now       func() time.Time
	tokenSize int
}

func newSignInNonceStore(ttl time.Duration) *signInNonceStore {
	return &signInNonceStore{
		entries:   make(map[string]time.Time),
		ttl:       ttl,
		now:       time.Now,
		tokenSize: 32,
	}
}

func (store *signInNonceStore) Issue() (string, error) {
	buffer := make([]byte, store.tokenSize)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buffer)

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.purgeExpiredLocked()
	store.entries[token] = store.now().Add(store.ttl)
	return token, nil
}

func (store *signInNonceStore) Consume(token string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	expiry, ok := store.entries[token]
	if !ok {
		store.purgeExpiredLocked()
		return ErrNonceNotFound
	}
	delete(store.entries, token)
	store.purgeExpiredLocked()
	if store.now().After(expiry) {
		return ErrNonceExpired
	}
	return nil
}

func (store *signInNonceStore) purgeExpiredLocked() {
	if len(store.entries) == 0 {
		return
	}
	now := store.now()
	for token, expiry := range store.entries {
		if now.After(expiry) {
			delete(store.entries, token)
		}
	}
}
