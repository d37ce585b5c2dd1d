package sessioncache

import (
	"context"
	"sync"
)

// MemoryStore keeps the session in process memory. Intended for tests and for
// runs without a configured cache URL; sessions do not survive restarts.
type MemoryStore struct {
	mutex        sync.Mutex
	subjectID    string
	refreshToken string
	populated    bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSession stores the session tokens.
func (store *MemoryStore) SaveSession(ctx context.Context, subjectID string, refreshToken string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.subjectID = subjectID
	store.refreshToken = refreshToken
	store.populated = true
	return nil
}

// LoadSession returns the stored session tokens, if any.
func (store *MemoryStore) LoadSession(ctx context.Context) (string, string, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if !store.populated {
		return "", "", false, nil
	}
	return store.subjectID, store.refreshToken, true, nil
}

// ClearSession drops the stored session.
func (store *MemoryStore) ClearSession(ctx context.Context) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.subjectID = ""
	store.refreshToken = ""
	store.populated = false
	return nil
}
