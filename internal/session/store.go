package session

import (
	"context"
	"sync"
	"time"

	"github.com/tyemirov/lifelessons/internal/identity"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"go.uber.org/zap"
)

// Phase names the states of the session lifecycle.
type Phase string

const (
	// PhaseInitializing covers app start until the first identity resolution.
	PhaseInitializing Phase = "initializing"
	// PhaseAnonymous means the bridge reported no Identity.
	PhaseAnonymous Phase = "anonymous"
	// PhaseResolvingProfile means an Identity arrived and its profile fetch is in flight.
	PhaseResolvingProfile Phase = "resolving_profile"
	// PhaseAuthenticated means the profile fetch settled; an absent profile is tolerated.
	PhaseAuthenticated Phase = "authenticated"
)

// ProfileFetcher resolves the backend profile for the current session.
type ProfileFetcher interface {
	Me(ctx context.Context) (*lessons.ApplicationProfile, error)
}

// SignOuter clears the provider session; satisfied by the identity bridge.
type SignOuter interface {
	SignOut(ctx context.Context)
}

// Snapshot is a consistent read of the session state. Consumers must not make
// authorization decisions while Loading is true.
type Snapshot struct {
	Phase         Phase
	Loading       bool
	Authenticated bool
	Premium       bool
	Role          string
	SubjectID     string
	Email         string
	DisplayName   string
	AvatarURL     string
	Profile       *lessons.ApplicationProfile
}

// Store is the single source of truth for who is using the app right now. It
// is mutated only by the bridge subscription callback and by explicit
// RefetchProfile/Logout calls.
type Store struct {
	profiles     ProfileFetcher
	signOuter    SignOuter
	logger       *zap.Logger
	fetchTimeout time.Duration

	stateMutex       sync.Mutex
	phase            Phase
	identity         *identity.Identity
	profile          *lessons.ApplicationProfile
	epoch            uint64
	subscribers      map[int]func(Snapshot)
	nextSubscriberID int

	// notifyMutex serializes state publication so subscribers observe
	// transitions in order.
	notifyMutex sync.Mutex
}

// NewStore constructs a Store in the Initializing phase.
func NewStore(profiles ProfileFetcher, signOuter SignOuter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		profiles:     profiles,
		signOuter:    signOuter,
		logger:       logger,
		fetchTimeout: 15 * time.Second,
		phase:        PhaseInitializing,
		subscribers:  make(map[int]func(Snapshot)),
	}
}

// SetFetchTimeout overrides the deadline applied to profile resolution.
func (store *Store) SetFetchTimeout(timeout time.Duration) {
	if timeout > 0 {
		store.fetchTimeout = timeout
	}
}

// HandleIdentityChanged is the bridge subscription callback. Events are
// processed in the order the bridge emits them.
func (store *Store) HandleIdentityChanged(currentIdentity *identity.Identity) {
	store.notifyMutex.Lock()

	store.stateMutex.Lock()
	store.epoch++
	fetchEpoch := store.epoch
	if currentIdentity == nil {
		store.identity = nil
		store.profile = nil
		store.phase = PhaseAnonymous
	} else {
		store.identity = currentIdentity
		store.profile = nil
		store.phase = PhaseResolvingProfile
	}
	snapshot := store.snapshotLocked()
	callbacks := store.callbacksLocked()
	store.stateMutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
	store.notifyMutex.Unlock()

	if currentIdentity != nil {
		go store.resolveProfile(fetchEpoch)
	}
}

// resolveProfile fetches the backend profile and applies it unless a newer
// identity has superseded the fetch. A stale result must never overwrite
// state for a different, later Identity.
func (store *Store) resolveProfile(fetchEpoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), store.fetchTimeout)
	defer cancel()

	profile, fetchErr := store.profiles.Me(ctx)
	if fetchErr != nil {
		// Backend unavailability must not lock the user out of the shell.
		store.logger.Warn("profile fetch failed",
			zap.String("code", "session.profile.fetch_failed"),
			zap.Error(fetchErr))
		profile = nil
	}

	store.notifyMutex.Lock()
	defer store.notifyMutex.Unlock()

	store.stateMutex.Lock()
	if store.epoch != fetchEpoch {
		store.stateMutex.Unlock()
		return
	}
	store.profile = profile
	store.phase = PhaseAuthenticated
	snapshot := store.snapshotLocked()
	callbacks := store.callbacksLocked()
	store.stateMutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

// RefetchProfile re-resolves the profile after actions that can change
// entitlement or role. It never toggles Loading, so route guards do not
// flicker. A failed fetch clears the profile so stale entitlement never
// outlives the backend's answer.
func (store *Store) RefetchProfile(ctx context.Context) {
	store.stateMutex.Lock()
	if store.identity == nil {
		store.stateMutex.Unlock()
		return
	}
	fetchEpoch := store.epoch
	store.stateMutex.Unlock()

	profile, fetchErr := store.profiles.Me(ctx)
	if fetchErr != nil {
		store.logger.Warn("profile refetch failed",
			zap.String("code", "session.profile.refetch_failed"),
			zap.Error(fetchErr))
		profile = nil
	}

	store.notifyMutex.Lock()
	defer store.notifyMutex.Unlock()

	store.stateMutex.Lock()
	if store.epoch != fetchEpoch || store.identity == nil {
		store.stateMutex.Unlock()
		return
	}
	store.profile = profile
	store.phase = PhaseAuthenticated
	snapshot := store.snapshotLocked()
	callbacks := store.callbacksLocked()
	store.stateMutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

// Logout clears the provider session. The bridge then emits
// identity-changed(nil), which lands the store in Anonymous. Safe to call
// more than once; concurrent 401/403 handlers may all trigger it.
func (store *Store) Logout(ctx context.Context) {
	store.signOuter.SignOut(ctx)
}

// Snapshot returns a consistent read of the current state.
func (store *Store) Snapshot() Snapshot {
	store.stateMutex.Lock()
	defer store.stateMutex.Unlock()
	return store.snapshotLocked()
}

// SubscribeState registers a callback invoked once immediately with the
// current snapshot, then on every state change. The returned function cancels
// the subscription.
func (store *Store) SubscribeState(callback func(Snapshot)) func() {
	store.notifyMutex.Lock()
	defer store.notifyMutex.Unlock()

	store.stateMutex.Lock()
	store.nextSubscriberID++
	subscriberID := store.nextSubscriberID
	store.subscribers[subscriberID] = callback
	snapshot := store.snapshotLocked()
	store.stateMutex.Unlock()

	callback(snapshot)

	return func() {
		store.stateMutex.Lock()
		defer store.stateMutex.Unlock()
		delete(store.subscribers, subscriberID)
	}
}

func (store *Store) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Phase:         store.phase,
		Loading:       store.phase == PhaseInitializing || store.phase == PhaseResolvingProfile,
		Authenticated: store.identity != nil,
		Role:          lessons.RoleUser,
		Profile:       store.profile,
	}
	if store.identity != nil {
		snapshot.SubjectID = store.identity.SubjectID
		snapshot.Email = store.identity.Email
		snapshot.DisplayName = store.identity.DisplayName
		snapshot.AvatarURL = store.identity.AvatarURL
	}
	if store.profile != nil {
		snapshot.Premium = store.profile.IsPremium
		if store.profile.Role != "" {
			snapshot.Role = store.profile.Role
		}
		if store.profile.DisplayName != "" {
			snapshot.DisplayName = store.profile.DisplayName
		}
		if store.profile.PhotoURL != "" {
			snapshot.AvatarURL = store.profile.PhotoURL
		}
	}
	return snapshot
}

func (store *Store) callbacksLocked() []func(Snapshot) {
	callbacks := make([]func(Snapshot), 0, len(store.subscribers))
	for _, callback := range store.subscribers {
		callbacks = append(callbacks, callback)
	}
	return callbacks
}
