package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CredentialCache persists the provider refresh token between process runs so
// a session can be restored at startup, the way the original client's
// provider SDK restores its local session.
type CredentialCache interface {
	SaveSession(ctx context.Context, subjectID string, refreshToken string) error
	LoadSession(ctx context.Context) (subjectID string, refreshToken string, found bool, err error)
	ClearSession(ctx context.Context) error
}

// googleProviderID is the federated provider identifier sent to the identity API.
const googleProviderID = "google.com"

// defaultRefreshSkew renews bearer credentials this long before expiry.
const defaultRefreshSkew = 30 * time.Second

// Bridge is the sole integration point with the external identity provider.
// It owns the current Identity and fans identity-changed events out to the
// process-scoped subscription in emission order.
type Bridge struct {
	provider    Provider
	verifier    GoogleTokenVerifier
	cache       CredentialCache
	logger      *zap.Logger
	clock       func() time.Time
	refreshSkew time.Duration

	stateMutex       sync.Mutex
	current          *Credentials
	subscribers      map[int]func(*Identity)
	nextSubscriberID int

	// notifyMutex serializes identity-changed delivery so subscribers observe
	// transitions in the order they were emitted.
	notifyMutex sync.Mutex
}

// BridgeConfig wires the Bridge dependencies.
type BridgeConfig struct {
	Provider       Provider
	GoogleVerifier GoogleTokenVerifier
	Cache          CredentialCache
	Logger         *zap.Logger
}

// NewBridge constructs a Bridge. The cache is optional; without it sessions
// do not survive restarts.
func NewBridge(configuration BridgeConfig) *Bridge {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		provider:    configuration.Provider,
		verifier:    configuration.GoogleVerifier,
		cache:       configuration.Cache,
		logger:      logger,
		clock:       func() time.Time { return time.Now().UTC() },
		refreshSkew: defaultRefreshSkew,
		subscribers: make(map[int]func(*Identity)),
	}
}

// Subscribe registers a callback invoked once immediately with the current
// Identity (or nil), then on every subsequent change. The returned function
// cancels the subscription.
func (bridge *Bridge) Subscribe(callback func(*Identity)) func() {
	bridge.notifyMutex.Lock()
	defer bridge.notifyMutex.Unlock()

	bridge.stateMutex.Lock()
	bridge.nextSubscriberID++
	subscriberID := bridge.nextSubscriberID
	bridge.subscribers[subscriberID] = callback
	snapshot := bridge.identitySnapshotLocked()
	bridge.stateMutex.Unlock()

	callback(snapshot)

	return func() {
		bridge.stateMutex.Lock()
		defer bridge.stateMutex.Unlock()
		delete(bridge.subscribers, subscriberID)
	}
}

// Start restores a persisted session, if any, and emits the initial
// identity-changed event. Restore failure is never fatal: the bridge lands in
// the signed-out state and the app keeps running.
func (bridge *Bridge) Start(ctx context.Context) {
	if bridge.cache == nil {
		bridge.publishCredentials(nil)
		return
	}
	subjectID, refreshToken, found, loadErr := bridge.cache.LoadSession(ctx)
	if loadErr != nil {
		bridge.logger.Warn("session cache load failed",
			zap.String("code", "identity.bridge.cache_load_failed"),
			zap.Error(loadErr))
		bridge.publishCredentials(nil)
		return
	}
	if !found || strings.TrimSpace(refreshToken) == "" {
		bridge.publishCredentials(nil)
		return
	}
	restored, restoreErr := bridge.restoreSession(ctx, refreshToken)
	if restoreErr != nil {
		bridge.logger.Info("persisted session no longer valid",
			zap.String("code", "identity.bridge.restore_failed"),
			zap.String("subject_id", subjectID),
			zap.Error(restoreErr))
		bridge.clearCache(ctx)
		bridge.publishCredentials(nil)
		return
	}
	bridge.persistSession(ctx, restored)
	bridge.publishCredentials(&restored)
}

func (bridge *Bridge) restoreSession(ctx context.Context, refreshToken string) (Credentials, error) {
	exchanged, exchangeErr := bridge.provider.ExchangeRefreshToken(ctx, refreshToken)
	if exchangeErr != nil {
		return Credentials{}, exchangeErr
	}
	account, lookupErr := bridge.provider.LookupAccount(ctx, exchanged.IDToken)
	if lookupErr != nil {
		return Credentials{}, lookupErr
	}
	exchanged.SubjectID = account.SubjectID
	exchanged.Email = account.Email
	exchanged.DisplayName = account.DisplayName
	exchanged.AvatarURL = account.AvatarURL
	return exchanged, nil
}

// SignInWithPassword authenticates with email/password credentials.
func (bridge *Bridge) SignInWithPassword(ctx context.Context, email string, password string) (*Identity, error) {
	credentials, signInErr := bridge.provider.SignInWithPassword(ctx, email, password)
	if signInErr != nil {
		return nil, signInErr
	}
	bridge.persistSession(ctx, credentials)
	bridge.publishCredentials(&credentials)
	return credentials.Identity(), nil
}

// SignInWithGoogleIDToken completes the federated flow: the shell's Google
// Sign-In widget posts the raw ID token here. An empty token means the user
// dismissed the provider popup.
func (bridge *Bridge) SignInWithGoogleIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	if strings.TrimSpace(rawIDToken) == "" {
		return nil, NewAuthError(CodePopupClosed, "Google sign-in was dismissed before completing.")
	}
	profile, verifyErr := bridge.verifier.Verify(ctx, rawIDToken)
	if verifyErr != nil {
		return nil, WrapAuthError(CodeUnknown, "Google sign-in could not be verified.", verifyErr)
	}
	credentials, signInErr := bridge.provider.SignInWithIDP(ctx, googleProviderID, rawIDToken)
	if signInErr != nil {
		return nil, signInErr
	}
	if credentials.DisplayName == "" {
		credentials.DisplayName = profile.DisplayName
	}
	if credentials.AvatarURL == "" {
		credentials.AvatarURL = profile.AvatarURL
	}
	bridge.persistSession(ctx, credentials)
	bridge.publishCredentials(&credentials)
	return credentials.Identity(), nil
}

// RegisterWithPassword creates a new account. Local validation runs before
// any network call.
func (bridge *Bridge) RegisterWithPassword(ctx context.Context, seed RegistrationSeed) (*Identity, error) {
	if policyErr := ValidatePasswordPolicy(seed.Password); policyErr != nil {
		return nil, NewAuthError(CodeWeakPassword, policyErr.Error())
	}
	if validationErr := seed.Validate(); validationErr != nil {
		return nil, NewAuthError(CodeUnknown, validationErr.Error())
	}
	credentials, signUpErr := bridge.provider.SignUpWithPassword(ctx, seed.Email, seed.Password)
	if signUpErr != nil {
		return nil, signUpErr
	}
	if seed.Name != "" || seed.PhotoURL != "" {
		if updateErr := bridge.provider.UpdateProfile(ctx, credentials.IDToken, seed.Name, seed.PhotoURL); updateErr != nil {
			bridge.logger.Warn("profile seed update failed",
				zap.String("code", "identity.bridge.profile_seed_failed"),
				zap.Error(updateErr))
		} else {
			credentials.DisplayName = seed.Name
			credentials.AvatarURL = seed.PhotoURL
		}
	}
	bridge.persistSession(ctx, credentials)
	bridge.publishCredentials(&credentials)
	return credentials.Identity(), nil
}

// SignOut clears the provider session. Remote invalidation is best effort;
// locally the bridge always ends up signed out.
func (bridge *Bridge) SignOut(ctx context.Context) {
	bridge.stateMutex.Lock()
	current := bridge.current
	bridge.stateMutex.Unlock()

	if current != nil && current.RefreshToken != "" {
		if revokeErr := bridge.provider.RevokeRefreshToken(ctx, current.RefreshToken); revokeErr != nil {
			bridge.logger.Warn("remote sign-out failed",
				zap.String("code", "identity.bridge.revoke_failed"),
				zap.Error(revokeErr))
		}
	}
	bridge.clearCache(ctx)
	bridge.publishCredentials(nil)
}

// FreshCredential returns a bearer token for the current Identity,
// transparently renewing it when close to expiry.
func (bridge *Bridge) FreshCredential(ctx context.Context) (string, error) {
	bridge.stateMutex.Lock()
	current := bridge.current
	bridge.stateMutex.Unlock()

	if current == nil {
		return "", NewAuthError(CodeNoSession, "no active session")
	}
	if bridge.clock().Add(bridge.refreshSkew).Before(current.ExpiresAt) {
		return current.IDToken, nil
	}

	renewed, exchangeErr := bridge.provider.ExchangeRefreshToken(ctx, current.RefreshToken)
	if exchangeErr != nil {
		return "", exchangeErr
	}

	bridge.stateMutex.Lock()
	// A sign-out or sign-in may have superseded the session mid-renewal; the
	// renewed token must not resurrect it.
	if bridge.current == nil || bridge.current.RefreshToken != current.RefreshToken {
		bridge.stateMutex.Unlock()
		return "", NewAuthError(CodeNoSession, "session superseded during renewal")
	}
	bridge.current.IDToken = renewed.IDToken
	bridge.current.ExpiresAt = renewed.ExpiresAt
	if renewed.RefreshToken != "" {
		bridge.current.RefreshToken = renewed.RefreshToken
	}
	updated := *bridge.current
	bridge.stateMutex.Unlock()

	bridge.persistSession(ctx, updated)
	return updated.IDToken, nil
}

// CurrentIdentity returns the Identity of the signed-in user, or nil.
func (bridge *Bridge) CurrentIdentity() *Identity {
	bridge.stateMutex.Lock()
	defer bridge.stateMutex.Unlock()
	return bridge.identitySnapshotLocked()
}

func (bridge *Bridge) identitySnapshotLocked() *Identity {
	if bridge.current == nil {
		return nil
	}
	return bridge.current.Identity()
}

func (bridge *Bridge) publishCredentials(credentials *Credentials) {
	bridge.notifyMutex.Lock()
	defer bridge.notifyMutex.Unlock()

	bridge.stateMutex.Lock()
	bridge.current = credentials
	snapshot := bridge.identitySnapshotLocked()
	callbacks := make([]func(*Identity), 0, len(bridge.subscribers))
	for _, callback := range bridge.subscribers {
		callbacks = append(callbacks, callback)
	}
	bridge.stateMutex.Unlock()

	for _, callback := range callbacks {
		callback(snapshot)
	}
}

func (bridge *Bridge) persistSession(ctx context.Context, credentials Credentials) {
	if bridge.cache == nil {
		return
	}
	if saveErr := bridge.cache.SaveSession(ctx, credentials.SubjectID, credentials.RefreshToken); saveErr != nil {
		bridge.logger.Warn("session cache save failed",
			zap.String("code", "identity.bridge.cache_save_failed"),
			zap.Error(saveErr))
	}
}

func (bridge *Bridge) clearCache(ctx context.Context) {
	if bridge.cache == nil {
		return
	}
	if clearErr := bridge.cache.ClearSession(ctx); clearErr != nil {
		bridge.logger.Warn("session cache clear failed",
			zap.String("code", "identity.bridge.cache_clear_failed"),
			zap.Error(clearErr))
	}
}
