package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Provider is the wire contract with the external identity provider.
type Provider interface {
	SignInWithPassword(ctx context.Context, email string, password string) (Credentials, error)
	SignUpWithPassword(ctx context.Context, email string, password string) (Credentials, error)
	UpdateProfile(ctx context.Context, idToken string, displayName string, avatarURL string) error
	SignInWithIDP(ctx context.Context, providerID string, rawIDToken string) (Credentials, error)
	LookupAccount(ctx context.Context, idToken string) (AccountInfo, error)
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (Credentials, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

// AccountInfo is the provider's profile view of an account, fetched when a
// restored session carries tokens but no profile fields.
type AccountInfo struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
}

var (
	// ErrProviderEmptyBaseURL indicates the provider base URL was not configured.
	ErrProviderEmptyBaseURL = errors.New("identity.provider.empty_base_url")
	// ErrProviderEmptyAPIKey indicates the provider API key was not configured.
	ErrProviderEmptyAPIKey = errors.New("identity.provider.empty_api_key")
)

const (
	pathSignInPassword = "/v1/accounts:signInWithPassword"
	pathSignUp         = "/v1/accounts:signUp"
	pathUpdateProfile  = "/v1/accounts:update"
	pathSignInIDP      = "/v1/accounts:signInWithIdp"
	pathLookup         = "/v1/accounts:lookup"
	pathTokenExchange  = "/v1/token"
	pathTokenRevoke    = "/v1/token:revoke"
)

// RESTProvider implements Provider against an identity-toolkit style REST API.
type RESTProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewRESTProvider constructs a RESTProvider after validating its configuration.
func NewRESTProvider(baseURL string, apiKey string, httpClient *http.Client) (*RESTProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("identity.provider.new: %w", ErrProviderEmptyBaseURL)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("identity.provider.new: %w", ErrProviderEmptyAPIKey)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

type providerSessionPayload struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type providerErrorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges email/password credentials for a session.
func (provider *RESTProvider) SignInWithPassword(ctx context.Context, email string, password string) (Credentials, error) {
	request := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	payload, callErr := provider.call(ctx, pathSignInPassword, request)
	if callErr != nil {
		return Credentials{}, callErr
	}
	return provider.credentialsFromPayload(payload), nil
}

// SignUpWithPassword creates a new account and returns its session.
func (provider *RESTProvider) SignUpWithPassword(ctx context.Context, email string, password string) (Credentials, error) {
	request := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	payload, callErr := provider.call(ctx, pathSignUp, request)
	if callErr != nil {
		return Credentials{}, callErr
	}
	return provider.credentialsFromPayload(payload), nil
}

// UpdateProfile sets the display name and avatar URL on the provider account.
func (provider *RESTProvider) UpdateProfile(ctx context.Context, idToken string, displayName string, avatarURL string) error {
	request := map[string]any{
		"idToken":     idToken,
		"displayName": displayName,
		"photoUrl":    avatarURL,
	}
	_, callErr := provider.call(ctx, pathUpdateProfile, request)
	return callErr
}

// SignInWithIDP exchanges a federated provider token for a session.
func (provider *RESTProvider) SignInWithIDP(ctx context.Context, providerID string, rawIDToken string) (Credentials, error) {
	request := map[string]any{
		"postBody":          fmt.Sprintf("id_token=%s&providerId=%s", rawIDToken, providerID),
		"returnSecureToken": true,
	}
	payload, callErr := provider.call(ctx, pathSignInIDP, request)
	if callErr != nil {
		return Credentials{}, callErr
	}
	return provider.credentialsFromPayload(payload), nil
}

// LookupAccount fetches the profile fields for the account behind an ID token.
func (provider *RESTProvider) LookupAccount(ctx context.Context, idToken string) (AccountInfo, error) {
	request := map[string]any{
		"idToken": idToken,
	}
	raw, callErr := provider.callRaw(ctx, pathLookup, request)
	if callErr != nil {
		return AccountInfo{}, callErr
	}
	var lookupPayload struct {
		Users []struct {
			LocalID     string `json:"localId"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
			PhotoURL    string `json:"photoUrl"`
		} `json:"users"`
	}
	if decodeErr := json.Unmarshal(raw, &lookupPayload); decodeErr != nil {
		return AccountInfo{}, WrapAuthError(CodeUnknown, "malformed lookup response", decodeErr)
	}
	if len(lookupPayload.Users) == 0 {
		return AccountInfo{}, NewAuthError(CodeNoSession, "account no longer exists")
	}
	account := lookupPayload.Users[0]
	return AccountInfo{
		SubjectID:   account.LocalID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		AvatarURL:   account.PhotoURL,
	}, nil
}

// ExchangeRefreshToken mints a fresh ID token from a long-lived refresh token.
func (provider *RESTProvider) ExchangeRefreshToken(ctx context.Context, refreshToken string) (Credentials, error) {
	request := map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	raw, callErr := provider.callRaw(ctx, pathTokenExchange, request)
	if callErr != nil {
		return Credentials{}, callErr
	}
	var tokenPayload struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if decodeErr := json.Unmarshal(raw, &tokenPayload); decodeErr != nil {
		return Credentials{}, WrapAuthError(CodeUnknown, "malformed token response", decodeErr)
	}
	return Credentials{
		SubjectID:    tokenPayload.UserID,
		IDToken:      tokenPayload.IDToken,
		RefreshToken: tokenPayload.RefreshToken,
		ExpiresAt:    provider.expiryFor(tokenPayload.IDToken, tokenPayload.ExpiresIn),
	}, nil
}

// RevokeRefreshToken invalidates the refresh token provider-side.
func (provider *RESTProvider) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	request := map[string]any{
		"refresh_token": refreshToken,
	}
	_, callErr := provider.call(ctx, pathTokenRevoke, request)
	return callErr
}

func (provider *RESTProvider) call(ctx context.Context, path string, requestBody any) (providerSessionPayload, error) {
	raw, callErr := provider.callRaw(ctx, path, requestBody)
	if callErr != nil {
		return providerSessionPayload{}, callErr
	}
	var payload providerSessionPayload
	if decodeErr := json.Unmarshal(raw, &payload); decodeErr != nil {
		return providerSessionPayload{}, WrapAuthError(CodeUnknown, "malformed provider response", decodeErr)
	}
	return payload, nil
}

func (provider *RESTProvider) callRaw(ctx context.Context, path string, requestBody any) ([]byte, error) {
	encoded, encodeErr := json.Marshal(requestBody)
	if encodeErr != nil {
		return nil, WrapAuthError(CodeUnknown, "encode provider request", encodeErr)
	}
	endpoint := fmt.Sprintf("%s%s?key=%s", provider.baseURL, path, provider.apiKey)
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if requestErr != nil {
		return nil, WrapAuthError(CodeUnknown, "build provider request", requestErr)
	}
	request.Header.Set("Content-Type", "application/json")

	response, doErr := provider.httpClient.Do(request)
	if doErr != nil {
		return nil, WrapAuthError(CodeNetwork, "identity provider unreachable", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	var buffer bytes.Buffer
	if _, readErr := buffer.ReadFrom(response.Body); readErr != nil {
		return nil, WrapAuthError(CodeNetwork, "read provider response", readErr)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, mapProviderError(response.StatusCode, buffer.Bytes())
	}
	return buffer.Bytes(), nil
}

func mapProviderError(statusCode int, body []byte) *AuthError {
	var payload providerErrorPayload
	_ = json.Unmarshal(body, &payload)
	providerCode := strings.ToUpper(strings.TrimSpace(payload.Error.Code))
	if providerCode == "" {
		providerCode = strings.ToUpper(strings.TrimSpace(payload.Error.Message))
	}
	switch {
	case strings.HasPrefix(providerCode, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(providerCode, "INVALID_PASSWORD"),
		strings.HasPrefix(providerCode, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(providerCode, "USER_DISABLED"):
		return NewAuthError(CodeInvalidCredentials, "Invalid email or password.")
	case strings.HasPrefix(providerCode, "EMAIL_EXISTS"):
		return NewAuthError(CodeEmailInUse, "An account with this email already exists.")
	case strings.HasPrefix(providerCode, "WEAK_PASSWORD"):
		return NewAuthError(CodeWeakPassword, "Password is too weak.")
	case statusCode >= 500:
		return NewAuthError(CodeNetwork, "identity provider error")
	default:
		return NewAuthError(CodeUnknown, fmt.Sprintf("identity provider rejected the request (%d)", statusCode))
	}
}

func (provider *RESTProvider) credentialsFromPayload(payload providerSessionPayload) Credentials {
	return Credentials{
		SubjectID:    payload.LocalID,
		Email:        payload.Email,
		DisplayName:  payload.DisplayName,
		AvatarURL:    payload.PhotoURL,
		IDToken:      payload.IDToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    provider.expiryFor(payload.IDToken, payload.ExpiresIn),
	}
}

// expiryFor prefers the provider-declared lifetime and falls back to the exp
// claim inside the minted token. Signature verification is the provider's job.
func (provider *RESTProvider) expiryFor(idToken string, expiresIn string) time.Time {
	if seconds, parseErr := strconv.ParseInt(strings.TrimSpace(expiresIn), 10, 64); parseErr == nil && seconds > 0 {
		return provider.now().UTC().Add(time.Duration(seconds) * time.Second)
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, parseErr := parser.ParseUnverified(idToken, claims); parseErr == nil {
		if expiry, expiryErr := claims.GetExpirationTime(); expiryErr == nil && expiry != nil {
			return expiry.Time
		}
	}
	return provider.now().UTC().Add(time.Hour)
}
