package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, handler http.Handler) (*RESTProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	provider, err := NewRESTProvider(server.URL, "test-key", server.Client())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return provider, server
}

func TestNewRESTProviderRequiresConfiguration(t *testing.T) {
	t.Parallel()
	if _, err := NewRESTProvider("", "key", nil); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
	if _, err := NewRESTProvider("https://identity.example.com", "", nil); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}

func TestSignInWithPasswordSuccess(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != pathSignInPassword {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if request.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key query parameter")
		}
		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["email"] != "ada@example.com" {
			t.Errorf("unexpected email: %v", body["email"])
		}
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"localId":      "subject-1",
			"email":        "ada@example.com",
			"displayName":  "Ada",
			"idToken":      "id-token",
			"refreshToken": "refresh-token",
			"expiresIn":    "3600",
		})
	}))
	provider.now = func() time.Time { return time.Unix(1000, 0) }

	credentials, err := provider.SignInWithPassword(context.Background(), "ada@example.com", "Secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if credentials.SubjectID != "subject-1" {
		t.Fatalf("expected subject-1, got %s", credentials.SubjectID)
	}
	if credentials.IDToken != "id-token" || credentials.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected tokens: %+v", credentials)
	}
	expectedExpiry := time.Unix(1000, 0).UTC().Add(time.Hour)
	if !credentials.ExpiresAt.Equal(expectedExpiry) {
		t.Fatalf("expected expiry %v, got %v", expectedExpiry, credentials.ExpiresAt)
	}
}

func TestSignInWithPasswordMapsInvalidCredentials(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"error":{"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	}))

	_, err := provider.SignInWithPassword(context.Background(), "ada@example.com", "wrong")
	authErr, ok := AsAuthError(err)
	if !ok {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != CodeInvalidCredentials {
		t.Fatalf("expected invalid_credentials, got %s", authErr.Code)
	}
	if authErr.Message != "Invalid email or password." {
		t.Fatalf("unexpected message: %s", authErr.Message)
	}
}

func TestSignUpMapsEmailInUse(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"error":{"message":"EMAIL_EXISTS"}}`))
	}))

	_, err := provider.SignUpWithPassword(context.Background(), "ada@example.com", "Secret1")
	authErr, ok := AsAuthError(err)
	if !ok || authErr.Code != CodeEmailInUse {
		t.Fatalf("expected email_in_use, got %v", err)
	}
}

func TestProviderMapsServerFailureToNetwork(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))

	_, err := provider.SignInWithPassword(context.Background(), "ada@example.com", "Secret1")
	authErr, ok := AsAuthError(err)
	if !ok || authErr.Code != CodeNetwork {
		t.Fatalf("expected network code for 5xx, got %v", err)
	}
}

func TestLookupAccountEmptyUsersMeansNoSession(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"users":[]}`))
	}))

	_, err := provider.LookupAccount(context.Background(), "id-token")
	authErr, ok := AsAuthError(err)
	if !ok || authErr.Code != CodeNoSession {
		t.Fatalf("expected no_session for empty lookup, got %v", err)
	}
}

func TestExchangeRefreshTokenUsesSnakeCasePayload(t *testing.T) {
	t.Parallel()
	provider, _ := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != pathTokenExchange {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(request.Body).Decode(&body)
		if body["grant_type"] != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %v", body["grant_type"])
		}
		_, _ = writer.Write([]byte(`{"user_id":"subject-1","id_token":"fresh-token","refresh_token":"rotated","expires_in":"3600"}`))
	}))
	provider.now = func() time.Time { return time.Unix(2000, 0) }

	credentials, err := provider.ExchangeRefreshToken(context.Background(), "refresh-token")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if credentials.IDToken != "fresh-token" || credentials.RefreshToken != "rotated" {
		t.Fatalf("unexpected credentials: %+v", credentials)
	}
}

func TestExpiryForFallsBackToOneHour(t *testing.T) {
	t.Parallel()
	provider, err := NewRESTProvider("https://identity.example.com", "key", nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	provider.now = func() time.Time { return time.Unix(3000, 0) }

	expiry := provider.expiryFor("not-a-jwt", "")
	expected := time.Unix(3000, 0).UTC().Add(time.Hour)
	if !expiry.Equal(expected) {
		t.Fatalf("expected fallback expiry %v, got %v", expected, expiry)
	}
}
