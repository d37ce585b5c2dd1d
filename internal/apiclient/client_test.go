package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tyemirov/lifelessons/internal/identity"
	"go.uber.org/zap/zaptest"
)

type staticCredentials struct {
	token string
	err   error
}

func (credentials *staticCredentials) FreshCredential(ctx context.Context) (string, error) {
	return credentials.token, credentials.err
}

func newTestClient(t *testing.T, handler http.Handler, credentials CredentialSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, credentials, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.SetHTTPClient(server.Client())
	return client
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := New("  ", nil, nil); !errors.Is(err, ErrEmptyBaseURL) {
		t.Fatalf("expected ErrEmptyBaseURL, got %v", err)
	}
}

func TestGetJSONAttachesBearerWhenSessionExists(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer id-token" {
			t.Errorf("expected bearer header, got %q", request.Header.Get("Authorization"))
		}
		if request.Header.Get("X-Request-ID") == "" {
			t.Errorf("expected request id header")
		}
		_, _ = writer.Write([]byte(`{"ok":true}`))
	}), &staticCredentials{token: "id-token"})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.GetJSON(context.Background(), "/ping", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !out.OK {
		t.Fatalf("expected decoded payload")
	}
}

func TestGetJSONOmitsBearerWithoutSession(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "" {
			t.Errorf("expected no bearer header, got %q", request.Header.Get("Authorization"))
		}
		_, _ = writer.Write([]byte(`[]`))
	}), &staticCredentials{err: identity.NewAuthError(identity.CodeNoSession, "no active session")})

	var out []string
	if err := client.GetJSON(context.Background(), "/lessons/public", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestUnauthorizedInvokesHookAndPropagatesError(t *testing.T) {
	t.Parallel()
	for _, statusCode := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		var hookCalls atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(statusCode)
			_, _ = writer.Write([]byte(`{"message":"session expired"}`))
		}), &staticCredentials{token: "stale"})
		client.SetUnauthorizedHook(func() { hookCalls.Add(1) })

		err := client.GetJSON(context.Background(), "/users/me", nil, &struct{}{})
		if err == nil {
			t.Fatalf("expected error for %d", statusCode)
		}
		requestErr, ok := AsRequestError(err)
		if !ok || requestErr.StatusCode != statusCode {
			t.Fatalf("expected RequestError with status %d, got %v", statusCode, err)
		}
		if requestErr.Message != "session expired" {
			t.Fatalf("expected backend message, got %q", requestErr.Message)
		}
		if hookCalls.Load() != 1 {
			t.Fatalf("expected hook once for %d, got %d", statusCode, hookCalls.Load())
		}
	}
}

func TestOtherFailuresDoNotInvokeHook(t *testing.T) {
	t.Parallel()
	var hookCalls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	}), nil)
	client.SetUnauthorizedHook(func() { hookCalls.Add(1) })

	if err := client.GetJSON(context.Background(), "/lessons/public", nil, &struct{}{}); err == nil {
		t.Fatalf("expected error")
	}
	if hookCalls.Load() != 0 {
		t.Fatalf("expected no hook calls, got %d", hookCalls.Load())
	}
}

func TestResponsesUnwrapDataEnvelope(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"data":{"name":"Ada"}}`))
	}), nil)

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), "/users/me", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "Ada" {
		t.Fatalf("expected unwrapped payload, got %+v", out)
	}
}

func TestBareResponsesPassThrough(t *testing.T) {
	t.Parallel()
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"name":"Ada","data":null}`))
	}), nil)

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), "/users/me", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "Ada" {
		t.Fatalf("null data key must not shadow the payload, got %+v", out)
	}
}

func TestUnwrapEnvelope(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		raw      string
		expected string
	}{
		{"enveloped object", `{"data":{"a":1}}`, `{"a":1}`},
		{"enveloped array", `{"data":[1,2]}`, `[1,2]`},
		{"null data", `{"data":null}`, `{"data":null}`},
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[1,2]`, `[1,2]`},
		{"not json", `hello`, `hello`},
	}
	for _, testCase := range cases {
		unwrapped := string(unwrapEnvelope([]byte(testCase.raw)))
		if unwrapped != testCase.expected {
			t.Fatalf("%s: expected %s, got %s", testCase.name, testCase.expected, unwrapped)
		}
	}
}
