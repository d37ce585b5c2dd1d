package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tyemirov/lifelessons/internal/identity"
	"go.uber.org/zap"
)

// CredentialSource mints a bearer credential for the current session.
type CredentialSource interface {
	FreshCredential(ctx context.Context) (string, error)
}

// UnauthorizedHook runs when the backend answers 401 or 403. It must be safe
// to invoke from multiple in-flight requests at once.
type UnauthorizedHook func()

// ErrEmptyBaseURL indicates the backend base URL was not configured.
var ErrEmptyBaseURL = errors.New("apiclient.empty_base_url")

// RequestError reports a non-2xx backend response. 401/403 additionally
// trigger the unauthorized hook before the error is returned to the caller.
type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error renders the status together with the backend-provided detail.
func (requestErr *RequestError) Error() string {
	if requestErr.Message != "" {
		return fmt.Sprintf("apiclient.request_failed: status=%d %s", requestErr.StatusCode, requestErr.Message)
	}
	return fmt.Sprintf("apiclient.request_failed: status=%d", requestErr.StatusCode)
}

// AsRequestError extracts a RequestError from an error chain.
func AsRequestError(err error) (*RequestError, bool) {
	var requestErr *RequestError
	if errors.As(err, &requestErr) {
		return requestErr, true
	}
	return nil, false
}

// Client issues backend calls with a fresh bearer credential attached to
// every request that has an active session behind it.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	credentials      CredentialSource
	logger           *zap.Logger
	unauthorizedHook UnauthorizedHook
}

// New constructs a Client for the backend at baseURL.
func New(baseURL string, credentials CredentialSource, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("apiclient.new: %w", ErrEmptyBaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		credentials: credentials,
		logger:      logger,
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client, mainly for tests.
func (client *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		client.httpClient = httpClient
	}
}

// SetUnauthorizedHook registers the global 401/403 side effect.
func (client *Client) SetUnauthorizedHook(hook UnauthorizedHook) {
	client.unauthorizedHook = hook
}

// GetJSON issues a GET and decodes the unwrapped payload into out.
func (client *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return client.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the unwrapped payload.
func (client *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	return client.do(ctx, http.MethodPost, path, nil, body, out)
}

// PatchJSON issues a PATCH with a JSON body and decodes the unwrapped payload.
func (client *Client) PatchJSON(ctx context.Context, path string, body any, out any) error {
	return client.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE, discarding any response payload.
func (client *Client) Delete(ctx context.Context, path string) error {
	return client.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (client *Client) do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	endpoint := client.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, encodeErr := json.Marshal(body)
		if encodeErr != nil {
			return fmt.Errorf("apiclient.encode_body: %w", encodeErr)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if requestErr != nil {
		return fmt.Errorf("apiclient.build_request: %w", requestErr)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("X-Request-ID", uuid.NewString())
	client.attachCredential(ctx, request)

	response, doErr := client.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("apiclient.transport: %w", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	raw, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return fmt.Errorf("apiclient.read_body: %w", readErr)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		failure := requestErrorFromBody(response.StatusCode, raw)
		if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
			if client.unauthorizedHook != nil {
				client.unauthorizedHook()
			}
		}
		return failure
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	payload := unwrapEnvelope(raw)
	if decodeErr := json.Unmarshal(payload, out); decodeErr != nil {
		return fmt.Errorf("apiclient.decode_body: %w", decodeErr)
	}
	return nil
}

// attachCredential sets the bearer header when a session exists. A missing
// session is not an error: public endpoints go out unauthenticated.
func (client *Client) attachCredential(ctx context.Context, request *http.Request) {
	if client.credentials == nil {
		return
	}
	token, credentialErr := client.credentials.FreshCredential(ctx)
	if credentialErr != nil {
		if authErr, ok := identity.AsAuthError(credentialErr); !ok || authErr.Code != identity.CodeNoSession {
			client.logger.Warn("credential mint failed, sending unauthenticated",
				zap.String("code", "apiclient.credential_failed"),
				zap.Error(credentialErr))
		}
		return
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func requestErrorFromBody(statusCode int, raw []byte) *RequestError {
	var errorPayload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(unwrapEnvelope(raw), &errorPayload)
	message := errorPayload.Message
	if message == "" {
		message = errorPayload.Error
	}
	return &RequestError{
		StatusCode: statusCode,
		Code:       errorPayload.Error,
		Message:    message,
	}
}
