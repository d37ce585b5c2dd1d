package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func TestZapLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger, err := zap.NewProduction()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	router := gin.New()
	router.Use(zapLoggerMiddleware(logger))
	router.GET("/ping", func(contextGin *gin.Context) {
		contextGin.Status(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
}

func TestRunAppMissingConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Reset()
	defer viper.Reset()

	err := runApp(&cobra.Command{}, nil)
	if err == nil {
		t.Fatalf("expected configuration error")
	}

	expectedMessage := "config.uninitialized_app_config: app configuration not prepared; PreRunE must execute before RunE"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestLoadAppConfigRequiresAPIBaseURL(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatalf("expected error when api_base_url is missing")
	}
	expectedMessage := "config.missing_api_base_url: api_base_url must be provided"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestLoadAppConfigRequiresIdentityAPIKey(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("google_web_client_id", "client")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatalf("expected error when identity_api_key is missing")
	}
	expectedMessage := "config.missing_identity_api_key: identity_api_key must be provided"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestLoadAppConfigRequiresGoogleClientID(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatalf("expected error when google_web_client_id is missing")
	}
	expectedMessage := "config.missing_google_web_client_id: google_web_client_id must be provided"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestRunAppSuccessWithSQLiteCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Reset()
	defer viper.Reset()

	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		if server.Handler == nil {
			t.Fatalf("expected handler to be configured")
		}
		return http.ErrServerClosed
	})
	defer restoreServe()

	viper.Set("listen_addr", ":0")
	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")
	viper.Set("session_cache_url", "sqlite://file::memory:?cache=shared")

	config, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("expected configuration load to succeed, got %v", err)
	}

	command := &cobra.Command{}
	command.SetContext(context.WithValue(context.Background(), appConfigContextKey, config))

	if err := runApp(command, nil); err != nil {
		t.Fatalf("expected runApp to succeed, got %v", err)
	}
}

func TestRunAppInMemoryCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Reset()
	defer viper.Reset()

	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		return http.ErrServerClosed
	})
	defer restoreServe()

	viper.Set("listen_addr", ":0")
	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")

	config, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("expected configuration load to succeed, got %v", err)
	}

	command := &cobra.Command{}
	command.SetContext(context.WithValue(context.Background(), appConfigContextKey, config))

	if err := runApp(command, nil); err != nil {
		t.Fatalf("expected runApp to succeed with in-memory cache, got %v", err)
	}
}

func TestRunAppRejectsBadCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Reset()
	defer viper.Reset()

	restoreServe := withServeHTTPStub(func(server *http.Server) error {
		return http.ErrServerClosed
	})
	defer restoreServe()

	viper.Set("listen_addr", ":0")
	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")
	viper.Set("enable_cors", true)

	config, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("expected configuration load to succeed, got %v", err)
	}

	command := &cobra.Command{}
	command.SetContext(context.WithValue(context.Background(), appConfigContextKey, config))

	if err := runApp(command, nil); err == nil {
		t.Fatalf("expected error when CORS is enabled without origins")
	}
}

func TestNewRootCommandHelp(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--help"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected help execution to succeed: %v", err)
	}
}

func withServeHTTPStub(stub func(server *http.Server) error) func() {
	previous := serveHTTP
	serveHTTP = stub
	return func() {
		serveHTTP = previous
	}
}

func TestLoadAppConfigRejectsInsecureBaseURL(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "http://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatalf("expected error for plain-http api_base_url")
	}
	expectedMessage := "config.insecure_base_url: api_base_url must use https unless dev_insecure_http is set"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestLoadAppConfigRejectsInsecureIdentityBaseURL(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "http://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")

	_, err := LoadAppConfig()
	if err == nil {
		t.Fatalf("expected error for plain-http identity_base_url")
	}
	expectedMessage := "config.insecure_base_url: identity_base_url must use https unless dev_insecure_http is set"
	if err.Error() != expectedMessage {
		t.Fatalf("expected error %q, got %q", expectedMessage, err.Error())
	}
}

func TestLoadAppConfigAllowsPlainHTTPInDevMode(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "http://127.0.0.1:9000")
	viper.Set("identity_base_url", "http://127.0.0.1:9100")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")
	viper.Set("dev_insecure_http", true)

	appConfig, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("dev_insecure_http must permit plain http, got %v", err)
	}
	if !appConfig.DevInsecureHTTP {
		t.Fatalf("expected DevInsecureHTTP to be set")
	}
}

func TestLoadAppConfigRequestTimeout(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("api_base_url", "https://api.example.com")
	viper.Set("identity_base_url", "https://identity.example.com")
	viper.Set("identity_api_key", "key")
	viper.Set("google_web_client_id", "client")

	appConfig, err := LoadAppConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if appConfig.RequestTimeout != 15*time.Second {
		t.Fatalf("expected 15s default request timeout, got %v", appConfig.RequestTimeout)
	}

	viper.Set("request_timeout", "2s")
	appConfig, err = LoadAppConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if appConfig.RequestTimeout != 2*time.Second {
		t.Fatalf("expected configured request timeout, got %v", appConfig.RequestTimeout)
	}
}
