package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/lifelessons/internal/apiclient"
	"github.com/tyemirov/lifelessons/internal/identity"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"github.com/tyemirov/lifelessons/internal/session"
	"github.com/tyemirov/lifelessons/internal/sessioncache"
	"github.com/tyemirov/lifelessons/internal/shell"
	"go.uber.org/zap"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "lifelessons",
		Short:   "Digital Life Lessons client shell: browse, record, and favorite life lessons",
		PreRunE: prepareAppConfig,
		RunE:    runApp,
	}

	rootCmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("api_base_url", "", "Lessons backend base URL")
	rootCmd.Flags().String("identity_base_url", "https://identitytoolkit.googleapis.com", "Identity provider base URL")
	rootCmd.Flags().String("identity_api_key", "", "Identity provider API key")
	rootCmd.Flags().String("google_web_client_id", "", "Google Web OAuth Client ID")
	rootCmd.Flags().String("session_cache_url", "", "Database URL for the session cache (postgres:// or sqlite://; leave empty for in-memory)")
	rootCmd.Flags().Duration("nonce_ttl", 5*time.Minute, "Nonce lifetime for Google Sign-In exchanges")
	rootCmd.Flags().Duration("request_timeout", 15*time.Second, "Timeout for outbound backend and identity provider requests")
	rootCmd.Flags().Bool("dev_insecure_http", false, "Allow plain-HTTP base URLs for local development")
	rootCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin clients")
	rootCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled (required if enable_cors is true)")

	_ = viper.BindPFlag("listen_addr", rootCmd.Flags().Lookup("listen_addr"))
	_ = viper.BindPFlag("api_base_url", rootCmd.Flags().Lookup("api_base_url"))
	_ = viper.BindPFlag("identity_base_url", rootCmd.Flags().Lookup("identity_base_url"))
	_ = viper.BindPFlag("identity_api_key", rootCmd.Flags().Lookup("identity_api_key"))
	_ = viper.BindPFlag("google_web_client_id", rootCmd.Flags().Lookup("google_web_client_id"))
	_ = viper.BindPFlag("session_cache_url", rootCmd.Flags().Lookup("session_cache_url"))
	_ = viper.BindPFlag("nonce_ttl", rootCmd.Flags().Lookup("nonce_ttl"))
	_ = viper.BindPFlag("request_timeout", rootCmd.Flags().Lookup("request_timeout"))
	_ = viper.BindPFlag("dev_insecure_http", rootCmd.Flags().Lookup("dev_insecure_http"))
	_ = viper.BindPFlag("enable_cors", rootCmd.Flags().Lookup("enable_cors"))
	_ = viper.BindPFlag("cors_allowed_origins", rootCmd.Flags().Lookup("cors_allowed_origins"))

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	return rootCmd
}

const (
	configCodeMissingAPIBaseURL      = "config.missing_api_base_url"
	configCodeMissingIdentityBaseURL = "config.missing_identity_base_url"
	configCodeMissingIdentityAPIKey  = "config.missing_identity_api_key"
	configCodeMissingGoogleClientID  = "config.missing_google_web_client_id"
	configCodeInsecureBaseURL        = "config.insecure_base_url"
	configCodeUninitializedAppConf   = "config.uninitialized_app_config"
	configCodeSessionCacheInit       = "config.session_cache_init"
	configCodeIdentityProviderInit   = "config.identity_provider_init"
	configCodeBackendClientInit      = "config.backend_client_init"
)

// AppConfig holds the validated settings the shell needs to run.
type AppConfig struct {
	ListenAddr      string
	APIBaseURL      string
	IdentityBaseURL string
	IdentityAPIKey  string
	GoogleClientID  string
	SessionCacheURL string
	NonceTTL        time.Duration
	RequestTimeout  time.Duration
	DevInsecureHTTP bool
}

type contextKey string

const appConfigContextKey contextKey = "appConfig"

func prepareAppConfig(command *cobra.Command, arguments []string) error {
	appConfig, loadErr := LoadAppConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, appConfigContextKey, appConfig))
	return nil
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

func LoadAppConfig() (AppConfig, error) {
	apiBaseURL := viper.GetString("api_base_url")
	if apiBaseURL == "" {
		return AppConfig{}, configError(configCodeMissingAPIBaseURL, "api_base_url must be provided")
	}

	identityBaseURL := viper.GetString("identity_base_url")
	if identityBaseURL == "" {
		return AppConfig{}, configError(configCodeMissingIdentityBaseURL, "identity_base_url must be provided")
	}

	identityAPIKey := viper.GetString("identity_api_key")
	if identityAPIKey == "" {
		return AppConfig{}, configError(configCodeMissingIdentityAPIKey, "identity_api_key must be provided")
	}

	googleWebClientID := viper.GetString("google_web_client_id")
	if googleWebClientID == "" {
		return AppConfig{}, configError(configCodeMissingGoogleClientID, "google_web_client_id must be provided")
	}

	devInsecureHTTP := viper.GetBool("dev_insecure_http")
	if !devInsecureHTTP {
		if !strings.HasPrefix(apiBaseURL, "https://") {
			return AppConfig{}, configError(configCodeInsecureBaseURL, "api_base_url must use https unless dev_insecure_http is set")
		}
		if !strings.HasPrefix(identityBaseURL, "https://") {
			return AppConfig{}, configError(configCodeInsecureBaseURL, "identity_base_url must use https unless dev_insecure_http is set")
		}
	}

	nonceTTL := 5 * time.Minute
	if configuredNonceTTL := viper.GetDuration("nonce_ttl"); configuredNonceTTL > 0 {
		nonceTTL = configuredNonceTTL
	}

	requestTimeout := 15 * time.Second
	if configuredTimeout := viper.GetDuration("request_timeout"); configuredTimeout > 0 {
		requestTimeout = configuredTimeout
	}

	return AppConfig{
		ListenAddr:      viper.GetString("listen_addr"),
		APIBaseURL:      apiBaseURL,
		IdentityBaseURL: identityBaseURL,
		IdentityAPIKey:  identityAPIKey,
		GoogleClientID:  googleWebClientID,
		SessionCacheURL: viper.GetString("session_cache_url"),
		NonceTTL:        nonceTTL,
		RequestTimeout:  requestTimeout,
		DevInsecureHTTP: devInsecureHTTP,
	}, nil
}

func runApp(command *cobra.Command, arguments []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(appConfigContextKey)
	}
	appConfig, ok := contextValue.(AppConfig)
	if !ok {
		return configError(configCodeUninitializedAppConf, "app configuration not prepared; PreRunE must execute before RunE")
	}

	enableCORS := viper.GetBool("enable_cors")
	corsAllowedOrigins := viper.GetStringSlice("cors_allowed_origins")

	var credentialCache identity.CredentialCache
	if appConfig.SessionCacheURL != "" {
		persistentCache, cacheErr := sessioncache.NewDatabaseStore(context.Background(), appConfig.SessionCacheURL)
		if cacheErr != nil {
			return fmt.Errorf("%s: %w", configCodeSessionCacheInit, cacheErr)
		}
		credentialCache = persistentCache
		logger.Info("using persistent session cache", zap.String("driver", persistentCache.Driver()))
	} else {
		credentialCache = sessioncache.NewMemoryStore()
		logger.Info("using in-memory session cache")
	}

	outboundClient := &http.Client{Timeout: appConfig.RequestTimeout}

	provider, providerErr := identity.NewRESTProvider(appConfig.IdentityBaseURL, appConfig.IdentityAPIKey, outboundClient)
	if providerErr != nil {
		return fmt.Errorf("%s: %w", configCodeIdentityProviderInit, providerErr)
	}

	bridge := identity.NewBridge(identity.BridgeConfig{
		Provider:       provider,
		GoogleVerifier: identity.NewGoogleTokenVerifier(appConfig.GoogleClientID),
		Cache:          credentialCache,
		Logger:         logger,
	})

	api, apiErr := apiclient.New(appConfig.APIBaseURL, bridge, logger)
	if apiErr != nil {
		return fmt.Errorf("%s: %w", configCodeBackendClientInit, apiErr)
	}
	api.SetHTTPClient(outboundClient)

	store := session.NewStore(lessons.NewUserService(api), bridge, logger)
	store.SetFetchTimeout(appConfig.RequestTimeout)
	api.SetUnauthorizedHook(func() {
		store.Logout(context.Background())
	})

	unsubscribe := bridge.Subscribe(store.HandleIdentityChanged)
	defer unsubscribe()
	bridge.Start(command.Context())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(zapLoggerMiddleware(logger))

	if enableCORS {
		corsMiddleware, corsErr := shell.ConfigureCORS(logger, corsAllowedOrigins)
		if corsErr != nil {
			return corsErr
		}
		router.Use(corsMiddleware)
	}

	appShell := shell.New(shell.Config{
		GoogleClientID: appConfig.GoogleClientID,
		NonceTTL:       appConfig.NonceTTL,
	}, store, bridge, api, logger)
	appShell.Mount(router)

	server := &http.Server{
		Addr:              appConfig.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()

	go func() {
		stopSignals := make(chan os.Signal, 1)
		signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
		<-stopSignals
		graceCtx, graceCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", appConfig.ListenAddr))
	if err := serveHTTP(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", err)
	}
	return nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}
