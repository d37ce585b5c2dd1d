package shell

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/apiclient"
	"github.com/tyemirov/lifelessons/internal/identity"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"github.com/tyemirov/lifelessons/internal/session"
	"github.com/tyemirov/lifelessons/pkg/routeguard"
	webassets "github.com/tyemirov/lifelessons/web"
	"go.uber.org/zap"
)

// AuthFlows are the identity bridge operations the auth pages drive.
type AuthFlows interface {
	SignInWithPassword(ctx context.Context, email string, password string) (*identity.Identity, error)
	SignInWithGoogleIDToken(ctx context.Context, rawIDToken string) (*identity.Identity, error)
	RegisterWithPassword(ctx context.Context, seed identity.RegistrationSeed) (*identity.Identity, error)
}

// Config carries the shell settings.
type Config struct {
	GoogleClientID string
	NonceTTL       time.Duration
}

// Shell owns the route surface of the app: the public pages, the
// authenticated dashboard, and the admin subtree.
type Shell struct {
	configuration  Config
	store          *session.Store
	authFlows      AuthFlows
	lessonService  *lessons.LessonService
	userService    *lessons.UserService
	adminService   *lessons.AdminService
	paymentService *lessons.PaymentService
	logger         *zap.Logger
	nonces         *signInNonceStore
}

// New constructs a Shell over the shared services.
func New(configuration Config, store *session.Store, authFlows AuthFlows, api *apiclient.Client, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	nonceTTL := configuration.NonceTTL
	if nonceTTL <= 0 {
		nonceTTL = 5 * time.Minute
	}
	return &Shell{
		configuration:  configuration,
		store:          store,
		authFlows:      authFlows,
		lessonService:  lessons.NewLessonService(api),
		userService:    lessons.NewUserService(api),
		adminService:   lessons.NewAdminService(api),
		paymentService: lessons.NewPaymentService(api),
		logger:         logger,
		nonces:         newSignInNonceStore(nonceTTL),
	}
}

// Mount registers the full route table on the router.
func (shell *Shell) Mount(router *gin.Engine) {
	router.GET("/static/app.js", func(contextGin *gin.Context) {
		ServeEmbeddedStaticJS(contextGin, webassets.FS, "app.js")
	})
	router.GET("/session", shell.handleSessionState)

	// Public surface.
	router.GET("/", shell.handleHome)
	router.GET("/public-lessons", shell.handlePublicLessons)
	router.GET("/login", shell.handleLoginPage)
	router.POST("/login", shell.handleLoginSubmit)
	router.POST("/login/google", shell.handleGoogleLogin)
	router.GET("/register", shell.handleRegisterPage)
	router.POST("/register", shell.handleRegisterSubmit)
	router.POST("/logout", shell.handleLogout)
	router.GET("/pricing/success", shell.handlePaymentSuccess)
	router.GET("/pricing/cancel", shell.handlePaymentCancel)

	// Authenticated surface.
	authenticated := router.Group("", RequireGuard(shell.store, routeguard.RequireAuthenticated))
	authenticated.GET("/lessons/:id", shell.handleLessonDetails)
	authenticated.POST("/lessons/:id/like", shell.handleLessonLike)
	authenticated.POST("/lessons/:id/favorite", shell.handleLessonFavorite)
	authenticated.POST("/lessons/:id/report", shell.handleLessonReport)
	authenticated.GET("/pricing", shell.handlePricing)
	authenticated.POST("/pricing/checkout", shell.handleCheckout)

	dashboard := router.Group("/dashboard", RequireGuard(shell.store, routeguard.RequireAuthenticated))
	dashboard.GET("", shell.handleDashboardHome)
	dashboard.GET("/add-lesson", shell.handleAddLessonPage)
	dashboard.POST("/add-lesson", shell.handleAddLessonSubmit)
	dashboard.GET("/my-lessons", shell.handleMyLessons)
	dashboard.POST("/my-lessons/:id/delete", shell.handleMyLessonDelete)
	dashboard.GET("/update-lesson/:id", shell.handleUpdateLessonPage)
	dashboard.POST("/update-lesson/:id", shell.handleUpdateLessonSubmit)
	dashboard.GET("/my-favorites", shell.handleMyFavorites)
	dashboard.POST("/my-favorites/:id/toggle", shell.handleFavoriteToggle)
	dashboard.GET("/profile", shell.handleProfilePage)
	dashboard.POST("/profile", shell.handleProfileUpdate)

	admin := dashboard.Group("/admin", RequireGuard(shell.store, routeguard.RequireAdmin))
	admin.GET("", shell.handleAdminHome)
	admin.GET("/manage-users", shell.handleManageUsers)
	admin.POST("/manage-users/:id/role", shell.handleSetUserRole)
	admin.GET("/manage-lessons", shell.handleManageLessons)
	admin.POST("/manage-lessons/:id/feature", shell.handleFeatureLesson)
	admin.POST("/manage-lessons/:id/review", shell.handleReviewLesson)
	admin.POST("/manage-lessons/:id/delete", shell.handleAdminDeleteLesson)
	admin.GET("/reported-lessons", shell.handleReportedLessons)
	admin.POST("/reported-lessons/:id/resolve", shell.handleResolveReport)
	admin.GET("/profile", shell.handleAdminProfile)

	router.NoRoute(func(contextGin *gin.Context) {
		renderNotFound(contextGin)
	})
}

// handleSessionState exposes the session snapshot to the embedded client.
func (shell *Shell) handleSessionState(contextGin *gin.Context) {
	snapshot := shell.store.Snapshot()
	contextGin.JSON(http.StatusOK, gin.H{
		"loading":       snapshot.Loading,
		"authenticated": snapshot.Authenticated,
		"premium":       snapshot.Premium,
		"role":          snapshot.Role,
		"email":         snapshot.Email,
		"display":       snapshot.DisplayName,
		"avatar":        snapshot.AvatarURL,
	})
}

// redirectAuthFailure routes 401/403 request failures to the login view after
// the client's unauthorized hook has already forced the logout.
func (shell *Shell) redirectAuthFailure(contextGin *gin.Context, err error) bool {
	requestErr, ok := apiclient.AsRequestError(err)
	if !ok {
		return false
	}
	if requestErr.StatusCode != http.StatusUnauthorized && requestErr.StatusCode != http.StatusForbidden {
		return false
	}
	contextGin.Redirect(http.StatusSeeOther, routeguard.LoginPath)
	return true
}
