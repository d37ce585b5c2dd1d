package shell

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/identity"
	"go.uber.org/zap"
)

// safeReturnPath keeps post-login redirects on this app's route surface.
func safeReturnPath(candidate string) string {
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}

func (shell *Shell) handleLoginPage(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	if snapshot.Authenticated {
		contextGin.Redirect(http.StatusSeeOther, safeReturnPath(contextGin.Query("from")))
		return
	}
	nonce, nonceErr := shell.nonces.Issue()
	if nonceErr != nil {
		shell.logger.Error("sign-in nonce issue failed",
			zap.String("code", "shell.login.nonce_failed"),
			zap.Error(nonceErr))
	}
	renderView(contextGin, http.StatusOK, "login", viewData{
		"Title":          "Sign In",
		"Session":        snapshot,
		"From":           contextGin.Query("from"),
		"Error":          contextGin.Query("error"),
		"SignInNonce":    nonce,
		"GoogleClientID": shell.configuration.GoogleClientID,
	})
}

func (shell *Shell) handleLoginSubmit(contextGin *gin.Context) {
	email := strings.TrimSpace(contextGin.PostForm("email"))
	password := contextGin.PostForm("password")
	from := safeReturnPath(contextGin.PostForm("from"))

	_, signInErr := shell.authFlows.SignInWithPassword(contextGin.Request.Context(), email, password)
	if signInErr != nil {
		shell.redirectLoginFailure(contextGin, from, signInErr, "Sign-in failed. Please try again.")
		return
	}
	contextGin.Redirect(http.StatusSeeOther, from)
}

func (shell *Shell) handleGoogleLogin(contextGin *gin.Context) {
	from := safeReturnPath(contextGin.PostForm("from"))
	nonce := contextGin.PostForm("nonce")
	if consumeErr := shell.nonces.Consume(nonce); consumeErr != nil {
		shell.redirectLoginFailure(contextGin, from, consumeErr, "The sign-in form expired. Please try again.")
		return
	}

	credential := contextGin.PostForm("credential")
	_, signInErr := shell.authFlows.SignInWithGoogleIDToken(contextGin.Request.Context(), credential)
	if signInErr != nil {
		shell.redirectLoginFailure(contextGin, from, signInErr, "Google sign-in failed.")
		return
	}
	contextGin.Redirect(http.StatusSeeOther, from)
}

func (shell *Shell) handleRegisterPage(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	if snapshot.Authenticated {
		contextGin.Redirect(http.StatusSeeOther, safeReturnPath(contextGin.Query("from")))
		return
	}
	renderView(contextGin, http.StatusOK, "register", viewData{
		"Title":   "Register",
		"Session": snapshot,
		"From":    contextGin.Query("from"),
		"Error":   contextGin.Query("error"),
	})
}

func (shell *Shell) handleRegisterSubmit(contextGin *gin.Context) {
	from := safeReturnPath(contextGin.PostForm("from"))
	seed := identity.RegistrationSeed{
		Name:     strings.TrimSpace(contextGin.PostForm("name")),
		Email:    strings.TrimSpace(contextGin.PostForm("email")),
		Password: contextGin.PostForm("password"),
		PhotoURL: strings.TrimSpace(contextGin.PostForm("photoURL")),
	}

	_, registerErr := shell.authFlows.RegisterWithPassword(contextGin.Request.Context(), seed)
	if registerErr != nil {
		message := "Registration failed. Please try again."
		if authErr, ok := identity.AsAuthError(registerErr); ok && authErr.Message != "" {
			message = authErr.Message
		}
		query := url.Values{}
		query.Set("error", message)
		if from != "/" {
			query.Set("from", from)
		}
		contextGin.Redirect(http.StatusSeeOther, "/register?"+query.Encode())
		return
	}
	contextGin.Redirect(http.StatusSeeOther, from)
}

func (shell *Shell) handleLogout(contextGin *gin.Context) {
	shell.store.Logout(contextGin.Request.Context())
	contextGin.Redirect(http.StatusSeeOther, "/")
}

// redirectLoginFailure surfaces an inline error message on the login form.
// AuthError messages are user-facing; anything else gets the fallback text.
func (shell *Shell) redirectLoginFailure(contextGin *gin.Context, from string, cause error, fallback string) {
	message := fallback
	if authErr, ok := identity.AsAuthError(cause); ok && authErr.Message != "" {
		message = authErr.Message
	}
	query := url.Values{}
	query.Set("error", message)
	if from != "/" {
		query.Set("from", from)
	}
	contextGin.Redirect(http.StatusSeeOther, "/login?"+query.Encode())
}
