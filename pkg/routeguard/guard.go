// Package routeguard decides how a guarded route subtree should render for a
// given session state. Decisions are pure: evaluating one performs no I/O and
// never initiates a profile fetch.
package routeguard

import "net/url"

// AdminRole is the role required by admin-gated routes.
const AdminRole = "admin"

// LoginPath is where unauthenticated visitors are redirected.
const LoginPath = "/login"

// Session is the snapshot a guard evaluates. While Loading is true no
// authorization decision is made.
type Session struct {
	Loading       bool
	Authenticated bool
	Role          string
}

// Requirement names the capability a guarded subtree demands.
type Requirement string

const (
	// RequireAuthenticated admits any signed-in user.
	RequireAuthenticated Requirement = "authenticated"
	// RequireAdmin admits only sessions whose resolved role is admin.
	RequireAdmin Requirement = "admin"
)

// Outcome enumerates the ways a guarded subtree can render.
type Outcome string

const (
	// RenderLoading shows the loading placeholder; the session is unresolved.
	RenderLoading Outcome = "loading"
	// RenderForbidden shows the forbidden view. Authorization failures render
	// rather than redirect so they cannot silently mask bugs.
	RenderForbidden Outcome = "forbidden"
	// Redirect sends the visitor to Decision.Target.
	Redirect Outcome = "redirect"
	// RenderContent admits the request to the guarded subtree.
	RenderContent Outcome = "content"
)

// Decision is the guard's verdict for one request.
type Decision struct {
	Outcome Outcome
	// Target is set for Redirect outcomes. It carries the originally intended
	// location so post-login navigation can return the visitor there.
	Target string
}

// Evaluate maps a session snapshot and a requirement to a rendering decision.
// currentPath is the location the visitor intended to reach.
func Evaluate(session Session, requirement Requirement, currentPath string) Decision {
	if session.Loading {
		return Decision{Outcome: RenderLoading}
	}
	if !session.Authenticated {
		return Decision{Outcome: Redirect, Target: loginRedirectTarget(currentPath)}
	}
	if requirement == RequireAdmin && session.Role != AdminRole {
		return Decision{Outcome: RenderForbidden}
	}
	return Decision{Outcome: RenderContent}
}

func loginRedirectTarget(currentPath string) string {
	if currentPath == "" || currentPath == LoginPath {
		return LoginPath
	}
	query := url.Values{}
	query.Set("from", currentPath)
	return LoginPath + "?" + query.Encode()
}
