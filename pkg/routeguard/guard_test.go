package routeguard

import "testing"

func TestEvaluateLoadingAlwaysRendersPlaceholder(t *testing.T) {
	t.Parallel()
	sessions := []Session{
		{Loading: true},
		{Loading: true, Authenticated: true},
		{Loading: true, Authenticated: true, Role: AdminRole},
	}
	for _, sessionState := range sessions {
		for _, requirement := range []Requirement{RequireAuthenticated, RequireAdmin} {
			decision := Evaluate(sessionState, requirement, "/dashboard")
			if decision.Outcome != RenderLoading {
				t.Fatalf("expected loading outcome for %+v under %s, got %s", sessionState, requirement, decision.Outcome)
			}
		}
	}
}

func TestEvaluateUnauthenticatedRedirectsWithFrom(t *testing.T) {
	t.Parallel()
	decision := Evaluate(Session{}, RequireAuthenticated, "/dashboard/my-lessons")
	if decision.Outcome != Redirect {
		t.Fatalf("expected redirect, got %s", decision.Outcome)
	}
	if decision.Target != "/login?from=%2Fdashboard%2Fmy-lessons" {
		t.Fatalf("unexpected redirect target: %s", decision.Target)
	}
}

func TestEvaluateUnauthenticatedAdminStillRedirects(t *testing.T) {
	t.Parallel()
	decision := Evaluate(Session{}, RequireAdmin, "/dashboard/admin")
	if decision.Outcome != Redirect {
		t.Fatalf("expected redirect for unauthenticated admin route, got %s", decision.Outcome)
	}
}

func TestEvaluateNonAdminRoleForbidden(t *testing.T) {
	t.Parallel()
	decision := Evaluate(Session{Authenticated: true, Role: "user"}, RequireAdmin, "/dashboard/admin")
	if decision.Outcome != RenderForbidden {
		t.Fatalf("expected forbidden, got %s", decision.Outcome)
	}
}

func TestEvaluateAdmits(t *testing.T) {
	t.Parallel()
	if decision := Evaluate(Session{Authenticated: true, Role: "user"}, RequireAuthenticated, "/dashboard"); decision.Outcome != RenderContent {
		t.Fatalf("expected content for authenticated user, got %s", decision.Outcome)
	}
	if decision := Evaluate(Session{Authenticated: true, Role: AdminRole}, RequireAdmin, "/dashboard/admin"); decision.Outcome != RenderContent {
		t.Fatalf("expected content for admin, got %s", decision.Outcome)
	}
}

func TestEvaluateEmptyPathRedirectsToBareLogin(t *testing.T) {
	t.Parallel()
	decision := Evaluate(Session{}, RequireAuthenticated, "")
	if decision.Target != LoginPath {
		t.Fatalf("expected bare login path, got %s", decision.Target)
	}
	decision = Evaluate(Session{}, RequireAuthenticated, LoginPath)
	if decision.Target != LoginPath {
		t.Fatalf("expected bare login path for login itself, got %s", decision.Target)
	}
}
