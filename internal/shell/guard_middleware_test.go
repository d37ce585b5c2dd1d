package shell

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/identity"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"github.com/tyemirov/lifelessons/internal/session"
	"github.com/tyemirov/lifelessons/pkg/routeguard"
	"go.uber.org/zap/zaptest"
)

type staticProfileFetcher struct {
	profile *lessons.ApplicationProfile
	err     error
}

func (fetcher staticProfileFetcher) Me(ctx context.Context) (*lessons.ApplicationProfile, error) {
	return fetcher.profile, fetcher.err
}

type noopSignOuter struct{}

func (noopSignOuter) SignOut(ctx context.Context) {}

func waitSettled(t *testing.T, store *session.Store) session.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snapshot := store.Snapshot()
		if !snapshot.Loading {
			return snapshot
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never settled")
	return session.Snapshot{}
}

func guardedRouter(store *session.Store, requirement routeguard.Requirement) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", RequireGuard(store, requirement), func(contextGin *gin.Context) {
		contextGin.String(http.StatusOK, "content")
	})
	return router
}

func TestGuardRendersLoadingWhileInitializing(t *testing.T) {
	t.Parallel()
	store := session.NewStore(staticProfileFetcher{}, noopSignOuter{}, zaptest.NewLogger(t))
	router := guardedRouter(store, routeguard.RequireAuthenticated)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 loading page, got %d", recorder.Code)
	}
	if body := recorder.Body.String(); body == "content" {
		t.Fatalf("loading session must not reach the handler")
	}
}

func TestGuardRedirectsAnonymousWithFrom(t *testing.T) {
	t.Parallel()
	store := session.NewStore(staticProfileFetcher{}, noopSignOuter{}, zaptest.NewLogger(t))
	store.HandleIdentityChanged(nil)
	router := guardedRouter(store, routeguard.RequireAuthenticated)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/login?from=%2Fguarded" {
		t.Fatalf("unexpected redirect target: %s", location)
	}
}

func TestGuardForbidsNonAdmin(t *testing.T) {
	t.Parallel()
	store := session.NewStore(staticProfileFetcher{profile: &lessons.ApplicationProfile{Role: lessons.RoleUser}}, noopSignOuter{}, zaptest.NewLogger(t))
	store.HandleIdentityChanged(&identity.Identity{SubjectID: "subject-1"})
	waitSettled(t, store)

	router := guardedRouter(store, routeguard.RequireAdmin)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
}

func TestGuardAdmitsAdmin(t *testing.T) {
	t.Parallel()
	store := session.NewStore(staticProfileFetcher{profile: &lessons.ApplicationProfile{Role: lessons.RoleAdmin}}, noopSignOuter{}, zaptest.NewLogger(t))
	store.HandleIdentityChanged(&identity.Identity{SubjectID: "subject-1"})
	waitSettled(t, store)

	router := guardedRouter(store, routeguard.RequireAdmin)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	if recorder.Code != http.StatusOK || recorder.Body.String() != "content" {
		t.Fatalf("expected handler to run, got %d %q", recorder.Code, recorder.Body.String())
	}
}

func TestGuardAdmitsAuthenticatedUser(t *testing.T) {
	t.Parallel()
	store := session.NewStore(staticProfileFetcher{err: context.DeadlineExceeded}, noopSignOuter{}, zaptest.NewLogger(t))
	store.HandleIdentityChanged(&identity.Identity{SubjectID: "subject-1"})
	waitSettled(t, store)

	// Profile fetch failed, but the session is still authenticated.
	router := guardedRouter(store, routeguard.RequireAuthenticated)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/guarded", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}
