package shell

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/session"
	"github.com/tyemirov/lifelessons/pkg/routeguard"
)

// sessionSnapshotKey carries the per-request session snapshot so handlers and
// the guard decide from the same state.
const sessionSnapshotKey = "session_snapshot"

// RequireGuard gates a route subtree on session state. The middleware only
// reads the store; profile fetching stays the store's job so guard-driven and
// store-driven fetches cannot race.
func RequireGuard(store *session.Store, requirement routeguard.Requirement) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		snapshot := store.Snapshot()
		contextGin.Set(sessionSnapshotKey, snapshot)

		decision := routeguard.Evaluate(routeguard.Session{
			Loading:       snapshot.Loading,
			Authenticated: snapshot.Authenticated,
			Role:          snapshot.Role,
		}, requirement, contextGin.Request.URL.Path)

		switch decision.Outcome {
		case routeguard.RenderLoading:
			renderLoading(contextGin)
			contextGin.Abort()
		case routeguard.RenderForbidden:
			renderForbidden(contextGin)
			contextGin.Abort()
		case routeguard.Redirect:
			contextGin.Redirect(http.StatusSeeOther, decision.Target)
			contextGin.Abort()
		default:
			contextGin.Next()
		}
	}
}

// snapshotFrom returns the snapshot stashed by the guard, falling back to a
// fresh read on ungated routes.
func snapshotFrom(contextGin *gin.Context, store *session.Store) session.Snapshot {
	if value, found := contextGin.Get(sessionSnapshotKey); found {
		if snapshot, ok := value.(session.Snapshot); ok {
			return snapshot
		}
	}
	return store.Snapshot()
}
