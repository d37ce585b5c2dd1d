package shell

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"go.uber.org/zap"
)

func (shell *Shell) handleDashboardHome(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	stats, statsErr := shell.userService.DashboardStats(contextGin.Request.Context())
	if statsErr != nil {
		if shell.redirectAuthFailure(contextGin, statsErr) {
			return
		}
		shell.logger.Warn("dashboard stats fetch failed",
			zap.String("code", "shell.dashboard.stats_failed"),
			zap.Error(statsErr))
	}
	renderView(contextGin, http.StatusOK, "dashboard_home", viewData{
		"Title":   "Dashboard",
		"Session": snapshot,
		"Stats":   stats,
	})
}

func (shell *Shell) handleAddLessonPage(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	renderView(contextGin, http.StatusOK, "lesson_form", viewData{
		"Title":      "Add Lesson",
		"Session":    snapshot,
		"FormTitle":  "Add Lesson",
		"FormAction": "/dashboard/add-lesson",
		"Draft":      lessons.LessonDraft{Visibility: lessons.VisibilityPublic, AccessLevel: lessons.AccessLevelFree},
		"Categories": lessons.Categories,
		"Tones":      lessons.EmotionalTones,
		"Error":      contextGin.Query("error"),
	})
}

func draftFromForm(contextGin *gin.Context) lessons.LessonDraft {
	return lessons.LessonDraft{
		Title:         strings.TrimSpace(contextGin.PostForm("title")),
		Description:   strings.TrimSpace(contextGin.PostForm("description")),
		Category:      contextGin.PostForm("category"),
		EmotionalTone: contextGin.PostForm("emotionalTone"),
		ImageURL:      strings.TrimSpace(contextGin.PostForm("imageUrl")),
		Visibility:    contextGin.PostForm("visibility"),
		AccessLevel:   contextGin.PostForm("accessLevel"),
	}
}

func (shell *Shell) handleAddLessonSubmit(contextGin *gin.Context) {
	draft := draftFromForm(contextGin)
	if _, createErr := shell.lessonService.Create(contextGin.Request.Context(), draft); createErr != nil {
		if shell.redirectAuthFailure(contextGin, createErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/add-lesson", "", "Could not save the lesson.")
		return
	}
	// Creating a lesson can change usage counters on the profile.
	shell.store.RefetchProfile(contextGin.Request.Context())
	shell.redirectBack(contextGin, "/dashboard/my-lessons", "Lesson added successfully.", "")
}

func (shell *Shell) handleMyLessons(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	listing, listErr := shell.lessonService.MyLessons(contextGin.Request.Context())
	data := viewData{
		"Title":   "My Lessons",
		"Session": snapshot,
		"Lessons": listing,
		"Message": contextGin.Query("message"),
		"Error":   contextGin.Query("error"),
	}
	if listErr != nil {
		if shell.redirectAuthFailure(contextGin, listErr) {
			return
		}
		shell.logger.Warn("my lessons fetch failed",
			zap.String("code", "shell.my_lessons.fetch_failed"),
			zap.Error(listErr))
		data["Error"] = "Your lessons are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "my_lessons", data)
}

func (shell *Shell) handleMyLessonDelete(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	if deleteErr := shell.lessonService.Delete(contextGin.Request.Context(), lessonID); deleteErr != nil {
		if shell.redirectAuthFailure(contextGin, deleteErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/my-lessons", "", "Could not delete the lesson.")
		return
	}
	shell.store.RefetchProfile(contextGin.Request.Context())
	shell.redirectBack(contextGin, "/dashboard/my-lessons", "Lesson deleted.", "")
}

func (shell *Shell) handleUpdateLessonPage(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	lessonID := contextGin.Param("id")

	lesson, fetchErr := shell.lessonService.Lesson(contextGin.Request.Context(), lessonID)
	if fetchErr != nil {
		if shell.redirectAuthFailure(contextGin, fetchErr) {
			return
		}
		renderNotFound(contextGin)
		return
	}
	renderView(contextGin, http.StatusOK, "lesson_form", viewData{
		"Title":      "Update Lesson",
		"Session":    snapshot,
		"FormTitle":  "Update Lesson",
		"FormAction": "/dashboard/update-lesson/" + url.PathEscape(lessonID),
		"Draft": lessons.LessonDraft{
			Title:         lesson.Title,
			Description:   lesson.Description,
			Category:      lesson.Category,
			EmotionalTone: lesson.EmotionalTone,
			ImageURL:      lesson.ImageURL,
			Visibility:    lesson.Visibility,
			AccessLevel:   lesson.AccessLevel,
		},
		"Categories": lessons.Categories,
		"Tones":      lessons.EmotionalTones,
		"Error":      contextGin.Query("error"),
	})
}

func (shell *Shell) handleUpdateLessonSubmit(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	draft := draftFromForm(contextGin)
	if _, updateErr := shell.lessonService.Update(contextGin.Request.Context(), lessonID, draft); updateErr != nil {
		if shell.redirectAuthFailure(contextGin, updateErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/update-lesson/"+url.PathEscape(lessonID), "", "Could not update the lesson.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/my-lessons", "Lesson updated.", "")
}

func (shell *Shell) handleMyFavorites(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	favorites, listErr := shell.lessonService.MyFavorites(contextGin.Request.Context())
	data := viewData{
		"Title":     "My Favorites",
		"Session":   snapshot,
		"Favorites": favorites,
		"Message":   contextGin.Query("message"),
		"Error":     contextGin.Query("error"),
	}
	if listErr != nil {
		if shell.redirectAuthFailure(contextGin, listErr) {
			return
		}
		shell.logger.Warn("favorites fetch failed",
			zap.String("code", "shell.favorites.fetch_failed"),
			zap.Error(listErr))
		data["Error"] = "Your favorites are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "my_favorites", data)
}

func (shell *Shell) handleFavoriteToggle(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	if _, toggleErr := shell.lessonService.ToggleFavorite(contextGin.Request.Context(), lessonID); toggleErr != nil {
		if shell.redirectAuthFailure(contextGin, toggleErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/my-favorites", "", "Could not update your favorites.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/my-favorites", "", "")
}

func (shell *Shell) handleProfilePage(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	renderView(contextGin, http.StatusOK, "profile", viewData{
		"Title":       "Profile",
		"Session":     snapshot,
		"DisplayName": snapshot.DisplayName,
		"PhotoURL":    snapshot.AvatarURL,
		"Profile":     snapshot.Profile,
		"Message":     contextGin.Query("message"),
		"Error":       contextGin.Query("error"),
	})
}

func (shell *Shell) handleProfileUpdate(contextGin *gin.Context) {
	displayName := strings.TrimSpace(contextGin.PostForm("displayName"))
	photoURL := strings.TrimSpace(contextGin.PostForm("photoURL"))

	if _, updateErr := shell.userService.UpdateMe(contextGin.Request.Context(), displayName, photoURL); updateErr != nil {
		if shell.redirectAuthFailure(contextGin, updateErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/profile", "", "Could not save your profile.")
		return
	}
	shell.store.RefetchProfile(contextGin.Request.Context())
	shell.redirectBack(contextGin, "/dashboard/profile", "Profile saved.", "")
}

func (shell *Shell) handlePricing(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	renderView(contextGin, http.StatusOK, "pricing", viewData{
		"Title":   "Pricing",
		"Session": snapshot,
		"Error":   contextGin.Query("error"),
	})
}

func (shell *Shell) handleCheckout(contextGin *gin.Context) {
	checkout, checkoutErr := shell.paymentService.CreateCheckoutSession(contextGin.Request.Context())
	if checkoutErr != nil {
		if shell.redirectAuthFailure(contextGin, checkoutErr) {
			return
		}
		shell.redirectBack(contextGin, "/pricing", "", "Checkout is temporarily unavailable.")
		return
	}
	contextGin.Redirect(http.StatusSeeOther, checkout.URL)
}

// handlePaymentSuccess refreshes the profile so the new entitlement shows up
// without a restart.
func (shell *Shell) handlePaymentSuccess(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)
	if snapshot.Authenticated {
		shell.store.RefetchProfile(contextGin.Request.Context())
		snapshot = shell.store.Snapshot()
	}
	renderView(contextGin, http.StatusOK, "payment_success", viewData{
		"Title":   "Payment Successful",
		"Session": snapshot,
	})
}

func (shell *Shell) handlePaymentCancel(contextGin *gin.Context) {
	renderView(contextGin, http.StatusOK, "payment_cancel", viewData{
		"Title":   "Payment Cancelled",
		"Session": snapshotFrom(contextGin, shell.store),
	})
}
