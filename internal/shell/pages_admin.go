package shell

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (shell *Shell) handleAdminHome(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	stats, statsErr := shell.adminService.Stats(contextGin.Request.Context())
	if statsErr != nil {
		if shell.redirectAuthFailure(contextGin, statsErr) {
			return
		}
		shell.logger.Warn("admin stats fetch failed",
			zap.String("code", "shell.admin.stats_failed"),
			zap.Error(statsErr))
	}
	renderView(contextGin, http.StatusOK, "admin_home", viewData{
		"Title":   "Admin",
		"Session": snapshot,
		"Stats":   stats,
	})
}

func (shell *Shell) handleManageUsers(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	users, listErr := shell.adminService.Users(contextGin.Request.Context())
	data := viewData{
		"Title":   "Manage Users",
		"Session": snapshot,
		"Users":   users,
		"Message": contextGin.Query("message"),
		"Error":   contextGin.Query("error"),
	}
	if listErr != nil {
		if shell.redirectAuthFailure(contextGin, listErr) {
			return
		}
		shell.logger.Warn("admin users fetch failed",
			zap.String("code", "shell.admin.users_failed"),
			zap.Error(listErr))
		data["Error"] = "Users are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "manage_users", data)
}

func (shell *Shell) handleSetUserRole(contextGin *gin.Context) {
	userID := contextGin.Param("id")
	role := contextGin.PostForm("role")
	if setErr := shell.adminService.SetUserRole(contextGin.Request.Context(), userID, role); setErr != nil {
		if shell.redirectAuthFailure(contextGin, setErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/admin/manage-users", "", "Could not change the role.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/admin/manage-users", "Role updated.", "")
}

func (shell *Shell) handleManageLessons(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	listing, listErr := shell.adminService.Lessons(contextGin.Request.Context())
	data := viewData{
		"Title":   "Manage Lessons",
		"Session": snapshot,
		"Lessons": listing,
		"Message": contextGin.Query("message"),
		"Error":   contextGin.Query("error"),
	}
	if listErr != nil {
		if shell.redirectAuthFailure(contextGin, listErr) {
			return
		}
		shell.logger.Warn("admin lessons fetch failed",
			zap.String("code", "shell.admin.lessons_failed"),
			zap.Error(listErr))
		data["Error"] = "Lessons are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "manage_lessons", data)
}

func (shell *Shell) handleFeatureLesson(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	featured, _ := strconv.ParseBool(contextGin.PostForm("featured"))
	if featureErr := shell.adminService.FeatureLesson(contextGin.Request.Context(), lessonID, featured); featureErr != nil {
		if shell.redirectAuthFailure(contextGin, featureErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "", "Could not update the feature flag.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "", "")
}

func (shell *Shell) handleReviewLesson(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	reviewed, _ := strconv.ParseBool(contextGin.PostForm("reviewed"))
	if reviewErr := shell.adminService.ReviewLesson(contextGin.Request.Context(), lessonID, reviewed); reviewErr != nil {
		if shell.redirectAuthFailure(contextGin, reviewErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "", "Could not update the review state.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "", "")
}

func (shell *Shell) handleAdminDeleteLesson(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	if deleteErr := shell.adminService.DeleteLesson(contextGin.Request.Context(), lessonID); deleteErr != nil {
		if shell.redirectAuthFailure(contextGin, deleteErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "", "Could not delete the lesson.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/admin/manage-lessons", "Lesson deleted.", "")
}

func (shell *Shell) handleReportedLessons(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	reports, listErr := shell.adminService.Reports(contextGin.Request.Context())
	data := viewData{
		"Title":   "Reported Lessons",
		"Session": snapshot,
		"Reports": reports,
		"Message": contextGin.Query("message"),
		"Error":   contextGin.Query("error"),
	}
	if listErr != nil {
		if shell.redirectAuthFailure(contextGin, listErr) {
			return
		}
		shell.logger.Warn("admin reports fetch failed",
			zap.String("code", "shell.admin.reports_failed"),
			zap.Error(listErr))
		data["Error"] = "Reports are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "reported_lessons", data)
}

func (shell *Shell) handleResolveReport(contextGin *gin.Context) {
	reportID := contextGin.Param("id")
	if resolveErr := shell.adminService.ResolveReport(contextGin.Request.Context(), reportID); resolveErr != nil {
		if shell.redirectAuthFailure(contextGin, resolveErr) {
			return
		}
		shell.redirectBack(contextGin, "/dashboard/admin/reported-lessons", "", "Could not resolve the report.")
		return
	}
	shell.redirectBack(contextGin, "/dashboard/admin/reported-lessons", "Report resolved.", "")
}

func (shell *Shell) handleAdminProfile(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	profile, profileErr := shell.adminService.Profile(contextGin.Request.Context())
	if profileErr != nil {
		if shell.redirectAuthFailure(contextGin, profileErr) {
			return
		}
		shell.logger.Warn("admin profile fetch failed",
			zap.String("code", "shell.admin.profile_failed"),
			zap.Error(profileErr))
	}
	renderView(contextGin, http.StatusOK, "admin_profile", viewData{
		"Title":   "Admin Profile",
		"Session": snapshot,
		"Profile": profile,
	})
}
