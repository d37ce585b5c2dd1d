package shell

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/lessons"
	"go.uber.org/zap"
)

// handleHome renders the landing page. Fetch failures degrade to empty
// sections rather than failing the page.
func (shell *Shell) handleHome(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	featured, featuredErr := shell.lessonService.FeaturedLessons(contextGin.Request.Context())
	if featuredErr != nil {
		shell.logger.Warn("featured lessons fetch failed",
			zap.String("code", "shell.home.featured_failed"),
			zap.Error(featuredErr))
	}
	contributors, contributorsErr := shell.lessonService.TopContributors(contextGin.Request.Context())
	if contributorsErr != nil {
		shell.logger.Warn("top contributors fetch failed",
			zap.String("code", "shell.home.contributors_failed"),
			zap.Error(contributorsErr))
	}
	recent, recentErr := shell.lessonService.PublicLessons(contextGin.Request.Context(), lessons.PublicLessonFilter{
		Sort:  "newest",
		Limit: 6,
	})
	if recentErr != nil {
		shell.logger.Warn("recent lessons fetch failed",
			zap.String("code", "shell.home.recent_failed"),
			zap.Error(recentErr))
	}

	renderView(contextGin, http.StatusOK, "home", viewData{
		"Title":        "Home",
		"Session":      snapshot,
		"Featured":     featured,
		"Contributors": contributors,
		"Recent":       recent,
	})
}

// handlePublicLessons renders the filterable public listing.
func (shell *Shell) handlePublicLessons(contextGin *gin.Context) {
	snapshot := snapshotFrom(contextGin, shell.store)

	page, _ := strconv.Atoi(contextGin.Query("page"))
	if page < 1 {
		page = 1
	}
	filter := lessons.PublicLessonFilter{
		Search:   contextGin.Query("search"),
		Category: contextGin.Query("category"),
		Tone:     contextGin.Query("tone"),
		Sort:     contextGin.Query("sort"),
		Page:     page,
	}

	listing, listErr := shell.lessonService.PublicLessons(contextGin.Request.Context(), filter)
	data := viewData{
		"Title":      "Public Lessons",
		"Session":    snapshot,
		"Filter":     filter,
		"Categories": lessons.Categories,
		"Tones":      lessons.EmotionalTones,
		"Lessons":    listing,
		"Page":       page,
	}
	if page > 1 {
		data["PrevURL"] = listingPageURL(filter, page-1)
	}
	// The next page exists only when the current one came back non-empty.
	if listErr == nil && len(listing) > 0 {
		data["NextURL"] = listingPageURL(filter, page+1)
	}
	if listErr != nil {
		shell.logger.Warn("public lessons fetch failed",
			zap.String("code", "shell.public_lessons.fetch_failed"),
			zap.Error(listErr))
		data["Error"] = "Lessons are temporarily unavailable."
	}
	renderView(contextGin, http.StatusOK, "public_lessons", data)
}

// listingPageURL rebuilds the listing URL for another page with the active
// filters preserved.
func listingPageURL(filter lessons.PublicLessonFilter, page int) string {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Tone != "" {
		query.Set("tone", filter.Tone)
	}
	if filter.Sort != "" {
		query.Set("sort", filter.Sort)
	}
	query.Set("page", strconv.Itoa(page))
	return "/public-lessons?" + query.Encode()
}

// handleLessonDetails renders one lesson. Premium lessons viewed without a
// premium entitlement send the visitor to the pricing page.
func (shell *Shell) handleLessonDetails(contextGin *gin.Context) {
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
	if lesson.Premium() && !snapshot.Premium {
		contextGin.Redirect(http.StatusSeeOther, "/pricing")
		return
	}

	renderView(contextGin, http.StatusOK, "lesson_details", viewData{
		"Title":   lesson.Title,
		"Session": snapshot,
		"Lesson":  lesson,
		"Message": contextGin.Query("message"),
		"Error":   contextGin.Query("error"),
	})
}

func (shell *Shell) handleLessonLike(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	if _, likeErr := shell.lessonService.Like(contextGin.Request.Context(), lessonID); likeErr != nil {
		if shell.redirectAuthFailure(contextGin, likeErr) {
			return
		}
		shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "", "Could not update your like.")
		return
	}
	shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "", "")
}

func (shell *Shell) handleLessonFavorite(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	if _, toggleErr := shell.lessonService.ToggleFavorite(contextGin.Request.Context(), lessonID); toggleErr != nil {
		if shell.redirectAuthFailure(contextGin, toggleErr) {
			return
		}
		shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "", "Could not update your favorites.")
		return
	}
	shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "", "")
}

func (shell *Shell) handleLessonReport(contextGin *gin.Context) {
	lessonID := contextGin.Param("id")
	reason := contextGin.PostForm("reason")
	if reportErr := shell.lessonService.Report(contextGin.Request.Context(), lessonID, reason); reportErr != nil {
		if shell.redirectAuthFailure(contextGin, reportErr) {
			return
		}
		shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "", "Could not submit the report.")
		return
	}
	shell.redirectBack(contextGin, "/lessons/"+url.PathEscape(lessonID), "Report submitted. Thank you.", "")
}

// redirectBack sends the visitor to path carrying an optional flash message
// or error in the query string.
func (shell *Shell) redirectBack(contextGin *gin.Context, path string, message string, errorMessage string) {
	query := url.Values{}
	if message != "" {
		query.Set("message", message)
	}
	if errorMessage != "" {
		query.Set("error", errorMessage)
	}
	target := path
	if len(query) > 0 {
		target = path + "?" + query.Encode()
	}
	contextGin.Redirect(http.StatusSeeOther, target)
}
