package lessons

import "time"

// Visibility and access levels a lesson can carry.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	AccessLevelFree    = "free"
	AccessLevelPremium = "premium"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Categories a lesson can be filed under.
var Categories = []string{
	"Personal Growth",
	"Career",
	"Relationships",
	"Mindset",
	"Mistakes Learned",
}

// EmotionalTones a lesson can carry.
var EmotionalTones = []string{
	"Motivational",
	"Sad",
	"Realization",
	"Gratitude",
	"Reflective",
}

// Lesson is the backend's record of a personal-growth narrative.
type Lesson struct {
	ID             string    `json:"_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	EmotionalTone  string    `json:"emotionalTone"`
	ImageURL       string    `json:"imageUrl"`
	Visibility     string    `json:"visibility"`
	AccessLevel    string    `json:"accessLevel"`
	LikesCount     int       `json:"likesCount"`
	FavoritesCount int       `json:"favoritesCount"`
	Liked          bool      `json:"liked"`
	Favorited      bool      `json:"favorited"`
	IsFeatured     bool      `json:"isFeatured"`
	IsReviewed     bool      `json:"isReviewed"`
	CreatorName    string    `json:"creatorName"`
	CreatorEmail   string    `json:"creatorEmail"`
	CreatorPhoto   string    `json:"creatorPhoto"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Premium reports whether the lesson requires a premium entitlement to view.
func (lesson Lesson) Premium() bool {
	return lesson.AccessLevel == AccessLevelPremium
}

// ApplicationProfile is the backend's view of the signed-in user.
type ApplicationProfile struct {
	ID            string `json:"_id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL"`
	Role          string `json:"role"`
	IsPremium     bool   `json:"isPremium"`
	LessonCount   int    `json:"lessonCount"`
	FavoriteCount int    `json:"favoriteCount"`
}

// Favorite links a saved lesson to the user's favorites list.
type Favorite struct {
	ID     string `json:"_id"`
	Lesson Lesson `json:"lesson"`
}

// LessonReport is a user-submitted moderation report.
type LessonReport struct {
	ID            string    `json:"_id"`
	LessonID      string    `json:"lessonId"`
	LessonTitle   string    `json:"lessonTitle"`
	Reason        string    `json:"reason"`
	ReporterEmail string    `json:"reporterEmail"`
	Resolved      bool      `json:"resolved"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AdminStats summarizes the moderation dashboard.
type AdminStats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalLessons   int `json:"totalLessons"`
	PremiumUsers   int `json:"premiumUsers"`
	PendingReports int `json:"pendingReports"`
}

// DashboardStats summarizes the signed-in user's dashboard.
type DashboardStats struct {
	MyLessons   int `json:"myLessons"`
	MyFavorites int `json:"myFavorites"`
	TotalLikes  int `json:"totalLikes"`
}

// Contributor is one entry of the public top-contributors board.
type Contributor struct {
	Name        string `json:"name"`
	PhotoURL    string `json:"photoURL"`
	LessonCount int    `json:"lessonCount"`
}

// CheckoutSession points the shell at the external checkout page.
type CheckoutSession struct {
	URL string `json:"url"`
}
