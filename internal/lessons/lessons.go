package lessons

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/tyemirov/lifelessons/internal/apiclient"
)

// LessonService exposes the lesson and favorites operations of the backend.
type LessonService struct {
	api *apiclient.Client
}

// NewLessonService constructs a LessonService over the shared client.
func NewLessonService(api *apiclient.Client) *LessonService {
	return &LessonService{api: api}
}

// PublicLessonFilter narrows the public listing.
type PublicLessonFilter struct {
	Search   string
	Category string
	Tone     string
	Sort     string
	Page     int
	Limit    int
}

func (filter PublicLessonFilter) query() url.Values {
	query := url.Values{}
	if strings.TrimSpace(filter.Search) != "" {
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
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	return query
}

// LessonDraft carries the fields of the add/update lesson forms.
type LessonDraft struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	EmotionalTone string `json:"emotionalTone"`
	ImageURL      string `json:"imageUrl"`
	Visibility    string `json:"visibility"`
	AccessLevel   string `json:"accessLevel"`
}

// Validate checks the draft before it is sent to the backend.
func (draft LessonDraft) Validate() error {
	return validation.ValidateStruct(&draft,
		validation.Field(&draft.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&draft.Description, validation.Required),
		validation.Field(&draft.Category, validation.Required, validation.In(stringsToAny(Categories)...)),
		validation.Field(&draft.EmotionalTone, validation.Required, validation.In(stringsToAny(EmotionalTones)...)),
		validation.Field(&draft.ImageURL, is.URL),
		validation.Field(&draft.Visibility, validation.Required, validation.In(VisibilityPublic, VisibilityPrivate)),
		validation.Field(&draft.AccessLevel, validation.Required, validation.In(AccessLevelFree, AccessLevelPremium)),
	)
}

func stringsToAny(values []string) []interface{} {
	converted := make([]interface{}, len(values))
	for index, value := range values {
		converted[index] = value
	}
	return converted
}

// PublicLessons lists public lessons; works signed out.
func (service *LessonService) PublicLessons(ctx context.Context, filter PublicLessonFilter) ([]Lesson, error) {
	var listing []Lesson
	if err := service.api.GetJSON(ctx, "/lessons/public", filter.query(), &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// FeaturedLessons lists the lessons curated onto the landing page.
func (service *LessonService) FeaturedLessons(ctx context.Context) ([]Lesson, error) {
	var listing []Lesson
	if err := service.api.GetJSON(ctx, "/lessons/public/featured", nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// TopContributors lists the public top-contributors board.
func (service *LessonService) TopContributors(ctx context.Context) ([]Contributor, error) {
	var board []Contributor
	if err := service.api.GetJSON(ctx, "/lessons/public/top-contributors", nil, &board); err != nil {
		return nil, err
	}
	return board, nil
}

// Lesson fetches a single lesson by id.
func (service *LessonService) Lesson(ctx context.Context, lessonID string) (*Lesson, error) {
	var lesson Lesson
	if err := service.api.GetJSON(ctx, "/lessons/"+url.PathEscape(lessonID), nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// MyLessons lists every lesson created by the signed-in user.
func (service *LessonService) MyLessons(ctx context.Context) ([]Lesson, error) {
	var listing []Lesson
	if err := service.api.GetJSON(ctx, "/lessons/my/all", nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Create submits a new lesson after validating the draft locally.
func (service *LessonService) Create(ctx context.Context, draft LessonDraft) (*Lesson, error) {
	if validationErr := draft.Validate(); validationErr != nil {
		return nil, fmt.Errorf("lessons.create.invalid_draft: %w", validationErr)
	}
	var created Lesson
	if err := service.api.PostJSON(ctx, "/lessons", draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update patches an existing lesson owned by the signed-in user.
func (service *LessonService) Update(ctx context.Context, lessonID string, draft LessonDraft) (*Lesson, error) {
	if validationErr := draft.Validate(); validationErr != nil {
		return nil, fmt.Errorf("lessons.update.invalid_draft: %w", validationErr)
	}
	var updated Lesson
	if err := service.api.PatchJSON(ctx, "/lessons/"+url.PathEscape(lessonID), draft, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a lesson owned by the signed-in user.
func (service *LessonService) Delete(ctx context.Context, lessonID string) error {
	return service.api.Delete(ctx, "/lessons/"+url.PathEscape(lessonID))
}

// Like toggles the signed-in user's like on a lesson.
func (service *LessonService) Like(ctx context.Context, lessonID string) (*Lesson, error) {
	var updated Lesson
	if err := service.api.PostJSON(ctx, "/lessons/"+url.PathEscape(lessonID)+"/like", nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Report files a moderation report against a lesson.
func (service *LessonService) Report(ctx context.Context, lessonID string, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("lessons.report.empty_reason: a reason is required")
	}
	payload := map[string]string{"reason": reason}
	return service.api.PostJSON(ctx, "/lessons/"+url.PathEscape(lessonID)+"/report", payload, nil)
}

// ToggleFavorite adds or removes the lesson from the user's favorites.
func (service *LessonService) ToggleFavorite(ctx context.Context, lessonID string) (bool, error) {
	payload := map[string]string{"lessonId": lessonID}
	var outcome struct {
		Favorited bool `json:"favorited"`
	}
	if err := service.api.PostJSON(ctx, "/favorites/toggle", payload, &outcome); err != nil {
		return false, err
	}
	return outcome.Favorited, nil
}

// MyFavorites lists the signed-in user's saved lessons.
func (service *LessonService) MyFavorites(ctx context.Context) ([]Favorite, error) {
	var favorites []Favorite
	if err := service.api.GetJSON(ctx, "/favorites/my", nil, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}
