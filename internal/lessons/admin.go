package lessons

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tyemirov/lifelessons/internal/apiclient"
)

// AdminService exposes the moderation operations of the backend. Every call
// requires an admin session; the backend enforces that with 403.
type AdminService struct {
	api *apiclient.Client
}

// NewAdminService constructs an AdminService over the shared client.
func NewAdminService(api *apiclient.Client) *AdminService {
	return &AdminService{api: api}
}

// Stats fetches the moderation dashboard counters.
func (service *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := service.api.GetJSON(ctx, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Profile fetches the admin's own profile view.
func (service *AdminService) Profile(ctx context.Context) (*ApplicationProfile, error) {
	var profile ApplicationProfile
	if err := service.api.GetJSON(ctx, "/admin/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Users lists every application user.
func (service *AdminService) Users(ctx context.Context) ([]ApplicationProfile, error) {
	var listing []ApplicationProfile
	if err := service.api.GetJSON(ctx, "/admin/users", nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// SetUserRole promotes or demotes a user.
func (service *AdminService) SetUserRole(ctx context.Context, userID string, role string) error {
	if role != RoleUser && role != RoleAdmin {
		return fmt.Errorf("lessons.admin.invalid_role: %q", role)
	}
	payload := map[string]string{"role": role}
	return service.api.PatchJSON(ctx, "/admin/users/"+url.PathEscape(userID)+"/role", payload, nil)
}

// Lessons lists every lesson for moderation.
func (service *AdminService) Lessons(ctx context.Context) ([]Lesson, error) {
	var listing []Lesson
	if err := service.api.GetJSON(ctx, "/admin/lessons", nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// FeatureLesson toggles a lesson's placement on the landing page.
func (service *AdminService) FeatureLesson(ctx context.Context, lessonID string, featured bool) error {
	payload := map[string]bool{"featured": featured}
	return service.api.PatchJSON(ctx, "/admin/lessons/"+url.PathEscape(lessonID)+"/feature", payload, nil)
}

// ReviewLesson marks a lesson as reviewed by moderation.
func (service *AdminService) ReviewLesson(ctx context.Context, lessonID string, reviewed bool) error {
	payload := map[string]bool{"reviewed": reviewed}
	return service.api.PatchJSON(ctx, "/admin/lessons/"+url.PathEscape(lessonID)+"/review", payload, nil)
}

// DeleteLesson removes any lesson, regardless of creator.
func (service *AdminService) DeleteLesson(ctx context.Context, lessonID string) error {
	return service.api.Delete(ctx, "/admin/lessons/"+url.PathEscape(lessonID))
}

// Reports lists open moderation reports.
func (service *AdminService) Reports(ctx context.Context) ([]LessonReport, error) {
	var listing []LessonReport
	if err := service.api.GetJSON(ctx, "/admin/reports", nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ReportsForLesson lists every report filed against one lesson.
func (service *AdminService) ReportsForLesson(ctx context.Context, lessonID string) ([]LessonReport, error) {
	var listing []LessonReport
	if err := service.api.GetJSON(ctx, "/admin/reports/"+url.PathEscape(lessonID), nil, &listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ResolveReport closes a report after moderation action.
func (service *AdminService) ResolveReport(ctx context.Context, reportID string) error {
	return service.api.PatchJSON(ctx, "/admin/reports/"+url.PathEscape(reportID)+"/resolve", nil, nil)
}
