package lessons

import (
	"context"
	"net/url"
	"strings"

	"github.com/tyemirov/lifelessons/internal/apiclient"
)

// UserService exposes the profile operations of the backend.
type UserService struct {
	api *apiclient.Client
}

// NewUserService constructs a UserService over the shared client.
func NewUserService(api *apiclient.Client) *UserService {
	return &UserService{api: api}
}

// Me fetches the backend's view of the signed-in user.
func (service *UserService) Me(ctx context.Context) (*ApplicationProfile, error) {
	var profile ApplicationProfile
	if err := service.api.GetJSON(ctx, "/users/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateMe patches the display name and photo of the signed-in user.
func (service *UserService) UpdateMe(ctx context.Context, displayName string, photoURL string) (*ApplicationProfile, error) {
	payload := map[string]string{
		"displayName": displayName,
		"photoURL":    photoURL,
	}
	var profile ApplicationProfile
	if err := service.api.PatchJSON(ctx, "/users/me", payload, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RoleOf resolves the role recorded for an email address. The session store
// derives role from the fetched profile; this endpoint remains for callers
// that only hold an email.
func (service *UserService) RoleOf(ctx context.Context, email string) (string, error) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := service.api.GetJSON(ctx, "/users/"+url.PathEscape(email)+"/role", nil, &payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Role) == "" {
		return RoleUser, nil
	}
	return payload.Role, nil
}

// DashboardStats fetches the signed-in user's dashboard counters.
func (service *UserService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := service.api.GetJSON(ctx, "/users/stats/dashboard", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
