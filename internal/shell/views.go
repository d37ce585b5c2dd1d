package shell

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/lifelessons/internal/session"
)

// Views are rendered with html/template: the shell serves minimal HTML
// hydrated by the embedded client script; styling mechanics are out of scope.
var pageTemplates = template.Must(template.New("shell").Parse(`
{{define "layout_head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · Digital Life Lessons</title>
<script src="/static/app.js" defer></script>
</head>
<body>
<nav>
<a href="/">Home</a>
<a href="/public-lessons">Public Lessons</a>
{{if .Session.Authenticated}}
<a href="/dashboard">Dashboard</a>
{{if eq .Session.Role "admin"}}<a href="/dashboard/admin">Admin</a>{{end}}
<a href="/pricing">Pricing</a>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
<span>{{.Session.DisplayName}}</span>
{{else}}
<a href="/login">Sign in</a>
<a href="/register">Register</a>
{{end}}
</nav>
{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{end}}

{{define "layout_foot"}}</body></html>{{end}}

{{define "loading"}}{{template "layout_head" .}}<main><p>Loading…</p></main>{{template "layout_foot" .}}{{end}}

{{define "forbidden"}}{{template "layout_head" .}}<main><h1>403</h1><p>You do not have access to this page.</p><a href="/dashboard">Back to dashboard</a></main>{{template "layout_foot" .}}{{end}}

{{define "not_found"}}{{template "layout_head" .}}<main><h1>404</h1><p>This page does not exist.</p><a href="/">Back home</a></main>{{template "layout_foot" .}}{{end}}

{{define "home"}}{{template "layout_head" .}}<main>
<h1>Digital Life Lessons</h1>
<section><h2>Featured</h2><ul>{{range .Featured}}<li><a href="/lessons/{{.ID}}">{{.Title}}</a> — {{.Category}}</li>{{else}}<li>No featured lessons yet.</li>{{end}}</ul></section>
<section><h2>Top contributors</h2><ol>{{range .Contributors}}<li>{{.Name}} ({{.LessonCount}})</li>{{end}}</ol></section>
<section><h2>Recent lessons</h2><ul>{{range .Recent}}<li><a href="/lessons/{{.ID}}">{{.Title}}</a>{{if .Premium}} · Premium{{end}}</li>{{else}}<li>No lessons yet.</li>{{end}}</ul></section>
</main>{{template "layout_foot" .}}{{end}}

{{define "public_lessons"}}{{template "layout_head" .}}<main>
<h1>Public Lessons</h1>
<form method="get" action="/public-lessons">
<input name="search" value="{{.Filter.Search}}" placeholder="Search">
<select name="category"><option value="">All categories</option>{{range .Categories}}<option value="{{.}}" {{if eq . $.Filter.Category}}selected{{end}}>{{.}}</option>{{end}}</select>
<select name="tone"><option value="">All tones</option>{{range .Tones}}<option value="{{.}}" {{if eq . $.Filter.Tone}}selected{{end}}>{{.}}</option>{{end}}</select>
<button type="submit">Filter</button>
</form>
<ul>{{range .Lessons}}<li><a href="/lessons/{{.ID}}">{{.Title}}</a> — {{.Category}} · {{.EmotionalTone}}{{if .Premium}} · Premium{{end}}</li>{{else}}<li>No lessons match.</li>{{end}}</ul>
<nav class="pagination">{{if .PrevURL}}<a rel="prev" href="{{.PrevURL}}">Previous</a>{{end}}<span>Page {{.Page}}</span>{{if .NextURL}}<a rel="next" href="{{.NextURL}}">Next</a>{{end}}</nav>
</main>{{template "layout_foot" .}}{{end}}

{{define "lesson_details"}}{{template "layout_head" .}}<main>
<h1>{{.Lesson.Title}}</h1>
<p>{{.Lesson.Category}} · {{.Lesson.EmotionalTone}} · {{if .Lesson.Premium}}Premium{{else}}Free{{end}}</p>
<p>{{.Lesson.Description}}</p>
<p>By {{.Lesson.CreatorName}} · {{.Lesson.LikesCount}} likes · {{.Lesson.FavoritesCount}} favorites</p>
<form method="post" action="/lessons/{{.Lesson.ID}}/like"><button type="submit">{{if .Lesson.Liked}}Unlike{{else}}Like{{end}}</button></form>
<form method="post" action="/lessons/{{.Lesson.ID}}/favorite"><button type="submit">{{if .Lesson.Favorited}}Unfavorite{{else}}Favorite{{end}}</button></form>
<form method="post" action="/lessons/{{.Lesson.ID}}/report"><input name="reason" placeholder="Reason" required><button type="submit">Report</button></form>
</main>{{template "layout_foot" .}}{{end}}

{{define "login"}}{{template "layout_head" .}}<main>
<h1>Welcome Back</h1>
<form method="post" action="/login">
<input type="hidden" name="from" value="{{.From}}">
<input type="email" name="email" placeholder="you@example.com" required>
<input type="password" name="password" placeholder="Password" required>
<button type="submit">Sign in</button>
</form>
<form method="post" action="/login/google" id="google-signin-form">
<input type="hidden" name="from" value="{{.From}}">
<input type="hidden" name="nonce" value="{{.SignInNonce}}">
<input type="hidden" name="credential" id="google-credential" value="">
<div id="g_id_onload" data-client_id="{{.GoogleClientID}}"></div>
<button type="submit">Continue with Google</button>
</form>
<p><a href="/register">Need an account? Register</a></p>
</main>{{template "layout_foot" .}}{{end}}

{{define "register"}}{{template "layout_head" .}}<main>
<h1>Create Your Account</h1>
<form method="post" action="/register">
<input type="hidden" name="from" value="{{.From}}">
<input name="name" placeholder="Your full name" required>
<input name="photoURL" placeholder="Optional profile photo link">
<input type="email" name="email" placeholder="you@example.com" required>
<input type="password" name="password" placeholder="Password" required>
<button type="submit">Register</button>
</form>
<p><a href="/login">Already registered? Sign in</a></p>
</main>{{template "layout_foot" .}}{{end}}

{{define "pricing"}}{{template "layout_head" .}}<main>
<h1>Pricing</h1>
{{if .Session.Premium}}
<p>You are a premium member. Enjoy lifetime access to premium lessons and features.</p>
{{else}}
<ul><li>Create premium lessons with paid access</li><li>View all premium public lessons</li></ul>
<form method="post" action="/pricing/checkout"><button type="submit">Go Premium</button></form>
{{end}}
</main>{{template "layout_foot" .}}{{end}}

{{define "payment_success"}}{{template "layout_head" .}}<main><h1>Payment successful</h1><p>Your premium access is being activated.</p><a href="/dashboard">Go to dashboard</a></main>{{template "layout_foot" .}}{{end}}

{{define "payment_cancel"}}{{template "layout_head" .}}<main><h1>Payment cancelled</h1><p>No charge was made.</p><a href="/pricing">Back to pricing</a></main>{{template "layout_foot" .}}{{end}}

{{define "dashboard_home"}}{{template "layout_head" .}}<main>
<h1>Dashboard</h1>
{{with .Stats}}<ul><li>My lessons: {{.MyLessons}}</li><li>My favorites: {{.MyFavorites}}</li><li>Total likes: {{.TotalLikes}}</li></ul>{{else}}<p>Stats unavailable.</p>{{end}}
<nav><a href="/dashboard/add-lesson">Add lesson</a> <a href="/dashboard/my-lessons">My lessons</a> <a href="/dashboard/my-favorites">My favorites</a> <a href="/dashboard/profile">Profile</a></nav>
</main>{{template "layout_foot" .}}{{end}}

{{define "lesson_form"}}{{template "layout_head" .}}<main>
<h1>{{.FormTitle}}</h1>
<form method="post" action="{{.FormAction}}">
<input name="title" value="{{.Draft.Title}}" placeholder="Title" required>
<textarea name="description" placeholder="Description" required>{{.Draft.Description}}</textarea>
<select name="category">{{range .Categories}}<option value="{{.}}" {{if eq . $.Draft.Category}}selected{{end}}>{{.}}</option>{{end}}</select>
<select name="emotionalTone">{{range .Tones}}<option value="{{.}}" {{if eq . $.Draft.EmotionalTone}}selected{{end}}>{{.}}</option>{{end}}</select>
<input name="imageUrl" value="{{.Draft.ImageURL}}" placeholder="Image URL">
<select name="visibility"><option value="public" {{if eq .Draft.Visibility "public"}}selected{{end}}>Public</option><option value="private" {{if eq .Draft.Visibility "private"}}selected{{end}}>Private</option></select>
<select name="accessLevel"><option value="free" {{if eq .Draft.AccessLevel "free"}}selected{{end}}>Free</option><option value="premium" {{if eq .Draft.AccessLevel "premium"}}selected{{end}}>Premium</option></select>
<button type="submit">Save</button>
</form>
</main>{{template "layout_foot" .}}{{end}}

{{define "my_lessons"}}{{template "layout_head" .}}<main>
<h1>My Lessons</h1>
<ul>{{range .Lessons}}<li>{{.Title}} · {{.Visibility}} · {{.AccessLevel}}
<a href="/dashboard/update-lesson/{{.ID}}">Edit</a>
<form method="post" action="/dashboard/my-lessons/{{.ID}}/delete"><button type="submit">Delete</button></form>
</li>{{else}}<li>You have not written any lessons yet.</li>{{end}}</ul>
</main>{{template "layout_foot" .}}{{end}}

{{define "my_favorites"}}{{template "layout_head" .}}<main>
<h1>My Favorites</h1>
<ul>{{range .Favorites}}<li><a href="/lessons/{{.Lesson.ID}}">{{.Lesson.Title}}</a>
<form method="post" action="/dashboard/my-favorites/{{.Lesson.ID}}/toggle"><button type="submit">Remove</button></form>
</li>{{else}}<li>No favorites saved.</li>{{end}}</ul>
</main>{{template "layout_foot" .}}{{end}}

{{define "profile"}}{{template "layout_head" .}}<main>
<h1>Profile</h1>
<form method="post" action="/dashboard/profile">
<input name="displayName" value="{{.DisplayName}}" placeholder="Display name">
<input name="photoURL" value="{{.PhotoURL}}" placeholder="Photo URL">
<button type="submit">Save</button>
</form>
{{with .Profile}}<p>{{.Email}} · role {{.Role}} · {{if .IsPremium}}premium{{else}}free{{end}}</p>{{end}}
</main>{{template "layout_foot" .}}{{end}}

{{define "admin_home"}}{{template "layout_head" .}}<main>
<h1>Admin</h1>
{{with .Stats}}<ul><li>Users: {{.TotalUsers}}</li><li>Lessons: {{.TotalLessons}}</li><li>Premium users: {{.PremiumUsers}}</li><li>Pending reports: {{.PendingReports}}</li></ul>{{else}}<p>Stats unavailable.</p>{{end}}
<nav><a href="/dashboard/admin/manage-users">Users</a> <a href="/dashboard/admin/manage-lessons">Lessons</a> <a href="/dashboard/admin/reported-lessons">Reports</a> <a href="/dashboard/admin/profile">Profile</a></nav>
</main>{{template "layout_foot" .}}{{end}}

{{define "manage_users"}}{{template "layout_head" .}}<main>
<h1>Manage Users</h1>
<ul>{{range .Users}}<li>{{.Email}} · {{.Role}}
<form method="post" action="/dashboard/admin/manage-users/{{.ID}}/role">
{{if eq .Role "admin"}}<input type="hidden" name="role" value="user"><button type="submit">Demote</button>
{{else}}<input type="hidden" name="role" value="admin"><button type="submit">Promote</button>{{end}}
</form>
</li>{{end}}</ul>
</main>{{template "layout_foot" .}}{{end}}

{{define "manage_lessons"}}{{template "layout_head" .}}<main>
<h1>Manage Lessons</h1>
<ul>{{range .Lessons}}<li>{{.Title}} · by {{.CreatorEmail}}
<form method="post" action="/dashboard/admin/manage-lessons/{{.ID}}/feature"><input type="hidden" name="featured" value="{{if .IsFeatured}}false{{else}}true{{end}}"><button type="submit">{{if .IsFeatured}}Unfeature{{else}}Feature{{end}}</button></form>
<form method="post" action="/dashboard/admin/manage-lessons/{{.ID}}/review"><input type="hidden" name="reviewed" value="{{if .IsReviewed}}false{{else}}true{{end}}"><button type="submit">{{if .IsReviewed}}Unreview{{else}}Mark reviewed{{end}}</button></form>
<form method="post" action="/dashboard/admin/manage-lessons/{{.ID}}/delete"><button type="submit">Delete</button></form>
</li>{{end}}</ul>
</main>{{template "layout_foot" .}}{{end}}

{{define "reported_lessons"}}{{template "layout_head" .}}<main>
<h1>Reported Lessons</h1>
<ul>{{range .Reports}}<li>{{.LessonTitle}} — {{.Reason}} (by {{.ReporterEmail}})
<form method="post" action="/dashboard/admin/reported-lessons/{{.ID}}/resolve"><button type="submit">Resolve</button></form>
<form method="post" action="/dashboard/admin/manage-lessons/{{.LessonID}}/delete"><button type="submit">Delete lesson</button></form>
</li>{{else}}<li>No open reports.</li>{{end}}</ul>
</main>{{template "layout_foot" .}}{{end}}

{{define "admin_profile"}}{{template "layout_head" .}}<main>
<h1>Admin Profile</h1>
{{with .Profile}}<p>{{.DisplayName}} · {{.Email}} · role {{.Role}}</p>{{else}}<p>Profile unavailable.</p>{{end}}
</main>{{template "layout_foot" .}}{{end}}
`))

type viewData map[string]any

func renderView(contextGin *gin.Context, statusCode int, templateName string, data viewData) {
	if data == nil {
		data = viewData{}
	}
	if _, found := data["Title"]; !found {
		data["Title"] = "Digital Life Lessons"
	}
	if _, found := data["Session"]; !found {
		data["Session"] = session.Snapshot{}
	}
	contextGin.Status(statusCode)
	contextGin.Header("Content-Type", "text/html; charset=utf-8")
	if executeErr := pageTemplates.ExecuteTemplate(contextGin.Writer, templateName, data); executeErr != nil {
		contextGin.String(http.StatusInternalServerError, "render error")
	}
}

func renderLoading(contextGin *gin.Context) {
	renderView(contextGin, http.StatusOK, "loading", viewData{"Title": "Loading"})
}

func renderForbidden(contextGin *gin.Context) {
	renderView(contextGin, http.StatusForbidden, "forbidden", viewData{"Title": "Forbidden"})
}

func renderNotFound(contextGin *gin.Context) {
	renderView(contextGin, http.StatusNotFound, "not_found", viewData{"Title": "Not Found"})
}
