package handlers

import (
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     UserStore
	Sessions  SessionManager
	Videos    VideoStore
	Comments  CommentStore
	Tweets    TweetStore
	Playlists PlaylistStore
	Toggler   EdgeToggler
	Edges     SubscriptionLister
	Views     ViewBuilder
	History   VisitRecorder
	Media     MediaStore
	Releaser  MediaReleaser
	Prober    DurationProber
	Verifier  middleware.AccessVerifier
	Limiter   RateLimiter
	NowFunc   func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Route
// patterns carry the method, so handlers never check it themselves.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authn := middleware.RequireUser(deps.Verifier)
	maybe := middleware.OptionalUser(deps.Verifier)

	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.Limiter, NowFunc: deps.NowFunc}
	users := UserHandler{Users: deps.Users, Views: deps.Views, Media: deps.Media, Releaser: deps.Releaser}
	videos := VideoHandler{Videos: deps.Videos, Views: deps.Views, History: deps.History,
		Media: deps.Media, Releaser: deps.Releaser, Prober: deps.Prober, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Views: deps.Views, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, Views: deps.Views, NowFunc: deps.NowFunc}
	engage := EngagementHandler{Toggler: deps.Toggler, Edges: deps.Edges, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Views: deps.Views, NowFunc: deps.NowFunc}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.Handle("POST /api/v1/auth/logout", authn(http.HandlerFunc(auth.Logout)))
	mux.Handle("POST /api/v1/auth/change-password", authn(http.HandlerFunc(auth.ChangePassword)))

	mux.Handle("GET /api/v1/users/me", authn(http.HandlerFunc(users.Me)))
	mux.Handle("PATCH /api/v1/users/me", authn(http.HandlerFunc(users.UpdateMe)))
	mux.Handle("PUT /api/v1/users/me/avatar", authn(http.HandlerFunc(users.UploadAvatar)))
	mux.Handle("PUT /api/v1/users/me/cover", authn(http.HandlerFunc(users.UploadCoverImage)))
	mux.Handle("GET /api/v1/users/me/history", authn(http.HandlerFunc(users.History)))
	mux.Handle("GET /api/v1/users/me/likes", authn(http.HandlerFunc(users.LikedVideos)))
	mux.Handle("GET /api/v1/users/me/subscriptions", authn(http.HandlerFunc(engage.Subscriptions)))

	mux.Handle("GET /api/v1/channels/{username}", maybe(http.HandlerFunc(users.Channel)))
	mux.Handle("POST /api/v1/channels/{id}/subscribe", authn(http.HandlerFunc(engage.ToggleSubscription)))
	mux.HandleFunc("GET /api/v1/channels/{id}/subscribers", engage.Subscribers)

	mux.Handle("POST /api/v1/videos", authn(http.HandlerFunc(videos.Upload)))
	mux.HandleFunc("GET /api/v1/videos", videos.Feed)
	mux.Handle("GET /api/v1/videos/{id}", maybe(http.HandlerFunc(videos.Detail)))
	mux.Handle("PATCH /api/v1/videos/{id}", authn(http.HandlerFunc(videos.Update)))
	mux.Handle("PUT /api/v1/videos/{id}/thumbnail", authn(http.HandlerFunc(videos.UpdateThumbnail)))
	mux.Handle("PATCH /api/v1/videos/{id}/publish", authn(http.HandlerFunc(videos.TogglePublish)))
	mux.Handle("DELETE /api/v1/videos/{id}", authn(http.HandlerFunc(videos.Delete)))
	mux.Handle("POST /api/v1/videos/{id}/like", authn(http.HandlerFunc(engage.ToggleVideoLike)))

	mux.Handle("POST /api/v1/videos/{id}/comments", authn(http.HandlerFunc(comments.Create)))
	mux.Handle("GET /api/v1/videos/{id}/comments", maybe(http.HandlerFunc(comments.List)))
	mux.Handle("PATCH /api/v1/comments/{id}", authn(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/{id}", authn(http.HandlerFunc(comments.Delete)))
	mux.Handle("POST /api/v1/comments/{id}/like", authn(http.HandlerFunc(engage.ToggleCommentLike)))

	mux.Handle("POST /api/v1/tweets", authn(http.HandlerFunc(tweets.Create)))
	mux.Handle("PATCH /api/v1/tweets/{id}", authn(http.HandlerFunc(tweets.Update)))
	mux.Handle("DELETE /api/v1/tweets/{id}", authn(http.HandlerFunc(tweets.Delete)))
	mux.Handle("POST /api/v1/tweets/{id}/like", authn(http.HandlerFunc(engage.ToggleTweetLike)))
	mux.Handle("GET /api/v1/users/{id}/tweets", maybe(http.HandlerFunc(tweets.ListByUser)))

	mux.Handle("POST /api/v1/playlists", authn(http.HandlerFunc(playlists.Create)))
	mux.HandleFunc("GET /api/v1/playlists/{id}", playlists.Get)
	mux.Handle("PATCH /api/v1/playlists/{id}", authn(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlists/{id}", authn(http.HandlerFunc(playlists.Delete)))
	mux.Handle("POST /api/v1/playlists/{id}/videos/{videoId}", authn(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{id}/videos/{videoId}", authn(http.HandlerFunc(playlists.RemoveVideo)))
	mux.HandleFunc("GET /api/v1/users/{id}/playlists", playlists.ListByUser)
}
