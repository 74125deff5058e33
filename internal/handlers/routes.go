package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/cache"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Tokens        TokenService
	Media         MediaRelay
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Profiles      cache.Cache
	ProfileTTL    time.Duration
	TempDir       string
	Limiter       RateLimiter

	// Session requires a valid access token and attaches the caller's
	// identity to the request context.
	Session func(http.Handler) http.Handler
}

// RegisterRoutes wires HTTP handlers into the provided chi router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{}
	authn := AuthHandler{Users: deps.Users, Tokens: deps.Tokens, Media: deps.Media, TempDir: deps.TempDir, Limiter: deps.Limiter}
	users := UserHandler{Users: deps.Users, Media: deps.Media, TempDir: deps.TempDir, Profiles: deps.Profiles, CacheTTL: deps.ProfileTTL}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, TempDir: deps.TempDir}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos}

	r.Get("/healthz", health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authn.Register)
			r.Post("/login", authn.Login)
			r.Post("/refresh-token", authn.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(deps.Session)
				r.Get("/c/{username}", users.ChannelProfile)
				r.Post("/logout", authn.Logout)
				r.Post("/change-password", authn.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(deps.Session)
			r.Get("/", videos.List)
			r.Get("/{videoId}", videos.Watch)
			r.Post("/", videos.Upload)
			r.Patch("/{videoId}", videos.Update)
			r.Patch("/{videoId}/thumbnail", videos.UpdateThumbnail)
			r.Delete("/{videoId}", videos.Delete)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(deps.Session)
			r.Get("/video/{videoId}", comments.ListByVideo)
			r.Post("/video/{videoId}", comments.Create)
			r.Get("/mine", comments.Mine)
			r.Patch("/{commentId}", comments.Update)
			r.Delete("/{commentId}", comments.Delete)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(deps.Session)
			r.Post("/toggle/video/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/comment/{commentId}", likes.ToggleComment)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(deps.Session)
			r.Get("/channel/{channelId}/subscribers", subscriptions.Subscribers)
			r.Get("/user/{subscriberId}/channels", subscriptions.Channels)
			r.Post("/channel/{channelId}", subscriptions.Toggle)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Use(deps.Session)
			r.Get("/user/{userId}", playlists.ListByUser)
			r.Post("/", playlists.Create)
			r.Patch("/{playlistId}", playlists.Update)
			r.Delete("/{playlistId}", playlists.Delete)
			r.Post("/{playlistId}/videos/{videoId}", playlists.AddVideo)
			r.Delete("/{playlistId}/videos/{videoId}", playlists.RemoveVideo)
		})
	})
}
