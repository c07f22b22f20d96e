package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/response"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Config config.Config
	Logger *slog.Logger

	Users         UserStore
	Tokens        TokenService
	Authenticator middleware.Authenticator
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Stats         StatsReader
	Media         MediaGateway
	DB            Pinger

	// CredentialLimiter guards register, login and refresh. Nil disables it.
	CredentialLimiter middleware.RateLimiter
}

// NewRouter builds the chi route table for the API.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	media := Media{
		Gateway:        deps.Media,
		TempDir:        cfg.ObjectStore.TempDir,
		MaxUploadBytes: cfg.ObjectStore.MaxUploadBytes,
	}
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{Users: deps.Users, Tokens: deps.Tokens, Media: media, SameSite: cfg.Auth.SameSite()}
	videos := VideoHandler{Videos: deps.Videos, Media: media}
	comments := CommentHandler{Comments: deps.Comments}
	tweets := TweetHandler{Tweets: deps.Tweets}
	likes := LikeHandler{Likes: deps.Likes}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	dashboard := DashboardHandler{Stats: deps.Stats, Videos: deps.Videos}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimit.GlobalRequests > 0 {
		r.Use(httprate.Limit(cfg.RateLimit.GlobalRequests, cfg.RateLimit.GlobalWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				response.Error(w, r, errs.New(errs.ErrRateLimited, "too many requests, try again later"))
			}),
		))
	}
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, errs.New(errs.ErrNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(r.Context(), w, http.StatusMethodNotAllowed, nil, "method not allowed")
	})

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Handle("/metrics", metrics.Handler())

	authenticated := middleware.Authenticate(deps.Authenticator)
	limitCredentials := func(scope string) func(http.Handler) http.Handler {
		return middleware.LimitByIP(deps.CredentialLimiter, scope)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(limitCredentials("register")).Post("/register", users.Register)
			r.With(limitCredentials("login")).Post("/login", users.Login)
			r.With(limitCredentials("refresh")).Post("/refresh-token", users.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/c/{username}", users.Channel)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", videos.List)
				r.Post("/", videos.Publish)
				r.Get("/{videoId}", videos.Get)
				r.Patch("/{videoId}", videos.Update)
				r.Delete("/{videoId}", videos.Delete)
				r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/{videoId}", comments.List)
				r.Post("/{videoId}", comments.Add)
				r.Patch("/c/{commentId}", comments.Update)
				r.Delete("/c/{commentId}", comments.Delete)
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Post("/", tweets.Create)
				r.Get("/user/{userId}", tweets.ListByUser)
				r.Patch("/{tweetId}", tweets.Update)
				r.Delete("/{tweetId}", tweets.Delete)
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/toggle/{kind}/{targetId}", likes.Toggle)
				r.Get("/videos", likes.LikedVideos)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/c/{channelId}", subscriptions.Toggle)
				r.Get("/c/{channelId}", subscriptions.Subscribers)
				r.Get("/u/{subscriberId}", subscriptions.SubscribedChannels)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/{channelId}/stats", dashboard.ChannelStats)
				r.Get("/{channelId}/videos", dashboard.ChannelVideos)
			})
		})
	})

	return r
}
