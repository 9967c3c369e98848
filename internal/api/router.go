package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/canary/internal/api/handler"
	mw "github.com/iconidentify/canary/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	collectionHandler *handler.CollectionHandler,
	listHandler *handler.ListHandler,
	preferencesHandler *handler.PreferencesHandler,
	feedHandler *handler.FeedHandler,
	backupHandler *handler.BackupHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for the local UI shell
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		// System stats
		r.Get("/stats", healthHandler.Stats)

		// Collection operations
		r.Get("/collections", collectionHandler.List)
		r.Post("/collections", collectionHandler.Create)
		r.Get("/collections/{id}", collectionHandler.Get)
		r.Delete("/collections/{id}", collectionHandler.Delete)
		r.Post("/collections/{id}/tweets", collectionHandler.AddTweet)
		r.Delete("/collections/{id}/tweets/{tweetID}", collectionHandler.RemoveTweet)

		// Bookmark operations across all collections
		r.Get("/bookmarks/{tweetID}", collectionHandler.BookmarkStatus)
		r.Delete("/bookmarks/{tweetID}", collectionHandler.RemoveTweetFromAll)

		// List operations
		r.Get("/lists", listHandler.List)
		r.Post("/lists", listHandler.Create)
		r.Get("/lists/{id}", listHandler.Get)
		r.Delete("/lists/{id}", listHandler.Delete)
		r.Post("/lists/{id}/users", listHandler.AddUser)
		r.Delete("/lists/{id}/users/{userName}", listHandler.RemoveUser)

		// Preferences
		r.Get("/preferences", preferencesHandler.Get)
		r.Put("/preferences", preferencesHandler.Save)
		r.Post("/preferences/share-card", preferencesHandler.DismissShareCard)
		r.Post("/preferences/redirect-modal", preferencesHandler.DismissRedirectModal)

		// Feed sessions
		r.Post("/feeds", feedHandler.Create)
		r.Get("/feeds/{id}", feedHandler.Get)
		r.Post("/feeds/{id}/more", feedHandler.LoadMore)
		r.Post("/feeds/{id}/refresh", feedHandler.Refresh)
		r.Delete("/feeds/{id}", feedHandler.Delete)

		// Backup and restore
		r.Post("/backup", backupHandler.Backup)
		r.Get("/backup/status", backupHandler.Status)
		r.Post("/backup/restore", backupHandler.Restore)
		r.Delete("/backup/remote", backupHandler.ClearRemote)
		r.Post("/backup/clear", backupHandler.Clear)
	})

	return r
}
