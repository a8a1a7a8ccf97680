package rest

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the public and authenticated listing routes.
func NewRouter(h *Handler, jwtSecret string, observer LatencyObserver, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.Named("HTTP"), observer))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/schemas/{type}", h.GetSchema)
		r.Get("/listings", h.BrowseListings)
		r.Get("/listings/{id}", h.GetListing)
		r.Get("/users/{userID}/listings", h.ListByOwner)

		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(jwtSecret, log.Named("JWTAuth")))

			r.Post("/listings", h.CreateListing)
			r.Put("/listings/{id}", h.UpdateListing)
			r.Delete("/listings/{id}", h.DeleteListing)

			r.Post("/listings/{id}/favorite", h.AddFavorite)
			r.Delete("/listings/{id}/favorite", h.RemoveFavorite)
			r.Get("/me/favorites", h.ListFavorites)
		})
	})
	return r
}
